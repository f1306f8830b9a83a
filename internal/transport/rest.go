package transport

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"racetrack-engine/internal/lobby"
)

// Router builds the REST lobby surface (spec §6): create, list, get,
// update settings, and delete (leave/disband).
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/lobbies", s.handleCreateLobby).Methods(http.MethodPost)
	r.HandleFunc("/lobbies", s.handleListLobbies).Methods(http.MethodGet)
	r.HandleFunc("/lobbies/{id}", s.handleGetLobby).Methods(http.MethodGet)
	r.HandleFunc("/lobbies/{id}/settings", s.handleUpdateSettings).Methods(http.MethodPut)
	r.HandleFunc("/lobbies/{id}", s.handleDeleteLobby).Methods(http.MethodDelete)
	r.HandleFunc("/stream", s.HandleStream)
	return r
}

type createLobbyRequest struct {
	Name       string `json:"name"`
	HostID     string `json:"host_id"`
	Difficulty string `json:"difficulty"`
	Seed       *int64 `json:"seed,omitempty"`
	MaxPlayers int    `json:"max_players"`
}

func (s *Server) handleCreateLobby(w http.ResponseWriter, r *http.Request) {
	var req createLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.HostID == "" {
		http.Error(w, "name and host_id are required", http.StatusBadRequest)
		return
	}
	l := s.lobbies.Create(req.Name, req.HostID, lobby.Settings{
		Difficulty: req.Difficulty,
		Seed:       req.Seed,
		MaxPlayers: req.MaxPlayers,
	})
	writeJSON(w, http.StatusCreated, s.lobbyStateOf(l))
}

func (s *Server) handleListLobbies(w http.ResponseWriter, r *http.Request) {
	status := lobby.Status(r.URL.Query().Get("status"))
	lobbies := s.lobbies.List(status)
	out := make([]LobbyStateData, len(lobbies))
	for i, l := range lobbies {
		out[i] = s.lobbyStateOf(l)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetLobby(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	l, err := s.lobbies.Get(id)
	if err != nil {
		http.Error(w, "no such lobby", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.lobbyStateOf(l))
}

type updateSettingsRequest struct {
	Difficulty  string `json:"difficulty"`
	Seed        *int64 `json:"seed,omitempty"`
	MaxPlayers  int    `json:"max_players"`
	GracePeriod float64 `json:"grace_period"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := s.lobbies.UpdateSettings(id, playerID, lobby.Settings{
		Difficulty: req.Difficulty, Seed: req.Seed, MaxPlayers: req.MaxPlayers, GracePeriod: req.GracePeriod,
	})
	switch {
	case err == lobby.ErrNotFound:
		http.Error(w, "no such lobby", http.StatusNotFound)
	case err == lobby.ErrInvalidTransition:
		http.Error(w, "forbidden", http.StatusForbidden)
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		l, _ := s.lobbies.Get(id)
		s.broadcastLobbyState(id)
		writeJSON(w, http.StatusOK, s.lobbyStateOf(l))
	}
}

func (s *Server) handleDeleteLobby(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}

	l, err := s.lobbies.Get(id)
	if err == lobby.ErrNotFound {
		http.Error(w, "no such lobby", http.StatusNotFound)
		return
	}

	if playerID == l.HostID {
		if err := s.lobbies.Disband(id, playerID); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		s.broadcastToLobby(id, "lobby_member_left", map[string]string{"player_id": playerID, "reason": "disbanded"})
	} else {
		if err := s.lobbies.Leave(id, playerID); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		s.broadcastToLobby(id, "lobby_member_left", map[string]string{"player_id": playerID})
		s.broadcastLobbyState(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
