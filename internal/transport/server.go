package transport

import (
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"racetrack-engine/internal/botmanager"
	"racetrack-engine/internal/config"
	"racetrack-engine/internal/engine"
	"racetrack-engine/internal/ids"
	"racetrack-engine/internal/lobby"
	"racetrack-engine/internal/registry"
	"racetrack-engine/internal/track"
)

var errSendChannelFull = errors.New("transport: send channel full")

// BotStore is the external collaborator that resolves a bot_id to its
// code, class name, and owner (spec §6).
type BotStore interface {
	Get(botID string) (code, className, ownerUsername string, ok bool)
}

// Server wires the websocket stream and REST lobby surface to the
// session registry, lobby manager, and bot sandbox.
type Server struct {
	cfg      *config.Config
	logger   zerolog.Logger
	registry *registry.Registry
	lobbies  *lobby.Manager
	bots     *botmanager.Manager
	botStore BotStore
	factory  track.Factory

	lobbyConnsMu sync.Mutex
	lobbyConns   map[string]map[string]*Client // lobby_id -> conn_id -> client
}

// NewServer constructs a Server bound to the given collaborators.
func NewServer(cfg *config.Config, logger zerolog.Logger, reg *registry.Registry, lobbies *lobby.Manager, bots *botmanager.Manager, botStore BotStore, factory track.Factory) *Server {
	return &Server{
		cfg: cfg, logger: logger, registry: reg, lobbies: lobbies, bots: bots, botStore: botStore, factory: factory,
		lobbyConns: make(map[string]map[string]*Client),
	}
}

// HandleStream upgrades an HTTP request to a WebSocket and establishes
// the client<->session message stream (spec §6 query parameters). Three
// modes are supported: lobby mode (lobby_id set, session not yet
// started), direct mode against an existing session (session_id set),
// and direct mode creating a fresh ad hoc session (neither set).
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lobbyID := q.Get("lobby_id")
	sessionID := q.Get("session_id")
	playerID := q.Get("player_id")
	if playerID == "" {
		playerID = ids.New()
	}

	var joinedLobby *lobby.Lobby
	switch {
	case lobbyID != "":
		l, err := s.lobbies.Get(lobbyID)
		if err != nil {
			http.Error(w, "no such lobby", http.StatusNotFound)
			return
		}
		if err := s.lobbies.Join(lobbyID, playerID, q.Get("username")); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		joinedLobby = l
		if l.GameSessionID != "" {
			sessionID = l.GameSessionID
		}
	case sessionID == "":
		difficulty := q.Get("difficulty")
		tr, err := s.factory.Build(difficulty, nil)
		if err != nil {
			http.Error(w, "track build failed", http.StatusBadRequest)
			return
		}
		sessionID = ids.New()
		eng := engine.New(sessionID, tr, s.cfg, s.bots, s.logger, false, 0)
		eng.AddPlayer(playerID, false, nil)
		s.registry.Register(sessionID, eng, false)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	connID := ids.New()
	client := newClient(connID, sessionID, playerID, conn, s, s.logger.With().Str("conn_id", connID).Logger())
	if joinedLobby != nil {
		client.LobbyID = joinedLobby.ID
		s.addLobbyConn(joinedLobby.ID, client)
		client.sendEnvelope("lobby_joined", s.lobbyStateOf(joinedLobby))
		s.broadcastLobbyState(joinedLobby.ID)
	}

	if sessionID != "" {
		if eng := s.registry.Get(sessionID); eng != nil {
			if s.registry.AddConnection(sessionID, connID, client) {
				client.sendEnvelope("connected", ConnectedData{SessionID: sessionID, PlayerID: playerID, Track: trackWire(eng.TrackRef())})
			}
		}
	}

	go client.writePump()
	go client.readPump()
}

func (s *Server) handleStartRace(c *Client) {
	if c.LobbyID != "" {
		s.startLobbyRace(c)
		return
	}
	eng := s.registry.Get(c.SessionID)
	if eng == nil {
		return
	}
	if err := eng.StartRace(); err != nil {
		c.sendEnvelope("error", ErrorData{Kind: "InvalidTransition", Message: err.Error()})
	}
}

func (s *Server) startLobbyRace(c *Client) {
	sessionID, tr, err := s.lobbies.StartRace(c.LobbyID, c.PlayerID)
	if err != nil {
		c.sendEnvelope("error", ErrorData{Kind: "InvalidTransition", Message: err.Error()})
		return
	}

	l, _ := s.lobbies.Get(c.LobbyID)
	var gracePeriod float64
	if l != nil {
		gracePeriod = l.Settings.GracePeriod
	}
	eng := engine.New(sessionID, tr, s.cfg, s.bots, s.logger, true, gracePeriod)
	if l != nil {
		for _, m := range l.Snapshot() {
			if m.IsBot {
				code, className, _, ok := s.botStore.Get(m.BotRef)
				if !ok {
					continue
				}
				handle, err := s.bots.Load(code, className)
				if err != nil {
					continue
				}
				eng.AddPlayer(m.ID, true, handle)
			} else {
				eng.AddPlayer(m.ID, false, nil)
			}
		}
	}
	s.registry.Register(sessionID, eng, true)
	s.lobbies.TransitionToRacing(c.LobbyID)

	s.broadcastToLobby(c.LobbyID, "race_starting", map[string]string{"session_id": sessionID})
	eng.StartRace()
}

func (s *Server) handleSubmitBot(c *Client, botID string) {
	code, className, _, ok := s.botStore.Get(botID)
	if !ok {
		c.sendEnvelope("bot_submission_response", BotSubmissionResponseData{Accepted: false, Message: "bot not found"})
		return
	}
	handle, err := s.bots.Load(code, className)
	if err != nil {
		c.sendEnvelope("bot_submission_response", BotSubmissionResponseData{Accepted: false, Message: err.Error()})
		return
	}
	eng := s.registry.Get(c.SessionID)
	if eng == nil {
		return
	}
	eng.AddPlayer(c.PlayerID, true, handle)
	c.sendEnvelope("bot_submission_response", BotSubmissionResponseData{Accepted: true})
}

func (s *Server) handleLeaveLobby(c *Client) {
	if c.LobbyID == "" {
		return
	}
	lobbyID := c.LobbyID
	s.lobbies.Leave(lobbyID, c.PlayerID)
	s.removeLobbyConn(lobbyID, c.ID)
	s.broadcastToLobby(lobbyID, "lobby_member_left", map[string]string{"player_id": c.PlayerID})
	if l, err := s.lobbies.Get(lobbyID); err == nil {
		s.broadcastLobbyState(l.ID)
	}
}

func (s *Server) handleAddBotToLobby(c *Client, botID string) {
	if c.LobbyID == "" {
		return
	}
	if _, err := s.lobbies.AddBot(c.LobbyID, botID, c.PlayerID); err != nil {
		c.sendEnvelope("error", ErrorData{Kind: "InvalidTransition", Message: err.Error()})
		return
	}
	s.broadcastLobbyState(c.LobbyID)
}

func (s *Server) addLobbyConn(lobbyID string, c *Client) {
	s.lobbyConnsMu.Lock()
	defer s.lobbyConnsMu.Unlock()
	if s.lobbyConns[lobbyID] == nil {
		s.lobbyConns[lobbyID] = make(map[string]*Client)
	}
	s.lobbyConns[lobbyID][c.ID] = c
}

func (s *Server) removeLobbyConn(lobbyID, connID string) {
	s.lobbyConnsMu.Lock()
	defer s.lobbyConnsMu.Unlock()
	if conns, ok := s.lobbyConns[lobbyID]; ok {
		delete(conns, connID)
	}
}

func (s *Server) broadcastToLobby(lobbyID, msgType string, payload any) {
	s.lobbyConnsMu.Lock()
	conns := make([]*Client, 0, len(s.lobbyConns[lobbyID]))
	for _, c := range s.lobbyConns[lobbyID] {
		conns = append(conns, c)
	}
	s.lobbyConnsMu.Unlock()
	for _, c := range conns {
		c.sendEnvelope(msgType, payload)
	}
}

func (s *Server) broadcastLobbyState(lobbyID string) {
	l, err := s.lobbies.Get(lobbyID)
	if err != nil {
		return
	}
	s.broadcastToLobby(lobbyID, "lobby_state", s.lobbyStateOf(l))
}

func (s *Server) lobbyStateOf(l *lobby.Lobby) LobbyStateData {
	members := l.Snapshot()
	wire := make([]LobbyMemberWire, len(members))
	for i, m := range members {
		wire[i] = LobbyMemberWire{ID: m.ID, Username: m.Username, IsBot: m.IsBot, BotRef: m.BotRef, Ready: m.Ready}
	}
	return LobbyStateData{LobbyID: l.ID, JoinCode: l.JoinCode, Name: l.Name, HostID: l.HostID, Status: string(l.Status), Members: wire}
}
