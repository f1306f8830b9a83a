// Package transport implements the WebSocket client<->session stream
// and the REST lobby surface (spec §6), following the teacher's
// Client/ReadPump/WritePump shape generalized to JSON envelopes.
package transport

import (
	"encoding/json"

	"racetrack-engine/internal/engine"
	"racetrack-engine/internal/physics"
	"racetrack-engine/internal/track"
)

// Envelope is the {type, data} shape shared by every message in both
// directions (spec §6).
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// InputData is the client->server "input" message payload. Missing
// fields default to false, matching Go's zero value.
type InputData struct {
	Accelerate bool `json:"accelerate"`
	Brake      bool `json:"brake"`
	TurnLeft   bool `json:"turn_left"`
	TurnRight  bool `json:"turn_right"`
	Nitro      bool `json:"nitro"`
}

func (d InputData) toPlayerInput() physics.Input {
	return physics.Input{Accelerate: d.Accelerate, Brake: d.Brake, TurnLeft: d.TurnLeft, TurnRight: d.TurnRight, Nitro: d.Nitro}
}

// SubmitBotData is the client->server "submit_bot" payload (direct mode
// only).
type SubmitBotData struct {
	BotID string `json:"bot_id"`
}

// AddBotToLobbyData is the client->server "add_bot_to_lobby" payload
// (lobby mode only).
type AddBotToLobbyData struct {
	BotID string `json:"bot_id"`
}

// ConnectedData is the server->client "connected" handshake payload.
type ConnectedData struct {
	SessionID string      `json:"session_id"`
	PlayerID  string      `json:"player_id"`
	Track     TrackWire   `json:"track"`
}

// TrackWire is the wire representation of a track handed to clients at
// connect time.
type TrackWire struct {
	Segments      []SegmentWire  `json:"segments"`
	Checkpoints   []CheckpointWire `json:"checkpoints"`
	StartPosition [2]float64    `json:"start_position"`
	StartHeading  float64       `json:"start_heading"`
	Obstacles     []ObstacleWire `json:"obstacles"`
	Boundary      *BoundaryWire `json:"boundary,omitempty"`
}

type EndpointWire struct {
	Position [2]float64 `json:"position"`
	Width    float64    `json:"width"`
	Surface  string     `json:"surface"`
}

type SegmentWire struct {
	Kind     string       `json:"kind"`
	Start    EndpointWire `json:"start"`
	End      EndpointWire `json:"end"`
	Control1 [2]float64   `json:"control1,omitempty"`
	Control2 [2]float64   `json:"control2,omitempty"`
}

type CheckpointWire struct {
	Position [2]float64 `json:"position"`
	Tangent  [2]float64 `json:"tangent"`
	Width    float64    `json:"width"`
	Index    int        `json:"index"`
}

type ObstacleWire struct {
	Position [2]float64 `json:"position"`
	Radius   float64    `json:"radius"`
	Kind     string     `json:"kind"`
}

type BoundaryWire struct {
	Left  [][2]float64 `json:"left"`
	Right [][2]float64 `json:"right"`
}

func trackWire(tr *track.Track) TrackWire {
	segments := make([]SegmentWire, len(tr.Segments))
	for i, s := range tr.Segments {
		kind := "straight"
		if s.Kind == track.SegmentBezier {
			kind = "bezier"
		}
		segments[i] = SegmentWire{
			Kind:     kind,
			Start:    EndpointWire{Position: [2]float64{s.Start.Position.X, s.Start.Position.Y}, Width: s.Start.Width, Surface: string(s.Start.Surface)},
			End:      EndpointWire{Position: [2]float64{s.End.Position.X, s.End.Position.Y}, Width: s.End.Width, Surface: string(s.End.Surface)},
			Control1: [2]float64{s.Control1.X, s.Control1.Y},
			Control2: [2]float64{s.Control2.X, s.Control2.Y},
		}
	}

	checkpoints := make([]CheckpointWire, len(tr.Checkpoints))
	for i, c := range tr.Checkpoints {
		checkpoints[i] = CheckpointWire{
			Position: [2]float64{c.Position.X, c.Position.Y},
			Tangent:  [2]float64{c.Tangent.X, c.Tangent.Y},
			Width:    c.Width,
			Index:    c.Index,
		}
	}

	obstacles := make([]ObstacleWire, len(tr.Obstacles))
	for i, o := range tr.Obstacles {
		obstacles[i] = ObstacleWire{Position: [2]float64{o.Position.X, o.Position.Y}, Radius: o.Radius, Kind: o.Kind}
	}

	var boundary *BoundaryWire
	if tr.Boundary != nil {
		boundary = &BoundaryWire{Left: polylineWire(tr.Boundary.Left), Right: polylineWire(tr.Boundary.Right)}
	}

	return TrackWire{
		Segments:      segments,
		Checkpoints:   checkpoints,
		StartPosition: [2]float64{tr.StartPosition.X, tr.StartPosition.Y},
		StartHeading:  tr.StartHeading,
		Obstacles:     obstacles,
		Boundary:      boundary,
	}
}

func polylineWire(p track.Polyline) [][2]float64 {
	out := make([][2]float64, len(p))
	for i, v := range p {
		out[i] = [2]float64{v.X, v.Y}
	}
	return out
}

// GameStateData wraps an engine snapshot as the server->client
// "game_state" payload.
type GameStateData = engine.Snapshot

// ErrorData is the server->client "error" payload.
type ErrorData struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// LobbyMemberWire is the wire form of a lobby member.
type LobbyMemberWire struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	IsBot    bool   `json:"is_bot"`
	BotRef   string `json:"bot_ref,omitempty"`
	Ready    bool   `json:"ready"`
}

// LobbyStateData is the server->client "lobby_state"/"lobby_joined"
// payload.
type LobbyStateData struct {
	LobbyID  string            `json:"lobby_id"`
	JoinCode string            `json:"join_code"`
	Name     string            `json:"name"`
	HostID   string            `json:"host_id"`
	Status   string            `json:"status"`
	Members  []LobbyMemberWire `json:"members"`
}

// BotSubmissionResponseData is the server->client
// "bot_submission_response" payload.
type BotSubmissionResponseData struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

func encodeEnvelope(msgType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Data: data})
}
