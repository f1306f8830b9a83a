package transport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"racetrack-engine/internal/engine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 8192,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const sendChannelSize = 32

// Client is one connected WebSocket client, bound to a session and a
// player id within it. It satisfies registry.Conn.
type Client struct {
	ID        string
	SessionID string
	PlayerID  string
	LobbyID   string
	conn      *websocket.Conn
	send      chan []byte
	server    *Server
	logger    zerolog.Logger
	lastPong  time.Time
}

func newClient(id, sessionID, playerID string, conn *websocket.Conn, server *Server, logger zerolog.Logger) *Client {
	return &Client{
		ID:        id,
		SessionID: sessionID,
		PlayerID:  playerID,
		conn:      conn,
		send:      make(chan []byte, sendChannelSize),
		server:    server,
		logger:    logger,
		lastPong:  time.Now(),
	}
}

// Deliver satisfies registry.Conn: it encodes a "game_state" envelope
// and queues it for writing, dropping the message if the client is too
// slow to drain its channel rather than blocking the broadcaster.
func (c *Client) Deliver(snapshot *engine.Snapshot) error {
	data, err := encodeEnvelope("game_state", snapshot)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errSendChannelFull
	}
}

// Close satisfies registry.Conn.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) sendEnvelope(msgType string, payload any) {
	data, err := encodeEnvelope(msgType, payload)
	if err != nil {
		c.logger.Warn().Err(err).Str("type", msgType).Msg("failed to encode envelope")
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn().Str("conn_id", c.ID).Msg("send channel full, closing connection")
		c.conn.Close()
	}
}

// readPump reads client messages until the connection errs or closes,
// then unregisters the client from its session (teacher's
// network.go ReadPump shape, generalized to JSON envelopes).
func (c *Client) readPump() {
	defer func() {
		c.server.registry.RemoveConnection(c.SessionID, c.ID)
		c.conn.Close()
	}()

	pongWait := c.server.cfg.PingIntervalSeconds + c.server.cfg.PongTimeoutSeconds
	c.conn.SetReadDeadline(time.Now().Add(time.Duration(pongWait) * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.lastPong = time.Now()
		c.conn.SetReadDeadline(time.Now().Add(time.Duration(pongWait) * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.sendEnvelope("error", ErrorData{Kind: "TransportError", Message: "malformed frame"})
			continue
		}
		c.handleMessage(env)
	}
}

// writePump drains the send channel and pings at the configured
// interval, mirroring the teacher's WritePump.
func (c *Client) writePump() {
	interval := time.Duration(c.server.cfg.PingIntervalSeconds * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			if time.Since(c.lastPong) > interval+time.Duration(c.server.cfg.PongTimeoutSeconds*float64(time.Second)) {
				c.sendEnvelope("error", ErrorData{Kind: "TransportError", Message: "pong timeout"})
				return
			}
		}
	}
}

func (c *Client) handleMessage(env Envelope) {
	switch env.Type {
	case "input":
		var data InputData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return
		}
		if eng := c.server.registry.Get(c.SessionID); eng != nil {
			eng.SetInput(c.PlayerID, data.toPlayerInput())
		}
	case "pong":
		c.lastPong = time.Now()
	case "start_race":
		c.server.handleStartRace(c)
	case "submit_bot":
		var data SubmitBotData
		if err := json.Unmarshal(env.Data, &data); err == nil {
			c.server.handleSubmitBot(c, data.BotID)
		}
	case "leave_lobby":
		c.server.handleLeaveLobby(c)
	case "add_bot_to_lobby":
		var data AddBotToLobbyData
		if err := json.Unmarshal(env.Data, &data); err == nil {
			c.server.handleAddBotToLobby(c, data.BotID)
		}
	default:
		c.sendEnvelope("error", ErrorData{Kind: "TransportError", Message: "unknown message type: " + env.Type})
	}
}
