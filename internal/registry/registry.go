// Package registry owns the process-wide map from session_id to running
// SessionEngine, the connection set per session, and the broadcaster task
// that serves them (spec §4.7). Per-connection heartbeats run in the
// transport layer's client write pump, not here.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"racetrack-engine/internal/engine"
)

// Conn is the minimal connection surface the registry needs: a
// best-effort delivery method and a close. The transport layer's
// websocket client satisfies this.
type Conn interface {
	Deliver(snapshot *engine.Snapshot) error
	Close() error
}

type sessionEntry struct {
	eng        *engine.Engine
	fromLobby  bool
	cancel     context.CancelFunc
	mu         sync.Mutex
	conns      map[string]Conn // connection id -> conn
}

// Registry is the process-wide session map.
type Registry struct {
	cfg    Config
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// Config carries the broadcast rate the registry's per-session
// broadcasters run at.
type Config struct {
	BroadcastRate int
}

// New returns an empty registry.
func New(cfg Config, logger zerolog.Logger) *Registry {
	return &Registry{cfg: cfg, logger: logger, sessions: make(map[string]*sessionEntry)}
}

// Register adds eng under id and starts its tick loop and broadcaster.
// It returns nothing; Terminate(id) stops both and removes the session.
func (r *Registry) Register(id string, eng *engine.Engine, fromLobby bool) {
	ctx, cancel := context.WithCancel(context.Background())
	entry := &sessionEntry{eng: eng, fromLobby: fromLobby, cancel: cancel, conns: make(map[string]Conn)}

	r.mu.Lock()
	r.sessions[id] = entry
	r.mu.Unlock()

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		eng.Run(gctx)
		return nil
	})
	group.Go(func() error {
		r.broadcastLoop(gctx, id, entry)
		return nil
	})
}

// Get returns the engine for id, or nil if no such session exists.
func (r *Registry) Get(id string) *engine.Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		return nil
	}
	return entry.eng
}

// AddConnection registers connID under session id. It is a no-op if the
// session does not exist (the caller should close the connection).
func (r *Registry) AddConnection(id, connID string, conn Conn) bool {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	entry.mu.Lock()
	entry.conns[connID] = conn
	entry.mu.Unlock()
	return true
}

// RemoveConnection drops connID from session id. If the session has no
// remaining connections and was not created from a lobby, it is torn
// down (spec §4.7, "destroyed when the last client disconnects").
func (r *Registry) RemoveConnection(id, connID string) {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return
	}

	entry.mu.Lock()
	delete(entry.conns, connID)
	empty := len(entry.conns) == 0
	entry.mu.Unlock()

	if empty && !entry.fromLobby {
		r.Terminate(id)
	}
}

// Terminate stops a session's tick loop and broadcaster and removes it
// from the registry.
func (r *Registry) Terminate(id string) {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	entry.cancel()

	entry.mu.Lock()
	for _, c := range entry.conns {
		c.Close()
	}
	entry.mu.Unlock()
}

// broadcastLoop delivers the engine's latest snapshot to every connection
// at cfg.BroadcastRate Hz, disposing of connections whose delivery fails
// (spec §4.7).
func (r *Registry) broadcastLoop(ctx context.Context, id string, entry *sessionEntry) {
	rate := r.cfg.BroadcastRate
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			_, stillExists := r.sessions[id]
			r.mu.Unlock()
			if !stillExists {
				return
			}

			entry.mu.Lock()
			conns := make(map[string]Conn, len(entry.conns))
			for cid, c := range entry.conns {
				conns[cid] = c
			}
			entry.mu.Unlock()
			if len(conns) == 0 {
				continue
			}

			snap := entry.eng.Snapshot()
			if snap == nil {
				continue
			}
			for cid, c := range conns {
				if err := c.Deliver(snap); err != nil {
					r.logger.Warn().Str("session_id", id).Str("conn_id", cid).Err(err).Msg("broadcast delivery failed, dropping connection")
					entry.mu.Lock()
					delete(entry.conns, cid)
					entry.mu.Unlock()
					c.Close()
				}
			}
		}
	}
}
