// Package engine owns the per-session fixed-step simulation loop: race
// status machine, physics, collisions, checkpoint crossing, ranking, and
// grace-period termination (spec §4.5).
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"racetrack-engine/internal/botmanager"
	"racetrack-engine/internal/config"
	"racetrack-engine/internal/physics"
	"racetrack-engine/internal/sandbox"
	"racetrack-engine/internal/session"
	"racetrack-engine/internal/track"
)

// Engine is the exclusive owner of one session's state. Exactly one
// logical worker goroutine calls Tick; every other interaction goes
// through SetInput (single-writer discipline) or Snapshot (lock-free
// read of the last published snapshot).
type Engine struct {
	ID                 string
	FromLobby          bool
	cfg                *config.Config
	bots               *botmanager.Manager
	logger             zerolog.Logger
	startedAt          time.Time
	gracePeriodSeconds float64

	mu    sync.Mutex
	state *session.State

	snapshot atomic.Pointer[Snapshot]
}

// New constructs an Engine bound to tr, created either from a lobby
// hand-off or as a direct (non-lobby) session (spec §6, submit_bot mode).
// gracePeriodSeconds overrides cfg.DefaultGracePeriodSeconds when > 0,
// carrying a lobby's per-session `settings.grace_period` (spec.md:114-115)
// through to the race-finalization grace period; pass 0 to use the
// config default (direct, non-lobby sessions have no settings to draw
// from).
func New(id string, tr *track.Track, cfg *config.Config, bots *botmanager.Manager, logger zerolog.Logger, fromLobby bool, gracePeriodSeconds float64) *Engine {
	if gracePeriodSeconds <= 0 {
		gracePeriodSeconds = cfg.DefaultGracePeriodSeconds
	}
	e := &Engine{
		ID:                 id,
		FromLobby:          fromLobby,
		cfg:                cfg,
		bots:               bots,
		logger:             logger.With().Str("session_id", id).Logger(),
		state:              session.NewState(tr),
		gracePeriodSeconds: gracePeriodSeconds,
	}
	e.publishSnapshot()
	return e
}

// AddPlayer registers a new human or bot player. Bots must already have
// a loaded sandbox.Handle (spec's BotHandle).
func (e *Engine) AddPlayer(id string, isBot bool, bot *sandbox.Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Players[id] = session.NewPlayerState(id, e.state.Track, isBot, bot, defaultNitroCharges)
}

// RemovePlayer removes a player from the session.
func (e *Engine) RemovePlayer(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.state.Players, id)
}

// TrackRef returns the session's track. The track is immutable once
// built, so sharing the pointer with the transport layer is safe.
func (e *Engine) TrackRef() *track.Track {
	return e.state.Track
}

// PlayerCount returns the number of currently registered players.
func (e *Engine) PlayerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.state.Players)
}

// SetInput overwrites a player's input slot in place (spec §3,
// PlayerInput: "overwritten in place by the most recent client message
// or bot result"). It is a no-op for unknown or finished players.
func (e *Engine) SetInput(playerID string, input session.PlayerInput) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.state.Players[playerID]
	if !ok || p.IsFinished {
		return
	}
	p.Input = input
}

// StartRace resets per-player race fields and begins Countdown. Valid
// from Waiting or Finished only (spec §4.5 "Restart").
func (e *Engine) StartRace() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.RaceInfo.Status != session.StatusWaiting && e.state.RaceInfo.Status != session.StatusFinished {
		return fmt.Errorf("engine: cannot start race from status %s", e.state.RaceInfo.Status)
	}

	for _, p := range e.state.Players {
		p.ResetForRestart(e.state.Track, defaultNitroCharges)
	}
	e.state.RaceInfo = session.RaceInfo{
		Status:             session.StatusCountdown,
		CountdownRemaining: e.cfg.DefaultCountdownSeconds,
	}
	return nil
}

// Run ticks the engine at cfg.TickRate until ctx is cancelled, matching
// the teacher's ticker-driven GameLoop.
func (e *Engine) Run(ctx context.Context) {
	interval := time.Second / time.Duration(e.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	dt := interval.Seconds()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(dt)
		}
	}
}

// Snapshot returns the most recently published immutable snapshot.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

const defaultNitroCharges = 3

// Tick advances the simulation by one fixed step (spec §4.5, steps 1-2).
func (e *Engine) Tick(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Tick++
	e.advanceRaceStatus(dt)

	if e.state.RaceInfo.Status == session.StatusRacing {
		e.runBots()
		e.stepPhysics(dt)
		e.resolveObstacleCollisions()
		e.resolveBoundaryCollisions()
		e.resolveCarCollisions()
		e.resolveCheckpoints()
		finished := e.resolveFinishes()
		e.recomputeRanks()
		e.notifyFinishes(finished)
	}

	e.publishSnapshot()
}

func (e *Engine) advanceRaceStatus(dt float64) {
	info := &e.state.RaceInfo
	switch info.Status {
	case session.StatusWaiting:
		// no physics
	case session.StatusCountdown:
		info.CountdownRemaining -= dt
		if info.CountdownRemaining <= 0 {
			info.Status = session.StatusRacing
			e.startedAt = time.Now()
			now := e.elapsedSeconds()
			info.StartTime = &now
		}
	case session.StatusRacing:
		if info.FirstFinisherTime != nil {
			info.GracePeriodRemaining -= dt
			if info.GracePeriodRemaining <= 0 {
				e.finalizeGracePeriod()
			}
		}
	case session.StatusFinished:
		// no physics
	}
}

func (e *Engine) finalizeGracePeriod() {
	for _, p := range e.state.Players {
		if !p.IsFinished && !p.DNF {
			p.DNF = true
		}
	}
	e.finalizeRace()
}

func (e *Engine) finalizeRace() {
	e.state.RaceInfo.Status = session.StatusFinished
	now := e.elapsedSeconds()
	e.state.RaceInfo.FinishTime = &now
	e.recomputeRanks()
	e.awardPoints()
}

func (e *Engine) elapsedSeconds() float64 {
	return float64(e.state.Tick) / float64(e.cfg.TickRate)
}

func (e *Engine) runBots() {
	if !e.bots.ShouldRun(e.state.Tick) {
		return
	}
	for id, p := range e.state.Players {
		if !p.IsBot || p.IsFinished || p.DNF || p.Bot == nil {
			continue
		}
		input, err := e.bots.Tick(p.Bot, e.state, id)
		if err != nil {
			p.BotError = err.Error()
			p.DNF = true
			p.Input = session.PlayerInput{}
			e.logger.Warn().Str("player_id", id).Err(err).Msg("bot disqualified")
			continue
		}
		p.Input = input
	}
}

func (e *Engine) stepPhysics(dt float64) {
	p := e.cfg.Physics
	for _, player := range e.state.Players {
		if player.IsFinished || player.DNF {
			continue
		}
		player.PrevPosition = player.Car.Position

		_, grip := e.state.Track.SurfaceAndGrip(player.Car.Position, e.cfg.OffTrackSampleCount)
		offTrack := e.state.Track.IsOffTrack(player.Car.Position, e.cfg.OffTrackSampleCount)
		player.IsOffTrack = offTrack
		if offTrack {
			grip *= p.OffTrackGripMultiplier
		}

		player.Car = physics.Step(player.Car, player.Input, grip, p, dt)
	}
}
