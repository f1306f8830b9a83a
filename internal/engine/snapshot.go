package engine

import "racetrack-engine/internal/session"

// CarSnapshot is the JSON-serializable physical state of one car, as
// carried in the "game_state" message (spec §6).
type CarSnapshot struct {
	Position            [2]float64 `json:"position"`
	Velocity            [2]float64 `json:"velocity"`
	Heading             float64    `json:"heading"`
	AngularVelocity     float64    `json:"angular_velocity"`
	IsDrifting          bool       `json:"is_drifting"`
	DriftAngle          float64    `json:"drift_angle"`
	NitroCharges        int        `json:"nitro_charges"`
	NitroActive         bool       `json:"nitro_active"`
	NitroRemainingTicks int        `json:"nitro_remaining_ticks"`
}

// PlayerSnapshot is the immutable, JSON-serializable view of one
// player's race progress published to clients (spec §6, "game_state").
type PlayerSnapshot struct {
	Car               CarSnapshot `json:"car"`
	CurrentCheckpoint int         `json:"current_checkpoint"`
	SplitTimes        []float64   `json:"split_times"`
	IsFinished        bool        `json:"is_finished"`
	FinishTime        *float64    `json:"finish_time,omitempty"`
	IsOffTrack        bool        `json:"is_off_track"`
	Position          *int        `json:"position,omitempty"`
	Points            int         `json:"points"`
	DNF               bool        `json:"dnf"`
	IsBot             bool        `json:"is_bot"`
	BotError          string      `json:"bot_error,omitempty"`
}

// RaceInfoSnapshot is the race-wide status published alongside player
// snapshots (spec §6, "race_info").
type RaceInfoSnapshot struct {
	Status               string   `json:"status"`
	StartTime            *float64 `json:"start_time,omitempty"`
	CountdownRemaining   float64  `json:"countdown_remaining"`
	FirstFinisherTime    *float64 `json:"first_finisher_time,omitempty"`
	GracePeriodRemaining float64  `json:"grace_period_remaining"`
	FinishTime           *float64 `json:"finish_time,omitempty"`
}

// Snapshot is the complete immutable session view handed to the
// transport layer for broadcast (spec §6, "game_state").
type Snapshot struct {
	Tick     int64                     `json:"tick"`
	RaceInfo RaceInfoSnapshot          `json:"race_info"`
	Players  map[string]PlayerSnapshot `json:"players"`
}

// publishSnapshot builds and atomically stores the current state's
// published view. Must be called with e.mu held.
func (e *Engine) publishSnapshot() {
	players := make(map[string]PlayerSnapshot, len(e.state.Players))
	for id, p := range e.state.Players {
		players[id] = playerSnapshot(p)
	}
	snap := &Snapshot{
		Tick:     e.state.Tick,
		RaceInfo: raceInfoSnapshot(e.state.RaceInfo),
		Players:  players,
	}
	e.snapshot.Store(snap)
}

func playerSnapshot(p *session.PlayerState) PlayerSnapshot {
	splits := make([]float64, len(p.SplitTimes))
	copy(splits, p.SplitTimes)
	return PlayerSnapshot{
		Car: CarSnapshot{
			Position:            [2]float64{p.Car.Position.X, p.Car.Position.Y},
			Velocity:            [2]float64{p.Car.Velocity.X, p.Car.Velocity.Y},
			Heading:             p.Car.Heading,
			AngularVelocity:     p.Car.AngularVelocity,
			IsDrifting:          p.Car.IsDrifting,
			DriftAngle:          p.Car.DriftAngle,
			NitroCharges:        p.Car.NitroCharges,
			NitroActive:         p.Car.NitroActive,
			NitroRemainingTicks: p.Car.NitroRemainingTicks,
		},
		CurrentCheckpoint: p.CurrentCheckpoint,
		SplitTimes:        splits,
		IsFinished:        p.IsFinished,
		FinishTime:        p.FinishTime,
		IsOffTrack:        p.IsOffTrack,
		Position:          p.Position,
		Points:            p.Points,
		DNF:               p.DNF,
		IsBot:             p.IsBot,
		BotError:          p.BotError,
	}
}

func raceInfoSnapshot(info session.RaceInfo) RaceInfoSnapshot {
	return RaceInfoSnapshot{
		Status:               string(info.Status),
		StartTime:            info.StartTime,
		CountdownRemaining:   info.CountdownRemaining,
		FirstFinisherTime:    info.FirstFinisherTime,
		GracePeriodRemaining: info.GracePeriodRemaining,
		FinishTime:           info.FinishTime,
	}
}
