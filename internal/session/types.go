// Package session defines the race session data model shared by the
// engine and the bot manager (spec §3). Values here are mutated only by
// the owning session engine's single worker; every other reader works
// from a published snapshot.
package session

import (
	"racetrack-engine/internal/physics"
	"racetrack-engine/internal/sandbox"
	"racetrack-engine/internal/track"
	"racetrack-engine/internal/vector"
)

// PlayerInput is the five-boolean desired input for the next tick.
type PlayerInput = physics.Input

// RaceStatus is the race status machine's current state (spec §4.5).
type RaceStatus string

const (
	StatusWaiting   RaceStatus = "waiting"
	StatusCountdown RaceStatus = "countdown"
	StatusRacing    RaceStatus = "racing"
	StatusFinished  RaceStatus = "finished"
)

// RaceInfo is the race-wide status and timing data.
type RaceInfo struct {
	Status                RaceStatus
	StartTime             *float64 // seconds since session creation on the tick clock (Tick / TickRate); not wall-clock time
	CountdownRemaining    float64
	FirstFinisherTime     *float64
	GracePeriodRemaining  float64
	FinishTime            *float64
}

// PlayerState is one player's full race state.
type PlayerState struct {
	ID                string
	Car               physics.CarState
	Input             PlayerInput
	PrevPosition      vector.Vec2
	CurrentCheckpoint int
	CheckpointsPassed map[int]bool
	SplitTimes        []float64
	IsFinished        bool
	FinishTime        *float64
	IsOffTrack        bool
	Position          *int // current rank, recomputed every racing tick; nil while unranked or DNF
	Points            int
	DNF               bool
	Weight            float64
	IsBot             bool
	Bot               *sandbox.Handle
	BotError          string
}

// NewPlayerState constructs a player at the track's start pose.
func NewPlayerState(id string, tr *track.Track, isBot bool, bot *sandbox.Handle, nitroCharges int) *PlayerState {
	return &PlayerState{
		ID: id,
		Car: physics.CarState{
			Position:     tr.StartPosition,
			Heading:      tr.StartHeading,
			NitroCharges: nitroCharges,
		},
		CheckpointsPassed: make(map[int]bool),
		SplitTimes:        make([]float64, 0),
		Weight:            1.0,
		IsBot:             isBot,
		Bot:               bot,
	}
}

// ResetForRestart returns the player to the track start with empty race
// progress, per spec §4.5 "Restart".
func (p *PlayerState) ResetForRestart(tr *track.Track, nitroCharges int) {
	p.Car = physics.CarState{
		Position:     tr.StartPosition,
		Heading:      tr.StartHeading,
		NitroCharges: nitroCharges,
	}
	p.Input = PlayerInput{}
	p.PrevPosition = tr.StartPosition
	p.CurrentCheckpoint = 0
	p.CheckpointsPassed = make(map[int]bool)
	p.SplitTimes = make([]float64, 0)
	p.IsFinished = false
	p.FinishTime = nil
	p.IsOffTrack = false
	p.Position = nil
	p.Points = 0
	p.DNF = false
	p.BotError = ""
}

// State is the full session state: track, players, race status, tick.
type State struct {
	Track    *track.Track
	Players  map[string]*PlayerState
	RaceInfo RaceInfo
	Tick     int64
}

// NewState constructs a fresh Waiting-status session on tr.
func NewState(tr *track.Track) *State {
	return &State{
		Track:    tr,
		Players:  make(map[string]*PlayerState),
		RaceInfo: RaceInfo{Status: StatusWaiting},
	}
}
