// Package botmanager bridges authoritative session state to sandboxed
// bot code (spec §4.4). It owns no mutable race state beyond the
// configured tick cadence; every BotGameState it builds is a fresh,
// read-only projection.
package botmanager

import (
	"math"

	"github.com/rs/zerolog"

	"racetrack-engine/internal/config"
	"racetrack-engine/internal/raycast"
	"racetrack-engine/internal/sandbox"
	"racetrack-engine/internal/session"
	"racetrack-engine/internal/vector"
)

// Manager bridges engine state and the bot sandbox.
type Manager struct {
	loader *sandbox.Loader
	cfg    *config.Config
	logger zerolog.Logger
}

// NewManager returns a Manager bound to cfg's cadence, sandbox limits,
// and visibility radius.
func NewManager(cfg *config.Config, logger zerolog.Logger) *Manager {
	return &Manager{loader: sandbox.NewLoader(), cfg: cfg, logger: logger}
}

// ShouldRun reports whether bot on_tick should run this tick: tick mod K
// == 0, where K = TICK_RATE / BOT_TICK_RATE.
func (m *Manager) ShouldRun(tick int64) bool {
	k := int64(m.cfg.BotCadenceDivisor())
	return tick%k == 0
}

// Load compiles and instantiates a bot's code under the configured
// limits.
func (m *Manager) Load(code, className string) (*sandbox.Handle, error) {
	return m.loader.Load(code, className, sandbox.Limits{
		MaxCodeBytes: m.cfg.SandboxMaxCodeBytes,
		TimeoutMS:    m.cfg.SandboxTimeoutMS,
		MemoryMB:     m.cfg.SandboxMemoryMB,
	})
}

// Tick assembles a BotGameState for selfID from st and invokes the bot's
// on_tick hook, returning the resulting input. A non-nil error is always
// a fatal sandbox error (security/timeout/memory); the caller marks the
// player DNF.
func (m *Manager) Tick(handle *sandbox.Handle, st *session.State, selfID string) (session.PlayerInput, error) {
	state := m.buildState(st, selfID)
	actions, err := handle.OnTick(state)
	if err != nil {
		return session.PlayerInput{}, err
	}
	return session.PlayerInput{
		Accelerate: actions.Accelerate,
		Brake:      actions.Brake,
		TurnLeft:   actions.TurnLeft,
		TurnRight:  actions.TurnRight,
		Nitro:      actions.Nitro,
	}, nil
}

// OnCollision, OnCheckpoint, and OnFinish mirror the sandbox callbacks.
// Errors here are never fatal: they are logged and the bot continues to
// race (spec §4.4).
func (m *Manager) OnCollision(handle *sandbox.Handle, event CollisionEvent) {
	if err := handle.OnCollision(event); err != nil {
		m.logger.Warn().Str("bot_class", handle.ClassName).Err(err).Msg("bot on_collision error")
	}
}

func (m *Manager) OnCheckpoint(handle *sandbox.Handle, index int, splitTime float64) {
	if err := handle.OnCheckpoint(index, splitTime); err != nil {
		m.logger.Warn().Str("bot_class", handle.ClassName).Err(err).Msg("bot on_checkpoint error")
	}
}

func (m *Manager) OnFinish(handle *sandbox.Handle, finishTime float64, finalPosition int) {
	if err := handle.OnFinish(finishTime, finalPosition); err != nil {
		m.logger.Warn().Str("bot_class", handle.ClassName).Err(err).Msg("bot on_finish error")
	}
}

// CollisionEvent describes a collision delivered to on_collision.
type CollisionEvent struct {
	With   string  `json:"with"` // "car", "obstacle", or "boundary"
	OtherID string  `json:"other_id,omitempty"`
	Speed   float64 `json:"speed"`
}

// RaySensor is one raycast reading in the bot's projected view.
type RaySensor struct {
	Distance float64    `json:"distance"`
	HitKind  string     `json:"hit_kind"`
	HitPoint [2]float64 `json:"hit_point"`
}

// SelfSensor is the bot's own car state.
type SelfSensor struct {
	Position        [2]float64 `json:"position"`
	Heading         float64    `json:"heading"`
	Speed           float64    `json:"speed"`
	Velocity        [2]float64 `json:"velocity"`
	AngularVelocity float64    `json:"angular_velocity"`
	NitroCharges    int        `json:"nitro_charges"`
	NitroActive     bool       `json:"nitro_active"`
	Surface         string     `json:"surface"`
	IsOffTrack      bool       `json:"is_off_track"`
}

// TrackSensor is the bot's checkpoint-relative track snapshot.
type TrackSensor struct {
	CheckpointPositions [][2]float64 `json:"checkpoint_positions"`
	NextCheckpointIndex int          `json:"next_checkpoint_index"`
	BoundaryDistances   [2]float64   `json:"boundary_distances"` // placeholder, spec §4.4
	UpcomingTurn        float64      `json:"upcoming_turn"`      // placeholder, spec §4.4
}

// RaceSensor is the bot's race-progress summary.
type RaceSensor struct {
	CurrentCheckpoint   int     `json:"current_checkpoint"`
	TotalCheckpoints    int     `json:"total_checkpoints"`
	PositionRank        int     `json:"position_rank"`
	TotalCars           int     `json:"total_cars"`
	ElapsedTime         float64 `json:"elapsed_time"`
	DistanceToFinish    float64 `json:"distance_to_finish"`
}

// OpponentSensor is the fog-of-war projection of another player: no bot
// code, memory, or handle identity is ever exposed (spec §4.4, a hard
// confidentiality property).
type OpponentSensor struct {
	Position      [2]float64 `json:"position"`
	Velocity      [2]float64 `json:"velocity"`
	Heading       float64    `json:"heading"`
	Distance      float64    `json:"distance"`
	RelativeAngle float64    `json:"relative_angle"`
}

// BotGameState is the complete read-only sensor view passed to on_tick.
type BotGameState struct {
	Self      SelfSensor       `json:"self"`
	Rays      [7]RaySensor     `json:"rays"`
	Track     TrackSensor      `json:"track"`
	Race      RaceSensor       `json:"race"`
	Opponents []OpponentSensor `json:"opponents"`
}

const perRemainingCheckpointDistance = 300.0

func (m *Manager) buildState(st *session.State, selfID string) BotGameState {
	self := st.Players[selfID]
	tr := st.Track

	surface, _ := tr.SurfaceAndGrip(self.Car.Position, m.cfg.OffTrackSampleCount)

	others := make([]raycast.OtherCar, 0, len(st.Players))
	for id, p := range st.Players {
		others = append(others, raycast.OtherCar{ID: id, Position: p.Car.Position})
	}
	rays := raycast.Cast(tr, self.Car.Position, self.Car.Heading, selfID, others, m.cfg.Physics.CarRadius, m.cfg.RaycastMaxRange)

	var raySensors [7]RaySensor
	for i, r := range rays {
		raySensors[i] = RaySensor{
			Distance: r.Distance,
			HitKind:  string(r.HitKind),
			HitPoint: [2]float64{r.HitPoint.X, r.HitPoint.Y},
		}
	}

	checkpointPositions := make([][2]float64, len(tr.Checkpoints))
	for i, cp := range tr.Checkpoints {
		checkpointPositions[i] = [2]float64{cp.Position.X, cp.Position.Y}
	}

	distanceToFinish := 0.0
	remaining := len(tr.Checkpoints) - self.CurrentCheckpoint
	if self.CurrentCheckpoint < len(tr.Checkpoints) {
		next := tr.Checkpoints[self.CurrentCheckpoint]
		distanceToFinish += vector.Distance(self.Car.Position, next.Position)
		if remaining > 1 {
			distanceToFinish += float64(remaining-1) * perRemainingCheckpointDistance
		}
	}

	rank := 0
	if self.Position != nil {
		rank = *self.Position
	}

	opponents := make([]OpponentSensor, 0)
	for id, p := range st.Players {
		if id == selfID {
			continue
		}
		d := vector.Distance(self.Car.Position, p.Car.Position)
		if d > m.cfg.VisibilityRadius {
			continue
		}
		toOther := p.Car.Position.Sub(self.Car.Position)
		relAngle := vector.AngleBetween(vector.Forward(self.Car.Heading), toOther)
		opponents = append(opponents, OpponentSensor{
			Position:      [2]float64{p.Car.Position.X, p.Car.Position.Y},
			Velocity:      [2]float64{p.Car.Velocity.X, p.Car.Velocity.Y},
			Heading:       p.Car.Heading,
			Distance:      d,
			RelativeAngle: relAngle,
		})
	}

	elapsed := 0.0
	if st.RaceInfo.StartTime != nil {
		elapsed = math.Max(0, float64(st.Tick)/float64(m.cfg.TickRate))
	}

	return BotGameState{
		Self: SelfSensor{
			Position:        [2]float64{self.Car.Position.X, self.Car.Position.Y},
			Heading:         self.Car.Heading,
			Speed:           self.Car.Velocity.Length(),
			Velocity:        [2]float64{self.Car.Velocity.X, self.Car.Velocity.Y},
			AngularVelocity: self.Car.AngularVelocity,
			NitroCharges:    self.Car.NitroCharges,
			NitroActive:     self.Car.NitroActive,
			Surface:         string(surface),
			IsOffTrack:      self.IsOffTrack,
		},
		Rays: raySensors,
		Track: TrackSensor{
			CheckpointPositions: checkpointPositions,
			NextCheckpointIndex: self.CurrentCheckpoint,
		},
		Race: RaceSensor{
			CurrentCheckpoint: self.CurrentCheckpoint,
			TotalCheckpoints:  len(tr.Checkpoints),
			PositionRank:      rank,
			TotalCars:         len(st.Players),
			ElapsedTime:       elapsed,
			DistanceToFinish:  distanceToFinish,
		},
		Opponents: opponents,
	}
}
