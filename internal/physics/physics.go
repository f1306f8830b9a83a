// Package physics implements the pure, per-tick car physics step from
// spec §4.1: acceleration, braking, turning, drift, drag, and nitro, plus
// elastic collision response shared by the engine's collision passes.
package physics

import (
	"math"

	"racetrack-engine/internal/vector"
)

// CarState is the physical state of one car. It is mutated only by Step
// and the engine's collision resolution; everything else treats it as
// data.
type CarState struct {
	Position            vector.Vec2
	Velocity            vector.Vec2
	Heading             float64
	AngularVelocity     float64
	IsDrifting          bool
	DriftAngle          float64
	NitroCharges        int
	NitroActive         bool
	NitroRemainingTicks int
}

// Input is the set of desired control inputs for the next tick.
type Input struct {
	Accelerate bool
	Brake      bool
	TurnLeft   bool
	TurnRight  bool
	Nitro      bool
}

// TurnDirection maps input flags to a signed turn direction: right is +1,
// left is -1, both or neither is 0.
func TurnDirection(in Input) float64 {
	switch {
	case in.TurnRight && !in.TurnLeft:
		return 1
	case in.TurnLeft && !in.TurnRight:
		return -1
	default:
		return 0
	}
}

// Params carries the tunable physics constants. Callers get sane defaults
// from DefaultParams; internal/config carries these defaults in
// Config.Physics, and config.Load does not override any of them.
type Params struct {
	Accel             float64
	Brake             float64
	MaxSpeed          float64
	NitroMultiplier   float64
	NitroDurationTick int
	MinTurnSpeed      float64
	TurnRate          float64
	DriftThreshold    float64
	DriftRecoveryRate float64
	Drag              float64
	CarRadius         float64
	CollisionRestitution float64
	CollisionMinSpeed    float64
	OffTrackGripMultiplier float64
}

// DefaultParams returns the engine's stock tuning.
func DefaultParams() Params {
	return Params{
		Accel:                  220.0,
		Brake:                  320.0,
		MaxSpeed:               260.0,
		NitroMultiplier:        1.4,
		NitroDurationTick:      90, // 1.5s at 60Hz
		MinTurnSpeed:           30.0,
		TurnRate:               2.6, // radians/sec
		DriftThreshold:         0.35,
		DriftRecoveryRate:      4.0,
		Drag:                   0.35,
		CarRadius:              12.0,
		CollisionRestitution:   0.5,
		CollisionMinSpeed:      1.0,
		OffTrackGripMultiplier: 0.45,
	}
}

// Step advances one car one tick given its current state, desired input,
// local grip coefficient (already including any off-track penalty), and
// dt in seconds. It is pure: all inputs are by value.
func Step(car CarState, in Input, grip float64, p Params, dt float64) CarState {
	next := car
	forward := vector.Forward(car.Heading)

	// 1. Acceleration.
	if in.Accelerate {
		next.Velocity = next.Velocity.Add(forward.Mul(p.Accel * dt))
		maxSpeed := p.MaxSpeed
		if next.NitroActive {
			maxSpeed *= p.NitroMultiplier
		}
		if speed := next.Velocity.Length(); speed > maxSpeed {
			next.Velocity = next.Velocity.Normalize().Mul(maxSpeed)
		}
	}

	// 2. Braking: decelerate along the current velocity direction, never
	// reversing through zero.
	if in.Brake {
		speed := next.Velocity.Length()
		if speed > 0 {
			dir := next.Velocity.Normalize()
			newSpeed := math.Max(0, speed-p.Brake*dt)
			next.Velocity = dir.Mul(newSpeed)
		}
	}

	// 3. Turning.
	turnDir := TurnDirection(in)
	if turnDir != 0 {
		speed := next.Velocity.Length()
		rate := p.TurnRate
		if speed < p.MinTurnSpeed {
			rate *= speed / p.MinTurnSpeed
		}
		prevHeading := next.Heading
		next.Heading = vector.NormalizeAngle(next.Heading + rate*turnDir*dt)
		next.AngularVelocity = vector.NormalizeAngle(next.Heading-prevHeading) / dt
	} else {
		next.AngularVelocity = 0
	}

	// 4. Drift: split velocity into forward/lateral components relative
	// to the (possibly just-updated) heading and relax the lateral part.
	lateralAxis := vector.Lateral(next.Heading)
	forwardAxis := vector.Forward(next.Heading)
	vLat := next.Velocity.Dot(lateralAxis)
	vFwd := next.Velocity.Dot(forwardAxis)
	speed := next.Velocity.Length()

	next.IsDrifting = math.Abs(vLat) > grip*p.DriftThreshold*speed && speed > 0

	recoveryFactor := 1.0
	if next.IsDrifting {
		recoveryFactor = 0.3
	}
	recovery := grip * recoveryFactor * p.DriftRecoveryRate * dt
	if vLat > 0 {
		vLat = math.Max(0, vLat-recovery)
	} else {
		vLat = math.Min(0, vLat+recovery)
	}
	next.Velocity = forwardAxis.Mul(vFwd).Add(lateralAxis.Mul(vLat))
	if next.IsDrifting {
		next.DriftAngle = vector.AngleBetween(forwardAxis, next.Velocity)
	} else {
		next.DriftAngle = 0
	}

	// 5. Drag: remove Drag*|v|*dt of speed along the velocity direction.
	if speed := next.Velocity.Length(); speed > 0 {
		dragMag := p.Drag * speed * dt
		dir := next.Velocity.Normalize()
		newSpeed := math.Max(0, speed-dragMag)
		next.Velocity = dir.Mul(newSpeed)
	}

	// 6. Nitro.
	if in.Nitro && next.NitroCharges > 0 && !next.NitroActive {
		next.NitroCharges--
		next.NitroActive = true
		next.NitroRemainingTicks = p.NitroDurationTick
	} else if next.NitroActive {
		next.NitroRemainingTicks--
		if next.NitroRemainingTicks <= 0 {
			next.NitroActive = false
			next.NitroRemainingTicks = 0
		}
	}

	// 7. Integrate position.
	next.Position = next.Position.Add(next.Velocity.Mul(dt))

	return next
}

// ElasticImpulse computes the scalar impulse magnitude for a 1D collision
// along the collision normal between two masses, given the relative
// velocity along the normal and a restitution coefficient.
func ElasticImpulse(relVelAlongNormal, m1, m2, restitution float64) float64 {
	return -(1 + restitution) * relVelAlongNormal / (1/m1 + 1/m2)
}

// Reflect returns v reflected off a surface with outward normal n, scaled
// by a restitution coefficient, following v' = v - (1+e)(v.n)n.
func Reflect(v, n vector.Vec2, restitution float64) vector.Vec2 {
	vn := v.Dot(n)
	return v.Sub(n.Mul((1 + restitution) * vn))
}
