package engine

import (
	"racetrack-engine/internal/botmanager"
	"racetrack-engine/internal/physics"
	"racetrack-engine/internal/session"
	"racetrack-engine/internal/track"
	"racetrack-engine/internal/vector"
)

// resolveObstacleCollisions pushes cars out of overlapping circular
// obstacles and reflects their velocity off the obstacle surface
// (spec §4.2).
func (e *Engine) resolveObstacleCollisions() {
	p := e.cfg.Physics
	for _, player := range e.state.Players {
		if player.IsFinished || player.DNF {
			continue
		}
		for _, ob := range e.state.Track.Obstacles {
			toCar := player.Car.Position.Sub(ob.Position)
			dist := toCar.Length()
			minDist := ob.Radius + p.CarRadius
			if dist >= minDist || dist == 0 {
				continue
			}
			normal := toCar.Normalize()
			penetration := minDist - dist
			player.Car.Position = player.Car.Position.Add(normal.Mul(penetration))

			speed := player.Car.Velocity.Length()
			if normal.Dot(player.Car.Velocity) < 0 {
				player.Car.Velocity = physics.Reflect(player.Car.Velocity, normal, p.CollisionRestitution)
			}
			e.notifyCollision(player, "obstacle", "", speed)
		}
	}
}

// resolveBoundaryCollisions reflects cars off the track's containment
// walls using the same closest-point-on-segment test used for the
// off-track check (spec §4.2).
func (e *Engine) resolveBoundaryCollisions() {
	boundary := e.state.Track.Boundary
	if boundary == nil {
		return
	}
	p := e.cfg.Physics
	for _, player := range e.state.Players {
		if player.IsFinished || player.DNF {
			continue
		}
		for _, poly := range [][]vector.Vec2{boundary.Left, boundary.Right} {
			e.resolveWallCollision(player, poly, p)
		}
	}
}

func (e *Engine) resolveWallCollision(player *session.PlayerState, poly track.Polyline, p physics.Params) {
	if len(poly) < 2 {
		return
	}
	best := p.CarRadius
	var bestPoint, bestNormal vector.Vec2
	hit := false
	for i := 0; i < len(poly)-1; i++ {
		closest, _ := track.ClosestPointOnSegment(poly[i], poly[i+1], player.Car.Position)
		d := vector.Distance(player.Car.Position, closest)
		if d < best {
			best = d
			bestPoint = closest
			hit = true
		}
	}
	if !hit {
		return
	}
	toCar := player.Car.Position.Sub(bestPoint)
	if toCar.Length() == 0 {
		toCar = vector.Vec2{X: 1, Y: 0}
	}
	bestNormal = toCar.Normalize()
	penetration := p.CarRadius - toCar.Length()
	player.Car.Position = player.Car.Position.Add(bestNormal.Mul(penetration))

	speed := player.Car.Velocity.Length()
	if bestNormal.Dot(player.Car.Velocity) < 0 {
		player.Car.Velocity = physics.Reflect(player.Car.Velocity, bestNormal, p.CollisionRestitution)
	}
	e.notifyCollision(player, "boundary", "", speed)
}

// resolveCarCollisions resolves overlapping car-car pairs with a
// mass-weighted elastic impulse along the collision normal and a
// mass-proportional positional separation (spec §4.2).
func (e *Engine) resolveCarCollisions() {
	p := e.cfg.Physics
	ids := make([]string, 0, len(e.state.Players))
	for id := range e.state.Players {
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		a := e.state.Players[ids[i]]
		if a.IsFinished || a.DNF {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			b := e.state.Players[ids[j]]
			if b.IsFinished || b.DNF {
				continue
			}
			e.resolveCarPair(a, b, p)
		}
	}
}

func (e *Engine) resolveCarPair(a, b *session.PlayerState, p physics.Params) {
	delta := b.Car.Position.Sub(a.Car.Position)
	dist := delta.Length()
	minDist := p.CarRadius * 2
	if dist >= minDist {
		return
	}
	var normal vector.Vec2
	if dist == 0 {
		normal = vector.Vec2{X: 1, Y: 0}
	} else {
		normal = delta.Normalize()
	}
	penetration := minDist - dist
	massA, massB := a.Weight, b.Weight
	totalMass := massA + massB
	a.Car.Position = a.Car.Position.Sub(normal.Mul(penetration * (massB / totalMass)))
	b.Car.Position = b.Car.Position.Add(normal.Mul(penetration * (massA / totalMass)))

	relVel := b.Car.Velocity.Sub(a.Car.Velocity)
	relVelAlongNormal := relVel.Dot(normal)
	if relVelAlongNormal >= -p.CollisionMinSpeed {
		return // separating, or converging too slowly to warrant an impulse
	}
	impulse := physics.ElasticImpulse(relVelAlongNormal, massA, massB, p.CollisionRestitution)
	a.Car.Velocity = a.Car.Velocity.Sub(normal.Mul(impulse / massA))
	b.Car.Velocity = b.Car.Velocity.Add(normal.Mul(impulse / massB))

	speed := relVel.Length()
	e.notifyCollision(a, "car", b.ID, speed)
	e.notifyCollision(b, "car", a.ID, speed)
}

func (e *Engine) notifyCollision(player *session.PlayerState, with, otherID string, speed float64) {
	if !player.IsBot || player.Bot == nil {
		return
	}
	e.bots.OnCollision(player.Bot, botmanager.CollisionEvent{With: with, OtherID: otherID, Speed: speed})
}
