package engine

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"racetrack-engine/internal/track"
	"racetrack-engine/internal/vector"
)

func TestObstacleCollisionGatesOnApproachDirection(t *testing.T) {
	Convey("Given a car overlapping an obstacle", t, func() {
		e := newTestEngine()
		e.state.Track.Obstacles = []track.Obstacle{{Position: vector.Vec2{X: 0, Y: 0}, Radius: 20, Kind: "rock"}}
		e.AddPlayer("p1", false, nil)
		e.state.Players["p1"].Car.Position = vector.Vec2{X: 0, Y: 15}

		Convey("Moving tangentially (not converging), velocity is left untouched", func() {
			e.state.Players["p1"].Car.Velocity = vector.Vec2{X: 50, Y: 0}
			e.resolveObstacleCollisions()
			v := e.state.Players["p1"].Car.Velocity
			So(v.X, ShouldEqual, 50)
			So(v.Y, ShouldEqual, 0)
		})

		Convey("Moving into the obstacle (converging), velocity is reflected", func() {
			e.state.Players["p1"].Car.Velocity = vector.Vec2{X: 0, Y: -50}
			e.resolveObstacleCollisions()
			v := e.state.Players["p1"].Car.Velocity
			So(v.Y, ShouldBeGreaterThan, -50)
		})

		Convey("Either way, the car is pushed out of penetration", func() {
			e.state.Players["p1"].Car.Velocity = vector.Vec2{X: 50, Y: 0}
			e.resolveObstacleCollisions()
			d := vector.Distance(e.state.Players["p1"].Car.Position, vector.Vec2{X: 0, Y: 0})
			So(d, ShouldBeGreaterThanOrEqualTo, 20+e.cfg.Physics.CarRadius-1e-6)
		})
	})
}

func TestBoundaryCollisionGatesOnApproachDirection(t *testing.T) {
	Convey("Given a car overlapping a containment wall", t, func() {
		e := newTestEngine()
		e.state.Track.Boundary = &track.Boundary{
			Left: track.Polyline{{X: -100, Y: 10}, {X: 100, Y: 10}},
		}
		e.AddPlayer("p1", false, nil)
		e.state.Players["p1"].Car.Position = vector.Vec2{X: 0, Y: 5}

		Convey("Moving tangentially along the wall, velocity is left untouched", func() {
			e.state.Players["p1"].Car.Velocity = vector.Vec2{X: 50, Y: 0}
			e.resolveBoundaryCollisions()
			v := e.state.Players["p1"].Car.Velocity
			So(v.X, ShouldEqual, 50)
			So(v.Y, ShouldEqual, 0)
		})

		Convey("Moving into the wall (converging), velocity is reflected", func() {
			e.state.Players["p1"].Car.Velocity = vector.Vec2{X: 0, Y: 50}
			e.resolveBoundaryCollisions()
			v := e.state.Players["p1"].Car.Velocity
			So(v.Y, ShouldBeLessThan, 50)
		})
	})
}
