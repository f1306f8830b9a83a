package engine

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/rs/zerolog"

	"racetrack-engine/internal/botmanager"
	"racetrack-engine/internal/config"
	"racetrack-engine/internal/session"
	"racetrack-engine/internal/track"
	"racetrack-engine/internal/vector"
)

func straightTrack() *track.Track {
	return &track.Track{
		Segments: []track.Segment{{
			Kind:  track.SegmentStraight,
			Start: track.Endpoint{Position: vector.Vec2{X: 0, Y: 0}, Width: 80, Surface: track.SurfaceAsphalt},
			End:   track.Endpoint{Position: vector.Vec2{X: 500, Y: 0}, Width: 80, Surface: track.SurfaceAsphalt},
		}},
		Checkpoints: []track.Checkpoint{
			{Position: vector.Vec2{X: 250, Y: 0}, Tangent: vector.Vec2{X: 1, Y: 0}, Width: 80, Index: 0},
			{Position: vector.Vec2{X: 500, Y: 0}, Tangent: vector.Vec2{X: 1, Y: 0}, Width: 80, Index: 1},
		},
		StartPosition: vector.Vec2{X: 0, Y: 0},
		StartHeading:  0,
	}
}

func newTestEngine() *Engine {
	cfg := config.Default()
	cfg.DefaultCountdownSeconds = 0.01
	bots := botmanager.NewManager(cfg, zerolog.Nop())
	return New("test-session", straightTrack(), cfg, bots, zerolog.Nop(), false, 0)
}

func TestEngineRaceLifecycle(t *testing.T) {
	Convey("Given an engine with one player on a straight track", t, func() {
		e := newTestEngine()
		e.AddPlayer("p1", false, nil)

		Convey("StartRace enters countdown then racing", func() {
			So(e.StartRace(), ShouldBeNil)
			dt := 1.0 / float64(e.cfg.TickRate)
			e.Tick(dt) // countdown expires almost immediately
			So(e.Snapshot().RaceInfo.Status, ShouldEqual, "racing")
		})

		Convey("A player accelerating crosses both checkpoints and finishes", func() {
			So(e.StartRace(), ShouldBeNil)
			dt := 1.0 / float64(e.cfg.TickRate)
			e.Tick(dt)

			e.SetInput("p1", session.PlayerInput{Accelerate: true})
			for i := 0; i < 2000 && e.Snapshot().RaceInfo.Status == "racing"; i++ {
				e.Tick(dt)
			}

			snap := e.Snapshot()
			So(snap.Players, ShouldHaveLength, 1)
			p1 := snap.Players["p1"]
			So(p1.IsFinished, ShouldBeTrue)
			So(p1.Points, ShouldBeGreaterThan, 0)
		})

		Convey("StartRace is rejected while the countdown is running", func() {
			So(e.StartRace(), ShouldBeNil)
			err := e.StartRace()
			So(err, ShouldNotBeNil)
		})
	})
}

func TestCarCollisionSeparatesOverlappingCars(t *testing.T) {
	Convey("Given two overlapping cars", t, func() {
		e := newTestEngine()
		e.AddPlayer("a", false, nil)
		e.AddPlayer("b", false, nil)
		e.state.Players["a"].Car.Position = vector.Vec2{X: 100, Y: 0}
		e.state.Players["b"].Car.Position = vector.Vec2{X: 105, Y: 0}
		e.state.Players["a"].Car.Velocity = vector.Vec2{X: 50, Y: 0}
		e.state.Players["b"].Car.Velocity = vector.Vec2{X: -50, Y: 0}

		Convey("resolveCarCollisions pushes them apart and reverses closing velocity", func() {
			e.resolveCarCollisions()
			dist := vector.Distance(e.state.Players["a"].Car.Position, e.state.Players["b"].Car.Position)
			So(dist, ShouldBeGreaterThanOrEqualTo, e.cfg.Physics.CarRadius*2-1e-6)
			So(e.state.Players["a"].Car.Velocity.X, ShouldBeLessThan, 50)
		})
	})
}
