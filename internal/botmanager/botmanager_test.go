package botmanager

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/rs/zerolog"

	"racetrack-engine/internal/config"
	"racetrack-engine/internal/physics"
	"racetrack-engine/internal/session"
	"racetrack-engine/internal/track"
	"racetrack-engine/internal/vector"
)

func threeCarTrack() *track.Track {
	return &track.Track{
		Segments: []track.Segment{{
			Kind:  track.SegmentStraight,
			Start: track.Endpoint{Position: vector.Vec2{X: 0, Y: 0}, Width: 100, Surface: track.SurfaceAsphalt},
			End:   track.Endpoint{Position: vector.Vec2{X: 1000, Y: 0}, Width: 100, Surface: track.SurfaceAsphalt},
		}},
		Checkpoints:   []track.Checkpoint{{Position: vector.Vec2{X: 1000, Y: 0}, Tangent: vector.Vec2{X: 1, Y: 0}, Width: 60, Index: 0}},
		StartPosition: vector.Vec2{X: 0, Y: 0},
	}
}

func TestFogOfWar(t *testing.T) {
	Convey("Given three bots spread along a straight track", t, func() {
		cfg := config.Default()
		cfg.VisibilityRadius = 300
		mgr := NewManager(cfg, zerolog.Nop())

		st := session.NewState(threeCarTrack())
		st.Players["a"] = &session.PlayerState{ID: "a", Car: physics.CarState{Position: vector.Vec2{X: 0, Y: 0}, Heading: 0}}
		st.Players["b"] = &session.PlayerState{ID: "b", Car: physics.CarState{Position: vector.Vec2{X: 100, Y: 0}, Heading: 0}}
		st.Players["c"] = &session.PlayerState{ID: "c", Car: physics.CarState{Position: vector.Vec2{X: 400, Y: 0}, Heading: 0}}

		Convey("The car at the origin sees only the car within visibility radius", func() {
			state := mgr.buildState(st, "a")
			So(len(state.Opponents), ShouldEqual, 1)
			So(state.Opponents[0].Distance, ShouldAlmostEqual, 100, 1e-6)
			So(state.Opponents[0].RelativeAngle, ShouldAlmostEqual, 0, 1e-6)
		})

		Convey("No opponent entry exposes anything beyond position/velocity/heading/distance/angle", func() {
			state := mgr.buildState(st, "a")
			// OpponentSensor's field set is exhaustively position/velocity/heading/distance/relative_angle;
			// this is a structural guarantee enforced by the type itself.
			So(state.Opponents, ShouldHaveLength, 1)
		})
	})
}
