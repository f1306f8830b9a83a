package raycast

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"racetrack-engine/internal/track"
	"racetrack-engine/internal/vector"
)

func TestCast(t *testing.T) {
	Convey("Given a track with a boundary and an obstacle", t, func() {
		tr := &track.Track{
			Boundary: &track.Boundary{
				Left:  track.Polyline{{X: 0, Y: -50}, {X: 1000, Y: -50}},
				Right: track.Polyline{{X: 0, Y: 50}, {X: 1000, Y: 50}},
			},
			Obstacles: []track.Obstacle{
				{Position: vector.Vec2{X: 100, Y: 0}, Radius: 5, Kind: "cone"},
			},
		}

		Convey("The forward ray hits the obstacle before the boundary", func() {
			results := Cast(tr, vector.Vec2{X: 0, Y: 0}, 0, "self", nil, 8, 300)
			forward := results[0]
			So(forward.HitKind, ShouldEqual, HitObstacle)
			So(forward.Distance, ShouldBeLessThan, 100)
		})

		Convey("A perpendicular ray hits the boundary wall", func() {
			results := Cast(tr, vector.Vec2{X: 500, Y: 0}, 0, "self", nil, 8, 300)
			// -pi/2 relative angle is index 3.
			perp := results[3]
			So(perp.HitKind, ShouldEqual, HitBoundary)
			So(perp.Distance, ShouldAlmostEqual, 50, 1e-6)
		})

		Convey("Other cars are detected and the self car is excluded", func() {
			others := []OtherCar{
				{ID: "self", Position: vector.Vec2{X: 10, Y: 0}},
				{ID: "rival", Position: vector.Vec2{X: 40, Y: 0}},
			}
			results := Cast(tr, vector.Vec2{X: 0, Y: 0}, 0, "self", others, 8, 300)
			So(results[0].HitKind, ShouldEqual, HitCar)
			So(results[0].Distance, ShouldBeLessThan, 40)
		})
	})
}
