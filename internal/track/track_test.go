package track

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"racetrack-engine/internal/vector"
)

func straightTrack() *Track {
	return &Track{
		Segments: []Segment{
			{
				Kind:  SegmentStraight,
				Start: Endpoint{Position: vector.Vec2{X: 0, Y: 0}, Width: 100, Surface: SurfaceAsphalt},
				End:   Endpoint{Position: vector.Vec2{X: 500, Y: 0}, Width: 100, Surface: SurfaceAsphalt},
			},
		},
		Checkpoints: []Checkpoint{
			{Position: vector.Vec2{X: 250, Y: 0}, Tangent: vector.Vec2{X: 1, Y: 0}, Width: 60, Index: 0},
			{Position: vector.Vec2{X: 500, Y: 0}, Tangent: vector.Vec2{X: 1, Y: 0}, Width: 60, Index: 1},
		},
		StartPosition: vector.Vec2{X: 10, Y: 0},
		StartHeading:  0,
	}
}

func TestTrackGeometry(t *testing.T) {
	Convey("Given a single straight segment track", t, func() {
		tr := straightTrack()

		Convey("A point on the centerline is not off-track", func() {
			So(tr.IsOffTrack(vector.Vec2{X: 250, Y: 0}, 20), ShouldBeFalse)
		})

		Convey("A point far outside the track width is off-track", func() {
			So(tr.IsOffTrack(vector.Vec2{X: 250, Y: 100}, 20), ShouldBeTrue)
		})

		Convey("Checkpoint gates intersect a straight crossing path", func() {
			cp := tr.Checkpoints[0]
			left, right := CheckpointGate(cp)
			crosses := SegmentsIntersect(vector.Vec2{X: 240, Y: 0}, vector.Vec2{X: 260, Y: 0}, left, right)
			So(crosses, ShouldBeTrue)
		})
	})
}
