package track

import (
	"math"

	"racetrack-engine/internal/vector"
)

// SimpleFactory is a minimal, deterministic TrackFactory (spec §6's
// external collaborator): a closed oval sized by difficulty, optionally
// seeded. Procedural track generation proper is an external
// collaborator per spec Non-goals; this is a reference implementation
// sufficient to run the engine end to end.
type SimpleFactory struct{}

// Build produces an oval track. difficulty selects radius and lap
// length; seed perturbs a deterministic obstacle layout.
func (SimpleFactory) Build(difficulty string, seed *int64) (*Track, error) {
	radiusX, radiusY, width := ovalDimensions(difficulty)

	const segments = 16
	segs := make([]Segment, 0, segments)
	points := make([]vector.Vec2, 0, segments+1)
	for i := 0; i <= segments; i++ {
		t := float64(i) / float64(segments) * 2 * math.Pi
		points = append(points, vector.Vec2{X: radiusX * math.Cos(t), Y: radiusY * math.Sin(t)})
	}
	for i := 0; i < segments; i++ {
		segs = append(segs, Segment{
			Kind:  SegmentStraight,
			Start: Endpoint{Position: points[i], Width: width, Surface: SurfaceAsphalt},
			End:   Endpoint{Position: points[i+1], Width: width, Surface: SurfaceAsphalt},
		})
	}

	checkpointCount := 6
	checkpoints := make([]Checkpoint, 0, checkpointCount)
	for i := 0; i < checkpointCount; i++ {
		t := float64(i) / float64(checkpointCount) * 2 * math.Pi
		pos := vector.Vec2{X: radiusX * math.Cos(t), Y: radiusY * math.Sin(t)}
		tangent := vector.Vec2{X: -radiusX * math.Sin(t), Y: radiusY * math.Cos(t)}.Normalize()
		checkpoints = append(checkpoints, Checkpoint{Position: pos, Tangent: tangent, Width: width, Index: i})
	}

	var obstacles []Obstacle
	if seed != nil {
		s := *seed
		for i := 0; i < 3; i++ {
			t := float64((s+int64(i)*37)%360) * math.Pi / 180
			pos := vector.Vec2{X: (radiusX * 0.6) * math.Cos(t), Y: (radiusY * 0.6) * math.Sin(t)}
			obstacles = append(obstacles, Obstacle{Position: pos, Radius: 15, Kind: "barrel"})
		}
	}

	return &Track{
		Segments:      segs,
		Checkpoints:   checkpoints,
		StartPosition: vector.Vec2{X: radiusX, Y: 0},
		StartHeading:  math.Pi / 2,
		Obstacles:     obstacles,
	}, nil
}

func ovalDimensions(difficulty string) (radiusX, radiusY, width float64) {
	switch difficulty {
	case "hard":
		return 400, 250, 60
	case "medium":
		return 500, 300, 70
	default: // "easy" and unrecognized values
		return 600, 350, 90
	}
}
