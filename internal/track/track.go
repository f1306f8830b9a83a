// Package track models the immutable race track: segments, checkpoints,
// containment boundary, and obstacles. Tracks are produced externally by
// a TrackFactory (see spec §6) and never mutated once built.
package track

import "racetrack-engine/internal/vector"

// SurfaceKind is the driving surface at a point along the track.
type SurfaceKind string

const (
	SurfaceAsphalt SurfaceKind = "asphalt"
	SurfaceWet     SurfaceKind = "wet"
	SurfaceGravel  SurfaceKind = "gravel"
	SurfaceIce     SurfaceKind = "ice"
)

// GripCoefficient returns the base grip multiplier for a surface.
func (s SurfaceKind) GripCoefficient() float64 {
	switch s {
	case SurfaceWet:
		return 0.75
	case SurfaceGravel:
		return 0.55
	case SurfaceIce:
		return 0.35
	default:
		return 1.0
	}
}

// SegmentKind distinguishes straight segments from cubic-Bezier curves.
type SegmentKind int

const (
	SegmentStraight SegmentKind = iota
	SegmentBezier
)

// Endpoint is one end of a segment: a position carrying its own width
// and surface, so width/surface can transition along a segment.
type Endpoint struct {
	Position vector.Vec2
	Width    float64
	Surface  SurfaceKind
}

// Segment is one piece of the track path.
type Segment struct {
	Kind     SegmentKind
	Start    Endpoint
	End      Endpoint
	Control1 vector.Vec2 // only meaningful for SegmentBezier
	Control2 vector.Vec2
}

// PointAt returns the centerline position at parameter t in [0,1].
func (s Segment) PointAt(t float64) vector.Vec2 {
	if s.Kind == SegmentStraight {
		return vector.Lerp(s.Start.Position, s.End.Position, t)
	}
	return cubicBezier(s.Start.Position, s.Control1, s.Control2, s.End.Position, t)
}

// WidthAt linearly interpolates width along the segment.
func (s Segment) WidthAt(t float64) float64 {
	return s.Start.Width + (s.End.Width-s.Start.Width)*t
}

// SurfaceAt returns the nearer endpoint's surface for parameter t; surface
// transitions are treated as a hard switch at the segment midpoint.
func (s Segment) SurfaceAt(t float64) SurfaceKind {
	if t < 0.5 {
		return s.Start.Surface
	}
	return s.End.Surface
}

func cubicBezier(p0, p1, p2, p3 vector.Vec2, t float64) vector.Vec2 {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return vector.Vec2{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// Checkpoint is a progression gate; the final checkpoint doubles as the
// finish line (see spec §9, "heading normalization of the final checkpoint").
type Checkpoint struct {
	Position vector.Vec2
	Tangent  vector.Vec2 // forward direction a legal crossing must agree with
	Width    float64
	Index    int
}

// IsFinish reports whether this is the last checkpoint in the track.
func (c Checkpoint) IsFinish(total int) bool {
	return c.Index == total-1
}

// Obstacle is a circular collidable hazard.
type Obstacle struct {
	Position vector.Vec2
	Radius   float64
	Kind     string
}

// Polyline is an ordered sequence of points forming collidable wall
// segments between consecutive points.
type Polyline []vector.Vec2

// Boundary is the optional containment region: two polylines (left/right)
// whose segments behave as walls.
type Boundary struct {
	Left  Polyline
	Right Polyline
}

// Track is the complete, immutable race course.
type Track struct {
	Segments      []Segment
	Checkpoints   []Checkpoint
	StartPosition vector.Vec2
	StartHeading  float64
	Boundary      *Boundary // optional
	Obstacles     []Obstacle
}

// Factory produces a Track deterministically from a difficulty and an
// optional seed. It is an external collaborator (spec §6); the engine
// only consumes the Track this returns.
type Factory interface {
	Build(difficulty string, seed *int64) (*Track, error)
}
