package track

import (
	"math"

	"racetrack-engine/internal/vector"
)

// ccw returns the orientation of the ordered triple (a, b, c): positive
// for counter-clockwise, negative for clockwise, zero for collinear.
func ccw(a, b, c vector.Vec2) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// SegmentsIntersect reports whether line segments p1-p2 and p3-p4 cross,
// using the standard CCW orientation test.
func SegmentsIntersect(p1, p2, p3, p4 vector.Vec2) bool {
	d1 := ccw(p3, p4, p1)
	d2 := ccw(p3, p4, p2)
	d3 := ccw(p1, p2, p3)
	d4 := ccw(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}
	return false
}

func onSegment(a, b, p vector.Vec2) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// ClosestPointOnSegment returns the closest point on segment a-b to p,
// and the parametric t in [0,1] at which it occurs.
func ClosestPointOnSegment(a, b, p vector.Vec2) (vector.Vec2, float64) {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return a, 0
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = vector.Clamp(t, 0, 1)
	return a.Add(ab.Mul(t)), t
}

// CheckpointGate returns the two endpoints of the line segment a checkpoint
// presents to crossing cars: perpendicular to its tangent, centered on its
// position, with a length equal to its width.
func CheckpointGate(c Checkpoint) (left, right vector.Vec2) {
	perp := vector.Vec2{X: -c.Tangent.Y, Y: c.Tangent.X}.Normalize()
	half := perp.Mul(c.Width / 2)
	return c.Position.Sub(half), c.Position.Add(half)
}

// RaySegmentIntersect solves the ray-segment parametric intersection for a
// ray from origin in direction dir (unit length) against segment a-b.
// Returns the hit distance along the ray and ok=false for parallel rays or
// no forward intersection within [0, maxDist].
func RaySegmentIntersect(origin, dir vector.Vec2, a, b vector.Vec2, maxDist float64) (float64, bool) {
	edge := b.Sub(a)
	denom := dir.Cross(edge)
	if math.Abs(denom) < 1e-12 {
		return 0, false
	}
	diff := a.Sub(origin)
	t := diff.Cross(edge) / denom
	u := diff.Cross(dir) / denom
	if t < 0 || t > maxDist || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

// RayCircleIntersect solves the ray-circle intersection for a ray from
// origin in direction dir (unit length) against a circle at center with
// the given radius. Returns the nearest positive hit distance.
func RayCircleIntersect(origin, dir, center vector.Vec2, radius, maxDist float64) (float64, bool) {
	toCenter := center.Sub(origin)
	proj := toCenter.Dot(dir)
	closestSq := toCenter.Dot(toCenter) - proj*proj
	radiusSq := radius * radius
	if closestSq > radiusSq {
		return 0, false
	}
	chord := math.Sqrt(radiusSq - closestSq)
	t := proj - chord
	if t < 0 {
		t = proj + chord
		if t < 0 {
			return 0, false
		}
	}
	if t > maxDist {
		return 0, false
	}
	return t, true
}
