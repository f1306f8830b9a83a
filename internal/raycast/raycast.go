// Package raycast implements the bot sensor raycast service from spec
// §4.2: seven fixed-angle rays against the track boundary, obstacles, and
// other cars.
package raycast

import (
	"math"

	"racetrack-engine/internal/track"
	"racetrack-engine/internal/vector"
)

// RelativeAngles are the seven ray angles relative to the casting car's
// heading, in the order specified by spec §4.2.
var RelativeAngles = [7]float64{
	0,
	-math.Pi / 6,
	-math.Pi / 3,
	-math.Pi / 2,
	math.Pi / 3,
	math.Pi / 6,
	math.Pi / 2,
}

// HitKind identifies what a ray struck.
type HitKind string

const (
	HitNone     HitKind = "none"
	HitBoundary HitKind = "boundary"
	HitObstacle HitKind = "obstacle"
	HitCar      HitKind = "car"
)

// Result is one ray's outcome.
type Result struct {
	Distance float64
	HitKind  HitKind
	HitPoint vector.Vec2
}

// OtherCar is the minimal projection of another player needed for
// raycasting: identity (for exclusion) plus position.
type OtherCar struct {
	ID       string
	Position vector.Vec2
}

// Cast fires the seven rays from origin along heading, returning one
// Result per angle in the same order as RelativeAngles. selfID excludes
// the casting car's own entry if present in others. maxRange bounds the
// search distance.
func Cast(tr *track.Track, origin vector.Vec2, heading float64, selfID string, others []OtherCar, carRadius, maxRange float64) [7]Result {
	var results [7]Result
	for i, rel := range RelativeAngles {
		dir := vector.Forward(heading + rel)
		results[i] = castOne(tr, origin, dir, selfID, others, carRadius, maxRange)
	}
	return results
}

func castOne(tr *track.Track, origin, dir vector.Vec2, selfID string, others []OtherCar, carRadius, maxRange float64) Result {
	best := Result{Distance: maxRange, HitKind: HitNone}
	found := false

	consider := func(dist float64, kind HitKind) {
		if dist >= 0 && dist <= maxRange && (!found || dist < best.Distance) {
			best = Result{Distance: dist, HitKind: kind, HitPoint: origin.Add(dir.Mul(dist))}
			found = true
		}
	}

	if tr.Boundary != nil {
		for _, poly := range [2]track.Polyline{tr.Boundary.Left, tr.Boundary.Right} {
			for i := 0; i+1 < len(poly); i++ {
				if d, ok := track.RaySegmentIntersect(origin, dir, poly[i], poly[i+1], maxRange); ok {
					consider(d, HitBoundary)
				}
			}
		}
	}

	for _, obstacle := range tr.Obstacles {
		if d, ok := track.RayCircleIntersect(origin, dir, obstacle.Position, obstacle.Radius, maxRange); ok {
			consider(d, HitObstacle)
		}
	}

	for _, other := range others {
		if other.ID == selfID {
			continue
		}
		if d, ok := track.RayCircleIntersect(origin, dir, other.Position, carRadius, maxRange); ok {
			consider(d, HitCar)
		}
	}

	if !found {
		return Result{Distance: maxRange, HitKind: HitNone, HitPoint: origin.Add(dir.Mul(maxRange))}
	}
	return best
}
