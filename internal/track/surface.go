package track

import "racetrack-engine/internal/vector"

// DefaultOffTrackSampleCount is the number of centerline samples taken per
// segment when testing whether a position has left the raceable surface.
// The original implementation used 5 or 20 samples depending on call site;
// this is a heuristic, not exact geometry (spec §9).
const DefaultOffTrackSampleCount = 20

// NearestSegment returns the segment whose sampled centerline point is
// closest to pos, along with the parametric t at that closest sample. Surface
// and width lookups key off this nearest-sample approximation.
func (t *Track) NearestSegment(pos vector.Vec2, samples int) (*Segment, float64) {
	if samples <= 0 {
		samples = DefaultOffTrackSampleCount
	}
	var best *Segment
	bestDist := -1.0
	bestT := 0.0
	for i := range t.Segments {
		seg := &t.Segments[i]
		for s := 0; s <= samples; s++ {
			u := float64(s) / float64(samples)
			d := vector.Distance(pos, seg.PointAt(u))
			if best == nil || d < bestDist {
				best = seg
				bestDist = d
				bestT = u
			}
		}
	}
	return best, bestT
}

// SurfaceAndGrip returns the surface kind and base grip coefficient at pos.
func (t *Track) SurfaceAndGrip(pos vector.Vec2, samples int) (SurfaceKind, float64) {
	seg, u := t.NearestSegment(pos, samples)
	if seg == nil {
		return SurfaceAsphalt, 1.0
	}
	surface := seg.SurfaceAt(u)
	return surface, surface.GripCoefficient()
}

// IsOffTrack reports whether pos is further from the sampled centerline than
// half the local track width at the nearest sample (spec §9: a heuristic,
// not a specification of geometry).
func (t *Track) IsOffTrack(pos vector.Vec2, samples int) bool {
	seg, u := t.NearestSegment(pos, samples)
	if seg == nil {
		return false
	}
	d := vector.Distance(pos, seg.PointAt(u))
	return d > seg.WidthAt(u)/2
}
