package engine

import (
	"racetrack-engine/internal/track"
)

// resolveCheckpoints detects checkpoint crossings for every active player:
// the player's travel segment (prev position -> current position) must
// intersect the checkpoint's gate, and the crossing must agree with the
// checkpoint's forward tangent (spec §4.3). Only the player's current
// next checkpoint can be crossed; checkpoints are strictly ordered.
func (e *Engine) resolveCheckpoints() {
	tr := e.state.Track
	for _, player := range e.state.Players {
		if player.IsFinished || player.DNF {
			continue
		}
		if player.CurrentCheckpoint >= len(tr.Checkpoints) {
			continue
		}
		cp := tr.Checkpoints[player.CurrentCheckpoint]
		left, right := track.CheckpointGate(cp)
		if !track.SegmentsIntersect(player.PrevPosition, player.Car.Position, left, right) {
			continue
		}
		travel := player.Car.Position.Sub(player.PrevPosition)
		if travel.Dot(cp.Tangent) <= 0 {
			continue // crossed the gate backwards
		}

		player.CheckpointsPassed[cp.Index] = true
		splitTime := e.elapsedSeconds()
		player.SplitTimes = append(player.SplitTimes, splitTime)
		player.CurrentCheckpoint++

		if player.IsBot && player.Bot != nil {
			e.bots.OnCheckpoint(player.Bot, cp.Index, splitTime)
		}
	}
}
