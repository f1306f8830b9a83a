package engine

import (
	"sort"

	"racetrack-engine/internal/session"
	"racetrack-engine/internal/vector"
)

// recomputeRanks orders players by race progress and stamps each with a
// Position (spec §4.5): finished players rank by finish time, then racing
// (unfinished, non-DNF) players by a progress metric of
// 1000*current_checkpoint - distance_to_next_checkpoint, then DNF players
// are left unranked (Position stays nil).
func (e *Engine) recomputeRanks() {
	type ranked struct {
		player   *session.PlayerState
		progress float64
	}

	var finished, racing []*ranked
	for _, p := range e.state.Players {
		if p.DNF {
			p.Position = nil
			continue
		}
		if p.IsFinished {
			finished = append(finished, &ranked{player: p})
			continue
		}
		racing = append(racing, &ranked{player: p, progress: e.progressMetric(p)})
	}

	sort.Slice(finished, func(i, j int) bool {
		return *finished[i].player.FinishTime < *finished[j].player.FinishTime
	})
	sort.Slice(racing, func(i, j int) bool {
		return racing[i].progress > racing[j].progress
	})

	rank := 1
	for _, r := range finished {
		pos := rank
		r.player.Position = &pos
		rank++
	}
	for _, r := range racing {
		pos := rank
		r.player.Position = &pos
		rank++
	}
}

func (e *Engine) progressMetric(p *session.PlayerState) float64 {
	tr := e.state.Track
	if p.CurrentCheckpoint >= len(tr.Checkpoints) {
		return 1000.0 * float64(len(tr.Checkpoints))
	}
	next := tr.Checkpoints[p.CurrentCheckpoint]
	dist := vector.Distance(p.Car.Position, next.Position)
	return 1000.0*float64(p.CurrentCheckpoint) - dist
}

// awardPoints assigns championship points by finishing order once a race
// has concluded (spec §4.6, points table indexed by final position).
func (e *Engine) awardPoints() {
	for _, p := range e.state.Players {
		if p.DNF || p.Position == nil {
			p.Points = 0
			continue
		}
		p.Points = e.cfg.PointsFor(*p.Position)
	}
}
