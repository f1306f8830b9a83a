package engine

// resolveFinishes marks any player who has just crossed the final
// checkpoint as finished, stamps their finish time, and starts the grace
// period clock on the first finisher (spec §4.5). It returns the IDs of
// players who finished this tick so their bots can be notified once
// final ranks are known.
func (e *Engine) resolveFinishes() []string {
	tr := e.state.Track
	var justFinished []string
	for id, player := range e.state.Players {
		if player.IsFinished || player.DNF {
			continue
		}
		if player.CurrentCheckpoint < len(tr.Checkpoints) {
			continue
		}
		player.IsFinished = true
		now := e.elapsedSeconds()
		player.FinishTime = &now
		justFinished = append(justFinished, id)

		if e.state.RaceInfo.FirstFinisherTime == nil {
			e.state.RaceInfo.FirstFinisherTime = &now
			e.state.RaceInfo.GracePeriodRemaining = e.gracePeriodSeconds
		}
	}

	allDone := true
	for _, p := range e.state.Players {
		if !p.IsFinished && !p.DNF {
			allDone = false
			break
		}
	}
	if allDone && len(e.state.Players) > 0 {
		e.finalizeRace()
	}

	return justFinished
}

func (e *Engine) notifyFinishes(ids []string) {
	for _, id := range ids {
		player := e.state.Players[id]
		if player == nil || !player.IsBot || player.Bot == nil {
			continue
		}
		rank := 0
		if player.Position != nil {
			rank = *player.Position
		}
		finishTime := 0.0
		if player.FinishTime != nil {
			finishTime = *player.FinishTime
		}
		e.bots.OnFinish(player.Bot, finishTime, rank)
	}
}
