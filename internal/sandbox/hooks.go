package sandbox

import "go.starlark.net/starlark"

// Actions is the five-boolean result of on_tick, matching PlayerInput.
type Actions struct {
	Accelerate bool
	Brake      bool
	TurnLeft   bool
	TurnRight  bool
	Nitro      bool
}

// OnTick invokes the bot's on_tick(state) hook. A nil error with the
// zero Actions value is returned both when the bot has no on_tick and
// when it raised a non-fatal logic error; callers cannot and need not
// distinguish the two (spec §4.3: both yield the safe default).
func (h *Handle) OnTick(state any) (Actions, error) {
	stateVal, err := StateToValue(state)
	if err != nil {
		return Actions{}, err
	}
	result, ok, err := h.invokeHook("on_tick", starlark.Tuple{stateVal})
	if err != nil {
		return Actions{}, err
	}
	if !ok {
		return Actions{}, nil
	}
	a, b, tl, tr, n := ActionsFromValue(result)
	return Actions{Accelerate: a, Brake: b, TurnLeft: tl, TurnRight: tr, Nitro: n}, nil
}

// OnCollision invokes the bot's on_collision(event) hook, if defined.
func (h *Handle) OnCollision(event any) error {
	eventVal, err := StateToValue(event)
	if err != nil {
		return err
	}
	_, _, err = h.invokeHook("on_collision", starlark.Tuple{eventVal})
	return err
}

// OnCheckpoint invokes the bot's on_checkpoint(index, split_time) hook,
// if defined.
func (h *Handle) OnCheckpoint(index int, splitTime float64) error {
	_, _, err := h.invokeHook("on_checkpoint", starlark.Tuple{starlark.MakeInt(index), starlark.Float(splitTime)})
	return err
}

// OnFinish invokes the bot's on_finish(finish_time, final_position) hook,
// if defined. finalPosition may be unknown (not yet ranked) in which case
// 0 is passed.
func (h *Handle) OnFinish(finishTime float64, finalPosition int) error {
	_, _, err := h.invokeHook("on_finish", starlark.Tuple{starlark.Float(finishTime), starlark.MakeInt(finalPosition)})
	return err
}
