package sandbox

import (
	"encoding/json"

	"go.starlark.net/starlark"
)

// jsonToStarlark converts arbitrary JSON-decoded Go data (as produced by
// json.Unmarshal into `any`) into a Starlark value, so bot hooks observe
// the same read-only sensor view the broadcaster would serialize to
// clients.
func jsonToStarlark(v any) (starlark.Value, error) {
	switch t := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(t), nil
	case float64:
		return starlark.Float(t), nil
	case string:
		return starlark.String(t), nil
	case []any:
		list := make([]starlark.Value, 0, len(t))
		for _, item := range t {
			sv, err := jsonToStarlark(item)
			if err != nil {
				return nil, err
			}
			list = append(list, sv)
		}
		return starlark.NewList(list), nil
	case map[string]any:
		d := starlark.NewDict(len(t))
		for k, item := range t {
			sv, err := jsonToStarlark(item)
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return d, nil
	default:
		return starlark.None, nil
	}
}

// StateToValue converts a JSON-serializable Go value (typically the bot
// manager's BotGameState) into a read-only Starlark value for passing
// into on_tick.
func StateToValue(state any) (starlark.Value, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	v, err := jsonToStarlark(decoded)
	if err != nil {
		return nil, err
	}
	v.Freeze()
	return v, nil
}

// ActionsFromValue interprets an on_tick return value as the five action
// booleans. Any shape other than a string-keyed mapping with boolean
// values yields the safe all-false default, per spec §4.3.
func ActionsFromValue(v starlark.Value) (accelerate, brake, turnLeft, turnRight, nitro bool) {
	d, ok := v.(*starlark.Dict)
	if !ok {
		return
	}
	lookup := func(key string) bool {
		val, found, _ := d.Get(starlark.String(key))
		if !found {
			return false
		}
		b, ok := val.(starlark.Bool)
		return ok && bool(b)
	}
	return lookup("accelerate"), lookup("brake"), lookup("turn_left"), lookup("turn_right"), lookup("nitro")
}
