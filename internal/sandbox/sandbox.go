// Package sandbox loads and invokes untrusted bot programs under hard
// CPU time and memory bounds (spec §4.3). The restricted evaluator is
// go.starlark.net's Starlark interpreter: it has no reflection, no file
// or network I/O, no dynamic eval, and no import mechanism unless the
// host wires one up — which this package deliberately does not, beyond
// a single allow-listed math module (spec's "(a) import allow-list").
// Execution is fuel-metered (thread.SetMaxExecutionSteps) and backed by
// a watchdog goroutine that cancels the thread past its wall-clock
// budget, matching the two mechanisms spec §9 calls out as acceptable.
package sandbox

import (
	"crypto/sha256"
	"encoding/hex"
	"runtime"
	"sync"
	"time"

	"go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// Limits bounds a single bot's code size, per-call wall clock, and
// approximate per-call memory.
type Limits struct {
	MaxCodeBytes int
	TimeoutMS    int
	MemoryMB     int
}

// Handle is the opaque, sandbox-owned reference to a constructed bot
// instance. The engine and bot manager never look inside it (spec
// §3, BotHandle).
type Handle struct {
	Instance  *starlarkstruct.Struct
	CodeHash  string
	ClassName string
	Memory    *starlark.Dict
	limits    Limits
}

// stepsPerMillisecond is a rough fuel budget: bounding execution steps
// gives a deterministic backstop even if the watchdog goroutine is
// scheduled late under load.
const stepsPerMillisecond = 200000

// Loader compiles and instantiates bot programs.
type Loader struct{}

// NewLoader returns a Loader. It holds no state; limits are supplied
// per call.
func NewLoader() *Loader {
	return &Loader{}
}

// Load compiles program text, runs its top-level statements, locates a
// global function named className, and calls it to construct the bot
// instance — all under limits.TimeoutMS.
func (l *Loader) Load(code string, className string, limits Limits) (*Handle, error) {
	if len(code) > limits.MaxCodeBytes {
		return nil, validationErr("code size %d exceeds limit %d", len(code), limits.MaxCodeBytes)
	}

	predeclared := starlark.StringDict{
		"math":        math.Module,
		"bot_instance": starlark.NewBuiltin("bot_instance", starlarkstruct.Make),
	}

	thread := &starlark.Thread{Name: "bot-load"}
	globals, err := runBounded(thread, limits, func() (starlark.Value, error) {
		// while loops are enabled so that a looping bot is stopped by the
		// step/wall-clock bound rather than rejected at compile time.
		g, err := starlark.ExecFileOptions(&syntax.FileOptions{While: true}, thread, className+".star", code, predeclared)
		return dictFromStringDict(g), err
	})
	if err != nil {
		return nil, classifyCompileError(err)
	}

	globalsDict, _ := globals.(*starlark.Dict)
	classVal, found, _ := globalsDict.Get(starlark.String(className))
	if !found {
		return nil, validationErr("class %q not defined", className)
	}
	fn, ok := classVal.(*starlark.Function)
	if !ok {
		return nil, validationErr("%q is not callable", className)
	}

	instanceVal, err := runBounded(thread, limits, func() (starlark.Value, error) {
		return starlark.Call(thread, fn, nil, nil)
	})
	if err != nil {
		return nil, classifyRuntimeError(err)
	}

	inst, ok := instanceVal.(*starlarkstruct.Struct)
	if !ok {
		return nil, validationErr("%q did not return a bot_instance", className)
	}

	memVal, err := inst.Attr("memory")
	var memory *starlark.Dict
	if err == nil {
		memory, _ = memVal.(*starlark.Dict)
	}
	if memory == nil {
		memory = starlark.NewDict(0)
	}

	sum := sha256.Sum256([]byte(code))
	return &Handle{
		Instance:  inst,
		CodeHash:  hex.EncodeToString(sum[:]),
		ClassName: className,
		Memory:    memory,
		limits:    limits,
	}, nil
}

// invokeHook calls a named attribute of the instance (expected to be a
// callable) with the given positional Starlark arguments, under the
// handle's configured limits. Returns the typed error on security,
// timeout, or memory violations; any other failure is reported via ok=false
// with a nil error, signalling "swallow and use the safe default".
func (h *Handle) invokeHook(name string, args starlark.Tuple) (starlark.Value, bool, error) {
	attr, err := h.Instance.Attr(name)
	if err != nil || attr == nil {
		return starlark.None, false, nil // hook not defined: treated as a no-op
	}
	fn, ok := attr.(starlark.Callable)
	if !ok {
		return starlark.None, false, nil
	}

	thread := &starlark.Thread{Name: "bot-call"}
	result, err := runBounded(thread, h.limits, func() (starlark.Value, error) {
		return starlark.Call(thread, fn, args, nil)
	})
	if err != nil {
		classified := classifyRuntimeError(err)
		if IsFatal(classified) {
			return starlark.None, false, classified
		}
		// BotLogicError: swallowed per spec §4.3/§7.
		return starlark.None, false, nil
	}
	return result, true, nil
}

// runBounded executes fn on the calling goroutine while a watchdog
// cancels the thread after limits.TimeoutMS, and samples heap growth as
// a best-effort memory bound (spec §4.3: "may be approximate on
// platforms without per-task accounting").
func runBounded(thread *starlark.Thread, limits Limits, fn func() (starlark.Value, error)) (starlark.Value, error) {
	timeout := time.Duration(limits.TimeoutMS) * time.Millisecond
	thread.SetMaxExecutionSteps(uint64(limits.TimeoutMS) * stepsPerMillisecond)

	var before runtime.MemStats
	runtime.ReadMemStats(&before)

	done := make(chan struct{})
	var mu sync.Mutex
	var result starlark.Value
	var callErr error

	go func() {
		defer close(done)
		r, err := fn()
		mu.Lock()
		result, callErr = r, err
		mu.Unlock()
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		thread.Cancel("bot exceeded timeout")
		<-done // Cancel is checked between steps, so this returns promptly.
	}

	mu.Lock()
	defer mu.Unlock()

	if callErr != nil {
		return result, callErr
	}

	var after runtime.MemStats
	runtime.ReadMemStats(&after)
	if limits.MemoryMB > 0 {
		deltaMB := int64(after.HeapAlloc-before.HeapAlloc) / (1024 * 1024)
		if deltaMB > int64(limits.MemoryMB) {
			return result, memoryErr("heap grew by ~%dMB, limit %dMB", deltaMB, limits.MemoryMB)
		}
	}
	return result, callErr
}

func classifyCompileError(err error) error {
	if err == nil {
		return nil
	}
	if isCancellation(err) {
		return timeoutErr("%v", err)
	}
	return validationErr("%v", err)
}

func classifyRuntimeError(err error) error {
	if err == nil {
		return nil
	}
	if isCancellation(err) {
		return timeoutErr("%v", err)
	}
	if _, ok := err.(*starlark.EvalError); ok {
		// Ordinary runtime exceptions are returned unchanged; IsFatal
		// reports them as non-fatal, so the caller swallows them. Step
		// exhaustion was already classified as a timeout above.
		return err
	}
	return err
}

func isCancellation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return containsAny(msg, "cancelled", "canceled", "exceeded max execution steps", "too many steps")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if len(s) >= len(sub) {
			for i := 0; i+len(sub) <= len(s); i++ {
				if s[i:i+len(sub)] == sub {
					return true
				}
			}
		}
	}
	return false
}

func dictFromStringDict(sd starlark.StringDict) *starlark.Dict {
	d := starlark.NewDict(len(sd))
	for k, v := range sd {
		_ = d.SetKey(starlark.String(k), v)
	}
	return d
}
