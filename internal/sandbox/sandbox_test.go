package sandbox

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func testLimits() Limits {
	return Limits{MaxCodeBytes: 64 * 1024, TimeoutMS: 200, MemoryMB: 64}
}

const simpleBotCode = `
def SimpleBot():
    memory = {}
    def on_tick(state):
        return {"accelerate": True, "turn_right": True}
    return bot_instance(on_tick=on_tick, memory=memory)
`

const whileTrueBotCode = `
def EvilBot():
    def on_tick(state):
        x = 0
        while True:
            x += 1
        return {}
    return bot_instance(on_tick=on_tick, memory={})
`

const importBotCode = `
load("os", "os")

def ImportBot():
    return bot_instance(on_tick=lambda state: {}, memory={})
`

func TestLoaderAndHooks(t *testing.T) {
	Convey("Given the bot loader", t, func() {
		loader := NewLoader()

		Convey("A well-formed bot loads and on_tick returns its actions", func() {
			handle, err := loader.Load(simpleBotCode, "SimpleBot", testLimits())
			So(err, ShouldBeNil)
			So(handle, ShouldNotBeNil)

			actions, err := handle.OnTick(map[string]any{"tick": 1})
			So(err, ShouldBeNil)
			So(actions.Accelerate, ShouldBeTrue)
			So(actions.TurnRight, ShouldBeTrue)
			So(actions.Brake, ShouldBeFalse)
		})

		Convey("A missing class name is a validation error", func() {
			_, err := loader.Load(simpleBotCode, "NoSuchClass", testLimits())
			So(err, ShouldNotBeNil)
			be, ok := err.(*BotError)
			So(ok, ShouldBeTrue)
			So(be.Kind, ShouldEqual, KindValidation)
		})

		Convey("An unauthorized import is rejected", func() {
			_, err := loader.Load(importBotCode, "ImportBot", testLimits())
			So(err, ShouldNotBeNil)
		})

		Convey("An infinite loop in on_tick is terminated and reported as a timeout", func() {
			handle, err := loader.Load(whileTrueBotCode, "EvilBot", Limits{MaxCodeBytes: 64 * 1024, TimeoutMS: 20, MemoryMB: 64})
			So(err, ShouldBeNil)

			_, err = handle.OnTick(map[string]any{})
			So(err, ShouldNotBeNil)
			So(IsFatal(err), ShouldBeTrue)
		})

		Convey("Oversized code is rejected before compilation", func() {
			big := make([]byte, 128*1024)
			_, err := loader.Load(string(big), "Anything", testLimits())
			So(err, ShouldNotBeNil)
			be, ok := err.(*BotError)
			So(ok, ShouldBeTrue)
			So(be.Kind, ShouldEqual, KindValidation)
		})
	})
}
