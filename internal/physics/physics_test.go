package physics

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"racetrack-engine/internal/vector"
)

func TestStep(t *testing.T) {
	Convey("Given default physics params", t, func() {
		p := DefaultParams()

		Convey("Accelerating from rest increases speed toward max", func() {
			car := CarState{Heading: 0}
			in := Input{Accelerate: true}
			for i := 0; i < 600; i++ {
				car = Step(car, in, 1.0, p, 1.0/60.0)
			}
			// Speed is clamped to MaxSpeed during acceleration, then one tick of
			// drag is applied on top of the clamped value.
			So(car.Velocity.Length(), ShouldAlmostEqual, p.MaxSpeed*(1-p.Drag/60.0), 1e-6)
			So(car.Position.X, ShouldBeGreaterThan, 0)
		})

		Convey("Braking from a standstill never reverses", func() {
			car := CarState{Heading: 0}
			in := Input{Brake: true}
			car = Step(car, in, 1.0, p, 1.0/60.0)
			So(car.Velocity.Length(), ShouldEqual, 0)
		})

		Convey("Nitro consumes a charge and expires after its duration", func() {
			car := CarState{Heading: 0, NitroCharges: 1}
			in := Input{Nitro: true}
			car = Step(car, in, 1.0, p, 1.0/60.0)
			So(car.NitroActive, ShouldBeTrue)
			So(car.NitroCharges, ShouldEqual, 0)

			for i := 0; i < p.NitroDurationTick; i++ {
				car = Step(car, Input{}, 1.0, p, 1.0/60.0)
			}
			So(car.NitroActive, ShouldBeFalse)
		})

		Convey("Turning direction maps right/left/both correctly", func() {
			So(TurnDirection(Input{TurnRight: true}), ShouldEqual, 1)
			So(TurnDirection(Input{TurnLeft: true}), ShouldEqual, -1)
			So(TurnDirection(Input{TurnLeft: true, TurnRight: true}), ShouldEqual, 0)
			So(TurnDirection(Input{}), ShouldEqual, 0)
		})
	})

	Convey("Given an elastic head-on collision", t, func() {
		n := vector.Vec2{X: 1, Y: 0}
		relVel := -100.0 // closing
		j := ElasticImpulse(relVel, 1, 1, 1.0)
		So(j, ShouldBeGreaterThan, 0)
		_ = n
	})
}
