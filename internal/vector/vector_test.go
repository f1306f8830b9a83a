package vector

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestVec2(t *testing.T) {
	Convey("Given basic vector operations", t, func() {
		a := Vec2{X: 3, Y: 4}

		Convey("Length matches the Pythagorean length", func() {
			So(a.Length(), ShouldEqual, 5)
		})

		Convey("Normalize produces a unit vector", func() {
			n := a.Normalize()
			So(n.Length(), ShouldAlmostEqual, 1, 1e-9)
		})

		Convey("The zero vector normalizes to itself", func() {
			z := Vec2{}.Normalize()
			So(z, ShouldResemble, Vec2{})
		})

		Convey("Rotate by a full turn returns the original vector", func() {
			r := a.Rotate(2 * math.Pi)
			So(r.X, ShouldAlmostEqual, a.X, 1e-9)
			So(r.Y, ShouldAlmostEqual, a.Y, 1e-9)
		})
	})

	Convey("Given angle normalization", t, func() {
		Convey("Angles wrap into (-pi, pi]", func() {
			So(NormalizeAngle(3*math.Pi), ShouldAlmostEqual, math.Pi, 1e-9)
			So(NormalizeAngle(-3*math.Pi), ShouldAlmostEqual, math.Pi, 1e-9)
		})
	})

	Convey("Given Clamp", t, func() {
		Convey("Values outside the range are clamped", func() {
			So(Clamp(10, 0, 5), ShouldEqual, 5)
			So(Clamp(-10, 0, 5), ShouldEqual, 0)
			So(Clamp(3, 0, 5), ShouldEqual, 3)
		})
	})
}
