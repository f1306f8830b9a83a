package registry

import (
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/rs/zerolog"

	"racetrack-engine/internal/botmanager"
	"racetrack-engine/internal/config"
	"racetrack-engine/internal/engine"
	"racetrack-engine/internal/track"
	"racetrack-engine/internal/vector"
)

type fakeConn struct {
	delivered int32
	failing   bool
	closed    int32
}

func (f *fakeConn) Deliver(snapshot *engine.Snapshot) error {
	if f.failing {
		return errFakeDeliveryFailed
	}
	atomic.AddInt32(&f.delivered, 1)
	return nil
}

func (f *fakeConn) Close() error {
	atomic.AddInt32(&f.closed, 1)
	return nil
}

var errFakeDeliveryFailed = &fakeError{}

type fakeError struct{}

func (*fakeError) Error() string { return "fake delivery failure" }

func straightTrack() *track.Track {
	return &track.Track{
		Segments: []track.Segment{{
			Kind:  track.SegmentStraight,
			Start: track.Endpoint{Position: vector.Vec2{X: 0, Y: 0}, Width: 80, Surface: track.SurfaceAsphalt},
			End:   track.Endpoint{Position: vector.Vec2{X: 500, Y: 0}, Width: 80, Surface: track.SurfaceAsphalt},
		}},
		Checkpoints:   []track.Checkpoint{{Position: vector.Vec2{X: 500, Y: 0}, Tangent: vector.Vec2{X: 1, Y: 0}, Width: 80, Index: 0}},
		StartPosition: vector.Vec2{X: 0, Y: 0},
	}
}

func TestBroadcastDropsFailingConnections(t *testing.T) {
	Convey("Given a registered session with a failing connection", t, func() {
		cfg := config.Default()
		bots := botmanager.NewManager(cfg, zerolog.Nop())
		eng := engine.New("s1", straightTrack(), cfg, bots, zerolog.Nop(), false, 0)

		reg := New(Config{BroadcastRate: 200}, zerolog.Nop())
		reg.Register("s1", eng, false)

		good := &fakeConn{}
		bad := &fakeConn{failing: true}
		reg.AddConnection("s1", "good", good)
		reg.AddConnection("s1", "bad", bad)

		Convey("the failing connection is eventually dropped and closed", func() {
			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) && atomic.LoadInt32(&bad.closed) == 0 {
				time.Sleep(5 * time.Millisecond)
			}
			So(atomic.LoadInt32(&bad.closed), ShouldEqual, int32(1))
			So(atomic.LoadInt32(&good.delivered), ShouldBeGreaterThan, int32(0))
		})

		reg.Terminate("s1")
	})
}
