package lobby

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"racetrack-engine/internal/track"
	"racetrack-engine/internal/vector"
)

type stubFactory struct{}

func (stubFactory) Build(difficulty string, seed *int64) (*track.Track, error) {
	return &track.Track{StartPosition: vector.Vec2{}, Checkpoints: []track.Checkpoint{{Index: 0}}}, nil
}

func TestLobbyHostTransferAndDisband(t *testing.T) {
	Convey("Given a lobby with host h and members a, b", t, func() {
		mgr := NewManager(stubFactory{})
		l := mgr.Create("race night", "h", Settings{MaxPlayers: 8})
		So(mgr.Join(l.ID, "a", "a"), ShouldBeNil)
		So(mgr.Join(l.ID, "b", "b"), ShouldBeNil)

		Convey("joining twice is idempotent", func() {
			So(mgr.Join(l.ID, "a", "a"), ShouldBeNil)
			got, _ := mgr.Get(l.ID)
			So(got.MemberOrder, ShouldHaveLength, 3)
		})

		Convey("host leaving promotes the first remaining member", func() {
			So(mgr.Leave(l.ID, "h"), ShouldBeNil)
			got, err := mgr.Get(l.ID)
			So(err, ShouldBeNil)
			So(got.HostID, ShouldEqual, "a")

			Convey("and the next host leaving promotes again", func() {
				So(mgr.Leave(l.ID, "a"), ShouldBeNil)
				got, err := mgr.Get(l.ID)
				So(err, ShouldBeNil)
				So(got.HostID, ShouldEqual, "b")

				Convey("and the last member leaving disbands the lobby", func() {
					So(mgr.Leave(l.ID, "b"), ShouldBeNil)
					_, err := mgr.Get(l.ID)
					So(err, ShouldEqual, ErrNotFound)
				})
			})
		})
	})
}

func TestLobbyStartRaceRequiresHostAndWaiting(t *testing.T) {
	Convey("Given a lobby with host h", t, func() {
		mgr := NewManager(stubFactory{})
		l := mgr.Create("race night", "h", Settings{MaxPlayers: 8, Difficulty: "easy"})

		Convey("a non-host cannot start the race", func() {
			_, _, err := mgr.StartRace(l.ID, "nobody")
			So(err, ShouldEqual, ErrInvalidTransition)
		})

		Convey("the host can start the race, producing a session id and track", func() {
			sessionID, tr, err := mgr.StartRace(l.ID, "h")
			So(err, ShouldBeNil)
			So(sessionID, ShouldNotBeEmpty)
			So(tr, ShouldNotBeNil)

			Convey("starting again while Starting is rejected", func() {
				_, _, err := mgr.StartRace(l.ID, "h")
				So(err, ShouldEqual, ErrInvalidTransition)
			})

			Convey("TransitionToRacing then FinishRace then Reset round-trips to Waiting", func() {
				So(mgr.TransitionToRacing(l.ID), ShouldBeNil)
				So(mgr.FinishRace(l.ID), ShouldBeNil)
				So(mgr.Reset(l.ID, "h"), ShouldBeNil)
				got, _ := mgr.Get(l.ID)
				So(got.Status, ShouldEqual, StatusWaiting)
			})
		})
	})
}

func TestAddBotRejectsDuplicate(t *testing.T) {
	Convey("Given a lobby with one bot added", t, func() {
		mgr := NewManager(stubFactory{})
		l := mgr.Create("bots only", "h", Settings{MaxPlayers: 4})
		memberID, err := mgr.AddBot(l.ID, "aggressive-racer", "h")
		So(err, ShouldBeNil)
		So(memberID, ShouldEqual, "bot-h-aggressive-racer")

		Convey("adding the same bot again is rejected", func() {
			_, err := mgr.AddBot(l.ID, "aggressive-racer", "h")
			So(err, ShouldEqual, ErrInvalidTransition)
		})
	})
}
