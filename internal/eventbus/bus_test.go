package eventbus

import (
	"sync/atomic"
	"testing"

	"github.com/meshcall/bridgectl/internal/conference"
)

func newTestConference(id conference.ID) conference.Conference {
	return conference.New(conference.Params{ID: id})
}

func TestDispatchOrderAndTypes(t *testing.T) {
	bus := New(nil)

	var got []Event
	bus.Register(HandlerFunc{HandlerID: "collector", Fn: func(e Event) {
		got = append(got, e)
	}})

	c := newTestConference("abc")
	bus.ConferenceCreated(c)
	bus.ConferenceExpired(c)

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != ConferenceCreated || got[1].Type != ConferenceExpired {
		t.Fatalf("unexpected event types: %v, %v", got[0].Type, got[1].Type)
	}
	if got[0].DeliveryID == "" || got[1].DeliveryID == got[0].DeliveryID {
		t.Fatalf("expected distinct non-empty delivery ids")
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	bus := New(nil)

	var calls int32
	bus.Register(HandlerFunc{HandlerID: "h1", Fn: func(Event) {
		atomic.AddInt32(&calls, 1)
	}})

	if !bus.Unregister("h1") {
		t.Fatal("expected Unregister to find handler h1")
	}
	if bus.Unregister("h1") {
		t.Fatal("expected second Unregister to report not-found")
	}

	bus.ConferenceCreated(newTestConference("x"))
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no calls after unregister, got %d", calls)
	}
}

func TestHandlersSnapshotIsIndependent(t *testing.T) {
	bus := New(nil)
	bus.Register(HandlerFunc{HandlerID: "a", Fn: func(Event) {}})

	snap := bus.Handlers()
	bus.Register(HandlerFunc{HandlerID: "b", Fn: func(Event) {}})

	if len(snap) != 1 {
		t.Fatalf("expected snapshot to be unaffected by later registration, got %d entries", len(snap))
	}
}
