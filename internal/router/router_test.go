package router

import (
	"context"
	"testing"

	"github.com/meshcall/bridgectl/internal/conference"
	"github.com/meshcall/bridgectl/internal/registry"
)

type seqRng struct {
	next uint64
}

func (r *seqRng) Uint64() uint64 {
	r.next++
	return r.next
}

type fakeClock struct{ n int64 }

func (c *fakeClock) NowNano() int64 {
	c.n++
	return c.n
}

type fakeShutdown struct{ graceful bool }

func (f *fakeShutdown) IsGraceful() bool { return f.graceful }

func echoFactory(id conference.ID, p registry.CreateParams) conference.Conference {
	return conference.New(conference.Params{
		ID:        id,
		MeetingID: p.MeetingID,
		HasMID:    p.HasMeetingID,
		GID:       p.GID,
		Name:      p.Name,
		HasName:   p.HasName,
		Flags:     conference.FeatureFlags{RTCStatsEnabled: p.RTCStatsEnabled, CallStatsEnabled: p.CallStatsEnabled},
		Handle: func(req conference.Request) conference.Reply {
			return conference.Reply{RequestID: req.RequestID, Value: id}
		},
	})
}

func newTestRouter(graceful bool) (*Router, *registry.Registry) {
	reg := registry.New(&fakeClock{}, &seqRng{}, nil, echoFactory)
	r := New(reg, &fakeShutdown{graceful: graceful})
	return r, reg
}

func TestV2CreateThenLookup(t *testing.T) {
	r, reg := newTestRouter(false)
	ctx := context.Background()

	reply, errReply := r.RouteV2Sync(ctx, V2Request{RequestID: "r1", MeetingID: "m-1", Create: true, Name: "room@example.com", HasName: true})
	if errReply != nil {
		t.Fatalf("unexpected error reply: %+v", errReply)
	}
	i1 := reply.ConferenceID

	if reg.GetByID(i1) == nil {
		t.Fatalf("expected byId[%s] to be present", i1)
	}
	if reg.GetByMeetingID("m-1") == nil || reg.GetByMeetingID("m-1").ID() != i1 {
		t.Fatalf("expected byMeetingId[m-1] == %s", i1)
	}

	reply2, errReply2 := r.RouteV2Sync(ctx, V2Request{RequestID: "r2", MeetingID: "m-1", Create: false})
	if errReply2 != nil {
		t.Fatalf("unexpected error reply: %+v", errReply2)
	}
	if reply2.ConferenceID != i1 {
		t.Fatalf("expected lookup to resolve to %s, got %s", i1, reply2.ConferenceID)
	}
}

func TestV2DuplicateCreate(t *testing.T) {
	r, _ := newTestRouter(false)
	ctx := context.Background()

	if _, errReply := r.RouteV2Sync(ctx, V2Request{RequestID: "r1", MeetingID: "m-1", Create: true}); errReply != nil {
		t.Fatalf("unexpected error on first create: %+v", errReply)
	}

	_, errReply := r.RouteV2Sync(ctx, V2Request{RequestID: "r2", MeetingID: "m-1", Create: true})
	if errReply == nil {
		t.Fatal("expected an error reply on duplicate create")
	}
	if errReply.Condition != CondConflict {
		t.Fatalf("expected condition conflict, got %s", errReply.Condition)
	}
	if errReply.Reason != ReasonConferenceAlreadyExists {
		t.Fatalf("expected reason CONFERENCE_ALREADY_EXISTS, got %s", errReply.Reason)
	}
}

func TestV1CreateNoIDThenLookupByID(t *testing.T) {
	r, _ := newTestRouter(false)
	ctx := context.Background()

	reply, errReply := r.RouteV1Sync(ctx, V1Request{RequestID: "r1", MeetingID: "m-2", HasMID: true})
	if errReply != nil {
		t.Fatalf("unexpected error reply: %+v", errReply)
	}
	i2 := reply.ConferenceID

	reply2, errReply2 := r.RouteV1Sync(ctx, V1Request{RequestID: "r2", ID: i2, HasID: true})
	if errReply2 != nil {
		t.Fatalf("unexpected error reply: %+v", errReply2)
	}
	if reply2.ConferenceID != i2 {
		t.Fatalf("expected routed to same conference %s, got %s", i2, reply2.ConferenceID)
	}
}

func TestV1LookupMissing(t *testing.T) {
	r, _ := newTestRouter(false)
	ctx := context.Background()

	_, errReply := r.RouteV1Sync(ctx, V1Request{RequestID: "r1", ID: "does-not-exist", HasID: true})
	if errReply == nil {
		t.Fatal("expected an error reply")
	}
	if errReply.Condition != CondBadRequest {
		t.Fatalf("expected condition bad_request, got %s", errReply.Condition)
	}
	if errReply.Text != "Conference not found for ID: does-not-exist" {
		t.Fatalf("unexpected error text: %q", errReply.Text)
	}
}

func TestGracefulShutdownRefusesV1CreateNoID(t *testing.T) {
	r, _ := newTestRouter(true)
	ctx := context.Background()

	_, errReply := r.RouteV1Sync(ctx, V1Request{RequestID: "r1"})
	if errReply == nil {
		t.Fatal("expected an error reply")
	}
	if errReply.Condition != CondGracefulShutdown {
		t.Fatalf("expected graceful-shutdown condition, got %s", errReply.Condition)
	}
}

func TestGracefulShutdownRefusesV2Create(t *testing.T) {
	r, _ := newTestRouter(true)
	ctx := context.Background()

	_, errReply := r.RouteV2Sync(ctx, V2Request{RequestID: "r1", MeetingID: "m-3", Create: true})
	if errReply == nil {
		t.Fatal("expected an error reply")
	}
	if errReply.Condition != CondGracefulShutdown {
		t.Fatalf("expected graceful-shutdown condition, got %s", errReply.Condition)
	}
}

func TestV2InvalidNameRejected(t *testing.T) {
	r, _ := newTestRouter(false)
	ctx := context.Background()

	_, errReply := r.RouteV2Sync(ctx, V2Request{RequestID: "r1", MeetingID: "m-4", Create: true, Name: "not a jid", HasName: true})
	if errReply == nil {
		t.Fatal("expected an error reply")
	}
	if errReply.Condition != CondBadRequest {
		t.Fatalf("expected condition bad_request, got %s", errReply.Condition)
	}
}
