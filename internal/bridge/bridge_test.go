package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/meshcall/bridgectl/internal/config"
	"github.com/meshcall/bridgectl/internal/debugsnapshot"
	"github.com/meshcall/bridgectl/internal/router"
)

func testConfig() *config.Config {
	return &config.Config{
		MinAnnouncementWindow: 0,
		ForceExitDelay:        10 * time.Millisecond,
		SampleInterval:        5 * time.Millisecond,
		LoadedThreshold:       1000,
		RecoveryThreshold:     500,
	}
}

func TestNewWiresDrainModeDefault(t *testing.T) {
	b := New(Params{Config: &config.Config{DrainMode: true, ForceExitDelay: time.Second, SampleInterval: time.Second}})
	if !b.GetDrainMode() {
		t.Fatal("expected DrainMode default to carry through to GetDrainMode")
	}
	b.SetDrainMode(false)
	if b.GetDrainMode() {
		t.Fatal("expected SetDrainMode to take effect")
	}
}

func TestCreateThenRouteEndToEnd(t *testing.T) {
	b := New(Params{Config: testConfig()})
	ctx := context.Background()

	reply, errReply := b.Router.RouteV2Sync(ctx, router.V2Request{RequestID: "r1", MeetingID: "m-1", Create: true})
	if errReply != nil {
		t.Fatalf("unexpected error reply: %+v", errReply)
	}
	if reply.ConferenceID == "" {
		t.Fatal("expected a non-empty conference id")
	}
	if b.Registry.Count() != 1 {
		t.Fatalf("expected 1 live conference, got %d", b.Registry.Count())
	}
}

func TestStartAndStopSampler(t *testing.T) {
	b := New(Params{Config: testConfig()})
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error starting bridge: %v", err)
	}
	time.Sleep(15 * time.Millisecond)
	b.Stop()
}

func TestStartRunsExpirationSweeper(t *testing.T) {
	cfg := testConfig()
	cfg.SweepInterval = 5 * time.Millisecond
	cfg.IdleTimeout = 10 * time.Millisecond
	b := New(Params{Config: cfg})
	ctx := context.Background()

	if _, errReply := b.Router.RouteV2Sync(ctx, router.V2Request{RequestID: "r1", MeetingID: "m-sweep", Create: true}); errReply != nil {
		t.Fatalf("unexpected error reply: %+v", errReply)
	}
	if b.Registry.Count() != 1 {
		t.Fatalf("expected 1 live conference before sweeping, got %d", b.Registry.Count())
	}

	if err := b.Start(ctx); err != nil {
		t.Fatalf("unexpected error starting bridge: %v", err)
	}
	defer b.Stop()

	deadline := time.After(time.Second)
	for b.Registry.Count() != 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the expiration sweeper to expire the idle conference")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestDebugSnapshotReflectsLiveConference(t *testing.T) {
	b := New(Params{Config: testConfig()})
	ctx := context.Background()

	reply, errReply := b.Router.RouteV2Sync(ctx, router.V2Request{RequestID: "r1", MeetingID: "m-2", Create: true})
	if errReply != nil {
		t.Fatalf("unexpected error reply: %+v", errReply)
	}

	snap := b.DebugSnapshot(nil, nil)
	confsVal, ok := snap.Get("conferences")
	if !ok {
		t.Fatal("expected a conferences entry")
	}
	listing, ok := confsVal.(*debugsnapshot.OrderedMap)
	if !ok {
		t.Fatalf("expected *debugsnapshot.OrderedMap, got %T", confsVal)
	}
	if _, ok := listing.Get(string(reply.ConferenceID)); !ok {
		t.Fatalf("expected conference %s in the shallow listing", reply.ConferenceID)
	}
}
