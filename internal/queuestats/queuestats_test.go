package queuestats

import "testing"

func TestQueueCountersAccumulate(t *testing.T) {
	r := NewRegistry()
	q := r.Queue(SRTPSendQueue)
	q.IncDropped()
	q.IncDropped()
	q.IncException()

	snap := q.Snapshot()
	if snap.DroppedPackets != 2 {
		t.Fatalf("expected 2 dropped packets, got %d", snap.DroppedPackets)
	}
	if !snap.HasExceptions || snap.Exceptions != 1 {
		t.Fatalf("expected 1 exception with HasExceptions set, got %+v", snap)
	}
}

func TestQueueWithoutExceptionsOmitsFlag(t *testing.T) {
	r := NewRegistry()
	q := r.Queue(ColibriQueue)
	q.IncDropped()

	snap := q.Snapshot()
	if snap.HasExceptions {
		t.Fatal("expected HasExceptions to remain false when no exception was recorded")
	}
}

func TestSnapshotAllIncludesWellKnownQueues(t *testing.T) {
	r := NewRegistry()
	all := r.SnapshotAll()

	for _, name := range []string{SRTPSendQueue, OctoSendQueue, ColibriQueue, IncomingMessage, RTPReceiver, RTPSender} {
		if _, ok := all[name]; !ok {
			t.Fatalf("expected well-known queue %q in snapshot", name)
		}
	}
}

func TestUnknownQueueNameIsCreatedOnFirstUse(t *testing.T) {
	r := NewRegistry()
	r.Queue("custom_queue").IncDropped()

	all := r.SnapshotAll()
	if all["custom_queue"].DroppedPackets != 1 {
		t.Fatalf("expected custom_queue to be tracked, got %+v", all["custom_queue"])
	}
}
