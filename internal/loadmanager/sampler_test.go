package loadmanager

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSamplerFeedsManager(t *testing.T) {
	var calls int32
	m := NewManager(ManagerParams{LoadedThreshold: 100, RecoveryThreshold: 50})
	s := NewSampler(SamplerParams{
		Interval: 5 * time.Millisecond,
		Manager:  m,
		Measure: func(ctx context.Context) (PacketRateMeasurement, error) {
			atomic.AddInt32(&calls, 1)
			return PacketRateMeasurement{PacketsPerSecond: 150, Timestamp: time.Now()}, nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	if atomic.LoadInt32(&calls) == 0 {
		t.Fatal("expected Measure to be called at least once")
	}
	if m.State() != Overloaded {
		t.Fatalf("expected manager to transition to Overloaded, got %v", m.State())
	}
}
