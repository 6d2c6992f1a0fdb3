package loadmanager

import (
	"sync/atomic"

	"github.com/meshcall/bridgectl/internal/conference"
	"github.com/meshcall/bridgectl/internal/stats"
)

// LoadState is Normal or Overloaded.
type LoadState int32

const (
	Normal LoadState = iota
	Overloaded
)

func (s LoadState) String() string {
	if s == Overloaded {
		return "overloaded"
	}
	return "normal"
}

// Reducer sheds load across the live conference set, e.g. by lowering the
// maximum number of simultaneously forwarded video streams per receiver.
type Reducer func(conferences []conference.Conference)

// ConferenceLister returns the current live conference set, consulted only
// when entering Overloaded.
type ConferenceLister func() []conference.Conference

// Manager holds the hysteresis Normal/Overloaded state machine of
// spec.md §4.D.
type Manager struct {
	state atomic.Int32

	loadedThreshold   float64
	recoveryThreshold float64

	reducer Reducer
	lister  ConferenceLister
	counters *stats.Counters
}

// ManagerParams configures a Manager.
type ManagerParams struct {
	LoadedThreshold   float64
	RecoveryThreshold float64
	Reducer           Reducer
	Lister            ConferenceLister
	Counters          *stats.Counters
}

// NewManager constructs a Manager in the Normal state.
func NewManager(p ManagerParams) *Manager {
	return &Manager{
		loadedThreshold:   p.LoadedThreshold,
		recoveryThreshold: p.RecoveryThreshold,
		reducer:           p.Reducer,
		lister:            p.Lister,
		counters:          p.Counters,
	}
}

// State returns the current load state.
func (m *Manager) State() LoadState {
	return LoadState(m.state.Load())
}

// Observe feeds a new measurement through the hysteresis transition and
// publishes the stress level computed from this one sample into stats.
func (m *Manager) Observe(sample PacketRateMeasurement) {
	current := LoadState(m.state.Load())

	switch current {
	case Normal:
		if sample.PacketsPerSecond > m.loadedThreshold {
			if m.state.CompareAndSwap(int32(Normal), int32(Overloaded)) {
				m.onOverload()
			}
		}
	case Overloaded:
		if sample.PacketsPerSecond < m.recoveryThreshold {
			m.state.CompareAndSwap(int32(Overloaded), int32(Normal))
		}
	}

	if m.counters != nil {
		m.counters.SetStressLevel(m.stressLevel(sample.PacketsPerSecond))
	}
}

func (m *Manager) onOverload() {
	if m.reducer == nil || m.lister == nil {
		return
	}
	m.reducer(m.lister())
}

// stressLevel computes a [0,1] scalar as the raw sample divided by the
// loaded threshold, clamped at the extremes. It is not smoothed: each call
// depends only on the current sample, not on earlier ones.
func (m *Manager) stressLevel(packetsPerSecond float64) float64 {
	if m.loadedThreshold <= 0 {
		return 0
	}
	level := packetsPerSecond / m.loadedThreshold
	if level < 0 {
		return 0
	}
	if level > 1 {
		return 1
	}
	return level
}
