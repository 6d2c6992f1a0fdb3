// Package stats holds the bridge's statistics surface: a fixed set of
// monotone counters and a few gauges, updated with lock-free atomics so
// hot paths never contend on a mutex just to bump a counter. This mirrors
// the counter-map-plus-atomics shape the corpus uses for request metrics,
// specialized to a closed, named set of fields rather than a dynamic map
// since the statistics surface here (spec.md §6) is fully enumerated.
package stats

import "sync/atomic"

// Counters holds every monotone counter and gauge the bridge publishes.
// The zero value is ready to use.
type Counters struct {
	ConferencesCreated   atomic.Int64
	ConferencesCompleted atomic.Int64
	ConferencesFailed    atomic.Int64
	ConferencesPartiallyFailed atomic.Int64
	TotalConferenceSeconds atomic.Int64

	MediaBytesReceived   atomic.Int64
	MediaBytesSent       atomic.Int64
	MediaPacketsReceived atomic.Int64
	MediaPacketsSent     atomic.Int64
	RelayBytesReceived   atomic.Int64
	RelayBytesSent       atomic.Int64
	RelayPacketsReceived atomic.Int64
	RelayPacketsSent     atomic.Int64

	EndpointsCreated atomic.Int64
	RelaysCreated    atomic.Int64

	ICESucceeded        atomic.Int64
	ICEFailed           atomic.Int64
	ICESucceededTCP     atomic.Int64
	ICESucceededRelayed atomic.Int64

	DominantSpeakerChanges atomic.Int64

	KeyframesReceived           atomic.Int64
	PreemptiveKeyframesSent     atomic.Int64
	PreemptiveKeyframesSuppressed atomic.Int64

	LossControlledParticipantMillis atomic.Int64
	LossLimitedParticipantMillis    atomic.Int64
	LossDegradedParticipantMillis   atomic.Int64

	DataChannelMessages atomic.Int64
	WebsocketMessages   atomic.Int64

	// Gauges
	StressLevel  atomic.Value // float64
	BridgeJitter atomic.Value // float64
}

// NewCounters returns a ready-to-use Counters with gauges initialized to 0.
func NewCounters() *Counters {
	c := &Counters{}
	c.StressLevel.Store(float64(0))
	c.BridgeJitter.Store(float64(0))
	return c
}

// SetStressLevel publishes the latest smoothed stress level. Called by the
// load manager after each sample.
func (c *Counters) SetStressLevel(v float64) { c.StressLevel.Store(v) }

// GetStressLevel returns the most recently published stress level.
func (c *Counters) GetStressLevel() float64 { v, _ := c.StressLevel.Load().(float64); return v }

// SetBridgeJitter publishes the bridge-wide jitter gauge.
func (c *Counters) SetBridgeJitter(v float64) { c.BridgeJitter.Store(v) }

// GetBridgeJitter returns the most recently published bridge-wide jitter.
func (c *Counters) GetBridgeJitter() float64 { v, _ := c.BridgeJitter.Load().(float64); return v }
