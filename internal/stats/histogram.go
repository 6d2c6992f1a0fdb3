package stats

import "sync/atomic"

// EnergyBucketCount is the number of fixed buckets in the discarded-audio
// energy histogram. No corpus dependency offers a histogram type, so this
// is a small hand-rolled fixed-bucket counter array rather than a pulled-in
// metrics library sized for a much larger surface than one gauge needs.
const EnergyBucketCount = 10

// EnergyHistogram records discarded-audio energy scores into fixed
// buckets spanning [0,1). The zero value is ready to use.
type EnergyHistogram struct {
	buckets [EnergyBucketCount]atomic.Int64
}

// Observe records a single energy score, clamped into [0,1) before
// bucketing.
func (h *EnergyHistogram) Observe(score float64) {
	if score < 0 {
		score = 0
	}
	if score >= 1 {
		score = 1 - 1e-9
	}
	idx := int(score * EnergyBucketCount)
	h.buckets[idx].Add(1)
}

// Snapshot returns a copy of the current bucket counts.
func (h *EnergyHistogram) Snapshot() [EnergyBucketCount]int64 {
	var out [EnergyBucketCount]int64
	for i := range h.buckets {
		out[i] = h.buckets[i].Load()
	}
	return out
}
