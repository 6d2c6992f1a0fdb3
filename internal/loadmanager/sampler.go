// Package loadmanager implements the load sampler and load manager
// (component D): a periodic packet-rate sample feeds a hysteresis
// Normal/Overloaded state machine that sheds load by lowering the
// forwarding fan-out when the bridge is saturated.
package loadmanager

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// PacketRateMeasurement is a single whole-bridge packet-rate sample.
type PacketRateMeasurement struct {
	PacketsPerSecond float64
	Timestamp        time.Time
}

// MeasureFunc collects one PacketRateMeasurement.
type MeasureFunc func(ctx context.Context) (PacketRateMeasurement, error)

const defaultSampleInterval = 10 * time.Second

// Sampler runs MeasureFunc on a fixed tick and feeds each measurement to a
// Manager. On a measurement error it backs off exponentially instead of
// retrying at the fixed tick rate, so a struggling measurement source
// doesn't get hammered every tick.
type Sampler struct {
	interval time.Duration
	measure  MeasureFunc
	manager  *Manager
	logger   *slog.Logger

	newBackoff func() backoff.BackOff
}

// SamplerParams configures a Sampler.
type SamplerParams struct {
	Interval time.Duration // defaults to 10s
	Measure  MeasureFunc
	Manager  *Manager
	Logger   *slog.Logger
}

// NewSampler constructs a Sampler. It does not start sampling until Run is
// called.
func NewSampler(p SamplerParams) *Sampler {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultSampleInterval
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		interval: interval,
		measure:  p.Measure,
		manager:  p.Manager,
		logger:   logger,
		newBackoff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.MaxElapsedTime = 0 // retry until ctx is cancelled
			return bo
		},
	}
}

// Run samples at the configured interval until ctx is cancelled. It is
// meant to run on its own goroutine; Run blocks until ctx.Done().
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sampleOnce(ctx)
		}
	}
}

func (s *Sampler) sampleOnce(ctx context.Context) {
	bo := backoff.WithContext(s.newBackoff(), ctx)

	m, err := backoff.RetryWithData(func() (PacketRateMeasurement, error) {
		m, err := s.measure(ctx)
		if err != nil {
			s.logger.Warn("loadmanager: sample failed, backing off", "error", err)
			return PacketRateMeasurement{}, err
		}
		return m, nil
	}, bo)
	if err != nil {
		s.logger.Warn("loadmanager: giving up on this sample", "error", err)
		return
	}

	if s.manager != nil {
		s.manager.Observe(m)
	}
}
