// Package bridge wires the conference registry, request router, shutdown
// coordinator, load manager, event bus, stats, and debug snapshot into a
// single top-level object: the "one struct owns everything" shape the
// corpus uses for its own process-lifetime server object.
package bridge

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/meshcall/bridgectl/internal/bufferpool"
	"github.com/meshcall/bridgectl/internal/conference"
	"github.com/meshcall/bridgectl/internal/config"
	"github.com/meshcall/bridgectl/internal/debugsnapshot"
	"github.com/meshcall/bridgectl/internal/eventbus"
	"github.com/meshcall/bridgectl/internal/idgen"
	"github.com/meshcall/bridgectl/internal/loadmanager"
	"github.com/meshcall/bridgectl/internal/queuestats"
	"github.com/meshcall/bridgectl/internal/registry"
	"github.com/meshcall/bridgectl/internal/router"
	"github.com/meshcall/bridgectl/internal/shutdown"
	"github.com/meshcall/bridgectl/internal/stats"
)

// Bridge is the top-level process object (component-map §8).
type Bridge struct {
	cfg    *config.Config
	logger *slog.Logger

	Registry   *registry.Registry
	Router     *router.Router
	Shutdown   *shutdown.Coordinator
	LoadMgr    *loadmanager.Manager
	sampler    *loadmanager.Sampler
	Events     *eventbus.Bus
	Stats      *stats.Counters
	Queues     *queuestats.Registry
	pool       bufferpool.Adapter

	drainMode atomic.Bool

	samplerCancel context.CancelFunc
	sweepCancel   context.CancelFunc
	wg            sync.WaitGroup
}

// Params configures a new Bridge.
type Params struct {
	Config       *config.Config
	Logger       *slog.Logger
	BufferPool   bufferpool.Adapter
	MeasureFunc  loadmanager.MeasureFunc
	ConferenceFactory registry.Factory // defaults to the reference conference.New-backed factory
	Clock        idgen.Clock
	Rng          idgen.Rng
}

// New constructs a Bridge and wires its components together, but does not
// start any background task; call Start for that.
func New(p Params) *Bridge {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	events := eventbus.New(logger)
	counters := stats.NewCounters()
	queues := queuestats.NewRegistry()

	factory := p.ConferenceFactory
	if factory == nil {
		factory = defaultFactory
	}

	clock := p.Clock
	if clock == nil {
		clock = idgen.SystemClock{}
	}
	rng := p.Rng
	if rng == nil {
		rng = idgen.SystemRng{}
	}

	reg := registry.New(clock, rng, events, factory)

	b := &Bridge{
		cfg:     p.Config,
		logger:  logger,
		Registry: reg,
		Events:  events,
		Stats:   counters,
		Queues:  queues,
		pool:    p.BufferPool,
	}

	b.Shutdown = shutdown.New(shutdown.Params{
		MinAnnouncementWindow: p.Config.MinAnnouncementWindow,
		ForceExitDelay:        p.Config.ForceExitDelay,
		ConferenceCount:       reg.Count,
		BeginShutdown:         b.beginShutdown,
		Logger:                logger,
	})
	reg.OnExpire(func(conference.Conference) { b.Shutdown.NotifyConferenceExpired() })

	b.LoadMgr = loadmanager.NewManager(loadmanager.ManagerParams{
		LoadedThreshold:   p.Config.LoadedThreshold,
		RecoveryThreshold: p.Config.RecoveryThreshold,
		Reducer:           b.reduceLastN,
		Lister:            reg.List,
		Counters:          counters,
	})

	measure := p.MeasureFunc
	if measure == nil {
		measure = b.defaultMeasure
	}
	b.sampler = loadmanager.NewSampler(loadmanager.SamplerParams{
		Interval: p.Config.SampleInterval,
		Measure:  measure,
		Manager:  b.LoadMgr,
		Logger:   logger,
	})

	b.Router = router.New(reg, b.Shutdown)
	b.drainMode.Store(p.Config.DrainMode)

	return b
}

func defaultFactory(id conference.ID, p registry.CreateParams) conference.Conference {
	return conference.New(conference.Params{
		ID:        id,
		MeetingID: p.MeetingID,
		HasMID:    p.HasMeetingID,
		GID:       p.GID,
		Name:      p.Name,
		HasName:   p.HasName,
		Flags:     conference.FeatureFlags{RTCStatsEnabled: p.RTCStatsEnabled, CallStatsEnabled: p.CallStatsEnabled},
	})
}

// defaultMeasure is a placeholder measurement source that always reports
// zero load; a real deployment supplies MeasureFunc from the media-plane
// transport layer, which is outside this module's scope.
func (b *Bridge) defaultMeasure(_ context.Context) (loadmanager.PacketRateMeasurement, error) {
	return loadmanager.PacketRateMeasurement{PacketsPerSecond: 0, Timestamp: time.Now()}, nil
}

// reduceLastN is the overload reducer: lowering the maximum number of
// simultaneously forwarded video streams per receiver is a media-plane
// concern this module doesn't implement (spec.md §1 Non-goals), so this
// only logs the shedding decision for now.
func (b *Bridge) reduceLastN(live []conference.Conference) {
	b.logger.Warn("loadmanager: entering overloaded state, shedding last-N", "liveConferences", len(live))
}

func (b *Bridge) beginShutdown() {
	b.logger.Info("bridge: beginShutdown invoked")
}

// Start installs the buffer pool adapter and starts the expiration sweeper
// and the load sampler (spec.md §6 "start() installs protocol providers and
// starts the expiration sweeper thread"; protocol-provider installation
// itself is the signalling transport's concern, outside this module).
func (b *Bridge) Start(ctx context.Context) error {
	bufferpool.Install(b.pool)

	sweepCtx, sweepCancel := context.WithCancel(ctx)
	b.sweepCancel = sweepCancel
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.runSweeper(sweepCtx)
	}()

	if b.cfg.NATSURL != "" {
		nc, err := nats.Connect(b.cfg.NATSURL)
		if err == nil {
			if js, jerr := nc.JetStream(); jerr == nil {
				b.Events.SetJetStream(js)
			} else {
				b.logger.Warn("bridge: failed to acquire JetStream context", "error", jerr)
			}
		} else {
			b.logger.Warn("bridge: failed to connect to NATS", "url", b.cfg.NATSURL, "error", err)
		}
	}

	sctx, cancel := context.WithCancel(ctx)
	b.samplerCancel = cancel
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.sampler.Run(sctx)
	}()

	return nil
}

// Stop stops the expiration sweeper and the load sampler, and waits for
// both to exit.
func (b *Bridge) Stop() {
	if b.sweepCancel != nil {
		b.sweepCancel()
	}
	if b.samplerCancel != nil {
		b.samplerCancel()
	}
	b.wg.Wait()
}

// runSweeper ticks at cfg.SweepInterval, expiring conferences that have
// exceeded cfg.IdleTimeout, until ctx is cancelled. Adapted from the
// teacher's startDecisionSweeper/sweepExpiredDecisions ticker shape.
func (b *Bridge) runSweeper(ctx context.Context) {
	interval := b.cfg.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if swept := b.Registry.SweepIdle(b.cfg.IdleTimeout); swept > 0 {
				b.logger.Info("bridge: expiration sweeper expired idle conferences", "count", swept)
			}
		}
	}
}

// RequestShutdown drives the shutdown coordinator per spec.md §4.C.
func (b *Bridge) RequestShutdown(graceful bool) {
	if graceful {
		b.Shutdown.RequestGraceful()
		return
	}
	b.Shutdown.RequestForce()
}

// SetDrainMode toggles the advisory drain flag.
func (b *Bridge) SetDrainMode(v bool) { b.drainMode.Store(v) }

// GetDrainMode reports the advisory drain flag.
func (b *Bridge) GetDrainMode() bool { return b.drainMode.Load() }

// DebugSnapshot produces the read-consistent debug projection, with the
// advisory drain flag added under "drainMode".
func (b *Bridge) DebugSnapshot(conferenceID *conference.ID, endpointID *string) *debugsnapshot.OrderedMap {
	snap := debugsnapshot.Snapshot(b.Registry, b.Shutdown, b.LoadMgr, b.Stats, conferenceID, endpointID)
	snap.Set("drainMode", b.GetDrainMode())
	return snap
}
