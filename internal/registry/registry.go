// Package registry implements the conference registry: the dual-index
// store of live conferences that the router consults and mutates. It holds
// two indices — by local id and by meeting id — under a single mutex so
// the cross-invariant between them (every meeting-id entry must point at
// an entry also reachable by id) never observes a half-updated state.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/meshcall/bridgectl/internal/conference"
	"github.com/meshcall/bridgectl/internal/eventbus"
	"github.com/meshcall/bridgectl/internal/idgen"
)

// ErrAlreadyExists is returned by Create when strictMeetingId is true and
// the meeting id is already held by a live conference.
var ErrAlreadyExists = errors.New("registry: meeting id already exists")

// maxCreateAttempts bounds the id-collision retry loop. Collisions are
// exceedingly unlikely with a 16-byte id space; this only guards against a
// pathological rng/clock test double looping forever.
const maxCreateAttempts = 64

// Factory constructs the concrete Conference for a freshly allocated id.
// The registry owns id allocation and index placement; it delegates
// construction of the conference itself to keep this package free of any
// opinion about conference internals (spec: the core treats conferences as
// opaque).
type Factory func(id conference.ID, p CreateParams) conference.Conference

// CreateParams are the caller-supplied attributes of a new conference.
type CreateParams struct {
	Name             string
	HasName          bool
	GID              int64
	MeetingID        conference.MeetingID
	HasMeetingID     bool
	RTCStatsEnabled  bool
	CallStatsEnabled bool

	// StrictMeetingID requests AlreadyExists semantics on meeting-id
	// collision (dialect v2) instead of legacy silent tolerance (dialect
	// v1 creates without an id).
	StrictMeetingID bool
}

// Registry is the conference registry (component A). The zero value is not
// usable; construct with New.
type Registry struct {
	mu          sync.RWMutex
	byID        map[conference.ID]conference.Conference
	byMeetingID map[conference.MeetingID]conference.Conference

	clock idgen.Clock
	rng   idgen.Rng

	emitter  eventbus.Emitter
	factory  Factory
	expireFn func(conference.Conference) // notifies the shutdown coordinator; set via OnExpire
}

// New constructs an empty Registry. clock/rng drive id generation; emitter
// receives conferenceCreated/conferenceExpired events; factory constructs
// the Conference value for a newly allocated id.
func New(clock idgen.Clock, rng idgen.Rng, emitter eventbus.Emitter, factory Factory) *Registry {
	return &Registry{
		byID:        make(map[conference.ID]conference.Conference),
		byMeetingID: make(map[conference.MeetingID]conference.Conference),
		clock:       clock,
		rng:         rng,
		emitter:     emitter,
		factory:     factory,
	}
}

// OnExpire registers a callback invoked (outside the registry mutex) after
// a conference has been removed from both indices and had Expire() called.
// The shutdown coordinator's NotifyConferenceExpired is the intended
// subscriber.
func (r *Registry) OnExpire(fn func(conference.Conference)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireFn = fn
}

// Create allocates a fresh id, builds the conference via the registry's
// factory, and inserts it into the indices. When p.StrictMeetingID is true
// and p.MeetingID already names a live conference, Create fails with
// ErrAlreadyExists without constructing anything. Otherwise a meeting-id
// collision is tolerated: the new conference is still created and indexed
// by id, but is not placed into byMeetingId (the existing live entry is
// left untouched) -- this is the legacy dialect-v1 behavior spec.md
// documents as intentional.
func (r *Registry) Create(_ context.Context, p CreateParams) (conference.Conference, error) {
	r.mu.Lock()

	if p.HasMeetingID && p.StrictMeetingID {
		if _, exists := r.byMeetingID[p.MeetingID]; exists {
			r.mu.Unlock()
			return nil, ErrAlreadyExists
		}
	}

	var id conference.ID
	for attempt := 0; ; attempt++ {
		if attempt >= maxCreateAttempts {
			r.mu.Unlock()
			return nil, fmt.Errorf("registry: exhausted %d attempts generating a unique id", maxCreateAttempts)
		}
		candidate := conference.ID(idgen.Generate(r.clock, r.rng))
		if _, taken := r.byID[candidate]; !taken {
			id = candidate
			break
		}
	}

	c := r.factory(id, p)
	r.byID[id] = c

	if p.HasMeetingID {
		if _, exists := r.byMeetingID[p.MeetingID]; !exists {
			r.byMeetingID[p.MeetingID] = c
		}
		// Collision with StrictMeetingID=false: the new conference is
		// indexed by id only. The old byMeetingID entry is untouched.
	}

	r.mu.Unlock()

	if r.emitter != nil {
		r.emitter.ConferenceCreated(c)
	}

	return c, nil
}

// GetByID returns the live conference for id, or nil if none exists.
func (r *Registry) GetByID(id conference.ID) conference.Conference {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// GetByMeetingID returns the live conference for mid, or nil if none
// exists. Under the legacy tolerance window this may not be the only live
// conference that was ever associated with mid (see the doc comment on
// Create).
func (r *Registry) GetByMeetingID(mid conference.MeetingID) conference.Conference {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byMeetingID[mid]
}

// List returns an independent snapshot of all live conferences. The slice
// is copied under the registry mutex so callers can iterate freely without
// observing concurrent mutation.
func (r *Registry) List() []conference.Conference {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]conference.Conference, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out
}

// Count returns the number of live conferences.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Expire removes c from both indices, invokes c.Expire() exactly once, and
// emits conferenceExpired. It is idempotent: if c is no longer the live
// entry under its id (already expired, or replaced -- ids are not reused
// while still live), this is a no-op.
func (r *Registry) Expire(c conference.Conference) {
	r.mu.Lock()

	id := c.ID()
	if current, ok := r.byID[id]; !ok || current != c {
		r.mu.Unlock()
		return
	}

	delete(r.byID, id)
	if mid, has := c.MeetingID(); has {
		if current, ok := r.byMeetingID[mid]; ok && current == c {
			delete(r.byMeetingID, mid)
		}
	}

	expireFn := r.expireFn
	r.mu.Unlock()

	c.Expire()

	if r.emitter != nil {
		r.emitter.ConferenceExpired(c)
	}
	if expireFn != nil {
		expireFn(c)
	}
}

// SweepIdle scans a snapshot of live conferences and expires any that
// satisfy conference.IdleTimer and have sat live past timeout. Conferences
// that don't satisfy IdleTimer are left alone -- the registry has no
// opinion about how a non-default Conference implementation manages its
// own lifetime. It returns the number of conferences it expired.
//
// This is the expiration sweeper spec.md's process control section asks
// start()/stop() to run and halt; it is driven by a ticker owned by the
// caller (internal/bridge), the same shape as the teacher's
// startDecisionSweeper/sweepExpiredDecisions pair.
func (r *Registry) SweepIdle(timeout time.Duration) int {
	if timeout <= 0 {
		return 0
	}

	now := time.Now()
	swept := 0
	for _, c := range r.List() {
		idler, ok := c.(conference.IdleTimer)
		if !ok {
			continue
		}
		if now.Sub(idler.CreatedAt()) < timeout {
			continue
		}
		r.Expire(c)
		swept++
	}
	return swept
}
