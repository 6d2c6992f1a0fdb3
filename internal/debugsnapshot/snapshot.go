// Package debugsnapshot produces the read-consistent JSON projection of
// bridge state (component F): an ordered map describing shutdown state,
// load management, and either the whole conference set or one conference,
// without ever deferring a conference's expiry as a side effect of the
// read.
package debugsnapshot

import (
	"time"

	"github.com/meshcall/bridgectl/internal/conference"
	"github.com/meshcall/bridgectl/internal/loadmanager"
)

// ConferenceLookup is the narrow read-only view debugsnapshot needs from
// the registry. It is satisfied by *registry.Registry; kept as an
// interface here so debugsnapshot never imports registry (registry
// already imports conference and eventbus, and importing it back from
// here would add a dependency debugsnapshot doesn't otherwise need).
type ConferenceLookup interface {
	GetByID(id conference.ID) conference.Conference
	List() []conference.Conference
}

// ShutdownState is the narrow view debugsnapshot needs from the shutdown
// coordinator.
type ShutdownState interface {
	IsGraceful() bool
}

// Gauges is the narrow view debugsnapshot needs from the stats surface.
type Gauges interface {
	GetBridgeJitter() float64
}

// Snapshot produces the full debug snapshot. If conferenceID is nil, the
// conferences entry is a shallow map of every live conference's
// projection. If conferenceID is non-nil and not found, the conferences
// entry holds the literal string "null" under that id. Otherwise it holds
// the full projection for that one conference, optionally scoped to
// endpointID.
func Snapshot(reg ConferenceLookup, sd ShutdownState, lm *loadmanager.Manager, gauges Gauges, conferenceID *conference.ID, endpointID *string) *OrderedMap {
	out := NewOrderedMap()
	out.Set("shutdownInProgress", sd != nil && sd.IsGraceful())
	out.Set("time", time.Now().UnixMilli())
	out.Set("loadManagement", loadManagementMap(lm))
	out.Set("bridgeJitter", gaugeValue(gauges))
	out.Set("conferences", conferencesEntry(reg, conferenceID, endpointID))
	return out
}

func loadManagementMap(lm *loadmanager.Manager) *OrderedMap {
	m := NewOrderedMap()
	if lm == nil {
		m.Set("state", loadmanager.Normal.String())
		return m
	}
	m.Set("state", lm.State().String())
	return m
}

func gaugeValue(gauges Gauges) float64 {
	if gauges == nil {
		return 0
	}
	return gauges.GetBridgeJitter()
}

func conferencesEntry(reg ConferenceLookup, conferenceID *conference.ID, endpointID *string) any {
	if conferenceID == nil {
		shallow := NewOrderedMap()
		for _, c := range reg.List() {
			shallow.Set(string(c.ID()), shallowProjection(c))
		}
		return shallow
	}

	c := reg.GetByID(*conferenceID)
	if c == nil {
		return "null"
	}
	return fullProjection(c, endpointID)
}

// shallowProjection is the per-conference entry used in the whole-bridge
// listing: identity fields only, no endpoint detail.
func shallowProjection(c conference.Conference) *OrderedMap {
	m := NewOrderedMap()
	m.Set("id", string(c.ID()))
	if mid, ok := c.MeetingID(); ok {
		m.Set("meetingId", string(mid))
	}
	if name, ok := c.Name(); ok {
		m.Set("name", name)
	}
	m.Set("gid", c.GID())
	m.Set("expired", c.Expired())
	return m
}

// fullProjection is the detailed per-conference entry returned when a
// specific conference id is requested, optionally scoped to one endpoint.
// Endpoint-level detail is outside this module's scope (spec.md §1
// Non-goals: media-plane internals), so endpointID only narrows which
// identity fields are echoed back, matching the contract shape without
// inventing endpoint data the core doesn't hold.
func fullProjection(c conference.Conference, endpointID *string) *OrderedMap {
	m := shallowProjection(c)
	flags := c.Flags()
	m.Set("rtcStatsEnabled", flags.RTCStatsEnabled)
	m.Set("callStatsEnabled", flags.CallStatsEnabled)
	if endpointID != nil {
		m.Set("endpointId", *endpointID)
	}
	return m
}
