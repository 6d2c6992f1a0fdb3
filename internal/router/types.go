// Package router implements the request router (component B): it parses
// the two signalling dialects, resolves or creates the target conference
// against the registry, converts internal errors into dialect-specific
// protocol replies, and hands off successfully resolved requests to the
// target conference's own ingress queue.
package router

import (
	"github.com/meshcall/bridgectl/internal/conference"
)

// Dialect distinguishes the two signalling protocol versions the router
// accepts.
type Dialect int

const (
	V1 Dialect = iota
	V2
)

// V1Request is the legacy dialect-v1 envelope: conference{id?, meeting-id?,
// name?, gid?, rtcstats-enabled?, callstats-enabled?} plus opaque payload.
type V1Request struct {
	RequestID string

	ID        conference.ID
	HasID     bool
	MeetingID conference.MeetingID
	HasMID    bool
	Name      string
	HasName   bool
	GID       int64
	HasGID    bool

	Flags conference.FeatureFlags

	// Payload is the opaque channel/content descriptor content the core
	// never interprets.
	Payload any
}

// V2Request is the dialect-v2 envelope: conference-modify{meeting-id,
// create, name?, rtcstats-enabled?, callstats-enabled?}.
type V2Request struct {
	RequestID string

	MeetingID conference.MeetingID
	Create    bool
	Name      string
	HasName   bool

	Flags conference.FeatureFlags

	Payload any
}

// Condition is a protocol-level error condition code, shared vocabulary
// across both dialects though the mapping from Kind differs per dialect.
type Condition string

const (
	CondBadRequest       Condition = "bad_request"
	CondItemNotFound     Condition = "item_not_found"
	CondConflict         Condition = "conflict"
	CondGracefulShutdown Condition = "graceful-shutdown"
	CondInternalError    Condition = "internal_server_error"
)

// Reason is a dialect-v2 structured reason extension, absent from v1
// replies and from some v2 conditions.
type Reason string

const (
	ReasonNone                    Reason = ""
	ReasonConferenceNotFound      Reason = "CONFERENCE_NOT_FOUND"
	ReasonConferenceAlreadyExists Reason = "CONFERENCE_ALREADY_EXISTS"
)

// Reply is a successful routing outcome: the request was resolved to a
// conference and (for the async path) handed off to its queue, or (for the
// sync path) processed inline.
type Reply struct {
	RequestID    string
	ConferenceID conference.ID
	Value        any // conference.Reply.Value for the sync path; nil for async
}

// ErrorReply is an unsuccessful routing outcome encoded for wire delivery.
type ErrorReply struct {
	RequestID string
	Condition Condition
	Reason    Reason
	Text      string
}

func (e *ErrorReply) Error() string { return e.Text }
