package router

import (
	"context"
	"fmt"

	"github.com/meshcall/bridgectl/internal/conference"
	"github.com/meshcall/bridgectl/internal/registry"
)

// GID sentinel for conferences created via dialect v2, which has no gid
// concept of its own (spec.md §6: "gid ... opaque to the core").
const DialectV2GID = conference.NoGID

// ShutdownState is the narrow view of the shutdown coordinator the router
// needs for admission decisions, kept separate from internal/shutdown to
// avoid a package cycle (the coordinator does not depend on the router).
type ShutdownState interface {
	IsGraceful() bool
}

// Router is the request router (component B). The zero value is not
// usable; construct with New.
type Router struct {
	registry *registry.Registry
	shutdown ShutdownState
}

// New constructs a Router over reg, consulting shutdown for admission
// decisions.
func New(reg *registry.Registry, shutdown ShutdownState) *Router {
	return &Router{registry: reg, shutdown: shutdown}
}

// RouteV1 resolves req against the registry and hands the request off to
// the target conference's ingress queue. When resolution or the handoff
// fails it returns the encoded error reply; after a successful handoff it
// returns only the routing Reply, since from that point the conference owns
// producing the request's reply.
func (r *Router) RouteV1(ctx context.Context, req V1Request) (*Reply, *ErrorReply) {
	c, rerr := r.resolveV1(ctx, req)
	if rerr != nil {
		return nil, rerr
	}

	if err := c.Enqueue(conference.Request{RequestID: req.RequestID, Source: req}); err != nil {
		return nil, encodeV1(errNotFound(fmt.Sprintf("Conference not found for ID: %s", c.ID())), req.RequestID)
	}
	return &Reply{RequestID: req.RequestID, ConferenceID: c.ID()}, nil
}

// RouteV1Sync is the synchronous variant used by tests: resolution happens
// identically to RouteV1, but the resolved request is processed inline via
// conference.HandleSync instead of being enqueued.
func (r *Router) RouteV1Sync(ctx context.Context, req V1Request) (*Reply, *ErrorReply) {
	c, rerr := r.resolveV1(ctx, req)
	if rerr != nil {
		return nil, rerr
	}

	reply := c.HandleSync(conference.Request{RequestID: req.RequestID, Source: req})
	return &Reply{RequestID: req.RequestID, ConferenceID: c.ID(), Value: reply.Value}, nil
}

func (r *Router) resolveV1(_ context.Context, req V1Request) (conference.Conference, *ErrorReply) {
	if !req.HasID {
		if r.shutdown != nil && r.shutdown.IsGraceful() {
			return nil, encodeV1(errGracefulShutdown("bridge is shutting down gracefully"), req.RequestID)
		}

		c, err := r.registry.Create(context.Background(), registry.CreateParams{
			Name:             req.Name,
			HasName:          req.HasName,
			GID:              req.GID,
			MeetingID:        req.MeetingID,
			HasMeetingID:     req.HasMID,
			RTCStatsEnabled:  req.Flags.RTCStatsEnabled,
			CallStatsEnabled: req.Flags.CallStatsEnabled,
			StrictMeetingID:  false,
		})
		if err != nil {
			return nil, encodeV1(errBadRequest(err.Error()), req.RequestID)
		}
		return c, nil
	}

	c := r.registry.GetByID(req.ID)
	if c == nil {
		return nil, encodeV1(errNotFound(fmt.Sprintf("Conference not found for ID: %s", req.ID)), req.RequestID)
	}
	return c, nil
}

// RouteV2 resolves req against the registry and hands the request off to
// the target conference's ingress queue.
func (r *Router) RouteV2(ctx context.Context, req V2Request) (*Reply, *ErrorReply) {
	c, rerr := r.resolveV2(ctx, req)
	if rerr != nil {
		return nil, rerr
	}

	if err := c.Enqueue(conference.Request{RequestID: req.RequestID, Source: req}); err != nil {
		return nil, encodeV2(errNotFound("conference expired before dispatch"), req.RequestID)
	}
	return &Reply{RequestID: req.RequestID, ConferenceID: c.ID()}, nil
}

// RouteV2Sync is the synchronous variant used by tests.
func (r *Router) RouteV2Sync(ctx context.Context, req V2Request) (*Reply, *ErrorReply) {
	c, rerr := r.resolveV2(ctx, req)
	if rerr != nil {
		return nil, rerr
	}

	reply := c.HandleSync(conference.Request{RequestID: req.RequestID, Source: req})
	return &Reply{RequestID: req.RequestID, ConferenceID: c.ID(), Value: reply.Value}, nil
}

func (r *Router) resolveV2(_ context.Context, req V2Request) (conference.Conference, *ErrorReply) {
	if req.Create {
		if existing := r.registry.GetByMeetingID(req.MeetingID); existing != nil {
			return nil, encodeV2(errAlreadyExists(fmt.Sprintf("conference already exists for meeting id %q", req.MeetingID)), req.RequestID)
		}
		if r.shutdown != nil && r.shutdown.IsGraceful() {
			return nil, encodeV2(errGracefulShutdown("bridge is shutting down gracefully"), req.RequestID)
		}
		if req.HasName && !validJID(req.Name) {
			return nil, encodeV2(errInvalidName(fmt.Sprintf("not a valid conference name: %q", req.Name)), req.RequestID)
		}

		c, err := r.registry.Create(context.Background(), registry.CreateParams{
			Name:             req.Name,
			HasName:          req.HasName,
			GID:              DialectV2GID,
			MeetingID:        req.MeetingID,
			HasMeetingID:     true,
			RTCStatsEnabled:  req.Flags.RTCStatsEnabled,
			CallStatsEnabled: req.Flags.CallStatsEnabled,
			StrictMeetingID:  true,
		})
		if err != nil {
			return nil, encodeV2(errAlreadyExists(err.Error()), req.RequestID)
		}
		return c, nil
	}

	c := r.registry.GetByMeetingID(req.MeetingID)
	if c == nil {
		return nil, encodeV2(errNotFound(fmt.Sprintf("conference not found for meeting id %q", req.MeetingID)), req.RequestID)
	}
	return c, nil
}

// encodeV1 converts an internal Error into its dialect-v1 wire encoding.
// v1 has no reason extensions; every condition collapses to bad_request
// except graceful shutdown, which keeps its own dedicated condition.
func encodeV1(err *Error, requestID string) *ErrorReply {
	cond := CondBadRequest
	if err.Kind == KindGracefulShutdown {
		cond = CondGracefulShutdown
	}
	return &ErrorReply{RequestID: requestID, Condition: cond, Text: err.Msg}
}

// encodeV2 converts an internal Error into its dialect-v2 wire encoding
// per the error-encoding table in spec.md §4.B.
func encodeV2(err *Error, requestID string) *ErrorReply {
	switch err.Kind {
	case KindNotFound:
		return &ErrorReply{RequestID: requestID, Condition: CondItemNotFound, Reason: ReasonConferenceNotFound, Text: err.Msg}
	case KindAlreadyExists:
		return &ErrorReply{RequestID: requestID, Condition: CondConflict, Reason: ReasonConferenceAlreadyExists, Text: err.Msg}
	case KindGracefulShutdown:
		return &ErrorReply{RequestID: requestID, Condition: CondGracefulShutdown, Text: err.Msg}
	default:
		return &ErrorReply{RequestID: requestID, Condition: CondBadRequest, Text: err.Msg}
	}
}
