// Package eventbus fans out conference lifecycle events to registered
// observers and, optionally, publishes them to NATS JetStream for
// consumption outside this process. Dispatch is synchronous with the
// triggering registry mutation: handlers run on the caller's goroutine and
// must not block on the registry mutex, so events are only ever delivered
// after the registry has already released its lock.
package eventbus

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/meshcall/bridgectl/internal/conference"
)

// EventType distinguishes the two lifecycle events the core emits.
type EventType string

const (
	ConferenceCreated EventType = "conferenceCreated"
	ConferenceExpired EventType = "conferenceExpired"
)

// Event carries a conference lifecycle transition plus delivery metadata.
// DeliveryID lets an external JetStream consumer dedupe republished events.
type Event struct {
	Type       EventType
	Conference conference.Conference
	DeliveryID string
	Timestamp  time.Time
}

// Handler observes lifecycle events. Implementations must not block for
// long or call back into the registry.
type Handler interface {
	ID() string
	Handle(Event)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc struct {
	HandlerID string
	Fn        func(Event)
}

func (h HandlerFunc) ID() string     { return h.HandlerID }
func (h HandlerFunc) Handle(e Event) { h.Fn(e) }

// Emitter is the narrow interface the registry depends on, so it can
// remain agnostic to handler registration and JetStream wiring.
type Emitter interface {
	ConferenceCreated(c conference.Conference)
	ConferenceExpired(c conference.Conference)
}

// Bus is the event emitter (component E, emitter half). The zero value is
// ready to use.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	js       nats.JetStreamContext

	logger *slog.Logger
}

// New creates an empty Bus. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// SetJetStream attaches a JetStream context. When set, Dispatch publishes
// each event after running local handlers; publish errors are logged but
// never propagated, since JetStream is supplementary to local dispatch.
func (b *Bus) SetJetStream(js nats.JetStreamContext) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.js = js
}

// Register adds a handler. Handlers run in registration order.
func (b *Bus) Register(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Unregister removes a handler by id. Returns true if one was removed.
func (b *Bus) Unregister(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, h := range b.handlers {
		if h.ID() == id {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// ConferenceCreated implements Emitter.
func (b *Bus) ConferenceCreated(c conference.Conference) {
	b.dispatch(Event{Type: ConferenceCreated, Conference: c, DeliveryID: uuid.NewString(), Timestamp: time.Now()})
}

// ConferenceExpired implements Emitter.
func (b *Bus) ConferenceExpired(c conference.Conference) {
	b.dispatch(Event{Type: ConferenceExpired, Conference: c, DeliveryID: uuid.NewString(), Timestamp: time.Now()})
}

func (b *Bus) dispatch(event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	js := b.js
	b.mu.RUnlock()

	for _, h := range handlers {
		h.Handle(event)
	}

	if js != nil {
		b.publishToJetStream(js, event)
	}
}

func subjectForEvent(t EventType) string {
	switch t {
	case ConferenceCreated:
		return "bridge.conference.created"
	case ConferenceExpired:
		return "bridge.conference.expired"
	default:
		return "bridge.conference.unknown"
	}
}

type wireEvent struct {
	Type        EventType            `json:"type"`
	ConferenceID conference.ID       `json:"conference_id"`
	DeliveryID  string               `json:"delivery_id"`
	Timestamp   time.Time            `json:"timestamp"`
}

func (b *Bus) publishToJetStream(js nats.JetStreamContext, event Event) {
	payload := wireEvent{
		Type:         event.Type,
		ConferenceID: event.Conference.ID(),
		DeliveryID:   event.DeliveryID,
		Timestamp:    event.Timestamp,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Warn("eventbus: failed to marshal event", "error", err)
		return
	}

	subject := subjectForEvent(event.Type)
	if _, err := js.Publish(subject, data); err != nil {
		b.logger.Warn("eventbus: JetStream publish failed", "subject", subject, "error", err)
	}
}

// Handlers returns a snapshot of registered handlers, for introspection.
func (b *Bus) Handlers() []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Handler, len(b.handlers))
	copy(out, b.handlers)
	return out
}
