package bus

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one game event, e.g. produced by an emitEvent behavior action.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	Timestamp time.Time      `json:"ts"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with a fresh id and the current time.
func NewEvent(typ, source string, data map[string]any) Event {
	return Event{ID: uuid.NewString(), Type: typ, Source: source, Timestamp: time.Now(), Data: data}
}

// Handler receives published events. Handlers run synchronously on the
// publisher's goroutine and must not block.
type Handler func(Event)

// Bus is a thread-safe in-memory event bus. Subscribing to the empty type
// receives every event.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[string]Handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string]map[string]Handler)}
}

// Subscribe registers a handler for an event type and returns its
// cancel function.
func (b *Bus) Subscribe(eventType string, h Handler) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[string]Handler)
	}
	id := uuid.NewString()
	b.subs[eventType][id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[eventType], id)
	}
}

// Publish delivers the event to type subscribers and wildcard subscribers.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[ev.Type])+len(b.subs[""]))
	for _, h := range b.subs[ev.Type] {
		handlers = append(handlers, h)
	}
	if ev.Type != "" {
		for _, h := range b.subs[""] {
			handlers = append(handlers, h)
		}
	}
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}
