package realtime

import (
	"encoding/json"
	"sort"
	"sync"
)

// Handler consumes the raw payload of a named event.
type Handler func(data json.RawMessage)

// Bus routes named events from the live channel to registered handlers.
// Subscription is by event name plus handler identity: each On call yields an
// independent Subscription, and cancelling one never disturbs another
// subscriber of the same event. Handlers run synchronously on the publishing
// goroutine; the socket reader is the only publisher in normal operation, so
// no two handler executions for the same stream ever interleave.
type Bus struct {
	mu       sync.Mutex
	handlers map[string]map[int64]Handler
	nextID   int64
}

// Subscription identifies one registered handler on the bus.
type Subscription struct {
	bus   *Bus
	event string
	id    int64
}

// NewBus constructs an empty event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string]map[int64]Handler),
	}
}

// On registers a handler for the named event and returns its subscription.
// A nil handler yields an inert subscription that is safe to cancel.
func (b *Bus) On(event string, handler Handler) *Subscription {
	if event == "" || handler == nil {
		return &Subscription{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	if _, ok := b.handlers[event]; !ok {
		b.handlers[event] = make(map[int64]Handler)
	}
	b.handlers[event][b.nextID] = handler
	return &Subscription{bus: b, event: event, id: b.nextID}
}

// Publish delivers the payload to every handler registered for the event, in
// registration order.
func (b *Bus) Publish(event string, data json.RawMessage) {
	b.mu.Lock()
	registered := b.handlers[event]
	if len(registered) == 0 {
		b.mu.Unlock()
		return
	}
	ids := make([]int64, 0, len(registered))
	for id := range registered {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, registered[id])
	}
	b.mu.Unlock()

	for _, handler := range handlers {
		handler(data)
	}
}

// Cancel removes exactly this subscription's handler. Cancelling twice, or
// cancelling an inert subscription, is a no-op.
func (s *Subscription) Cancel() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.mu.Lock()
	registered := s.bus.handlers[s.event]
	if registered != nil {
		delete(registered, s.id)
		if len(registered) == 0 {
			delete(s.bus.handlers, s.event)
		}
	}
	s.bus.mu.Unlock()
	s.bus = nil
}
