package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/PavanKumar06/stackoverflow-client/internal/realtime"
)

// Hub fans broadcast frames out to every connected stream subscriber. Slow
// subscribers are skipped rather than blocking the broadcast.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int64]*hubSubscriber
	nextID      int64
	bufferSize  int
}

type hubSubscriber struct {
	id     int64
	stream chan realtime.Frame
}

// NewHub constructs an empty broadcast hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int64]*hubSubscriber),
		bufferSize:  16,
	}
}

// Subscribe registers a stream and returns its frame channel plus a cleanup
// function. The subscription is also released when ctx is cancelled.
func (h *Hub) Subscribe(ctx context.Context) (<-chan realtime.Frame, func()) {
	subscriber := &hubSubscriber{
		id:     h.nextSequence(),
		stream: make(chan realtime.Frame, h.bufferSize),
	}
	h.mu.Lock()
	h.subscribers[subscriber.id] = subscriber
	h.mu.Unlock()

	cleanup := func() {
		h.mu.Lock()
		delete(h.subscribers, subscriber.id)
		h.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

// Broadcast marshals the payload and delivers the frame to every subscriber.
func (h *Hub) Broadcast(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame := realtime.Frame{Event: event, Data: data}

	h.mu.RLock()
	copies := make([]*hubSubscriber, 0, len(h.subscribers))
	for _, subscriber := range h.subscribers {
		copies = append(copies, subscriber)
	}
	h.mu.RUnlock()

	for _, subscriber := range copies {
		select {
		case subscriber.stream <- frame:
		default:
		}
	}
	return nil
}

func (h *Hub) nextSequence() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	return h.nextID
}
