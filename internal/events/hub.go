// Package events fans studio notifications out to server-sent event streams.
package events

import (
	"sync"
)

// Event types published on a studio topic.
const (
	TypeSnapshot = "snapshot"
	TypeAuth     = "auth"
)

// Event is one server-sent event.
type Event struct {
	Type string
	Data []byte // JSON payload
}

// Hub is an in-memory pub/sub hub keyed by topic.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[chan Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a listener on topic. The returned function removes the
// listener and closes its channel.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[chan Event]struct{})
	}
	h.clients[topic][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients[topic], ch)
			if len(h.clients[topic]) == 0 {
				delete(h.clients, topic)
			}
			close(ch)
			h.mu.Unlock()
		})
	}

	return ch, unsub
}

// Publish sends event to every subscriber of topic without blocking. When a
// subscriber's buffer is full its oldest pending event is dropped, so the
// latest event always reaches it.
func (h *Hub) Publish(topic string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.clients[topic] {
		select {
		case ch <- event:
			continue
		default:
		}

		select {
		case <-ch:
		default:
		}
		// only publishers send and they hold h.mu, so there is room now
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers returns the number of listeners on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[topic])
}
