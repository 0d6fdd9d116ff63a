package session

import (
	"sync"

	"go.uber.org/zap"
)

// EventType names what an Event carries.
type EventType string

const (
	EventState        EventType = "state"
	EventNotification EventType = "notification"
	EventPlay         EventType = "play"
)

// Event is pushed to every subscriber of a session.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

const subscriberBuffer = 32

// Hub fans events out to subscribers. Slow subscribers lose events rather
// than stall the publisher.
type Hub struct {
	logger *zap.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{logger: logger, subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The returned cancel func must be called
// once the listener is done; it closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Warn("dropping event for slow subscriber", zap.Int("subscriber", id), zap.String("type", string(ev.Type)))
		}
	}
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Subscribers returns the current number of listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
