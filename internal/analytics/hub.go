package analytics

import (
	"context"
	"sync"

	"github.com/TimurManjosov/odegate/internal/telemetry"
)

const subscriberBuffer = 64

// Hub fans events out to in-process subscribers. A subscriber that is not
// keeping up misses events instead of blocking publishers.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a listener and returns its channel and an unsubscribe
// func. The channel is closed on unsubscribe or when the hub closes; calling
// unsubscribe more than once is harmless. A closed hub hands out channels
// that are already closed.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	telemetry.AnalyticsClients.Inc()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.remove(ch)
		})
	}
	return ch, unsub
}

// Close closes every subscriber channel so long-lived listeners return, and
// refuses new subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		h.remove(ch)
	}
}

// remove drops ch if it is still registered. Callers hold h.mu.
func (h *Hub) remove(ch chan Event) {
	if _, ok := h.subs[ch]; !ok {
		return
	}
	delete(h.subs, ch)
	close(ch)
	telemetry.AnalyticsClients.Dec()
}

// Subscribers returns the number of registered listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish delivers ev to every subscriber without blocking. It never fails.
func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			telemetry.AnalyticsDropped.Inc()
		}
	}
	return nil
}
