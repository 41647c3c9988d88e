// Package hub fans the per-cycle snapshot out to connected subscribers.
// Delivery is best-effort and fire-and-forget: each subscriber owns a
// buffered channel and a publish never blocks on a slow or gone consumer.
// There is no replay — a subscriber that joins mid-cycle simply receives
// the next full cycle's update.
package hub

import (
	"sync"

	"github.com/TCSthecoder/Scraper/internal/model"
)

// Subscription is one consumer's handle on the hub.
type Subscription struct {
	C  <-chan model.Update
	ch chan model.Update
}

// Hub is the subscriber registry.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	bufSize int

	// OnDrop is called when an update is dropped for a slow subscriber.
	OnDrop func()
}

// New creates a Hub whose subscriber channels buffer bufSize updates.
func New(bufSize int) *Hub {
	if bufSize < 1 {
		bufSize = 1
	}
	return &Hub{
		subs:    make(map[*Subscription]struct{}),
		bufSize: bufSize,
	}
}

// Subscribe registers a new consumer.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan model.Update, h.bufSize)
	sub := &Subscription{C: ch, ch: ch}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes a consumer and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()
	if ok {
		close(sub.ch)
	}
}

// Publish delivers update to every current subscriber without blocking.
// Publishing with zero subscribers is a no-op.
func (h *Hub) Publish(update model.Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- update:
		default:
			if h.OnDrop != nil {
				h.OnDrop()
			}
		}
	}
}

// SubscriberCount returns the number of registered subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
