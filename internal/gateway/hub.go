package gateway

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TCSthecoder/Scraper/internal/hub"
	"github.com/TCSthecoder/Scraper/internal/model"
)

// Hub manages WebSocket clients and fans each poll cycle's update out to
// them. Updates arrive over an in-process subscription; delivery to clients
// is best-effort — when a client's queue is full the frame is dropped
// rather than stalling everyone else.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]bool
	latest   []byte // last cycle envelope, replayed to newly connected clients
	latestTS time.Time
	seq      int64

	// OnClientCount is invoked with the new total after connect/disconnect.
	OnClientCount func(n int)

	// OnDrop is invoked when a frame is dropped for a slow client.
	OnDrop func()
}

// NewHub creates an empty client registry.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]bool)}
}

// Run consumes cycle updates from sub and broadcasts them until ctx is
// cancelled or the subscription is closed.
func (h *Hub) Run(ctx context.Context, sub *hub.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-sub.C:
			if !ok {
				return
			}
			h.BroadcastUpdate(u)
		}
	}
}

// updateEnvelope is the WS frame pushed after each successful cycle.
type updateEnvelope struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq"`
	model.Update
}

// BroadcastUpdate wraps u in an envelope and sends it to every client.
func (h *Hub) BroadcastUpdate(u model.Update) {
	h.mu.Lock()
	h.seq++
	env := updateEnvelope{Type: "update", Seq: h.seq, Update: u}
	data, err := json.Marshal(env)
	if err != nil {
		h.mu.Unlock()
		log.Printf("[gateway] envelope marshal error: %v", err)
		return
	}
	h.latest = data
	h.latestTS = u.CycleTS
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			if h.OnDrop != nil {
				h.OnDrop()
			}
		}
	}
	h.mu.Unlock()
}

// HandleWSRequest registers an upgraded connection and starts its pumps.
// The client immediately receives the most recent cycle envelope, if any.
func (h *Hub) HandleWSRequest(conn *websocket.Conn) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[client] = true
	if h.latest != nil {
		client.send <- h.latest
	}
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("[gateway] ws client connected (%d total)", count)
	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}

	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub and closes its queue.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}
	close(c.send)
	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// LatestEnvelope returns the last broadcast frame, or nil before the first
// successful cycle.
func (h *Hub) LatestEnvelope() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// LastCycleTS returns the timestamp of the newest broadcast cycle, zero
// before the first one. The health endpoint reports it.
func (h *Hub) LastCycleTS() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latestTS
}
