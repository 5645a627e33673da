package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"cafe/internal/events"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Hub keeps the connected admin consoles and pushes events to them. Delivery
// is best effort: a client whose buffer is full misses the message, and a
// client that connects later never sees earlier events.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	stopped bool
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Broadcast queues msg for every connected client without blocking.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.WithField("userId", c.userID).Debug("Admin client too slow, dropping message")
		}
	}
}

// Publish implements events.Publisher for the clients of this process.
func (h *Hub) Publish(_ context.Context, e events.Event) error {
	msg, err := json.Marshal(e)
	if err != nil {
		return errors.Wrapf(err, "encode %s event", e.Name)
	}
	h.Broadcast(msg)
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop disconnects every client and refuses new ones.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	for c := range h.clients {
		c.close()
	}
	h.clients = make(map[*Client]struct{})
}
