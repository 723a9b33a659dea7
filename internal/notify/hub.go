package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const defaultHubBuffer = 64

// Hub broadcasts notices to subscribed clients. A slow client misses notices
// rather than blocking the sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]chan Notice
	buffer  int
}

// NewHub creates a hub. A non-positive buffer uses the default.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultHubBuffer
	}
	return &Hub{
		clients: make(map[string]chan Notice),
		buffer:  buffer,
	}
}

// Subscribe registers a client. The returned func unregisters it and closes the channel.
func (h *Hub) Subscribe() (<-chan Notice, func()) {
	id := uuid.NewString()
	ch := make(chan Notice, h.buffer)

	h.mu.Lock()
	h.clients[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			// Close may already have closed it
			if _, ok := h.clients[id]; ok {
				delete(h.clients, id)
				close(ch)
			}
		})
	}
}

// Notify sends the notice to every client without blocking
func (h *Hub) Notify(_ context.Context, notice Notice) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		select {
		case ch <- notice:
		default:
		}
	}
}

// Clients returns the number of subscribed clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unregisters every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.clients {
		delete(h.clients, id)
		close(ch)
	}
}
