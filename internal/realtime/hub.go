// Package realtime carries the thin real-time layer: an SSE hub for
// connection-scoped notifications and the in-memory soft-lock
// registry. Nothing in this package touches the database; the
// authoritative booking path never reads from it.
package realtime

import "sync"

// Message is one server-sent event: a name and a JSON-serializable
// payload.
type Message struct {
	Event string
	Data  map[string]any
}

// Hub tracks connected SSE clients and routes messages to one or all
// of them. Sends are non-blocking: a client that cannot keep up with
// its buffer simply misses notifications, which is acceptable for
// advisory availability hints.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]chan Message
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]chan Message)}
}

// Subscribe registers a connection and returns its message channel.
// Re-subscribing an id closes the displaced channel so its reader
// loop exits instead of waiting on an orphaned subscription.
func (h *Hub) Subscribe(connID string) <-chan Message {
	ch := make(chan Message, 16)
	h.mu.Lock()
	if old, ok := h.conns[connID]; ok {
		close(old)
	}
	h.conns[connID] = ch
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a connection. Its channel is closed so the
// reader loop can drain and exit. The close happens under the write
// lock: senders hold the read lock across their sends, so a channel
// is never closed while a send is in flight.
func (h *Hub) Unsubscribe(connID string) {
	h.mu.Lock()
	if ch, ok := h.conns[connID]; ok {
		delete(h.conns, connID)
		close(ch)
	}
	h.mu.Unlock()
}

// Send delivers a message to a single connection. Unknown connections
// and full buffers drop the message. The non-blocking send runs under
// the read lock so it cannot interleave with Unsubscribe's close.
func (h *Hub) Send(connID string, m Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ch, ok := h.conns[connID]
	if !ok {
		return
	}
	select {
	case ch <- m:
	default:
	}
}

// Broadcast delivers a message to every connection except the one
// named by except (pass "" to reach everyone). Sends stay under the
// read lock for the same reason as in Send; they never block, so the
// lock is held only for the map walk.
func (h *Hub) Broadcast(except string, m Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.conns {
		if id == except {
			continue
		}
		select {
		case ch <- m:
		default:
		}
	}
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
