package websockets

import (
	"sync"
)

type Hub struct {
	broadcast chan Message
	clients   map[string]*Client
	mutex     sync.RWMutex
	done      chan struct{}
	stopOnce  sync.Once
}

func newHub() *Hub {
	return &Hub{
		broadcast: make(chan Message, BROADCAST_BUFFER),
		clients:   make(map[string]*Client),
		done:      make(chan struct{}),
	}
}

func (h *Hub) run(m *Manager) {
	for {
		select {
		case message := <-h.broadcast:
			h.broadcastMessage(message, m)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mutex.Lock()
		defer h.mutex.Unlock()
		for id, client := range h.clients {
			close(client.send)
			delete(h.clients, id)
		}
	})
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[client.ID] = client
}

// unregisterClient is safe to call more than once per client.
func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.send)
}

// broadcastMessage delivers to authenticated clients and drops any client
// whose send buffer is full.
func (h *Hub) broadcastMessage(message Message, m *Manager) {
	log := m.log.Function("broadcastMessage")

	h.mutex.Lock()
	defer h.mutex.Unlock()

	sent := 0
	for id, client := range h.clients {
		if !client.IsAuthenticated() {
			continue
		}

		select {
		case client.send <- message:
			sent++
		default:
			log.Warn("Client too slow, disconnecting", "clientID", id)
			delete(h.clients, id)
			close(client.send)
		}
	}

	log.Debug("Broadcast complete", "messageID", message.ID, "event", message.Event, "sentTo", sent)
}
