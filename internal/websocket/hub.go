package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/grupoheroica/calidadrecintos/internal/notify"
)

// Hub maintains the set of connected browser sessions and relays change
// events from the notification bus to every session of the same recinto.
type Hub struct {
	// Registered clients map: SessionID -> Client
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client

	bus *notify.Bus

	mu sync.RWMutex
}

// NewHub creates a new Hub instance wired to the change bus
func NewHub(bus *notify.Bus) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
		bus:        bus,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.SessionID]; ok {
				close(old.send)
				delete(h.clients, client.SessionID)
			}
			h.clients[client.SessionID] = client
			h.mu.Unlock()
			log.Printf("🔔 Session connected: %s (%s)", client.SessionID, client.Recinto)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.SessionID]; ok {
				delete(h.clients, client.SessionID)
				close(client.send)
				log.Printf("🔕 Session disconnected: %s", client.SessionID)
			}
			h.mu.Unlock()

		case evt, ok := <-events:
			if !ok {
				return
			}
			h.broadcast(evt)
		}
	}
}

// broadcast pushes a change notification to every session of the recinto
func (h *Hub) broadcast(evt notify.Event) {
	msg, err := json.Marshal(map[string]string{
		"type":    evt.Coleccion + ":changed",
		"recinto": evt.Recinto,
	})
	if err != nil {
		log.Printf("Error marshaling change event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.Recinto != evt.Recinto {
			continue
		}
		select {
		case client.send <- msg:
		default:
			// Buffer full or client dead; drop, the next event catches up
		}
	}
}
