package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// orderEvent is an internal struct for routing events to a specific order room
type orderEvent struct {
	OrderID uuid.UUID
	Event   Event
}

// Hub maintains the set of active clients and broadcasts messages to them.
// Clients either watch a single order (the public tracking page) or, as
// admins, receive every order event (the dashboard).
type Hub struct {
	// Registered tracking clients by order ID
	rooms map[uuid.UUID]map[*Client]bool

	// Registered admin dashboard clients
	admins map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast      chan *orderEvent
	broadcastAdmin chan Event

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:          make(map[uuid.UUID]map[*Client]bool),
		admins:         make(map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan *orderEvent, 256),
		broadcastAdmin: make(chan Event, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if client.admin {
				h.admins[client] = true
			} else {
				if h.rooms[client.orderID] == nil {
					h.rooms[client.orderID] = make(map[*Client]bool)
				}
				h.rooms[client.orderID][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if client.admin {
				if _, exists := h.admins[client]; exists {
					delete(h.admins, client)
					close(client.send)
				}
			} else if clients, ok := h.rooms[client.orderID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					// Clean up empty rooms
					if len(clients) == 0 {
						delete(h.rooms, client.orderID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			// Send to the order's room and to every admin dashboard
			for client := range h.rooms[event.OrderID] {
				h.send(client, message)
			}
			for client := range h.admins {
				h.send(client, message)
			}
			h.mu.Unlock()

		case event := <-h.broadcastAdmin:
			message, err := json.Marshal(event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for client := range h.admins {
				h.send(client, message)
			}
			h.mu.Unlock()
		}
	}
}

// send delivers a message to a client, dropping the client if its buffer is
// full. Caller must hold h.mu.
func (h *Hub) send(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		close(client.send)
		if client.admin {
			delete(h.admins, client)
			return
		}
		delete(h.rooms[client.orderID], client)
		if len(h.rooms[client.orderID]) == 0 {
			delete(h.rooms, client.orderID)
		}
	}
}

// BroadcastOrder sends an event to all clients tracking a specific order,
// plus every connected admin dashboard
func (h *Hub) BroadcastOrder(orderID uuid.UUID, event Event) {
	h.broadcast <- &orderEvent{
		OrderID: orderID,
		Event:   event,
	}
}

// BroadcastAdmin sends an event to admin dashboard clients only
func (h *Hub) BroadcastAdmin(event Event) {
	h.broadcastAdmin <- event
}
