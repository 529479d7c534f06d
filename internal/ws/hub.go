package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sufra-pos/api/internal/database"
	"github.com/sufra-pos/api/internal/inventory"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub maintains the set of active staff clients and broadcasts order and
// inventory events to all of them. There is one shared room; every
// authenticated staff connection sees every event.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan Event

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, exists := h.clients[client]; exists {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			message, err := json.Marshal(event)
			if err != nil {
				h.mu.Unlock()
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for every connected client.
func (h *Hub) Broadcast(event Event) {
	h.broadcast <- event
}

// orderPayload is the wire shape of order lifecycle events.
type orderPayload struct {
	OrderID       string `json:"order_id"`
	RefCode       string `json:"ref_code"`
	PaymentStatus string `json:"payment_status"`
}

func (h *Hub) orderEvent(eventType string, order database.Order) {
	payload, err := json.Marshal(orderPayload{
		OrderID:       order.ID.String(),
		RefCode:       order.RefCode,
		PaymentStatus: order.PaymentStatus,
	})
	if err != nil {
		return
	}
	h.Broadcast(Event{Type: eventType, Payload: payload})
}

// OrderCreated broadcasts an order.created event.
func (h *Hub) OrderCreated(ctx context.Context, order database.Order) {
	h.orderEvent("order.created", order)
}

// OrderCancelled broadcasts an order.cancelled event.
func (h *Hub) OrderCancelled(ctx context.Context, order database.Order) {
	h.orderEvent("order.cancelled", order)
}

// LowStock broadcasts an inventory.low_stock event with the alert batch.
func (h *Hub) LowStock(ctx context.Context, alerts []inventory.LowStockAlert) {
	payload, err := json.Marshal(alerts)
	if err != nil {
		return
	}
	h.Broadcast(Event{Type: "inventory.low_stock", Payload: payload})
}
