package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sufra-pos/api/internal/database"
	"github.com/sufra-pos/api/internal/enum"
	"github.com/sufra-pos/api/internal/inventory"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)

	// Register client
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if !hub.clients[client] {
		t.Fatal("client not registered")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)

	// Register client
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	// Unregister client
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if len(hub.clients) != 0 {
		t.Fatal("client not removed after unregister")
	}

	// Send channel should be closed so WritePump exits
	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected send channel to be closed")
		}
	default:
		t.Fatal("send channel not closed")
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub)
	client2 := mockClient(hub)
	client3 := mockClient(hub)

	// Register all clients
	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	// Broadcast event
	testPayload := json.RawMessage(`{"order_id":"test-123"}`)
	event := Event{
		Type:    "order.created",
		Payload: testPayload,
	}
	hub.Broadcast(event)

	// All three clients should receive the message
	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "order.created" {
				t.Errorf("client%d: expected type 'order.created', got '%s'", i+1, received.Type)
			}
			if string(received.Payload) != string(testPayload) {
				t.Errorf("client%d: expected payload '%s', got '%s'", i+1, testPayload, received.Payload)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestSlowClientDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// A client whose send buffer is already full
	slow := &Client{
		hub:  hub,
		send: make(chan []byte),
	}
	hub.register <- slow
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(Event{
		Type:    "order.created",
		Payload: json.RawMessage(`{}`),
	})
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.clients[slow] {
		t.Fatal("client with full buffer should have been dropped")
	}
}

func TestOrderCreatedEvent(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	order := database.Order{
		ID:            uuid.New(),
		RefCode:       "A1B2C3D4",
		PaymentStatus: enum.PaymentStatusPending,
	}
	hub.OrderCreated(context.Background(), order)

	select {
	case msg := <-client.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if received.Type != "order.created" {
			t.Errorf("expected type 'order.created', got '%s'", received.Type)
		}

		var payload orderPayload
		if err := json.Unmarshal(received.Payload, &payload); err != nil {
			t.Fatalf("failed to unmarshal payload: %v", err)
		}
		if payload.OrderID != order.ID.String() {
			t.Errorf("expected order ID %s, got %s", order.ID, payload.OrderID)
		}
		if payload.RefCode != "A1B2C3D4" {
			t.Errorf("expected ref code A1B2C3D4, got %s", payload.RefCode)
		}
		if payload.PaymentStatus != enum.PaymentStatusPending {
			t.Errorf("expected payment status %s, got %s", enum.PaymentStatusPending, payload.PaymentStatus)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client did not receive order.created event")
	}
}

func TestOrderCancelledEvent(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	order := database.Order{
		ID:            uuid.New(),
		RefCode:       "F9E8D7C6",
		PaymentStatus: enum.PaymentStatusPending,
		Cancelled:     true,
	}
	hub.OrderCancelled(context.Background(), order)

	select {
	case msg := <-client.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if received.Type != "order.cancelled" {
			t.Errorf("expected type 'order.cancelled', got '%s'", received.Type)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client did not receive order.cancelled event")
	}
}

func TestLowStockEvent(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	alerts := []inventory.LowStockAlert{
		{IngredientID: uuid.New(), Name: "Eggs", Quantity: "3"},
		{IngredientID: uuid.New(), Name: "Flour", Quantity: "0.5"},
	}
	hub.LowStock(context.Background(), alerts)

	select {
	case msg := <-client.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if received.Type != "inventory.low_stock" {
			t.Errorf("expected type 'inventory.low_stock', got '%s'", received.Type)
		}

		var decoded []inventory.LowStockAlert
		if err := json.Unmarshal(received.Payload, &decoded); err != nil {
			t.Fatalf("failed to unmarshal payload: %v", err)
		}
		if len(decoded) != 2 {
			t.Fatalf("expected 2 alerts, got %d", len(decoded))
		}
		if decoded[0].Name != "Eggs" || decoded[0].Quantity != "3" {
			t.Errorf("unexpected first alert: %+v", decoded[0])
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client did not receive inventory.low_stock event")
	}
}

func TestEventSerialization(t *testing.T) {
	testCases := []struct {
		name  string
		event Event
	}{
		{
			name: "order created event",
			event: Event{
				Type:    "order.created",
				Payload: json.RawMessage(`{"order_id":"abc","ref_code":"A1B2C3D4"}`),
			},
		},
		{
			name: "order cancelled event",
			event: Event{
				Type:    "order.cancelled",
				Payload: json.RawMessage(`{"order_id":"def","ref_code":"F9E8D7C6"}`),
			},
		},
		{
			name: "low stock event",
			event: Event{
				Type:    "inventory.low_stock",
				Payload: json.RawMessage(`[{"name":"Eggs","quantity":"3"}]`),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.event)
			if err != nil {
				t.Fatalf("Marshal error: %v", err)
			}

			var decoded Event
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}

			if decoded.Type != tc.event.Type {
				t.Errorf("Type mismatch: got %s, want %s", decoded.Type, tc.event.Type)
			}
			if string(decoded.Payload) != string(tc.event.Payload) {
				t.Errorf("Payload mismatch: got %s, want %s", decoded.Payload, tc.event.Payload)
			}
		})
	}
}
