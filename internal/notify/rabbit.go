package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sufra-pos/api/internal/database"
	"github.com/sufra-pos/api/internal/inventory"
)

const lowStockQueue = "inventory.low_stock"

// Publisher forwards low stock alerts to RabbitMQ so the purchasing
// side can consume them outside the request path. Order lifecycle
// events stay on the WebSocket hub only.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to the broker and declares the low stock queue.
func Dial(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(lowStockQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, ch: ch}, nil
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// OrderCreated is a no-op; order events are delivered over WebSocket.
func (p *Publisher) OrderCreated(ctx context.Context, order database.Order) {}

// OrderCancelled is a no-op; order events are delivered over WebSocket.
func (p *Publisher) OrderCancelled(ctx context.Context, order database.Order) {}

// LowStock publishes the alert batch to the low stock queue. Delivery is
// best effort; a broker failure must not fail the order that triggered it.
func (p *Publisher) LowStock(ctx context.Context, alerts []inventory.LowStockAlert) {
	body, err := json.Marshal(alerts)
	if err != nil {
		return
	}

	err = p.ch.PublishWithContext(ctx, "", lowStockQueue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		log.Printf("low stock publish error: %v", err)
	}
}
