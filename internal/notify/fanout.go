package notify

import (
	"context"

	"github.com/sufra-pos/api/internal/database"
	"github.com/sufra-pos/api/internal/inventory"
)

// Target is the event sink contract shared by the WebSocket hub and the
// broker publisher.
type Target interface {
	OrderCreated(ctx context.Context, order database.Order)
	OrderCancelled(ctx context.Context, order database.Order)
	LowStock(ctx context.Context, alerts []inventory.LowStockAlert)
}

// Fanout delivers each event to every target in order.
type Fanout []Target

func (f Fanout) OrderCreated(ctx context.Context, order database.Order) {
	for _, t := range f {
		t.OrderCreated(ctx, order)
	}
}

func (f Fanout) OrderCancelled(ctx context.Context, order database.Order) {
	for _, t := range f {
		t.OrderCancelled(ctx, order)
	}
}

func (f Fanout) LowStock(ctx context.Context, alerts []inventory.LowStockAlert) {
	for _, t := range f {
		t.LowStock(ctx, alerts)
	}
}
