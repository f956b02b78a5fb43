package order

import (
	"context"
	"encoding/json"
	"time"
)

//go:generate mockgen -source event.go -destination mock_event_sink.go -package order

// EventSink records the order audit trail. Sink failures never fail the
// triggering operation; they are logged and dropped.
type EventSink interface {
	CreateOrderEvent(ctx context.Context, event NewOrderEvent) (*OrderEvent, error)
	GetOrderEvents(ctx context.Context, orderID string) ([]OrderEvent, error)
}

type OrderEventKind string

const (
	OrderEventCreated           OrderEventKind = "order_created"
	OrderEventStatusChanged     OrderEventKind = "status_changed"
	OrderEventPaymentReconciled OrderEventKind = "payment_reconciled"
)

type NewOrderEvent struct {
	OrderID   string          `json:"order_id"`
	Kind      OrderEventKind  `json:"kind"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type OrderEvent struct {
	EventID string `json:"event_id"`
	NewOrderEvent
}
