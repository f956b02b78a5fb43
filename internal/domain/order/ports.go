package order

import (
	"context"
	"encoding/json"
)

//go:generate mockgen -source ports.go -destination mock_ports.go -package order

// OrderRepo is the durable order store. Every mutation of a single order is
// one atomic write at the storage layer; the service never interleaves
// read-modify-write sequences of its own.
type OrderRepo interface {
	// CreateWithItems persists the order and all its items as one unit.
	CreateWithItems(ctx context.Context, newOrder NewOrder) (Order, error)
	// GetByID returns apperror.ErrOrderNotFound when id does not resolve.
	GetByID(ctx context.Context, id string, withItems bool) (Order, error)
	// List returns one page of orders plus the total count matching the filter.
	List(ctx context.Context, query OrdersQuery) ([]Order, int64, error)
	// UpdateStatus persists the new status and returns the updated order.
	UpdateStatus(ctx context.Context, id string, status Status) (Order, error)
	// ApplyPayment marks the order paid and stores the receipt in one
	// transaction. Reapplying overwrites the payment reference and receipt.
	ApplyPayment(ctx context.Context, update PaymentUpdate) (Order, error)
}

// CatalogClient validates product ids against the inventory service.
// Ids unknown to the catalog are simply absent from the reply.
type CatalogClient interface {
	ValidateProducts(ctx context.Context, productIDs []string) ([]Product, error)
}

// PaymentSession is the gateway's session descriptor, passed through unmodified.
type PaymentSession = json.RawMessage

type SessionItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type PaymentSessionRequest struct {
	OrderID  string        `json:"order_id"`
	Currency string        `json:"currency"`
	Items    []SessionItem `json:"items"`
}

// PaymentClient requests a checkout session from the payment gateway.
type PaymentClient interface {
	CreateSession(ctx context.Context, req PaymentSessionRequest) (PaymentSession, error)
}
