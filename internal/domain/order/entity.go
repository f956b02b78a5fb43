package order

import (
	"fmt"
	"time"

	"ordersvc/internal/controller/apperror"
)

// Order is the persisted aggregate. TotalAmount and TotalItems are derived
// at creation from snapshot prices and never recomputed afterwards.
type Order struct {
	ID               string     `json:"id"`
	Status           Status     `json:"status"`
	TotalAmount      float64    `json:"total_amount"`
	TotalItems       int        `json:"total_items"`
	Paid             bool       `json:"paid"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	PaymentReference *string    `json:"payment_reference,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Items            []Item     `json:"items,omitempty"`
}

// Item is an order line. Price is the unit price captured from the catalog
// at order-creation time, so historical orders survive catalog changes.
type Item struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Product is the catalog's authoritative view of a product.
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// EnrichedItem is an order line joined with the product name at read time.
// The name is never stored with the order.
type EnrichedItem struct {
	Item
	Name string `json:"name"`
}

// EnrichedOrder is an order with display names resolved from the catalog.
type EnrichedOrder struct {
	Order
	Items []EnrichedItem `json:"items"`
}

// Draft is the caller-supplied, not-yet-persisted order request.
type Draft struct {
	Items []DraftItem `json:"items"`
}

type DraftItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Validate rejects malformed drafts before any outbound call is made.
func (d Draft) Validate() error {
	if len(d.Items) == 0 {
		return fmt.Errorf("%w: items must not be empty", apperror.ErrInvalidDraft)
	}
	for i, item := range d.Items {
		if item.ProductID == "" {
			return fmt.Errorf("%w: items[%d] missing product_id", apperror.ErrInvalidDraft, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d] quantity must be positive", apperror.ErrInvalidDraft, i)
		}
	}
	return nil
}

// ProductIDs returns the distinct product ids in draft order.
func (d Draft) ProductIDs() []string {
	seen := make(map[string]struct{}, len(d.Items))
	ids := make([]string, 0, len(d.Items))
	for _, item := range d.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// NewOrder carries the derived totals and snapshot items for atomic creation.
type NewOrder struct {
	TotalAmount float64
	TotalItems  int
	Items       []Item
}

// PaymentConfirmation is the transient payload of a payment.succeeded event.
type PaymentConfirmation struct {
	OrderID    string `json:"order_id"`
	PaymentID  string `json:"payment_id"`
	ReceiptURL string `json:"receipt_url"`
}

// PaymentUpdate is the atomic write applied to an order on reconciliation.
type PaymentUpdate struct {
	OrderID    string
	PaymentID  string
	PaidAt     time.Time
	ReceiptURL string
}

// OrdersQuery filters and paginates the order list. Page is 1-based.
type OrdersQuery struct {
	Status   *Status
	Page     int
	PageSize int
}

func (q OrdersQuery) Validate() error {
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1", apperror.ErrInvalidQuery)
	}
	if q.PageSize < 1 {
		return fmt.Errorf("%w: page size must be >= 1", apperror.ErrInvalidQuery)
	}
	if q.Status != nil {
		if _, err := NewStatus(string(*q.Status)); err != nil {
			return err
		}
	}
	return nil
}

type PageMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	LastPage int   `json:"last_page"`
}

type OrdersPage struct {
	Data []Order  `json:"data"`
	Meta PageMeta `json:"meta"`
}
