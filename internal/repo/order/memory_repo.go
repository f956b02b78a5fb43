package order_repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ordersvc/internal/controller/apperror"
	"ordersvc/internal/domain/order"
)

// MemoryRepo is an in-memory order store with the same per-record atomicity
// guarantees as the Postgres repo. It backs tests and local development.
type MemoryRepo struct {
	mu       sync.RWMutex
	orders   map[string]order.Order
	receipts map[string][]string // orderID -> receipt URLs
	sequence []string            // ids in insertion order, newest first on List
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		orders:   make(map[string]order.Order),
		receipts: make(map[string][]string),
	}
}

var _ order.OrderRepo = (*MemoryRepo)(nil)

func (r *MemoryRepo) CreateWithItems(_ context.Context, newOrder order.NewOrder) (order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	ord := order.Order{
		ID:          uuid.New().String(),
		Status:      order.StatusPending,
		TotalAmount: newOrder.TotalAmount,
		TotalItems:  newOrder.TotalItems,
		Paid:        false,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       append([]order.Item(nil), newOrder.Items...),
	}

	r.orders[ord.ID] = ord
	r.sequence = append(r.sequence, ord.ID)
	return ord, nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string, withItems bool) (order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ord, ok := r.orders[id]
	if !ok {
		return order.Order{}, apperror.ErrOrderNotFound
	}

	if !withItems {
		ord.Items = nil
	} else {
		ord.Items = append([]order.Item(nil), ord.Items...)
	}
	return ord, nil
}

func (r *MemoryRepo) List(_ context.Context, q order.OrdersQuery) ([]order.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matching := make([]order.Order, 0, len(r.sequence))
	// newest first, mirroring the Postgres ORDER BY created_at DESC
	for i := len(r.sequence) - 1; i >= 0; i-- {
		ord := r.orders[r.sequence[i]]
		if q.Status != nil && ord.Status != *q.Status {
			continue
		}
		ord.Items = nil
		matching = append(matching, ord)
	}

	total := int64(len(matching))
	start := (q.Page - 1) * q.PageSize
	if start >= len(matching) {
		return []order.Order{}, total, nil
	}
	end := start + q.PageSize
	if end > len(matching) {
		end = len(matching)
	}
	return matching[start:end], total, nil
}

func (r *MemoryRepo) UpdateStatus(_ context.Context, id string, status order.Status) (order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ord, ok := r.orders[id]
	if !ok {
		return order.Order{}, apperror.ErrOrderNotFound
	}

	ord.Status = status
	ord.UpdatedAt = time.Now().UTC()
	r.orders[id] = ord

	ord.Items = nil
	return ord, nil
}

func (r *MemoryRepo) ApplyPayment(_ context.Context, update order.PaymentUpdate) (order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ord, ok := r.orders[update.OrderID]
	if !ok {
		return order.Order{}, apperror.ErrOrderNotFound
	}

	paidAt := update.PaidAt
	reference := update.PaymentID
	ord.Status = order.StatusPaid
	ord.Paid = true
	ord.PaidAt = &paidAt
	ord.PaymentReference = &reference
	ord.UpdatedAt = paidAt
	r.orders[update.OrderID] = ord

	r.receipts[update.OrderID] = append(r.receipts[update.OrderID], update.ReceiptURL)

	ord.Items = nil
	return ord, nil
}

// Receipts returns the receipt URLs recorded for an order, newest last.
func (r *MemoryRepo) Receipts(orderID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.receipts[orderID]...)
}

// Len returns the number of stored orders.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}
