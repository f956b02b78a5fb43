package order

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"ordersvc/internal/controller/apperror"
)

// OrderService orchestrates order creation, reads, status changes and
// payment reconciliation over the store and the two outbound clients.
type OrderService struct {
	repo        OrderRepo
	catalog     CatalogClient
	payments    PaymentClient
	events      EventSink
	transitions TransitionTable
	currency    string
}

func NewOrderService(repo OrderRepo, catalog CatalogClient, payments PaymentClient, events EventSink, currency string) *OrderService {
	return &OrderService{
		repo:        repo,
		catalog:     catalog,
		payments:    payments,
		events:      events,
		transitions: DefaultTransitions(),
		currency:    currency,
	}
}

// WithTransitions replaces the default transition table.
func (s *OrderService) WithTransitions(t TransitionTable) *OrderService {
	s.transitions = t
	return s
}

// Create validates the draft against the catalog, derives totals from the
// snapshot prices and persists the order with its items atomically. The
// catalog call always completes (or fails) before any write. The returned
// order carries product names resolved from the same catalog reply.
func (s *OrderService) Create(ctx context.Context, draft Draft) (EnrichedOrder, error) {
	if err := draft.Validate(); err != nil {
		return EnrichedOrder{}, err
	}

	products, err := s.catalog.ValidateProducts(ctx, draft.ProductIDs())
	if err != nil {
		return EnrichedOrder{}, fmt.Errorf("validate products: %w", err)
	}

	prices := make(map[string]float64, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}

	newOrder := NewOrder{Items: make([]Item, 0, len(draft.Items))}
	for _, di := range draft.Items {
		price, ok := prices[di.ProductID]
		if !ok {
			return EnrichedOrder{}, fmt.Errorf("%w: %s", apperror.ErrProductNotFound, di.ProductID)
		}
		newOrder.Items = append(newOrder.Items, Item{
			ProductID: di.ProductID,
			Quantity:  di.Quantity,
			Price:     price,
		})
		newOrder.TotalAmount += float64(di.Quantity) * price
		newOrder.TotalItems += di.Quantity
	}

	persisted, err := s.repo.CreateWithItems(ctx, newOrder)
	if err != nil {
		return EnrichedOrder{}, fmt.Errorf("create order: %w", err)
	}

	s.recordEvent(ctx, persisted.ID, OrderEventCreated, persisted)

	enriched, err := enrich(persisted, products)
	if err != nil {
		return EnrichedOrder{}, err
	}
	return enriched, nil
}

// CreatePaymentSession requests a checkout session for an already persisted,
// enriched order. It never runs before the order exists durably; if it
// fails, the order stays PENDING and the caller may retry.
func (s *OrderService) CreatePaymentSession(ctx context.Context, enriched EnrichedOrder) (PaymentSession, error) {
	req := PaymentSessionRequest{
		OrderID:  enriched.ID,
		Currency: s.currency,
		Items:    make([]SessionItem, 0, len(enriched.Items)),
	}
	for _, item := range enriched.Items {
		req.Items = append(req.Items, SessionItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	session, err := s.payments.CreateSession(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create payment session for order %s: %w", enriched.ID, err)
	}
	return session, nil
}

// FindAll returns one page of raw orders (no enrichment) and pagination meta.
func (s *OrderService) FindAll(ctx context.Context, query OrdersQuery) (OrdersPage, error) {
	if err := query.Validate(); err != nil {
		return OrdersPage{}, err
	}

	orders, total, err := s.repo.List(ctx, query)
	if err != nil {
		return OrdersPage{}, fmt.Errorf("list orders: %w", err)
	}

	lastPage := int((total + int64(query.PageSize) - 1) / int64(query.PageSize))
	return OrdersPage{
		Data: orders,
		Meta: PageMeta{Total: total, Page: query.Page, LastPage: lastPage},
	}, nil
}

// FindOne loads the order with its items and resolves product names through
// a fresh catalog call. Names are never cached alongside the order.
func (s *OrderService) FindOne(ctx context.Context, id string) (EnrichedOrder, error) {
	ord, err := s.repo.GetByID(ctx, id, true)
	if err != nil {
		return EnrichedOrder{}, fmt.Errorf("get order %s: %w", id, err)
	}

	ids := make([]string, 0, len(ord.Items))
	for _, item := range ord.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.catalog.ValidateProducts(ctx, ids)
	if err != nil {
		return EnrichedOrder{}, fmt.Errorf("enrich order %s: %w", id, err)
	}

	enriched, err := enrich(ord, products)
	if err != nil {
		return EnrichedOrder{}, err
	}
	return enriched, nil
}

// ChangeStatus moves the order to newStatus. A same-status call is an
// idempotent no-op; an unknown or disallowed status fails before any write.
func (s *OrderService) ChangeStatus(ctx context.Context, id string, newStatus Status) (Order, error) {
	ord, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return Order{}, fmt.Errorf("get order %s: %w", id, err)
	}

	if ord.Status == newStatus {
		return ord, nil
	}

	if _, err := NewStatus(string(newStatus)); err != nil {
		return Order{}, err
	}
	if !s.transitions.CanTransition(ord.Status, newStatus) {
		return Order{}, fmt.Errorf("%w: transition %s -> %s not allowed", apperror.ErrInvalidStatus, ord.Status, newStatus)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, newStatus)
	if err != nil {
		return Order{}, fmt.Errorf("update status of order %s: %w", id, err)
	}

	s.recordEvent(ctx, id, OrderEventStatusChanged, map[string]Status{"from": ord.Status, "to": newStatus})

	return updated, nil
}

// ReconcilePayment applies a payment confirmation in one atomic write:
// status PAID, paid flag, paid_at, payment reference and the receipt record.
// No guard is made against reapplying a confirmation; the latest one wins.
func (s *OrderService) ReconcilePayment(ctx context.Context, confirmation PaymentConfirmation) error {
	updated, err := s.repo.ApplyPayment(ctx, PaymentUpdate{
		OrderID:    confirmation.OrderID,
		PaymentID:  confirmation.PaymentID,
		PaidAt:     time.Now().UTC(),
		ReceiptURL: confirmation.ReceiptURL,
	})
	if err != nil {
		return fmt.Errorf("apply payment to order %s: %w", confirmation.OrderID, err)
	}

	s.recordEvent(ctx, updated.ID, OrderEventPaymentReconciled, confirmation)

	slog.InfoContext(ctx, "Payment reconciled",
		"order_id", updated.ID,
		"payment_reference", confirmation.PaymentID)
	return nil
}

// GetOrderEvents returns the audit trail for one order.
func (s *OrderService) GetOrderEvents(ctx context.Context, orderID string) ([]OrderEvent, error) {
	if s.events == nil {
		return nil, nil
	}
	events, err := s.events.GetOrderEvents(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get events for order %s: %w", orderID, err)
	}
	return events, nil
}

func (s *OrderService) recordEvent(ctx context.Context, orderID string, kind OrderEventKind, payload any) {
	if s.events == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		slog.WarnContext(ctx, "Failed to marshal order event payload",
			"order_id", orderID, "kind", kind, "error", err)
		return
	}

	_, err = s.events.CreateOrderEvent(ctx, NewOrderEvent{
		OrderID:   orderID,
		Kind:      kind,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.WarnContext(ctx, "Failed to record order event",
			"order_id", orderID, "kind", kind, "error", err)
	}
}

func enrich(ord Order, products []Product) (EnrichedOrder, error) {
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	items := make([]EnrichedItem, 0, len(ord.Items))
	for _, item := range ord.Items {
		name, ok := names[item.ProductID]
		if !ok {
			return EnrichedOrder{}, fmt.Errorf("enrich order %s: product %s missing from catalog reply", ord.ID, item.ProductID)
		}
		items = append(items, EnrichedItem{Item: item, Name: name})
	}

	raw := ord
	raw.Items = nil
	return EnrichedOrder{Order: raw, Items: items}, nil
}
