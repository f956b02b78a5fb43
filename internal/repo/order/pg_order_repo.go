package order_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"ordersvc/internal/controller/apperror"
	"ordersvc/internal/domain/order"
	"ordersvc/pkg/postgres"
)

const orderColumns = "id, status, total_amount, total_items, paid, paid_at, payment_reference, created_at, updated_at"

// PgOrderRepo is the durable order store on Postgres. Both creation and
// payment reconciliation run inside a single transaction so an order is
// never observable half-written.
type PgOrderRepo struct {
	pg *postgres.Postgres
	repo
}

func NewPgOrderRepo(pg *postgres.Postgres) *PgOrderRepo {
	return &PgOrderRepo{
		pg:   pg,
		repo: repo{db: pg.Pool, builder: pg.Builder},
	}
}

var _ order.OrderRepo = (*PgOrderRepo)(nil)

func (r *PgOrderRepo) CreateWithItems(ctx context.Context, newOrder order.NewOrder) (order.Order, error) {
	var created order.Order

	err := r.pg.InTransaction(ctx, func(tx postgres.Executor) error {
		txRepo := &repo{db: tx, builder: r.pg.Builder}

		ord, err := txRepo.insertOrder(ctx, newOrder)
		if err != nil {
			return err
		}
		if err := txRepo.insertItems(ctx, ord.ID, newOrder.Items); err != nil {
			return err
		}

		ord.Items = newOrder.Items
		created = ord
		return nil
	})
	if err != nil {
		return order.Order{}, err
	}

	return created, nil
}

func (r *PgOrderRepo) ApplyPayment(ctx context.Context, update order.PaymentUpdate) (order.Order, error) {
	var updated order.Order

	err := r.pg.InTransaction(ctx, func(tx postgres.Executor) error {
		txRepo := &repo{db: tx, builder: r.pg.Builder}

		ord, err := txRepo.markPaid(ctx, update)
		if err != nil {
			return err
		}
		if err := txRepo.insertReceipt(ctx, update.OrderID, update.ReceiptURL); err != nil {
			return err
		}

		updated = ord
		return nil
	})
	if err != nil {
		return order.Order{}, err
	}

	return updated, nil
}

// repo holds the operations that run against either the pool or a transaction.
type repo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

func (r *repo) insertOrder(ctx context.Context, newOrder order.NewOrder) (order.Order, error) {
	now := time.Now().UTC()
	m := orderModel{
		ID:          uuid.New().String(),
		Status:      string(order.StatusPending),
		TotalAmount: newOrder.TotalAmount,
		TotalItems:  newOrder.TotalItems,
		Paid:        false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query, args, err := r.builder.Insert("orders").
		Columns("id", "status", "total_amount", "total_items", "paid", "created_at", "updated_at").
		Values(m.ID, m.Status, m.TotalAmount, m.TotalItems, m.Paid, m.CreatedAt, m.UpdatedAt).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("build insert order query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return order.Order{}, fmt.Errorf("insert order: %w", err)
	}

	return m.toDomain()
}

func (r *repo) insertItems(ctx context.Context, orderID string, items []order.Item) error {
	insert := r.builder.Insert("order_items").
		Columns("id", "order_id", "product_id", "quantity", "price")
	for _, item := range items {
		insert = insert.Values(uuid.New().String(), orderID, item.ProductID, item.Quantity, item.Price)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

func (r *repo) GetByID(ctx context.Context, id string, withItems bool) (order.Order, error) {
	query, args, err := r.builder.Select(orderColumns).
		From("orders").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("build get order query: %w", err)
	}

	ord, err := parseOrderRow(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, apperror.ErrOrderNotFound
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("query order: %w", err)
	}

	if withItems {
		items, err := r.getItems(ctx, id)
		if err != nil {
			return order.Order{}, err
		}
		ord.Items = items
	}

	return ord, nil
}

func (r *repo) getItems(ctx context.Context, orderID string) ([]order.Item, error) {
	query, args, err := r.builder.Select("product_id", "quantity", "price").
		From("order_items").
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get items query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}

	return parseItemRows(rows)
}

func (r *repo) List(ctx context.Context, q order.OrdersQuery) ([]order.Order, int64, error) {
	countQuery := r.builder.Select("COUNT(*)").From("orders")
	listQuery := r.builder.Select(orderColumns).
		From("orders").
		OrderBy("created_at DESC").
		Limit(uint64(q.PageSize)).
		Offset(uint64((q.Page - 1) * q.PageSize))

	if q.Status != nil {
		countQuery = countQuery.Where(squirrel.Eq{"status": *q.Status})
		listQuery = listQuery.Where(squirrel.Eq{"status": *q.Status})
	}

	sql, args, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	sql, args, err = listQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}

	orders, err := parseOrderRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *repo) UpdateStatus(ctx context.Context, id string, status order.Status) (order.Order, error) {
	query, args, err := r.builder.Update("orders").
		Set("status", status).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + orderColumns).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("build update status query: %w", err)
	}

	ord, err := parseOrderRow(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, apperror.ErrOrderNotFound
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("update order status: %w", err)
	}

	return ord, nil
}

func (r *repo) markPaid(ctx context.Context, update order.PaymentUpdate) (order.Order, error) {
	query, args, err := r.builder.Update("orders").
		Set("status", order.StatusPaid).
		Set("paid", true).
		Set("paid_at", update.PaidAt).
		Set("payment_reference", update.PaymentID).
		Set("updated_at", update.PaidAt).
		Where(squirrel.Eq{"id": update.OrderID}).
		Suffix("RETURNING " + orderColumns).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("build mark paid query: %w", err)
	}

	ord, err := parseOrderRow(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, apperror.ErrOrderNotFound
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("mark order paid: %w", err)
	}

	return ord, nil
}

func (r *repo) insertReceipt(ctx context.Context, orderID, receiptURL string) error {
	query, args, err := r.builder.Insert("order_receipts").
		Columns("id", "order_id", "receipt_url", "created_at").
		Values(uuid.New().String(), orderID, receiptURL, time.Now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert receipt query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert order receipt: %w", err)
	}
	return nil
}
