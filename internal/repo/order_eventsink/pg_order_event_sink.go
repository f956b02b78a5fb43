package order_eventsink

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"ordersvc/internal/domain/order"
	"ordersvc/pkg/postgres"
)

// PgOrderEventSink stores the order audit trail in Postgres.
type PgOrderEventSink struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

var _ order.EventSink = (*PgOrderEventSink)(nil)

func NewPgOrderEventSink(db postgres.Executor, builder squirrel.StatementBuilderType) *PgOrderEventSink {
	return &PgOrderEventSink{
		db:      db,
		builder: builder,
	}
}

func (r *PgOrderEventSink) CreateOrderEvent(ctx context.Context, event order.NewOrderEvent) (*order.OrderEvent, error) {
	id := uuid.New().String()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query, args, err := r.builder.Insert("order_events").
		Columns("id", "order_id", "kind", "data", "created_at").
		Values(id, event.OrderID, event.Kind, event.Data, event.CreatedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	if _, err = r.db.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("create order event: %w", err)
	}

	return &order.OrderEvent{
		EventID:       id,
		NewOrderEvent: event,
	}, nil
}

func (r *PgOrderEventSink) GetOrderEvents(ctx context.Context, orderID string) ([]order.OrderEvent, error) {
	query, args, err := r.builder.Select("id", "order_id", "kind", "data", "created_at").
		From("order_events").
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build order events query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query order events: %w", err)
	}
	defer rows.Close()

	return parseOrderEventRows(rows)
}

func parseOrderEventRows(rows pgx.Rows) ([]order.OrderEvent, error) {
	var events []order.OrderEvent
	for rows.Next() {
		var e order.OrderEvent
		var rawKind string
		if err := rows.Scan(&e.EventID, &e.OrderID, &rawKind, &e.Data, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order event row: %w", err)
		}

		e.Kind = order.OrderEventKind(rawKind)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order event rows: %w", err)
	}

	return events, nil
}
