package order_repo

import (
	"github.com/jackc/pgx/v5"

	"ordersvc/internal/domain/order"
)

func parseOrderRow(row pgx.Row) (order.Order, error) {
	var m orderModel

	err := row.Scan(&m.ID,
		&m.Status,
		&m.TotalAmount,
		&m.TotalItems,
		&m.Paid,
		&m.PaidAt,
		&m.PaymentReference,
		&m.CreatedAt,
		&m.UpdatedAt)
	if err != nil {
		return order.Order{}, err
	}

	return m.toDomain()
}

func parseOrderRows(rows pgx.Rows) ([]order.Order, error) {
	defer rows.Close()

	var orders []order.Order

	for rows.Next() {
		ord, err := parseOrderRow(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, ord)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

func parseItemRows(rows pgx.Rows) ([]order.Item, error) {
	defer rows.Close()

	var items []order.Item

	for rows.Next() {
		var m itemModel
		if err := rows.Scan(&m.ProductID, &m.Quantity, &m.Price); err != nil {
			return nil, err
		}
		items = append(items, m.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
