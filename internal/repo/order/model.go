package order_repo

import (
	"time"

	"ordersvc/internal/domain/order"
)

type orderModel struct {
	ID               string
	Status           string
	TotalAmount      float64
	TotalItems       int
	Paid             bool
	PaidAt           *time.Time
	PaymentReference *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (m orderModel) toDomain() (order.Order, error) {
	status, err := order.NewStatus(m.Status)
	if err != nil {
		return order.Order{}, err
	}

	return order.Order{
		ID:               m.ID,
		Status:           status,
		TotalAmount:      m.TotalAmount,
		TotalItems:       m.TotalItems,
		Paid:             m.Paid,
		PaidAt:           m.PaidAt,
		PaymentReference: m.PaymentReference,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}

type itemModel struct {
	ProductID string
	Quantity  int
	Price     float64
}

func (m itemModel) toDomain() order.Item {
	return order.Item{
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		Price:     m.Price,
	}
}
