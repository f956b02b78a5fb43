package order_repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordersvc/internal/controller/apperror"
	"ordersvc/internal/domain/order"
)

func TestMemoryRepo_CreateAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMemoryRepo()

	created, err := repo.CreateWithItems(ctx, order.NewOrder{
		TotalAmount: 17.5,
		TotalItems:  5,
		Items: []order.Item{
			{ProductID: "P1", Quantity: 2, Price: 5.0},
			{ProductID: "P2", Quantity: 3, Price: 2.5},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, order.StatusPending, created.Status)
	assert.False(t, created.Paid)

	fetched, err := repo.GetByID(ctx, created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Len(t, fetched.Items, 2)

	bare, err := repo.GetByID(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Empty(t, bare.Items)

	_, err = repo.GetByID(ctx, "missing", false)
	assert.ErrorIs(t, err, apperror.ErrOrderNotFound)
}

func TestMemoryRepo_ListPagination(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMemoryRepo()

	ids := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		created, err := repo.CreateWithItems(ctx, order.NewOrder{
			TotalAmount: float64(i),
			TotalItems:  1,
			Items:       []order.Item{{ProductID: fmt.Sprintf("P%d", i), Quantity: 1, Price: float64(i)}},
		})
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	page, total, err := repo.List(ctx, order.OrdersQuery{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, page, 10)
	// newest first: page 2 starts at the 11th most recent insert
	assert.Equal(t, ids[14], page[0].ID)

	last, total, err := repo.List(ctx, order.OrdersQuery{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Len(t, last, 5)

	empty, total, err := repo.List(ctx, order.OrdersQuery{Page: 4, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Empty(t, empty)
}

func TestMemoryRepo_ListStatusFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMemoryRepo()

	first, err := repo.CreateWithItems(ctx, order.NewOrder{TotalAmount: 1, TotalItems: 1})
	require.NoError(t, err)
	_, err = repo.CreateWithItems(ctx, order.NewOrder{TotalAmount: 2, TotalItems: 1})
	require.NoError(t, err)

	_, err = repo.UpdateStatus(ctx, first.ID, order.StatusCancelled)
	require.NoError(t, err)

	cancelled := order.StatusCancelled
	page, total, err := repo.List(ctx, order.OrdersQuery{Status: &cancelled, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)
}

func TestMemoryRepo_UpdateStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMemoryRepo()

	created, err := repo.CreateWithItems(ctx, order.NewOrder{TotalAmount: 1, TotalItems: 1})
	require.NoError(t, err)

	updated, err := repo.UpdateStatus(ctx, created.ID, order.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, updated.Status)

	_, err = repo.UpdateStatus(ctx, "missing", order.StatusDelivered)
	assert.ErrorIs(t, err, apperror.ErrOrderNotFound)
}

func TestMemoryRepo_ApplyPayment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMemoryRepo()

	created, err := repo.CreateWithItems(ctx, order.NewOrder{TotalAmount: 10, TotalItems: 2})
	require.NoError(t, err)

	paidAt := time.Now().UTC()
	updated, err := repo.ApplyPayment(ctx, order.PaymentUpdate{
		OrderID:    created.ID,
		PaymentID:  "pi_first",
		PaidAt:     paidAt,
		ReceiptURL: "https://receipts.example/1",
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, updated.Status)
	assert.True(t, updated.Paid)
	require.NotNil(t, updated.PaymentReference)
	assert.Equal(t, "pi_first", *updated.PaymentReference)

	// a duplicate confirmation overwrites the reference but keeps both receipts
	_, err = repo.ApplyPayment(ctx, order.PaymentUpdate{
		OrderID:    created.ID,
		PaymentID:  "pi_second",
		PaidAt:     paidAt.Add(time.Minute),
		ReceiptURL: "https://receipts.example/2",
	})
	require.NoError(t, err)

	final, err := repo.GetByID(ctx, created.ID, false)
	require.NoError(t, err)
	require.NotNil(t, final.PaymentReference)
	assert.Equal(t, "pi_second", *final.PaymentReference)
	assert.Equal(t, []string{"https://receipts.example/1", "https://receipts.example/2"}, repo.Receipts(created.ID))

	_, err = repo.ApplyPayment(ctx, order.PaymentUpdate{OrderID: "missing", PaymentID: "pi_x", PaidAt: paidAt})
	assert.ErrorIs(t, err, apperror.ErrOrderNotFound)
}
