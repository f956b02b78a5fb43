//go:build integration
// +build integration

package order_repo_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordersvc/internal/controller/apperror"
	"ordersvc/internal/domain/order"
	order_repo "ordersvc/internal/repo/order"
	"ordersvc/internal/testinfra"
)

var pg *testinfra.PostgresContainer

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := testinfra.NewPostgres(ctx)
	if err != nil {
		panic(fmt.Sprintf("Failed to start postgres container: %v", err))
	}
	pg = pgContainer

	code := m.Run()

	pgContainer.Cleanup(ctx)
	os.Exit(code)
}

func newRepo(t *testing.T) *order_repo.PgOrderRepo {
	t.Helper()
	require.NoError(t, pg.Truncate(context.Background()))
	return order_repo.NewPgOrderRepo(pg.Pool)
}

func TestPgOrderRepo_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	created, err := repo.CreateWithItems(ctx, order.NewOrder{
		TotalAmount: 17.5,
		TotalItems:  5,
		Items: []order.Item{
			{ProductID: "P1", Quantity: 2, Price: 5.0},
			{ProductID: "P2", Quantity: 3, Price: 2.5},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, created.Status)
	assert.False(t, created.Paid)

	fetched, err := repo.GetByID(ctx, created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, 17.5, fetched.TotalAmount)
	assert.Equal(t, 5, fetched.TotalItems)
	require.Len(t, fetched.Items, 2)
	assert.Equal(t, order.Item{ProductID: "P1", Quantity: 2, Price: 5.0}, fetched.Items[0])

	_, err = repo.GetByID(ctx, "missing", false)
	assert.ErrorIs(t, err, apperror.ErrOrderNotFound)
}

func TestPgOrderRepo_ListPagination(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	for i := 0; i < 25; i++ {
		_, err := repo.CreateWithItems(ctx, order.NewOrder{
			TotalAmount: float64(i),
			TotalItems:  1,
			Items:       []order.Item{{ProductID: fmt.Sprintf("P%d", i), Quantity: 1, Price: float64(i)}},
		})
		require.NoError(t, err)
	}

	page, total, err := repo.List(ctx, order.OrdersQuery{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Len(t, page, 10)

	last, total, err := repo.List(ctx, order.OrdersQuery{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Len(t, last, 5)
}

func TestPgOrderRepo_StatusFilter(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	first, err := repo.CreateWithItems(ctx, order.NewOrder{TotalAmount: 1, TotalItems: 1,
		Items: []order.Item{{ProductID: "P1", Quantity: 1, Price: 1}}})
	require.NoError(t, err)
	_, err = repo.CreateWithItems(ctx, order.NewOrder{TotalAmount: 2, TotalItems: 1,
		Items: []order.Item{{ProductID: "P2", Quantity: 1, Price: 2}}})
	require.NoError(t, err)

	updated, err := repo.UpdateStatus(ctx, first.ID, order.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, updated.Status)

	cancelled := order.StatusCancelled
	page, total, err := repo.List(ctx, order.OrdersQuery{Status: &cancelled, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)
}

func TestPgOrderRepo_ApplyPayment(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	created, err := repo.CreateWithItems(ctx, order.NewOrder{TotalAmount: 10, TotalItems: 2,
		Items: []order.Item{{ProductID: "P1", Quantity: 2, Price: 5}}})
	require.NoError(t, err)

	paidAt := time.Now().UTC().Truncate(time.Microsecond)
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

	// the latest confirmation wins, earlier receipts stay on record
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

	var receipts int
	err = pg.Pool.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM order_receipts WHERE order_id = $1", created.ID).Scan(&receipts)
	require.NoError(t, err)
	assert.Equal(t, 2, receipts)

	_, err = repo.ApplyPayment(ctx, order.PaymentUpdate{OrderID: "missing", PaymentID: "pi_x", PaidAt: paidAt})
	assert.ErrorIs(t, err, apperror.ErrOrderNotFound)
}
