package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ordersvc/internal/controller/apperror"
	"ordersvc/internal/domain/order"
)

func testEngine(t *testing.T) (*gin.Engine, *order.MockOrderRepo, *order.MockCatalogClient, *order.MockPaymentClient) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	mockRepo := order.NewMockOrderRepo(ctrl)
	mockCatalog := order.NewMockCatalogClient(ctrl)
	mockPayments := order.NewMockPaymentClient(ctrl)

	service := order.NewOrderService(mockRepo, mockCatalog, mockPayments, nil, "usd")
	handler := NewOrderHandler(service)

	engine := gin.New()
	engine.POST("/orders", handler.Create)
	engine.GET("/orders", handler.Filter)
	engine.GET("/orders/:order_id", handler.Get)
	engine.PATCH("/orders/:order_id/status", handler.ChangeStatus)
	engine.GET("/orders/:order_id/events", handler.GetEvents)

	return engine, mockRepo, mockCatalog, mockPayments
}

func doRequest(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrder(t *testing.T) {
	t.Run("should return order and payment session on success", func(t *testing.T) {
		// given
		engine, mockRepo, mockCatalog, mockPayments := testEngine(t)

		mockCatalog.EXPECT().
			ValidateProducts(gomock.Any(), []string{"P1"}).
			Return([]order.Product{{ID: "P1", Name: "Keyboard", Price: 5.0}}, nil)
		mockRepo.EXPECT().
			CreateWithItems(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, n order.NewOrder) (order.Order, error) {
				return order.Order{ID: "O1", Status: order.StatusPending, TotalAmount: n.TotalAmount, TotalItems: n.TotalItems, Items: n.Items}, nil
			})
		mockPayments.EXPECT().
			CreateSession(gomock.Any(), gomock.Any()).
			Return(order.PaymentSession(`{"id":"cs_1"}`), nil)

		// when
		rec := doRequest(engine, http.MethodPost, "/orders",
			map[string]any{"items": []map[string]any{{"product_id": "P1", "quantity": 2}}})

		// then
		require.Equal(t, http.StatusCreated, rec.Code)
		var resp struct {
			Order          order.EnrichedOrder `json:"order"`
			PaymentSession json.RawMessage     `json:"payment_session"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "O1", resp.Order.ID)
		assert.JSONEq(t, `{"id":"cs_1"}`, string(resp.PaymentSession))
	})

	t.Run("should keep the order and answer 503 when the session fails", func(t *testing.T) {
		// given
		engine, mockRepo, mockCatalog, mockPayments := testEngine(t)

		mockCatalog.EXPECT().
			ValidateProducts(gomock.Any(), gomock.Any()).
			Return([]order.Product{{ID: "P1", Name: "Keyboard", Price: 5.0}}, nil)
		mockRepo.EXPECT().
			CreateWithItems(gomock.Any(), gomock.Any()).
			Return(order.Order{ID: "O1", Status: order.StatusPending, Items: []order.Item{{ProductID: "P1", Quantity: 1, Price: 5.0}}}, nil)
		mockPayments.EXPECT().
			CreateSession(gomock.Any(), gomock.Any()).
			Return(nil, apperror.ErrUnavailable)

		// when
		rec := doRequest(engine, http.MethodPost, "/orders",
			map[string]any{"items": []map[string]any{{"product_id": "P1", "quantity": 1}}})

		// then
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var resp struct {
			Order order.EnrichedOrder `json:"order"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "O1", resp.Order.ID)
	})

	t.Run("should return 400 for an empty draft", func(t *testing.T) {
		engine, _, _, _ := testEngine(t)

		rec := doRequest(engine, http.MethodPost, "/orders", map[string]any{"items": []any{}})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should return 400 when a product is unknown", func(t *testing.T) {
		// given
		engine, _, mockCatalog, _ := testEngine(t)

		mockCatalog.EXPECT().
			ValidateProducts(gomock.Any(), gomock.Any()).
			Return([]order.Product{}, nil)

		// when
		rec := doRequest(engine, http.MethodPost, "/orders",
			map[string]any{"items": []map[string]any{{"product_id": "P9", "quantity": 1}}})

		// then
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should return 503 when the catalog is down", func(t *testing.T) {
		// given
		engine, _, mockCatalog, _ := testEngine(t)

		mockCatalog.EXPECT().
			ValidateProducts(gomock.Any(), gomock.Any()).
			Return(nil, apperror.ErrUnavailable)

		// when
		rec := doRequest(engine, http.MethodPost, "/orders",
			map[string]any{"items": []map[string]any{{"product_id": "P1", "quantity": 1}}})

		// then
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestFilterOrders(t *testing.T) {
	t.Run("should apply defaults and return meta", func(t *testing.T) {
		// given
		engine, mockRepo, _, _ := testEngine(t)

		mockRepo.EXPECT().
			List(gomock.Any(), order.OrdersQuery{Page: 1, PageSize: 10}).
			Return([]order.Order{{ID: "O1", Status: order.StatusPending}}, int64(1), nil)

		// when
		rec := doRequest(engine, http.MethodGet, "/orders", nil)

		// then
		require.Equal(t, http.StatusOK, rec.Code)
		var page order.OrdersPage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Equal(t, int64(1), page.Meta.Total)
		assert.Equal(t, 1, page.Meta.Page)
		assert.Equal(t, 1, page.Meta.LastPage)
	})

	t.Run("should pass status filter and pagination through", func(t *testing.T) {
		// given
		engine, mockRepo, _, _ := testEngine(t)

		mockRepo.EXPECT().
			List(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, q order.OrdersQuery) ([]order.Order, int64, error) {
				require.NotNil(t, q.Status)
				assert.Equal(t, order.StatusPaid, *q.Status)
				assert.Equal(t, 2, q.Page)
				assert.Equal(t, 5, q.PageSize)
				return []order.Order{}, 0, nil
			})

		// when
		rec := doRequest(engine, http.MethodGet, "/orders?status=PAID&page=2&limit=5", nil)

		// then
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("should reject an unknown status", func(t *testing.T) {
		engine, _, _, _ := testEngine(t)

		rec := doRequest(engine, http.MethodGet, "/orders?status=SHIPPED", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetOrder(t *testing.T) {
	t.Run("should return the enriched order", func(t *testing.T) {
		// given
		engine, mockRepo, mockCatalog, _ := testEngine(t)

		mockRepo.EXPECT().
			GetByID(gomock.Any(), "O1", true).
			Return(order.Order{ID: "O1", Status: order.StatusPending, Items: []order.Item{{ProductID: "P1", Quantity: 1, Price: 5.0}}}, nil)
		mockCatalog.EXPECT().
			ValidateProducts(gomock.Any(), []string{"P1"}).
			Return([]order.Product{{ID: "P1", Name: "Keyboard", Price: 5.0}}, nil)

		// when
		rec := doRequest(engine, http.MethodGet, "/orders/O1", nil)

		// then
		require.Equal(t, http.StatusOK, rec.Code)
		var resp order.EnrichedOrder
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "Keyboard", resp.Items[0].Name)
	})

	t.Run("should return 404 for an unknown order", func(t *testing.T) {
		// given
		engine, mockRepo, _, _ := testEngine(t)

		mockRepo.EXPECT().
			GetByID(gomock.Any(), "missing", true).
			Return(order.Order{}, apperror.ErrOrderNotFound)

		// when
		rec := doRequest(engine, http.MethodGet, "/orders/missing", nil)

		// then
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestChangeStatus(t *testing.T) {
	t.Run("should change the status", func(t *testing.T) {
		// given
		engine, mockRepo, _, _ := testEngine(t)

		mockRepo.EXPECT().
			GetByID(gomock.Any(), "O1", false).
			Return(order.Order{ID: "O1", Status: order.StatusPending}, nil)
		mockRepo.EXPECT().
			UpdateStatus(gomock.Any(), "O1", order.StatusCancelled).
			Return(order.Order{ID: "O1", Status: order.StatusCancelled}, nil)

		// when
		rec := doRequest(engine, http.MethodPatch, "/orders/O1/status", map[string]string{"status": "CANCELLED"})

		// then
		require.Equal(t, http.StatusOK, rec.Code)
		var resp order.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, order.StatusCancelled, resp.Status)
	})

	t.Run("should return 422 for a disallowed transition", func(t *testing.T) {
		// given
		engine, mockRepo, _, _ := testEngine(t)

		mockRepo.EXPECT().
			GetByID(gomock.Any(), "O1", false).
			Return(order.Order{ID: "O1", Status: order.StatusDelivered}, nil)

		// when
		rec := doRequest(engine, http.MethodPatch, "/orders/O1/status", map[string]string{"status": "PAID"})

		// then
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("should return 422 for an unknown status", func(t *testing.T) {
		// given
		engine, mockRepo, _, _ := testEngine(t)

		mockRepo.EXPECT().
			GetByID(gomock.Any(), "O1", false).
			Return(order.Order{ID: "O1", Status: order.StatusPending}, nil)

		// when
		rec := doRequest(engine, http.MethodPatch, "/orders/O1/status", map[string]string{"status": "SHIPPED"})

		// then
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("should return 404 for an unknown order", func(t *testing.T) {
		// given
		engine, mockRepo, _, _ := testEngine(t)

		mockRepo.EXPECT().
			GetByID(gomock.Any(), "missing", false).
			Return(order.Order{}, apperror.ErrOrderNotFound)

		// when
		rec := doRequest(engine, http.MethodPatch, "/orders/missing/status", map[string]string{"status": "PAID"})

		// then
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetEvents(t *testing.T) {
	t.Run("should return an empty trail when no sink is configured", func(t *testing.T) {
		engine, _, _, _ := testEngine(t)

		rec := doRequest(engine, http.MethodGet, "/orders/O1/events", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"events":[]}`, rec.Body.String())
	})
}
