package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ordersvc/internal/controller/apperror"
	"ordersvc/internal/domain/order"
	"ordersvc/pkg/pointers"
)

type OrderHandler struct {
	service *order.OrderService
}

func NewOrderHandler(s *order.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

type createOrderResponse struct {
	Order          order.EnrichedOrder  `json:"order"`
	PaymentSession order.PaymentSession `json:"payment_session,omitempty"`
}

// Create persists the order, then asks the gateway for a checkout session.
// A session failure does not roll the order back: it is already durable and
// the response says so alongside the gateway error.
func (h *OrderHandler) Create(c *gin.Context) {
	var draft order.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	created, err := h.service.Create(c, draft)
	if err != nil {
		respondError(c, err)
		return
	}

	session, err := h.service.CreatePaymentSession(c, created)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"message": err.Error(),
			"order":   created,
		})
		return
	}

	c.JSON(http.StatusCreated, createOrderResponse{
		Order:          created,
		PaymentSession: session,
	})
}

type filterParams struct {
	Status string `form:"status" binding:"omitempty"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
}

func (h *OrderHandler) Filter(c *gin.Context) {
	var params filterParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if params.Page == 0 {
		params.Page = 1
	}
	if params.Limit == 0 {
		params.Limit = 10
	}

	query := order.OrdersQuery{
		Page:     params.Page,
		PageSize: params.Limit,
	}
	if params.Status != "" {
		status, err := order.NewStatus(params.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		query.Status = pointers.Ptr(status)
	}

	page, err := h.service.FindAll(c, query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *OrderHandler) Get(c *gin.Context) {
	orderID := c.Param("order_id")

	res, err := h.service.FindOne(c, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	orderID := c.Param("order_id")

	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	res, err := h.service.ChangeStatus(c, orderID, order.Status(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *OrderHandler) GetEvents(c *gin.Context) {
	orderID := c.Param("order_id")

	events, err := h.service.GetOrderEvents(c, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if events == nil {
		events = []order.OrderEvent{}
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// respondError maps domain sentinels onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperror.ErrInvalidDraft),
		errors.Is(err, apperror.ErrInvalidQuery),
		errors.Is(err, apperror.ErrProductNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, apperror.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, apperror.ErrInvalidStatus):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
	case errors.Is(err, apperror.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
}
