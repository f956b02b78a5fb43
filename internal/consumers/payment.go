package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"ordersvc/internal/controller/apperror"
	"ordersvc/internal/domain/order"
	"ordersvc/internal/messaging"
)

// PaymentMessageController handles payment.succeeded messages from Kafka.
type PaymentMessageController struct {
	service *order.OrderService
}

// NewPaymentMessageController creates a new payment message controller.
func NewPaymentMessageController(s *order.OrderService) *PaymentMessageController {
	return &PaymentMessageController{
		service: s,
	}
}

// HandleMessage processes a single payment confirmation message.
func (c *PaymentMessageController) HandleMessage(ctx context.Context, key, value []byte) error {
	var env messaging.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal envelope",
			"key", string(key),
			slog.Any("error", err))
		return fmt.Errorf("unmarshal envelope: %w", err)
	}

	slog.DebugContext(ctx, "Processing payment message",
		"event_id", env.EventID,
		"key", env.Key,
		"type", env.Type)

	var confirmation order.PaymentConfirmation
	if err := json.Unmarshal(env.Payload, &confirmation); err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal payment confirmation",
			"event_id", env.EventID,
			slog.Any("error", err))
		return fmt.Errorf("unmarshal payment confirmation: %w", err)
	}

	if err := c.service.ReconcilePayment(ctx, confirmation); err != nil {
		// A confirmation for an unknown order is consumed, not redelivered:
		// retrying cannot make the order appear.
		if errors.Is(err, apperror.ErrOrderNotFound) {
			slog.WarnContext(ctx, "Payment confirmation for unknown order ignored",
				"event_id", env.EventID,
				"order_id", confirmation.OrderID,
				"payment_id", confirmation.PaymentID)
			return nil
		}

		slog.ErrorContext(ctx, "Failed to reconcile payment",
			"event_id", env.EventID,
			"order_id", confirmation.OrderID,
			slog.Any("error", err))
		return err
	}

	slog.InfoContext(ctx, "Payment confirmation processed",
		"event_id", env.EventID,
		"order_id", confirmation.OrderID,
		"payment_id", confirmation.PaymentID)

	return nil
}
