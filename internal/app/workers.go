package app

import (
	"context"
	"log/slog"

	"ordersvc/config"
	"ordersvc/internal/consumers"
	"ordersvc/internal/domain/order"
	"ordersvc/internal/external/kafka"
	"ordersvc/internal/messaging"
)

// StartWorkers starts the payment confirmation consumer. It stops when ctx
// is cancelled.
func StartWorkers(ctx context.Context, cfg config.Config, orderService *order.OrderService) {
	paymentController := consumers.NewPaymentMessageController(orderService)

	dlq := kafka.NewDLQPublisher(cfg.KafkaBrokers, cfg.KafkaPaymentsDLQTopic)

	handler := messaging.WithMetrics(
		messaging.WithDLQ(
			messaging.WithRetry(paymentController.HandleMessage, messaging.DefaultRetryConfig()),
			dlq,
		),
		cfg.KafkaPaymentsTopic,
		cfg.KafkaPaymentsConsumerGroup,
	)

	consumer := kafka.NewConsumer(
		cfg.KafkaBrokers,
		cfg.KafkaPaymentsTopic,
		cfg.KafkaPaymentsConsumerGroup,
	)
	runner := messaging.NewRunner([]messaging.Worker{consumer}, handler)

	go func() {
		slog.Info("Starting payment confirmation consumer",
			"topic", cfg.KafkaPaymentsTopic,
			"group", cfg.KafkaPaymentsConsumerGroup)
		if err := runner.Start(ctx); err != nil {
			slog.Error("Payment runner failed", slog.Any("error", err))
		}
		_ = dlq.Close()
	}()
}
