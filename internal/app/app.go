package app

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ordersvc/config"
	"ordersvc/internal/controller/http"
	"ordersvc/internal/controller/http/handlers"
	"ordersvc/internal/domain/order"
	"ordersvc/internal/external/catalog"
	"ordersvc/internal/external/opensearch"
	"ordersvc/internal/external/payments"
	order_repo "ordersvc/internal/repo/order"
	"ordersvc/internal/repo/order_eventsink"
	"ordersvc/pkg/health"
	"ordersvc/pkg/logger"
	"ordersvc/pkg/postgres"
)

//go:embed migrations/*.sql
var MIGRATION_FS embed.FS

const shutdownTimeout = 10 * time.Second

func Run(cfg config.Config) {
	logger.Setup(logger.Options{
		Level:   cfg.LogLevel,
		Console: cfg.LogFormat == "console",
	})

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := postgres.New(cfg.PgURL, postgres.MaxPoolSize(cfg.PgPoolMax))
	if err != nil {
		slog.Error("Failed to connect to Postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := ApplyMigrations(cfg.PgURL, MIGRATION_FS); err != nil {
		slog.Error("Failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	orderRepo := order_repo.NewPgOrderRepo(pool)

	catalogClient := catalog.New(
		cfg.CatalogBaseURL,
		cfg.CatalogValidatePath,
		&nethttp.Client{Timeout: cfg.HTTPCatalogClientTimeout},
	)
	paymentsClient := payments.New(
		cfg.PaymentsBaseURL,
		cfg.PaymentsSessionPath,
		&nethttp.Client{Timeout: cfg.HTTPPaymentsClientTimeout},
	)

	eventSink, err := newEventSink(ctx, cfg, pool)
	if err != nil {
		slog.Error("Failed to set up event sink", slog.Any("error", err))
		os.Exit(1)
	}

	orderService := order.NewOrderService(orderRepo, catalogClient, paymentsClient, eventSink, cfg.PaymentCurrency)

	orderHandler := handlers.NewOrderHandler(orderService)

	checkers := []health.Checker{health.NewPostgresChecker(pool.Pool)}
	if len(cfg.KafkaBrokers) > 0 {
		checkers = append(checkers, health.NewKafkaChecker(cfg.KafkaBrokers))
	}
	healthRegistry := health.NewRegistry(checkers...)

	engine := NewGinEngine()
	router := http.NewRouter(orderHandler, healthRegistry)
	router.SetUp(engine)

	if len(cfg.KafkaBrokers) > 0 {
		StartWorkers(ctx, cfg, orderService)
	}

	server := &nethttp.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	go func() {
		slog.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			slog.Error("HTTP server error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", slog.Any("error", err))
	}
}

// newEventSink prefers OpenSearch when configured, otherwise the audit trail
// stays in Postgres next to the orders.
func newEventSink(ctx context.Context, cfg config.Config, pool *postgres.Postgres) (order.EventSink, error) {
	if len(cfg.OpensearchUrls) > 0 {
		slog.Info("Using OpenSearch event sink", "index", cfg.OpensearchIndexOrders)
		return opensearch.NewEventSink(ctx, cfg.OpensearchUrls, cfg.OpensearchIndexOrders)
	}
	return order_eventsink.NewPgOrderEventSink(pool.Pool, pool.Builder), nil
}
