package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/addismart/storefront/internal/dal/postgres"
	"github.com/addismart/storefront/internal/dal/rabbitmq"
	outboxrepo "github.com/addismart/storefront/internal/dal/repositories/outbox/postgres"
	principalrepo "github.com/addismart/storefront/internal/dal/repositories/principal/postgres"
	"github.com/addismart/storefront/internal/otel"
	"github.com/addismart/storefront/internal/provider"
	"github.com/addismart/storefront/internal/provider/chapa"
	"github.com/addismart/storefront/internal/service/services/orderledger"
	"github.com/addismart/storefront/internal/service/services/paymentsvc"
	httptransport "github.com/addismart/storefront/internal/transport/http"
	outboxworker "github.com/addismart/storefront/internal/worker/outbox"
)

// App represents the application.
type App struct {
	orderLedger    *orderledger.OrderLedger
	paymentSvc     *paymentsvc.PaymentService
	transport      *httptransport.HTTPTransport
	outboxWorker   *outboxworker.Worker
	rabbitMqClient *rabbitmq.Client
	postgresClient *postgres.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()
	rabbitMqClient := rabbitmq.MustNewClient()

	provider.Register("chapa", chapa.New())

	orderLedger := orderledger.MustNewOrderLedger(
		orderledger.WithPostgresClient(postgresClient),
		orderledger.WithPrincipalRepository(principalrepo.NewPrincipalRepository(postgresClient.Pool())),
	)

	paymentSvc := paymentsvc.MustNewPaymentService(
		paymentsvc.WithPostgresClient(postgresClient),
		paymentsvc.WithOrderLedger(orderLedger),
	)

	transport := httptransport.NewHTTPTransport(orderLedger, paymentSvc)
	transport.RegisterRoutes()

	outboxWorker := outboxworker.NewWorker(
		outboxrepo.NewOutboxRepository(postgresClient.Pool()),
		rabbitMqClient,
	)

	return &App{
		orderLedger:    orderLedger,
		paymentSvc:     paymentSvc,
		transport:      transport,
		outboxWorker:   outboxWorker,
		rabbitMqClient: rabbitMqClient,
		postgresClient: postgresClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting outbox worker")
		a.outboxWorker.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown stops components sequentially: outbox worker, HTTP
// server, RabbitMQ, PostgreSQL, and OpenTelemetry.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.outboxWorker.Stop()
	slog.Info("Outbox worker stopped gracefully")

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	slog.Info("Application shutdown complete")
}
