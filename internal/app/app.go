package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crustline/order-svc/internal/dal/postgres"
	"github.com/crustline/order-svc/internal/dal/rabbitmq"
	notificationrepo "github.com/crustline/order-svc/internal/dal/repositories/notification/rabbitmq"
	outboxrepo "github.com/crustline/order-svc/internal/dal/repositories/outbox/postgres"
	"github.com/crustline/order-svc/internal/metrics"
	"github.com/crustline/order-svc/internal/otel"
	"github.com/crustline/order-svc/internal/service/services/lifecyclesvc"
	"github.com/crustline/order-svc/internal/service/services/projectionsvc"
	httptransport "github.com/crustline/order-svc/internal/transport/http"
	outboxworker "github.com/crustline/order-svc/internal/worker/outbox"
)

// orderEventsChannel is the Postgres NOTIFY channel the status trigger
// publishes to.
const orderEventsChannel = "order_events"

// App represents the application.
type App struct {
	lifecycleSvc   *lifecyclesvc.OrderLifecycleService
	projectionSvc  *projectionsvc.ProjectionService
	transport      *httptransport.HTTPTransport
	outboxWorker   *outboxworker.Worker
	postgresClient *postgres.Client
	rabbitMqClient *rabbitmq.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()
	rabbitMqClient := rabbitmq.MustNewClient()

	dispatcher := notificationrepo.NewNotificationRabbitMQRepository(rabbitMqClient)
	outboxRepository := outboxrepo.NewOutboxRepository(postgresClient.Pool())
	m := metrics.MustNewMetrics()

	lifecycleSvc := lifecyclesvc.MustNewOrderLifecycleService(
		lifecyclesvc.WithPostgresClient(postgresClient),
		lifecyclesvc.WithDispatcher(dispatcher),
		lifecyclesvc.WithOutboxRepository(outboxRepository),
		lifecyclesvc.WithMetrics(m),
	)

	projectionSvc := projectionsvc.MustNewProjectionService(
		projectionsvc.WithPostgresClient(postgresClient),
		projectionsvc.WithListener(postgres.NewListener(postgresClient, orderEventsChannel)),
	)

	transport := httptransport.NewHTTPTransport(lifecycleSvc, projectionSvc)
	transport.RegisterRoutes()

	outboxWorker := outboxworker.NewWorker(outboxRepository, rabbitMqClient)

	return &App{
		lifecycleSvc:   lifecycleSvc,
		projectionSvc:  projectionSvc,
		transport:      transport,
		outboxWorker:   outboxWorker,
		postgresClient: postgresClient,
		rabbitMqClient: rabbitMqClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting change subscription")
		if err := a.projectionSvc.Run(runCtx); err != nil && runCtx.Err() == nil {
			slog.Error("Change subscription error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting outbox worker")
		a.outboxWorker.Start(runCtx)
	}()

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	cancelRun()
	a.outboxWorker.Stop()

	// Let in-flight notification dispatches finish before the broker
	// connection goes away.
	a.lifecycleSvc.Drain()

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Trace provider shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
