package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasktrack/tasktrack-api/internal/config"
	"github.com/tasktrack/tasktrack-api/internal/events"
	"github.com/tasktrack/tasktrack-api/internal/job"
	"github.com/tasktrack/tasktrack-api/internal/platform/logger"
	"github.com/tasktrack/tasktrack-api/internal/platform/postgres"
	"github.com/tasktrack/tasktrack-api/internal/platform/rabbitmq"
	"github.com/tasktrack/tasktrack-api/internal/service"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// application holds the shared dependencies for the server. It is assembled
// once during startup and torn down by cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger

	db        *postgres.FailoverDB
	taskStore store.TaskStore

	taskService    service.TaskService
	batchProcessor *service.TaskBatchProcessor
	pauseJob       *job.StaleTaskPauseJob

	publisher events.Publisher

	// cleanupFuncs are run in reverse order during shutdown.
	cleanupFuncs []func()
}

// initializeApp loads configuration, sets up logging, connects to the
// database, and wires the service layer together. The returned application
// is ready to serve requests; the caller is responsible for invoking cleanup.
func initializeApp(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	app := &application{
		config: cfg,
		logger: appLogger,
	}

	appLogger.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	db, err := setupDatabase(ctx, cfg, appLogger, app.addCleanup)
	if err != nil {
		app.cleanup()
		return nil, err
	}
	app.db = db

	if err := runMigrations(ctx, db.Pool(), appLogger); err != nil {
		app.cleanup()
		return nil, err
	}

	publisher, err := setupPublisher(cfg, appLogger, app.addCleanup)
	if err != nil {
		app.cleanup()
		return nil, err
	}
	app.publisher = publisher

	app.taskStore = postgres.NewPostgresTaskStore(db, appLogger)
	taskRepo := service.NewTaskRepositoryAdapter(app.taskStore, db)

	app.taskService, err = service.NewTaskService(taskRepo, publisher, appLogger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.batchProcessor, err = service.NewTaskBatchProcessor(taskRepo, appLogger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create batch processor: %w", err)
	}

	app.pauseJob, err = job.NewStaleTaskPauseJob(
		taskRepo,
		app.batchProcessor,
		cfg.Job.PausePageSize,
		cfg.Job.PauseHourUTC,
		appLogger,
	)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create pause job: %w", err)
	}

	return app, nil
}

// setupPublisher selects the task-created event sink. With an AMQP URL
// configured it connects to the broker; otherwise events only reach the log.
func setupPublisher(
	cfg *config.Config,
	appLogger *slog.Logger,
	addCleanup func(func()),
) (events.Publisher, error) {
	if cfg.Events.AMQPURL == "" {
		appLogger.Info("no message broker configured, task events will be logged only")
		return events.NewLogPublisher(appLogger), nil
	}

	publisher, err := rabbitmq.NewPublisher(
		cfg.Events.AMQPURL,
		cfg.Events.Exchange,
		cfg.Events.RoutingKey,
		appLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message broker: %w", err)
	}

	addCleanup(func() {
		if err := publisher.Close(); err != nil {
			appLogger.Warn("failed to close message broker connection",
				slog.Any("error", err))
		}
	})

	appLogger.Info("connected to message broker",
		slog.String("exchange", cfg.Events.Exchange),
		slog.String("routing_key", cfg.Events.RoutingKey))

	return publisher, nil
}

// addCleanup registers a teardown step to run during shutdown.
func (app *application) addCleanup(fn func()) {
	app.cleanupFuncs = append(app.cleanupFuncs, fn)
}

// cleanup releases application resources in reverse registration order.
func (app *application) cleanup() {
	for i := len(app.cleanupFuncs) - 1; i >= 0; i-- {
		app.cleanupFuncs[i]()
	}
	app.cleanupFuncs = nil
}

// healthCheckInterval returns the configured primary-probe interval for the
// failover health loop.
func (app *application) healthCheckInterval() time.Duration {
	secs := app.config.Database.HealthCheckIntervalSecs
	if secs <= 0 {
		secs = 15
	}
	return time.Duration(secs) * time.Second
}
