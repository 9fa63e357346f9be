package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/pressly/goose/v3"

	"github.com/tasktrack/tasktrack-api/internal/config"
	"github.com/tasktrack/tasktrack-api/internal/platform/postgres"
	"github.com/tasktrack/tasktrack-api/migrations"
)

const dbPingTimeout = 5 * time.Second

// setupDatabase opens the primary connection pool and, when a backup URL is
// configured, a second pool wrapped in a FailoverDB. Pool close functions are
// registered through addCleanup.
func setupDatabase(
	ctx context.Context,
	cfg *config.Config,
	appLogger *slog.Logger,
	addCleanup func(func()),
) (*postgres.FailoverDB, error) {
	primary, err := openPool(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to primary database: %w", err)
	}
	addCleanup(func() { closePool(primary, "primary", appLogger) })

	var backup *sql.DB
	if cfg.Database.BackupURL != "" {
		backup, err = openPool(ctx, cfg.Database.BackupURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to backup database: %w", err)
		}
		addCleanup(func() { closePool(backup, "backup", appLogger) })

		appLogger.Info("backup database configured, failover enabled")
	}

	return postgres.NewFailoverDB(primary, backup, appLogger), nil
}

// openPool opens and verifies a single connection pool.
func openPool(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func closePool(db *sql.DB, name string, appLogger *slog.Logger) {
	if err := db.Close(); err != nil {
		appLogger.Warn("failed to close database pool",
			slog.String("pool", name),
			slog.Any("error", err))
	}
}

// runMigrations applies the embedded goose migrations against the given pool.
func runMigrations(ctx context.Context, db *sql.DB, appLogger *slog.Logger) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(&slogGooseLogger{logger: appLogger})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	appLogger.Info("database migrations applied")
	return nil
}

// slogGooseLogger forwards goose output to the structured logger.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
