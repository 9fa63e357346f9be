package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"
)

// FailoverDB routes database calls to a primary pool and, when the primary
// starts failing with connection faults, to an optional backup pool. The
// routing state is owned here and changed only by explicit events: a failed
// call switches to the backup, and the health-check loop switches back once
// the primary answers pings again. There is no ambient or request-global
// flag; callers just see a store.DBTX.
//
// Transactions are not routed call-by-call: Pool returns the currently active
// *sql.DB and the whole transaction runs against that pool.
type FailoverDB struct {
	primary *sql.DB
	backup  *sql.DB
	logger  *slog.Logger

	mu          sync.RWMutex
	usingBackup bool
}

// NewFailoverDB creates a FailoverDB over the given pools. The backup pool
// may be nil, in which case the wrapper is a passthrough to the primary.
func NewFailoverDB(primary, backup *sql.DB, logger *slog.Logger) *FailoverDB {
	if primary == nil {
		panic("primary pool cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &FailoverDB{
		primary: primary,
		backup:  backup,
		logger:  logger.With(slog.String("component", "failover_db")),
	}
}

// Pool returns the currently active *sql.DB. Services use it to begin
// transactions; the whole transaction then runs against that pool.
func (f *FailoverDB) Pool() *sql.DB {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.usingBackup && f.backup != nil {
		return f.backup
	}
	return f.primary
}

// UsingBackup reports whether calls are currently routed to the backup pool.
func (f *FailoverDB) UsingBackup() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.usingBackup
}

// ExecContext implements store.DBTX.
func (f *FailoverDB) ExecContext(
	ctx context.Context,
	query string,
	args ...any,
) (sql.Result, error) {
	res, err := f.Pool().ExecContext(ctx, query, args...)
	if f.shouldFailOver(err) {
		f.switchToBackup(err)
		return f.backup.ExecContext(ctx, query, args...)
	}
	return res, err
}

// PrepareContext implements store.DBTX.
func (f *FailoverDB) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	stmt, err := f.Pool().PrepareContext(ctx, query)
	if f.shouldFailOver(err) {
		f.switchToBackup(err)
		return f.backup.PrepareContext(ctx, query)
	}
	return stmt, err
}

// QueryContext implements store.DBTX.
func (f *FailoverDB) QueryContext(
	ctx context.Context,
	query string,
	args ...any,
) (*sql.Rows, error) {
	rows, err := f.Pool().QueryContext(ctx, query, args...)
	if f.shouldFailOver(err) {
		f.switchToBackup(err)
		return f.backup.QueryContext(ctx, query, args...)
	}
	return rows, err
}

// QueryRowContext implements store.DBTX.
// *sql.Row defers its error to Scan, so connection faults on this path do not
// trigger a failover; the next Exec/Query call will.
func (f *FailoverDB) QueryRowContext(
	ctx context.Context,
	query string,
	args ...any,
) *sql.Row {
	return f.Pool().QueryRowContext(ctx, query, args...)
}

// RunHealthLoop probes the primary at the given interval while the backup is
// active and switches back as soon as the primary answers. It blocks until
// the context is cancelled, so callers run it in its own goroutine.
func (f *FailoverDB) RunHealthLoop(ctx context.Context, interval time.Duration) {
	if f.backup == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !f.UsingBackup() {
				continue
			}

			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := f.primary.PingContext(pingCtx)
			cancel()

			if err != nil {
				f.logger.Debug("primary still unreachable",
					slog.String("error", err.Error()))
				continue
			}

			f.mu.Lock()
			f.usingBackup = false
			f.mu.Unlock()
			f.logger.Info("primary recovered, switching back from backup")
		}
	}
}

// shouldFailOver reports whether an error warrants retrying the call on the
// backup pool: a connection-level fault while the primary is active and a
// backup is configured.
func (f *FailoverDB) shouldFailOver(err error) bool {
	if err == nil || f.backup == nil || f.UsingBackup() {
		return false
	}
	return isConnectionError(err)
}

// switchToBackup flips routing to the backup pool.
func (f *FailoverDB) switchToBackup(cause error) {
	f.mu.Lock()
	already := f.usingBackup
	f.usingBackup = true
	f.mu.Unlock()

	if !already {
		f.logger.Error("primary database failed, switching to backup",
			slog.String("error", cause.Error()))
	}
}

// isConnectionError distinguishes connection-level faults (worth retrying on
// the backup) from query-level errors (which would fail identically there).
func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
