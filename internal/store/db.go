package store

import (
	"context"
	"database/sql"
)

// DBTX is the database surface the stores write through. Both *sql.DB and
// *sql.Tx satisfy it, so a store can run the same queries inside or outside
// a transaction. The failover wrapper in platform/postgres implements it too.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PoolProvider yields the pool new transactions should begin on. Resolving
// the pool per transaction rather than once at startup lets the failover
// wrapper route whole transactions to whichever pool is currently healthy.
type PoolProvider interface {
	Pool() *sql.DB
}

// SinglePool is a PoolProvider over one fixed pool, for deployments and
// tests without a backup database.
type SinglePool struct {
	DB *sql.DB
}

func (s SinglePool) Pool() *sql.DB { return s.DB }
