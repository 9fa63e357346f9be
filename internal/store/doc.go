// Package store declares the persistence interfaces the rest of the
// application programs against. The task store, the DBTX surface, and the
// transaction helper live here; the PostgreSQL implementations live in
// internal/platform/postgres.
package store
