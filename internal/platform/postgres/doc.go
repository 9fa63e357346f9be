// Package postgres implements the internal/store interfaces against
// PostgreSQL. It owns query execution, row-to-entity mapping, translation of
// driver errors into store sentinels, and the primary/backup failover
// wrapper.
package postgres
