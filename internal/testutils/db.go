// Package testutils provides common utilities for testing across the application.
// It centralizes repeated test setup and teardown logic to avoid duplication
// and standardize testing practices.
package testutils

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/stretchr/testify/require"
)

// IsIntegrationTestEnvironment returns true if the environment is configured
// for running integration tests with a database connection.
// Integration tests should check this and skip if not in an integration test environment.
func IsIntegrationTestEnvironment() bool {
	return os.Getenv("DATABASE_URL") != ""
}

// SkipIfNoDatabase skips the current test when no integration database is
// configured. Call it at the top of every test that needs a real database.
func SkipIfNoDatabase(t *testing.T) {
	t.Helper()
	if !IsIntegrationTestEnvironment() {
		t.Skip("Skipping integration test - DATABASE_URL not set")
	}
}

// GetTestDatabaseURL returns the database URL for integration tests.
// It fails the test if DATABASE_URL is not set; pair it with SkipIfNoDatabase.
func GetTestDatabaseURL(t *testing.T) string {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL environment variable is required for this test")
	}
	return dbURL
}

// OpenTestDB opens a database connection for an integration test and
// registers its cleanup. The connection is verified with a ping so that a
// misconfigured URL fails fast instead of at first query.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", GetTestDatabaseURL(t))
	require.NoError(t, err, "failed to open test database")

	require.NoError(t, db.PingContext(context.Background()), "failed to ping test database")

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	return db
}

// ResetTasksTable removes all task rows so each test starts from a clean
// slate. Tests share one database, so they must not assume rows survive.
func ResetTasksTable(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), "DELETE FROM tasks")
	require.NoError(t, err, "failed to reset tasks table")
}
