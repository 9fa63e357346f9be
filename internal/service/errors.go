// Package service provides application-level services for managing the task
// lifecycle: creation, partial updates, status transitions with time accrual,
// and the batch pause path used by the stale-task job.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrTaskInProgress indicates the one-in-progress-task-per-assignee rule
	// would be violated by the requested change. No state is mutated when this
	// error is returned. API layer should map this to HTTP 409 Conflict.
	ErrTaskInProgress = errors.New("assignee already has a task in progress")
)
