package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tasktrack/tasktrack-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// It handles domain validation internally.
	// Returns validation errors from the domain Task if data is invalid.
	// Returns ErrAssigneeBusy if the write would give the assignee a second
	// task in progress.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update saves changes to an existing task and stamps its UpdatedAt.
	// Returns ErrTaskNotFound if the task does not exist.
	// Returns ErrAssigneeBusy if the write would give the assignee a second
	// task in progress.
	Update(ctx context.Context, task *domain.Task) error

	// UpdateAll saves changes to multiple tasks.
	// IMPORTANT: This method MUST be run within a transaction for atomicity.
	// Use the WithTx method with store.RunInTransaction to ensure proper
	// transaction handling; calling it outside a transaction may result in a
	// partially persisted batch if a failure occurs mid-way.
	UpdateAll(ctx context.Context, tasks []*domain.Task) error

	// Delete removes a task from the store by its ID.
	// Deleting an absent ID is not an error: the operation is idempotent.
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves all tasks ordered by creation time.
	// Returns an empty slice if the store holds no tasks.
	List(ctx context.Context) ([]*domain.Task, error)

	// FindByAssigneeAndStatus retrieves the task with the given assignee and
	// status, or nil if no such task exists. With the one-in-progress-task-
	// per-assignee rule enforced at the storage level, at most one row can
	// match for the IN_PROGRESS status.
	FindByAssigneeAndStatus(
		ctx context.Context,
		assigneeID uuid.UUID,
		status domain.TaskStatus,
	) (*domain.Task, error)

	// FindByStatus retrieves up to limit tasks with the specified status,
	// skipping offset rows. Results are ordered by id ascending: the batch
	// pause job depends on a stable ordering so that rows are neither skipped
	// nor reprocessed as their status changes underfoot.
	FindByStatus(
		ctx context.Context,
		status domain.TaskStatus,
		limit, offset int,
	) ([]*domain.Task, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) TaskStore
}
