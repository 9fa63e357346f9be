package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tasktrack/tasktrack-api/internal/domain"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// NewTaskRepositoryAdapter creates a new adapter that allows a store.TaskStore
// to be used where a TaskRepository is expected. The pool provider is asked
// for the pool each time a transaction begins, so pool routing decisions
// (failover) made after startup still take effect.
func NewTaskRepositoryAdapter(taskStore store.TaskStore, pools store.PoolProvider) TaskRepository {
	return &taskRepositoryAdapter{
		taskStore: taskStore,
		pools:     pools,
	}
}

// taskRepositoryAdapter adapts a store.TaskStore to the TaskRepository interface
type taskRepositoryAdapter struct {
	taskStore store.TaskStore
	pools     store.PoolProvider
}

// Create implements TaskRepository.Create
func (a *taskRepositoryAdapter) Create(ctx context.Context, task *domain.Task) error {
	return a.taskStore.Create(ctx, task)
}

// GetByID implements TaskRepository.GetByID
func (a *taskRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return a.taskStore.GetByID(ctx, id)
}

// Update implements TaskRepository.Update
func (a *taskRepositoryAdapter) Update(ctx context.Context, task *domain.Task) error {
	return a.taskStore.Update(ctx, task)
}

// UpdateAll implements TaskRepository.UpdateAll
func (a *taskRepositoryAdapter) UpdateAll(ctx context.Context, tasks []*domain.Task) error {
	return a.taskStore.UpdateAll(ctx, tasks)
}

// Delete implements TaskRepository.Delete
func (a *taskRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	return a.taskStore.Delete(ctx, id)
}

// List implements TaskRepository.List
func (a *taskRepositoryAdapter) List(ctx context.Context) ([]*domain.Task, error) {
	return a.taskStore.List(ctx)
}

// FindByAssigneeAndStatus implements TaskRepository.FindByAssigneeAndStatus
func (a *taskRepositoryAdapter) FindByAssigneeAndStatus(
	ctx context.Context,
	assigneeID uuid.UUID,
	status domain.TaskStatus,
) (*domain.Task, error) {
	return a.taskStore.FindByAssigneeAndStatus(ctx, assigneeID, status)
}

// FindByStatus implements TaskRepository.FindByStatus
func (a *taskRepositoryAdapter) FindByStatus(
	ctx context.Context,
	status domain.TaskStatus,
	limit, offset int,
) ([]*domain.Task, error) {
	return a.taskStore.FindByStatus(ctx, status, limit, offset)
}

// WithTx implements TaskRepository.WithTx
func (a *taskRepositoryAdapter) WithTx(tx *sql.Tx) TaskRepository {
	return &taskRepositoryAdapter{
		taskStore: a.taskStore.WithTx(tx),
		pools:     a.pools,
	}
}

// DB implements TaskRepository.DB
func (a *taskRepositoryAdapter) DB() *sql.DB {
	return a.pools.Pool()
}
