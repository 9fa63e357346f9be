package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tasktrack/tasktrack-api/internal/domain"
	"github.com/tasktrack/tasktrack-api/internal/platform/logger"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
// It returns a new store instance bound to the given transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TaskStore.Create
// It saves a new task to the database, handling domain validation.
// Returns validation errors from the domain Task if data is invalid.
// Returns store.ErrAssigneeBusy if the write trips the one-in-progress-task-
// per-assignee index.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, assignee_id, title, description, status, time_spent_ms, started_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		assigneeArg(task),
		task.Title,
		task.Description,
		task.Status,
		task.TimeSpent.Milliseconds(),
		startedAtArg(task),
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		mapped := MapError(err)
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return mapped
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// It retrieves a task by its unique ID.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving task by ID", slog.String("task_id", id.String()))

	query := taskSelectColumns + `
		FROM tasks
		WHERE id = $1
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}

	return task, nil
}

// Update implements store.TaskStore.Update
// It saves changes to an existing task and stamps its UpdatedAt.
// Returns store.ErrTaskNotFound if the task does not exist.
// Returns store.ErrAssigneeBusy if the write trips the one-in-progress-task-
// per-assignee index.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	task.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tasks
		SET assignee_id = $1, title = $2, description = $3, status = $4,
		    time_spent_ms = $5, started_at = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		assigneeArg(task),
		task.Title,
		task.Description,
		task.Status,
		task.TimeSpent.Milliseconds(),
		startedAtArg(task),
		task.UpdatedAt,
		task.ID,
	)

	if err != nil {
		mapped := MapError(err)
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("status", string(task.Status)))
		return mapped
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("task not found for update",
			slog.String("task_id", task.ID.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task updated successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// UpdateAll implements store.TaskStore.UpdateAll
// It saves changes to multiple tasks. The caller is responsible for running
// this within a transaction (via WithTx) when atomicity is required.
func (s *PostgresTaskStore) UpdateAll(ctx context.Context, tasks []*domain.Task) error {
	for _, task := range tasks {
		if err := s.Update(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

// Delete implements store.TaskStore.Delete
// It removes a task from the database by its ID. Deleting an absent ID is
// treated as a successful no-op.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM tasks
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("task already absent, delete is a no-op",
			slog.String("task_id", id.String()))
		return nil
	}

	log.Info("task deleted successfully", slog.String("task_id", id.String()))
	return nil
}

// List implements store.TaskStore.List
// It retrieves all tasks ordered by creation time.
// Returns an empty slice if no tasks exist.
func (s *PostgresTaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := taskSelectColumns + `
		FROM tasks
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, err
	}

	return collectTasks(rows, log)
}

// FindByAssigneeAndStatus implements store.TaskStore.FindByAssigneeAndStatus
// It retrieves the task with the given assignee and status, or nil if no such
// task exists.
func (s *PostgresTaskStore) FindByAssigneeAndStatus(
	ctx context.Context,
	assigneeID uuid.UUID,
	status domain.TaskStatus,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := taskSelectColumns + `
		FROM tasks
		WHERE assignee_id = $1 AND status = $2
		LIMIT 1
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, assigneeID, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Error("failed to find task by assignee and status",
			slog.String("error", err.Error()),
			slog.String("assignee_id", assigneeID.String()),
			slog.String("status", string(status)))
		return nil, err
	}

	return task, nil
}

// FindByStatus implements store.TaskStore.FindByStatus
// It retrieves up to limit tasks with the specified status, skipping offset
// rows, ordered by id ascending. The stable ordering keeps the batch pause
// job from skipping or reprocessing rows as their status changes underfoot.
func (s *PostgresTaskStore) FindByStatus(
	ctx context.Context,
	status domain.TaskStatus,
	limit, offset int,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	log.Debug("finding tasks by status",
		slog.String("status", string(status)),
		slog.Int("limit", limit),
		slog.Int("offset", offset))

	query := taskSelectColumns + `
		FROM tasks
		WHERE status = $1
		ORDER BY id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		log.Error("failed to query tasks by status",
			slog.String("error", err.Error()),
			slog.String("status", string(status)))
		return nil, err
	}

	return collectTasks(rows, log)
}

// taskSelectColumns is the shared column list for task queries, kept in one
// place so every scan sees the same shape.
const taskSelectColumns = `
		SELECT id, assignee_id, title, description, status, time_spent_ms, started_at, created_at, updated_at`

// rowScanner abstracts *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row into a domain Task.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		assigneeID  uuid.NullUUID
		description sql.NullString
		status      string
		timeSpentMS int64
		startedAt   sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&assigneeID,
		&task.Title,
		&description,
		&status,
		&timeSpentMS,
		&startedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assigneeID.Valid {
		id := assigneeID.UUID
		task.AssigneeID = &id
	}
	task.Description = description.String
	task.Status = domain.TaskStatus(status)
	task.TimeSpent = time.Duration(timeSpentMS) * time.Millisecond
	if startedAt.Valid {
		t := startedAt.Time.UTC()
		task.StartedAt = &t
	}

	return &task, nil
}

// collectTasks drains a result set into a slice, always returning a non-nil
// slice on success.
func collectTasks(rows *sql.Rows, log *slog.Logger) ([]*domain.Task, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return tasks, nil
}

// assigneeArg converts the optional assignee pointer into a driver-friendly
// nullable value.
func assigneeArg(task *domain.Task) uuid.NullUUID {
	if task.AssigneeID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *task.AssigneeID, Valid: true}
}

// startedAtArg converts the optional active-interval marker into a
// driver-friendly nullable value.
func startedAtArg(task *domain.Task) sql.NullTime {
	if task.StartedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *task.StartedAt, Valid: true}
}
