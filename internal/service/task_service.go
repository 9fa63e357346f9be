package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tasktrack/tasktrack-api/internal/domain"
	"github.com/tasktrack/tasktrack-api/internal/events"
	"github.com/tasktrack/tasktrack-api/internal/platform/logger"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// TaskServiceError is a custom error type for task service errors.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
func NewTaskServiceError(operation, message string, err error) *TaskServiceError {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// TaskRepository defines the repository interface for the service layer
type TaskRepository interface {
	// Create saves a new task to the store
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update saves changes to an existing task
	Update(ctx context.Context, task *domain.Task) error

	// UpdateAll saves changes to multiple tasks; run it inside a transaction
	UpdateAll(ctx context.Context, tasks []*domain.Task) error

	// Delete removes a task by its ID; deleting an absent ID is a no-op
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves all tasks ordered by creation time
	List(ctx context.Context) ([]*domain.Task, error)

	// FindByAssigneeAndStatus retrieves the task with the given assignee and
	// status, or nil if no such task exists
	FindByAssigneeAndStatus(
		ctx context.Context,
		assigneeID uuid.UUID,
		status domain.TaskStatus,
	) (*domain.Task, error)

	// FindByStatus retrieves up to limit tasks with the given status in a
	// stable id-ascending order, skipping offset rows
	FindByStatus(
		ctx context.Context,
		status domain.TaskStatus,
		limit, offset int,
	) ([]*domain.Task, error)

	// WithTx returns a new repository instance that uses the provided transaction
	// This is used for transactional operations
	WithTx(tx *sql.Tx) TaskRepository

	// DB returns the underlying database connection
	DB() *sql.DB
}

// TaskView is the caller-facing rendering of a task. TimeSpent is the current
// time spent computed at read time, rendered as zero-padded HH:mm:ss with
// unbounded hours.
type TaskView struct {
	ID          uuid.UUID         `json:"id"`
	AssigneeID  *uuid.UUID        `json:"assignee_id,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Status      domain.TaskStatus `json:"status"`
	TimeSpent   string            `json:"time_spent"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TaskUpdate carries the fields of a partial task update. Pointer fields that
// are nil are left untouched; SetAssignee and SetDescription distinguish
// "clear the field" from "field not present" for the two nullable fields.
type TaskUpdate struct {
	AssigneeID     *uuid.UUID
	SetAssignee    bool
	Title          *string
	Description    *string
	SetDescription bool
	Status         *domain.TaskStatus
}

// TaskService provides task lifecycle operations
type TaskService interface {
	// CreateTask creates a new task in status TODO and emits a best-effort
	// creation notification
	CreateTask(ctx context.Context, assigneeID *uuid.UUID, title, description string) (*domain.Task, error)

	// GetTask retrieves a task by its ID, rendered for callers.
	// Returns store.ErrTaskNotFound if the task does not exist.
	GetTask(ctx context.Context, taskID uuid.UUID) (*TaskView, error)

	// ListTasks retrieves all tasks, rendered for callers
	ListTasks(ctx context.Context) ([]*TaskView, error)

	// UpdateTaskStatus transitions a task to a new status, performing the
	// time-accrual side effects of the transition.
	// Returns ErrTaskInProgress if the transition would give the assignee a
	// second task in progress.
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, newStatus domain.TaskStatus) error

	// UpdateTask applies a partial update to a task. A status change through
	// this path does not perform time accrual; use UpdateTaskStatus for that.
	// Returns ErrTaskInProgress if the update would give an assignee a second
	// task in progress.
	UpdateTask(ctx context.Context, taskID uuid.UUID, update TaskUpdate) error

	// DeleteTask removes a task. Deleting an absent ID is not an error.
	DeleteTask(ctx context.Context, taskID uuid.UUID) error
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	taskRepo  TaskRepository
	publisher events.Publisher
	logger    *slog.Logger
	// now is the clock used for all time accrual; overridable in tests
	now func() time.Time
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	taskRepo TaskRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) (TaskService, error) {
	if taskRepo == nil {
		return nil, domain.NewValidationError("taskRepo", "cannot be nil", domain.ErrValidation)
	}
	if publisher == nil {
		return nil, domain.NewValidationError("publisher", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		taskRepo:  taskRepo,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "task_service")),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateTask implements TaskService.CreateTask
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	assigneeID *uuid.UUID,
	title, description string,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(assigneeID, title, description)
	if err != nil {
		log.Debug("rejected invalid task", slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create_task", "invalid task data", err)
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		log.Error("failed to save task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("title", task.Title))

	// Notification is best-effort: a publish failure must not fail or roll
	// back the creation.
	event := events.NewTaskCreatedEvent(task.ID, task.AssigneeID, task.Title)
	if err := s.publisher.PublishTaskCreated(ctx, event); err != nil {
		log.Warn("failed to publish task created event",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
	}

	return task, nil
}

// GetTask implements TaskService.GetTask
func (s *taskServiceImpl) GetTask(ctx context.Context, taskID uuid.UUID) (*TaskView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, NewTaskServiceError("get_task", "task not found", store.ErrTaskNotFound)
		}

		log.Error("failed to retrieve task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, NewTaskServiceError("get_task", "failed to retrieve task", err)
	}

	return s.renderTask(task), nil
}

// ListTasks implements TaskService.ListTasks
func (s *taskServiceImpl) ListTasks(ctx context.Context) ([]*TaskView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}

	views := make([]*TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, s.renderTask(task))
	}

	return views, nil
}

// UpdateTaskStatus implements TaskService.UpdateTaskStatus
func (s *taskServiceImpl) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	newStatus domain.TaskStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := domain.ParseTaskStatus(string(newStatus)); err != nil {
		return NewTaskServiceError("update_task_status", "invalid status", err)
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return NewTaskServiceError("update_task_status", "task not found", store.ErrTaskNotFound)
		}
		return NewTaskServiceError("update_task_status", "failed to retrieve task", err)
	}

	if task.Status == newStatus {
		log.Debug("status unchanged, nothing to do",
			slog.String("task_id", taskID.String()),
			slog.String("status", string(newStatus)))
		return nil
	}

	now := s.now()

	switch {
	case task.IsInProgress() || newStatus == domain.TaskStatusPaused:
		// Leaving IN_PROGRESS or entering PAUSED stops the clock and banks
		// the elapsed time.
		task.EndProgress(now)
	case newStatus == domain.TaskStatusInProgress:
		if err := s.checkNoTaskInProgress(ctx, task.AssigneeID, task.ID, "Current user"); err != nil {
			return NewTaskServiceError(
				"update_task_status",
				"Current user already has a task in progress",
				err,
			)
		}
		task.StartProgress(now)
	}

	task.Status = newStatus

	if err := s.taskRepo.Update(ctx, task); err != nil {
		// The storage-level unique index closes the window between the check
		// above and this write.
		if store.IsDuplicateError(err) {
			return NewTaskServiceError(
				"update_task_status",
				"Current user already has a task in progress",
				ErrTaskInProgress,
			)
		}
		if store.IsNotFoundError(err) {
			return NewTaskServiceError("update_task_status", "task not found", store.ErrTaskNotFound)
		}

		log.Error("failed to update task status",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.String("new_status", string(newStatus)))
		return NewTaskServiceError("update_task_status", "failed to save task", err)
	}

	log.Info("task status updated",
		slog.String("task_id", taskID.String()),
		slog.String("new_status", string(newStatus)))
	return nil
}

// UpdateTask implements TaskService.UpdateTask
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	taskID uuid.UUID,
	update TaskUpdate,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if update.Status != nil {
		if _, err := domain.ParseTaskStatus(string(*update.Status)); err != nil {
			return NewTaskServiceError("update_task", "invalid status", err)
		}
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return NewTaskServiceError("update_task", "task not found", store.ErrTaskNotFound)
		}
		return NewTaskServiceError("update_task", "failed to retrieve task", err)
	}

	// An assignee change is checked against the incoming assignee, a status
	// change to IN_PROGRESS against the assignee the task had before this
	// update. The checks are deliberately not re-evaluated against each
	// other's outcome.
	if update.SetAssignee && !sameAssignee(task.AssigneeID, update.AssigneeID) {
		if err := s.checkNoTaskInProgress(ctx, update.AssigneeID, task.ID, "New user"); err != nil {
			return NewTaskServiceError(
				"update_task",
				"New user already has a task in progress",
				err,
			)
		}
	}

	if update.Status != nil && *update.Status == domain.TaskStatusInProgress {
		if err := s.checkNoTaskInProgress(ctx, task.AssigneeID, task.ID, "Current user"); err != nil {
			return NewTaskServiceError(
				"update_task",
				"Current user already has a task in progress",
				err,
			)
		}
	}

	if update.SetAssignee {
		task.AssigneeID = update.AssigneeID
	}
	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.SetDescription {
		if update.Description != nil {
			task.Description = *update.Description
		} else {
			task.Description = ""
		}
	}
	if update.Status != nil {
		// This path intentionally skips StartProgress/EndProgress. The general
		// update mutates the status field without touching the clock, matching
		// the dedicated status endpoint only in the stored status value.
		task.Status = *update.Status
	}

	if err := task.Validate(); err != nil {
		return NewTaskServiceError("update_task", "invalid task data", err)
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if store.IsDuplicateError(err) {
			return NewTaskServiceError(
				"update_task",
				"Current user already has a task in progress",
				ErrTaskInProgress,
			)
		}
		if store.IsNotFoundError(err) {
			return NewTaskServiceError("update_task", "task not found", store.ErrTaskNotFound)
		}

		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return NewTaskServiceError("update_task", "failed to save task", err)
	}

	log.Info("task updated", slog.String("task_id", taskID.String()))
	return nil
}

// DeleteTask implements TaskService.DeleteTask
func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return NewTaskServiceError("delete_task", "failed to delete task", err)
	}

	log.Info("task deleted", slog.String("task_id", taskID.String()))
	return nil
}

// checkNoTaskInProgress enforces the one-in-progress-task-per-assignee rule:
// it fails with ErrTaskInProgress when a task other than taskID is already in
// progress for the given assignee. A nil assignee always passes; unassigned
// tasks are not subject to the rule.
func (s *taskServiceImpl) checkNoTaskInProgress(
	ctx context.Context,
	assigneeID *uuid.UUID,
	taskID uuid.UUID,
	who string,
) error {
	if assigneeID == nil {
		return nil
	}

	active, err := s.taskRepo.FindByAssigneeAndStatus(ctx, *assigneeID, domain.TaskStatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to look up active task for assignee %s: %w", assigneeID, err)
	}

	if active != nil && active.ID != taskID {
		return fmt.Errorf("%s already has task %s in progress: %w", who, active.ID, ErrTaskInProgress)
	}

	return nil
}

// renderTask builds the caller-facing view of a task, computing the current
// time spent against the service clock.
func (s *taskServiceImpl) renderTask(task *domain.Task) *TaskView {
	return &TaskView{
		ID:          task.ID,
		AssigneeID:  task.AssigneeID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		TimeSpent:   domain.FormatTimeSpent(task.CurrentTimeSpent(s.now())),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// sameAssignee compares two optional assignee references by value.
func sameAssignee(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
