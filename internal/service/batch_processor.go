package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/tasktrack/tasktrack-api/internal/domain"
	"github.com/tasktrack/tasktrack-api/internal/platform/logger"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// TaskBatchProcessor applies bulk state transitions to pages of tasks.
// Each page is persisted as one atomic unit, bounding the blast radius of a
// partial failure to a single page.
type TaskBatchProcessor struct {
	taskRepo TaskRepository
	logger   *slog.Logger
	// now is the clock used when banking elapsed time; overridable in tests
	now func() time.Time
}

// NewTaskBatchProcessor creates a new TaskBatchProcessor.
// It returns an error if the repository is nil.
func NewTaskBatchProcessor(
	taskRepo TaskRepository,
	logger *slog.Logger,
) (*TaskBatchProcessor, error) {
	if taskRepo == nil {
		return nil, domain.NewValidationError("taskRepo", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TaskBatchProcessor{
		taskRepo: taskRepo,
		logger:   logger.With(slog.String("component", "task_batch_processor")),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// PauseTasks stops the clock on every task in the batch and moves it to
// PAUSED, persisting the whole batch in a single transaction. An empty batch
// is a no-op.
func (p *TaskBatchProcessor) PauseTasks(ctx context.Context, tasks []*domain.Task) error {
	log := logger.FromContextOrDefault(ctx, p.logger)

	if len(tasks) == 0 {
		log.Debug("no tasks to pause")
		return nil
	}

	log.Debug("pausing task batch in transaction", slog.Int("task_count", len(tasks)))

	return store.RunInTransaction(
		ctx,
		p.taskRepo.DB(),
		func(ctx context.Context, tx *sql.Tx) error {
			txTaskRepo := p.taskRepo.WithTx(tx)

			now := p.now()
			for _, task := range tasks {
				task.EndProgress(now)
				task.Status = domain.TaskStatusPaused
			}

			if err := txTaskRepo.UpdateAll(ctx, tasks); err != nil {
				log.Error("failed to pause task batch in transaction",
					slog.String("error", err.Error()),
					slog.Int("task_count", len(tasks)))
				return NewTaskServiceError("pause_tasks", "failed to save paused tasks", err)
			}

			log.Info("paused task batch", slog.Int("task_count", len(tasks)))
			return nil
		},
	)
}
