// Package job contains the scheduled background jobs of the service.
// Its only current member is the stale-task pause job, which pages through
// in-progress tasks once a day and forcibly pauses them.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tasktrack/tasktrack-api/internal/domain"
)

// DefaultPageSize is the number of tasks paused per batch when no page size
// is configured.
const DefaultPageSize = 100

// TaskFinder is the read side the job needs from the task repository.
type TaskFinder interface {
	// FindByStatus retrieves up to limit tasks with the given status in a
	// stable id-ascending order, skipping offset rows.
	FindByStatus(
		ctx context.Context,
		status domain.TaskStatus,
		limit, offset int,
	) ([]*domain.Task, error)
}

// BatchPauser applies the pause transition to a page of tasks atomically.
type BatchPauser interface {
	PauseTasks(ctx context.Context, tasks []*domain.Task) error
}

// StaleTaskPauseJob pauses every in-progress task on a fixed daily schedule.
// Each page it pauses drops out of the next page's result set, so a run
// terminates once the store holds no more in-progress tasks. Runs are not
// retried on failure; the next scheduled run reattempts the remaining rows.
type StaleTaskPauseJob struct {
	finder     TaskFinder
	pauser     BatchPauser
	pageSize   int
	hourUTC    int
	logger     *slog.Logger
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	// now is the clock used to schedule runs; overridable in tests
	now func() time.Time
}

// NewStaleTaskPauseJob creates a new StaleTaskPauseJob that runs daily at
// hourUTC. A non-positive pageSize falls back to DefaultPageSize.
func NewStaleTaskPauseJob(
	finder TaskFinder,
	pauser BatchPauser,
	pageSize int,
	hourUTC int,
	logger *slog.Logger,
) (*StaleTaskPauseJob, error) {
	if finder == nil {
		return nil, fmt.Errorf("finder cannot be nil")
	}
	if pauser == nil {
		return nil, fmt.Errorf("pauser cannot be nil")
	}
	if hourUTC < 0 || hourUTC > 23 {
		return nil, fmt.Errorf("hourUTC must be between 0 and 23, got %d", hourUTC)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &StaleTaskPauseJob{
		finder:     finder,
		pauser:     pauser,
		pageSize:   pageSize,
		hourUTC:    hourUTC,
		logger:     logger.With(slog.String("component", "stale_task_pause_job")),
		ctx:        ctx,
		cancelFunc: cancel,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start launches the scheduling loop in a background goroutine.
func (j *StaleTaskPauseJob) Start() {
	j.wg.Add(1)
	go j.scheduleLoop()
}

// Stop signals the job to shut down and waits for it to finish. A run in
// flight stops at the next page boundary.
func (j *StaleTaskPauseJob) Stop() {
	j.cancelFunc()
	j.wg.Wait()
}

// scheduleLoop sleeps until the next scheduled time, runs the job, and
// repeats until the job is stopped.
func (j *StaleTaskPauseJob) scheduleLoop() {
	defer j.wg.Done()

	for {
		next := nextRunAfter(j.now(), j.hourUTC)
		timer := time.NewTimer(next.Sub(j.now()))

		j.logger.Debug("next stale task pause run scheduled",
			slog.Time("run_at", next))

		select {
		case <-j.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		// A failed run is logged and abandoned; the next scheduled run will
		// reattempt whatever rows are still in progress.
		if err := j.RunOnce(j.ctx); err != nil {
			j.logger.Error("stale task pause run failed",
				slog.String("error", err.Error()))
		}
	}
}

// RunOnce pages through all in-progress tasks and pauses them batch by
// batch, returning when a fetched page comes back empty. It checks for
// cancellation between pages.
func (j *StaleTaskPauseJob) RunOnce(ctx context.Context) error {
	j.logger.Info("stale task pause run started")

	pages := 0
	paused := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Offset stays at zero: pausing a page removes its rows from the
		// filter, so the next matching rows slide into the first page.
		page, err := j.finder.FindByStatus(ctx, domain.TaskStatusInProgress, j.pageSize, 0)
		if err != nil {
			return fmt.Errorf("failed to fetch in-progress tasks: %w", err)
		}
		if len(page) == 0 {
			break
		}

		if err := j.pauser.PauseTasks(ctx, page); err != nil {
			return fmt.Errorf("failed to pause task page: %w", err)
		}

		pages++
		paused += len(page)
	}

	j.logger.Info("stale task pause run finished",
		slog.Int("pages", pages),
		slog.Int("tasks_paused", paused))
	return nil
}

// nextRunAfter returns the first occurrence of hourUTC strictly after now.
func nextRunAfter(now time.Time, hourUTC int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
