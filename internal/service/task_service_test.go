package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tasktrack/tasktrack-api/internal/domain"
	"github.com/tasktrack/tasktrack-api/internal/events"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestTaskService builds a service with a fixed clock so that time accrual
// is deterministic in tests.
func newTestTaskService(
	t *testing.T,
	repo TaskRepository,
	publisher events.Publisher,
	now time.Time,
) TaskService {
	t.Helper()

	svc, err := NewTaskService(repo, publisher, testLogger())
	require.NoError(t, err)

	svc.(*taskServiceImpl).now = func() time.Time { return now }
	return svc
}

func TestNewTaskService(t *testing.T) {
	t.Run("nil taskRepo", func(t *testing.T) {
		_, err := NewTaskService(nil, &MockPublisher{}, testLogger())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "taskRepo")
	})

	t.Run("nil publisher", func(t *testing.T) {
		_, err := NewTaskService(&MockTaskRepository{}, nil, testLogger())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "publisher")
	})

	t.Run("nil logger uses default", func(t *testing.T) {
		svc, err := NewTaskService(&MockTaskRepository{}, &MockPublisher{}, nil)
		assert.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestCreateTask(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("creates task in TODO with zero time spent", func(t *testing.T) {
		repo := new(MockTaskRepository)
		publisher := new(MockPublisher)
		svc := newTestTaskService(t, repo, publisher, now)

		assigneeID := uuid.New()
		repo.On("Create", ctx, mock.AnythingOfType("*domain.Task")).Return(nil)
		publisher.On("PublishTaskCreated", ctx, mock.AnythingOfType("*events.TaskCreatedEvent")).
			Return(nil)

		task, err := svc.CreateTask(ctx, &assigneeID, "Write docs", "user guide")
		require.NoError(t, err)

		assert.Equal(t, domain.TaskStatusTodo, task.Status)
		assert.Equal(t, time.Duration(0), task.TimeSpent)
		assert.Nil(t, task.StartedAt)
		assert.Equal(t, "Write docs", task.Title)
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("publish failure does not fail creation", func(t *testing.T) {
		repo := new(MockTaskRepository)
		publisher := new(MockPublisher)
		svc := newTestTaskService(t, repo, publisher, now)

		repo.On("Create", ctx, mock.AnythingOfType("*domain.Task")).Return(nil)
		publisher.On("PublishTaskCreated", ctx, mock.AnythingOfType("*events.TaskCreatedEvent")).
			Return(errors.New("broker unavailable"))

		task, err := svc.CreateTask(ctx, nil, "Survive broker outage", "")
		require.NoError(t, err)
		assert.NotNil(t, task)
	})

	t.Run("rejects blank title before touching the store", func(t *testing.T) {
		repo := new(MockTaskRepository)
		publisher := new(MockPublisher)
		svc := newTestTaskService(t, repo, publisher, now)

		_, err := svc.CreateTask(ctx, nil, "   ", "")
		assert.ErrorIs(t, err, domain.ErrTaskTitleEmpty)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects overlong title", func(t *testing.T) {
		repo := new(MockTaskRepository)
		publisher := new(MockPublisher)
		svc := newTestTaskService(t, repo, publisher, now)

		longTitle := "This title is much longer than forty characters allow"
		_, err := svc.CreateTask(ctx, nil, longTitle, "")
		assert.ErrorIs(t, err, domain.ErrTaskTitleTooLong)
	})

	t.Run("propagates store failure", func(t *testing.T) {
		repo := new(MockTaskRepository)
		publisher := new(MockPublisher)
		svc := newTestTaskService(t, repo, publisher, now)

		repo.On("Create", ctx, mock.AnythingOfType("*domain.Task")).
			Return(errors.New("connection reset"))

		_, err := svc.CreateTask(ctx, nil, "Doomed task", "")
		assert.Error(t, err)
		publisher.AssertNotCalled(t, "PublishTaskCreated", mock.Anything, mock.Anything)
	})
}

func TestGetTask(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("renders current time spent for an in-progress task", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		startedAt := now.Add(-90 * time.Minute)
		task := &domain.Task{
			ID:        uuid.New(),
			Title:     "Active task",
			Status:    domain.TaskStatusInProgress,
			TimeSpent: time.Hour,
			StartedAt: &startedAt,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)

		view, err := svc.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "02:30:00", view.TimeSpent)
		assert.Equal(t, domain.TaskStatusInProgress, view.Status)
	})

	t.Run("renders banked time for a paused task", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		task := &domain.Task{
			ID:        uuid.New(),
			Title:     "Paused task",
			Status:    domain.TaskStatusPaused,
			TimeSpent: 26*time.Hour + 30*time.Minute,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)

		view, err := svc.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "26:30:00", view.TimeSpent)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		id := uuid.New()
		repo.On("GetByID", ctx, id).Return(nil, store.ErrTaskNotFound)

		_, err := svc.GetTask(ctx, id)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestListTasks(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("renders all tasks", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		tasks := []*domain.Task{
			{ID: uuid.New(), Title: "First", Status: domain.TaskStatusTodo},
			{ID: uuid.New(), Title: "Second", Status: domain.TaskStatusDone, TimeSpent: time.Hour},
		}
		repo.On("List", ctx).Return(tasks, nil)

		views, err := svc.ListTasks(ctx)
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "00:00:00", views[0].TimeSpent)
		assert.Equal(t, "01:00:00", views[1].TimeSpent)
	})

	t.Run("empty store yields empty slice", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		repo.On("List", ctx).Return([]*domain.Task{}, nil)

		views, err := svc.ListTasks(ctx)
		require.NoError(t, err)
		assert.Empty(t, views)
	})
}

func TestUpdateTaskStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("not found", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		id := uuid.New()
		repo.On("GetByID", ctx, id).Return(nil, store.ErrTaskNotFound)

		err := svc.UpdateTaskStatus(ctx, id, domain.TaskStatusPaused)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		err := svc.UpdateTaskStatus(ctx, uuid.New(), domain.TaskStatus("ARCHIVED"))
		assert.ErrorIs(t, err, domain.ErrInvalidTaskStatus)
		repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("same status is an idempotent no-op", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		startedAt := now.Add(-time.Hour)
		task := &domain.Task{
			ID:        uuid.New(),
			Title:     "Running",
			Status:    domain.TaskStatusInProgress,
			TimeSpent: 10 * time.Minute,
			StartedAt: &startedAt,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)

		err := svc.UpdateTaskStatus(ctx, task.ID, domain.TaskStatusInProgress)
		require.NoError(t, err)

		assert.Equal(t, 10*time.Minute, task.TimeSpent)
		assert.Equal(t, &startedAt, task.StartedAt)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("starting a task begins the active interval", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		assigneeID := uuid.New()
		task := &domain.Task{
			ID:         uuid.New(),
			AssigneeID: &assigneeID,
			Title:      "Ready to start",
			Status:     domain.TaskStatusTodo,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		repo.On("FindByAssigneeAndStatus", ctx, assigneeID, domain.TaskStatusInProgress).
			Return(nil, nil)
		repo.On("Update", ctx, task).Return(nil)

		err := svc.UpdateTaskStatus(ctx, task.ID, domain.TaskStatusInProgress)
		require.NoError(t, err)

		assert.Equal(t, domain.TaskStatusInProgress, task.Status)
		require.NotNil(t, task.StartedAt)
		assert.Equal(t, now, *task.StartedAt)
		repo.AssertExpectations(t)
	})

	t.Run("conflict when assignee already has an active task", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		assigneeID := uuid.New()
		task := &domain.Task{
			ID:         uuid.New(),
			AssigneeID: &assigneeID,
			Title:      "Task A",
			Status:     domain.TaskStatusTodo,
		}
		active := &domain.Task{
			ID:         uuid.New(),
			AssigneeID: &assigneeID,
			Title:      "Task B",
			Status:     domain.TaskStatusInProgress,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		repo.On("FindByAssigneeAndStatus", ctx, assigneeID, domain.TaskStatusInProgress).
			Return(active, nil)

		err := svc.UpdateTaskStatus(ctx, task.ID, domain.TaskStatusInProgress)
		assert.ErrorIs(t, err, ErrTaskInProgress)
		assert.Contains(t, err.Error(), "Current user already has a task in progress")

		// No state was mutated
		assert.Equal(t, domain.TaskStatusTodo, task.Status)
		assert.Nil(t, task.StartedAt)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("restarting the same active task is allowed", func(t *testing.T) {
		// The active task found for the assignee is the task being changed
		// itself, which must not count as a conflict.
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		assigneeID := uuid.New()
		task := &domain.Task{
			ID:         uuid.New(),
			AssigneeID: &assigneeID,
			Title:      "Was interrupted",
			Status:     domain.TaskStatusTodo,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		repo.On("FindByAssigneeAndStatus", ctx, assigneeID, domain.TaskStatusInProgress).
			Return(task, nil)
		repo.On("Update", ctx, task).Return(nil)

		err := svc.UpdateTaskStatus(ctx, task.ID, domain.TaskStatusInProgress)
		assert.NoError(t, err)
	})

	t.Run("unassigned task starts without a conflict check", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		task := &domain.Task{
			ID:     uuid.New(),
			Title:  "Nobody's task",
			Status: domain.TaskStatusTodo,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		repo.On("Update", ctx, task).Return(nil)

		err := svc.UpdateTaskStatus(ctx, task.ID, domain.TaskStatusInProgress)
		require.NoError(t, err)
		repo.AssertNotCalled(
			t, "FindByAssigneeAndStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("pausing banks the elapsed time", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		startedAt := now.Add(-45 * time.Minute)
		task := &domain.Task{
			ID:        uuid.New(),
			Title:     "Running task",
			Status:    domain.TaskStatusInProgress,
			TimeSpent: 30 * time.Minute,
			StartedAt: &startedAt,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		repo.On("Update", ctx, task).Return(nil)

		err := svc.UpdateTaskStatus(ctx, task.ID, domain.TaskStatusPaused)
		require.NoError(t, err)

		assert.Equal(t, domain.TaskStatusPaused, task.Status)
		assert.Equal(t, 75*time.Minute, task.TimeSpent)
		assert.Nil(t, task.StartedAt)
	})

	t.Run("completing a running task banks the elapsed time", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		startedAt := now.Add(-20 * time.Minute)
		task := &domain.Task{
			ID:        uuid.New(),
			Title:     "Almost done",
			Status:    domain.TaskStatusInProgress,
			StartedAt: &startedAt,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		repo.On("Update", ctx, task).Return(nil)

		err := svc.UpdateTaskStatus(ctx, task.ID, domain.TaskStatusDone)
		require.NoError(t, err)

		assert.Equal(t, domain.TaskStatusDone, task.Status)
		assert.Equal(t, 20*time.Minute, task.TimeSpent)
		assert.Nil(t, task.StartedAt)
	})

	t.Run("transition with no time-accounting side effect", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		task := &domain.Task{
			ID:        uuid.New(),
			Title:     "Shelved",
			Status:    domain.TaskStatusTodo,
			TimeSpent: 5 * time.Minute,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		repo.On("Update", ctx, task).Return(nil)

		err := svc.UpdateTaskStatus(ctx, task.ID, domain.TaskStatusCancelled)
		require.NoError(t, err)

		assert.Equal(t, domain.TaskStatusCancelled, task.Status)
		assert.Equal(t, 5*time.Minute, task.TimeSpent)
		assert.Nil(t, task.StartedAt)
	})

	t.Run("storage-level uniqueness violation maps to conflict", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		assigneeID := uuid.New()
		task := &domain.Task{
			ID:         uuid.New(),
			AssigneeID: &assigneeID,
			Title:      "Racing task",
			Status:     domain.TaskStatusTodo,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		repo.On("FindByAssigneeAndStatus", ctx, assigneeID, domain.TaskStatusInProgress).
			Return(nil, nil)
		repo.On("Update", ctx, task).Return(store.ErrAssigneeBusy)

		err := svc.UpdateTaskStatus(ctx, task.ID, domain.TaskStatusInProgress)
		assert.ErrorIs(t, err, ErrTaskInProgress)
	})
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("not found", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		id := uuid.New()
		repo.On("GetByID", ctx, id).Return(nil, store.ErrTaskNotFound)

		err := svc.UpdateTask(ctx, id, TaskUpdate{})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("applies only present fields", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		assigneeID := uuid.New()
		task := &domain.Task{
			ID:          uuid.New(),
			AssigneeID:  &assigneeID,
			Title:       "Old title",
			Description: "keep me",
			Status:      domain.TaskStatusTodo,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		repo.On("Update", ctx, task).Return(nil)

		newTitle := "New title"
		err := svc.UpdateTask(ctx, task.ID, TaskUpdate{Title: &newTitle})
		require.NoError(t, err)

		assert.Equal(t, "New title", task.Title)
		assert.Equal(t, "keep me", task.Description)
		assert.Equal(t, &assigneeID, task.AssigneeID)
		assert.Equal(t, domain.TaskStatusTodo, task.Status)
	})

	t.Run("clears description when present and nil", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		task := &domain.Task{
			ID:          uuid.New(),
			Title:       "Has description",
			Description: "about to go",
			Status:      domain.TaskStatusTodo,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		repo.On("Update", ctx, task).Return(nil)

		err := svc.UpdateTask(ctx, task.ID, TaskUpdate{SetDescription: true})
		require.NoError(t, err)
		assert.Empty(t, task.Description)
	})

	t.Run("rejects overlong title", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		task := &domain.Task{
			ID:     uuid.New(),
			Title:  "Fine title",
			Status: domain.TaskStatusTodo,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)

		longTitle := "This title is much longer than forty characters allow"
		err := svc.UpdateTask(ctx, task.ID, TaskUpdate{Title: &longTitle})
		assert.ErrorIs(t, err, domain.ErrTaskTitleTooLong)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("reassignment checked against the new assignee", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		oldAssignee := uuid.New()
		newAssignee := uuid.New()
		task := &domain.Task{
			ID:         uuid.New(),
			AssigneeID: &oldAssignee,
			Title:      "Handover task",
			Status:     domain.TaskStatusTodo,
		}
		busy := &domain.Task{
			ID:         uuid.New(),
			AssigneeID: &newAssignee,
			Status:     domain.TaskStatusInProgress,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		repo.On("FindByAssigneeAndStatus", ctx, newAssignee, domain.TaskStatusInProgress).
			Return(busy, nil)

		err := svc.UpdateTask(ctx, task.ID, TaskUpdate{
			AssigneeID:  &newAssignee,
			SetAssignee: true,
		})
		assert.ErrorIs(t, err, ErrTaskInProgress)
		assert.Contains(t, err.Error(), "New user already has a task in progress")
		assert.Equal(t, &oldAssignee, task.AssigneeID)
	})

	t.Run("status change to IN_PROGRESS checked against the current assignee", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		assigneeID := uuid.New()
		task := &domain.Task{
			ID:         uuid.New(),
			AssigneeID: &assigneeID,
			Title:      "Task A",
			Status:     domain.TaskStatusTodo,
		}
		busy := &domain.Task{
			ID:         uuid.New(),
			AssigneeID: &assigneeID,
			Status:     domain.TaskStatusInProgress,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		repo.On("FindByAssigneeAndStatus", ctx, assigneeID, domain.TaskStatusInProgress).
			Return(busy, nil)

		status := domain.TaskStatusInProgress
		err := svc.UpdateTask(ctx, task.ID, TaskUpdate{Status: &status})
		assert.ErrorIs(t, err, ErrTaskInProgress)
		assert.Contains(t, err.Error(), "Current user already has a task in progress")
	})

	t.Run("status change through this path skips time accrual", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		task := &domain.Task{
			ID:     uuid.New(),
			Title:  "Untimed start",
			Status: domain.TaskStatusTodo,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		repo.On("Update", ctx, task).Return(nil)

		status := domain.TaskStatusInProgress
		err := svc.UpdateTask(ctx, task.ID, TaskUpdate{Status: &status})
		require.NoError(t, err)

		assert.Equal(t, domain.TaskStatusInProgress, task.Status)
		assert.Nil(t, task.StartedAt, "general update must not start the clock")
	})

	t.Run("unassigning always passes the conflict check", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		assigneeID := uuid.New()
		task := &domain.Task{
			ID:         uuid.New(),
			AssigneeID: &assigneeID,
			Title:      "Soon unassigned",
			Status:     domain.TaskStatusTodo,
		}
		repo.On("GetByID", ctx, task.ID).Return(task, nil)
		repo.On("Update", ctx, task).Return(nil)

		err := svc.UpdateTask(ctx, task.ID, TaskUpdate{SetAssignee: true})
		require.NoError(t, err)
		assert.Nil(t, task.AssigneeID)
		repo.AssertNotCalled(
			t, "FindByAssigneeAndStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("deletes by id", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		id := uuid.New()
		repo.On("Delete", ctx, id).Return(nil)

		err := svc.DeleteTask(ctx, id)
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("propagates store failure", func(t *testing.T) {
		repo := new(MockTaskRepository)
		svc := newTestTaskService(t, repo, new(MockPublisher), now)

		id := uuid.New()
		repo.On("Delete", ctx, id).Return(errors.New("connection reset"))

		err := svc.DeleteTask(ctx, id)
		assert.Error(t, err)
	})
}
