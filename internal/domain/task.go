package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Possible task status values. The set is closed: any status outside it is
// rejected by Validate. Only the first three participate in time tracking;
// DONE and CANCELLED behave like any other non-in-progress status.
const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusPaused     TaskStatus = "PAUSED"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// MaxTaskTitleLength is the maximum number of characters allowed in a task title.
const MaxTaskTitleLength = 40

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task's title is blank.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrTaskTitleTooLong is returned when a task's title exceeds MaxTaskTitleLength.
	ErrTaskTitleTooLong = fmt.Errorf(
		"task title cannot exceed %d characters",
		MaxTaskTitleLength,
	)

	// ErrInvalidTaskStatus is returned when a status is outside the closed set.
	ErrInvalidTaskStatus = errors.New("invalid task status")
)

// Task represents a trackable unit of work assigned to at most one user.
// It owns the lifecycle status and the accrued working time: TimeSpent is the
// banked duration of all finished work intervals, and StartedAt marks the
// beginning of the current active interval while the task is in progress.
type Task struct {
	ID          uuid.UUID     `json:"id"`
	AssigneeID  *uuid.UUID    `json:"assignee_id,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      TaskStatus    `json:"status"`
	TimeSpent   time.Duration `json:"time_spent"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewTask creates a new Task with the given assignee, title and description.
// It generates a new UUID for the task ID, forces the status to TODO with
// zero time spent, and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewTask(assigneeID *uuid.UUID, title, description string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		AssigneeID:  assigneeID,
		Title:       title,
		Description: description,
		Status:      TaskStatusTodo,
		TimeSpent:   0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrTaskTitleEmpty
	}

	if utf8.RuneCountInString(t.Title) > MaxTaskTitleLength {
		return ErrTaskTitleTooLong
	}

	if !isValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	return nil
}

// IsInProgress reports whether the task is currently being worked on.
func (t *Task) IsInProgress() bool {
	return t.Status == TaskStatusInProgress
}

// CurrentTimeSpent returns the total working time accrued as of now: the
// banked TimeSpent plus, while the task is in progress, the elapsed part of
// the active interval. It never mutates the task.
func (t *Task) CurrentTimeSpent(now time.Time) time.Duration {
	if t.Status == TaskStatusInProgress && t.StartedAt != nil {
		return t.TimeSpent + now.Sub(*t.StartedAt)
	}

	return t.TimeSpent
}

// EndProgress banks the elapsed time of the active interval into TimeSpent
// and clears StartedAt. It is a no-op when no interval is active. The status
// is left untouched: callers decide the target status separately.
func (t *Task) EndProgress(now time.Time) {
	if t.StartedAt != nil {
		t.TimeSpent = t.CurrentTimeSpent(now)
		t.StartedAt = nil
	}
}

// StartProgress marks the beginning of a new active work interval.
// It performs no cross-task validation; enforcing the one-active-task-per-
// assignee rule is the lifecycle service's responsibility.
func (t *Task) StartProgress(now time.Time) {
	startedAt := now
	t.StartedAt = &startedAt
}

// isValidTaskStatus checks if the given status is a member of the closed set.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusPaused,
		TaskStatusDone, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseTaskStatus converts a raw string into a TaskStatus.
// Returns ErrInvalidTaskStatus when the value is outside the closed set.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !isValidTaskStatus(status) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTaskStatus, s)
	}

	return status, nil
}

// FormatTimeSpent renders a duration as zero-padded HH:mm:ss. Hours are not
// wrapped at day boundaries, so 26 hours renders as "26:00:00".
func FormatTimeSpent(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)
	seconds := int64((d % time.Minute) / time.Second)

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
