package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskCreatedEvent is published after a task has been persisted.
// AssigneeID is nil for unassigned tasks.
type TaskCreatedEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// TaskID identifies the task that was created
	TaskID uuid.UUID `json:"task_id"`

	// AssigneeID identifies the assignee of the new task, if any
	AssigneeID *uuid.UUID `json:"assignee_id,omitempty"`

	// Title is the title of the new task
	Title string `json:"title"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskCreatedEvent creates a TaskCreatedEvent for the given task fields.
func NewTaskCreatedEvent(taskID uuid.UUID, assigneeID *uuid.UUID, title string) *TaskCreatedEvent {
	return &TaskCreatedEvent{
		ID:         uuid.New(),
		TaskID:     taskID,
		AssigneeID: assigneeID,
		Title:      title,
		CreatedAt:  time.Now().UTC(),
	}
}

// Publisher defines an interface for components that can publish task events.
// This allows the service layer to emit events without direct knowledge of
// the underlying transport.
type Publisher interface {
	// PublishTaskCreated delivers the given event.
	// Returns an error if the event cannot be published.
	PublishTaskCreated(ctx context.Context, event *TaskCreatedEvent) error
}
