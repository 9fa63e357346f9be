package events

import (
	"context"
	"log/slog"
)

// LogPublisher is a Publisher that only records events in the log.
// It is used when no message broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{
		logger: logger.With(slog.String("component", "log_publisher")),
	}
}

// PublishTaskCreated logs the event and always succeeds.
func (p *LogPublisher) PublishTaskCreated(_ context.Context, event *TaskCreatedEvent) error {
	p.logger.Info("task created",
		slog.String("event_id", event.ID.String()),
		slog.String("task_id", event.TaskID.String()),
		slog.String("task_title", event.Title))
	return nil
}
