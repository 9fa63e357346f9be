package shared

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

// traceIDKey carries the per-request trace ID through the context.
const traceIDKey contextKey = "traceID"

// SetTraceID attaches a fresh trace ID to the context. The trace ID ties a
// request's log lines to the error responses it produced.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, traceIDKey, uuid.NewString())
}

// GetTraceID returns the trace ID from the context, or "" when the request
// did not pass through the trace middleware.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(traceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}
