package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one planning or publishing pass.
	FieldRunID = "run_id"
	// FieldPostingID is the standardized key for queue posting identifiers.
	FieldPostingID = "posting_id"
	// FieldContentID is the standardized key for catalog item identifiers.
	FieldContentID = "content_id"
	// FieldContentType is the standardized key for the catalog item variant.
	FieldContentType = "content_type"
	// FieldDestinationID is the standardized key for destination page identifiers.
	FieldDestinationID = "destination_id"
	// FieldGroupID is the standardized key for duplicate group identifiers.
	FieldGroupID = "duplicate_group_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names the selection decision being logged.
	FieldDecisionType = "decision_type"
)

type runIDKey struct{}

// WithRunID stores a run identifier on the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run identifier stored by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := RunIDFromContext(ctx); ok {
		return logger.With(String(FieldRunID, id))
	}
	return logger
}
