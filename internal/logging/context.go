package logging

import (
	"context"
	"log/slog"

	"mkvbatch/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. probe_failed).
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRunID is the standardized structured logging key for batch run identifiers.
	FieldRunID = "run_id"
	// FieldFilename is the matched filename currently being merged.
	FieldFilename = "filename"
	// FieldSlot is the file slot (1 or 2) a line refers to.
	FieldSlot = "slot"
	// FieldTrackID is the container track id a line refers to.
	FieldTrackID = "track_id"
	// FieldSection names an optional container section (chapters, global_tags, attachments).
	FieldSection = "section"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if name, ok := services.FilenameFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFilename, name))
	}
	if slot, ok := services.SlotFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldSlot, slot))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
