package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	filenameKey contextKey = "filename"
	slotKey     contextKey = "slot"
)

// WithRunID annotates context with the batch run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the batch run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	return v, ok && v != ""
}

// WithFilename annotates context with the filename currently being merged.
func WithFilename(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, filenameKey, name)
}

// FilenameFromContext extracts the filename if present.
func FilenameFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(filenameKey).(string)
	return v, ok && v != ""
}

// WithSlot annotates context with the file slot (1 or 2).
func WithSlot(ctx context.Context, slot int) context.Context {
	if slot <= 0 {
		return ctx
	}
	return context.WithValue(ctx, slotKey, slot)
}

// SlotFromContext extracts the file slot if present.
func SlotFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(slotKey).(int)
	return v, ok && v > 0
}
