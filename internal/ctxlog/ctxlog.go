// Package ctxlog carries the runtime's slog.Logger through context.Context.
// The executor derives run-scoped loggers with WithRun so that every log line
// produced while driving a graph — including lines emitted from device
// completion closures and pool workers — is attributable to its run.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is an unexported type to prevent collisions with context keys from other packages.
type key struct{}

// loggerKey is the key for the slog.Logger in a context.Context.
var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithRun returns a context whose logger is tagged with the run identifier.
// Closures that inherit the context — child dispatches, completion handlers —
// log under the same run without re-tagging.
func WithRun(ctx context.Context, runID uint64) context.Context {
	return WithLogger(ctx, FromContext(ctx).With("runID", runID))
}

// FromContext extracts the slog.Logger from a context. A context without a
// logger indicates a wiring bug, so this panics rather than logging into the
// void.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	panic("ctxlog: logger missing from context")
}
