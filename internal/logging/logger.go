// Package logging defines the structured-logging interface used by every
// feedfilter component, with a log/slog implementation.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "feed built", "feed_id", id, "visible", n)
type Logger interface {
	// Debug logs diagnostic detail (per-entry decisions, skipped work).
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a non-fatal failure, e.g. one entry of a build.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs a failure that aborted an operation.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}
