// Package logging provides structured logging configuration using log/slog.
//
// Every import run carries a run id in its context. The id is stored under
// chi's RequestID key so the same lookup serves CLI runs and any HTTP
// frontend that wraps the importer with chi's RequestID middleware.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Setup configures the global slog logger based on level and format.
// Logs go to stderr so command output on stdout stays machine-readable.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRunID returns a context carrying id as the run id.
// An empty id is replaced by a fresh UUID.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, middleware.RequestIDKey, id)
}

// RunID returns the run id stored in ctx, or "".
func RunID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// FromContext returns a logger enriched with the run id from ctx.
//
// Usage:
//
//	logger := logging.FromContext(ctx)
//	logger.Info("row skipped", "row", idx)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if runID := RunID(ctx); runID != "" {
		logger = logger.With("run_id", runID)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	runLogger := logging.WithFields(ctx,
//	    "file", path,
//	    "section", sectionID,
//	)
//	runLogger.Info("import started")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
