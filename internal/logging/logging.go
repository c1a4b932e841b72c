// Package logging provides structured logging for the stratus daemon.
//
// It wraps log/slog to give every component a consistent logger. Output is
// text for interactive use and JSON for production, selected at startup.
//
// Usage:
//
//	logging.Init(slog.LevelInfo, false)
//	log := logging.Component("ingest")
//	log.Info("pass complete", "shards", n, "failed", failed)
package logging

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the global logger instance.
var Logger *slog.Logger

// Init initializes the global logger with the specified level and format.
// If jsonFormat is true, logs are output as JSON; otherwise, human-readable
// text.
func Init(level slog.Level, jsonFormat bool) {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// InitWithHandler initializes the global logger with a custom handler.
// Useful for tests.
func InitWithHandler(handler slog.Handler) {
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// Component returns a logger for a specific component. The component name is
// added as an attribute to all log entries.
func Component(name string) *slog.Logger {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}
	return Logger.With("component", name)
}

// With returns a new logger with additional attributes.
func With(args ...any) *slog.Logger {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}
	return Logger.With(args...)
}

// WithContext returns a logger that includes ingestion-scoped context
// values: the shard URL and the target store of the active unit.
func WithContext(ctx context.Context) *slog.Logger {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}

	logger := Logger
	if shard, ok := ctx.Value(contextKeyShard).(string); ok {
		logger = logger.With("shard", shard)
	}
	if store, ok := ctx.Value(contextKeyStore).(string); ok {
		logger = logger.With("store", store)
	}
	return logger
}

// Context key types for type-safe context value extraction.
type contextKey int

const (
	contextKeyShard contextKey = iota
	contextKeyStore
)

// ContextWithShard adds the shard URL to the context for logging.
func ContextWithShard(ctx context.Context, url string) context.Context {
	return context.WithValue(ctx, contextKeyShard, url)
}

// ContextWithStore adds the store name to the context for logging.
func ContextWithStore(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, contextKeyStore, name)
}
