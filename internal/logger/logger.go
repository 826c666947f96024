// Package logger provides structured logging setup using slog.
//
// The root logger fans out to a human-readable text handler on stderr and a
// JSON handler on the main log file. Errors are additionally appended to a
// dedicated error log so the host orchestrator has a single file to tail for
// fatal conditions. All sinks pass through a redacting handler that strips
// secret values before they are emitted anywhere.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	Dir   string // logs directory; empty disables the file sinks
	Debug bool
}

// New creates the root logger. The returned cleanup closes the file sinks.
func New(opts Options) (*slog.Logger, func() error) {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}

	closers := []io.Closer{}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err == nil {
			mainSink := &lumberjack.Logger{
				Filename:   filepath.Join(opts.Dir, "reportplane.log"),
				MaxSize:    50, // MB
				MaxBackups: 5,
			}
			errSink := &lumberjack.Logger{
				Filename:   filepath.Join(opts.Dir, "error.log"),
				MaxSize:    20,
				MaxBackups: 5,
			}
			closers = append(closers, mainSink, errSink)
			handlers = append(handlers,
				slog.NewJSONHandler(mainSink, &slog.HandlerOptions{Level: level}),
				slog.NewJSONHandler(errSink, &slog.HandlerOptions{Level: slog.LevelError}),
			)
		} else {
			slog.Error("failed to create logs directory, using stderr only", "error", err, "dir", opts.Dir)
		}
	}

	logger := slog.New(NewRedactingHandler(slogmulti.Fanout(handlers...)))

	cleanup := func() error {
		var firstErr error
		for _, c := range closers {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	return logger, cleanup
}

// NewWithWriters creates a logger with custom writers (for testing).
func NewWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewRedactingHandler(slogmulti.Fanout(
		slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}),
	)))
}

// runIDKey is the context key for run/correlation IDs.
type runIDKey struct{}

// WithRunID returns a new context carrying the given run ID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext extracts the run ID from the context.
func RunIDFromContext(ctx context.Context) string {
	if v := ctx.Value(runIDKey{}); v != nil {
		return v.(string)
	}
	return ""
}

// FromContext returns a logger with context fields (run ID) attached.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if runID := RunIDFromContext(ctx); runID != "" {
		return base.With("run_id", runID)
	}
	return base
}
