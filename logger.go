package textcache

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/textcache/corpus"
)

// Logger wraps slog.Logger with helpers that keep field names consistent
// across builds, reads and transfers.
type Logger struct {
	*slog.Logger
}

// NewLogger returns a Logger on handler. A nil handler logs text to stderr
// at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger logs JSON lines to w.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger logs logfmt-style text to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithPath returns a Logger that tags every record with path.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{Logger: l.With("path", path)}
}

// LogBuild logs the outcome of building one split.
func (l *Logger) LogBuild(ctx context.Context, split corpus.Split, samples int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed", "split", split, "samples", samples, "error", err)
		return
	}
	l.InfoContext(ctx, "build completed", "split", split, "samples", samples, "duration", d)
}

// LogSkip logs work skipped because the target already exists.
func (l *Logger) LogSkip(ctx context.Context, root string) {
	l.InfoContext(ctx, "cache exists, skipping", "root", root)
}

// LogCommit logs a batch commit during a build.
func (l *Logger) LogCommit(ctx context.Context, split corpus.Split, samples int) {
	l.DebugContext(ctx, "batch committed", "split", split, "samples", samples)
}

// LogOpen logs opening a split store for reading.
func (l *Logger) LogOpen(ctx context.Context, path string, samples int, err error) {
	if err != nil {
		l.WarnContext(ctx, "open failed", "path", path, "error", err)
		return
	}
	l.DebugContext(ctx, "cache opened", "path", path, "samples", samples)
}

// LogTransfer logs a publish or fetch of one split.
func (l *Logger) LogTransfer(ctx context.Context, op string, split corpus.Split, files int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed", "split", split, "error", err)
		return
	}
	l.InfoContext(ctx, op+" completed", "split", split, "files", files, "bytes", bytes)
}
