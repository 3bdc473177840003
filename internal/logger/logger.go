// Package logger provides structured logging utilities for the application.
// It wraps log/slog with JSON formatting, enriches records with session and
// request IDs from the context and can ship logs to Better Stack.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogbetterstack "github.com/samber/slog-betterstack"
)

// Logger is the application logger
type Logger struct {
	*slog.Logger
	level  *slog.LevelVar
	remote *AsyncHandler
}

// Options configures optional log sinks.
type Options struct {
	// BetterStackToken enables log shipping when non-empty.
	BetterStackToken string
	// BetterStackEndpoint overrides the default ingesting host.
	BetterStackEndpoint string
	// Async tunes the buffer in front of the remote sink.
	Async AsyncOptions
}

// New creates a new logger instance with JSON formatting
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a new logger instance with JSON formatting writing to the provided writer
func NewWithWriter(level string, w io.Writer) *Logger {
	return NewWithOptions(level, w, Options{})
}

// NewWithOptions creates a logger writing JSON to w and, when configured,
// forwarding records to Better Stack through an async buffer.
func NewWithOptions(level string, w io.Writer, opts Options) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(parseLevel(level))

	local := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lv,
		ReplaceAttr: replaceAttr,
	})

	l := &Logger{level: lv}
	var handler slog.Handler = local
	if opts.BetterStackToken != "" {
		bs := slogbetterstack.Option{
			Level:    lv,
			Token:    opts.BetterStackToken,
			Endpoint: opts.BetterStackEndpoint,
		}.NewBetterstackHandler()
		l.remote = NewAsyncHandler(bs, opts.Async)
		handler = newTeeHandler(sink{name: "stdout", handler: local}, sink{name: "betterstack", handler: l.remote})
	}

	l.Logger = slog.New(NewContextHandler(handler))
	return l
}

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

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.LevelKey:
		a.Key = "level"
		level := a.Value.String()
		if level == "WARN" {
			level = "warning"
		} else {
			level = strings.ToLower(level)
		}
		a.Value = slog.StringValue(level)
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// SetLevel changes the minimum level of this logger and all loggers derived from it.
func (l *Logger) SetLevel(level string) error {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.level.Set(lv)
	return nil
}

// Shutdown flushes the remote sink. It is a no-op without one.
func (l *Logger) Shutdown(ctx context.Context) error {
	return l.remote.Shutdown(ctx)
}

func (l *Logger) derive(inner *slog.Logger) *Logger {
	return &Logger{Logger: inner, level: l.level, remote: l.remote}
}

// WithModule creates a new entry with module field
func (l *Logger) WithModule(module string) *Logger {
	return l.derive(l.With("module", module))
}

// WithSessionID creates a new entry with session ID field
func (l *Logger) WithSessionID(sessionID string) *Logger {
	return l.derive(l.With("session_id", sessionID))
}

// WithRequestID creates a new entry with request ID field
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.derive(l.With("request_id", requestID))
}

// WithError creates a new entry with error field
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.With("error", err))
}

// WithField creates a new entry with a single field
func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(l.With(key, value))
}

// WithFields creates a new entry with multiple fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.derive(l.With(args...))
}

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// Debugf logs a formatted message at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	l.Debug(fmt.Sprintf(format, args...))
}
