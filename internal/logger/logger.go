// Package logger provides structured logging with typed fields over log/slog.
package logger

import (
	"io"
	"log/slog"
	"time"
)

// LogLevel controls the minimum level emitted by a Logger.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Field is a typed key/value pair attached to a log record.
type Field = slog.Attr

// Logger is the logging interface used throughout the engine.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Typed field constructors.

func String(key, value string) Field         { return slog.String(key, value) }
func Int(key string, value int) Field        { return slog.Int(key, value) }
func Int64(key string, value int64) Field    { return slog.Int64(key, value) }
func Uint64(key string, value uint64) Field  { return slog.Uint64(key, value) }
func Float64(key string, v float64) Field    { return slog.Float64(key, v) }
func Bool(key string, value bool) Field      { return slog.Bool(key, value) }
func Duration(key string, d time.Duration) Field { return slog.Duration(key, d) }
func Time(key string, t time.Time) Field     { return slog.Time(key, t) }
func Any(key string, value any) Field        { return slog.Any(key, value) }

// Error attaches an error under the conventional "error" key.
// A nil error logs as an empty string.
func Error(err error) Field {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// slogLogger implements Logger on top of a slog.Logger.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger creates a Logger writing text-formatted records to w at the
// given minimum level. attrs, if non-nil, are attached to every record.
func NewSlogLogger(w io.Writer, level LogLevel, attrs []Field) Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: toSlogLevel(level)})
	l := slog.New(handler)
	if len(attrs) > 0 {
		args := make([]any, 0, len(attrs))
		for _, a := range attrs {
			args = append(args, a)
		}
		l = l.With(args...)
	}
	return &slogLogger{l: l}
}

func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *slogLogger) Debug(msg string, fields ...Field) { s.l.LogAttrs(nil, slog.LevelDebug, msg, fields...) } //nolint:staticcheck // nil ctx is accepted by slog
func (s *slogLogger) Info(msg string, fields ...Field)  { s.l.LogAttrs(nil, slog.LevelInfo, msg, fields...) }  //nolint:staticcheck
func (s *slogLogger) Warn(msg string, fields ...Field)  { s.l.LogAttrs(nil, slog.LevelWarn, msg, fields...) }  //nolint:staticcheck
func (s *slogLogger) Error(msg string, fields ...Field) { s.l.LogAttrs(nil, slog.LevelError, msg, fields...) } //nolint:staticcheck

func (s *slogLogger) With(fields ...Field) Logger {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return &slogLogger{l: s.l.With(args...)}
}
