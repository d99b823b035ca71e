// Package log is the simulator's structured logger: a thin layer over
// log/slog that tags records with the emitting module and maps the command
// line verbosity onto slog levels.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// LevelSilent is above every level a record is logged at.
const LevelSilent = slog.LevelError + 4

// Format selects the record encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("log: unknown format %q", s)
}

// Logger emits structured records through an slog handler.
type Logger struct {
	inner *slog.Logger
}

var defaultLogger = New(os.Stderr, FormatText, slog.LevelInfo)

// New returns a Logger writing records of at least level to w.
func New(w io.Writer, format Format, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return FromHandler(slog.NewJSONHandler(w, opts))
	}
	return FromHandler(slog.NewTextHandler(w, opts))
}

// FromHandler returns a Logger backed by h.
func FromHandler(h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h)}
}

// Discard returns a Logger that drops every record.
func Discard() *Logger {
	return New(io.Discard, FormatText, LevelSilent)
}

// SetDefault makes l the logger returned by Default. A nil l is ignored.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the process-wide logger. Components fall back to it when
// they are not given one.
func Default() *Logger { return defaultLogger }

// Module returns a child logger whose records carry module=name.
func (l *Logger) Module(name string) *Logger {
	return l.With("module", name)
}

// With returns a child logger whose records carry args.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

// Enabled reports whether a record at level would be written. The hart
// checks it before formatting per-instruction attributes.
func (l *Logger) Enabled(level slog.Level) bool {
	return l.inner.Enabled(context.Background(), level)
}

// Debug logs msg at slog.LevelDebug.
func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }

// Info logs msg at slog.LevelInfo.
func (l *Logger) Info(msg string, args ...any) { l.inner.Info(msg, args...) }

// Warn logs msg at slog.LevelWarn.
func (l *Logger) Warn(msg string, args ...any) { l.inner.Warn(msg, args...) }

// Error logs msg at slog.LevelError.
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// VerbosityToLevel maps the -verbosity flag onto a level: 0 is silent, 1
// errors, 2 warnings, 3 info and 4 or more debug.
func VerbosityToLevel(v int) slog.Level {
	levels := [...]slog.Level{LevelSilent, slog.LevelError, slog.LevelWarn, slog.LevelInfo}
	switch {
	case v <= 0:
		return LevelSilent
	case v < len(levels):
		return levels[v]
	default:
		return slog.LevelDebug
	}
}
