// Package logging builds the application's slog logger.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the rotated log file inside Options.Dir.
const FileName = "ownship-simulator.slog"

// Options configures New.
type Options struct {
	Level string // debug, info, warn or error
	Dir   string // log file directory; empty disables the file
	Quiet bool   // only warnings and errors on stderr

	// Stderr replaces os.Stderr, mostly for tests.
	Stderr io.Writer
}

// Logger is a slog.Logger that owns its rotating file.
type Logger struct {
	*slog.Logger
	LogFile string
	file    *lumberjack.Logger
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel converts a level name. Unknown names are reported and map to info.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// New returns a logger writing text to stderr and, when Dir is set, JSON to
// a size-rotated file.
func New(o Options) *Logger {
	level, ok := ParseLevel(o.Level)

	stderr := o.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	consoleLevel := level
	if o.Quiet && consoleLevel < slog.LevelWarn {
		consoleLevel = slog.LevelWarn
	}
	handlers := []slog.Handler{
		slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: consoleLevel}),
	}

	l := &Logger{}
	if o.Dir != "" {
		l.file = &lumberjack.Logger{
			Filename:   filepath.Join(o.Dir, FileName),
			MaxSize:    32, // MB
			MaxBackups: 3,
			MaxAge:     14,
		}
		if level == slog.LevelDebug {
			l.file.MaxSize = 256
		}
		l.LogFile = l.file.Filename
		handlers = append(handlers, slog.NewJSONHandler(l.file, &slog.HandlerOptions{Level: level}))
	}

	l.Logger = slog.New(fanout(handlers))
	if !ok {
		l.Warn("invalid log level, using info", slog.String("level", o.Level))
	}
	return l
}

// fanout sends every record to each handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
