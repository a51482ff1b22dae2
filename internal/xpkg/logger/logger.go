package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the structured logger every service receives. Action tags the
// following entries with the operation being performed.
type Logger interface {
	Action(action string) Logger
	With(args ...any) Logger
	WithGroup(name string) Logger

	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, err error, args ...any)
}

type Options struct {
	Level  string
	Format string // json | text
	Output io.Writer
}

type logger struct {
	l *slog.Logger
}

// New creates a JSON logger writing to stdout.
func New(level string) (Logger, error) {
	return NewWithOptions(Options{Level: level, Format: "json", Output: os.Stdout})
}

func NewWithOptions(opts Options) (Logger, error) {
	lvl, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "json":
		h = slog.NewJSONHandler(out, handlerOpts)
	case "text":
		h = slog.NewTextHandler(out, handlerOpts)
	default:
		return nil, fmt.Errorf("unknown log format: %s", opts.Format)
	}

	hostname, _ := os.Hostname()
	return &logger{l: slog.New(h).With("hostname", hostname)}, nil
}

// Discard returns a logger that drops everything, used by tests.
func Discard() Logger {
	return &logger{l: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (lg *logger) Action(action string) Logger {
	return &logger{l: lg.l.With("action", action)}
}

func (lg *logger) With(args ...any) Logger {
	return &logger{l: lg.l.With(args...)}
}

func (lg *logger) WithGroup(name string) Logger {
	return &logger{l: lg.l.WithGroup(name)}
}

func (lg *logger) Debug(msg string, args ...any) {
	lg.l.Debug(msg, args...)
}

func (lg *logger) Info(msg string, args ...any) {
	lg.l.Info(msg, args...)
}

func (lg *logger) Warn(msg string, args ...any) {
	lg.l.Warn(msg, args...)
}

func (lg *logger) Error(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	lg.l.Error(msg, args...)
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}
