package tracker

import (
	"context"
	"log/slog"
	"time"
)

// LogEvent describes a tracker operation for logging. Mutations of single
// subjects are not logged; bulk operations, persistence, expression
// evaluation and hook failures are.
type LogEvent struct {
	Op       string
	State    string
	Engine   string
	Expr     string
	Count    int
	Duration time.Duration
	Err      error
}

// Logger records tracker events.
type Logger interface {
	LogEvent(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// LogEvent implements Logger.
func (f LoggerFunc) LogEvent(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogEvent(LogEvent) {}

// WithLogger attaches a logger to the tracker.
func WithLogger(logger Logger) Option {
	return func(cfg *trackerConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// SlogLogger writes events to logger at Debug level, or Error when the event
// carries an error.
func SlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slogLogger{logger: logger.With("component", "tracker")}
}

type slogLogger struct {
	logger *slog.Logger
}

func (l slogLogger) LogEvent(event LogEvent) {
	attrs := []slog.Attr{slog.String("op", event.Op)}
	if event.State != "" {
		attrs = append(attrs, slog.String("state", event.State))
	}
	if event.Engine != "" {
		attrs = append(attrs, slog.String("engine", event.Engine))
	}
	if event.Expr != "" {
		attrs = append(attrs, slog.String("expr", event.Expr))
	}
	if event.Count > 0 {
		attrs = append(attrs, slog.Int("count", event.Count))
	}
	if event.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", event.Duration))
	}
	level := slog.LevelDebug
	if event.Err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.Any("error", event.Err))
	}
	l.logger.LogAttrs(context.Background(), level, "tracker "+event.Op, attrs...)
}

func (t *Tracker[K, V]) logger() Logger {
	if t.cfg.logger != nil {
		return t.cfg.logger
	}
	return noopLogger{}
}
