package modularity

import (
	"context"
	"log/slog"
)

// Category classifies a log message.
type Category int

const (
	CategoryDebug Category = iota
	CategoryException
	CategoryInfo
	CategoryWarn
)

// Priority ranks a log message.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "none"
	}
}

// Logger is the sink the initializer reports failures to.
type Logger interface {
	Log(message string, category Category, priority Priority)
}

// SlogLogger adapts a *slog.Logger to Logger.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger. A nil logger falls back to slog.Default.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// Log implements Logger.
func (l *SlogLogger) Log(message string, category Category, priority Priority) {
	var level slog.Level
	switch category {
	case CategoryDebug:
		level = slog.LevelDebug
	case CategoryException:
		level = slog.LevelError
	case CategoryWarn:
		level = slog.LevelWarn
	default:
		level = slog.LevelInfo
	}
	l.logger.Log(context.Background(), level, message, "priority", priority.String())
}

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Log(string, Category, Priority) {}
