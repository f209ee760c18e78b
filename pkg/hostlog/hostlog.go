// Package hostlog provides the logging capabilities the test operation
// writes through: a six-level host logger and a system error channel.
package hostlog

import (
	"context"
	"log/slog"
)

// Logger is the host logging facility at its six severities.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Critical(msg string)
	Alert(msg string)
}

// SystemErrorLogger is the host's system error channel.
type SystemErrorLogger interface {
	SystemError(msg string)
}

// Severities above slog.LevelError.
const (
	LevelCritical = slog.Level(12)
	LevelAlert    = slog.Level(16)
)

// ReplaceLevel renders LevelCritical and LevelAlert by name.
// Use it as slog.HandlerOptions.ReplaceAttr.
func ReplaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	switch {
	case level >= LevelAlert:
		a.Value = slog.StringValue("ALERT")
	case level >= LevelCritical:
		a.Value = slog.StringValue("CRITICAL")
	}
	return a
}

// Slog adapts a *slog.Logger to Logger and SystemErrorLogger.
type Slog struct {
	l *slog.Logger
}

// NewSlog wraps l. A nil l uses slog.Default().
func NewSlog(l *slog.Logger) *Slog {
	if l == nil {
		l = slog.Default()
	}
	return &Slog{l: l}
}

func (s *Slog) Debug(msg string)    { s.log(slog.LevelDebug, msg) }
func (s *Slog) Info(msg string)     { s.log(slog.LevelInfo, msg) }
func (s *Slog) Warn(msg string)     { s.log(slog.LevelWarn, msg) }
func (s *Slog) Error(msg string)    { s.log(slog.LevelError, msg) }
func (s *Slog) Critical(msg string) { s.log(LevelCritical, msg) }
func (s *Slog) Alert(msg string)    { s.log(LevelAlert, msg) }

// SystemError logs msg at error level tagged with the system channel.
func (s *Slog) SystemError(msg string) {
	s.l.Error(msg, "channel", "system")
}

func (s *Slog) log(level slog.Level, msg string) {
	s.l.Log(context.Background(), level, msg)
}
