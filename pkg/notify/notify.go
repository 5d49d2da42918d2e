// Package notify carries user-facing notifications from the server to
// whatever surface presents them.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Severity is the tone of a notification.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

// Notification is one user-facing message.
type Notification struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func New(severity Severity, title, message string) Notification {
	return Notification{Title: title, Message: message, Severity: severity}
}

func Errorf(title, message string) Notification {
	return New(Error, title, message)
}

func Successf(title, message string) Notification {
	return New(Success, title, message)
}

// Sink accepts notifications.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// LogSink writes notifications to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("system", "notify")}
}

func (s *LogSink) Notify(ctx context.Context, n Notification) {
	level := slog.LevelInfo
	switch n.Severity {
	case Error:
		level = slog.LevelError
	case Warning:
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "notification", "title", n.Title, "message", n.Message, "severity", string(n.Severity))
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications in arrival order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}
