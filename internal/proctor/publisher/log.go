package publisher

import (
	"context"
	"log/slog"
	"sync"

	"mockview/internal/proctor/models"
)

// Log writes events to the structured log. Used when no broker is configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Publish(ctx context.Context, event models.Event) error {
	l.logger.InfoContext(ctx, "session event",
		"type", string(event.Type),
		"session_id", event.SessionID,
		"interview_id", event.InterviewID,
		"reason", event.Reason,
		"points", event.Points,
		"remaining", event.Remaining,
	)
	return nil
}

// Memory keeps events in process. Useful for tests and local runs.
type Memory struct {
	mu     sync.Mutex
	events []models.Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Publish(_ context.Context, event models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *Memory) Events() []models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Event(nil), m.events...)
}

// Types returns the event types in publish order.
func (m *Memory) Types() []models.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.EventType, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}
