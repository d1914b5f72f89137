package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockEventPublisher records events in memory for tests.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []Event
	logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (p *MockEventPublisher) PublishEvent(ctx context.Context, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    sourceName,
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	return nil
}

func (p *MockEventPublisher) Close() error { return nil }

func (p *MockEventPublisher) GetPublishedEvents() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *MockEventPublisher) ClearEvents() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
