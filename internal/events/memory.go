package events

import (
	"context"
	"sync"
	"time"
)

// MemoryBus keeps a bounded ring of recent events. It backs tests and
// deployments that run without a broker.
type MemoryBus struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// NewMemoryBus creates a bus retaining up to limit recent events.
func NewMemoryBus(limit int) *MemoryBus {
	if limit <= 0 {
		limit = 100
	}
	return &MemoryBus{limit: limit}
}

// Publish records the event.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	if len(b.events) > b.limit {
		b.events = b.events[len(b.events)-b.limit:]
	}
	return nil
}

// Events returns a copy of the retained events, oldest first.
func (b *MemoryBus) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Close is a no-op.
func (b *MemoryBus) Close() error { return nil }
