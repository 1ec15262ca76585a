package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
)

// MemoryLog is an in-memory audit log for tests and examples.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []Entry
	seen    map[string]struct{}
	closed  bool
}

// NewMemoryLog creates an empty log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{seen: make(map[string]struct{})}
}

// Append implements Log.
func (m *MemoryLog) Append(ctx context.Context, evt event.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if evt == nil {
		return event.ErrNilEvent
	}

	// Round-trip through the JSON projection so readers see exactly what a
	// persistent log would return.
	data, err := event.Encode(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	stored, err := event.Decode(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrLogClosed
	}
	if _, dup := m.seen[stored.EventID()]; dup {
		return nil
	}
	m.seen[stored.EventID()] = struct{}{}
	m.entries = append(m.entries, Entry{
		Seq:        int64(len(m.entries) + 1),
		Event:      stored,
		RecordedAt: time.Now().UTC(),
	})
	return nil
}

// ByAggregate implements Log.
func (m *MemoryLog) ByAggregate(ctx context.Context, aggregateID string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrLogClosed
	}
	out := []Entry{}
	for _, e := range m.entries {
		if e.Event.AggregateID() == aggregateID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Recent implements Log.
func (m *MemoryLog) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrLogClosed
	}
	out := []Entry{}
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Close implements Log.
func (m *MemoryLog) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// Len returns the number of entries.
func (m *MemoryLog) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Compile-time check that MemoryLog implements Log.
var _ Log = (*MemoryLog)(nil)
