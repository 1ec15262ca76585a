package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory store for tests and examples.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]Record // kind -> id -> record
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]Record),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, rec Record, expectedVersion int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	current := m.data[rec.Kind][rec.ID].Version
	if current != expectedVersion {
		return ErrVersionConflict
	}
	if m.data[rec.Kind] == nil {
		m.data[rec.Kind] = make(map[string]Record)
	}

	// Copy data to avoid retaining caller's slice
	rec.Data = slices.Clone(rec.Data)
	rec.UpdatedAt = time.Now().UTC()
	m.data[rec.Kind][rec.ID] = rec
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context, kind, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Record{}, ErrStoreClosed
	}

	rec, ok := m.data[kind][id]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Data = slices.Clone(rec.Data)
	return rec, nil
}

// List implements Store.
func (m *MemoryStore) List(ctx context.Context, kind string) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	infos := make([]Info, 0, len(m.data[kind]))
	for _, rec := range m.data[kind] {
		infos = append(infos, Info{
			Kind:      rec.Kind,
			ID:        rec.ID,
			Version:   rec.Version,
			UpdatedAt: rec.UpdatedAt,
			Size:      int64(len(rec.Data)),
		})
	}
	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(a.ID, b.ID) })
	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, kind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data[kind], id)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

// Len returns the number of records across all kinds.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, byID := range m.data {
		count += len(byID)
	}
	return count
}
