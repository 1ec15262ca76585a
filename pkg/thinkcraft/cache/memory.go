package cache

import (
	"context"
	"sync"
)

// MemoryCache is a process-local key/value cache that also serves as an
// Invalidator. Used in tests and single-process setups.
type MemoryCache struct {
	mu          sync.RWMutex
	entries     map[string][]byte
	invalidated int
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

// Set stores value under key.
func (m *MemoryCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]byte(nil), value...)
}

// Get returns the value under key.
func (m *MemoryCache) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// Invalidate implements Invalidator.
func (m *MemoryCache) Invalidate(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		if _, ok := m.entries[k]; ok {
			delete(m.entries, k)
			m.invalidated++
		}
	}
	return nil
}

// Invalidated returns how many entries have been removed so far.
func (m *MemoryCache) Invalidated() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.invalidated
}

// Compile-time check that MemoryCache implements Invalidator.
var _ Invalidator = (*MemoryCache)(nil)
