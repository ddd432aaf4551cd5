package cache

import (
	"sync"
)

// memoryTier is the in-process cache tier. Expired entries are evicted lazily
// on read; there is no background janitor.
type memoryTier struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func newMemoryTier() *memoryTier {
	return &memoryTier{
		entries: make(map[string]*Entry),
	}
}

// get returns a live entry, or nil. Expired entries are removed.
func (m *memoryTier) get(fingerprint string) *Entry {
	m.mu.RLock()
	entry, ok := m.entries[fingerprint]
	m.mu.RUnlock()

	if !ok {
		return nil
	}

	if entry.IsExpired() {
		m.mu.Lock()
		// Re-check under the write lock: a fresher entry may have replaced
		// the expired one between the two lock acquisitions.
		if current, ok := m.entries[fingerprint]; ok && current.IsExpired() {
			delete(m.entries, fingerprint)
		}
		m.mu.Unlock()
		return nil
	}

	return entry
}

func (m *memoryTier) set(fingerprint string, entry *Entry) {
	m.mu.Lock()
	m.entries[fingerprint] = entry
	m.mu.Unlock()
}

func (m *memoryTier) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *memoryTier) clear() {
	m.mu.Lock()
	m.entries = make(map[string]*Entry)
	m.mu.Unlock()
}
