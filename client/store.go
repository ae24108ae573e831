// Package client is the Go SDK for the Advenrent API: a REST client with
// session handling, plus a cached, paginated vehicle search orchestrator.
package client

import (
	"sync"
	"time"
)

// Store is a string key-value store used for the search cache. A file- or
// keychain-backed implementation can be supplied; MemoryStore is the
// default.
type Store interface {
	// Get returns the value for key, or false when absent.
	Get(key string) (string, bool)
	// Set overwrites the value for key unconditionally.
	Set(key, value string)
	// Delete removes key.
	Delete(key string)
}

// MemoryStore is an in-memory Store with TTL-based sweeping: entries older
// than the configured lifetime are dropped on every write, so the store
// does not grow without bound.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   string
	written time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store sweeping entries older than ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the value for key if present and not swept.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return "", false
	}
	return entry.value, true
}

// Set stores the value and sweeps expired entries.
func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if now.Sub(e.written) >= s.ttl {
			delete(s.entries, k)
		}
	}
	s.entries[key] = memoryEntry{value: value, written: now}
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}
