// Package cache provides a small in-memory TTL store used for read-mostly
// lookups like organization names on the public invite validation path.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store holds string values by key with a per-entry TTL.
type Store interface {
	// Put stores value for key until expiresAt.
	Put(ctx context.Context, key, value string, expiresAt time.Time)
	// Get returns the value for key if present and not expired. Returns ok false if missing or expired.
	Get(ctx context.Context, key string) (value string, ok bool)
}

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]entry
	nowF func() time.Time
}

// NewMemoryStore returns a new in-memory TTL store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]entry),
		nowF: time.Now().UTC,
	}
}

// Put stores value for key until expiresAt.
func (s *MemoryStore) Put(ctx context.Context, key, value string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = entry{value: value, expiresAt: expiresAt}
}

// Get returns the value for key if present and not expired.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool) {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, key)
		s.mu.Unlock()
		return "", false
	}
	return e.value, true
}
