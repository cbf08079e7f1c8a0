// Package cache provides the key-value collaborator used to memoize search
// results. Entries expire lazily on read; there is no background sweep.
package cache

import (
	"sync"
	"time"
)

// Cache is the minimal TTL key-value contract the search service needs.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
	Clear()
}

type entry struct {
	value  any
	expiry time.Time
}

// Memory is an in-process Cache. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry)}
}

func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiry) {
		m.mu.Lock()
		// Re-check: another goroutine may have refreshed the key.
		if cur, ok := m.entries[key]; ok && time.Now().After(cur.expiry) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Set(key string, value any, ttl time.Duration) {
	m.mu.Lock()
	m.entries[key] = entry{value: value, expiry: time.Now().Add(ttl)}
	m.mu.Unlock()
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

func (m *Memory) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
}
