// Package cache provides the key-value result cache used to memoize
// expensive market-data lookups.
//
// The cache is a pass-through memoizer: get/put by string key with optional
// expiry, no eviction policy, no single-flight deduplication. Concurrent puts
// to the same key are last-write-wins.
package cache

import (
	"sync"
	"time"
)

// Cache stores opaque values by string key. A ttl of zero means the entry
// never expires; a negative ttl stores an already-expired entry.
type Cache interface {
	Get(key string) (value []byte, ok bool, err error)
	Put(key string, value []byte, ttl time.Duration) error
}

// Memory is an in-process Cache. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero = no expiry
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Put(key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: value}
	if ttl != 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Override serves fixed values for selected keys and delegates everything
// else to an underlying cache. Useful to pin known prices in tests and
// backfills without touching the shared cache.
type Override struct {
	Overrides  map[string][]byte
	Underlying Cache
}

func (o *Override) Get(key string) ([]byte, bool, error) {
	if v, ok := o.Overrides[key]; ok {
		return v, true, nil
	}
	return o.Underlying.Get(key)
}

func (o *Override) Put(key string, value []byte, ttl time.Duration) error {
	return o.Underlying.Put(key, value, ttl)
}

// Null is a Cache that remembers nothing. Every get is a miss.
type Null struct{}

func (Null) Get(string) ([]byte, bool, error)        { return nil, false, nil }
func (Null) Put(string, []byte, time.Duration) error { return nil }
