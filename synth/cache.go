package synth

import (
	"context"
	"sync"
)

// Cache memoizes synthesized audio by content key. Implementations
// must be write-once: a Put under an existing key keeps the original
// bytes.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key, voice string, chars int, audio []byte) error
}

// MemoryCache is an in-process Cache for tests and one-shot runs.
type MemoryCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string][]byte)}
}

// Get returns the audio stored under key, if any.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.m[key]
	return data, ok, nil
}

// Put stores audio under key unless the key already exists.
func (c *MemoryCache) Put(_ context.Context, key, _ string, _ int, audio []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[key]; ok {
		return nil
	}
	cp := make([]byte, len(audio))
	copy(cp, audio)
	c.m[key] = cp
	return nil
}

// Len reports how many fragments are cached.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
