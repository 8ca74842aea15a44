package embedding

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/ingat/pkg/utils"
)

// EmbeddingCache is a bounded first-in-first-out cache of normalized embeddings
// keyed by exact input text. Reads do not affect eviction order.
type EmbeddingCache struct {
	capacity int
	cache    map[string]*list.Element
	fifo     *list.List // front is newest
	mu       sync.RWMutex
}

type cacheEntry struct {
	key   string
	value []float32
}

// NewEmbeddingCache creates a new cache holding at most capacity entries.
// A capacity of zero or less disables caching.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	return &EmbeddingCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		fifo:     list.New(),
	}
}

// Get returns a copy of the cached embedding for key if present.
func (c *EmbeddingCache) Get(key string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if elem, ok := c.cache[key]; ok {
		return cloneVector(elem.Value.(*cacheEntry).value), true
	}
	return nil, false
}

// Set stores a copy of the embedding for key. A resident key keeps its insertion position.
// When the cache is full, the earliest-inserted entry is evicted first.
func (c *EmbeddingCache) Set(key string, value []float32) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		elem.Value.(*cacheEntry).value = cloneVector(value)
		return
	}

	for c.fifo.Len() >= c.capacity {
		oldest := c.fifo.Back()
		c.fifo.Remove(oldest)
		delete(c.cache, oldest.Value.(*cacheEntry).key)
	}
	c.cache[key] = c.fifo.PushFront(&cacheEntry{key: key, value: cloneVector(value)})
}

// Len returns the number of resident entries.
func (c *EmbeddingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fifo.Len()
}

// Capacity returns the configured bound.
func (c *EmbeddingCache) Capacity() int {
	return c.capacity
}

// GetOrCompute returns the cached embedding for text, or calls compute, normalizes
// the result to unit length, caches it and returns it. The returned slice is the
// caller's to modify. If compute fails the cache is left unchanged and the error
// is returned.
func (c *EmbeddingCache) GetOrCompute(ctx context.Context, text string, compute EmbedFunc) ([]float32, error) {
	if v, ok := c.Get(text); ok {
		return v, nil
	}
	raw, err := compute(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("embedding provider returned an empty vector")
	}
	vec := cloneVector(raw)
	utils.NormalizeL2(vec)
	c.Set(text, vec)
	return vec, nil
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
