package compare

import (
	"container/list"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// resultCache is a bounded LRU cache for comparison results with per-entry
// TTL. Keys are a canonical serialization of (itemID, config) so two
// semantically identical configs always address the same entry; a stale or
// evicted entry only costs a recompute, never a wrong answer.
type resultCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // front = most recently used

	maxEntries int
	ttl        time.Duration
	metrics    *MetricsRecorder

	// now is swappable for tests.
	now func() time.Time
}

type cacheEntry struct {
	key      string
	value    *ItemComparisonResults
	storedAt time.Time
}

func newResultCache(maxEntries int, ttl time.Duration, metrics *MetricsRecorder) *resultCache {
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &resultCache{
		entries:    make(map[string]*list.Element),
		lru:        list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
		metrics:    metrics,
		now:        time.Now,
	}
}

// cacheKey serializes the cache key deterministically. encoding/json emits
// struct fields in declaration order and sorts map keys, so equal configs
// always produce equal keys.
func cacheKey(itemID string, config ComparisonConfig) (string, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("serializing config for cache key: %w", err)
	}
	return itemID + "|" + string(raw), nil
}

// Get returns the cached results for a key, or nil on miss or expiry.
func (c *resultCache) Get(key string) *ItemComparisonResults {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.metrics.RecordCacheMiss()
		return nil
	}

	entry := elem.Value.(*cacheEntry)
	if c.now().Sub(entry.storedAt) > c.ttl {
		c.removeLocked(elem)
		c.metrics.RecordCacheEviction("ttl")
		c.metrics.RecordCacheMiss()
		return nil
	}

	c.lru.MoveToFront(elem)
	c.metrics.RecordCacheHit()
	return entry.value
}

// Put stores results under a key, evicting the least recently used entry
// when the cache is full.
func (c *resultCache) Put(key string, value *ItemComparisonResults) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.storedAt = c.now()
		c.lru.MoveToFront(elem)
		return
	}

	for c.lru.Len() >= c.maxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
		c.metrics.RecordCacheEviction("capacity")
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, value: value, storedAt: c.now()})
	c.entries[key] = elem
}

// Invalidate drops every cached entry for an item, e.g. after new offers
// are captured.
func (c *resultCache) Invalidate(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := itemID + "|"
	for key, elem := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			c.removeLocked(elem)
		}
	}
}

// Len returns the number of live entries.
func (c *resultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *resultCache) removeLocked(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	delete(c.entries, entry.key)
	c.lru.Remove(elem)
}
