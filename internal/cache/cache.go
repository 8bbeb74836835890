// Package cache bounds how many loaded segments a log keeps warm in memory. Segments outside the
// cache and outside the open tail still exist on disk; they are simply re-read and re-parsed the
// next time an entry inside them is requested.
package cache

import (
	"github.com/tidwall/tinylru"
)

// Evictor is called with the value evicted from the cache to make room for a new entry, so the
// caller can release whatever memory the value was pinning (a segment's entry buffer and position
// table, in this log's case).
type Evictor func(evicted any)

// Cache is a fixed-capacity least-recently-used map from an arbitrary integer key (the log keys
// by a segment's position in its canonical list) to an arbitrary cached value. It is not safe for
// concurrent use; callers serialize access the way the log already serializes every other
// operation on its segments.
type Cache struct {
	lru  tinylru.LRU
	size int
}

// New returns a cache holding at most size entries. A size of zero or less disables caching:
// every Set evicts immediately.
func New(size int) *Cache {
	return &Cache{size: size}
}

// Set inserts or updates the value cached for key, evicting the least recently used entry if the
// cache is at capacity. The evicted value, if any, is passed to evict.
func (c *Cache) Set(key int, value any, evict Evictor) {
	if c.size <= 0 {
		if evict != nil {
			evict(value)
		}
		return
	}
	_, _, _, evictedValue, didEvict := c.lru.SetEvicted(key, value)
	c.lru.Resize(c.size)
	if didEvict && evict != nil {
		evict(evictedValue)
	}
}

// Range calls fn for every value currently cached, in no particular order, stopping early if fn
// returns false.
func (c *Cache) Range(fn func(value any) bool) {
	c.lru.Range(func(_ interface{}, value interface{}) bool {
		return fn(value)
	})
}

// Clear empties the cache, invoking evict for every value it held.
func (c *Cache) Clear(evict Evictor) {
	c.lru.Range(func(_ interface{}, value interface{}) bool {
		if evict != nil {
			evict(value)
		}
		return true
	})
	c.lru = tinylru.LRU{}
}
