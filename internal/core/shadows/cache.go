package shadows

import (
	"sync"

	"github.com/google/uuid"
)

type cacheKey struct {
	origin Point
	set    uuid.UUID
}

// Cache memoizes polygons keyed by (origin, segment set identity). The caller
// owns it; the caster itself stays stateless. Polygons handed out are shared
// between callers and must not be modified.
type Cache struct {
	caster   Caster
	capacity int

	mu      sync.Mutex
	entries map[cacheKey]VisibilityPolygon
	order   []cacheKey // insertion order, oldest first
	hits    uint64
	misses  uint64
}

// NewCache creates a cache holding at most capacity polygons. Once full the
// oldest entry is evicted.
func NewCache(caster Caster, capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		caster:   caster,
		capacity: capacity,
		entries:  make(map[cacheKey]VisibilityPolygon, capacity),
	}
}

// Compute returns the cached polygon for (origin, set) or casts and stores it.
// Non-finite origins are cast without caching; NaN keys never match, so they
// could neither be found nor evicted.
func (c *Cache) Compute(origin Point, set *SegmentSet) VisibilityPolygon {
	if !origin.Finite() {
		return c.caster.Compute(origin, set)
	}
	key := cacheKey{origin: origin, set: set.ID()}

	c.mu.Lock()
	if poly, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return poly
	}
	c.misses++
	c.mu.Unlock()

	// cast outside the lock; concurrent misses on one key compute the same result
	poly := c.caster.Compute(origin, set)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return c.entries[key]
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = poly
	c.order = append(c.order, key)
	return poly
}

// Len returns the number of cached polygons
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counters
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Reset drops every cached polygon
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]VisibilityPolygon, c.capacity)
	c.order = nil
}
