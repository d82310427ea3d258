package elevation

import (
	"math"
	"sync"
	"sync/atomic"
)

// Cache memoizes a slower provider. Queries are snapped to a lattice of
// Resolution degrees so nearby vertices share one lookup.
type Cache struct {
	source     Provider
	resolution float64

	mu   sync.RWMutex
	data map[cacheKey]float64

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheKey struct {
	lat, lon int64
}

// NewCache wraps source. A resolution <= 0 caches exact positions only.
func NewCache(source Provider, resolution float64) *Cache {
	return &Cache{
		source:     source,
		resolution: resolution,
		data:       make(map[cacheKey]float64),
	}
}

// Elevation returns the cached height, querying the source on a miss.
func (c *Cache) Elevation(latitude, longitude float64) float64 {
	key, lat, lon := c.key(latitude, longitude)

	c.mu.RLock()
	v, ok := c.data[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return v
	}

	c.misses.Add(1)
	v = c.source.Elevation(lat, lon)

	c.mu.Lock()
	c.data[key] = v
	c.mu.Unlock()
	return v
}

// key snaps a position to the cache lattice and returns the snapped point.
func (c *Cache) key(latitude, longitude float64) (cacheKey, float64, float64) {
	if c.resolution <= 0 {
		return cacheKey{int64(math.Float64bits(latitude)), int64(math.Float64bits(longitude))}, latitude, longitude
	}
	la := int64(math.Round(latitude / c.resolution))
	lo := int64(math.Round(longitude / c.resolution))
	return cacheKey{la, lo}, float64(la) * c.resolution, float64(lo) * c.resolution
}

// Len returns the number of cached positions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear drops all cached values and resets the statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[cacheKey]float64)
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
