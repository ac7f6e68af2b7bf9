package discovery

import (
	"sync"

	"github.com/eugenenazirov/yzconfig/internal/settings"
)

// Cache memoizes one settings source per owner key. Entries are set once and
// only removed by Reset.
type Cache struct {
	mu      sync.RWMutex
	sources map[any]settings.Source
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{sources: make(map[any]settings.Source)}
}

// Get returns the source cached for key.
func (c *Cache) Get(key any) (settings.Source, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	src, ok := c.sources[key]
	return src, ok
}

// Store caches src for key unless an entry already exists, and returns the
// entry that ends up cached.
func (c *Cache) Store(key any, src settings.Source) settings.Source {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.sources[key]; ok {
		return existing
	}
	c.sources[key] = src
	return src
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sources)
}

// Reset drops every cached entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.sources = make(map[any]settings.Source)
	c.mu.Unlock()
}
