package statcache

import (
	"sync"

	"github.com/cfengine/promise-engine/pkg/types"
)

type key struct {
	server string
	path   string
}

// Cache holds stat() responses for one network connection's lifetime,
// following pkg/vars.Table's single guarded-map convention rather than a
// bespoke per-server structure. Callers obtained from the (external)
// transport layer populate it per stat call; in this single-host engine
// it is exercised by actuator-local stat() calls standing in for that
// transport, per SPEC_FULL.md §3.
type Cache struct {
	mu      sync.RWMutex
	entries map[key]types.StatCacheEntry
}

// New returns an empty cache, scoped to one connection.
func New() *Cache {
	return &Cache{entries: make(map[key]types.StatCacheEntry)}
}

// Get returns the cached entry for (server, path), if present.
func (c *Cache) Get(server, path string) (types.StatCacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key{server, path}]
	return e, ok
}

// Put installs or replaces the cached entry for (server, path).
func (c *Cache) Put(entry types.StatCacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key{entry.Server, entry.Path}] = entry
}

// Invalidate drops the cached entry for (server, path), reporting whether
// one was present.
func (c *Cache) Invalidate(server, path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key{server, path}
	_, ok := c.entries[k]
	delete(c.entries, k)
	return ok
}

// Count returns the number of entries currently cached.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear empties the cache, called when the underlying connection closes
// since a Stat cache entry's lifetime is bounded to one connection.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[key]types.StatCacheEntry)
}
