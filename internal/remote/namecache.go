package remote

import (
	"sync"
	"time"
)

// Doctor names change essentially never; cache them so repeated watcher
// creations for a popular doctor don't refetch the page.
const nameTTL = 24 * time.Hour

type nameEntry struct {
	name      string
	expiresAt time.Time
}

// nameCache is a thread-safe in-memory TTL cache keyed by doctor URL.
type nameCache struct {
	mu      sync.RWMutex
	entries map[string]nameEntry
}

func newNameCache() *nameCache {
	return &nameCache{entries: make(map[string]nameEntry)}
}

func (c *nameCache) Get(url string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[url]
	if !ok || time.Now().After(e.expiresAt) {
		return "", false
	}
	return e.name, true
}

func (c *nameCache) Set(url, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Opportunistic eviction keeps the map bounded without a sweeper.
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[url] = nameEntry{name: name, expiresAt: now.Add(nameTTL)}
}
