package entities

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// resourceCache maps a natural key (EIN, employee id, plaid id) to a gateway
// resource id. Concurrent misses for the same key are collapsed into a single
// creation call.
type resourceCache struct {
	mu      sync.RWMutex
	entries map[string]string
	group   singleflight.Group
}

func newResourceCache() *resourceCache {
	return &resourceCache{entries: make(map[string]string)}
}

func (c *resourceCache) Lookup(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.entries[key]
	return id, ok
}

func (c *resourceCache) Put(key, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = id
}

// GetOrCreate returns the cached id for key, running create at most once per
// key across concurrent callers. A failed create caches nothing, so the next
// caller retries.
func (c *resourceCache) GetOrCreate(key string, create func() (string, error)) (string, error) {
	if id, ok := c.Lookup(key); ok {
		return id, nil
	}
	result, err, _ := c.group.Do(key, func() (any, error) {
		if id, ok := c.Lookup(key); ok {
			return id, nil
		}
		id, err := create()
		if err != nil {
			return "", err
		}
		c.Put(key, id)
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
