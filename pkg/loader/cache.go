package loader

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// CacheKey generates a unique cache key for a GraphFile based on its ID and path.
func CacheKey(file GraphFile) string {
	return file.ID + ":" + file.FilePath
}

// Cache memoizes loader results per key. Concurrent loads of the same key
// share one call; failed loads are not cached.
type Cache struct {
	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

func NewCache() *Cache {
	return &Cache{cache: make(map[string][]byte)}
}

func (c *Cache) get(key string) ([]byte, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	cached, ok := c.cache[key]
	return cached, ok
}

// Load returns the cached value for key or calls load to produce it.
func (c *Cache) Load(key string, load func() ([]byte, error)) ([]byte, error) {
	if cached, ok := c.get(key); ok {
		return cached, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		if cached, ok := c.get(key); ok {
			return cached, nil
		}
		content, err := load()
		if err != nil {
			return nil, err
		}

		c.cacheMu.Lock()
		c.cache[key] = content
		c.cacheMu.Unlock()

		return content, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
