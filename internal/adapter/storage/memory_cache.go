package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is the in-process CacheRepository. Keys expire after ttl;
// a zero ttl keeps them until released.
type MemoryCache struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	keys map[string]time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:  ttl,
		now:  time.Now,
		keys: make(map[string]time.Time),
	}
}

func (c *MemoryCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if expiresAt, ok := c.keys[key]; ok && (expiresAt.IsZero() || now.Before(expiresAt)) {
		return false, nil
	}

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = now.Add(c.ttl)
	}
	c.keys[key] = expiresAt
	return true, nil
}

func (c *MemoryCache) ReleaseIdempotency(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
	return nil
}

// Sweep drops expired keys and reports how many were removed.
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, expiresAt := range c.keys {
		if !expiresAt.IsZero() && !now.Before(expiresAt) {
			delete(c.keys, key)
			removed++
		}
	}
	return removed
}

func (c *MemoryCache) Ping(ctx context.Context) error {
	return nil
}
