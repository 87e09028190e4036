// Package memory is a map-backed snapshot cache for tests and
// single-process deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"shopqueue/queue-service/internal/models"
)

type item struct {
	snapshot  models.AnalyticsSnapshot
	expiresAt time.Time
}

type Cache struct {
	mu    sync.RWMutex
	items map[string]item
	now   func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		items: make(map[string]item),
		now:   time.Now,
	}
}

func (c *Cache) Get(ctx context.Context, shopID string) (models.AnalyticsSnapshot, bool, error) {
	c.mu.RLock()
	cached, ok := c.items[shopID]
	c.mu.RUnlock()
	if !ok || c.now().After(cached.expiresAt) {
		return models.AnalyticsSnapshot{}, false, nil
	}
	return cached.snapshot, true, nil
}

func (c *Cache) Put(ctx context.Context, shopID string, snapshot models.AnalyticsSnapshot, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[shopID] = item{snapshot: snapshot, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, shopID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, shopID)
	return nil
}
