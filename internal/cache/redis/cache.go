package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shopqueue/queue-service/internal/models"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func snapshotKey(shopID string) string {
	return fmt.Sprintf("analytics:snapshot:%s", shopID)
}

func (c *Cache) Get(ctx context.Context, shopID string) (models.AnalyticsSnapshot, bool, error) {
	data, err := c.client.Get(ctx, snapshotKey(shopID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.AnalyticsSnapshot{}, false, nil
		}
		return models.AnalyticsSnapshot{}, false, err
	}

	var snapshot models.AnalyticsSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		// A corrupt payload is treated as a miss; the next Put
		// overwrites it.
		return models.AnalyticsSnapshot{}, false, nil
	}
	return snapshot, true, nil
}

func (c *Cache) Put(ctx context.Context, shopID string, snapshot models.AnalyticsSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(shopID), data, ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, shopID string) error {
	return c.client.Del(ctx, snapshotKey(shopID)).Err()
}
