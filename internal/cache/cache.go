// Package cache holds analytics snapshots between requests. The cache
// is advisory: a miss or a stale read only costs a recomputation, and
// concurrent writers are last-writer-wins.
package cache

import (
	"context"
	"time"

	"shopqueue/queue-service/internal/models"
)

type SnapshotCache interface {
	// Get returns the shop's snapshot and whether one was present.
	Get(ctx context.Context, shopID string) (models.AnalyticsSnapshot, bool, error)
	Put(ctx context.Context, shopID string, snapshot models.AnalyticsSnapshot, ttl time.Duration) error
	Invalidate(ctx context.Context, shopID string) error
}
