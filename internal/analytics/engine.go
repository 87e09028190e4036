// Package analytics aggregates queue history into time, peak-hour, and
// per-service reports. Snapshots are cached per shop for a short
// window; a snapshot is reused only when it is fresh and was computed
// over exactly the requested scope.
package analytics

import (
	"context"
	"log"
	"time"

	"shopqueue/queue-service/internal/cache"
	"shopqueue/queue-service/internal/fault"
	"shopqueue/queue-service/internal/metrics"
	"shopqueue/queue-service/internal/models"
	"shopqueue/queue-service/internal/store"
)

const (
	defaultFreshFor = 5 * time.Minute
	listPageSize    = 500
)

type Engine struct {
	store    store.QueueStore
	cache    cache.SnapshotCache
	freshFor time.Duration
	cacheTTL time.Duration
	now      func() time.Time
}

type Options struct {
	// FreshFor bounds snapshot reuse; CacheTTL is what Put hands the
	// cache. Both default to five minutes.
	FreshFor time.Duration
	CacheTTL time.Duration
}

func NewEngine(queueStore store.QueueStore, snapshotCache cache.SnapshotCache, options Options) *Engine {
	freshFor := options.FreshFor
	if freshFor <= 0 {
		freshFor = defaultFreshFor
	}
	cacheTTL := options.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultFreshFor
	}
	return &Engine{
		store:    queueStore,
		cache:    snapshotCache,
		freshFor: freshFor,
		cacheTTL: cacheTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type Query struct {
	ShopID     string
	DateFrom   time.Time
	DateTo     time.Time
	EmployeeID string
	ServiceID  string
}

func (q Query) scope() models.AnalyticsScope {
	return models.AnalyticsScope{
		ShopID:     q.ShopID,
		DateFrom:   q.DateFrom,
		DateTo:     q.DateTo,
		EmployeeID: q.EmployeeID,
		ServiceID:  q.ServiceID,
	}
}

func (q Query) validate(op string) error {
	if q.ShopID == "" {
		return fault.Validation(op, "shop_id is required")
	}
	if q.DateFrom.IsZero() || q.DateTo.IsZero() {
		return fault.Validation(op, "date_from and date_to are required")
	}
	if q.DateFrom.After(q.DateTo) {
		return fault.Validation(op, "date_from must not be after date_to")
	}
	return nil
}

func (e *Engine) TimeStats(ctx context.Context, query Query) (models.TimeReport, error) {
	snapshot, err := e.snapshot(ctx, "analytics.TimeStats", query)
	if err != nil {
		return models.TimeReport{}, err
	}
	return snapshot.Time, nil
}

func (e *Engine) PeakHours(ctx context.Context, query Query) (models.PeakHourReport, error) {
	snapshot, err := e.snapshot(ctx, "analytics.PeakHours", query)
	if err != nil {
		return models.PeakHourReport{}, err
	}
	return snapshot.PeakHours, nil
}

func (e *Engine) ServiceStats(ctx context.Context, query Query) (models.ServiceReport, error) {
	snapshot, err := e.snapshot(ctx, "analytics.ServiceStats", query)
	if err != nil {
		return models.ServiceReport{}, err
	}
	return snapshot.Services, nil
}

// Snapshot returns the full aggregate set for the scope, cached or
// recomputed.
func (e *Engine) Snapshot(ctx context.Context, query Query) (models.AnalyticsSnapshot, error) {
	return e.snapshot(ctx, "analytics.Snapshot", query)
}

func (e *Engine) snapshot(ctx context.Context, op string, query Query) (models.AnalyticsSnapshot, error) {
	if err := query.validate(op); err != nil {
		return models.AnalyticsSnapshot{}, err
	}
	scope := query.scope()

	cached, present, err := e.cache.Get(ctx, query.ShopID)
	if err != nil {
		// Advisory cache: fall through to recompute.
		log.Printf("analytics cache get error shop=%s err=%v", query.ShopID, err)
	}
	if present && e.now().Sub(cached.ComputedAt) < e.freshFor && cached.Scope.Equal(scope) {
		metrics.TrackCacheLookup("hit")
		return cached, nil
	}
	metrics.TrackCacheLookup("miss")

	started := e.now()
	entries, err := e.listEntries(ctx, query)
	if err != nil {
		return models.AnalyticsSnapshot{}, fault.OperationFailed(op, err, "listing queue entries failed")
	}

	snapshot := models.AnalyticsSnapshot{
		Scope:      scope,
		Time:       computeTimeReport(entries),
		PeakHours:  computePeakReport(entries),
		Services:   computeServiceReport(entries),
		ComputedAt: e.now(),
	}
	metrics.TrackAnalyticsCompute(e.now().Sub(started).Seconds())

	if err := e.cache.Put(ctx, query.ShopID, snapshot, e.cacheTTL); err != nil {
		log.Printf("analytics cache put error shop=%s err=%v", query.ShopID, err)
	}
	return snapshot, nil
}

func (e *Engine) listEntries(ctx context.Context, query Query) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	filter := store.ListFilter{
		ShopID:     query.ShopID,
		DateFrom:   query.DateFrom,
		DateTo:     query.DateTo,
		EmployeeID: query.EmployeeID,
		ServiceID:  query.ServiceID,
		Page:       1,
		Limit:      listPageSize,
	}
	for {
		page, err := e.store.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		entries = append(entries, page.Entries...)
		if len(page.Entries) < filter.Limit || len(entries) >= page.Total {
			return entries, nil
		}
		filter.Page++
	}
}
