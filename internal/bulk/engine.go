// Package bulk applies delete, reassign, and field-update mutations
// across many queue entries. Rule violations fail the whole call before
// anything is touched; once execution starts, per-item failures are
// recorded and never abort the remaining items.
package bulk

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"shopqueue/queue-service/internal/fault"
	"shopqueue/queue-service/internal/metrics"
	"shopqueue/queue-service/internal/models"
	"shopqueue/queue-service/internal/store"
)

const (
	defaultBatchSize = 10
	defaultMaxItems  = 100
)

type Engine struct {
	store     store.QueueStore
	batchSize int
	maxItems  int
	now       func() time.Time
}

type Options struct {
	BatchSize int
	MaxItems  int
}

func NewEngine(queueStore store.QueueStore, options Options) *Engine {
	batch := options.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	maxItems := options.MaxItems
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	return &Engine{
		store:     queueStore,
		batchSize: batch,
		maxItems:  maxItems,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type DeleteInput struct {
	ShopID string
	IDs    []string
}

type ReassignInput struct {
	ShopID     string
	IDs        []string
	EmployeeID string
}

type UpdateInput struct {
	ShopID string
	IDs    []string
	Patch  store.EntryPatch
}

// Delete removes entries. Any serving or completed member rejects the
// whole call.
func (e *Engine) Delete(ctx context.Context, input DeleteInput) (models.BulkResult, error) {
	const op = "bulk.Delete"

	entries, err := e.resolve(ctx, op, input.ShopID, input.IDs)
	if err != nil {
		metrics.TrackBulkCall("delete", "rejected")
		return models.BulkResult{}, err
	}
	for _, entry := range entries {
		if entry.Status == models.StatusServing || entry.Status == models.StatusCompleted {
			metrics.TrackBulkCall("delete", "rejected")
			return models.BulkResult{}, fault.Validation(op, "entry %s is %s and cannot be deleted", entry.ID, entry.Status)
		}
	}

	result := e.run(ctx, "delete", input.IDs, func(ctx context.Context, id string) error {
		return e.store.Delete(ctx, id)
	})
	metrics.TrackBulkCall("delete", callOutcome(result))
	return result, nil
}

// Reassign changes the serving employee. Completed members reject the
// whole call; waiting members are promoted to serving, stamping
// calledAt if unset.
func (e *Engine) Reassign(ctx context.Context, input ReassignInput) (models.BulkResult, error) {
	const op = "bulk.Reassign"

	if input.EmployeeID == "" {
		metrics.TrackBulkCall("reassign", "rejected")
		return models.BulkResult{}, fault.Validation(op, "employee_id is required")
	}

	entries, err := e.resolve(ctx, op, input.ShopID, input.IDs)
	if err != nil {
		metrics.TrackBulkCall("reassign", "rejected")
		return models.BulkResult{}, err
	}
	for _, entry := range entries {
		if entry.Status == models.StatusCompleted {
			metrics.TrackBulkCall("reassign", "rejected")
			return models.BulkResult{}, fault.Validation(op, "entry %s is completed and cannot be reassigned", entry.ID)
		}
	}

	byID := make(map[string]models.QueueEntry, len(entries))
	for _, entry := range entries {
		byID[entry.ID] = entry
	}

	result := e.run(ctx, "reassign", input.IDs, func(ctx context.Context, id string) error {
		entry := byID[id]
		patch := store.EntryPatch{EmployeeID: &input.EmployeeID}
		if entry.Status == models.StatusWaiting {
			serving := models.StatusServing
			patch.Status = &serving
			if entry.CalledAt == nil {
				now := e.now()
				patch.CalledAt = &now
			}
		}
		_, err := e.store.Update(ctx, id, patch)
		return err
	})
	metrics.TrackBulkCall("reassign", callOutcome(result))
	return result, nil
}

// Update forwards the field subset verbatim to every entry.
func (e *Engine) Update(ctx context.Context, input UpdateInput) (models.BulkResult, error) {
	const op = "bulk.Update"

	if input.Patch.Empty() {
		metrics.TrackBulkCall("update", "rejected")
		return models.BulkResult{}, fault.Validation(op, "no fields to update")
	}

	if _, err := e.resolve(ctx, op, input.ShopID, input.IDs); err != nil {
		metrics.TrackBulkCall("update", "rejected")
		return models.BulkResult{}, err
	}

	result := e.run(ctx, "update", input.IDs, func(ctx context.Context, id string) error {
		_, err := e.store.Update(ctx, id, input.Patch)
		return err
	})
	metrics.TrackBulkCall("update", callOutcome(result))
	return result, nil
}

// resolve performs the validation shared by every bulk operation: id
// list bounds, existence of every id, and single-shop scope.
func (e *Engine) resolve(ctx context.Context, op, shopID string, ids []string) ([]models.QueueEntry, error) {
	if len(ids) == 0 {
		return nil, fault.Validation(op, "id list is empty")
	}
	if len(ids) > e.maxItems {
		return nil, fault.Validation(op, "id list has %d entries, limit is %d", len(ids), e.maxItems)
	}

	entries, err := e.store.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fault.OperationFailed(op, err, "bulk lookup failed")
	}

	found := make(map[string]bool, len(entries))
	for _, entry := range entries {
		found[entry.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fault.NotFound(op, "queue entries not found: %s", strings.Join(missing, ", "))
	}

	if shopID != "" {
		for _, entry := range entries {
			if entry.ShopID != shopID {
				return nil, fault.Validation(op, "entry %s belongs to another shop", entry.ID)
			}
		}
	}

	return entries, nil
}

// run executes items in fixed-size batches: batches sequentially, items
// within a batch concurrently, with a join barrier between batches. A
// failing item is recorded and isolated from the rest.
func (e *Engine) run(ctx context.Context, operation string, ids []string, apply func(ctx context.Context, id string) error) models.BulkResult {
	var mu sync.Mutex
	var succeeded []string
	var failed []models.FailedItem

	for start := 0; start < len(ids); start += e.batchSize {
		end := start + e.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		var group errgroup.Group
		for _, id := range batch {
			id := id
			group.Go(func() error {
				if err := apply(ctx, id); err != nil {
					mu.Lock()
					failed = append(failed, models.FailedItem{ID: id, Error: err.Error()})
					mu.Unlock()
					metrics.TrackBulkItem(operation, "failed")
					return nil
				}
				mu.Lock()
				succeeded = append(succeeded, id)
				mu.Unlock()
				metrics.TrackBulkItem(operation, "succeeded")
				return nil
			})
		}
		_ = group.Wait()
	}

	orderByInput(succeeded, ids)
	sortFailed(failed, ids)

	total := len(ids)
	rate := 0.0
	if total > 0 {
		rate = float64(len(succeeded)) / float64(total) * 100
	}
	return models.BulkResult{
		Success:        len(failed) == 0,
		TotalRequested: total,
		SucceededIDs:   succeeded,
		FailedItems:    failed,
		SuccessRate:    rate,
	}
}

func callOutcome(result models.BulkResult) string {
	if result.Success {
		return "succeeded"
	}
	return "partial"
}

// orderByInput restores request order after concurrent collection.
func orderByInput(values []string, reference []string) {
	rank := indexRank(reference)
	sort.Slice(values, func(i, j int) bool {
		return rank[values[i]] < rank[values[j]]
	})
}

func sortFailed(items []models.FailedItem, reference []string) {
	rank := indexRank(reference)
	sort.Slice(items, func(i, j int) bool {
		return rank[items[i].ID] < rank[items[j].ID]
	})
}

func indexRank(reference []string) map[string]int {
	rank := make(map[string]int, len(reference))
	for i, id := range reference {
		if _, ok := rank[id]; !ok {
			rank[id] = i
		}
	}
	return rank
}
