package queue

import (
	"context"
	"errors"
	"math"
	"sort"

	"shopqueue/queue-service/internal/fault"
	"shopqueue/queue-service/internal/models"
	"shopqueue/queue-service/internal/store"
)

type PositionResult struct {
	Position          int    `json:"position"`
	TotalAhead        int    `json:"total_ahead"`
	EstimatedWaitTime int    `json:"estimated_wait_time"`
	Status            string `json:"status"`
}

const waitBufferRatio = 0.1

// Position computes the entry's rank among its shop's waiting entries
// and the expected wait to reach the front. The waiting set is a
// snapshot; if the entry moves out of waiting between fetch and rank,
// the zero result with its current status is returned.
func (s *Service) Position(ctx context.Context, queueID, shopID string) (PositionResult, error) {
	const op = "queue.Position"

	entry, err := s.store.GetByID(ctx, queueID)
	if err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			return PositionResult{}, fault.NotFound(op, "queue entry %s not found", queueID)
		}
		return PositionResult{}, fault.Unknown(op, err)
	}
	if entry.ShopID != shopID {
		return PositionResult{}, fault.Unauthorized(op, "queue entry %s does not belong to shop %s", queueID, shopID)
	}
	if entry.Status != models.StatusWaiting {
		return PositionResult{Status: entry.Status}, nil
	}

	waiting, err := s.listWaiting(ctx, shopID)
	if err != nil {
		return PositionResult{}, fault.Unknown(op, err)
	}

	sortWaiting(waiting)

	index := -1
	for i := range waiting {
		if waiting[i].ID == queueID {
			index = i
			break
		}
	}
	if index < 0 {
		// Transitioned out of waiting between the two reads.
		return PositionResult{Status: s.currentStatus(ctx, queueID, entry.Status)}, nil
	}

	sum := 0
	for _, ahead := range waiting[:index] {
		estimate := ahead.EstimatedWaitTime
		if estimate <= 0 {
			estimate = entry.EstimatedWaitTime
		}
		sum += estimate
	}

	return PositionResult{
		Position:          index + 1,
		TotalAhead:        index,
		EstimatedWaitTime: sum + int(math.Round(waitBufferRatio*float64(sum))),
		Status:            entry.Status,
	}, nil
}

func (s *Service) listWaiting(ctx context.Context, shopID string) ([]models.QueueEntry, error) {
	var waiting []models.QueueEntry
	filter := store.ListFilter{
		ShopID:   shopID,
		Statuses: []string{models.StatusWaiting},
		Page:     1,
		Limit:    500,
	}
	for {
		page, err := s.store.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		waiting = append(waiting, page.Entries...)
		if len(page.Entries) < filter.Limit || len(waiting) >= page.Total {
			return waiting, nil
		}
		filter.Page++
	}
}

// sortWaiting orders by priority rank then arrival, a stable FIFO
// within each priority.
func sortWaiting(entries []models.QueueEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := models.PriorityRank(entries[i].Priority), models.PriorityRank(entries[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

func (s *Service) currentStatus(ctx context.Context, queueID, fallback string) string {
	entry, err := s.store.GetByID(ctx, queueID)
	if err != nil {
		return fallback
	}
	return entry.Status
}
