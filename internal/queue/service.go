// Package queue implements the entry status state machine and the
// waiting-line position estimator. Both operate against the abstract
// queue store; persistence and transport live elsewhere.
package queue

import (
	"context"
	"errors"
	"log"
	"time"

	"shopqueue/queue-service/internal/fault"
	"shopqueue/queue-service/internal/metrics"
	"shopqueue/queue-service/internal/models"
	"shopqueue/queue-service/internal/store"
)

type Service struct {
	store store.QueueStore
	now   func() time.Time
}

func NewService(queueStore store.QueueStore) *Service {
	return &Service{
		store: queueStore,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

type TransitionInput struct {
	QueueID    string
	ShopID     string
	NewStatus  string
	EmployeeID string
	Notes      string
}

// Transition validates and applies a status change, stamping the
// documented timestamps. calledAt is written once, the first time the
// entry enters serving; completedAt is written once, on entering any
// terminal state.
func (s *Service) Transition(ctx context.Context, input TransitionInput) (models.QueueEntry, error) {
	const op = "queue.Transition"

	if !ValidStatus(input.NewStatus) {
		metrics.TrackTransition(input.NewStatus, "rejected")
		return models.QueueEntry{}, fault.Validation(op, "unknown status %q", input.NewStatus)
	}

	entry, err := s.store.GetByID(ctx, input.QueueID)
	if err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			metrics.TrackTransition(input.NewStatus, "rejected")
			return models.QueueEntry{}, fault.NotFound(op, "queue entry %s not found", input.QueueID)
		}
		log.Printf("transition store error op=%s queue_id=%s err=%v", op, input.QueueID, err)
		return models.QueueEntry{}, fault.Unknown(op, err)
	}
	if entry.ShopID != input.ShopID {
		metrics.TrackTransition(input.NewStatus, "rejected")
		return models.QueueEntry{}, fault.Unauthorized(op, "queue entry %s does not belong to shop %s", input.QueueID, input.ShopID)
	}
	if !ValidTransition(entry.Status, input.NewStatus) {
		metrics.TrackTransition(input.NewStatus, "rejected")
		return models.QueueEntry{}, fault.Validation(op, "cannot transition from %s to %s", entry.Status, input.NewStatus)
	}
	// Preserved from the original product rule: the employee is required
	// on the no_show transition, not on serving. Flagged for product
	// clarification; do not "fix" silently.
	if input.NewStatus == models.StatusNoShow && input.EmployeeID == "" {
		metrics.TrackTransition(input.NewStatus, "rejected")
		return models.QueueEntry{}, fault.Validation(op, "employee_id is required to mark no_show")
	}

	now := s.now()
	patch := store.EntryPatch{Status: &input.NewStatus}

	switch input.NewStatus {
	case models.StatusServing:
		if entry.CalledAt == nil {
			patch.CalledAt = &now
		}
		if input.EmployeeID != "" {
			patch.EmployeeID = &input.EmployeeID
		}
	case models.StatusCompleted:
		patch.CompletedAt = &now
		if entry.CalledAt != nil {
			waited := wholeMinutes(now.Sub(*entry.CalledAt))
			patch.ActualWaitTime = &waited
		}
	case models.StatusCancelled, models.StatusNoShow:
		patch.CompletedAt = &now
	}

	if input.Notes != "" {
		patch.Notes = &input.Notes
	}

	updated, err := s.store.Update(ctx, input.QueueID, patch)
	if err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			metrics.TrackTransition(input.NewStatus, "rejected")
			return models.QueueEntry{}, fault.NotFound(op, "queue entry %s not found", input.QueueID)
		}
		log.Printf("transition update error op=%s queue_id=%s to=%s err=%v", op, input.QueueID, input.NewStatus, err)
		return models.QueueEntry{}, fault.Unknown(op, err)
	}

	metrics.TrackTransition(input.NewStatus, "applied")
	return updated, nil
}

// wholeMinutes rounds a duration to the nearest whole minute, never
// below zero.
func wholeMinutes(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d.Round(time.Minute) / time.Minute)
}
