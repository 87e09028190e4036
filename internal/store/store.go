package store

import (
	"context"
	"time"

	"shopqueue/queue-service/internal/models"
)

// ListFilter narrows a paginated listing. Zero-valued fields are not
// applied. Page is 1-based.
type ListFilter struct {
	ShopID     string
	DateFrom   time.Time
	DateTo     time.Time
	EmployeeID string
	ServiceID  string
	Statuses   []string
	Page       int
	Limit      int
}

type Page struct {
	Entries []models.QueueEntry
	Total   int
	Page    int
	Limit   int
}

// EntryPatch is a partial update. Nil fields are left untouched.
// CalledAt and CompletedAt can only be set, never cleared; the state
// machine has no transition that unsets a stamp.
type EntryPatch struct {
	Status            *string
	Priority          *string
	QueueNumber       *string
	EstimatedWaitTime *int
	ActualWaitTime    *int
	CalledAt          *time.Time
	CompletedAt       *time.Time
	EmployeeID        *string
	Notes             *string
}

func (p EntryPatch) Empty() bool {
	return p.Status == nil && p.Priority == nil && p.QueueNumber == nil &&
		p.EstimatedWaitTime == nil && p.ActualWaitTime == nil &&
		p.CalledAt == nil && p.CompletedAt == nil &&
		p.EmployeeID == nil && p.Notes == nil
}

type QueueStore interface {
	GetByID(ctx context.Context, id string) (models.QueueEntry, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.QueueEntry, error)
	List(ctx context.Context, filter ListFilter) (Page, error)
	Update(ctx context.Context, id string, patch EntryPatch) (models.QueueEntry, error)
	Delete(ctx context.Context, id string) error
}
