// Package memory is a map-backed queue store used by tests and local
// development. It mirrors the postgres implementation's filtering and
// pagination behavior.
package memory

import (
	"context"
	"sort"
	"sync"

	"shopqueue/queue-service/internal/models"
	"shopqueue/queue-service/internal/store"
)

type Store struct {
	mu      sync.RWMutex
	entries map[string]models.QueueEntry
}

func NewStore() *Store {
	return &Store{entries: make(map[string]models.QueueEntry)}
}

func (s *Store) Seed(entries ...models.QueueEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range entries {
		s.entries[entry.ID] = entry
	}
}

func (s *Store) GetByID(ctx context.Context, id string) (models.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return models.QueueEntry{}, store.ErrEntryNotFound
	}
	return entry, nil
}

func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]models.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []models.QueueEntry
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if entry, ok := s.entries[id]; ok {
			entries = append(entries, entry)
		}
	}
	sortByCreated(entries)
	return entries, nil
}

func (s *Store) List(ctx context.Context, filter store.ListFilter) (store.Page, error) {
	s.mu.RLock()
	var matched []models.QueueEntry
	for _, entry := range s.entries {
		if matches(entry, filter) {
			matched = append(matched, entry)
		}
	}
	s.mu.RUnlock()

	sortByCreated(matched)

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	total := len(matched)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return store.Page{
		Entries: append([]models.QueueEntry(nil), matched[start:end]...),
		Total:   total,
		Page:    page,
		Limit:   limit,
	}, nil
}

func (s *Store) Update(ctx context.Context, id string, patch store.EntryPatch) (models.QueueEntry, error) {
	if patch.Empty() {
		return models.QueueEntry{}, store.ErrEmptyPatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return models.QueueEntry{}, store.ErrEntryNotFound
	}

	if patch.Status != nil {
		entry.Status = *patch.Status
	}
	if patch.Priority != nil {
		entry.Priority = *patch.Priority
	}
	if patch.QueueNumber != nil {
		entry.QueueNumber = *patch.QueueNumber
	}
	if patch.EstimatedWaitTime != nil {
		entry.EstimatedWaitTime = *patch.EstimatedWaitTime
	}
	if patch.ActualWaitTime != nil {
		entry.ActualWaitTime = *patch.ActualWaitTime
	}
	if patch.CalledAt != nil {
		calledAt := *patch.CalledAt
		entry.CalledAt = &calledAt
	}
	if patch.CompletedAt != nil {
		completedAt := *patch.CompletedAt
		entry.CompletedAt = &completedAt
	}
	if patch.EmployeeID != nil {
		employeeID := *patch.EmployeeID
		entry.EmployeeID = &employeeID
	}
	if patch.Notes != nil {
		notes := *patch.Notes
		entry.Notes = &notes
	}

	s.entries[id] = entry
	return entry, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return store.ErrEntryNotFound
	}
	delete(s.entries, id)
	return nil
}

// Len reports how many entries the store holds.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func matches(entry models.QueueEntry, filter store.ListFilter) bool {
	if filter.ShopID != "" && entry.ShopID != filter.ShopID {
		return false
	}
	if !filter.DateFrom.IsZero() && entry.CreatedAt.Before(filter.DateFrom) {
		return false
	}
	if !filter.DateTo.IsZero() && entry.CreatedAt.After(filter.DateTo) {
		return false
	}
	if filter.EmployeeID != "" {
		if entry.EmployeeID == nil || *entry.EmployeeID != filter.EmployeeID {
			return false
		}
	}
	if filter.ServiceID != "" {
		found := false
		for _, line := range entry.ServiceLines {
			if line.ServiceID == filter.ServiceID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if entry.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortByCreated(entries []models.QueueEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}
