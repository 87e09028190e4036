package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopqueue/queue-service/internal/fault"
	"shopqueue/queue-service/internal/models"
	"shopqueue/queue-service/internal/store"
	"shopqueue/queue-service/internal/store/memory"
)

// fakeStore lets tests inject failures the memory store never produces.
type fakeStore struct {
	getByID  func(ctx context.Context, id string) (models.QueueEntry, error)
	getByIDs func(ctx context.Context, ids []string) ([]models.QueueEntry, error)
	list     func(ctx context.Context, filter store.ListFilter) (store.Page, error)
	update   func(ctx context.Context, id string, patch store.EntryPatch) (models.QueueEntry, error)
	delete   func(ctx context.Context, id string) error
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (models.QueueEntry, error) {
	return f.getByID(ctx, id)
}

func (f *fakeStore) GetByIDs(ctx context.Context, ids []string) ([]models.QueueEntry, error) {
	return f.getByIDs(ctx, ids)
}

func (f *fakeStore) List(ctx context.Context, filter store.ListFilter) (store.Page, error) {
	return f.list(ctx, filter)
}

func (f *fakeStore) Update(ctx context.Context, id string, patch store.EntryPatch) (models.QueueEntry, error) {
	return f.update(ctx, id, patch)
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	return f.delete(ctx, id)
}

func fixedTime() time.Time {
	return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
}

func newTestService(entries ...models.QueueEntry) (*Service, *memory.Store) {
	st := memory.NewStore()
	st.Seed(entries...)
	svc := NewService(st)
	svc.now = fixedTime
	return svc, st
}

func entry(id, shopID, status string) models.QueueEntry {
	return models.QueueEntry{
		ID:        id,
		ShopID:    shopID,
		Status:    status,
		Priority:  models.PriorityNormal,
		CreatedAt: fixedTime().Add(-30 * time.Minute),
	}
}

func TestTransitionStampsCalledAtOnServing(t *testing.T) {
	svc, _ := newTestService(entry("q1", "shop-1", models.StatusWaiting))

	updated, err := svc.Transition(context.Background(), TransitionInput{
		QueueID:    "q1",
		ShopID:     "shop-1",
		NewStatus:  models.StatusServing,
		EmployeeID: "emp-1",
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.Status != models.StatusServing {
		t.Fatalf("status=%q, want serving", updated.Status)
	}
	if updated.CalledAt == nil || !updated.CalledAt.Equal(fixedTime()) {
		t.Fatalf("calledAt=%v, want %v", updated.CalledAt, fixedTime())
	}
	if updated.EmployeeID == nil || *updated.EmployeeID != "emp-1" {
		t.Fatalf("employeeID=%v, want emp-1", updated.EmployeeID)
	}
}

func TestTransitionKeepsExistingCalledAt(t *testing.T) {
	called := fixedTime().Add(-20 * time.Minute)
	e := entry("q1", "shop-1", models.StatusWaiting)
	e.CalledAt = &called
	svc, _ := newTestService(e)

	updated, err := svc.Transition(context.Background(), TransitionInput{
		QueueID: "q1", ShopID: "shop-1", NewStatus: models.StatusServing,
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.CalledAt == nil || !updated.CalledAt.Equal(called) {
		t.Fatalf("calledAt=%v, want original %v", updated.CalledAt, called)
	}
}

func TestTransitionCompletedComputesActualWait(t *testing.T) {
	called := fixedTime().Add(-17 * time.Minute)
	e := entry("q1", "shop-1", models.StatusServing)
	e.CalledAt = &called
	svc, _ := newTestService(e)

	updated, err := svc.Transition(context.Background(), TransitionInput{
		QueueID: "q1", ShopID: "shop-1", NewStatus: models.StatusCompleted,
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.CompletedAt == nil || !updated.CompletedAt.Equal(fixedTime()) {
		t.Fatalf("completedAt=%v, want %v", updated.CompletedAt, fixedTime())
	}
	if updated.ActualWaitTime != 17 {
		t.Fatalf("actualWaitTime=%d, want 17", updated.ActualWaitTime)
	}
}

func TestTransitionCompletedWithoutCalledAtSkipsActualWait(t *testing.T) {
	svc, _ := newTestService(entry("q1", "shop-1", models.StatusServing))

	updated, err := svc.Transition(context.Background(), TransitionInput{
		QueueID: "q1", ShopID: "shop-1", NewStatus: models.StatusCompleted,
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.ActualWaitTime != 0 {
		t.Fatalf("actualWaitTime=%d, want 0", updated.ActualWaitTime)
	}
	if updated.CompletedAt == nil {
		t.Fatal("completedAt not stamped")
	}
}

func TestTransitionCancelledStampsCompletedAt(t *testing.T) {
	svc, _ := newTestService(entry("q1", "shop-1", models.StatusConfirmed))

	updated, err := svc.Transition(context.Background(), TransitionInput{
		QueueID: "q1", ShopID: "shop-1", NewStatus: models.StatusCancelled, Notes: "customer left",
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.CompletedAt == nil || !updated.CompletedAt.Equal(fixedTime()) {
		t.Fatalf("completedAt=%v, want %v", updated.CompletedAt, fixedTime())
	}
	if updated.Notes == nil || *updated.Notes != "customer left" {
		t.Fatalf("notes=%v, want overwrite", updated.Notes)
	}
}

func TestTransitionNoShowRequiresEmployee(t *testing.T) {
	svc, st := newTestService(entry("q1", "shop-1", models.StatusWaiting))

	_, err := svc.Transition(context.Background(), TransitionInput{
		QueueID: "q1", ShopID: "shop-1", NewStatus: models.StatusNoShow,
	})
	if fault.CodeOf(err) != fault.CodeValidation {
		t.Fatalf("code=%v, want validation_error", fault.CodeOf(err))
	}

	stored, _ := st.GetByID(context.Background(), "q1")
	if stored.Status != models.StatusWaiting {
		t.Fatalf("status mutated to %q on rejected transition", stored.Status)
	}

	updated, err := svc.Transition(context.Background(), TransitionInput{
		QueueID: "q1", ShopID: "shop-1", NewStatus: models.StatusNoShow, EmployeeID: "emp-2",
	})
	if err != nil {
		t.Fatalf("Transition with employee: %v", err)
	}
	if updated.Status != models.StatusNoShow || updated.CompletedAt == nil {
		t.Fatalf("got status=%q completedAt=%v", updated.Status, updated.CompletedAt)
	}
}

func TestTransitionRejectsTerminalSource(t *testing.T) {
	svc, _ := newTestService(entry("q1", "shop-1", models.StatusCompleted))

	_, err := svc.Transition(context.Background(), TransitionInput{
		QueueID: "q1", ShopID: "shop-1", NewStatus: models.StatusWaiting,
	})
	if fault.CodeOf(err) != fault.CodeValidation {
		t.Fatalf("code=%v, want validation_error", fault.CodeOf(err))
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	svc, _ := newTestService(entry("q1", "shop-1", models.StatusWaiting))

	_, err := svc.Transition(context.Background(), TransitionInput{
		QueueID: "q1", ShopID: "shop-1", NewStatus: "paused",
	})
	if fault.CodeOf(err) != fault.CodeValidation {
		t.Fatalf("code=%v, want validation_error", fault.CodeOf(err))
	}
}

func TestTransitionWrongShop(t *testing.T) {
	svc, _ := newTestService(entry("q1", "shop-1", models.StatusWaiting))

	_, err := svc.Transition(context.Background(), TransitionInput{
		QueueID: "q1", ShopID: "shop-2", NewStatus: models.StatusConfirmed,
	})
	if fault.CodeOf(err) != fault.CodeUnauthorized {
		t.Fatalf("code=%v, want unauthorized", fault.CodeOf(err))
	}
}

func TestTransitionMissingEntry(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Transition(context.Background(), TransitionInput{
		QueueID: "nope", ShopID: "shop-1", NewStatus: models.StatusConfirmed,
	})
	if fault.CodeOf(err) != fault.CodeNotFound {
		t.Fatalf("code=%v, want not_found", fault.CodeOf(err))
	}
}

func TestTransitionStoreFailure(t *testing.T) {
	svc := NewService(&fakeStore{
		getByID: func(ctx context.Context, id string) (models.QueueEntry, error) {
			return models.QueueEntry{}, errors.New("connection reset")
		},
	})

	_, err := svc.Transition(context.Background(), TransitionInput{
		QueueID: "q1", ShopID: "shop-1", NewStatus: models.StatusConfirmed,
	})
	if fault.CodeOf(err) != fault.CodeUnknown {
		t.Fatalf("code=%v, want unknown", fault.CodeOf(err))
	}
}

func TestWholeMinutes(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want int
	}{
		{17 * time.Minute, 17},
		{17*time.Minute + 29*time.Second, 17},
		{17*time.Minute + 31*time.Second, 18},
		{10 * time.Second, 0},
		{-5 * time.Minute, 0},
	}
	for _, tt := range cases {
		if got := wholeMinutes(tt.d); got != tt.want {
			t.Fatalf("wholeMinutes(%v)=%d, want %d", tt.d, got, tt.want)
		}
	}
}
