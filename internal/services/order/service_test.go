package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

func placedOrder(id, userID string, createdAt time.Time) *models.Order {
	return &models.Order{
		ID:     id,
		UserID: userID,
		Lines: []models.OrderLine{
			{ItemID: "margherita", Name: "Margherita", Quantity: 2, UnitPrice: 5.00, Subtotal: 10.00},
		},
		Total:     10.00,
		Status:    models.StatusPlaced,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		History: []models.StatusChange{{
			Status:    models.StatusPlaced,
			ChangedBy: "checkout service",
			ChangedAt: createdAt,
		}},
	}
}

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewService(store, nil, logger.New("order-test")), store
}

func TestTransition(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	store.Create(ctx, placedOrder("o1", "user-1", time.Now().UTC()))

	notes := "started by station 2"
	o, err := svc.Transition(ctx, "o1", models.StatusInPreparation, "kitchen", &notes)
	if err != nil {
		t.Fatalf("Transition() error: %v", err)
	}
	if o.Status != models.StatusInPreparation {
		t.Errorf("status = %s, want in_preparation", o.Status)
	}
	if len(o.History) != 2 {
		t.Fatalf("history has %d entries, want 2", len(o.History))
	}
	last := o.History[1]
	if last.Status != models.StatusInPreparation || last.ChangedBy != "kitchen" {
		t.Errorf("unexpected history entry: %+v", last)
	}
	if last.Notes == nil || *last.Notes != notes {
		t.Errorf("history notes not recorded: %v", last.Notes)
	}

	stored, _ := store.Get(ctx, "o1")
	if stored.Status != models.StatusInPreparation {
		t.Errorf("stored status = %s", stored.Status)
	}
}

func TestTransition_Invalid(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	store.Create(ctx, placedOrder("o1", "user-1", time.Now().UTC()))

	if _, err := svc.Transition(ctx, "o1", models.StatusDelivered, "courier", nil); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("placed -> delivered = %v, want ErrInvalidTransition", err)
	}

	// The rejected transition changes nothing.
	stored, _ := store.Get(ctx, "o1")
	if stored.Status != models.StatusPlaced {
		t.Errorf("stored status = %s, want placed", stored.Status)
	}
	if len(stored.History) != 1 {
		t.Errorf("history has %d entries, want 1", len(stored.History))
	}
}

func TestTransition_TerminalStates(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	delivered := placedOrder("o1", "user-1", time.Now().UTC())
	delivered.Status = models.StatusDelivered
	store.Create(ctx, delivered)

	cancelled := placedOrder("o2", "user-1", time.Now().UTC())
	cancelled.Status = models.StatusCancelled
	store.Create(ctx, cancelled)

	for _, id := range []string{"o1", "o2"} {
		for _, target := range []models.OrderStatus{models.StatusPlaced, models.StatusInPreparation, models.StatusReady, models.StatusCancelled} {
			if _, err := svc.Transition(ctx, id, target, "staff", nil); !errors.Is(err, models.ErrInvalidTransition) {
				t.Errorf("terminal order %s -> %s = %v, want ErrInvalidTransition", id, target, err)
			}
		}
	}
}

func TestTransition_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Transition(context.Background(), "ghost", models.StatusCancelled, "staff", nil); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Transition(missing order) = %v, want ErrNotFound", err)
	}
}

// staleReadStore feeds the service a read that is outdated by the time it
// writes, simulating a concurrent writer in another process.
type staleReadStore struct {
	*MemoryStore
	afterGet func()
}

func (s *staleReadStore) Get(ctx context.Context, orderID string) (*models.Order, error) {
	o, err := s.MemoryStore.Get(ctx, orderID)
	if err == nil && s.afterGet != nil {
		hook := s.afterGet
		s.afterGet = nil
		hook()
	}
	return o, err
}

func TestTransition_LostRace(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Create(ctx, placedOrder("o1", "user-1", time.Now().UTC()))

	stale := &staleReadStore{MemoryStore: store}
	stale.afterGet = func() {
		// Another worker claims the order first.
		err := store.UpdateStatus(ctx, "o1", models.StatusPlaced, models.StatusChange{
			Status:    models.StatusInPreparation,
			ChangedBy: "other worker",
			ChangedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("competing update failed: %v", err)
		}
	}

	svc := NewService(stale, nil, logger.New("order-test"))
	if _, err := svc.Transition(ctx, "o1", models.StatusCancelled, "customer", nil); !errors.Is(err, models.ErrConflict) {
		t.Fatalf("Transition() = %v, want ErrConflict", err)
	}

	// Only the winner's entry landed.
	o, _ := store.Get(ctx, "o1")
	if o.Status != models.StatusInPreparation {
		t.Errorf("status = %s, want the winner's in_preparation", o.Status)
	}
	if len(o.History) != 2 {
		t.Errorf("history has %d entries, want 2", len(o.History))
	}
}

func TestTransition_ConcurrentWriters(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	store.Create(ctx, placedOrder("o1", "user-1", time.Now().UTC()))

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transition(ctx, "o1", models.StatusInPreparation, "kitchen", nil)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, models.ErrConflict):
		case errors.Is(err, models.ErrInvalidTransition):
			// Read the winner's state and tried in_preparation -> in_preparation.
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("%d transitions succeeded, want exactly 1", successes)
	}

	o, _ := store.Get(ctx, "o1")
	if len(o.History) != 2 {
		t.Errorf("history has %d entries, want 2", len(o.History))
	}
}

func TestListings(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		store.Create(ctx, placedOrder(fmt.Sprintf("u1-%d", i), "user-1", base.Add(time.Duration(i)*time.Minute)))
	}
	other := placedOrder("u2-0", "user-2", base)
	other.Status = models.StatusCancelled
	store.Create(ctx, other)

	byUser, err := svc.ListByUser(ctx, "user-1", 0, 0)
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	if len(byUser) != 3 {
		t.Fatalf("ListByUser() returned %d orders, want 3", len(byUser))
	}
	// Newest first.
	if byUser[0].ID != "u1-2" || byUser[2].ID != "u1-0" {
		t.Errorf("unexpected ordering: %s .. %s", byUser[0].ID, byUser[2].ID)
	}

	page, err := svc.ListByUser(ctx, "user-1", 2, 1)
	if err != nil {
		t.Fatalf("ListByUser(page) error: %v", err)
	}
	if len(page) != 2 || page[0].ID != "u1-1" {
		t.Errorf("unexpected page: %+v", page)
	}

	placed, err := svc.ListByStatus(ctx, models.StatusPlaced, 0, 0)
	if err != nil {
		t.Fatalf("ListByStatus() error: %v", err)
	}
	if len(placed) != 3 {
		t.Errorf("ListByStatus(placed) returned %d orders, want 3", len(placed))
	}

	cancelled, _ := svc.ListByStatus(ctx, models.StatusCancelled, 0, 0)
	if len(cancelled) != 1 || cancelled[0].ID != "u2-0" {
		t.Errorf("ListByStatus(cancelled) = %+v", cancelled)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, defaultListLimit},
		{-5, defaultListLimit},
		{10, 10},
		{maxListLimit, maxListLimit},
		{maxListLimit + 1, maxListLimit},
	}

	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
