package order

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"restaurant-orders/internal/models"
)

// MemoryStore is an in-memory order store with the same compare-and-set
// transition semantics as the PostgreSQL store. Used by tests.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	seq    []string // creation order, for stable listings
}

// NewMemoryStore creates an empty in-memory order store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]*models.Order)}
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Lines = make([]models.OrderLine, len(o.Lines))
	copy(cp.Lines, o.Lines)
	cp.History = make([]models.StatusChange, len(o.History))
	copy(cp.History, o.History)
	return &cp
}

func (s *MemoryStore) Create(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("%w: order %s already exists", models.ErrConflict, order.ID)
	}
	s.orders[order.ID] = cloneOrder(order)
	s.seq = append(s.seq, order.ID)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", models.ErrNotFound, orderID)
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, error) {
	return s.list(func(o *models.Order) bool { return o.UserID == userID }, limit, offset), nil
}

func (s *MemoryStore) ListByStatus(ctx context.Context, status models.OrderStatus, limit, offset int) ([]models.Order, error) {
	return s.list(func(o *models.Order) bool { return o.Status == status }, limit, offset), nil
}

func (s *MemoryStore) list(match func(*models.Order) bool, limit, offset int) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []*models.Order
	for _, id := range s.seq {
		if o := s.orders[id]; match(o) {
			all = append(all, o)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	var out []models.Order
	for i := offset; i < len(all) && (limit <= 0 || len(out) < limit); i++ {
		out = append(out, *cloneOrder(all[i]))
	}
	return out
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, orderID string, expected models.OrderStatus, change models.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: order %s", models.ErrNotFound, orderID)
	}
	if o.Status != expected {
		return fmt.Errorf("%w: order %s moved from %s to %s", models.ErrConflict, orderID, expected, o.Status)
	}

	o.Status = change.Status
	o.UpdatedAt = change.ChangedAt
	o.History = append(o.History, change)
	return nil
}
