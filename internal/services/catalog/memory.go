package catalog

import (
	"context"
	"fmt"
	"sync"

	"restaurant-orders/internal/models"
)

// MemoryStore is an in-memory catalog used as a deterministic fixture in
// tests. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]models.MenuItem
}

// NewMemoryStore creates an empty in-memory catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]models.MenuItem)}
}

// Put inserts or replaces a menu item.
func (s *MemoryStore) Put(item models.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// SetAvailable flips the availability flag of an existing item.
func (s *MemoryStore) SetAvailable(itemID string, available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.items[itemID]; ok {
		item.Available = available
		s.items[itemID] = item
	}
}

// SetPrice changes the price of an existing item.
func (s *MemoryStore) SetPrice(itemID string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.items[itemID]; ok {
		item.Price = price
		s.items[itemID] = item
	}
}

func (s *MemoryStore) GetMenuItem(ctx context.Context, itemID string) (*models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: menu item %s", models.ErrNotFound, itemID)
	}
	cp := item
	return &cp, nil
}
