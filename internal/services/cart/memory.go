package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"restaurant-orders/internal/models"
)

// MemoryStore is an in-memory cart store with the same versioning semantics
// as the PostgreSQL store. Used by tests.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]*models.Cart
}

// NewMemoryStore creates an empty in-memory cart store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]*models.Cart)}
}

func (s *MemoryStore) Load(ctx context.Context, userID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.carts[userID]
	if !ok {
		return &models.Cart{UserID: userID}, nil
	}
	return stored.Snapshot(), nil
}

func (s *MemoryStore) Save(ctx context.Context, cart *models.Cart, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := int64(0)
	if stored, ok := s.carts[cart.UserID]; ok {
		current = stored.Version
	}
	if current != expectedVersion {
		return fmt.Errorf("%w: cart version %d is stale", models.ErrConflict, expectedVersion)
	}

	saved := cart.Snapshot()
	saved.Version = current + 1
	saved.UpdatedAt = time.Now().UTC()
	s.carts[cart.UserID] = saved
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, userID string, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.carts[userID]
	if !ok {
		if expectedVersion == 0 {
			return nil
		}
		return fmt.Errorf("%w: cart changed since version %d", models.ErrConflict, expectedVersion)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: cart changed since version %d", models.ErrConflict, expectedVersion)
	}

	delete(s.carts, userID)
	return nil
}
