package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
	"restaurant-orders/internal/services/catalog"
)

// Service is the cart manager. Mutations for a given user are serialized
// through a per-user lock; the store's version stamp guards against writers
// in other processes.
type Service struct {
	store   Store
	catalog catalog.Store
	logger  *logger.Logger

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewService creates a cart manager.
func NewService(store Store, cat catalog.Store, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		catalog:   cat,
		logger:    log,
		userLocks: make(map[string]*sync.Mutex),
	}
}

func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

// Add puts quantity units of an item into the user's cart. An existing line
// with the same item and option set absorbs the quantity; otherwise a new
// line is appended, preserving insertion order.
func (s *Service) Add(ctx context.Context, userID, itemID string, quantity int, options map[string]string, note string) (*models.CartItem, error) {
	if err := models.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	if err := models.ValidateLineNote(note); err != nil {
		return nil, err
	}

	item, err := s.catalog.GetMenuItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, fmt.Errorf("%w: %s", models.ErrItemUnavailable, item.Name)
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cart, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	line := models.CartItem{
		ItemID:   itemID,
		Quantity: quantity,
		Options:  options,
		Note:     note,
	}

	if i := cart.FindMergeTarget(&line); i >= 0 {
		merged := cart.Items[i].Quantity + quantity
		if err := models.ValidateQuantity(merged); err != nil {
			return nil, err
		}
		cart.Items[i].Quantity = merged
		if note != "" {
			cart.Items[i].Note = note
		}
		line = cart.Items[i]
	} else {
		line.LineID = uuid.NewString()
		cart.Items = append(cart.Items, line)
	}

	if err := s.store.Save(ctx, cart, cart.Version); err != nil {
		return nil, err
	}

	s.logger.Debug("cart_item_added", "Added item to cart", "", map[string]interface{}{
		"user_id":  userID,
		"item_id":  itemID,
		"quantity": line.Quantity,
	})

	result := line
	return &result, nil
}

// UpdateQuantity sets the quantity of an existing line. Quantity 0 removes
// the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	if quantity == 0 {
		return s.Remove(ctx, userID, lineID)
	}
	if err := models.ValidateQuantity(quantity); err != nil {
		return err
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cart, err := s.store.Load(ctx, userID)
	if err != nil {
		return err
	}

	i := cart.FindLine(lineID)
	if i < 0 {
		return fmt.Errorf("%w: cart line %s", models.ErrNotFound, lineID)
	}
	cart.Items[i].Quantity = quantity

	return s.store.Save(ctx, cart, cart.Version)
}

// Remove deletes one line from the user's cart.
func (s *Service) Remove(ctx context.Context, userID, lineID string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cart, err := s.store.Load(ctx, userID)
	if err != nil {
		return err
	}

	i := cart.FindLine(lineID)
	if i < 0 {
		return fmt.Errorf("%w: cart line %s", models.ErrNotFound, lineID)
	}
	cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)

	return s.store.Save(ctx, cart, cart.Version)
}

// Clear removes every line from the user's cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cart, err := s.store.Load(ctx, userID)
	if err != nil {
		return err
	}
	if cart.Version == 0 && cart.IsEmpty() {
		return nil
	}

	return s.store.Clear(ctx, userID, cart.Version)
}

// Get returns a read-only snapshot of the user's cart.
func (s *Service) Get(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cart.Snapshot(), nil
}
