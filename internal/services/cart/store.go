package cart

import (
	"context"

	"restaurant-orders/internal/models"
)

// Store persists one cart per user with optimistic versioning. A user without
// a stored cart loads as an empty cart at version 0; the first successful Save
// stores version 1.
type Store interface {
	// Load returns the user's cart, or an empty version-0 cart if none exists.
	Load(ctx context.Context, userID string) (*models.Cart, error)
	// Save replaces the cart contents if the stored version still equals
	// expectedVersion, bumping the version. Returns models.ErrConflict when
	// the stamp moved.
	Save(ctx context.Context, cart *models.Cart, expectedVersion int64) error
	// Clear deletes the cart if the stored version still equals
	// expectedVersion. Returns models.ErrConflict when the stamp moved.
	Clear(ctx context.Context, userID string, expectedVersion int64) error
}
