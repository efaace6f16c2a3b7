// Package catalog exposes the read-only menu lookup the ordering core
// depends on. The menu itself is owned elsewhere; the core never writes it.
package catalog

import (
	"context"

	"restaurant-orders/internal/models"
)

// Store looks up menu items by identifier. Implementations return
// models.ErrNotFound (wrapped) when the item does not exist.
type Store interface {
	GetMenuItem(ctx context.Context, itemID string) (*models.MenuItem, error)
}
