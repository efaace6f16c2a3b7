package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"restaurant-orders/internal/database"
	"restaurant-orders/internal/models"
)

// PostgresStore reads menu items from the menu_items table.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a catalog store backed by PostgreSQL.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetMenuItem(ctx context.Context, itemID string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.db.QueryRow(ctx, database.GetMenuItemSQL, itemID).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.CategoryID,
		&item.Available,
		&item.ImageURL,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: menu item %s", models.ErrNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to query menu item: %w", err)
	}
	return &item, nil
}
