package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"restaurant-orders/internal/database"
	"restaurant-orders/internal/models"
)

// PostgresStore keeps each cart as a single row: lines as jsonb plus a
// version column checked on every write.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a cart store backed by PostgreSQL.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context, userID string) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}

	var itemsJSON []byte
	err := s.db.QueryRow(ctx, database.GetCartSQL, userID).Scan(&itemsJSON, &cart.Version, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cart, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &cart.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cart items: %w", err)
		}
	}
	return cart, nil
}

func (s *PostgresStore) Save(ctx context.Context, cart *models.Cart, expectedVersion int64) error {
	itemsJSON, err := json.Marshal(cart.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal cart items: %w", err)
	}

	// Version 0 means the caller saw no stored cart: only a fresh insert may
	// win. Otherwise the conditional update enforces the expected version.
	var ct pgconn.CommandTag
	if expectedVersion == 0 {
		ct, err = s.db.Pool.Exec(ctx, database.InsertCartSQL, cart.UserID, itemsJSON)
	} else {
		ct, err = s.db.Pool.Exec(ctx, database.UpdateCartSQL, cart.UserID, itemsJSON, expectedVersion)
	}
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: cart version %d is stale", models.ErrConflict, expectedVersion)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, userID string, expectedVersion int64) error {
	if expectedVersion == 0 {
		// Nothing was ever stored; nothing to delete.
		return nil
	}

	ct, err := s.db.Pool.Exec(ctx, database.DeleteCartSQL, userID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: cart changed since version %d", models.ErrConflict, expectedVersion)
	}
	return nil
}
