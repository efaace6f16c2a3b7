package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"restaurant-orders/internal/database"
	"restaurant-orders/internal/models"
)

// PostgresStore persists orders across the orders, order_lines and
// order_status_log tables.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates an order store backed by PostgreSQL.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, order *models.Order) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, database.InsertOrderSQL,
		order.ID, order.UserID, order.Total, order.Status, order.Notes, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i, line := range order.Lines {
		_, err = tx.Exec(ctx, database.InsertOrderLineSQL,
			order.ID, i, line.ItemID, line.Name, line.Quantity, line.UnitPrice, line.Subtotal, line.Note)
		if err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	for _, change := range order.History {
		_, err = tx.Exec(ctx, database.InsertOrderStatusLogSQL,
			order.ID, change.Status, change.ChangedBy, change.ChangedAt, change.Notes)
		if err != nil {
			return fmt.Errorf("failed to insert status log: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	err := s.db.QueryRow(ctx, database.GetOrderSQL, orderID).Scan(
		&o.ID, &o.UserID, &o.Total, &o.Status, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %s", models.ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if o.Lines, err = s.lines(ctx, orderID); err != nil {
		return nil, err
	}
	if o.History, err = s.history(ctx, orderID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PostgresStore) lines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	rows, err := s.db.Query(ctx, database.GetOrderLinesSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		var line models.OrderLine
		if err := rows.Scan(&line.ItemID, &line.Name, &line.Quantity, &line.UnitPrice, &line.Subtotal, &line.Note); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (s *PostgresStore) history(ctx context.Context, orderID string) ([]models.StatusChange, error) {
	rows, err := s.db.Query(ctx, database.GetOrderStatusHistorySQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var history []models.StatusChange
	for rows.Next() {
		var change models.StatusChange
		if err := rows.Scan(&change.Status, &change.ChangedBy, &change.ChangedAt, &change.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		history = append(history, change)
	}
	return history, rows.Err()
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, error) {
	return s.list(ctx, database.ListOrdersByUserSQL, userID, limit, offset)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.OrderStatus, limit, offset int) ([]models.Order, error) {
	return s.list(ctx, database.ListOrdersByStatusSQL, string(status), limit, offset)
}

func (s *PostgresStore) list(ctx context.Context, query, key string, limit, offset int) ([]models.Order, error) {
	rows, err := s.db.Query(ctx, query, key, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, orderID string, expected models.OrderStatus, change models.StatusChange) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, database.UpdateOrderStatusSQL,
		orderID, change.Status, change.ChangedAt, expected)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		// Either the order is gone or a concurrent writer moved it first.
		var current string
		err := tx.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1", orderID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: order %s", models.ErrNotFound, orderID)
		}
		if err != nil {
			return fmt.Errorf("failed to re-read order status: %w", err)
		}
		return fmt.Errorf("%w: order %s moved from %s to %s", models.ErrConflict, orderID, expected, current)
	}

	_, err = tx.Exec(ctx, database.InsertOrderStatusLogSQL,
		orderID, change.Status, change.ChangedBy, change.ChangedAt, change.Notes)
	if err != nil {
		return fmt.Errorf("failed to insert status log: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
