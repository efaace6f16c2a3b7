package order

import (
	"context"

	"restaurant-orders/internal/models"
)

// Store persists orders. Orders are append-create: once written, only the
// status and its history may change, through UpdateStatus.
type Store interface {
	// Create persists a new order with its lines and initial history entry
	// atomically.
	Create(ctx context.Context, order *models.Order) error
	// Get returns the full order with lines and chronological history, or
	// models.ErrNotFound.
	Get(ctx context.Context, orderID string) (*models.Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, error)
	// ListByStatus returns orders in the given status, newest first.
	ListByStatus(ctx context.Context, status models.OrderStatus, limit, offset int) ([]models.Order, error)
	// UpdateStatus moves the order from expected to change.Status and appends
	// the history entry, both atomically. Returns models.ErrNotFound for an
	// unknown order and models.ErrConflict when the stored status is no
	// longer expected.
	UpdateStatus(ctx context.Context, orderID string, expected models.OrderStatus, change models.StatusChange) error
}
