package order

import (
	"context"
	"fmt"
	"time"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

// Notifier publishes order lifecycle events. A nil Notifier disables
// publishing; event delivery never fails a transition.
type Notifier interface {
	PublishOrderEvent(ctx context.Context, msg interface{}, routingKey string) error
	PublishNotification(ctx context.Context, msg interface{}) error
}

// Service is the order ledger query surface and the status state machine.
// The core is role-agnostic: callers are trusted to have authorized the
// requested transition.
type Service struct {
	store    Store
	notifier Notifier
	logger   *logger.Logger
	now      func() time.Time
}

// NewService creates an order service. notifier may be nil.
func NewService(store Store, notifier Notifier, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Transition moves an order to target, appending a history record. Illegal
// targets fail with models.ErrInvalidTransition and leave the order
// untouched; losing a race against a concurrent writer fails with
// models.ErrConflict.
func (s *Service) Transition(ctx context.Context, orderID string, target models.OrderStatus, changedBy string, notes *string) (*models.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(o.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, o.Status, target)
	}

	change := models.StatusChange{
		Status:    target,
		ChangedBy: changedBy,
		ChangedAt: s.now(),
		Notes:     notes,
	}

	if err := s.store.UpdateStatus(ctx, orderID, o.Status, change); err != nil {
		return nil, err
	}

	oldStatus := o.Status
	o.Status = target
	o.UpdatedAt = change.ChangedAt
	o.History = append(o.History, change)

	s.logger.Info("order_status_changed",
		fmt.Sprintf("Order %s moved from %s to %s", orderID, oldStatus, target),
		"", map[string]interface{}{
			"order_id":   orderID,
			"old_status": string(oldStatus),
			"new_status": string(target),
			"changed_by": changedBy,
		})

	s.publishStatusUpdate(ctx, o, oldStatus, changedBy)
	return o, nil
}

func (s *Service) publishStatusUpdate(ctx context.Context, o *models.Order, oldStatus models.OrderStatus, changedBy string) {
	if s.notifier == nil {
		return
	}

	msg := models.NewStatusUpdateMessage(o.ID, o.UserID, oldStatus, o.Status, changedBy)
	if err := s.notifier.PublishNotification(ctx, msg); err != nil {
		s.logger.Error("notification_publish_failed", "Failed to publish status notification",
			"", err, map[string]interface{}{"order_id": o.ID})
	}
	if err := s.notifier.PublishOrderEvent(ctx, msg, models.RoutingKey(o.Status)); err != nil {
		s.logger.Error("event_publish_failed", "Failed to publish order event",
			"", err, map[string]interface{}{"order_id": o.ID})
	}
}

// GetOrder returns the full order with lines and chronological history.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.store.Get(ctx, orderID)
}

// ListByUser returns the user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, error) {
	return s.store.ListByUser(ctx, userID, clampLimit(limit), offset)
}

// ListByStatus returns orders in the given status, newest first. Staff views
// poll this to find actionable orders.
func (s *Service) ListByStatus(ctx context.Context, status models.OrderStatus, limit, offset int) ([]models.Order, error) {
	return s.store.ListByStatus(ctx, status, clampLimit(limit), offset)
}

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
