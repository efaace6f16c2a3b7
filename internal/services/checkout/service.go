package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
	"restaurant-orders/internal/services/cart"
	"restaurant-orders/internal/services/catalog"
	"restaurant-orders/internal/services/order"
)

// changedBy recorded on the initial status entry of every order.
const placedBy = "checkout service"

// Notifier publishes the order-placed event. A nil Notifier disables
// publishing; delivery never fails a checkout.
type Notifier interface {
	PublishOrderEvent(ctx context.Context, msg interface{}, routingKey string) error
	PublishNotification(ctx context.Context, msg interface{}) error
}

// Coordinator converts a cart into an order. It is the one operation
// spanning both aggregates: the order is persisted first, then the cart is
// cleared against the version captured at load time, so a crash in between
// leaves a duplicate-looking cart rather than a lost order.
type Coordinator struct {
	carts    cart.Store
	catalog  catalog.Store
	orders   order.Store
	tokens   TokenStore
	notifier Notifier
	logger   *logger.Logger
	now      func() time.Time
}

// NewCoordinator creates a checkout coordinator. tokens and notifier may be
// nil to disable idempotency replay and event publishing.
func NewCoordinator(carts cart.Store, cat catalog.Store, orders order.Store, tokens TokenStore, notifier Notifier, log *logger.Logger) *Coordinator {
	return &Coordinator{
		carts:    carts,
		catalog:  cat,
		orders:   orders,
		tokens:   tokens,
		notifier: notifier,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Checkout validates the user's cart against the current catalog, prices it
// at current catalog prices, creates the order and clears the cart. On any
// failure before the order is persisted the cart is left untouched. token is
// an optional caller-supplied idempotency token; a retried checkout carrying
// the same token returns the order created by the first attempt.
func (c *Coordinator) Checkout(ctx context.Context, userID, notes, token string) (*models.Order, error) {
	if len(notes) > models.MaxOrderNotesLength {
		return nil, fmt.Errorf("notes must not exceed %d characters", models.MaxOrderNotesLength)
	}

	if token != "" && c.tokens != nil {
		orderID, found, err := c.tokens.Lookup(ctx, userID, token)
		if err != nil {
			return nil, err
		}
		if found {
			c.logger.Debug("checkout_replayed", "Idempotency token matched an existing order", "", map[string]interface{}{
				"user_id":  userID,
				"order_id": orderID,
			})
			return c.orders.Get(ctx, orderID)
		}
	}

	userCart, err := c.carts.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if userCart.IsEmpty() {
		return nil, fmt.Errorf("%w: user %s", models.ErrEmptyCart, userID)
	}
	cartVersion := userCart.Version

	lines, err := c.priceCart(ctx, userCart)
	if err != nil {
		return nil, err
	}

	now := c.now()
	o := &models.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Lines:     lines,
		Total:     models.CalculateTotal(lines),
		Status:    models.StatusPlaced,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
		History: []models.StatusChange{{
			Status:    models.StatusPlaced,
			ChangedBy: placedBy,
			ChangedAt: now,
		}},
	}

	// Ledger first. A failure here leaves the cart untouched.
	if err := c.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	// A version mismatch means the cart was mutated mid-checkout; the newly
	// added lines must not be dropped, so the whole call reports Conflict.
	// The order stays in the ledger: subsequent retries work from the
	// refreshed cart.
	if err := c.carts.Clear(ctx, userID, cartVersion); err != nil {
		c.logger.Error("cart_clear_failed", "Order persisted but cart clear failed",
			"", err, map[string]interface{}{
				"user_id":  userID,
				"order_id": o.ID,
			})
		return nil, err
	}

	if token != "" && c.tokens != nil {
		if err := c.tokens.Remember(ctx, userID, token, o.ID); err != nil {
			c.logger.Error("token_record_failed", "Failed to record idempotency token",
				"", err, map[string]interface{}{"order_id": o.ID})
		}
	}

	c.logger.Info("order_placed", fmt.Sprintf("Order %s placed", o.ID), "", map[string]interface{}{
		"order_id": o.ID,
		"user_id":  userID,
		"total":    o.Total,
		"lines":    len(o.Lines),
	})

	c.publishPlaced(ctx, o)
	return o, nil
}

// priceCart re-validates every cart line against the catalog and freezes the
// current unit price into order lines. Any unavailable or vanished item fails
// the whole checkout.
func (c *Coordinator) priceCart(ctx context.Context, userCart *models.Cart) ([]models.OrderLine, error) {
	lines := make([]models.OrderLine, 0, len(userCart.Items))
	for _, ci := range userCart.Items {
		item, err := c.catalog.GetMenuItem(ctx, ci.ItemID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, fmt.Errorf("%w: item %s was removed from the menu", models.ErrItemUnavailable, ci.ItemID)
			}
			return nil, err
		}
		if !item.Available {
			return nil, fmt.Errorf("%w: %s", models.ErrItemUnavailable, item.Name)
		}

		lines = append(lines, models.OrderLine{
			ItemID:    item.ID,
			Name:      item.Name,
			Quantity:  ci.Quantity,
			UnitPrice: item.Price,
			Subtotal:  item.Price * float64(ci.Quantity),
			Note:      ci.Note,
		})
	}
	return lines, nil
}

func (c *Coordinator) publishPlaced(ctx context.Context, o *models.Order) {
	if c.notifier == nil {
		return
	}

	msg := models.NewOrderPlacedMessage(o)
	if err := c.notifier.PublishOrderEvent(ctx, msg, models.RoutingKey(o.Status)); err != nil {
		c.logger.Error("event_publish_failed", "Failed to publish order placed event",
			"", err, map[string]interface{}{"order_id": o.ID})
	}
	if err := c.notifier.PublishNotification(ctx, msg); err != nil {
		c.logger.Error("notification_publish_failed", "Failed to publish order placed notification",
			"", err, map[string]interface{}{"order_id": o.ID})
	}
}
