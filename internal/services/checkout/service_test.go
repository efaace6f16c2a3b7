package checkout

import (
	"context"
	"errors"
	"testing"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
	"restaurant-orders/internal/services/cart"
	"restaurant-orders/internal/services/catalog"
	"restaurant-orders/internal/services/order"
)

type fixture struct {
	carts       *cart.MemoryStore
	cartService *cart.Service
	menu        *catalog.MemoryStore
	orders      *order.MemoryStore
	coordinator *Coordinator
}

func newFixture() *fixture {
	log := logger.New("checkout-test")

	menu := catalog.NewMemoryStore()
	menu.Put(models.MenuItem{ID: "margherita", Name: "Margherita", Price: 5.00, Available: true})
	menu.Put(models.MenuItem{ID: "cola", Name: "Cola", Price: 2.50, Available: true})

	carts := cart.NewMemoryStore()
	orders := order.NewMemoryStore()

	return &fixture{
		carts:       carts,
		cartService: cart.NewService(carts, menu, log),
		menu:        menu,
		orders:      orders,
		coordinator: NewCoordinator(carts, menu, orders, NewMemoryTokenStore(), nil, log),
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture()

	if _, err := f.coordinator.Checkout(context.Background(), "user-1", "", ""); !errors.Is(err, models.ErrEmptyCart) {
		t.Errorf("Checkout(empty cart) = %v, want ErrEmptyCart", err)
	}
}

func TestCheckout_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.cartService.Add(ctx, "user-1", "margherita", 2, nil, "no olives")
	f.cartService.Add(ctx, "user-1", "cola", 1, nil, "")

	o, err := f.coordinator.Checkout(ctx, "user-1", "ring twice", "")
	if err != nil {
		t.Fatalf("Checkout() error: %v", err)
	}

	if o.Status != models.StatusPlaced {
		t.Errorf("order status = %s, want placed", o.Status)
	}
	if o.Total != 12.50 {
		t.Errorf("order total = %.2f, want 12.50", o.Total)
	}
	if len(o.Lines) != 2 {
		t.Fatalf("order has %d lines, want 2", len(o.Lines))
	}
	if o.Lines[0].Note != "no olives" {
		t.Errorf("line note = %q", o.Lines[0].Note)
	}
	if o.Notes != "ring twice" {
		t.Errorf("order notes = %q", o.Notes)
	}
	if len(o.History) != 1 || o.History[0].Status != models.StatusPlaced {
		t.Errorf("unexpected initial history: %+v", o.History)
	}

	// The cart is consumed.
	c, _ := f.cartService.Get(ctx, "user-1")
	if !c.IsEmpty() {
		t.Errorf("cart still has %d lines after checkout", len(c.Items))
	}

	// The order is in the ledger.
	stored, err := f.orders.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if stored.Total != 12.50 {
		t.Errorf("persisted total = %.2f", stored.Total)
	}
}

func TestCheckout_PricesAtCurrentCatalog(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.cartService.Add(ctx, "user-1", "margherita", 2, nil, "")

	// A price change between add-to-cart and checkout is reflected in the
	// order; carts never freeze prices.
	f.menu.SetPrice("margherita", 6.00)

	o, err := f.coordinator.Checkout(ctx, "user-1", "", "")
	if err != nil {
		t.Fatalf("Checkout() error: %v", err)
	}
	if o.Lines[0].UnitPrice != 6.00 {
		t.Errorf("unit price = %.2f, want current catalog price 6.00", o.Lines[0].UnitPrice)
	}
	if o.Total != 12.00 {
		t.Errorf("total = %.2f, want 12.00", o.Total)
	}

	// Once placed, the order's price is frozen; later catalog changes do not
	// reach the ledger.
	f.menu.SetPrice("margherita", 9.99)
	stored, err := f.orders.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if stored.Total != 12.00 || stored.Lines[0].UnitPrice != 6.00 {
		t.Errorf("later price change leaked into the order: total %.2f, unit %.2f", stored.Total, stored.Lines[0].UnitPrice)
	}
}

func TestCheckout_UnavailableItemLeavesCartIntact(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.cartService.Add(ctx, "user-1", "margherita", 1, nil, "")
	f.cartService.Add(ctx, "user-1", "cola", 1, nil, "")
	f.menu.SetAvailable("cola", false)

	if _, err := f.coordinator.Checkout(ctx, "user-1", "", ""); !errors.Is(err, models.ErrItemUnavailable) {
		t.Errorf("Checkout() = %v, want ErrItemUnavailable", err)
	}

	c, _ := f.cartService.Get(ctx, "user-1")
	if len(c.Items) != 2 {
		t.Errorf("failed checkout mutated the cart: %d lines", len(c.Items))
	}

	// The user can fix the cart and retry.
	line := c.Items[1]
	if err := f.cartService.Remove(ctx, "user-1", line.LineID); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if _, err := f.coordinator.Checkout(ctx, "user-1", "", ""); err != nil {
		t.Errorf("retry after removing the unavailable line failed: %v", err)
	}
}

func TestCheckout_VanishedItem(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.menu.Put(models.MenuItem{ID: "special", Name: "Daily Special", Price: 9.00, Available: true})
	f.cartService.Add(ctx, "user-1", "special", 1, nil, "")

	// The item disappears from the catalog entirely.
	f.menu = catalog.NewMemoryStore()
	f.coordinator.catalog = f.menu

	if _, err := f.coordinator.Checkout(ctx, "user-1", "", ""); !errors.Is(err, models.ErrItemUnavailable) {
		t.Errorf("Checkout(vanished item) = %v, want ErrItemUnavailable", err)
	}
}

// hookedCartStore lets tests interleave cart writes mid-checkout and inject
// clear failures.
type hookedCartStore struct {
	cart.Store
	afterLoad func()
	clearErr  error
}

func (s *hookedCartStore) Load(ctx context.Context, userID string) (*models.Cart, error) {
	c, err := s.Store.Load(ctx, userID)
	if err == nil && s.afterLoad != nil {
		hook := s.afterLoad
		s.afterLoad = nil
		hook()
	}
	return c, err
}

func (s *hookedCartStore) Clear(ctx context.Context, userID string, expectedVersion int64) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	return s.Store.Clear(ctx, userID, expectedVersion)
}

func TestCheckout_CartMutatedMidCheckout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	log := logger.New("checkout-test")

	f.cartService.Add(ctx, "user-1", "margherita", 1, nil, "")

	hooked := &hookedCartStore{Store: f.carts}
	hooked.afterLoad = func() {
		// Another request lands an item after checkout captured the cart.
		if _, err := f.cartService.Add(ctx, "user-1", "cola", 1, nil, ""); err != nil {
			t.Fatalf("concurrent Add() error: %v", err)
		}
	}
	coordinator := NewCoordinator(hooked, f.menu, f.orders, nil, nil, log)

	_, err := coordinator.Checkout(ctx, "user-1", "", "")
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("Checkout() = %v, want ErrConflict", err)
	}

	// The concurrently added line is not lost.
	c, _ := f.cartService.Get(ctx, "user-1")
	if len(c.Items) != 2 {
		t.Errorf("cart has %d lines, want both original and concurrent", len(c.Items))
	}

	// The order was persisted before the clear; a duplicate-looking cart beats
	// a lost order.
	orders, _ := f.orders.ListByUser(ctx, "user-1", 10, 0)
	if len(orders) != 1 {
		t.Errorf("ledger has %d orders, want 1", len(orders))
	}
}

func TestCheckout_ClearFailureKeepsOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	log := logger.New("checkout-test")

	f.cartService.Add(ctx, "user-1", "margherita", 2, nil, "")

	hooked := &hookedCartStore{Store: f.carts, clearErr: errors.New("connection reset")}
	coordinator := NewCoordinator(hooked, f.menu, f.orders, nil, nil, log)

	if _, err := coordinator.Checkout(ctx, "user-1", "", ""); err == nil {
		t.Fatal("Checkout() should surface the clear failure")
	}

	orders, _ := f.orders.ListByUser(ctx, "user-1", 10, 0)
	if len(orders) != 1 {
		t.Fatalf("ledger has %d orders, want the persisted one", len(orders))
	}

	c, _ := f.cartService.Get(ctx, "user-1")
	if len(c.Items) != 1 {
		t.Errorf("cart has %d lines, want it untouched", len(c.Items))
	}
}

func TestCheckout_IdempotencyReplay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.cartService.Add(ctx, "user-1", "margherita", 2, nil, "")

	first, err := f.coordinator.Checkout(ctx, "user-1", "", "tok-1")
	if err != nil {
		t.Fatalf("first Checkout() error: %v", err)
	}

	// The retry finds an empty cart but the token short-circuits to the
	// original order instead of failing.
	replayed, err := f.coordinator.Checkout(ctx, "user-1", "", "tok-1")
	if err != nil {
		t.Fatalf("replayed Checkout() error: %v", err)
	}
	if replayed.ID != first.ID {
		t.Errorf("replay created a new order: %s vs %s", replayed.ID, first.ID)
	}

	orders, _ := f.orders.ListByUser(ctx, "user-1", 10, 0)
	if len(orders) != 1 {
		t.Errorf("ledger has %d orders, want 1", len(orders))
	}
}

func TestCheckout_OrderLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	log := logger.New("checkout-test")

	f.cartService.Add(ctx, "user-1", "margherita", 2, nil, "")

	o, err := f.coordinator.Checkout(ctx, "user-1", "", "")
	if err != nil {
		t.Fatalf("Checkout() error: %v", err)
	}
	if o.Total != 10.00 {
		t.Fatalf("total = %.2f, want 10.00", o.Total)
	}

	orderService := order.NewService(f.orders, nil, log)

	if _, err := orderService.Transition(ctx, o.ID, models.StatusInPreparation, "kitchen", nil); err != nil {
		t.Fatalf("placed -> in_preparation failed: %v", err)
	}

	// Skipping ready is rejected and changes nothing.
	if _, err := orderService.Transition(ctx, o.ID, models.StatusDelivered, "courier", nil); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("in_preparation -> delivered = %v, want ErrInvalidTransition", err)
	}

	if _, err := orderService.Transition(ctx, o.ID, models.StatusReady, "kitchen", nil); err != nil {
		t.Fatalf("in_preparation -> ready failed: %v", err)
	}
	final, err := orderService.Transition(ctx, o.ID, models.StatusDelivered, "courier", nil)
	if err != nil {
		t.Fatalf("ready -> delivered failed: %v", err)
	}

	if final.Status != models.StatusDelivered {
		t.Errorf("final status = %s, want delivered", final.Status)
	}
	if len(final.History) != 4 {
		t.Fatalf("history has %d entries, want 4", len(final.History))
	}
	want := []models.OrderStatus{models.StatusPlaced, models.StatusInPreparation, models.StatusReady, models.StatusDelivered}
	for i, status := range want {
		if final.History[i].Status != status {
			t.Errorf("history[%d] = %s, want %s", i, final.History[i].Status, status)
		}
	}
}
