package models

import (
	"fmt"
	"time"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	StatusPlaced        OrderStatus = "placed"
	StatusInPreparation OrderStatus = "in_preparation"
	StatusReady         OrderStatus = "ready"
	StatusDelivered     OrderStatus = "delivered"
	StatusCancelled     OrderStatus = "cancelled"
)

// MaxOrderNotesLength caps the free-text notes attached to an order.
const MaxOrderNotesLength = 500

// allowedTransitions is the full lifecycle table. Delivered and cancelled are
// terminal; history is append-only.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusPlaced:        {StatusInPreparation, StatusCancelled},
	StatusInPreparation: {StatusReady, StatusCancelled},
	StatusReady:         {StatusDelivered},
	StatusDelivered:     {},
	StatusCancelled:     {},
}

// ParseOrderStatus validates a raw status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPlaced, StatusInPreparation, StatusReady, StatusDelivered, StatusCancelled:
		return OrderStatus(s), nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

// CanTransition reports whether an order may move from current to target.
func CanTransition(current, target OrderStatus) bool {
	for _, next := range allowedTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status OrderStatus) bool {
	return len(allowedTransitions[status]) == 0
}

// OrderLine is a priced, frozen copy of a cart line. UnitPrice is captured at
// order creation and never re-derived from the catalog.
type OrderLine struct {
	ItemID    string  `json:"item_id" db:"item_id"`
	Name      string  `json:"name" db:"name"`
	Quantity  int     `json:"quantity" db:"quantity"`
	UnitPrice float64 `json:"unit_price" db:"unit_price"`
	Subtotal  float64 `json:"subtotal" db:"subtotal"`
	Note      string  `json:"note,omitempty" db:"note"`
}

// StatusChange is one entry of an order's status history.
type StatusChange struct {
	Status    OrderStatus `json:"status" db:"status"`
	ChangedBy string      `json:"changed_by" db:"changed_by"`
	ChangedAt time.Time   `json:"changed_at" db:"changed_at"`
	Notes     *string     `json:"notes,omitempty" db:"notes"`
}

// Order is an immutable priced snapshot of a cart at checkout time. Only
// Status, History and UpdatedAt change after creation.
type Order struct {
	ID        string         `json:"id" db:"id"`
	UserID    string         `json:"user_id" db:"user_id"`
	Lines     []OrderLine    `json:"lines"`
	Total     float64        `json:"total" db:"total"`
	Status    OrderStatus    `json:"status" db:"status"`
	Notes     string         `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
	History   []StatusChange `json:"history,omitempty"`
}

// CalculateTotal sums line subtotals.
func CalculateTotal(lines []OrderLine) float64 {
	total := 0.0
	for _, line := range lines {
		total += line.Subtotal
	}
	return total
}
