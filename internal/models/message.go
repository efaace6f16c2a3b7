package models

import "time"

// OrderPlacedMessage is published to the orders topic exchange when checkout
// creates a new order.
type OrderPlacedMessage struct {
	OrderID   string      `json:"order_id"`
	UserID    string      `json:"user_id"`
	Lines     []OrderLine `json:"lines"`
	Total     float64     `json:"total"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// StatusUpdateMessage represents a status update notification
type StatusUpdateMessage struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedBy string    `json:"changed_by"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderPlacedMessage builds the placement event for a freshly created order.
func NewOrderPlacedMessage(order *Order) *OrderPlacedMessage {
	return &OrderPlacedMessage{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Lines:     order.Lines,
		Total:     order.Total,
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt,
	}
}

// NewStatusUpdateMessage builds the notification for an order status change.
func NewStatusUpdateMessage(orderID, userID string, oldStatus, newStatus OrderStatus, changedBy string) *StatusUpdateMessage {
	return &StatusUpdateMessage{
		OrderID:   orderID,
		UserID:    userID,
		OldStatus: string(oldStatus),
		NewStatus: string(newStatus),
		ChangedBy: changedBy,
		Timestamp: time.Now().UTC(),
	}
}

// RoutingKey returns the topic routing key for an order event, keyed by the
// status the order moved into.
func RoutingKey(status OrderStatus) string {
	return "orders." + string(status)
}
