package notification

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/messaging"
	"restaurant-orders/internal/models"
)

// Subscriber consumes the notifications fanout queue and renders order
// events for customers.
type Subscriber struct {
	consumer *messaging.Consumer
	logger   *logger.Logger

	shutdown chan os.Signal
	done     chan bool
}

// NewSubscriber creates a notification subscriber.
func NewSubscriber(consumer *messaging.Consumer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		logger:   log,
		shutdown: make(chan os.Signal, 1),
		done:     make(chan bool, 1),
	}
}

// Start consumes notifications until a shutdown signal or the context ends.
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()

	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)

	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	go func() {
		if err := s.consumer.StartConsuming(ctx, s.handleNotification); err != nil {
			s.logger.Error("consumer_failed", "Notification consumer failed", requestID, err, nil)
		}
		s.done <- true
	}()

	select {
	case <-s.shutdown:
		s.logger.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		return s.consumer.Close()
	case <-s.done:
		return nil
	}
}

func (s *Subscriber) handleNotification(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	// The fanout carries both placement events and status updates; a status
	// update always has new_status set.
	var statusUpdate models.StatusUpdateMessage
	if err := messaging.ParseMessage(body, &statusUpdate); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return fmt.Errorf("failed to parse notification: %w", err)
	}

	if statusUpdate.NewStatus != "" {
		s.displayStatusUpdate(&statusUpdate)
		return nil
	}

	var placed models.OrderPlacedMessage
	if err := messaging.ParseMessage(body, &placed); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return fmt.Errorf("failed to parse notification: %w", err)
	}
	s.displayPlaced(&placed)
	return nil
}

func (s *Subscriber) displayPlaced(msg *models.OrderPlacedMessage) {
	fmt.Printf("[%s] Order %s placed: %d item(s), total %.2f\n",
		msg.CreatedAt.Format("2006-01-02 15:04:05"), msg.OrderID, len(msg.Lines), msg.Total)

	s.logger.Info("notification_displayed", "Order placed notification displayed", "", map[string]interface{}{
		"order_id": msg.OrderID,
		"user_id":  msg.UserID,
		"total":    msg.Total,
	})
}

func (s *Subscriber) displayStatusUpdate(msg *models.StatusUpdateMessage) {
	fmt.Println(formatStatusUpdate(msg))

	s.logger.Info("notification_displayed", "Status update notification displayed", "", map[string]interface{}{
		"order_id":   msg.OrderID,
		"old_status": msg.OldStatus,
		"new_status": msg.NewStatus,
		"changed_by": msg.ChangedBy,
	})
}

func formatStatusUpdate(msg *models.StatusUpdateMessage) string {
	timestamp := msg.Timestamp.Format("2006-01-02 15:04:05")

	var text string
	switch models.OrderStatus(msg.NewStatus) {
	case models.StatusInPreparation:
		text = "is now being prepared"
	case models.StatusReady:
		text = "is ready for pickup"
	case models.StatusDelivered:
		text = "has been delivered, enjoy"
	case models.StatusCancelled:
		text = "has been cancelled"
	default:
		text = fmt.Sprintf("changed status to %s", msg.NewStatus)
	}

	return fmt.Sprintf("[%s] Order %s %s", timestamp, msg.OrderID, text)
}
