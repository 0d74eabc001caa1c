package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

// EventSource delivers raw order event bodies to a handler until ctx ends
type EventSource interface {
	StartConsuming(ctx context.Context, handler func(ctx context.Context, body []byte) error) error
}

// Subscriber prints a human readable line for every order event
type Subscriber struct {
	logger *logger.Logger
	out    io.Writer
}

// NewSubscriber creates a new notification subscriber writing to out
func NewSubscriber(log *logger.Logger, out io.Writer) *Subscriber {
	return &Subscriber{
		logger: log,
		out:    out,
	}
}

// Run consumes from source until ctx is cancelled
func (s *Subscriber) Run(ctx context.Context, source EventSource) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	err := source.StartConsuming(ctx, s.HandleEvent)
	if err != nil && ctx.Err() == nil {
		s.logger.Error("consumer_failed", "Notification consumer failed", requestID, err, nil)
		return err
	}

	s.logger.Info("graceful_shutdown", "Notification subscriber stopped", requestID, nil)
	return nil
}

// HandleEvent decodes one order event and displays it
func (s *Subscriber) HandleEvent(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var event models.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse order event", requestID, err, nil)
		return fmt.Errorf("failed to parse order event: %w", err)
	}
	if event.Type == "" || event.OrderID <= 0 {
		return fmt.Errorf("incomplete order event: type=%q order_id=%d", event.Type, event.OrderID)
	}

	fmt.Fprintln(s.out, event.Describe())

	s.logger.Info("notification_displayed", "Order event displayed", requestID, map[string]interface{}{
		"event":       string(event.Type),
		"order_id":    event.OrderID,
		"status":      event.Status,
		"total_price": event.TotalPrice,
	})
	return nil
}
