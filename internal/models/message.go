package models

import (
	"fmt"
	"time"
)

// OrderEventType names a change to an order aggregate
type OrderEventType string

const (
	OrderCreated OrderEventType = "order.created"
	OrderUpdated OrderEventType = "order.updated"
	OrderDeleted OrderEventType = "order.deleted"
)

// OrderEvent is published after an order mutation commits
type OrderEvent struct {
	Type       OrderEventType `json:"type"`
	OrderID    int64          `json:"order_id"`
	Status     string         `json:"status,omitempty"`
	OldStatus  string         `json:"old_status,omitempty"`
	TotalPrice float64        `json:"total_price"`
	ItemCount  int            `json:"item_count"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NewOrderEvent snapshots an order for publication
func NewOrderEvent(eventType OrderEventType, order *Order, oldStatus string) *OrderEvent {
	return &OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		Status:     order.Status,
		OldStatus:  oldStatus,
		TotalPrice: order.TotalPrice,
		ItemCount:  len(order.Items),
		Timestamp:  time.Now().UTC(),
	}
}

// RoutingKey is the topic routing key for the event
func (e *OrderEvent) RoutingKey() string {
	return string(e.Type)
}

// Describe renders a one-line human readable summary
func (e *OrderEvent) Describe() string {
	ts := e.Timestamp.Format("2006-01-02 15:04:05")
	switch e.Type {
	case OrderCreated:
		return fmt.Sprintf("[%s] Order %d placed: %d item(s), total %.2f",
			ts, e.OrderID, e.ItemCount, e.TotalPrice)
	case OrderDeleted:
		return fmt.Sprintf("[%s] Order %d deleted", ts, e.OrderID)
	default:
		if e.OldStatus != "" && e.OldStatus != e.Status {
			return fmt.Sprintf("[%s] Order %d status changed from '%s' to '%s', total %.2f",
				ts, e.OrderID, e.OldStatus, e.Status, e.TotalPrice)
		}
		return fmt.Sprintf("[%s] Order %d updated: %d item(s), total %.2f",
			ts, e.OrderID, e.ItemCount, e.TotalPrice)
	}
}
