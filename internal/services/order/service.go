package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
)

// EventPublisher receives order events after the owning transaction commits
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event *models.OrderEvent) error
}

// Service keeps every order consistent with its line items: each line
// captures the menu price at write time and the order total is the sum
// of the captured prices.
type Service struct {
	store          store.Store
	publisher      EventPublisher
	publishTimeout time.Duration
	logger         *logger.Logger
	now            func() time.Time
}

// defaultPublishTimeout caps how long a committed write waits on its event
const defaultPublishTimeout = 2 * time.Second

// NewService creates a new order service. publisher may be nil.
func NewService(st store.Store, publisher EventPublisher, log *logger.Logger) *Service {
	return &Service{
		store:          st,
		publisher:      publisher,
		publishTimeout: defaultPublishTimeout,
		logger:         log,
		now:            func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// CreateOrder persists an order and its lines in one transaction. A missing
// menu item aborts the whole operation.
func (s *Service) CreateOrder(ctx context.Context, req *models.OrderCreate, requestID string) (*models.Order, error) {
	order := &models.Order{
		Status:    req.StatusOrDefault(),
		CreatedAt: s.now(),
	}

	err := s.store.WithTx(ctx, func(q store.Queries) error {
		items, err := buildItems(ctx, q, req.Items)
		if err != nil {
			return err
		}
		order.TotalPrice = models.CalculateTotal(items)

		if err := q.InsertOrder(ctx, order); err != nil {
			return err
		}
		order.Items, err = insertItems(ctx, q, order.ID, items)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("order_created", "Order created", requestID, map[string]interface{}{
		"order_id":    order.ID,
		"total_price": order.TotalPrice,
		"item_count":  len(order.Items),
	})
	s.publish(ctx, models.NewOrderEvent(models.OrderCreated, order, ""), requestID)
	return order, nil
}

// GetOrder returns one order with its lines
func (s *Service) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.store.Queries().GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	withItems(order)
	return order, nil
}

// ListOrders returns one filtered page of orders
func (s *Service) ListOrders(ctx context.Context, filter models.OrderFilter) (models.Page[models.Order], error) {
	filter.Page = filter.Page.Normalize()
	orders, total, err := s.store.Queries().ListOrders(ctx, filter)
	if err != nil {
		return models.Page[models.Order]{}, err
	}
	for i := range orders {
		withItems(&orders[i])
	}
	return models.NewPage(orders, total, filter.Page), nil
}

// ReplaceOrder overwrites status and the full item set. The old lines are
// only gone once the new ones are committed.
func (s *Service) ReplaceOrder(ctx context.Context, id int64, req *models.OrderCreate, requestID string) (*models.Order, error) {
	var (
		order     *models.Order
		oldStatus string
	)

	err := s.store.WithTx(ctx, func(q store.Queries) error {
		var err error
		order, err = q.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		oldStatus = order.Status
		order.Status = req.StatusOrDefault()
		return replaceItems(ctx, q, order, req.Items)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("order_replaced", "Order replaced", requestID, map[string]interface{}{
		"order_id":    order.ID,
		"total_price": order.TotalPrice,
		"item_count":  len(order.Items),
	})
	s.publish(ctx, models.NewOrderEvent(models.OrderUpdated, order, oldStatus), requestID)
	return order, nil
}

// PatchOrder applies only the fields present in req. Without items the
// total and lines are left as they are.
func (s *Service) PatchOrder(ctx context.Context, id int64, req *models.OrderUpdate, requestID string) (*models.Order, error) {
	var (
		order     *models.Order
		oldStatus string
	)

	err := s.store.WithTx(ctx, func(q store.Queries) error {
		var err error
		order, err = q.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		oldStatus = order.Status

		if req.Status.Present() {
			order.Status = strings.TrimSpace(req.Status.Value)
		}
		if req.Items.Present() {
			return replaceItems(ctx, q, order, req.Items.Value)
		}
		return q.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	withItems(order)
	s.logger.Debug("order_patched", "Order updated", requestID, map[string]interface{}{
		"order_id":      order.ID,
		"status":        order.Status,
		"items_changed": req.Items.Present(),
	})
	s.publish(ctx, models.NewOrderEvent(models.OrderUpdated, order, oldStatus), requestID)
	return order, nil
}

// DeleteOrder removes an order together with its lines
func (s *Service) DeleteOrder(ctx context.Context, id int64, requestID string) error {
	deleted, err := s.store.Queries().DeleteOrder(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.OrderNotFound(id)
	}

	s.logger.Debug("order_deleted", "Order deleted", requestID, map[string]interface{}{
		"order_id": id,
	})
	s.publish(ctx, models.NewOrderEvent(models.OrderDeleted, &models.Order{ID: id}, ""), requestID)
	return nil
}

// replaceItems swaps the lines of order for fresh ones and stores the new
// total. It runs inside the caller's transaction.
func replaceItems(ctx context.Context, q store.Queries, order *models.Order, reqItems []models.OrderItemCreate) error {
	items, err := buildItems(ctx, q, reqItems)
	if err != nil {
		return err
	}
	if err := q.DeleteOrderItems(ctx, order.ID); err != nil {
		return err
	}
	order.Items, err = insertItems(ctx, q, order.ID, items)
	if err != nil {
		return err
	}
	order.TotalPrice = models.CalculateTotal(order.Items)
	return q.UpdateOrder(ctx, order)
}

// buildItems resolves every requested menu item and captures its price.
// The first missing menu item is returned as a NotFound error and an
// unrepresentable line price or total as a ValidationError.
func buildItems(ctx context.Context, q store.Queries, reqItems []models.OrderItemCreate) ([]models.OrderItem, error) {
	prices := make(map[int64]float64, len(reqItems))
	items := make([]models.OrderItem, 0, len(reqItems))

	for i, req := range reqItems {
		price, ok := prices[req.MenuItemID]
		if !ok {
			menuItem, err := q.GetMenuItem(ctx, req.MenuItemID)
			if err != nil {
				return nil, err
			}
			price = menuItem.Price
			prices[req.MenuItemID] = price
		}

		line := models.LinePrice(price, req.Quantity)
		if err := models.CheckAmount(fmt.Sprintf("items[%d].price", i), line); err != nil {
			return nil, err
		}
		items = append(items, models.OrderItem{
			MenuItemID: req.MenuItemID,
			Quantity:   req.Quantity,
			Price:      line,
		})
	}
	if err := models.CheckAmount("total_price", models.CalculateTotal(items)); err != nil {
		return nil, err
	}
	return items, nil
}

func insertItems(ctx context.Context, q store.Queries, orderID int64, items []models.OrderItem) ([]models.OrderItem, error) {
	for i := range items {
		items[i].OrderID = orderID
		if err := q.InsertOrderItem(ctx, &items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// withItems renders an order without lines as "items": []
func withItems(order *models.Order) {
	if order.Items == nil {
		order.Items = []models.OrderItem{}
	}
}

func (s *Service) publish(ctx context.Context, event *models.OrderEvent, requestID string) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error("event_publish_failed", "Failed to publish order event", requestID, err, map[string]interface{}{
			"event":    string(event.Type),
			"order_id": event.OrderID,
		})
	}
}
