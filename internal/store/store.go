// Package store defines the storage contract shared by the PostgreSQL and
// SQLite backends.
package store

import (
	"context"

	"restaurant-pos/internal/models"
)

// Queries is the set of statements the services run. Implementations run
// them either directly against the pool or inside one transaction.
//
// GetMenuItem and GetOrder return a *models.NotFoundError for a missing row.
// Insert and update of menu items return a *models.ConflictError when the
// name is already taken. The delete methods report whether a row existed.
type Queries interface {
	InsertMenuItem(ctx context.Context, item *models.MenuItem) error
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
	MenuItemNameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id int64) (bool, error)
	ListMenuItems(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, int, error)

	InsertOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id int64) (bool, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error)

	InsertOrderItem(ctx context.Context, item *models.OrderItem) error
	DeleteOrderItems(ctx context.Context, orderID int64) error
}

// Store hands out query scopes. WithTx commits when fn returns nil and
// rolls back otherwise; the transaction is always released.
type Store interface {
	Queries() Queries
	WithTx(ctx context.Context, fn func(q Queries) error) error
	Ping(ctx context.Context) error
	Close()
}

// AttachItems distributes line items onto their orders by order id
func AttachItems(orders []models.Order, items []models.OrderItem) {
	index := make(map[int64]int, len(orders))
	for i := range orders {
		index[orders[i].ID] = i
	}
	for _, item := range items {
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
}
