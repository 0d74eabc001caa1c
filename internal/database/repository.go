package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
)

const uniqueViolation = "23505"

// conn is satisfied by both *pgxpool.Pool and pgx.Tx
type conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	conn conn
}

var _ store.Queries = (*queries)(nil)

func (q *queries) InsertMenuItem(ctx context.Context, item *models.MenuItem) error {
	err := q.conn.QueryRow(ctx, InsertMenuItemSQL,
		item.Name, item.Price, item.Category, item.Description,
	).Scan(&item.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.DuplicateMenuItemName(item.Name)
		}
		return fmt.Errorf("insert menu item: %w", err)
	}
	return nil
}

func (q *queries) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	var item models.MenuItem
	err := q.conn.QueryRow(ctx, GetMenuItemSQL, id).Scan(
		&item.ID,
		&item.Name,
		&item.Price,
		&item.Category,
		&item.Description,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.MenuItemNotFound(id)
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	return &item, nil
}

func (q *queries) MenuItemNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var taken bool
	if err := q.conn.QueryRow(ctx, MenuItemNameTakenSQL, name, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("check menu item name: %w", err)
	}
	return taken, nil
}

func (q *queries) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	tag, err := q.conn.Exec(ctx, UpdateMenuItemSQL,
		item.Name, item.Price, item.Category, item.Description, item.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.DuplicateMenuItemName(item.Name)
		}
		return fmt.Errorf("update menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.MenuItemNotFound(item.ID)
	}
	return nil
}

func (q *queries) DeleteMenuItem(ctx context.Context, id int64) (bool, error) {
	tag, err := q.conn.Exec(ctx, DeleteMenuItemSQL, id)
	if err != nil {
		return false, fmt.Errorf("delete menu item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *queries) ListMenuItems(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, int, error) {
	where := store.MenuWhere(store.Postgres, filter)

	var total int
	if err := q.conn.QueryRow(ctx, countMenuItemsSQL+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count menu items: %w", err)
	}

	page, args := where.Page(filter.Page)
	rows, err := q.conn.Query(ctx, selectMenuItemsSQL+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var item models.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.Category, &item.Description); err != nil {
			return nil, 0, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list menu items: %w", err)
	}
	return items, total, nil
}

func (q *queries) InsertOrder(ctx context.Context, order *models.Order) error {
	err := q.conn.QueryRow(ctx, InsertOrderSQL,
		order.Status, order.TotalPrice, order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (q *queries) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := q.conn.QueryRow(ctx, GetOrderSQL, id).Scan(
		&order.ID,
		&order.Status,
		&order.TotalPrice,
		&order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.OrderNotFound(id)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := q.conn.Query(ctx, GetOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	order.Items, err = scanOrderItems(rows)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (q *queries) UpdateOrder(ctx context.Context, order *models.Order) error {
	tag, err := q.conn.Exec(ctx, UpdateOrderSQL, order.Status, order.TotalPrice, order.ID)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.OrderNotFound(order.ID)
	}
	return nil
}

func (q *queries) DeleteOrder(ctx context.Context, id int64) (bool, error) {
	tag, err := q.conn.Exec(ctx, DeleteOrderSQL, id)
	if err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *queries) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	where := store.OrderWhere(store.Postgres, filter)

	var total int
	if err := q.conn.QueryRow(ctx, countOrdersSQL+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	page, args := where.Page(filter.Page)
	rows, err := q.conn.Query(ctx, selectOrdersSQL+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	var orders []models.Order
	ids := make([]int64, 0)
	for rows.Next() {
		var order models.Order
		if err := rows.Scan(&order.ID, &order.Status, &order.TotalPrice, &order.CreatedAt); err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		order.Items = []models.OrderItem{}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, total, nil
	}

	itemRows, err := q.conn.Query(ctx, GetOrderItemsForOrdersSQL, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("list order items: %w", err)
	}
	items, err := scanOrderItems(itemRows)
	if err != nil {
		return nil, 0, err
	}
	store.AttachItems(orders, items)
	return orders, total, nil
}

func (q *queries) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	err := q.conn.QueryRow(ctx, InsertOrderItemSQL,
		item.OrderID, item.MenuItemID, item.Quantity, item.Price,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (q *queries) DeleteOrderItems(ctx context.Context, orderID int64) error {
	if _, err := q.conn.Exec(ctx, DeleteOrderItemsSQL, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	return nil
}

func scanOrderItems(rows pgx.Rows) ([]models.OrderItem, error) {
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read order items: %w", err)
	}
	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
