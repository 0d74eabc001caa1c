package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
)

const (
	createMigrationsTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			migration_name TEXT NOT NULL UNIQUE,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	migrationAppliedSQL = `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE migration_name = ?)`
	insertMigrationSQL  = `INSERT INTO schema_migrations (migration_name) VALUES (?)`

	insertMenuItemSQL    = `INSERT INTO menu_items (name, price, category, description) VALUES (?, ?, ?, ?)`
	getMenuItemSQL       = `SELECT id, name, price, category, description FROM menu_items WHERE id = ?`
	menuItemNameTakenSQL = `SELECT EXISTS(SELECT 1 FROM menu_items WHERE name = ? AND id <> ?)`
	updateMenuItemSQL    = `UPDATE menu_items SET name = ?, price = ?, category = ?, description = ? WHERE id = ?`
	deleteMenuItemSQL    = `DELETE FROM menu_items WHERE id = ?`
	selectMenuItemsSQL   = `SELECT id, name, price, category, description FROM menu_items`
	countMenuItemsSQL    = `SELECT COUNT(*) FROM menu_items`

	insertOrderSQL      = `INSERT INTO orders (status, total_price, created_at) VALUES (?, ?, ?)`
	getOrderSQL         = `SELECT id, status, total_price, created_at FROM orders WHERE id = ?`
	updateOrderSQL      = `UPDATE orders SET status = ?, total_price = ? WHERE id = ?`
	deleteOrderSQL      = `DELETE FROM orders WHERE id = ?`
	selectOrdersSQL     = `SELECT id, status, total_price, created_at FROM orders`
	countOrdersSQL      = `SELECT COUNT(*) FROM orders`
	insertOrderItemSQL  = `INSERT INTO order_items (order_id, menu_item_id, quantity, price) VALUES (?, ?, ?, ?)`
	getOrderItemsSQL    = `SELECT id, order_id, menu_item_id, quantity, price FROM order_items WHERE order_id = ? ORDER BY id`
	deleteOrderItemsSQL = `DELETE FROM order_items WHERE order_id = ?`
)

// timeLayout keeps created_at sortable and lossless as TEXT
const timeLayout = time.RFC3339Nano

// conn is satisfied by both *sql.DB and *sql.Tx
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	conn conn
}

var _ store.Queries = (*queries)(nil)

func (q *queries) InsertMenuItem(ctx context.Context, item *models.MenuItem) error {
	res, err := q.conn.ExecContext(ctx, insertMenuItemSQL,
		item.Name, item.Price, item.Category, item.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return models.DuplicateMenuItemName(item.Name)
		}
		return fmt.Errorf("insert menu item: %w", err)
	}
	item.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert menu item: %w", err)
	}
	return nil
}

func (q *queries) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	item, err := scanMenuItem(q.conn.QueryRowContext(ctx, getMenuItemSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.MenuItemNotFound(id)
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	return item, nil
}

func (q *queries) MenuItemNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var taken bool
	if err := q.conn.QueryRowContext(ctx, menuItemNameTakenSQL, name, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("check menu item name: %w", err)
	}
	return taken, nil
}

func (q *queries) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	res, err := q.conn.ExecContext(ctx, updateMenuItemSQL,
		item.Name, item.Price, item.Category, item.Description, item.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.DuplicateMenuItemName(item.Name)
		}
		return fmt.Errorf("update menu item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.MenuItemNotFound(item.ID)
	}
	return nil
}

func (q *queries) DeleteMenuItem(ctx context.Context, id int64) (bool, error) {
	res, err := q.conn.ExecContext(ctx, deleteMenuItemSQL, id)
	if err != nil {
		return false, fmt.Errorf("delete menu item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete menu item: %w", err)
	}
	return n > 0, nil
}

func (q *queries) ListMenuItems(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, int, error) {
	where := store.MenuWhere(store.SQLite, filter)

	var total int
	if err := q.conn.QueryRowContext(ctx, countMenuItemsSQL+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count menu items: %w", err)
	}

	page, args := where.Page(filter.Page)
	rows, err := q.conn.QueryContext(ctx, selectMenuItemsSQL+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list menu items: %w", err)
	}
	return items, total, nil
}

func (q *queries) InsertOrder(ctx context.Context, order *models.Order) error {
	res, err := q.conn.ExecContext(ctx, insertOrderSQL,
		order.Status, order.TotalPrice, order.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	order.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (q *queries) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order, err := scanOrder(q.conn.QueryRowContext(ctx, getOrderSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.OrderNotFound(id)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := q.conn.QueryContext(ctx, getOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	order.Items, err = scanOrderItems(rows)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (q *queries) UpdateOrder(ctx context.Context, order *models.Order) error {
	res, err := q.conn.ExecContext(ctx, updateOrderSQL, order.Status, order.TotalPrice, order.ID)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.OrderNotFound(order.ID)
	}
	return nil
}

func (q *queries) DeleteOrder(ctx context.Context, id int64) (bool, error) {
	res, err := q.conn.ExecContext(ctx, deleteOrderSQL, id)
	if err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}
	return n > 0, nil
}

func (q *queries) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	where := store.OrderWhere(store.SQLite, filter)

	var total int
	if err := q.conn.QueryRowContext(ctx, countOrdersSQL+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	page, args := where.Page(filter.Page)
	rows, err := q.conn.QueryContext(ctx, selectOrdersSQL+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		order.Items = []models.OrderItem{}
		orders = append(orders, *order)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, total, nil
	}

	// SQLite has no array parameters; expand one placeholder per order
	placeholders := make([]string, len(orders))
	ids := make([]any, len(orders))
	for i, order := range orders {
		placeholders[i] = "?"
		ids[i] = order.ID
	}
	itemRows, err := q.conn.QueryContext(ctx,
		`SELECT id, order_id, menu_item_id, quantity, price FROM order_items
		WHERE order_id IN (`+strings.Join(placeholders, ", ")+`) ORDER BY order_id, id`,
		ids...)
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
	res, err := q.conn.ExecContext(ctx, insertOrderItemSQL,
		item.OrderID, item.MenuItemID, item.Quantity, item.Price)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	item.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (q *queries) DeleteOrderItems(ctx context.Context, orderID int64) error {
	if _, err := q.conn.ExecContext(ctx, deleteOrderItemsSQL, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMenuItem(row scanner) (*models.MenuItem, error) {
	var item models.MenuItem
	var category, description sql.NullString
	if err := row.Scan(&item.ID, &item.Name, &item.Price, &category, &description); err != nil {
		return nil, err
	}
	if category.Valid {
		item.Category = &category.String
	}
	if description.Valid {
		item.Description = &description.String
	}
	return &item, nil
}

func scanOrder(row scanner) (*models.Order, error) {
	var order models.Order
	var createdAt string
	if err := row.Scan(&order.ID, &order.Status, &order.TotalPrice, &createdAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	order.CreatedAt = t
	return &order, nil
}

func scanOrderItems(rows *sql.Rows) ([]models.OrderItem, error) {
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
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		strings.Contains(se.Error(), "UNIQUE constraint failed")
}
