package database

// Migration bookkeeping
const (
	createMigrationsTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			migration_name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`

	selectAppliedMigrationsSQL = `SELECT migration_name FROM schema_migrations`

	insertMigrationSQL = `INSERT INTO schema_migrations (migration_name) VALUES ($1)`
)

// Menu queries
const (
	InsertMenuItemSQL = `
		INSERT INTO menu_items (name, price, category, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	GetMenuItemSQL = `
		SELECT id, name, price, category, description
		FROM menu_items WHERE id = $1`

	MenuItemNameTakenSQL = `
		SELECT EXISTS(SELECT 1 FROM menu_items WHERE name = $1 AND id <> $2)`

	UpdateMenuItemSQL = `
		UPDATE menu_items SET name = $1, price = $2, category = $3, description = $4
		WHERE id = $5`

	DeleteMenuItemSQL = `DELETE FROM menu_items WHERE id = $1`

	selectMenuItemsSQL = `SELECT id, name, price, category, description FROM menu_items`

	countMenuItemsSQL = `SELECT COUNT(*) FROM menu_items`
)

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (status, total_price, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`

	GetOrderSQL = `
		SELECT id, status, total_price, created_at
		FROM orders WHERE id = $1`

	UpdateOrderSQL = `
		UPDATE orders SET status = $1, total_price = $2
		WHERE id = $3`

	DeleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	selectOrdersSQL = `SELECT id, status, total_price, created_at FROM orders`

	countOrdersSQL = `SELECT COUNT(*) FROM orders`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, menu_item_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	GetOrderItemsSQL = `
		SELECT id, order_id, menu_item_id, quantity, price
		FROM order_items WHERE order_id = $1
		ORDER BY id`

	GetOrderItemsForOrdersSQL = `
		SELECT id, order_id, menu_item_id, quantity, price
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY order_id, id`

	DeleteOrderItemsSQL = `DELETE FROM order_items WHERE order_id = $1`
)
