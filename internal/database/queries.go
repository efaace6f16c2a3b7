package database

// Cart queries. A cart is one row per user: lines as jsonb, a version column
// for optimistic concurrency.
const (
	GetCartSQL = `
		SELECT items, version, updated_at
		FROM carts WHERE user_id = $1`

	InsertCartSQL = `
		INSERT INTO carts (user_id, items, version, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (user_id) DO NOTHING`

	UpdateCartSQL = `
		UPDATE carts SET
			items = $2,
			version = version + 1,
			updated_at = NOW()
		WHERE user_id = $1 AND version = $3`

	DeleteCartSQL = `
		DELETE FROM carts WHERE user_id = $1 AND version = $2`
)

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (id, user_id, total, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`

	InsertOrderLineSQL = `
		INSERT INTO order_lines (order_id, position, item_id, name, quantity, unit_price, subtotal, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	InsertOrderStatusLogSQL = `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at, notes)
		VALUES ($1, $2, $3, $4, $5)`

	UpdateOrderStatusSQL = `
		UPDATE orders SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4`

	GetOrderSQL = `
		SELECT id, user_id, total, status, notes, created_at, updated_at
		FROM orders WHERE id = $1`

	GetOrderLinesSQL = `
		SELECT item_id, name, quantity, unit_price, subtotal, note
		FROM order_lines WHERE order_id = $1
		ORDER BY position ASC`

	GetOrderStatusHistorySQL = `
		SELECT status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC`

	ListOrdersByUserSQL = `
		SELECT id, user_id, total, status, notes, created_at, updated_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	ListOrdersByStatusSQL = `
		SELECT id, user_id, total, status, notes, created_at, updated_at
		FROM orders WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
)

// Catalog queries
const (
	GetMenuItemSQL = `
		SELECT id, name, description, price, category_id, available, image_url, updated_at
		FROM menu_items WHERE id = $1`
)
