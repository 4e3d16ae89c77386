package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openmart/storefront/internal/models"
)

// OrderRepository owns every statement that touches orders, order_items and
// product stock. All inventory-affecting paths run inside a single
// transaction and take row locks on products, so concurrent checkouts for
// the same product serialize instead of overselling.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(database *PostgresDB) *OrderRepository {
	return &OrderRepository{db: database.Conn}
}

// Create places an order for userID: it locks each product row in request
// order, verifies stock, computes the total from the locked prices, inserts
// the order and its items with price_at_time snapshots, and decrements stock.
// Any failure rolls the whole transaction back; there is no partial order.
//
// Duplicate product IDs in items are processed as independent lines. The
// second line re-locks a row this transaction already holds, which Postgres
// permits, and sees the stock as left by the first line.
func (r *OrderRepository) Create(ctx context.Context, userID int, items []models.CreateOrderItemRequest) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order := &models.Order{
		UserID: userID,
		Status: models.StatusPending,
	}

	// Lock and verify each product, accumulating the total from prices read
	// under lock. Client-supplied prices are never trusted.
	prices := make([]float64, len(items))
	for i, item := range items {
		var price float64
		var stock int
		err := tx.QueryRowContext(ctx,
			`SELECT price, stock_quantity FROM products WHERE id = $1 FOR UPDATE`,
			item.ProductID,
		).Scan(&price, &stock)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, item.ProductID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock product %d: %w", item.ProductID, err)
		}

		if stock < item.Quantity {
			return nil, fmt.Errorf("%w: product %d has %d, requested %d",
				ErrInsufficientStock, item.ProductID, stock, item.Quantity)
		}

		prices[i] = price
		order.TotalAmount += price * float64(item.Quantity)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, total_amount, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		order.UserID, order.TotalAmount, order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for i, item := range items {
		orderItem := models.OrderItem{
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			PriceAtTime: prices[i],
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price_at_time)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			orderItem.OrderID, orderItem.ProductID, orderItem.Quantity, orderItem.PriceAtTime,
		).Scan(&orderItem.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order item: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE products SET stock_quantity = stock_quantity - $1 WHERE id = $2`,
			item.Quantity, item.ProductID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update stock for product %d: %w", item.ProductID, err)
		}

		order.Items = append(order.Items, orderItem)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return order, nil
}

// Delete cancels an order owned by userID, returning each item's quantity to
// product stock before removing the items and the order. The order row is
// locked up front so a concurrent cancel of the same order cannot credit
// stock twice. Returns the deleted order so callers can describe it in events.
func (r *OrderRepository) Delete(ctx context.Context, orderID, userID int) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var order models.Order
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_id, total_amount, status, created_at, updated_at
		 FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		orderID, userID,
	).Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, price_at_time
		 FROM order_items WHERE order_id = $1`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.PriceAtTime); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("failed to read order items: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx,
			`UPDATE products SET stock_quantity = stock_quantity + $1 WHERE id = $2`,
			item.Quantity, item.ProductID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to return stock for product %d: %w", item.ProductID, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return nil, fmt.Errorf("failed to delete order items: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
		return nil, fmt.Errorf("failed to delete order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &order, nil
}

// UpdateStatus sets the status of an order owned by userID. Missing and
// unowned orders are indistinguishable to the caller.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID, userID int, status string) (*models.Order, error) {
	var order models.Order
	err := r.db.QueryRowContext(ctx,
		`UPDATE orders SET status = $1, updated_at = now()
		 WHERE id = $2 AND user_id = $3
		 RETURNING id, user_id, total_amount, status, created_at, updated_at`,
		status, orderID, userID,
	).Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	return &order, nil
}

// GetByID returns a single order with its items, or nil when no order
// matches the (orderID, userID) pair.
func (r *OrderRepository) GetByID(ctx context.Context, orderID, userID int) (*models.Order, error) {
	var order models.Order
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, total_amount, status, created_at, updated_at
		 FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID,
	).Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

// GetByUser returns the user's orders, newest first, with items.
func (r *OrderRepository) GetByUser(ctx context.Context, userID int) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, total_amount, status, created_at, updated_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

// loadItems fetches the items of one order joined with product display
// fields. The join is LEFT so items survive product deletion.
func (r *OrderRepository) loadItems(ctx context.Context, orderID int) ([]models.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price_at_time,
		        COALESCE(p.title, ''), COALESCE(p.product_image, '')
		 FROM order_items oi
		 LEFT JOIN products p ON oi.product_id = p.id
		 WHERE oi.order_id = $1
		 ORDER BY oi.id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.PriceAtTime, &item.ProductTitle, &item.ProductImage)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order items: %w", err)
	}

	return items, nil
}
