package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/veatashop/storefront/internal/models"
	"github.com/veatashop/storefront/internal/utils"
	"github.com/google/uuid"
)

type OrderRepository interface {
	CreateFromCart(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	ListOrders(ctx context.Context, status models.OrderStatus, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error
	CancelOrder(ctx context.Context, order *models.Order) error
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

// CreateFromCart persists the order header and lines, decrements stock per
// line with the conditional guard, and clears the user's cart, all inside
// one transaction. Any failure unwinds everything: no partial orders, no
// partial decrements, no half-cleared cart ever becomes visible.
//
// A zero-row decrement means another checkout won the race since the cart
// was validated; it surfaces as *InsufficientStockError and rolls back.
func (r *orderRepository) CreateFromCart(ctx context.Context, order *models.Order) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	return execTx(dbCtx, r.DB, func(tx *sql.Tx) error {

		query := `
			INSERT INTO orders (id, user_id, status, total_amount, shipping_address, payment_method, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		`

		_, err := tx.ExecContext(dbCtx, query, order.ID, order.UserID, order.Status, order.TotalAmount, order.ShippingAddress, order.PaymentMethod)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		itemQuery := `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
		`

		for _, item := range order.Items {

			_, err := tx.ExecContext(dbCtx, itemQuery, item.ID, order.ID, item.ProductID, item.Quantity, item.UnitPrice)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}

			result, err := tx.ExecContext(dbCtx, decrementStockSQL, item.Quantity, item.ProductID)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}

			rows, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("decrement stock rows affected: %w", err)
			}

			if rows == 0 {
				return stockShortage(dbCtx, tx, item.ProductID, item.Quantity)
			}
		}

		// Clearing inside the transaction means a crash can never leave a
		// committed order next to a stale cart.
		if _, err := tx.ExecContext(dbCtx, `DELETE FROM cart_items WHERE user_id = $1`, order.UserID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		return nil
	})
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order := &models.Order{ID: id}

	query := `
		SELECT user_id, status, total_amount, shipping_address, payment_method, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(&order.UserID, &order.Status, &order.TotalAmount, &order.ShippingAddress, &order.PaymentMethod, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := r.orderItems(dbCtx, id)
	if err != nil {
		return nil, err
	}

	order.Items = items

	return order, nil
}

func (r *orderRepository) orderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {

	query := `
		SELECT oi.id, oi.product_id, p.name, oi.quantity, oi.unit_price, oi.created_at
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = $1
		ORDER BY oi.created_at ASC, oi.product_id
	`

	rows, err := r.DB.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}

	defer rows.Close()

	var items []models.OrderItem

	for rows.Next() {

		var item models.OrderItem

		err := rows.Scan(&item.ID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}

		item.OrderID = orderID

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * size

	query := `
		SELECT id, status, total_amount, shipping_address, payment_method, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.DB.QueryContext(dbCtx, query, userID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	defer rows.Close()

	var orders []models.Order

	for rows.Next() {

		order := models.Order{UserID: userID}

		err := rows.Scan(&order.ID, &order.Status, &order.TotalAmount, &order.ShippingAddress, &order.PaymentMethod, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range orders {

		items, err := r.orderItems(dbCtx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}

		orders[i].Items = items
	}

	return orders, total, nil
}

// ListOrders is the back-office view: every order, optionally filtered by
// status. Items are not loaded; the admin list only shows headers.
func (r *orderRepository) ListOrders(ctx context.Context, status models.OrderStatus, page, size int) ([]models.Order, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	err := r.DB.QueryRowContext(dbCtx,
		`SELECT COUNT(*) FROM orders WHERE ($1 = '' OR status = $1)`, string(status)).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * size

	query := `
		SELECT id, user_id, status, total_amount, shipping_address, payment_method, created_at, updated_at
		FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.DB.QueryContext(dbCtx, query, string(status), size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list all orders: %w", err)
	}

	defer rows.Close()

	var orders []models.Order

	for rows.Next() {

		var order models.Order

		err := rows.Scan(&order.ID, &order.UserID, &order.Status, &order.TotalAmount, &order.ShippingAddress, &order.PaymentMethod, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// UpdateOrderStatus flips from -> to with the same status guard CancelOrder
// uses, so the transition the caller validated is the one that commits. A
// concurrent cancel or ship in between leaves zero rows, surfaced as
// sql.ErrNoRows.
func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		to, time.Now(), id, from)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status rows affected: %w", err)
	}

	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// CancelOrder flips pending -> cancelled and restores every line's stock
// in one transaction. The status guard in the UPDATE means a racing
// cancel or ship wins exactly once; the loser sees zero rows and rolls
// back without touching stock.
func (r *orderRepository) CancelOrder(ctx context.Context, order *models.Order) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	return execTx(dbCtx, r.DB, func(tx *sql.Tx) error {

		result, err := tx.ExecContext(dbCtx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
			models.OrderStatusCancelled, order.ID, models.OrderStatusPending)
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("cancel order rows affected: %w", err)
		}

		if rows == 0 {
			return sql.ErrNoRows
		}

		for _, item := range order.Items {
			if _, err := tx.ExecContext(dbCtx, restoreStockSQL, item.Quantity, item.ProductID); err != nil {
				return fmt.Errorf("restore stock: %w", err)
			}
		}

		return nil
	})
}
