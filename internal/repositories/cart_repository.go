package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veatashop/storefront/internal/models"
	"github.com/veatashop/storefront/internal/utils"
	"github.com/google/uuid"
)

type CartRepository interface {
	GetItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	GetItemQuantity(ctx context.Context, userID, productID uuid.UUID) (int, error)
	UpsertItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

// GetItems returns the joined snapshot in insertion order, oldest line
// first, so the most recently added line renders last. product_id breaks
// ties between lines added within the same timestamp tick.
func (r *cartRepository) GetItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT c.product_id, p.name, c.quantity, p.price, p.stock_quantity, c.created_at
		FROM cart_items c
		JOIN products p ON c.product_id = p.id
		WHERE c.user_id = $1
		ORDER BY c.created_at ASC, c.product_id
	`

	rows, err := r.DB.QueryContext(dbCtx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying cart items: %w", err)
	}

	defer rows.Close()

	var items []models.CartItem

	for rows.Next() {

		var item models.CartItem

		err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.Stock, &item.AddedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning cart item: %w", err)
		}

		item.Subtotal = float64(item.Quantity) * item.UnitPrice

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// GetItemQuantity returns 0 when no line exists for the pair.
func (r *cartRepository) GetItemQuantity(ctx context.Context, userID, productID uuid.UUID) (int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var quantity int

	err := r.DB.QueryRowContext(dbCtx,
		`SELECT quantity FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID).Scan(&quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("querying cart line: %w", err)
	}

	return quantity, nil
}

// UpsertItem merges quantities when the line already exists.
func (r *cartRepository) UpsertItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
	`

	if _, err := r.DB.ExecContext(dbCtx, query, userID, productID, quantity); err != nil {
		return fmt.Errorf("upserting cart line: %w", err)
	}

	return nil
}

func (r *cartRepository) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE cart_items
		SET quantity = $1, updated_at = NOW()
		WHERE user_id = $2 AND product_id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, quantity, userID, productID)
	if err != nil {
		return fmt.Errorf("updating cart line: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating cart line rows affected: %w", err)
	}

	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// RemoveItem is idempotent: deleting a line that never existed is a no-op.
func (r *cartRepository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if _, err := r.DB.ExecContext(dbCtx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID); err != nil {
		return fmt.Errorf("removing cart line: %w", err)
	}

	return nil
}

func (r *cartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if _, err := r.DB.ExecContext(dbCtx,
		`DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}

	return nil
}
