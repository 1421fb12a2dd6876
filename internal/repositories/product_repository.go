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

// InsufficientStockError reports a conditional decrement that found less
// stock than requested. Requested and Available let the caller tell the
// user how far short the line fell.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// decrementStockSQL only succeeds while enough stock remains; the WHERE
// guard is what makes concurrent checkouts safe, not any earlier read.
const decrementStockSQL = `
	UPDATE products
	SET stock_quantity = stock_quantity - $1, updated_at = NOW()
	WHERE id = $2 AND stock_quantity >= $1
`

const restoreStockSQL = `
	UPDATE products
	SET stock_quantity = stock_quantity + $1, updated_at = NOW()
	WHERE id = $2
`

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	ListProducts(ctx context.Context, query models.ListProductsQuery) ([]*models.Product, int, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CheckAvailable(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
	RestoreStock(ctx context.Context, productID uuid.UUID, quantity int) error
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `INSERT INTO products (id, category_id, name, description, price, stock_quantity, sku, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING created_at, updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query, product.ID, product.CategoryID, product.Name, product.Description, product.Price, product.StockQuantity, product.SKU, product.Status).Scan(&product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	product := &models.Product{}

	query := `
        SELECT p.id, p.category_id, p.name, p.description, p.price,
               p.stock_quantity, p.sku, p.status, p.created_at, p.updated_at,
               c.id, c.name, c.slug, c.description
        FROM products p
        LEFT JOIN categories c ON p.category_id = c.id
        WHERE p.id = $1`

	var category models.Category

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(&product.ID, &product.CategoryID, &product.Name, &product.Description, &product.Price, &product.StockQuantity, &product.SKU, &product.Status, &product.CreatedAt, &product.UpdatedAt, &category.ID, &category.Name, &category.Slug, &category.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	product.Category = &category

	return product, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE products SET category_id = $1, name = $2, description = $3, price = $4, stock_quantity = $5, status = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query, product.CategoryID, product.Name, product.Description, product.Price, product.StockQuantity, product.Status, product.ID).Scan(&product.UpdatedAt)
}

func (r *productRepository) ListProducts(ctx context.Context, q models.ListProductsQuery) ([]*models.Product, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	countQuery := `SELECT COUNT(*) FROM products
		WHERE status <> 'discontinued' AND ($1 = 0 OR category_id = $1)
		AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')`

	err := r.DB.QueryRowContext(dbCtx, countQuery, q.CategoryID, q.Search).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	// Offset
	offset := (q.Page - 1) * q.PageSize

	query := `
		SELECT p.id, p.category_id, p.name, p.description, p.price,
		p.stock_quantity, p.sku, p.status, p.created_at, p.updated_at,
		c.id, c.name, c.slug, c.description
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.status <> 'discontinued' AND ($1 = 0 OR p.category_id = $1)
		AND ($2 = '' OR p.name ILIKE '%' || $2 || '%' OR p.description ILIKE '%' || $2 || '%')
		ORDER BY p.created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.DB.QueryContext(dbCtx, query, q.CategoryID, q.Search, q.PageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	var products []*models.Product

	for rows.Next() {
		product := &models.Product{}
		category := &models.Category{}

		err := rows.Scan(&product.ID, &product.CategoryID, &product.Name, &product.Description, &product.Price, &product.StockQuantity, &product.SKU, &product.Status, &product.CreatedAt, &product.UpdatedAt, &category.ID, &category.Name, &category.Slug, &category.Description)
		if err != nil {
			return nil, 0, err
		}

		product.Category = category
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, name, slug, description, created_at, updated_at
		FROM categories
		ORDER BY name ASC
	`

	rows, err := r.DB.QueryContext(dbCtx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	defer rows.Close()

	var categories []models.Category

	for rows.Next() {

		var category models.Category

		err := rows.Scan(&category.ID, &category.Name, &category.Slug, &category.Description, &category.CreatedAt, &category.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}

		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

// CheckAvailable is a side-effect-free read. It can go stale the moment it
// returns; DecrementStock's own guard is the only correctness mechanism.
func (r *productRepository) CheckAvailable(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var stock int

	err := r.DB.QueryRowContext(dbCtx, `SELECT stock_quantity FROM products WHERE id = $1`, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, err
		}
		return false, fmt.Errorf("querying stock: %w", err)
	}

	return stock >= quantity, nil
}

func (r *productRepository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, decrementStockSQL, quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock rows affected: %w", err)
	}

	if rows == 0 {
		return stockShortage(dbCtx, r.DB, productID, quantity)
	}

	return nil
}

func (r *productRepository) RestoreStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, restoreStockSQL, quantity, productID)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("restore stock rows affected: %w", err)
	}

	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// stockShortage turns a zero-row conditional update into a typed error
// carrying what was actually left. A missing product surfaces as
// sql.ErrNoRows instead.
func stockShortage(ctx context.Context, q querier, productID uuid.UUID, requested int) error {

	var available int

	err := q.QueryRowContext(ctx, `SELECT stock_quantity FROM products WHERE id = $1`, productID).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("querying stock after failed decrement: %w", err)
	}

	return &InsufficientStockError{ProductID: productID, Requested: requested, Available: available}
}
