package models

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Product status doubles as the soft-delete marker: discontinued products
// stay in the table because historical order lines reference them.
const (
	ProductStatusActive       = "active"
	ProductStatusInactive     = "inactive"
	ProductStatusDiscontinued = "discontinued"
)

type Product struct {
	ID            uuid.UUID `json:"id"`
	CategoryID    int64     `json:"category_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	SKU           string    `json:"sku"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Category      *Category `json:"category,omitempty"`
}

type CreateProductRequest struct {
	CategoryID    int64   `json:"category_id" validate:"required"`
	Name          string  `json:"name" validate:"required,min=3,max=200"`
	Description   string  `json:"description,omitempty"`
	Price         float64 `json:"price" validate:"gte=0"`
	StockQuantity int     `json:"stock_quantity" validate:"gte=0"`
	SKU           string  `json:"sku" validate:"required,min=3,max=50"`
}

type UpdateProductRequest struct {
	CategoryID    *int64   `json:"category_id,omitempty"`
	Name          *string  `json:"name,omitempty" validate:"omitempty,min=3,max=200"`
	Description   *string  `json:"description,omitempty"`
	Price         *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	StockQuantity *int     `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	Status        *string  `json:"status,omitempty" validate:"omitempty,oneof=active inactive discontinued"`
}

type ListProductsQuery struct {
	Page       int
	PageSize   int
	CategoryID int64
	Search     string
}
