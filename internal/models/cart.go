package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one cart line joined with the current product row. UnitPrice
// and Subtotal reflect the catalog price at read time; they are frozen onto
// order lines only at checkout.
type CartItem struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Subtotal    float64   `json:"subtotal"`
	Stock       int       `json:"stock"`
	AddedAt     time.Time `json:"added_at"`
}

// Cart is the per-user snapshot. Items keep insertion order, oldest first.
type Cart struct {
	UserID uuid.UUID  `json:"user_id"`
	Items  []CartItem `json:"items"`
	Total  float64    `json:"total"`
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// StockViolation reports one cart line whose quantity now exceeds the
// available stock. Non-fatal on its own; checkout re-checks and decides.
type StockViolation struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type UpdateQuantityRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type ValidateCartResponse struct {
	Valid      bool             `json:"valid"`
	Violations []StockViolation `json:"violations,omitempty"`
}
