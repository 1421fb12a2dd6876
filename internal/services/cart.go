package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	appErrors "github.com/veatashop/storefront/internal/errors"
	"github.com/veatashop/storefront/internal/models"
	repository "github.com/veatashop/storefront/internal/repositories"
	"github.com/google/uuid"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateQuantityRequest) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
	ValidateStock(ctx context.Context, userID uuid.UUID) (*models.ValidateCartResponse, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

// GetCart returns the priced snapshot. Every user has a cart; a user with
// no lines gets an empty one, never a not-found.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	items, err := s.cartRepo.GetItems(ctx, userID)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	return s.buildCart(userID, items), nil
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error) {

	product, err := s.productRepo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if product.Status != models.ProductStatusActive {
		return nil, appErrors.BadRequestError("Product is not available for purchase")
	}

	// Adding merges with the existing line, so the stock check covers the
	// merged quantity, not just the increment.
	existing, err := s.cartRepo.GetItemQuantity(ctx, userID, req.ProductID)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch cart line").WithError(err)
	}

	if existing+req.Quantity > product.StockQuantity {
		return nil, appErrors.InsufficientStockError(
			fmt.Sprintf("Only %d units of %q available", product.StockQuantity, product.Name)).
			WithDetail(fmt.Sprintf("requested %d, in cart %d", req.Quantity, existing))
	}

	if err := s.cartRepo.UpsertItem(ctx, userID, req.ProductID, req.Quantity); err != nil {
		return nil, appErrors.DatabaseError("Failed to add item to cart").WithError(err)
	}

	return s.GetCart(ctx, userID)
}

// UpdateQuantity replaces the line's quantity outright. Merging is AddItem's
// job; removal is RemoveItem's.
func (s *cartService) UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateQuantityRequest) (*models.Cart, error) {

	if req.Quantity < 1 {
		return nil, appErrors.InvalidQuantityError("Quantity must be at least 1")
	}

	product, err := s.productRepo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if req.Quantity > product.StockQuantity {
		return nil, appErrors.InsufficientStockError(
			fmt.Sprintf("Only %d units of %q available", product.StockQuantity, product.Name))
	}

	if err := s.cartRepo.SetQuantity(ctx, userID, req.ProductID, req.Quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Item not found in the cart").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to update cart line").WithError(err)
	}

	return s.GetCart(ctx, userID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error) {

	if err := s.cartRepo.RemoveItem(ctx, userID, productID); err != nil {
		return nil, appErrors.DatabaseError("Failed to remove cart line").WithError(err)
	}

	return s.GetCart(ctx, userID)
}

func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {

	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return appErrors.DatabaseError("Failed to clear cart").WithError(err)
	}

	return nil
}

// ValidateStock is the advisory pre-checkout check. A valid result can go
// stale immediately; checkout revalidates inside its own transaction.
func (s *cartService) ValidateStock(ctx context.Context, userID uuid.UUID) (*models.ValidateCartResponse, error) {

	items, err := s.cartRepo.GetItems(ctx, userID)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	var violations []models.StockViolation

	for _, item := range items {
		if item.Quantity > item.Stock {
			violations = append(violations, models.StockViolation{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Requested:   item.Quantity,
				Available:   item.Stock,
			})
		}
	}

	return &models.ValidateCartResponse{Valid: len(violations) == 0, Violations: violations}, nil
}

func (s *cartService) buildCart(userID uuid.UUID, items []models.CartItem) *models.Cart {

	cart := &models.Cart{UserID: userID, Items: items}

	for _, item := range items {
		cart.Total += item.Subtotal
	}

	return cart
}
