package handlers

import (
	"log/slog"
	"net/http"

	"github.com/veatashop/storefront/internal/api/middleware"
	"github.com/veatashop/storefront/internal/errors"
	"github.com/veatashop/storefront/internal/models"
	service "github.com/veatashop/storefront/internal/services"
	"github.com/veatashop/storefront/internal/utils"
	"github.com/veatashop/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService, validator: validator.New()}
}

// GetCart godoc
//	@Summary		Get the authenticated user's cart
//	@Description	Returns the cart snapshot with current prices, subtotals and total.
//	@Tags			Carts
//	@Produce		json
//	@Success		200	{object}	models.Cart				"Successfully retrieved cart"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/carts [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized cart access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		cart, err := h.cartService.GetCart(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("Failed to get cart", slog.String("userId", claims.UserID.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// AddItem godoc
//	@Summary		Add an item to the cart
//	@Description	Adds a product to the cart, merging quantities when the product is already present.
//	@Tags			Carts
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddItemRequest	true	"Product and quantity"
//	@Success		200		{object}	models.Cart				"Updated cart"
//	@Failure		400		{object}	response.ErrorResponse	"Validation error"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse	"Product not found"
//	@Failure		409		{object}	response.ErrorResponse	"Insufficient stock"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/carts/items [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized cart modification attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add item input")
			return
		}

		cart, err := h.cartService.AddItem(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to add cart item",
				slog.String("userId", claims.UserID.String()),
				slog.String("productId", req.ProductID.String()),
				slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Cart item added", slog.String("productId", req.ProductID.String()), slog.Int("quantity", req.Quantity))
		response.Success(w, http.StatusOK, cart)
	}
}

// UpdateQuantity godoc
//	@Summary		Update a cart line's quantity
//	@Description	Replaces the quantity of an existing cart line.
//	@Tags			Carts
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.UpdateQuantityRequest	true	"Product and new quantity"
//	@Success		200		{object}	models.Cart						"Updated cart"
//	@Failure		400		{object}	response.ErrorResponse			"Validation error"
//	@Failure		401		{object}	response.ErrorResponse			"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse			"Item not in cart"
//	@Failure		409		{object}	response.ErrorResponse			"Insufficient stock"
//	@Failure		500		{object}	response.ErrorResponse			"Internal server error"
//	@Security		BearerAuth
//	@Router			/carts/items [put]
func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized cart modification attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.UpdateQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid update quantity input")
			return
		}

		cart, err := h.cartService.UpdateQuantity(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to update cart line",
				slog.String("userId", claims.UserID.String()),
				slog.String("productId", req.ProductID.String()),
				slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// RemoveItem godoc
//	@Summary		Remove an item from the cart
//	@Description	Deletes one product line from the cart. Removing an absent line is a no-op.
//	@Tags			Carts
//	@Produce		json
//	@Param			productId	path		string					true	"Product ID (UUID)"	Format(uuid)
//	@Success		200			{object}	models.Cart				"Updated cart"
//	@Failure		400			{object}	response.ErrorResponse	"Invalid product ID format"
//	@Failure		401			{object}	response.ErrorResponse	"Authentication required"
//	@Failure		500			{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/carts/items/{productId} [delete]
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized cart modification attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		productID, err := utils.ParseID(r, "productId")
		if err != nil {
			logger.Warn("Invalid product id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		cart, err := h.cartService.RemoveItem(r.Context(), claims.UserID, productID)
		if err != nil {
			logger.Error("Failed to remove cart item",
				slog.String("userId", claims.UserID.String()),
				slog.String("productId", productID.String()),
				slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// ClearCart godoc
//	@Summary		Clear the cart
//	@Description	Removes every line from the authenticated user's cart.
//	@Tags			Carts
//	@Produce		json
//	@Success		204	"Cart cleared"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/carts [delete]
func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized cart modification attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		if err := h.cartService.ClearCart(r.Context(), claims.UserID); err != nil {
			logger.Error("Failed to clear cart", slog.String("userId", claims.UserID.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Cart cleared", slog.String("userId", claims.UserID.String()))
		w.WriteHeader(http.StatusNoContent)
	}
}

// ValidateCart godoc
//	@Summary		Validate cart stock
//	@Description	Checks every cart line against current stock and reports violations. Advisory only; checkout re-checks atomically.
//	@Tags			Carts
//	@Produce		json
//	@Success		200	{object}	models.ValidateCartResponse	"Validation result"
//	@Failure		401	{object}	response.ErrorResponse		"Authentication required"
//	@Failure		500	{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/carts/validate [get]
func (h *CartHandler) ValidateCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized cart validation attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		result, err := h.cartService.ValidateStock(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("Failed to validate cart", slog.String("userId", claims.UserID.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, result)
	}
}
