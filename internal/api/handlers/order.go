package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/veatashop/storefront/internal/api/middleware"
	"github.com/veatashop/storefront/internal/errors"
	"github.com/veatashop/storefront/internal/models"
	service "github.com/veatashop/storefront/internal/services"
	"github.com/veatashop/storefront/internal/utils"
	"github.com/veatashop/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type OrderHandler struct {
	orderService service.OrderService
	validator    *validator.Validate
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService, validator: validator.New()}
}

// PlaceOrder godoc
//	@Summary		Place an order from the cart
//	@Description	Converts the authenticated user's cart into an order. Stock is decremented and the cart cleared atomically; on any failure nothing changes.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			order	body		models.PlaceOrderRequest	true	"Shipping address and payment method"
//	@Success		201		{object}	models.Order				"Successfully placed order"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error or empty cart"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		409		{object}	response.ErrorResponse		"Insufficient stock"
//	@Failure		500		{object}	response.ErrorResponse		"Order transaction failed, safe to retry"
//	@Security		BearerAuth
//	@Router			/orders [post]
func (h *OrderHandler) PlaceOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized order placement attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		var req models.PlaceOrderRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid place order input")
			return
		}

		order, err := h.orderService.PlaceOrder(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to place order", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order placed successfully",
			slog.String("orderId", order.ID.String()),
			slog.Float64("total", order.TotalAmount))
		response.Success(w, http.StatusCreated, order)
	}
}

// GetOrder godoc
//	@Summary		Get an order by ID
//	@Description	Retrieves one order. Customers can only read their own orders; admins can read any.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order			"Successfully retrieved order"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID format"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403	{object}	response.ErrorResponse	"Forbidden - not the order's owner"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id} [get]
func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized order access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		order, err := h.orderService.GetOrderByID(r.Context(), id)
		if err != nil {
			logger.Error("Failed to get order", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		if order.UserID != claims.UserID && !claims.IsAdmin() {
			logger.Warn("Attempted to access another user's order",
				slog.String("requesterId", claims.UserID.String()),
				slog.String("ownerId", order.UserID.String()))
			response.Error(w, errors.ForbiddenError("You don't have permission to access this order"))
			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

// ListOrders godoc
//	@Summary		List the user's orders with pagination
//	@Description	Retrieves a paginated list of orders placed by the authenticated user, newest first.
//	@Tags			Orders
//	@Produce		json
//	@Param			page		query		int												false	"Page number (default: 1)"							minimum(1)
//	@Param			pageSize	query		int												false	"Number of items per page (default: 10, max: 100)"	minimum(1)	maximum(100)
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Order}	"Successfully retrieved list of orders"
//	@Failure		401			{object}	response.ErrorResponse							"Authentication required"
//	@Failure		500			{object}	response.ErrorResponse							"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders [get]
func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized order list attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		page, pageSize := parsePagination(r)

		orders, total, err := h.orderService.ListOrdersByUser(r.Context(), claims.UserID, page, pageSize)
		if err != nil {
			logger.Error("Failed to list orders", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     orders,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

// ListAllOrders godoc
//	@Summary		List all orders (admin)
//	@Description	Back-office listing of every order, optionally filtered by status. Admin only.
//	@Tags			Orders
//	@Produce		json
//	@Param			status		query		string											false	"Status filter"	Enums(pending, processing, shipped, delivered, cancelled)
//	@Param			page		query		int												false	"Page number (default: 1)"	minimum(1)
//	@Param			pageSize	query		int												false	"Number of items per page (default: 10, max: 100)"	minimum(1)	maximum(100)
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Order}	"Successfully retrieved list of orders"
//	@Failure		401			{object}	response.ErrorResponse							"Authentication required"
//	@Failure		403			{object}	response.ErrorResponse							"Admin access required"
//	@Failure		500			{object}	response.ErrorResponse							"Internal server error"
//	@Security		BearerAuth
//	@Router			/admin/orders [get]
func (h *OrderHandler) ListAllOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		status := models.OrderStatus(r.URL.Query().Get("status"))
		page, pageSize := parsePagination(r)

		orders, total, err := h.orderService.ListOrders(r.Context(), status, page, pageSize)
		if err != nil {
			logger.Error("Failed to list all orders", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     orders,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

// UpdateOrderStatus godoc
//	@Summary		Update order status (admin)
//	@Description	Moves an order along its lifecycle. Moving to cancelled restores the order's stock. Admin only.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Order ID (UUID)"	Format(uuid)
//	@Param			status	body		models.UpdateOrderStatusRequest	true	"New Order Status"
//	@Success		200		{object}	models.Order					"Successfully updated order status"
//	@Failure		400		{object}	response.ErrorResponse			"Invalid order ID format or invalid status value"
//	@Failure		401		{object}	response.ErrorResponse			"Authentication required"
//	@Failure		403		{object}	response.ErrorResponse			"Admin access required"
//	@Failure		404		{object}	response.ErrorResponse			"Order not found"
//	@Failure		409		{object}	response.ErrorResponse			"Invalid status transition"
//	@Failure		500		{object}	response.ErrorResponse			"Internal server error"
//	@Security		BearerAuth
//	@Router			/admin/orders/{id}/status [patch]
func (h *OrderHandler) UpdateOrderStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		var req models.UpdateOrderStatusRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid update order status input")
			return
		}

		order, err := h.orderService.UpdateOrderStatus(r.Context(), id, req.Status)
		if err != nil {
			logger.Error("Failed to update order status",
				slog.String("orderId", id.String()),
				slog.String("newStatus", string(req.Status)),
				slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order status updated",
			slog.String("orderId", id.String()),
			slog.String("status", string(order.Status)))
		response.Success(w, http.StatusOK, order)
	}
}

// CancelOrder godoc
//	@Summary		Cancel a pending order
//	@Description	Cancels a pending order and restores its stock. Customers can cancel their own orders; admins any.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order			"Successfully cancelled order"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID format"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403	{object}	response.ErrorResponse	"Forbidden - not the order's owner"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Failure		409	{object}	response.ErrorResponse	"Order is no longer pending"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id}/cancel [patch]
func (h *OrderHandler) CancelOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized order cancellation attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		existing, err := h.orderService.GetOrderByID(r.Context(), id)
		if err != nil {
			logger.Error("Failed to get order", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		if existing.UserID != claims.UserID && !claims.IsAdmin() {
			logger.Warn("Attempted to cancel another user's order",
				slog.String("requesterId", claims.UserID.String()),
				slog.String("ownerId", existing.UserID.String()))
			response.Error(w, errors.ForbiddenError("You don't have permission to cancel this order"))
			return
		}

		order, err := h.orderService.CancelOrder(r.Context(), id)
		if err != nil {
			logger.Error("Failed to cancel order", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order cancelled", slog.String("orderId", id.String()))
		response.Success(w, http.StatusOK, order)
	}
}

func parsePagination(r *http.Request) (int, int) {

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	return page, pageSize
}
