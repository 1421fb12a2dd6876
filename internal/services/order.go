package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	appErrors "github.com/veatashop/storefront/internal/errors"
	"github.com/veatashop/storefront/internal/metrics"
	"github.com/veatashop/storefront/internal/models"
	repository "github.com/veatashop/storefront/internal/repositories"
	"github.com/google/uuid"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, req *models.PlaceOrderRequest) (*models.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	ListOrders(ctx context.Context, status models.OrderStatus, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	notifier  NotificationService
}

func NewOrderService(orderRepo repository.OrderRepository, cartRepo repository.CartRepository, notifier NotificationService) OrderService {
	return &orderService{orderRepo: orderRepo, cartRepo: cartRepo, notifier: notifier}
}

// PlaceOrder converts the user's cart into an order. Prices and quantities
// are frozen from the cart snapshot; the decrement inside the repository
// transaction is what actually reserves the stock. The up-front violation
// scan only exists to fail cheap and report every short line at once.
func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req *models.PlaceOrderRequest) (*models.Order, error) {

	items, err := s.cartRepo.GetItems(ctx, userID)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	if len(items) == 0 {
		return nil, appErrors.EmptyCartError()
	}

	var short []string

	for _, item := range items {
		if item.Quantity > item.Stock {
			short = append(short, fmt.Sprintf("%s (requested %d, available %d)", item.ProductName, item.Quantity, item.Stock))
		}
	}

	if len(short) > 0 {
		metrics.CheckoutStockConflict()
		return nil, appErrors.InsufficientStockError("Insufficient stock for: " + strings.Join(short, "; "))
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          models.OrderStatusPending,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	for _, item := range items {

		order.Items = append(order.Items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			CreatedAt:   order.CreatedAt,
		})

		order.TotalAmount += item.Subtotal
	}

	if err := s.orderRepo.CreateFromCart(ctx, order); err != nil {

		var stockErr *repository.InsufficientStockError
		if errors.As(err, &stockErr) {
			// Stock ran out between the scan above and the commit.
			metrics.CheckoutStockConflict()
			return nil, appErrors.InsufficientStockError(
				fmt.Sprintf("Insufficient stock for product %s: requested %d, available %d",
					stockErr.ProductID, stockErr.Requested, stockErr.Available)).WithError(err)
		}

		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("A cart item references a product that no longer exists").WithError(err)
		}

		return nil, appErrors.TransactionFailedError("Order could not be placed, no changes were made").WithError(err)
	}

	metrics.OrderPlaced()

	if s.notifier != nil {
		// Best effort. The order is committed; a failed email never unwinds it.
		go func() {
			sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()

			if err := s.notifier.SendOrderConfirmation(sendCtx, order); err != nil {
				slog.Error("Failed to send order confirmation", slog.String("orderId", order.ID.String()), slog.Any("error", err))
			}
		}()
	}

	return order, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Order not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	return order, nil
}

func (s *orderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {

	page, size = normalizePage(page, size)

	orders, total, err := s.orderRepo.ListOrdersByUser(ctx, userID, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

func (s *orderService) ListOrders(ctx context.Context, status models.OrderStatus, page, size int) ([]models.Order, int, error) {

	page, size = normalizePage(page, size)

	orders, total, err := s.orderRepo.ListOrders(ctx, status, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

// UpdateOrderStatus enforces the lifecycle. Cancellation goes through
// CancelOrder so the stock comes back with it.
func (s *orderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {

	if status == models.OrderStatusCancelled {
		return s.CancelOrder(ctx, id)
	}

	order, err := s.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, appErrors.InvalidTransitionError(
			fmt.Sprintf("Cannot move order from %q to %q", order.Status, status))
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, id, order.Status, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The guarded update saw a different status than the read above;
			// a concurrent transition won.
			return nil, appErrors.InvalidTransitionError(
				fmt.Sprintf("Order is no longer %q", order.Status)).WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to update order status").WithError(err)
	}

	order.Status = status

	return order, nil
}

// CancelOrder flips a pending order to cancelled and restores its stock.
// The repository's guarded update decides races: if a concurrent transition
// got there first, the zero-row result comes back as a conflict here.
func (s *orderService) CancelOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	order, err := s.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(models.OrderStatusCancelled) {
		return nil, appErrors.InvalidTransitionError(
			fmt.Sprintf("Cannot cancel an order in status %q", order.Status))
	}

	if err := s.orderRepo.CancelOrder(ctx, order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.InvalidTransitionError("Order is no longer pending").WithError(err)
		}

		return nil, appErrors.TransactionFailedError("Order could not be cancelled, no changes were made").WithError(err)
	}

	order.Status = models.OrderStatusCancelled

	return order, nil
}

func normalizePage(page, size int) (int, int) {

	if page < 1 {
		page = 1
	}

	if size < 1 || size > 100 {
		size = 10
	}

	return page, size
}
