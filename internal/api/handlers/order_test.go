package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/veatashop/storefront/internal/api/handlers"
	appErrors "github.com/veatashop/storefront/internal/errors"
	"github.com/veatashop/storefront/internal/models"
	"github.com/veatashop/storefront/internal/services/mocks"
	"github.com/veatashop/storefront/internal/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const placeOrderBody = `{"shipping_address":"42 Harbour Street, Dublin 2","payment_method":"card"}`

func TestOrderHandlerPlaceOrder(t *testing.T) {
	userID := uuid.New()

	t.Run("Success Returns 201", func(t *testing.T) {
		// Arrange
		orderService := new(mocks.OrderService)
		handler := handlers.NewOrderHandler(orderService)

		orderService.On("PlaceOrder", mock.Anything, userID, mock.MatchedBy(func(req *models.PlaceOrderRequest) bool {
			return req.PaymentMethod == models.PaymentMethodCard
		})).Return(&models.Order{ID: uuid.New(), UserID: userID, Status: models.OrderStatusPending, TotalAmount: 119.97}, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders", strings.NewReader(placeOrderBody), userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.PlaceOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
		orderService.AssertExpectations(t)
	})

	t.Run("Failure - Empty Cart Maps To 400", func(t *testing.T) {
		// Arrange
		orderService := new(mocks.OrderService)
		handler := handlers.NewOrderHandler(orderService)

		orderService.On("PlaceOrder", mock.Anything, userID, mock.Anything).
			Return(nil, appErrors.EmptyCartError()).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders", strings.NewReader(placeOrderBody), userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.PlaceOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeEmptyCart, resp.Error.Code)
	})

	t.Run("Failure - Short Shipping Address Fails Validation", func(t *testing.T) {
		// Arrange
		orderService := new(mocks.OrderService)
		handler := handlers.NewOrderHandler(orderService)

		body := `{"shipping_address":"short","payment_method":"card"}`
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders", strings.NewReader(body), userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.PlaceOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		orderService.AssertNotCalled(t, "PlaceOrder")
	})

	t.Run("Failure - Stock Conflict Maps To 409", func(t *testing.T) {
		// Arrange
		orderService := new(mocks.OrderService)
		handler := handlers.NewOrderHandler(orderService)

		orderService.On("PlaceOrder", mock.Anything, userID, mock.Anything).
			Return(nil, appErrors.InsufficientStockError("Insufficient stock for: Keyboard")).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders", strings.NewReader(placeOrderBody), userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.PlaceOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestOrderHandlerGetOrder(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()

	t.Run("Success - Owner Reads Their Order", func(t *testing.T) {
		// Arrange
		orderService := new(mocks.OrderService)
		handler := handlers.NewOrderHandler(orderService)

		orderService.On("GetOrderByID", mock.Anything, orderID).
			Return(&models.Order{ID: orderID, UserID: userID}, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil, userID,
			map[string]string{"id": orderID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.GetOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		orderService.AssertExpectations(t)
	})

	t.Run("Failure - Another Customer's Order Is Forbidden", func(t *testing.T) {
		// Arrange
		orderService := new(mocks.OrderService)
		handler := handlers.NewOrderHandler(orderService)

		orderService.On("GetOrderByID", mock.Anything, orderID).
			Return(&models.Order{ID: orderID, UserID: uuid.New()}, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil, userID,
			map[string]string{"id": orderID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.GetOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Success - Admin Reads Any Order", func(t *testing.T) {
		// Arrange
		orderService := new(mocks.OrderService)
		handler := handlers.NewOrderHandler(orderService)

		orderService.On("GetOrderByID", mock.Anything, orderID).
			Return(&models.Order{ID: orderID, UserID: uuid.New()}, nil).Once()

		req := testutils.CreateTestAdminRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil, userID,
			map[string]string{"id": orderID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.GetOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestOrderHandlerListOrders(t *testing.T) {
	userID := uuid.New()

	t.Run("Success - Pagination Passed Through", func(t *testing.T) {
		// Arrange
		orderService := new(mocks.OrderService)
		handler := handlers.NewOrderHandler(orderService)

		orderService.On("ListOrdersByUser", mock.Anything, userID, 2, 5).
			Return([]models.Order{{ID: uuid.New(), UserID: userID}}, 11, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders?page=2&pageSize=5", nil, userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.ListOrders().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		orderService.AssertExpectations(t)
	})

	t.Run("Success - Garbage Pagination Falls Back To Defaults", func(t *testing.T) {
		// Arrange
		orderService := new(mocks.OrderService)
		handler := handlers.NewOrderHandler(orderService)

		orderService.On("ListOrdersByUser", mock.Anything, userID, 1, 10).
			Return([]models.Order{}, 0, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders?page=-3&pageSize=9999", nil, userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.ListOrders().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		orderService.AssertExpectations(t)
	})
}

func TestOrderHandlerListAllOrders(t *testing.T) {
	adminID := uuid.New()

	t.Run("Success - Status Filter Applied", func(t *testing.T) {
		// Arrange
		orderService := new(mocks.OrderService)
		handler := handlers.NewOrderHandler(orderService)

		orderService.On("ListOrders", mock.Anything, models.OrderStatusPending, 1, 10).
			Return([]models.Order{{ID: uuid.New(), Status: models.OrderStatusPending}}, 1, nil).Once()

		req := testutils.CreateTestAdminRequest(http.MethodGet, "/api/v1/admin/orders?status=pending", nil, adminID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.ListAllOrders().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		orderService.AssertExpectations(t)
	})
}

func TestOrderHandlerUpdateOrderStatus(t *testing.T) {
	adminID := uuid.New()
	orderID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		orderService := new(mocks.OrderService)
		handler := handlers.NewOrderHandler(orderService)

		orderService.On("UpdateOrderStatus", mock.Anything, orderID, models.OrderStatusShipped).
			Return(&models.Order{ID: orderID, Status: models.OrderStatusShipped}, nil).Once()

		req := testutils.CreateTestAdminRequest(http.MethodPatch, "/api/v1/admin/orders/"+orderID.String()+"/status",
			strings.NewReader(`{"status":"shipped"}`), adminID, map[string]string{"id": orderID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.UpdateOrderStatus().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		orderService.AssertExpectations(t)
	})

	t.Run("Failure - Unknown Status Fails Validation", func(t *testing.T) {
		// Arrange
		orderService := new(mocks.OrderService)
		handler := handlers.NewOrderHandler(orderService)

		req := testutils.CreateTestAdminRequest(http.MethodPatch, "/api/v1/admin/orders/"+orderID.String()+"/status",
			strings.NewReader(`{"status":"teleported"}`), adminID, map[string]string{"id": orderID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.UpdateOrderStatus().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		orderService.AssertNotCalled(t, "UpdateOrderStatus")
	})

	t.Run("Failure - Invalid Transition Maps To 409", func(t *testing.T) {
		// Arrange
		orderService := new(mocks.OrderService)
		handler := handlers.NewOrderHandler(orderService)

		orderService.On("UpdateOrderStatus", mock.Anything, orderID, models.OrderStatusDelivered).
			Return(nil, appErrors.InvalidTransitionError("Cannot move order from \"pending\" to \"delivered\"")).Once()

		req := testutils.CreateTestAdminRequest(http.MethodPatch, "/api/v1/admin/orders/"+orderID.String()+"/status",
			strings.NewReader(`{"status":"delivered"}`), adminID, map[string]string{"id": orderID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.UpdateOrderStatus().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeInvalidTransition, resp.Error.Code)
	})
}

func TestOrderHandlerCancelOrder(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()

	t.Run("Success - Owner Cancels A Pending Order", func(t *testing.T) {
		// Arrange
		orderService := new(mocks.OrderService)
		handler := handlers.NewOrderHandler(orderService)

		orderService.On("GetOrderByID", mock.Anything, orderID).
			Return(&models.Order{ID: orderID, UserID: userID, Status: models.OrderStatusPending}, nil).Once()
		orderService.On("CancelOrder", mock.Anything, orderID).
			Return(&models.Order{ID: orderID, UserID: userID, Status: models.OrderStatusCancelled}, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/cancel", nil, userID,
			map[string]string{"id": orderID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.CancelOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		orderService.AssertExpectations(t)
	})

	t.Run("Failure - Cannot Cancel Someone Else's Order", func(t *testing.T) {
		// Arrange
		orderService := new(mocks.OrderService)
		handler := handlers.NewOrderHandler(orderService)

		orderService.On("GetOrderByID", mock.Anything, orderID).
			Return(&models.Order{ID: orderID, UserID: uuid.New(), Status: models.OrderStatusPending}, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/cancel", nil, userID,
			map[string]string{"id": orderID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.CancelOrder().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusForbidden, rec.Code)
		orderService.AssertNotCalled(t, "CancelOrder")
	})
}
