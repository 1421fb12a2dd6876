package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/veatashop/storefront/internal/api/handlers"
	appErrors "github.com/veatashop/storefront/internal/errors"
	"github.com/veatashop/storefront/internal/models"
	"github.com/veatashop/storefront/internal/services/mocks"
	"github.com/veatashop/storefront/internal/testutils"
	"github.com/veatashop/storefront/internal/utils/response"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response.APIResponse {
	t.Helper()

	var resp response.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	return resp
}

func TestCartHandlerGetCart(t *testing.T) {
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		cartService := new(mocks.CartService)
		handler := handlers.NewCartHandler(cartService)

		cartService.On("GetCart", mock.Anything, userID).
			Return(&models.Cart{UserID: userID, Total: 119.97}, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/carts", nil, userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.GetCart().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
		cartService.AssertExpectations(t)
	})

	t.Run("Failure - No Claims In Context", func(t *testing.T) {
		// Arrange
		cartService := new(mocks.CartService)
		handler := handlers.NewCartHandler(cartService)

		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/carts", nil, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.GetCart().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		cartService.AssertNotCalled(t, "GetCart")
	})
}

func TestCartHandlerAddItem(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		cartService := new(mocks.CartService)
		handler := handlers.NewCartHandler(cartService)

		cartService.On("AddItem", mock.Anything, userID, mock.MatchedBy(func(req *models.AddItemRequest) bool {
			return req.ProductID == productID && req.Quantity == 2
		})).Return(&models.Cart{UserID: userID}, nil).Once()

		body := strings.NewReader(`{"product_id":"` + productID.String() + `","quantity":2}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/carts/items", body, userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.AddItem().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		cartService.AssertExpectations(t)
	})

	t.Run("Failure - Missing Quantity Fails Validation", func(t *testing.T) {
		// Arrange
		cartService := new(mocks.CartService)
		handler := handlers.NewCartHandler(cartService)

		body := strings.NewReader(`{"product_id":"` + productID.String() + `"}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/carts/items", body, userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.AddItem().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		cartService.AssertNotCalled(t, "AddItem")
	})

	t.Run("Failure - Insufficient Stock Maps To 409", func(t *testing.T) {
		// Arrange
		cartService := new(mocks.CartService)
		handler := handlers.NewCartHandler(cartService)

		cartService.On("AddItem", mock.Anything, userID, mock.Anything).
			Return(nil, appErrors.InsufficientStockError("Only 4 units of \"Keyboard\" available")).Once()

		body := strings.NewReader(`{"product_id":"` + productID.String() + `","quantity":10}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/carts/items", body, userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.AddItem().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeInsufficientStock, resp.Error.Code)
	})
}

func TestCartHandlerRemoveItem(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		cartService := new(mocks.CartService)
		handler := handlers.NewCartHandler(cartService)

		cartService.On("RemoveItem", mock.Anything, userID, productID).
			Return(&models.Cart{UserID: userID}, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodDelete, "/api/v1/carts/items/"+productID.String(), nil, userID,
			map[string]string{"productId": productID.String()})
		rec := httptest.NewRecorder()

		// Act
		handler.RemoveItem().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		cartService.AssertExpectations(t)
	})

	t.Run("Failure - Malformed Product ID", func(t *testing.T) {
		// Arrange
		cartService := new(mocks.CartService)
		handler := handlers.NewCartHandler(cartService)

		req := testutils.CreateTestRequestWithContext(http.MethodDelete, "/api/v1/carts/items/not-a-uuid", nil, userID,
			map[string]string{"productId": "not-a-uuid"})
		rec := httptest.NewRecorder()

		// Act
		handler.RemoveItem().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		cartService.AssertNotCalled(t, "RemoveItem")
	})
}

func TestCartHandlerClearCart(t *testing.T) {
	userID := uuid.New()

	t.Run("Success Returns 204", func(t *testing.T) {
		// Arrange
		cartService := new(mocks.CartService)
		handler := handlers.NewCartHandler(cartService)

		cartService.On("ClearCart", mock.Anything, userID).Return(nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodDelete, "/api/v1/carts", nil, userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.ClearCart().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
		cartService.AssertExpectations(t)
	})
}

func TestCartHandlerValidateCart(t *testing.T) {
	userID := uuid.New()

	t.Run("Success - Violations Reported With 200", func(t *testing.T) {
		// Arrange: an invalid cart is a valid response, not an HTTP error.
		cartService := new(mocks.CartService)
		handler := handlers.NewCartHandler(cartService)

		cartService.On("ValidateStock", mock.Anything, userID).
			Return(&models.ValidateCartResponse{
				Valid: false,
				Violations: []models.StockViolation{
					{ProductID: uuid.New(), ProductName: "Keyboard", Requested: 8, Available: 3},
				},
			}, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/carts/validate", nil, userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.ValidateCart().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
		cartService.AssertExpectations(t)
	})
}
