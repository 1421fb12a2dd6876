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

func TestUserHandlerRegister(t *testing.T) {
	t.Run("Success Returns 201", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		userService.On("Register", mock.Anything, mock.MatchedBy(func(req *models.RegisterRequest) bool {
			return req.Email == "aoife@example.com"
		})).Return(&models.User{ID: uuid.New(), Email: "aoife@example.com"}, nil).Once()

		body := strings.NewReader(`{"name":"Aoife Byrne","email":"aoife@example.com","password":"correct horse battery"}`)
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/register", body, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.Register().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rec.Code)
		userService.AssertExpectations(t)
	})

	t.Run("Failure - Duplicate Email Maps To 409", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		userService.On("Register", mock.Anything, mock.Anything).
			Return(nil, appErrors.DuplicateEntryError("Email already registered")).Once()

		body := strings.NewReader(`{"name":"Aoife Byrne","email":"aoife@example.com","password":"correct horse battery"}`)
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/register", body, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.Register().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeDuplicateEntry, resp.Error.Code)
	})

	t.Run("Failure - Short Password Fails Validation", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		body := strings.NewReader(`{"name":"Aoife Byrne","email":"aoife@example.com","password":"short"}`)
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/register", body, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.Register().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		userService.AssertNotCalled(t, "Register")
	})
}

func TestUserHandlerLogin(t *testing.T) {
	const loginBody = `{"email":"aoife@example.com","password":"correct horse battery"}`

	t.Run("Success Returns Token", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		userService.On("Login", mock.Anything, mock.Anything).
			Return(&models.LoginResponse{Success: true, Token: "signed.jwt.token", ExpiresIn: 3600}, nil).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/login", strings.NewReader(loginBody), nil)
		rec := httptest.NewRecorder()

		// Act
		handler.Login().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
	})

	t.Run("Failure - Bad Credentials Map To 401", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		userService.On("Login", mock.Anything, mock.Anything).
			Return(&models.LoginResponse{Success: false, Message: "Invalid email or password", RemainingTries: 2}, nil).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/login", strings.NewReader(loginBody), nil)
		rec := httptest.NewRecorder()

		// Act
		handler.Login().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		resp := decodeResponse(t, rec)
		assert.False(t, resp.Success)
	})

	t.Run("Failure - Rate Limited Maps To 429", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		userService.On("Login", mock.Anything, mock.Anything).
			Return(&models.LoginResponse{Success: false, Message: "Too many login attempts. Please try again later.", RetryAfter: 42}, nil).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/login", strings.NewReader(loginBody), nil)
		rec := httptest.NewRecorder()

		// Act
		handler.Login().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestUserHandlerProfile(t *testing.T) {
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		userService.On("GetUserByID", mock.Anything, userID).
			Return(&models.User{ID: userID, Email: "test@example.com"}, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/users/profile", nil, userID, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.Profile().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		userService.AssertExpectations(t)
	})

	t.Run("Failure - No Claims In Context", func(t *testing.T) {
		// Arrange
		userService := new(mocks.UserService)
		handler := handlers.NewUserHandler(userService)

		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/users/profile", nil, nil)
		rec := httptest.NewRecorder()

		// Act
		handler.Profile().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		userService.AssertNotCalled(t, "GetUserByID")
	})
}
