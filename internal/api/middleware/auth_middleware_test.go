package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/veatashop/storefront/internal/api/middleware"
	"github.com/veatashop/storefront/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var signingKey = []byte("test-signing-key")

func signToken(t *testing.T, claims *models.Claims, key []byte) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)

	return token
}

func customerClaims(userID uuid.UUID, expiry time.Duration) *models.Claims {
	return &models.Claims{
		UserID: userID,
		Email:  "test@example.com",
		Role:   models.RoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}
}

func TestAuthenticate(t *testing.T) {
	authMiddleware := middleware.NewAuthMiddleware(signingKey)
	userID := uuid.New()

	t.Run("Success - Claims Land In The Request Context", func(t *testing.T) {
		// Arrange
		var gotClaims *models.Claims

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotClaims, _ = r.Context().Value(middleware.UserContextKey).(*models.Claims)
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, customerClaims(userID, time.Hour), signingKey))
		rec := httptest.NewRecorder()

		// Act
		authMiddleware.Authenticate(next).ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotClaims)
		assert.Equal(t, userID, gotClaims.UserID)
	})

	t.Run("Failure - Missing Header", func(t *testing.T) {
		// Arrange
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		rec := httptest.NewRecorder()

		// Act
		authMiddleware.Authenticate(next).ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Failure - Wrong Scheme", func(t *testing.T) {
		// Arrange
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()

		// Act
		authMiddleware.Authenticate(next).ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Failure - Token Signed With A Different Key", func(t *testing.T) {
		// Arrange
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, customerClaims(userID, time.Hour), []byte("other-key")))
		rec := httptest.NewRecorder()

		// Act
		authMiddleware.Authenticate(next).ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Failure - Expired Token", func(t *testing.T) {
		// Arrange
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, customerClaims(userID, -time.Minute), signingKey))
		rec := httptest.NewRecorder()

		// Act
		authMiddleware.Authenticate(next).ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	authMiddleware := middleware.NewAuthMiddleware(signingKey)
	userID := uuid.New()

	withClaims := func(req *http.Request, role string) *http.Request {
		claims := &models.Claims{UserID: userID, Role: role}
		return req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, claims))
	}

	t.Run("Admin Passes Through", func(t *testing.T) {
		// Arrange
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		req := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/products", nil), models.RoleAdmin)
		rec := httptest.NewRecorder()

		// Act
		authMiddleware.RequireAdmin(next).ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Customer Is Forbidden", func(t *testing.T) {
		// Arrange
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		})

		req := withClaims(httptest.NewRequest(http.MethodPost, "/api/v1/products", nil), models.RoleCustomer)
		rec := httptest.NewRecorder()

		// Act
		authMiddleware.RequireAdmin(next).ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("No Claims Is Unauthorized", func(t *testing.T) {
		// Arrange
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", nil)
		rec := httptest.NewRecorder()

		// Act
		authMiddleware.RequireAdmin(next).ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
