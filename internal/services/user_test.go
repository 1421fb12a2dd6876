package service_test

import (
	"errors"
	"testing"
	"time"

	appErrors "github.com/veatashop/storefront/internal/errors"
	"github.com/veatashop/storefront/internal/models"
	"github.com/veatashop/storefront/internal/repositories/mocks"
	service "github.com/veatashop/storefront/internal/services"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testJWTKey = []byte("test-signing-key")

func setupUserServiceTest(t *testing.T) (*mocks.UserRepository, *mocks.RateLimitRepository, service.UserService) {
	t.Helper()

	userRepo := new(mocks.UserRepository)
	rateLimiter := new(mocks.RateLimitRepository)
	userService := service.NewUserService(userRepo, rateLimiter, testJWTKey, time.Hour)

	return userRepo, rateLimiter, userService
}

func TestRegister(t *testing.T) {
	ctx := t.Context()

	req := &models.RegisterRequest{
		Name:     "Aoife Byrne",
		Email:    "aoife@example.com",
		Password: "correct horse battery",
	}

	t.Run("Success - Password Stored Hashed, Role Defaults To Customer", func(t *testing.T) {
		// Arrange
		userRepo, _, userService := setupUserServiceTest(t)

		userRepo.On("GetUserByEmail", mock.Anything, req.Email).
			Return(nil, errors.New("not found")).Once()
		userRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Email == req.Email &&
				u.Role == models.RoleCustomer &&
				bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)) == nil
		})).Return(nil).Once()

		// Act
		user, err := userService.Register(ctx, req)

		// Assert
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.NotEqual(t, req.Password, user.Password)
		userRepo.AssertExpectations(t)
	})

	t.Run("Failure - Email Already Registered", func(t *testing.T) {
		// Arrange
		userRepo, _, userService := setupUserServiceTest(t)

		userRepo.On("GetUserByEmail", mock.Anything, req.Email).
			Return(&models.User{ID: uuid.New(), Email: req.Email}, nil).Once()

		// Act
		user, err := userService.Register(ctx, req)

		// Assert
		require.Nil(t, user)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeDuplicateEntry, appErr.Code)
		userRepo.AssertNotCalled(t, "CreateUser")
	})
}

func TestLogin(t *testing.T) {
	ctx := t.Context()

	password := "correct horse battery"
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)

	storedUser := &models.User{
		ID:       uuid.New(),
		Email:    "aoife@example.com",
		Password: string(hashed),
		Role:     models.RoleCustomer,
	}

	req := &models.LoginRequest{Email: storedUser.Email, Password: password}

	t.Run("Success - Returns A Signed Token", func(t *testing.T) {
		// Arrange
		userRepo, rateLimiter, userService := setupUserServiceTest(t)

		rateLimiter.On("CheckLoginRateLimit", mock.Anything, req.Email).
			Return(true, 4, 0, nil).Once()
		userRepo.On("GetUserByEmail", mock.Anything, req.Email).
			Return(storedUser, nil).Once()

		// Act
		resp, err := userService.Login(ctx, req)

		// Assert
		require.NoError(t, err)
		assert.True(t, resp.Success)
		require.NotEmpty(t, resp.Token)
		assert.Positive(t, resp.ExpiresIn)

		claims := &models.Claims{}
		_, err = jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (any, error) {
			return testJWTKey, nil
		})
		require.NoError(t, err)
		assert.Equal(t, storedUser.ID, claims.UserID)
		assert.Equal(t, models.RoleCustomer, claims.Role)
	})

	t.Run("Failure - Wrong Password Reports Remaining Tries", func(t *testing.T) {
		// Arrange
		userRepo, rateLimiter, userService := setupUserServiceTest(t)

		rateLimiter.On("CheckLoginRateLimit", mock.Anything, req.Email).
			Return(true, 2, 0, nil).Once()
		userRepo.On("GetUserByEmail", mock.Anything, req.Email).
			Return(storedUser, nil).Once()

		// Act
		resp, err := userService.Login(ctx, &models.LoginRequest{Email: req.Email, Password: "wrong"})

		// Assert
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Empty(t, resp.Token)
		assert.Equal(t, "Invalid email or password", resp.Message)
		assert.Equal(t, 2, resp.RemainingTries)
	})

	t.Run("Failure - Rate Limited Before Credentials Are Checked", func(t *testing.T) {
		// Arrange
		userRepo, rateLimiter, userService := setupUserServiceTest(t)

		rateLimiter.On("CheckLoginRateLimit", mock.Anything, req.Email).
			Return(false, 0, 42, nil).Once()

		// Act
		resp, err := userService.Login(ctx, req)

		// Assert
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, 42, resp.RetryAfter)
		userRepo.AssertNotCalled(t, "GetUserByEmail")
	})

	t.Run("Failure - Rate Limiter Unavailable", func(t *testing.T) {
		// Arrange
		_, rateLimiter, userService := setupUserServiceTest(t)

		rateLimiter.On("CheckLoginRateLimit", mock.Anything, req.Email).
			Return(false, 0, 0, errors.New("redis down")).Once()

		// Act
		resp, err := userService.Login(ctx, req)

		// Assert
		require.Nil(t, resp)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeThirdPartyError, appErr.Code)
	})

	t.Run("Failure - Unknown Email Looks Like A Bad Password", func(t *testing.T) {
		// Arrange
		userRepo, rateLimiter, userService := setupUserServiceTest(t)

		rateLimiter.On("CheckLoginRateLimit", mock.Anything, req.Email).
			Return(true, 3, 0, nil).Once()
		userRepo.On("GetUserByEmail", mock.Anything, req.Email).
			Return(nil, errors.New("not found")).Once()

		// Act
		resp, err := userService.Login(ctx, req)

		// Assert
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, "Invalid email or password", resp.Message, "Same message as a wrong password")
	})
}
