package service_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/veatashop/storefront/internal/cache"
	cachemocks "github.com/veatashop/storefront/internal/cache/mocks"
	appErrors "github.com/veatashop/storefront/internal/errors"
	"github.com/veatashop/storefront/internal/models"
	"github.com/veatashop/storefront/internal/repositories/mocks"
	service "github.com/veatashop/storefront/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupProductServiceTest(t *testing.T) (*mocks.ProductRepository, *cachemocks.Cache, service.ProductService) {
	t.Helper()

	productRepo := new(mocks.ProductRepository)
	productCache := new(cachemocks.Cache)
	productService := service.NewProductService(productRepo, productCache, 5*time.Minute)

	return productRepo, productCache, productService
}

func TestCreateProduct(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - Markup Stripped From Name And Description", func(t *testing.T) {
		// Arrange
		productRepo, _, productService := setupProductServiceTest(t)

		productRepo.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
			return p.Name == "Keyboard" &&
				p.Description == "Tenkeyless" &&
				p.Status == models.ProductStatusActive
		})).Return(nil).Once()

		// Act
		product, err := productService.CreateProduct(ctx, &models.CreateProductRequest{
			CategoryID:    1,
			Name:          "<b>Keyboard</b>",
			Description:   "<em>Tenkeyless</em>",
			Price:         89.99,
			StockQuantity: 25,
			SKU:           "KB-TKL-001",
		})

		// Assert
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, product.ID)
		productRepo.AssertExpectations(t)
	})
}

func TestServiceGetProductByID(t *testing.T) {
	ctx := t.Context()
	productID := uuid.New()
	key := cache.Key(cache.ProductKeyPrefix, productID.String())

	t.Run("Cache Hit Skips The Database", func(t *testing.T) {
		// Arrange
		productRepo, productCache, productService := setupProductServiceTest(t)

		productCache.On("Get", mock.Anything, key, mock.Anything).
			Run(func(args mock.Arguments) {
				cached := args.Get(2).(*models.Product)
				cached.ID = productID
				cached.Name = "Keyboard"
			}).
			Return(true, nil).Once()

		// Act
		product, err := productService.GetProductByID(ctx, productID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Keyboard", product.Name)
		productRepo.AssertNotCalled(t, "GetProductByID")
	})

	t.Run("Cache Miss Falls Through And Backfills", func(t *testing.T) {
		// Arrange
		productRepo, productCache, productService := setupProductServiceTest(t)

		stored := &models.Product{ID: productID, Name: "Keyboard", Status: models.ProductStatusActive}

		productCache.On("Get", mock.Anything, key, mock.Anything).Return(false, nil).Once()
		productRepo.On("GetProductByID", mock.Anything, productID).Return(stored, nil).Once()
		productCache.On("Set", mock.Anything, key, stored, 5*time.Minute).Return(nil).Once()

		// Act
		product, err := productService.GetProductByID(ctx, productID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, productID, product.ID)
		productCache.AssertExpectations(t)
	})

	t.Run("Cache Failure Degrades To The Database", func(t *testing.T) {
		// Arrange
		productRepo, productCache, productService := setupProductServiceTest(t)

		stored := &models.Product{ID: productID, Name: "Keyboard"}

		productCache.On("Get", mock.Anything, key, mock.Anything).
			Return(false, assert.AnError).Once()
		productRepo.On("GetProductByID", mock.Anything, productID).Return(stored, nil).Once()
		productCache.On("Set", mock.Anything, key, stored, 5*time.Minute).Return(nil).Once()

		// Act
		product, err := productService.GetProductByID(ctx, productID)

		// Assert
		require.NoError(t, err, "A broken cache must not break reads")
		assert.Equal(t, productID, product.ID)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		productRepo, productCache, productService := setupProductServiceTest(t)

		productCache.On("Get", mock.Anything, key, mock.Anything).Return(false, nil).Once()
		productRepo.On("GetProductByID", mock.Anything, productID).Return(nil, sql.ErrNoRows).Once()

		// Act
		product, err := productService.GetProductByID(ctx, productID)

		// Assert
		require.Nil(t, product)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
		productCache.AssertNotCalled(t, "Set")
	})
}

func TestUpdateProduct(t *testing.T) {
	ctx := t.Context()
	productID := uuid.New()
	key := cache.Key(cache.ProductKeyPrefix, productID.String())

	t.Run("Success - Partial Update Invalidates The Cache", func(t *testing.T) {
		// Arrange
		productRepo, productCache, productService := setupProductServiceTest(t)

		stored := &models.Product{ID: productID, Name: "Keyboard", Price: 89.99, StockQuantity: 25}
		newPrice := 79.99

		productRepo.On("GetProductByID", mock.Anything, productID).Return(stored, nil).Once()
		productRepo.On("UpdateProduct", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
			return p.Price == newPrice && p.Name == "Keyboard"
		})).Return(nil).Once()
		productCache.On("Delete", mock.Anything, key).Return(nil).Once()

		// Act
		product, err := productService.UpdateProduct(ctx, productID, &models.UpdateProductRequest{Price: &newPrice})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, newPrice, product.Price)
		assert.Equal(t, 25, product.StockQuantity, "Untouched fields keep their value")
		productCache.AssertExpectations(t)
	})
}

func TestDeleteProduct(t *testing.T) {
	ctx := t.Context()
	productID := uuid.New()
	key := cache.Key(cache.ProductKeyPrefix, productID.String())

	t.Run("Success - Discontinues Instead Of Removing", func(t *testing.T) {
		// Arrange
		productRepo, productCache, productService := setupProductServiceTest(t)

		stored := &models.Product{ID: productID, Name: "Keyboard", Status: models.ProductStatusActive}

		productRepo.On("GetProductByID", mock.Anything, productID).Return(stored, nil).Once()
		productRepo.On("UpdateProduct", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
			return p.Status == models.ProductStatusDiscontinued
		})).Return(nil).Once()
		productCache.On("Delete", mock.Anything, key).Return(nil).Once()

		// Act
		err := productService.DeleteProduct(ctx, productID)

		// Assert
		require.NoError(t, err)
		productRepo.AssertExpectations(t)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		productRepo, _, productService := setupProductServiceTest(t)

		productRepo.On("GetProductByID", mock.Anything, productID).Return(nil, sql.ErrNoRows).Once()

		// Act
		err := productService.DeleteProduct(ctx, productID)

		// Assert
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
		productRepo.AssertNotCalled(t, "UpdateProduct")
	})
}

func TestServiceListProducts(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - Pagination Defaults Applied", func(t *testing.T) {
		// Arrange
		productRepo, _, productService := setupProductServiceTest(t)

		productRepo.On("ListProducts", mock.Anything, models.ListProductsQuery{Page: 1, PageSize: 10}).
			Return([]*models.Product{{ID: uuid.New(), Name: "Mouse"}}, 1, nil).Once()

		// Act
		products, total, err := productService.ListProducts(ctx, models.ListProductsQuery{Page: 0, PageSize: 0})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, products, 1)
		productRepo.AssertExpectations(t)
	})

	t.Run("Success - Search Term Survives Normalization", func(t *testing.T) {
		// Arrange
		productRepo, _, productService := setupProductServiceTest(t)

		productRepo.On("ListProducts", mock.Anything, models.ListProductsQuery{Page: 1, PageSize: 10, Search: "keyboard"}).
			Return([]*models.Product{{ID: uuid.New(), Name: "Keyboard"}}, 1, nil).Once()

		// Act
		products, _, err := productService.ListProducts(ctx, models.ListProductsQuery{Search: "keyboard"})

		// Assert
		require.NoError(t, err)
		require.Len(t, products, 1)
		productRepo.AssertExpectations(t)
	})
}

func TestServiceListCategories(t *testing.T) {
	ctx := t.Context()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		productRepo, _, productService := setupProductServiceTest(t)

		productRepo.On("ListCategories", mock.Anything).
			Return([]models.Category{{ID: 1, Name: "Peripherals", Slug: "peripherals"}}, nil).Once()

		// Act
		categories, err := productService.ListCategories(ctx)

		// Assert
		require.NoError(t, err)
		require.Len(t, categories, 1)
		assert.Equal(t, "peripherals", categories[0].Slug)
		productRepo.AssertExpectations(t)
	})

	t.Run("Failure - Database Error", func(t *testing.T) {
		// Arrange
		productRepo, _, productService := setupProductServiceTest(t)

		productRepo.On("ListCategories", mock.Anything).
			Return(nil, assert.AnError).Once()

		// Act
		categories, err := productService.ListCategories(ctx)

		// Assert
		require.Nil(t, categories)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeDatabaseError, appErr.Code)
		productRepo.AssertExpectations(t)
	})
}
