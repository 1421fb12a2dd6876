package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/veatashop/storefront/internal/cache"
	appErrors "github.com/veatashop/storefront/internal/errors"
	"github.com/veatashop/storefront/internal/models"
	repository "github.com/veatashop/storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

type ProductService interface {
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, query models.ListProductsQuery) ([]*models.Product, int, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type productService struct {
	repo      repository.ProductRepository
	cache     cache.Cache
	cacheTTL  time.Duration
	sanitizer *bluemonday.Policy
}

func NewProductService(repo repository.ProductRepository, productCache cache.Cache, cacheTTL time.Duration) ProductService {
	return &productService{
		repo:      repo,
		cache:     productCache,
		cacheTTL:  cacheTTL,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *productService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {

	product := &models.Product{
		ID:            uuid.New(),
		CategoryID:    req.CategoryID,
		Name:          s.sanitizer.Sanitize(req.Name),
		Description:   s.sanitizer.Sanitize(req.Description),
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		SKU:           req.SKU,
		Status:        models.ProductStatusActive,
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, appErrors.DatabaseError("Failed to create product").WithError(err)
	}

	return product, nil
}

// GetProductByID reads through the cache. Stock in a cached row can lag the
// ledger by up to the TTL; nothing that matters for correctness reads stock
// from here.
func (s *productService) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	key := cache.Key(cache.ProductKeyPrefix, id.String())

	var cached models.Product

	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		slog.Warn("Product cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	if hit {
		return &cached, nil
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if err := s.cache.Set(ctx, key, product, s.cacheTTL); err != nil {
		slog.Warn("Product cache write failed", slog.String("key", key), slog.Any("error", err))
	}

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if req.CategoryID != nil {
		product.CategoryID = *req.CategoryID
	}

	if req.Name != nil {
		product.Name = s.sanitizer.Sanitize(*req.Name)
	}

	if req.Description != nil {
		product.Description = s.sanitizer.Sanitize(*req.Description)
	}

	if req.Price != nil {
		product.Price = *req.Price
	}

	if req.StockQuantity != nil {
		product.StockQuantity = *req.StockQuantity
	}

	if req.Status != nil {
		product.Status = *req.Status
	}

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, appErrors.DatabaseError("Failed to update product").WithError(err)
	}

	s.invalidate(ctx, id)

	return product, nil
}

// DeleteProduct discontinues rather than removes; order lines keep their
// reference to the row.
func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFoundError("Product not found").WithError(err)
		}

		return appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	product.Status = models.ProductStatusDiscontinued

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return appErrors.DatabaseError("Failed to discontinue product").WithError(err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *productService) ListProducts(ctx context.Context, query models.ListProductsQuery) ([]*models.Product, int, error) {

	query.Page, query.PageSize = normalizePage(query.Page, query.PageSize)

	products, total, err := s.repo.ListProducts(ctx, query)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch products").WithError(err)
	}

	return products, total, nil
}

func (s *productService) ListCategories(ctx context.Context) ([]models.Category, error) {

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch categories").WithError(err)
	}

	return categories, nil
}

func (s *productService) invalidate(ctx context.Context, id uuid.UUID) {

	key := cache.Key(cache.ProductKeyPrefix, id.String())

	if err := s.cache.Delete(ctx, key); err != nil {
		slog.Warn("Product cache invalidation failed", slog.String("key", key), slog.Any("error", err))
	}
}
