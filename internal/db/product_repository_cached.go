package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openmart/storefront/internal/cache"
	"github.com/openmart/storefront/internal/models"
)

// CachedProductRepository layers a Redis cache-aside read path over
// ProductRepository. Writes go straight to Postgres and invalidate the
// affected keys; order-driven stock changes are invalidated asynchronously
// by the order-events consumer.
type CachedProductRepository struct {
	repo   *ProductRepository
	cache  *cache.RedisCache
	logger *zap.Logger
}

func NewCachedProductRepository(repo *ProductRepository, cache *cache.RedisCache, logger *zap.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func productKey(id int) string {
	return fmt.Sprintf("product:%d", id)
}

func productListPattern() string {
	return "products:list:*"
}

func productListKey(page, limit int) string {
	return fmt.Sprintf("products:list:%d:%d", page, limit)
}

func (r *CachedProductRepository) List(ctx context.Context, page, limit int) (*models.ProductPage, error) {
	cacheKey := productListKey(page, limit)

	var cached models.ProductPage
	if err := r.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	result, err := r.repo.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, result); err != nil {
		r.logger.Warn("failed to cache product list", zap.Error(err))
	}

	return result, nil
}

func (r *CachedProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	cacheKey := productKey(id)

	var cached models.Product
	err := r.cache.Get(ctx, cacheKey, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		r.logger.Warn("product cache read failed", zap.Int("product_id", id), zap.Error(err))
	}

	p, err := r.repo.GetByID(ctx, id)
	if err != nil || p == nil {
		return p, err
	}

	if err := r.cache.Set(ctx, cacheKey, p); err != nil {
		r.logger.Warn("failed to cache product", zap.Int("product_id", id), zap.Error(err))
	}

	return p, nil
}

func (r *CachedProductRepository) ListBySeller(ctx context.Context, sellerID int) ([]models.Product, error) {
	// Seller views want current stock; read through.
	return r.repo.ListBySeller(ctx, sellerID)
}

func (r *CachedProductRepository) Create(ctx context.Context, sellerID int, req models.CreateProductRequest) (*models.Product, error) {
	product, err := r.repo.Create(ctx, sellerID, req)
	if err != nil {
		return nil, err
	}

	if err := r.cache.DeleteByPattern(ctx, productListPattern()); err != nil {
		r.logger.Warn("failed to invalidate product lists", zap.Error(err))
	}

	return product, nil
}

func (r *CachedProductRepository) Update(ctx context.Context, id, sellerID int, req models.UpdateProductRequest) (*models.Product, error) {
	product, err := r.repo.Update(ctx, id, sellerID, req)
	if err != nil {
		return nil, err
	}

	r.Invalidate(ctx, id)
	return product, nil
}

func (r *CachedProductRepository) Delete(ctx context.Context, id, sellerID int) error {
	if err := r.repo.Delete(ctx, id, sellerID); err != nil {
		return err
	}

	r.Invalidate(ctx, id)
	return nil
}

// Invalidate drops the cached entry for one product and every cached listing
// page. Cache errors are logged, never surfaced: a stale delete only means a
// short-lived stale read bounded by the TTL.
func (r *CachedProductRepository) Invalidate(ctx context.Context, id int) {
	if err := r.cache.Delete(ctx, productKey(id)); err != nil {
		r.logger.Warn("failed to invalidate product", zap.Int("product_id", id), zap.Error(err))
	}
	if err := r.cache.DeleteByPattern(ctx, productListPattern()); err != nil {
		r.logger.Warn("failed to invalidate product lists", zap.Error(err))
	}
}
