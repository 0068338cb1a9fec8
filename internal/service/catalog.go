package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/redisclient"
	"storefront/internal/store"
	"storefront/internal/util"
)

const productCacheTTL = 2 * time.Minute

// CatalogService handles product and category management
type CatalogService struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store *store.Store, redis *redisclient.Client) *CatalogService {
	return &CatalogService{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// ListProducts returns products matching the filter
func (s *CatalogService) ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	return s.store.GetProducts(ctx, f)
}

// ListAllProducts returns the whole catalog
func (s *CatalogService) ListAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.store.GetAllProducts(ctx)
}

// GetProduct returns one product, served from the short-TTL cache when
// possible
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	key := productCacheKey(id)

	var cached models.Product
	if s.redis != nil {
		hit, err := s.redis.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("Product cache read failed", zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.redis.SetJSON(ctx, key, product, productCacheTTL); err != nil {
			s.logger.Warn("Product cache write failed", zap.Error(err))
		}
	}
	return product, nil
}

// CreateProduct validates and persists a new product
func (s *CatalogService) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("product price must not be negative")
	}
	if _, err := s.store.GetCategoryByID(ctx, p.CategoryID); err != nil {
		return fmt.Errorf("invalid category: %w", err)
	}
	return s.store.CreateProduct(ctx, p)
}

// UpdateProduct persists product edits and invalidates the cache
func (s *CatalogService) UpdateProduct(ctx context.Context, p *models.Product) error {
	if p.Price < 0 {
		return fmt.Errorf("product price must not be negative")
	}
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return err
	}
	s.invalidateProduct(ctx, p.ID)
	return nil
}

// DeleteProduct removes a product and invalidates the cache
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidateProduct(ctx, id)
	return nil
}

// ListCategories returns all categories
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.GetCategories(ctx)
}

// GetCategoryBySlug resolves a category from its URL slug
func (s *CatalogService) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.store.GetCategoryBySlug(ctx, slug)
}

// CreateCategory persists a new category, deriving the slug from the
// name when none was supplied
func (s *CatalogService) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.Name == "" {
		return fmt.Errorf("category name is required")
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	return s.store.CreateCategory(ctx, c)
}

func (s *CatalogService) invalidateProduct(ctx context.Context, id int64) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Invalidate(ctx, productCacheKey(id)); err != nil {
		s.logger.Warn("Product cache invalidation failed",
			zap.Int64("product_id", id), zap.Error(err))
	}
}

func productCacheKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

var slugCleanup = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a display name into a URL slug
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugCleanup.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
