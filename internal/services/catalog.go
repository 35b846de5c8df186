package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/experina/storefront/internal/cache"
	"github.com/experina/storefront/internal/catalog"
	"github.com/experina/storefront/internal/db"
	"github.com/experina/storefront/internal/logging"
	"github.com/experina/storefront/internal/models"
)

const (
	homeFeaturedProducts   = 4
	homeFeaturedCategories = 3
)

type catalogReader interface {
	productReader
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListFeaturedProducts(ctx context.Context, limit int) ([]models.Product, error)
	ListProductsByCategory(ctx context.Context, categoryID int64) ([]models.Product, error)
	SearchProducts(ctx context.Context, terms []string) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListFeaturedCategories(ctx context.Context, limit int) ([]models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
}

// CatalogService serves the read side of the storefront. Category lists and
// product pages are cached for cacheTTL; a nil cache disables caching.
type CatalogService struct {
	store    catalogReader
	cache    cache.Provider
	cacheTTL time.Duration
	pricer   *catalog.Pricer
	logger   *slog.Logger
}

func NewCatalogService(store catalogReader, cacheProvider cache.Provider, cacheTTL time.Duration, pricer *catalog.Pricer, logger *slog.Logger) *CatalogService {
	if pricer == nil {
		pricer = catalog.NewPricer()
	}
	return &CatalogService{
		store:    store,
		cache:    cacheProvider,
		cacheTTL: cacheTTL,
		pricer:   pricer,
		logger:   logger,
	}
}

func (s *CatalogService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type HomePage struct {
	FeaturedProducts   []models.Product
	FeaturedCategories []models.Category
	Categories         []models.Category
}

type CategoryPage struct {
	Category   models.Category
	Products   []models.Product
	Categories []models.Category
}

// ProductPage is everything the product detail page and its add form need.
// Sellable is false for products without price tiers; the quantity bounds are
// zero in that case.
type ProductPage struct {
	Product        *models.Product
	Categories     []models.Category
	CustomerImages []models.CustomerImage
	CustomerColors []models.CustomerColor
	MinQuantity    int
	MaxQuantity    int
	Sellable       bool
}

type SearchPage struct {
	Query      string
	Products   []models.Product
	Categories []models.Category
}

func (s *CatalogService) Home(ctx context.Context) (*HomePage, error) {
	featured, err := s.store.ListFeaturedProducts(ctx, homeFeaturedProducts)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	featuredCategories, err := s.store.ListFeaturedCategories(ctx, homeFeaturedCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured categories: %w", err)
	}
	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return &HomePage{
		FeaturedProducts:   featured,
		FeaturedCategories: featuredCategories,
		Categories:         categories,
	}, nil
}

// Categories returns every category, served from cache when possible.
func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	key := cache.CatalogKey("categories", "all")

	var categories []models.Category
	if s.cacheGet(ctx, key, &categories) {
		return categories, nil
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	s.cacheSet(ctx, key, categories)
	return categories, nil
}

func (s *CatalogService) Category(ctx context.Context, slug string) (*CategoryPage, error) {
	category, err := s.store.GetCategoryBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, slug)
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	products, err := s.store.ListProductsByCategory(ctx, category.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list category products: %w", err)
	}
	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return &CategoryPage{
		Category:   *category,
		Products:   products,
		Categories: categories,
	}, nil
}

func (s *CatalogService) Product(ctx context.Context, slug string) (*ProductPage, error) {
	product, err := s.productBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	page := &ProductPage{Product: product}
	if page.Categories, err = s.Categories(ctx); err != nil {
		return nil, err
	}

	minimum, ok := s.pricer.MinimumOrderQuantity(product.Prices)
	if ok {
		maximum, _ := s.pricer.MaximumOrderQuantity(product.Prices)
		page.MinQuantity = minimum
		page.MaxQuantity = maximum
		page.Sellable = true
	}

	if product.AllowsCustomImage {
		if page.CustomerImages, err = s.store.ListCustomerImages(ctx); err != nil {
			return nil, fmt.Errorf("failed to list customer images: %w", err)
		}
	}
	if product.AllowsCustomColor {
		if page.CustomerColors, err = s.store.ListCustomerColors(ctx); err != nil {
			return nil, fmt.Errorf("failed to list customer colors: %w", err)
		}
	}
	return page, nil
}

// Search matches any whitespace-separated term against product, category,
// size and color names. An empty query yields no products.
func (s *CatalogService) Search(ctx context.Context, query string) (*SearchPage, error) {
	query = strings.TrimSpace(query)
	page := &SearchPage{Query: query}

	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	page.Categories = categories

	terms := strings.Fields(query)
	if len(terms) == 0 {
		return page, nil
	}
	products, err := s.store.SearchProducts(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	page.Products = products
	return page, nil
}

func (s *CatalogService) productBySlug(ctx context.Context, slug string) (*models.Product, error) {
	key := cache.CatalogKey("product", slug)

	var cached models.Product
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	product, err := s.store.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, slug)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	s.cacheSet(ctx, key, product)
	return product, nil
}

// InvalidateCache drops every cached catalog read, e.g. after a reseed.
func (s *CatalogService) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	removed, err := s.cache.DeletePrefix(ctx, cache.CatalogPrefix)
	if err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	s.loggerFromContext(ctx).Debug("catalog cache invalidated", "entries", removed)
	return nil
}

func (s *CatalogService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil || s.cacheTTL <= 0 {
		return false
	}
	err := cache.GetJSON(ctx, s.cache, key, dst)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrNotFound) {
		s.loggerFromContext(ctx).Warn("catalog cache read failed", "error", err, "key", key)
	}
	return false
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, key, value, s.cacheTTL); err != nil {
		s.loggerFromContext(ctx).Warn("catalog cache write failed", "error", err, "key", key)
	}
}
