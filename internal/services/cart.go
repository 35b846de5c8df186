package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/getsentry/sentry-go/attribute"
	"github.com/shopspring/decimal"

	"github.com/experina/storefront/internal/cart"
	"github.com/experina/storefront/internal/catalog"
	"github.com/experina/storefront/internal/db"
	"github.com/experina/storefront/internal/logging"
	"github.com/experina/storefront/internal/models"
	"github.com/experina/storefront/internal/observability"
	"github.com/experina/storefront/internal/session"
)

type productReader interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	ListCustomerImages(ctx context.Context) ([]models.CustomerImage, error)
	ListCustomerColors(ctx context.Context) ([]models.CustomerColor, error)
}

type CartService struct {
	products productReader
	pricer   *catalog.Pricer
	logger   *slog.Logger
}

func NewCartService(products productReader, pricer *catalog.Pricer, logger *slog.Logger) *CartService {
	if pricer == nil {
		pricer = catalog.NewPricer()
	}
	return &CartService{
		products: products,
		pricer:   pricer,
		logger:   logger,
	}
}

func (s *CartService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type AddToCartInput struct {
	ProductID int64
	Quantity  int
	Selection cart.Selection
}

// CartLine is a cart line joined with the live product. Product is nil when
// the product no longer exists in the catalog.
type CartLine struct {
	cart.LineItem
	Product *models.Product
}

func (l CartLine) Name() string {
	if l.Product != nil {
		return l.Product.Name
	}
	return l.ProductName
}

func (l CartLine) ImageURL() string {
	if l.Product != nil && l.Product.Image != "" {
		return l.Product.Image
	}
	return l.Image
}

type CartView struct {
	Lines []CartLine
	Count int
	Total decimal.Decimal
}

// Load decodes the session cart. An unreadable cart is logged and replaced by
// an empty one.
func (s *CartService) Load(ctx context.Context, sess *session.Session) *cart.Cart {
	if sess == nil {
		return cart.New()
	}
	c, err := cart.Decode(sess.Cart())
	if err != nil {
		s.loggerFromContext(ctx).Warn("discarding unreadable cart", "error", err, "session_id", sess.ID)
		return cart.New()
	}
	return c
}

func (s *CartService) save(sess *session.Session, c *cart.Cart) error {
	if sess == nil {
		return fmt.Errorf("session is required")
	}
	raw, err := cart.Encode(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	sess.SetCart(raw)
	return nil
}

// Add validates the add form against the product and stores the line.
func (s *CartService) Add(ctx context.Context, sess *session.Session, input AddToCartInput) (*cart.Cart, error) {
	product, err := s.product(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	selection, err := s.validateAdd(ctx, product, input)
	if err != nil {
		return nil, err
	}

	c := s.Load(ctx, sess)
	if line, ok := c.Get(cart.Key(product.ID)); ok {
		maximum, err := s.maxQuantity(product)
		if err != nil {
			return nil, err
		}
		if line.Quantity+1 > maximum {
			return nil, fmt.Errorf("%w: %d exceeds %d", ErrInvalidQuantity, line.Quantity+1, maximum)
		}
	}
	if err := c.Add(product, selection, input.Quantity, s.pricer); err != nil {
		return nil, mapCartError(err)
	}
	if err := s.save(sess, c); err != nil {
		return nil, err
	}

	observability.Count(ctx, "cart.add", attribute.Int("distinct_lines", c.Distinct()))
	s.loggerFromContext(ctx).Debug("added product to cart", "product_id", product.ID, "quantity", input.Quantity, "cart_units", c.Len())
	return c, nil
}

// Update replaces the quantity of a line without re-pricing it. Quantities
// above the product's largest tier are rejected.
func (s *CartService) Update(ctx context.Context, sess *session.Session, productID int64, quantity int) (*cart.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	maximum, err := s.maxQuantity(product)
	if err != nil {
		return nil, err
	}
	if quantity > maximum {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrInvalidQuantity, quantity, maximum)
	}

	c := s.Load(ctx, sess)
	if err := c.Update(product, quantity, s.pricer); err != nil {
		return nil, mapCartError(err)
	}
	if err := s.save(sess, c); err != nil {
		return nil, err
	}

	observability.Count(ctx, "cart.update")
	return c, nil
}

// Remove drops the line for productID. Lines whose product was deleted can
// still be removed; an id that is neither in the cart nor in the catalog
// returns ErrProductNotFound.
func (s *CartService) Remove(ctx context.Context, sess *session.Session, productID int64) (*cart.Cart, error) {
	c := s.Load(ctx, sess)
	if c.Remove(cart.Key(productID)) {
		if err := s.save(sess, c); err != nil {
			return nil, err
		}
		observability.Count(ctx, "cart.remove")
		return c, nil
	}

	if _, err := s.product(ctx, productID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CartService) Clear(ctx context.Context, sess *session.Session) error {
	c := s.Load(ctx, sess)
	c.Clear()
	return s.save(sess, c)
}

// Lines joins each cart line with its live product.
func (s *CartService) Lines(ctx context.Context, c *cart.Cart) ([]CartLine, error) {
	items := c.Items()
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if id, err := strconv.ParseInt(item.ProductID, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}

	products, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}
	byKey := make(map[string]*models.Product, len(products))
	for i := range products {
		byKey[cart.Key(products[i].ID)] = &products[i]
	}

	lines := make([]CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, CartLine{LineItem: item, Product: byKey[item.ProductID]})
	}
	return lines, nil
}

func (s *CartService) View(ctx context.Context, sess *session.Session) (*CartView, error) {
	c := s.Load(ctx, sess)
	lines, err := s.Lines(ctx, c)
	if err != nil {
		return nil, err
	}
	return &CartView{
		Lines: lines,
		Count: c.Len(),
		Total: c.TotalPrice(),
	}, nil
}

func (s *CartService) product(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

// maxQuantity is the largest quantity one line of product may hold.
func (s *CartService) maxQuantity(product *models.Product) (int, error) {
	maximum, ok := s.pricer.MaximumOrderQuantity(product.Prices)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrProductUnavailable, product.Slug)
	}
	return min(maximum, cart.MaxLineQuantity), nil
}

func (s *CartService) validateAdd(ctx context.Context, product *models.Product, input AddToCartInput) (cart.Selection, error) {
	minimum, ok := s.pricer.MinimumOrderQuantity(product.Prices)
	if !ok {
		return cart.Selection{}, fmt.Errorf("%w: %s", ErrProductUnavailable, product.Slug)
	}
	maximum, err := s.maxQuantity(product)
	if err != nil {
		return cart.Selection{}, err
	}
	if input.Quantity < minimum || input.Quantity > maximum {
		return cart.Selection{}, fmt.Errorf("%w: %d not within %d..%d", ErrInvalidQuantity, input.Quantity, minimum, maximum)
	}

	selection := input.Selection
	if len(product.Sizes) == 0 {
		selection.Size = ""
	} else if !product.HasSize(selection.Size) {
		return cart.Selection{}, fmt.Errorf("%w: size %q", ErrInvalidSelection, selection.Size)
	}
	if len(product.Colors) == 0 {
		selection.Color = ""
	} else if !product.HasColor(selection.Color) {
		return cart.Selection{}, fmt.Errorf("%w: color %q", ErrInvalidSelection, selection.Color)
	}

	if !product.AllowsCustomImage {
		selection.CustomImage = ""
	} else {
		images, err := s.products.ListCustomerImages(ctx)
		if err != nil {
			return cart.Selection{}, fmt.Errorf("failed to load customer images: %w", err)
		}
		if !containsName(images, selection.CustomImage, func(i models.CustomerImage) string { return i.Name }) {
			return cart.Selection{}, fmt.Errorf("%w: custom image %q", ErrInvalidSelection, selection.CustomImage)
		}
	}

	if !product.AllowsCustomColor {
		selection.CustomColor = ""
	} else {
		colors, err := s.products.ListCustomerColors(ctx)
		if err != nil {
			return cart.Selection{}, fmt.Errorf("failed to load customer colors: %w", err)
		}
		if !containsName(colors, selection.CustomColor, func(c models.CustomerColor) string { return c.Name }) {
			return cart.Selection{}, fmt.Errorf("%w: custom color %q", ErrInvalidSelection, selection.CustomColor)
		}
	}

	return selection, nil
}

func containsName[T any](values []T, name string, nameOf func(T) string) bool {
	if name == "" {
		return false
	}
	for _, value := range values {
		if nameOf(value) == name {
			return true
		}
	}
	return false
}

func mapCartError(err error) error {
	if errors.Is(err, catalog.ErrNoPriceTiers) {
		return fmt.Errorf("%w: %w", ErrProductUnavailable, err)
	}
	return err
}
