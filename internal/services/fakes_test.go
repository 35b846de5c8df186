package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/experina/storefront/internal/db"
	"github.com/experina/storefront/internal/models"
	"github.com/experina/storefront/internal/session"
)

type fakeCatalog struct {
	mu             sync.Mutex
	products       map[int64]models.Product
	categories     []models.Category
	customerImages []models.CustomerImage
	customerColors []models.CustomerColor
	categoryCalls  int
	slugCalls      int
}

func newFakeCatalog(products ...models.Product) *fakeCatalog {
	f := &fakeCatalog{products: make(map[int64]models.Product)}
	for _, product := range products {
		f.products[product.ID] = product
	}
	return f
}

func (f *fakeCatalog) delete(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.products, id)
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &product, nil
}

func (f *fakeCatalog) GetProductBySlug(_ context.Context, slug string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slugCalls++
	for _, product := range f.products {
		if product.Slug == slug {
			return &product, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeCatalog) GetProductsByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var products []models.Product
	for _, id := range ids {
		if product, ok := f.products[id]; ok {
			products = append(products, product)
		}
	}
	return products, nil
}

func (f *fakeCatalog) sorted(keep func(models.Product) bool) []models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	var products []models.Product
	for _, product := range f.products {
		if keep(product) {
			products = append(products, product)
		}
	}
	slices.SortFunc(products, func(a, b models.Product) int { return int(a.ID - b.ID) })
	return products
}

func (f *fakeCatalog) ListFeaturedProducts(_ context.Context, limit int) ([]models.Product, error) {
	products := f.sorted(func(p models.Product) bool { return p.Featured })
	if len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (f *fakeCatalog) ListProductsByCategory(_ context.Context, categoryID int64) ([]models.Product, error) {
	return f.sorted(func(p models.Product) bool {
		return slices.ContainsFunc(p.Categories, func(c models.Category) bool { return c.ID == categoryID })
	}), nil
}

func (f *fakeCatalog) SearchProducts(_ context.Context, terms []string) ([]models.Product, error) {
	return f.sorted(func(p models.Product) bool {
		for _, term := range terms {
			if strings.Contains(strings.ToLower(p.Name), strings.ToLower(term)) {
				return true
			}
		}
		return false
	}), nil
}

func (f *fakeCatalog) ListCategories(context.Context) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categoryCalls++
	return slices.Clone(f.categories), nil
}

func (f *fakeCatalog) ListFeaturedCategories(_ context.Context, limit int) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var categories []models.Category
	for _, category := range f.categories {
		if category.Featured && len(categories) < limit {
			categories = append(categories, category)
		}
	}
	return categories, nil
}

func (f *fakeCatalog) GetCategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, category := range f.categories {
		if category.Slug == slug {
			return &category, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeCatalog) ListCustomerImages(context.Context) ([]models.CustomerImage, error) {
	return f.customerImages, nil
}

func (f *fakeCatalog) ListCustomerColors(context.Context) ([]models.CustomerColor, error) {
	return f.customerColors, nil
}

type fakeOrderStore struct {
	mu     sync.Mutex
	err    error
	nextID int64
	orders []models.Order
}

func (f *fakeOrderStore) CreateWithItems(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	order.ID = f.nextID
	for i := range order.Items {
		order.Items[i].ID = int64(i + 1)
		order.Items[i].OrderID = order.ID
	}
	f.orders = append(f.orders, *order)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	orders []*models.Order
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order)
}

type fakeEmailSender struct {
	mu            sync.Mutex
	failures      int
	confirmations int
	notifications int
	calls         int
}

var errSendFailed = errors.New("send failed")

func (f *fakeEmailSender) record(counter *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures != 0 {
		if f.failures > 0 {
			f.failures--
		}
		return errSendFailed
	}
	*counter++
	return nil
}

func (f *fakeEmailSender) SendOrderConfirmation(context.Context, *models.Order) error {
	return f.record(&f.confirmations)
}

func (f *fakeEmailSender) SendOrderNotification(context.Context, *models.Order) error {
	return f.record(&f.notifications)
}

func (f *fakeEmailSender) snapshot() (calls, confirmations, notifications int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.confirmations, f.notifications
}

func newTestSession() *session.Session {
	return &session.Session{ID: "test", Data: &session.Data{}}
}

func price(amount string, minQuantity, maxQuantity int) models.Price {
	return models.Price{
		Amount:      decimal.RequireFromString(amount),
		MinQuantity: minQuantity,
		MaxQuantity: maxQuantity,
	}
}

func shirt() models.Product {
	return models.Product{
		ID:     1,
		Name:   "Club Shirt",
		Slug:   "club-shirt",
		Image:  "/media/shirt.jpg",
		Prices: []models.Price{price("10.00", 1, 3), price("8.00", 4, 10)},
		Sizes:  []models.Size{{ID: 1, Name: "M"}, {ID: 2, Name: "L"}},
		Colors: []models.Color{{ID: 1, Name: "Red"}},
	}
}

func scarf() models.Product {
	return models.Product{
		ID:                2,
		Name:              "Club Scarf",
		Slug:              "club-scarf",
		Image:             "/media/scarf.jpg",
		AllowsCustomImage: true,
		Featured:          true,
		Prices:            []models.Price{price("15.00", 1, 50)},
	}
}
