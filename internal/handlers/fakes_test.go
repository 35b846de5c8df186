package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/experina/storefront/internal/catalog"
	"github.com/experina/storefront/internal/config"
	"github.com/experina/storefront/internal/db"
	"github.com/experina/storefront/internal/models"
	"github.com/experina/storefront/internal/services"
	"github.com/experina/storefront/internal/session"
)

type stubCatalog struct {
	mu         sync.Mutex
	products   []models.Product
	categories []models.Category
	images     []models.CustomerImage
}

func (s *stubCatalog) find(match func(models.Product) bool) []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	for _, product := range s.products {
		if match(product) {
			out = append(out, product)
		}
	}
	return out
}

func (s *stubCatalog) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	found := s.find(func(p models.Product) bool { return p.ID == id })
	if len(found) == 0 {
		return nil, db.ErrNotFound
	}
	return &found[0], nil
}

func (s *stubCatalog) GetProductBySlug(_ context.Context, slug string) (*models.Product, error) {
	found := s.find(func(p models.Product) bool { return p.Slug == slug })
	if len(found) == 0 {
		return nil, db.ErrNotFound
	}
	return &found[0], nil
}

func (s *stubCatalog) GetProductsByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	return s.find(func(p models.Product) bool { return slices.Contains(ids, p.ID) }), nil
}

func (s *stubCatalog) ListFeaturedProducts(_ context.Context, limit int) ([]models.Product, error) {
	found := s.find(func(p models.Product) bool { return p.Featured })
	if len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

func (s *stubCatalog) ListProductsByCategory(_ context.Context, categoryID int64) ([]models.Product, error) {
	return s.find(func(p models.Product) bool {
		return slices.ContainsFunc(p.Categories, func(c models.Category) bool { return c.ID == categoryID })
	}), nil
}

func (s *stubCatalog) SearchProducts(_ context.Context, terms []string) ([]models.Product, error) {
	return s.find(func(p models.Product) bool {
		return slices.ContainsFunc(terms, func(term string) bool {
			return strings.Contains(strings.ToLower(p.Name), strings.ToLower(term))
		})
	}), nil
}

func (s *stubCatalog) ListCategories(context.Context) ([]models.Category, error) {
	return slices.Clone(s.categories), nil
}

func (s *stubCatalog) ListFeaturedCategories(context.Context, int) ([]models.Category, error) {
	return nil, nil
}

func (s *stubCatalog) GetCategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	for _, category := range s.categories {
		if category.Slug == slug {
			return &category, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *stubCatalog) ListCustomerImages(context.Context) ([]models.CustomerImage, error) {
	return s.images, nil
}

func (s *stubCatalog) ListCustomerColors(context.Context) ([]models.CustomerColor, error) {
	return nil, nil
}

type stubOrders struct {
	mu     sync.Mutex
	err    error
	orders []models.Order
}

func (s *stubOrders) CreateWithItems(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	order.ID = int64(len(s.orders) + 1)
	s.orders = append(s.orders, *order)
	return nil
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

var errDatabaseDown = errors.New("database down")

func price(amount string, minimum, maximum int) models.Price {
	return models.Price{Amount: decimal.RequireFromString(amount), MinQuantity: minimum, MaxQuantity: maximum}
}

func testCatalog() *stubCatalog {
	shirts := models.Category{ID: 1, Name: "Shirts", Slug: "shirts"}
	return &stubCatalog{
		categories: []models.Category{shirts},
		images:     []models.CustomerImage{{ID: 1, Name: "Club logo"}},
		products: []models.Product{
			{
				ID:         1,
				Name:       "Club shirt",
				Slug:       "club-shirt",
				Featured:   true,
				Prices:     []models.Price{price("10.00", 1, 3), price("8.00", 4, 10)},
				Sizes:      []models.Size{{ID: 1, Name: "M"}, {ID: 2, Name: "L"}},
				Categories: []models.Category{shirts},
			},
			{
				ID:   2,
				Name: "Sold out mug",
				Slug: "sold-out-mug",
			},
		},
	}
}

type testServer struct {
	router *mux.Router
	orders *stubOrders
	store  *stubCatalog
	cookie *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := testCatalog()
	orders := &stubOrders{}
	pricer := catalog.NewPricer()

	carts := services.NewCartService(store, pricer, logger)
	h, err := New(Dependencies{
		Config:         &config.Config{BaseURL: "http://localhost:8080", ShopName: "Test Shop"},
		DB:             stubPinger{},
		SessionManager: session.NewManager(session.NewMemoryStore(0), false, logger),
		Catalog:        services.NewCatalogService(store, nil, 0, pricer, logger),
		Carts:          carts,
		Checkout:       services.NewCheckoutService(carts, orders, nil, logger),
		Pricer:         pricer,
		Logger:         logger,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r := mux.NewRouter()
	r.HandleFunc("/health-check/", h.HealthCheck).Methods(http.MethodGet)
	site := r.NewRoute().Subrouter()
	site.Use(h.SessionMiddleware)
	site.HandleFunc("/", h.Home).Methods(http.MethodGet)
	site.HandleFunc("/search/", h.Search).Methods(http.MethodGet)
	site.HandleFunc("/category/{slug}/", h.Category).Methods(http.MethodGet)
	site.HandleFunc("/product/{slug}/", h.Product).Methods(http.MethodGet)
	site.HandleFunc("/cart/detail/", h.CartDetail).Methods(http.MethodGet)
	site.HandleFunc("/cart/add/{id:[0-9]+}/", h.CartAdd).Methods(http.MethodPost)
	site.HandleFunc("/cart/update/{id:[0-9]+}/", h.CartUpdate).Methods(http.MethodPost)
	site.HandleFunc("/cart/remove/{id:[0-9]+}/", h.CartRemove).Methods(http.MethodPost)
	site.HandleFunc("/order/", h.OrderForm).Methods(http.MethodGet)
	site.HandleFunc("/order/", h.OrderCreate).Methods(http.MethodPost)
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	return &testServer{router: r, orders: orders, store: store}
}

// do sends a request carrying the session cookie from earlier responses.
func (s *testServer) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == session.CookieName {
			s.cookie = cookie
		}
	}
	return rec
}
