package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/experina/storefront/internal/config"
)

func TestHealthCheck_ReturnsFixedPayload(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/health-check/", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 1 || body["response"] != "ok" {
		t.Fatalf("unexpected payload %v", body)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		db   stubPinger
		want int
	}{
		{name: "database up", want: http.StatusOK},
		{name: "database down", db: stubPinger{err: errDatabaseDown}, want: http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := &Handlers{
				config: &config.Config{},
				db:     tc.db,
				logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
			}
			rec := httptest.NewRecorder()
			h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tc.want {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, tc.want)
			}
		})
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := New(Dependencies{}); err == nil || !strings.Contains(err.Error(), "config is required") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestCatalogPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		status int
		want   []string
	}{
		{
			name:   "home lists featured products with price range",
			target: "/",
			status: http.StatusOK,
			want:   []string{"Club shirt", "€ 8.00 - € 10.00", "Shopping Bag (0)", "href=\"/category/shirts/\""},
		},
		{
			name:   "category",
			target: "/category/shirts/",
			status: http.StatusOK,
			want:   []string{"<title>Shirts | Test Shop</title>", "/product/club-shirt/"},
		},
		{
			name:   "unknown category",
			target: "/category/hats/",
			status: http.StatusNotFound,
			want:   []string{"Page not found"},
		},
		{
			name:   "product with add form",
			target: "/product/club-shirt/",
			status: http.StatusOK,
			want:   []string{"action=\"/cart/add/1/\"", "4 - 10", "€ 8.00", "min=\"1\"", "max=\"10\""},
		},
		{
			name:   "product without tiers",
			target: "/product/sold-out-mug/",
			status: http.StatusOK,
			want:   []string{"This product is currently not available."},
		},
		{
			name:   "unknown product",
			target: "/product/nope/",
			status: http.StatusNotFound,
			want:   []string{"Page not found"},
		},
		{
			name:   "search",
			target: "/search/?q=shirt",
			status: http.StatusOK,
			want:   []string{"Results for", "Club shirt", "value=\"shirt\""},
		},
		{
			name:   "empty search",
			target: "/search/?q=",
			status: http.StatusOK,
			want:   []string{"No products found."},
		},
		{
			name:   "unknown route",
			target: "/nowhere/",
			status: http.StatusNotFound,
			want:   []string{"Page not found"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t)
			rec := srv.do(t, http.MethodGet, tc.target, nil)

			if rec.Code != tc.status {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, tc.status)
			}
			body := rec.Body.String()
			for _, want := range tc.want {
				if !strings.Contains(body, want) {
					t.Fatalf("expected body to contain %q", want)
				}
			}
		})
	}
}

func TestCartFlow(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/cart/add/1/", url.Values{
		"quantity": {"4"},
		"size":     {"M"},
		"next":     {"/product/club-shirt/"},
	})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != cartDetailPath {
		t.Fatalf("unexpected add response: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if srv.cookie == nil {
		t.Fatal("expected a session cookie after adding to cart")
	}

	rec = srv.do(t, http.MethodGet, cartDetailPath, nil)
	body := rec.Body.String()
	for _, want := range []string{flashAdded, "Shopping Bag (4)", "Size: M", "€ 8.00", "Total: € 32.00"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected cart page to contain %q", want)
		}
	}

	// Flashes are shown once.
	rec = srv.do(t, http.MethodGet, cartDetailPath, nil)
	if strings.Contains(rec.Body.String(), flashAdded) {
		t.Fatal("flash was shown twice")
	}

	rec = srv.do(t, http.MethodPost, "/cart/update/1/", url.Values{"quantity": {"2"}, "next": {cartDetailPath}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("unexpected update status %d", rec.Code)
	}
	rec = srv.do(t, http.MethodGet, cartDetailPath, nil)
	body = rec.Body.String()
	// Update keeps the unit price resolved at add time.
	if !strings.Contains(body, "Total: € 16.00") || !strings.Contains(body, flashUpdated) {
		t.Fatalf("unexpected cart after update: %s", body)
	}

	rec = srv.do(t, http.MethodPost, "/cart/remove/1/", url.Values{"next": {"https://attacker.example/"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != cartDetailPath {
		t.Fatalf("unexpected remove response: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	rec = srv.do(t, http.MethodGet, cartDetailPath, nil)
	body = rec.Body.String()
	if !strings.Contains(body, "Your Shopping Bag is empty.") || !strings.Contains(body, flashRemoved) {
		t.Fatalf("unexpected cart after remove: %s", body)
	}
}

func TestCartAdd_RejectedInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		target   string
		form     url.Values
		status   int
		location string
	}{
		{
			name:     "quantity above the largest tier",
			target:   "/cart/add/1/",
			form:     url.Values{"quantity": {"11"}, "size": {"M"}, "next": {"/product/club-shirt/"}},
			status:   http.StatusSeeOther,
			location: "/product/club-shirt/",
		},
		{
			name:     "unknown size",
			target:   "/cart/add/1/",
			form:     url.Values{"quantity": {"1"}, "size": {"XXL"}, "next": {"/product/club-shirt/"}},
			status:   http.StatusSeeOther,
			location: "/product/club-shirt/",
		},
		{
			name:     "product without tiers",
			target:   "/cart/add/2/",
			form:     url.Values{"quantity": {"1"}, "next": {"/product/sold-out-mug/"}},
			status:   http.StatusSeeOther,
			location: "/product/sold-out-mug/",
		},
		{
			name:   "unknown product",
			target: "/cart/add/99/",
			form:   url.Values{"quantity": {"1"}},
			status: http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t)
			rec := srv.do(t, http.MethodPost, tc.target, tc.form)

			if rec.Code != tc.status {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, tc.status)
			}
			if tc.location != "" && rec.Header().Get("Location") != tc.location {
				t.Fatalf("unexpected redirect %q", rec.Header().Get("Location"))
			}

			rec = srv.do(t, http.MethodGet, cartDetailPath, nil)
			if !strings.Contains(rec.Body.String(), "Shopping Bag (0)") {
				t.Fatal("rejected add changed the cart")
			}
		})
	}
}

func TestCartUpdate_InvalidQuantity(t *testing.T) {
	t.Parallel()

	for _, quantity := range []string{"0", "-1", "abc", "11", "200000"} {
		quantity := quantity
		t.Run(quantity, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t)
			rec := srv.do(t, http.MethodPost, "/cart/update/1/", url.Values{"quantity": {quantity}})
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestCartRemove(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/cart/remove/1/", url.Values{"next": {"/"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("remove of absent line should be a no-op redirect, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = srv.do(t, http.MethodPost, "/cart/remove/99/", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status for unknown product: %d", rec.Code)
	}
}
