package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func checkoutForm() url.Values {
	return url.Values{
		"first_name":  {"Ada"},
		"last_name":   {"Lovelace"},
		"email":       {"ada@example.com"},
		"address":     {"1 Analytical Way"},
		"postal_code": {"1000"},
		"city":        {"London"},
	}
}

func addShirts(t *testing.T, srv *testServer) {
	t.Helper()

	rec := srv.do(t, http.MethodPost, "/cart/add/1/", url.Values{"quantity": {"2"}, "size": {"L"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("add failed with status %d", rec.Code)
	}
}

func TestOrderCreate_PlacesOrderAndClearsCart(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	addShirts(t, srv)

	rec := srv.do(t, http.MethodGet, "/order/", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Place order") {
		t.Fatalf("unexpected order form response %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPost, "/order/", checkoutForm())
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("unexpected checkout response: %d %q", rec.Code, rec.Header().Get("Location"))
	}

	if len(srv.orders.orders) != 1 {
		t.Fatalf("expected one order, got %d", len(srv.orders.orders))
	}
	order := srv.orders.orders[0]
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 || order.Items[0].Size != "L" {
		t.Fatalf("unexpected order items %+v", order.Items)
	}
	if got := order.Total().StringFixed(2); got != "20.00" {
		t.Fatalf("order total = %s, want 20.00", got)
	}

	rec = srv.do(t, http.MethodGet, "/", nil)
	body := rec.Body.String()
	if !strings.Contains(body, "Order no. #01 successfully registered.") {
		t.Fatal("expected order confirmation flash on the home page")
	}
	if !strings.Contains(body, "Shopping Bag (0)") {
		t.Fatal("expected the cart to be cleared after checkout")
	}
}

func TestOrderCreate_InvalidFormKeepsCart(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	addShirts(t, srv)

	form := checkoutForm()
	form.Set("email", "not-an-email")
	form.Del("city")

	rec := srv.do(t, http.MethodPost, "/order/", form)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnprocessableEntity)
	}
	body := rec.Body.String()
	for _, want := range []string{"Enter a valid email address.", "This field is required.", "value=\"Ada\"", "Shopping Bag (2)"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q", want)
		}
	}
	if len(srv.orders.orders) != 0 {
		t.Fatal("invalid form must not create an order")
	}
}

func TestOrderCreate_EmptyCart(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, http.MethodPost, "/order/", checkoutForm())

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != cartDetailPath {
		t.Fatalf("unexpected response: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(srv.orders.orders) != 0 {
		t.Fatal("empty cart must not create an order")
	}
}

func TestOrderCreate_PersistFailureKeepsCart(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	addShirts(t, srv)
	srv.orders.err = errors.New("insert failed")

	rec := srv.do(t, http.MethodPost, "/order/", checkoutForm())
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusInternalServerError)
	}

	rec = srv.do(t, http.MethodGet, cartDetailPath, nil)
	if !strings.Contains(rec.Body.String(), "Shopping Bag (2)") {
		t.Fatal("cart should survive a failed checkout")
	}
}
