package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/experina/storefront/internal/services"
	"github.com/experina/storefront/internal/session"
	"github.com/experina/storefront/ui/views"
)

func (h *Handlers) OrderForm(w http.ResponseWriter, r *http.Request) {
	h.renderOrderPage(w, r, http.StatusOK, nil, nil)
}

// OrderCreate places the order for the session cart and redirects home.
func (h *Handlers) OrderCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	input := services.CheckoutInput{
		FirstName:  r.PostFormValue("first_name"),
		LastName:   r.PostFormValue("last_name"),
		Email:      r.PostFormValue("email"),
		Address:    r.PostFormValue("address"),
		PostalCode: r.PostFormValue("postal_code"),
		City:       r.PostFormValue("city"),
		Remarks:    r.PostFormValue("remarks"),
	}

	sess := session.FromContext(ctx)
	order, err := h.checkout.Checkout(ctx, sess, input)
	if err != nil {
		var validationErr *services.ValidationError
		switch {
		case errors.As(err, &validationErr):
			h.renderOrderPage(w, r, http.StatusUnprocessableEntity, formValues(r), validationErr.Fields)
		case errors.Is(err, services.ErrEmptyCart):
			sess.AddFlash(session.FlashError, "Your Shopping Bag is empty.")
			http.Redirect(w, r, cartDetailPath, http.StatusSeeOther)
		default:
			h.handleError(w, r, err)
		}
		return
	}

	sess.AddFlash(session.FlashSuccess, fmt.Sprintf(
		"Order no. %s successfully registered. You will receive an email with further instructions.",
		order.Number(),
	))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) renderOrderPage(w http.ResponseWriter, r *http.Request, status int, values, fieldErrors map[string]string) {
	ctx := r.Context()
	view, err := h.carts.View(ctx, session.FromContext(ctx))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.renderPage(w, r, status, "Order details", views.OrderPage(views.OrderPageProps{
		Lines:  cartLines(view.Lines),
		Total:  views.FormatMoney(view.Total),
		Values: values,
		Errors: fieldErrors,
	}))
}

func formValues(r *http.Request) map[string]string {
	values := make(map[string]string, len(views.OrderFields))
	for _, field := range views.OrderFields {
		values[field.Name] = r.PostFormValue(field.Name)
	}
	return values
}
