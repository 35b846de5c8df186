package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/experina/storefront/internal/cart"
	"github.com/experina/storefront/internal/services"
	"github.com/experina/storefront/internal/session"
	"github.com/experina/storefront/ui/views"
)

const (
	cartDetailPath = "/cart/detail/"

	flashAdded   = "Product added to your Shopping Bag."
	flashUpdated = "Product updated to your Shopping Bag."
	flashRemoved = "Product removed from your Shopping Bag."
)

func (h *Handlers) CartDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.carts.View(ctx, session.FromContext(ctx))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.renderPage(w, r, http.StatusOK, "Shopping Bag", views.CartPage(views.CartPageProps{
		Lines: cartLines(view.Lines),
		Count: view.Count,
		Total: views.FormatMoney(view.Total),
	}))
}

// CartAdd adds a product from the product page form. Rejected input is
// reported as a flash on the page named by next.
func (h *Handlers) CartAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := productIDFromRequest(r)
	if !ok {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	sess := session.FromContext(ctx)
	quantity, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue("quantity")))
	_, err := h.carts.Add(ctx, sess, services.AddToCartInput{
		ProductID: productID,
		Quantity:  quantity,
		Selection: cart.Selection{
			Size:        strings.TrimSpace(r.PostFormValue("size")),
			Color:       strings.TrimSpace(r.PostFormValue("color")),
			CustomImage: strings.TrimSpace(r.PostFormValue("custom_image")),
			CustomColor: strings.TrimSpace(r.PostFormValue("custom_color")),
		},
	})
	if err != nil {
		if message, rejected := addRejection(err); rejected {
			h.loggerFromContext(ctx).Info("add to cart rejected", "product_id", productID, "error", err)
			sess.AddFlash(session.FlashError, message)
			http.Redirect(w, r, safeNext(r.PostFormValue("next"), cartDetailPath), http.StatusSeeOther)
			return
		}
		h.handleError(w, r, err)
		return
	}

	sess.AddFlash(session.FlashSuccess, flashAdded)
	http.Redirect(w, r, cartDetailPath, http.StatusSeeOther)
}

func (h *Handlers) CartUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := productIDFromRequest(r)
	if !ok {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("quantity")))
	if err != nil {
		h.handleError(w, r, services.ErrInvalidQuantity)
		return
	}

	sess := session.FromContext(ctx)
	if _, err := h.carts.Update(ctx, sess, productID, quantity); err != nil {
		h.handleError(w, r, err)
		return
	}

	sess.AddFlash(session.FlashSuccess, flashUpdated)
	http.Redirect(w, r, safeNext(r.PostFormValue("next"), cartDetailPath), http.StatusSeeOther)
}

func (h *Handlers) CartRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := productIDFromRequest(r)
	if !ok {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	sess := session.FromContext(ctx)
	if _, err := h.carts.Remove(ctx, sess, productID); err != nil {
		h.handleError(w, r, err)
		return
	}

	sess.AddFlash(session.FlashWarning, flashRemoved)
	http.Redirect(w, r, safeNext(r.PostFormValue("next"), cartDetailPath), http.StatusSeeOther)
}

func productIDFromRequest(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func addRejection(err error) (string, bool) {
	switch {
	case errors.Is(err, services.ErrProductUnavailable):
		return "This product is currently not available.", true
	case errors.Is(err, services.ErrInvalidQuantity):
		return "Please choose a quantity within the available range.", true
	case errors.Is(err, services.ErrInvalidSelection):
		return "Please choose one of the available options.", true
	default:
		return "", false
	}
}

// safeNext returns next when it is a path on this site, otherwise fallback.
func safeNext(next, fallback string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	parsed, err := url.Parse(next)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return fallback
	}
	return next
}

func cartLines(lines []services.CartLine) []views.CartLine {
	out := make([]views.CartLine, 0, len(lines))
	for _, line := range lines {
		id, _ := strconv.ParseInt(line.ProductID, 10, 64)
		view := views.CartLine{
			ProductID: id,
			Name:      line.Name(),
			Image:     line.ImageURL(),
			Options:   lineOptions(line.Selection),
			Quantity:  line.Quantity,
			UnitPrice: views.FormatMoney(line.UnitPrice),
			LineTotal: views.FormatMoney(line.LineTotal()),
			Available: line.Product != nil,
		}
		if line.Product != nil {
			view.Slug = line.Product.Slug
		}
		out = append(out, view)
	}
	return out
}

func lineOptions(selection cart.Selection) string {
	var parts []string
	if selection.Size != "" {
		parts = append(parts, "Size: "+selection.Size)
	}
	if selection.Color != "" {
		parts = append(parts, "Color: "+selection.Color)
	}
	if selection.CustomImage != "" {
		parts = append(parts, "Image: "+selection.CustomImage)
	}
	if selection.CustomColor != "" {
		parts = append(parts, "Custom color: "+selection.CustomColor)
	}
	return strings.Join(parts, ", ")
}
