package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/experina/storefront/internal/models"
	"github.com/experina/storefront/ui/views"
)

func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.Home(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.renderPage(w, r, http.StatusOK, "", views.HomePage(views.HomePageProps{
		FeaturedProducts:   h.productCards(page.FeaturedProducts),
		FeaturedCategories: page.FeaturedCategories,
	}))
}

// About and Contact reuse the home page content under their own heading.
func (h *Handlers) About(w http.ResponseWriter, r *http.Request) {
	h.infoPage(w, r, "About", "About "+h.shopName())
}

func (h *Handlers) Contact(w http.ResponseWriter, r *http.Request) {
	h.infoPage(w, r, "Contact", "Contact")
}

func (h *Handlers) infoPage(w http.ResponseWriter, r *http.Request, title, heading string) {
	page, err := h.catalog.Home(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.renderPage(w, r, http.StatusOK, title, views.HomePage(views.HomePageProps{
		Heading:            heading,
		FeaturedProducts:   h.productCards(page.FeaturedProducts),
		FeaturedCategories: page.FeaturedCategories,
	}))
}

func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.renderPage(w, r, http.StatusOK, "Search", views.SearchPage(views.SearchPageProps{
		Query:    page.Query,
		Products: h.productCards(page.Products),
	}))
}

func (h *Handlers) Category(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.Category(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.renderPage(w, r, http.StatusOK, page.Category.Name, views.CategoryPage(views.CategoryPageProps{
		Category: page.Category,
		Products: h.productCards(page.Products),
	}))
}

func (h *Handlers) Product(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.Product(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.renderPage(w, r, http.StatusOK, page.Product.Name, views.ProductPage(views.ProductPageProps{
		Product:        page.Product,
		Tiers:          priceTiers(page.Product.Prices),
		CustomerImages: page.CustomerImages,
		CustomerColors: page.CustomerColors,
		MinQuantity:    page.MinQuantity,
		MaxQuantity:    page.MaxQuantity,
		Sellable:       page.Sellable,
	}))
}

func (h *Handlers) productCards(products []models.Product) []views.ProductCard {
	cards := make([]views.ProductCard, 0, len(products))
	for _, product := range products {
		cards = append(cards, views.ProductCard{
			Name:       product.Name,
			Slug:       product.Slug,
			Image:      product.Image,
			PriceLabel: h.priceLabel(product.Prices),
		})
	}
	return cards
}

// priceLabel is "€ 8.00 - € 10.00" for tiered products, a single amount when
// all tiers agree, and empty for unsellable products.
func (h *Handlers) priceLabel(tiers []models.Price) string {
	lowest, highest, ok := h.pricer.PriceRange(tiers)
	if !ok {
		return ""
	}
	if lowest.Equal(highest) {
		return views.FormatMoney(lowest)
	}
	return views.FormatMoney(lowest) + " - " + views.FormatMoney(highest)
}

func priceTiers(tiers []models.Price) []views.PriceTier {
	out := make([]views.PriceTier, 0, len(tiers))
	for _, tier := range tiers {
		out = append(out, views.PriceTier{
			Range:  fmt.Sprintf("%d - %d", tier.MinQuantity, tier.MaxQuantity),
			Amount: views.FormatMoney(tier.Amount),
		})
	}
	return out
}
