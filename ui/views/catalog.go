package views

import (
	"github.com/a-h/templ"

	"github.com/experina/storefront/internal/models"
)

type ProductCard struct {
	Name       string
	Slug       string
	Image      string
	PriceLabel string
}

type HomePageProps struct {
	Heading            string
	Intro              string
	FeaturedProducts   []ProductCard
	FeaturedCategories []models.Category
}

type CategoryPageProps struct {
	Category models.Category
	Products []ProductCard
}

type SearchPageProps struct {
	Query    string
	Products []ProductCard
}

type PriceTier struct {
	Range  string
	Amount string
}

type ProductPageProps struct {
	Product        *models.Product
	Tiers          []PriceTier
	CustomerImages []models.CustomerImage
	CustomerColors []models.CustomerColor
	MinQuantity    int
	MaxQuantity    int
	Sellable       bool
}

func productGrid(h *htmlWriter, products []ProductCard) {
	h.open("div", "grid grid-cols-2 gap-6 md:grid-cols-4")
	for _, product := range products {
		h.raw("<a")
		h.href("/product/" + product.Slug + "/")
		h.class("block rounded border border-gray-200 p-3")
		h.raw(">")
		if product.Image != "" {
			h.raw("<img")
			h.attr("src", product.Image)
			h.attr("alt", product.Name)
			h.class("mb-2 w-full rounded")
			h.raw(">")
		}
		h.element("h3", product.Name, "font-medium")
		if product.PriceLabel != "" {
			h.element("p", product.PriceLabel, "text-sm text-gray-600")
		}
		h.raw("</a>")
	}
	h.close("div")
}

func HomePage(props HomePageProps) templ.Component {
	return component(func(h *htmlWriter) {
		if props.Heading != "" {
			h.element("h1", props.Heading, "mb-2 text-2xl font-bold")
		}
		if props.Intro != "" {
			h.element("p", props.Intro, "mb-8 text-gray-600")
		}
		if len(props.FeaturedCategories) > 0 {
			h.open("section", "mb-10")
			h.element("h2", "Featured categories", "mb-4 text-xl font-semibold")
			h.open("div", "grid grid-cols-1 gap-6 md:grid-cols-3")
			for _, category := range props.FeaturedCategories {
				h.raw("<a")
				h.href("/category/" + category.Slug + "/")
				h.class("block rounded border border-gray-200 p-4 font-medium")
				h.raw(">")
				h.text(category.Name)
				h.raw("</a>")
			}
			h.close("div")
			h.close("section")
		}
		h.open("section")
		h.element("h2", "Featured products", "mb-4 text-xl font-semibold")
		productGrid(h, props.FeaturedProducts)
		h.close("section")
	})
}

func CategoryPage(props CategoryPageProps) templ.Component {
	return component(func(h *htmlWriter) {
		h.element("h1", props.Category.Name, "mb-6 text-2xl font-bold")
		if len(props.Products) == 0 {
			h.element("p", "No products in this category yet.", "text-gray-600")
			return
		}
		productGrid(h, props.Products)
	})
}

func SearchPage(props SearchPageProps) templ.Component {
	return component(func(h *htmlWriter) {
		if props.Query == "" {
			h.element("h1", "Search", "mb-6 text-2xl font-bold")
		} else {
			h.element("h1", "Results for \""+props.Query+"\"", "mb-6 text-2xl font-bold")
		}
		if len(props.Products) == 0 {
			h.element("p", "No products found.", "text-gray-600")
			return
		}
		productGrid(h, props.Products)
	})
}

func ProductPage(props ProductPageProps) templ.Component {
	return component(func(h *htmlWriter) {
		product := props.Product
		h.open("div", "grid grid-cols-1 gap-8 md:grid-cols-2")

		h.open("div")
		if product.Image != "" {
			h.raw("<img")
			h.attr("src", product.Image)
			h.attr("alt", product.Name)
			h.class("w-full rounded")
			h.raw(">")
		}
		h.close("div")

		h.open("div")
		h.element("h1", product.Name, "mb-4 text-2xl font-bold")
		if product.Description != "" {
			h.element("p", product.Description, "mb-4")
		}
		if len(props.Tiers) > 0 {
			h.open("table", "mb-6 w-full text-sm")
			h.raw("<thead><tr><th>Quantity</th><th>Unit price</th></tr></thead><tbody>")
			for _, tier := range props.Tiers {
				h.raw("<tr>")
				h.element("td", tier.Range)
				h.element("td", tier.Amount)
				h.raw("</tr>")
			}
			h.raw("</tbody>")
			h.close("table")
		}

		if props.Sellable {
			addForm(h, props)
		} else {
			h.element("p", "This product is currently not available.", "text-sm text-gray-600")
		}

		if product.ExtraInfo != "" {
			h.element("p", product.ExtraInfo, "mt-6 text-sm text-gray-600")
		}
		h.close("div")
		h.close("div")

		if len(product.Related) > 0 {
			h.open("section", "mt-10")
			h.element("h2", "Related products", "mb-4 text-xl font-semibold")
			related := make([]ProductCard, 0, len(product.Related))
			for _, ref := range product.Related {
				related = append(related, ProductCard{Name: ref.Name, Slug: ref.Slug, Image: ref.Image})
			}
			productGrid(h, related)
			h.close("section")
		}
	})
}

func addForm(h *htmlWriter, props ProductPageProps) {
	product := props.Product
	h.raw("<form method=\"post\"")
	h.attr("action", "/cart/add/"+itoa64(product.ID)+"/")
	h.class("space-y-4")
	h.raw("><input type=\"hidden\" name=\"next\"")
	h.attr("value", "/product/"+product.Slug+"/")
	h.raw(">")

	if len(product.Sizes) > 0 {
		names := make([]string, 0, len(product.Sizes))
		for _, size := range product.Sizes {
			names = append(names, size.Name)
		}
		selectField(h, "size", "Size", names)
	}
	if len(product.Colors) > 0 {
		names := make([]string, 0, len(product.Colors))
		for _, color := range product.Colors {
			names = append(names, color.Name)
		}
		selectField(h, "color", "Color", names)
	}
	if product.AllowsCustomImage {
		names := make([]string, 0, len(props.CustomerImages))
		for _, image := range props.CustomerImages {
			names = append(names, image.Name)
		}
		selectField(h, "custom_image", "Image", names)
	}
	if product.AllowsCustomColor {
		names := make([]string, 0, len(props.CustomerColors))
		for _, color := range props.CustomerColors {
			names = append(names, color.Name)
		}
		selectField(h, "custom_color", "Color", names)
	}

	h.raw("<label")
	h.class("block text-sm font-medium")
	h.raw(">Quantity<input type=\"number\" name=\"quantity\" id=\"product_counter\" required")
	h.attr("min", itoa(props.MinQuantity))
	h.attr("max", itoa(props.MaxQuantity))
	h.attr("value", itoa(props.MinQuantity))
	h.class(inputBase, "mt-1")
	h.raw("></label>")

	h.raw("<button type=\"submit\"")
	h.class(buttonClass(buttonPrimary, "w-full")...)
	h.raw(">Add to Shopping Bag</button></form>")
}

func selectField(h *htmlWriter, name, label string, options []string) {
	h.raw("<label")
	h.class("block text-sm font-medium")
	h.raw(">")
	h.text(label)
	h.raw("<select required")
	h.attr("name", name)
	h.class(inputBase, "mt-1")
	h.raw("><option value=\"\">Choose an option</option>")
	for _, option := range options {
		h.raw("<option")
		h.attr("value", option)
		h.raw(">")
		h.text(option)
		h.raw("</option>")
	}
	h.raw("</select></label>")
}
