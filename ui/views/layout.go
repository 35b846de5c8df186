package views

import (
	"github.com/a-h/templ"

	"github.com/experina/storefront/internal/models"
)

type Flash struct {
	Level   string
	Message string
}

// LayoutProps is the chrome shared by every storefront page.
type LayoutProps struct {
	Title      string
	ShopName   string
	Categories []models.Category
	CartCount  int
	Query      string
	Flashes    []Flash
}

var flashClasses = map[string]string{
	"success": "border-green-600 bg-green-50 text-green-800",
	"warning": "border-yellow-600 bg-yellow-50 text-yellow-800",
	"error":   "border-red-600 bg-red-50 text-red-800",
}

func Layout(props LayoutProps, content templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		title := props.ShopName
		if props.Title != "" {
			title = props.Title + " | " + props.ShopName
		}

		h.raw("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		h.raw("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		h.element("title", title)
		h.raw("<link rel=\"stylesheet\" href=\"/assets/css/site.css\">")
		h.raw("</head><body")
		h.class("min-h-screen bg-white text-gray-900")
		h.raw(">")

		h.open("header", "border-b border-gray-200")
		h.open("nav", "mx-auto flex max-w-6xl items-center gap-6 px-4 py-4")
		h.raw("<a")
		h.href("/")
		h.class("text-lg font-bold")
		h.raw(">")
		h.text(props.ShopName)
		h.raw("</a>")
		for _, category := range props.Categories {
			h.raw("<a")
			h.href("/category/" + category.Slug + "/")
			h.class("text-sm text-gray-600")
			h.raw(">")
			h.text(category.Name)
			h.raw("</a>")
		}
		h.raw("<form action=\"/search/\" method=\"get\"")
		h.class("ml-auto")
		h.raw("><input type=\"search\" name=\"q\" placeholder=\"Search\"")
		h.attr("value", props.Query)
		h.class(inputBase)
		h.raw("></form>")
		h.raw("<a")
		h.href("/cart/detail/")
		h.class(buttonClass(buttonSecondary)...)
		h.raw(">Shopping Bag (")
		h.text(itoa(props.CartCount))
		h.raw(")</a>")
		h.close("nav")
		h.close("header")

		h.open("main", "mx-auto max-w-6xl px-4 py-8")
		for _, flash := range props.Flashes {
			h.open("div", "mb-4 rounded border-l-4 px-4 py-3 text-sm", flashClasses[flash.Level])
			h.text(flash.Message)
			h.close("div")
		}
		h.render(content)
		h.close("main")

		h.open("footer", "border-t border-gray-200 py-6 text-center text-sm text-gray-500")
		h.raw("<a")
		h.href("/about/")
		h.raw(">About</a> · <a")
		h.href("/contact/")
		h.raw(">Contact</a>")
		h.close("footer")
		h.raw("<script src=\"/assets/js/product.js\" defer></script>")
		h.raw("</body></html>")
	})
}
