package views

import (
	"github.com/a-h/templ"
)

type CartLine struct {
	ProductID int64
	Name      string
	Slug      string
	Image     string
	Options   string
	Quantity  int
	UnitPrice string
	LineTotal string
	Available bool
}

type CartPageProps struct {
	Lines []CartLine
	Count int
	Total string
}

// OrderField is one input of the checkout form.
type OrderField struct {
	Name     string
	Label    string
	Type     string
	Required bool
}

var OrderFields = []OrderField{
	{Name: "first_name", Label: "First name", Type: "text", Required: true},
	{Name: "last_name", Label: "Last name", Type: "text", Required: true},
	{Name: "email", Label: "Email", Type: "email", Required: true},
	{Name: "address", Label: "Address", Type: "text", Required: true},
	{Name: "postal_code", Label: "Postal code", Type: "text", Required: true},
	{Name: "city", Label: "City", Type: "text", Required: true},
	{Name: "remarks", Label: "Remarks", Type: "textarea"},
}

type OrderPageProps struct {
	Lines  []CartLine
	Total  string
	Values map[string]string
	Errors map[string]string
}

func cartTable(h *htmlWriter, lines []CartLine, total string, editable bool) {
	h.open("table", "w-full text-sm")
	h.raw("<thead><tr><th>Product</th><th>Quantity</th><th>Unit price</th><th>Total</th>")
	if editable {
		h.raw("<th></th>")
	}
	h.raw("</tr></thead><tbody>")
	for _, line := range lines {
		h.open("tr", "border-b border-gray-200")

		h.open("td", "py-3")
		if line.Available && line.Slug != "" {
			h.raw("<a")
			h.href("/product/" + line.Slug + "/")
			h.raw(">")
			h.text(line.Name)
			h.raw("</a>")
		} else {
			h.text(line.Name)
		}
		if line.Options != "" {
			h.element("div", line.Options, "text-xs text-gray-500")
		}
		h.close("td")

		h.open("td", "py-3")
		if editable {
			action := "/cart/update/" + itoa64(line.ProductID) + "/"
			h.raw("<form method=\"post\"")
			h.attr("action", action)
			h.class("flex gap-2")
			h.raw("><input type=\"hidden\" name=\"next\" value=\"/cart/detail/\"><input type=\"number\" name=\"quantity\" min=\"1\" required")
			h.attr("value", itoa(line.Quantity))
			h.class(inputBase, "w-20")
			h.raw("><button type=\"submit\"")
			h.class(buttonClass(buttonSecondary, "px-2 py-1")...)
			h.raw(">Update</button></form>")
		} else {
			h.text(itoa(line.Quantity))
		}
		h.close("td")

		h.element("td", line.UnitPrice, "py-3")
		h.element("td", line.LineTotal, "py-3")

		if editable {
			h.open("td", "py-3 text-right")
			h.raw("<form method=\"post\"")
			h.attr("action", "/cart/remove/"+itoa64(line.ProductID)+"/")
			h.raw("><input type=\"hidden\" name=\"next\" value=\"/cart/detail/\"><button type=\"submit\"")
			h.class(buttonClass(buttonSecondary, "px-2 py-1 text-red-700")...)
			h.raw(">Remove</button></form>")
			h.close("td")
		}
		h.close("tr")
	}
	h.raw("</tbody>")
	h.close("table")
	h.element("p", "Total: "+total, "mt-4 text-right text-lg font-semibold")
}

func CartPage(props CartPageProps) templ.Component {
	return component(func(h *htmlWriter) {
		h.element("h1", "Shopping Bag", "mb-6 text-2xl font-bold")
		if len(props.Lines) == 0 {
			h.element("p", "Your Shopping Bag is empty.", "text-gray-600")
			return
		}
		cartTable(h, props.Lines, props.Total, true)
		h.open("div", "mt-6 flex justify-end gap-4")
		h.raw("<a")
		h.href("/")
		h.class(buttonClass(buttonSecondary)...)
		h.raw(">Continue shopping</a><a")
		h.href("/order/")
		h.class(buttonClass(buttonPrimary)...)
		h.raw(">Checkout</a>")
		h.close("div")
	})
}

func OrderPage(props OrderPageProps) templ.Component {
	return component(func(h *htmlWriter) {
		h.element("h1", "Order details", "mb-6 text-2xl font-bold")
		if len(props.Lines) == 0 {
			h.element("p", "Your Shopping Bag is empty.", "text-gray-600")
			return
		}

		h.open("div", "grid grid-cols-1 gap-8 md:grid-cols-2")
		h.raw("<form method=\"post\" action=\"/order/\" novalidate")
		h.class("space-y-4")
		h.raw(">")
		for _, field := range OrderFields {
			orderInput(h, field, props.Values[field.Name], props.Errors[field.Name])
		}
		h.raw("<button type=\"submit\"")
		h.class(buttonClass(buttonPrimary, "w-full")...)
		h.raw(">Place order</button></form>")

		h.open("div")
		cartTable(h, props.Lines, props.Total, false)
		h.close("div")
		h.close("div")
	})
}

func orderInput(h *htmlWriter, field OrderField, value, fieldErr string) {
	h.raw("<label")
	h.class("block text-sm font-medium")
	h.raw(">")
	h.text(field.Label)

	inputClasses := []string{inputBase, "mt-1"}
	if fieldErr != "" {
		inputClasses = append(inputClasses, "border-red-600")
	}

	if field.Type == "textarea" {
		h.raw("<textarea rows=\"3\"")
		h.attr("name", field.Name)
		h.class(inputClasses...)
		h.raw(">")
		h.text(value)
		h.raw("</textarea>")
	} else {
		h.raw("<input")
		h.attr("type", field.Type)
		h.attr("name", field.Name)
		h.attr("value", value)
		if field.Required {
			h.raw(" required")
		}
		h.class(inputClasses...)
		h.raw(">")
	}
	if fieldErr != "" {
		h.element("span", fieldErr, "mt-1 block text-xs text-red-700")
	}
	h.raw("</label>")
}

func NotFoundPage() templ.Component {
	return component(func(h *htmlWriter) {
		h.element("h1", "Page not found", "mb-4 text-2xl font-bold")
		h.raw("<a")
		h.href("/")
		h.class(buttonClass(buttonSecondary)...)
		h.raw(">Back to the shop</a>")
	})
}

func ErrorPage(message string) templ.Component {
	return component(func(h *htmlWriter) {
		h.element("h1", "Something went wrong", "mb-4 text-2xl font-bold")
		h.element("p", message, "text-gray-600")
	})
}
