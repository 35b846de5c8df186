// Package views renders storefront pages as templ components.
package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/shopspring/decimal"
)

// htmlWriter keeps the first write error so components can emit markup
// without checking every call.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newHTMLWriter(ctx context.Context, w io.Writer) *htmlWriter {
	return &htmlWriter{ctx: ctx, w: w}
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) attr(name, value string) {
	h.raw(" " + name + "=\"" + templ.EscapeString(value) + "\"")
}

func (h *htmlWriter) href(url string) {
	h.attr("href", string(templ.URL(url)))
}

func (h *htmlWriter) class(classes ...string) {
	h.attr("class", twmerge.Merge(classes...))
}

func (h *htmlWriter) open(tag string, classes ...string) {
	h.raw("<" + tag)
	if len(classes) > 0 {
		h.class(classes...)
	}
	h.raw(">")
}

func (h *htmlWriter) close(tag string) {
	h.raw("</" + tag + ">")
}

func (h *htmlWriter) element(tag, content string, classes ...string) {
	h.open(tag, classes...)
	h.text(content)
	h.close(tag)
}

func (h *htmlWriter) render(c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}

func component(fn func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		fn(h)
		return h.err
	})
}

// FormatMoney renders an amount the way the shop prints prices.
func FormatMoney(amount decimal.Decimal) string {
	return "€ " + amount.StringFixed(2)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func itoa64(n int64) string {
	return strconv.FormatInt(n, 10)
}

const (
	buttonBase      = "inline-flex items-center justify-center rounded px-4 py-2 text-sm font-medium"
	buttonPrimary   = "bg-gray-900 text-white"
	buttonSecondary = "border border-gray-300 bg-white text-gray-900"
	inputBase       = "block w-full rounded border border-gray-300 px-3 py-2 text-sm"
)

func buttonClass(variant string, extra ...string) []string {
	return append([]string{buttonBase, variant}, extra...)
}
