package models

import (
	"github.com/shopspring/decimal"
)

type Size struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Color struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CustomerImage is a selectable image for products that allow a custom image.
type CustomerImage struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CustomerColor is a selectable color for products that allow a custom color.
type CustomerColor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Image    string `json:"image"`
	Featured bool   `json:"featured"`
}

// Price is a quantity tier: Amount applies to quantities within [MinQuantity, MaxQuantity].
type Price struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	Amount      decimal.Decimal `json:"amount"`
	MinQuantity int             `json:"min_quantity"`
	MaxQuantity int             `json:"max_quantity"`
}

// ProductRef is a lightweight pointer to another product, used for related products.
type ProductRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Image string `json:"image"`
}

type Product struct {
	ID                int64        `json:"id"`
	Name              string       `json:"name"`
	Slug              string       `json:"slug"`
	Description       string       `json:"description"`
	ExtraInfo         string       `json:"extra_info"`
	Image             string       `json:"image"`
	AllowsCustomImage bool         `json:"allows_custom_image"`
	AllowsCustomColor bool         `json:"allows_custom_color"`
	Featured          bool         `json:"featured"`
	MinOrder          int          `json:"min_order"`
	Prices            []Price      `json:"prices"`
	Sizes             []Size       `json:"sizes"`
	Colors            []Color      `json:"colors"`
	Categories        []Category   `json:"categories"`
	Related           []ProductRef `json:"related"`
}

func (p *Product) HasSize(name string) bool {
	if p == nil {
		return false
	}
	for _, size := range p.Sizes {
		if size.Name == name {
			return true
		}
	}
	return false
}

func (p *Product) HasColor(name string) bool {
	if p == nil {
		return false
	}
	for _, color := range p.Colors {
		if color.Name == name {
			return true
		}
	}
	return false
}

// Catalog is a full catalog snapshot used by the seed importer.
// Product relations reference sizes and colors by name and categories and
// related products by slug.
type Catalog struct {
	Categories     []Category
	Sizes          []Size
	Colors         []Color
	CustomerImages []CustomerImage
	CustomerColors []CustomerColor
	Products       []Product
}
