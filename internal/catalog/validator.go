package catalog

// Package catalog provides catalog seed validation.

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	maxTierQuantity = 100000
	maxMinOrder     = 10000
)

// maxAmount fits NUMERIC(7,2).
var maxAmount = decimal.RequireFromString("99999.99")

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Validate(config *SeedConfig) error {
	if config == nil {
		return fmt.Errorf("catalog seed is required")
	}

	categorySlugs := make(map[string]bool)
	for i, category := range config.Categories {
		if strings.TrimSpace(category.Name) == "" {
			return fmt.Errorf("category %d validation failed: category name is required", i)
		}
		if category.Slug == "" {
			return fmt.Errorf("category %d validation failed: category slug is required", i)
		}
		if categorySlugs[category.Slug] {
			return fmt.Errorf("duplicate category slug: %s", category.Slug)
		}
		categorySlugs[category.Slug] = true
	}

	sizes, err := uniqueNames("size", config.Sizes)
	if err != nil {
		return err
	}
	colors, err := uniqueNames("color", config.Colors)
	if err != nil {
		return err
	}
	if _, err := uniqueNames("customer image", config.CustomerImages); err != nil {
		return err
	}
	if _, err := uniqueNames("customer color", config.CustomerColors); err != nil {
		return err
	}

	productSlugs := make(map[string]bool)
	for _, product := range config.Products {
		productSlugs[product.Slug] = true
	}

	seen := make(map[string]bool)
	for i, product := range config.Products {
		if err := v.validateProduct(&product, categorySlugs, sizes, colors, productSlugs); err != nil {
			return fmt.Errorf("product %d validation failed: %w", i, err)
		}

		if seen[product.Slug] {
			return fmt.Errorf("duplicate product slug: %s", product.Slug)
		}
		seen[product.Slug] = true
	}

	return nil
}

func (v *Validator) validateProduct(product *ProductConfig, categories, sizes, colors, products map[string]bool) error {
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("product name is required")
	}
	if product.Slug == "" {
		return fmt.Errorf("product slug is required")
	}
	if product.MinOrder < 1 || product.MinOrder > maxMinOrder {
		return fmt.Errorf("product min order must be between 1 and %d", maxMinOrder)
	}

	for _, slug := range product.Categories {
		if !categories[slug] {
			return fmt.Errorf("unknown category: %s", slug)
		}
	}
	for _, size := range product.Sizes {
		if !sizes[size] {
			return fmt.Errorf("unknown size: %s", size)
		}
	}
	for _, color := range product.Colors {
		if !colors[color] {
			return fmt.Errorf("unknown color: %s", color)
		}
	}
	for _, slug := range product.Related {
		if slug == product.Slug {
			return fmt.Errorf("product cannot be related to itself")
		}
		if !products[slug] {
			return fmt.Errorf("unknown related product: %s", slug)
		}
	}

	for i, price := range product.Prices {
		if err := v.validatePrice(&price); err != nil {
			return fmt.Errorf("price %d validation failed: %w", i, err)
		}
	}

	return nil
}

// validatePrice does not require MinQuantity <= MaxQuantity; inverted tiers are
// tolerated and never match during resolution.
func (v *Validator) validatePrice(price *PriceConfig) error {
	amount, err := decimal.NewFromString(strings.TrimSpace(price.Amount))
	if err != nil {
		return fmt.Errorf("price amount %q is not a decimal", price.Amount)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("price amount must be positive")
	}
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("price amount must not exceed %s", maxAmount.StringFixed(2))
	}
	if amount.Exponent() < -2 && !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("price amount must have at most 2 decimal places")
	}

	if price.MinQuantity < 1 || price.MinQuantity > maxTierQuantity {
		return fmt.Errorf("min quantity must be between 1 and %d", maxTierQuantity)
	}
	if price.MaxQuantity < 1 || price.MaxQuantity > maxTierQuantity {
		return fmt.Errorf("max quantity must be between 1 and %d", maxTierQuantity)
	}

	return nil
}

func uniqueNames(kind string, names []string) (map[string]bool, error) {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%s name is required", kind)
		}
		if set[name] {
			return nil, fmt.Errorf("duplicate %s: %s", kind, name)
		}
		set[name] = true
	}
	return set, nil
}
