package catalog

// Package catalog provides tiered price resolution and catalog seed handling.

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/experina/storefront/internal/models"
)

var ErrNoPriceTiers = errors.New("product has no price tiers")

type Pricer struct{}

func NewPricer() *Pricer {
	return &Pricer{}
}

// Resolve picks the price tier for quantity.
//
// Tiers whose range contains quantity win, cheapest first. When quantity falls
// into a gap or outside every range, the tier with the lowest min quantity is
// returned instead of failing.
func (p *Pricer) Resolve(tiers []models.Price, quantity int) (models.Price, error) {
	if len(tiers) == 0 {
		return models.Price{}, ErrNoPriceTiers
	}

	matches := make([]models.Price, 0, len(tiers))
	for _, tier := range tiers {
		if tier.MinQuantity <= quantity && quantity <= tier.MaxQuantity {
			matches = append(matches, tier)
		}
	}

	if len(matches) > 0 {
		sort.SliceStable(matches, func(i, j int) bool {
			if !matches[i].Amount.Equal(matches[j].Amount) {
				return matches[i].Amount.LessThan(matches[j].Amount)
			}
			if matches[i].MinQuantity != matches[j].MinQuantity {
				return matches[i].MinQuantity < matches[j].MinQuantity
			}
			return matches[i].ID < matches[j].ID
		})
		return matches[0], nil
	}

	fallback := tiers[0]
	for _, tier := range tiers[1:] {
		if tier.MinQuantity < fallback.MinQuantity ||
			(tier.MinQuantity == fallback.MinQuantity && tier.Amount.LessThan(fallback.Amount)) {
			fallback = tier
		}
	}
	return fallback, nil
}

// UnitPrice is Resolve reduced to the amount.
func (p *Pricer) UnitPrice(tiers []models.Price, quantity int) (decimal.Decimal, error) {
	tier, err := p.Resolve(tiers, quantity)
	if err != nil {
		return decimal.Zero, err
	}
	return tier.Amount, nil
}

// MinimumOrderQuantity is the smallest min quantity across tiers.
// It reports false when there are no tiers.
func (p *Pricer) MinimumOrderQuantity(tiers []models.Price) (int, bool) {
	if len(tiers) == 0 {
		return 0, false
	}
	minimum := tiers[0].MinQuantity
	for _, tier := range tiers[1:] {
		if tier.MinQuantity < minimum {
			minimum = tier.MinQuantity
		}
	}
	return minimum, true
}

// MaximumOrderQuantity is the largest max quantity across tiers.
// It reports false when there are no tiers.
func (p *Pricer) MaximumOrderQuantity(tiers []models.Price) (int, bool) {
	if len(tiers) == 0 {
		return 0, false
	}
	maximum := tiers[0].MaxQuantity
	for _, tier := range tiers[1:] {
		if tier.MaxQuantity > maximum {
			maximum = tier.MaxQuantity
		}
	}
	return maximum, true
}

// PriceRange returns the cheapest and most expensive tier amounts.
func (p *Pricer) PriceRange(tiers []models.Price) (decimal.Decimal, decimal.Decimal, bool) {
	if len(tiers) == 0 {
		return decimal.Zero, decimal.Zero, false
	}
	low, high := tiers[0].Amount, tiers[0].Amount
	for _, tier := range tiers[1:] {
		low = decimal.Min(low, tier.Amount)
		high = decimal.Max(high, tier.Amount)
	}
	return low, high, true
}
