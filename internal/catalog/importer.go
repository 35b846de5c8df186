package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/experina/storefront/internal/logging"
	"github.com/experina/storefront/internal/models"
)

type catalogWriter interface {
	ImportCatalog(ctx context.Context, catalog *models.Catalog) error
}

// Importer loads a seed file into the catalog store.
type Importer struct {
	parser    *Parser
	validator *Validator
	store     catalogWriter
	logger    *slog.Logger
}

func NewImporter(store catalogWriter, logger *slog.Logger) *Importer {
	return &Importer{
		parser:    NewParser(),
		validator: NewValidator(),
		store:     store,
		logger:    logger,
	}
}

func (i *Importer) ImportFile(ctx context.Context, path string) error {
	config, err := i.parser.ParseFile(path)
	if err != nil {
		return err
	}
	return i.Import(ctx, config)
}

func (i *Importer) Import(ctx context.Context, config *SeedConfig) error {
	if err := i.validator.Validate(config); err != nil {
		return fmt.Errorf("invalid catalog seed: %w", err)
	}

	snapshot := BuildCatalog(config)
	if err := i.store.ImportCatalog(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to import catalog: %w", err)
	}

	logging.FromContext(ctx, i.logger).Info("catalog imported",
		"categories", len(snapshot.Categories),
		"products", len(snapshot.Products),
	)
	return nil
}

// BuildCatalog converts a validated seed into a catalog snapshot.
func BuildCatalog(config *SeedConfig) *models.Catalog {
	snapshot := &models.Catalog{}

	for _, category := range config.Categories {
		snapshot.Categories = append(snapshot.Categories, models.Category{
			Name:     strings.TrimSpace(category.Name),
			Slug:     category.Slug,
			Image:    category.Image,
			Featured: category.Featured,
		})
	}
	for _, name := range config.Sizes {
		snapshot.Sizes = append(snapshot.Sizes, models.Size{Name: name})
	}
	for _, name := range config.Colors {
		snapshot.Colors = append(snapshot.Colors, models.Color{Name: name})
	}
	for _, name := range config.CustomerImages {
		snapshot.CustomerImages = append(snapshot.CustomerImages, models.CustomerImage{Name: name})
	}
	for _, name := range config.CustomerColors {
		snapshot.CustomerColors = append(snapshot.CustomerColors, models.CustomerColor{Name: name})
	}

	for _, product := range config.Products {
		converted := models.Product{
			Name:              strings.TrimSpace(product.Name),
			Slug:              product.Slug,
			Description:       product.Description,
			ExtraInfo:         product.ExtraInfo,
			Image:             product.Image,
			AllowsCustomImage: product.AllowsCustomImage,
			AllowsCustomColor: product.AllowsCustomColor,
			Featured:          product.Featured,
			MinOrder:          product.MinOrder,
		}
		for _, slug := range product.Categories {
			converted.Categories = append(converted.Categories, models.Category{Slug: slug})
		}
		for _, name := range product.Sizes {
			converted.Sizes = append(converted.Sizes, models.Size{Name: name})
		}
		for _, name := range product.Colors {
			converted.Colors = append(converted.Colors, models.Color{Name: name})
		}
		for _, slug := range product.Related {
			converted.Related = append(converted.Related, models.ProductRef{Slug: slug})
		}
		for _, price := range product.Prices {
			converted.Prices = append(converted.Prices, models.Price{
				Amount:      decimal.RequireFromString(strings.TrimSpace(price.Amount)).Round(2),
				MinQuantity: price.MinQuantity,
				MaxQuantity: price.MaxQuantity,
			})
		}
		snapshot.Products = append(snapshot.Products, converted)
	}

	return snapshot
}
