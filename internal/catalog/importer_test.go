package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/experina/storefront/internal/models"
)

type recordingWriter struct {
	catalog *models.Catalog
	err     error
}

func (w *recordingWriter) ImportCatalog(_ context.Context, catalog *models.Catalog) error {
	w.catalog = catalog
	return w.err
}

func TestImporter_Import(t *testing.T) {
	t.Parallel()

	config, err := NewParser().ParseFromString(testSeed)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	writer := &recordingWriter{}
	importer := NewImporter(writer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := importer.Import(context.Background(), config); err != nil {
		t.Fatalf("unexpected import error: %v", err)
	}

	if writer.catalog == nil {
		t.Fatalf("expected catalog to be written")
	}
	if len(writer.catalog.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(writer.catalog.Products))
	}
	shirt := writer.catalog.Products[0]
	if len(shirt.Prices) != 2 || !shirt.Prices[0].Amount.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("unexpected shirt prices: %+v", shirt.Prices)
	}
	if len(shirt.Related) != 1 || shirt.Related[0].Slug != "club-scarf" {
		t.Fatalf("unexpected related products: %+v", shirt.Related)
	}
	if len(writer.catalog.CustomerImages) != 1 || writer.catalog.CustomerImages[0].Name != "Club logo" {
		t.Fatalf("unexpected customer images: %+v", writer.catalog.CustomerImages)
	}
}

func TestImporter_RejectsInvalidSeed(t *testing.T) {
	t.Parallel()

	config := validSeed()
	config.Products[0].Categories = []string{"missing"}

	writer := &recordingWriter{}
	importer := NewImporter(writer, nil)
	if err := importer.Import(context.Background(), config); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if writer.catalog != nil {
		t.Fatalf("expected nothing to be written")
	}
}

func TestImporter_WrapsStoreError(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("boom")
	importer := NewImporter(&recordingWriter{err: storeErr}, nil)
	err := importer.Import(context.Background(), validSeed())
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
