package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/experina/storefront/internal/models"
)

type CatalogStore struct {
	pool *pgxpool.Pool
}

func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

const productColumns = `p.id, p.name, p.slug, p.description, p.extra_info, p.image,
	p.allows_custom_image, p.allows_custom_color, p.featured, p.min_order`

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.ExtraInfo, &p.Image,
		&p.AllowsCustomImage, &p.AllowsCustomColor, &p.Featured, &p.MinOrder,
	)
	return p, err
}

func (s *CatalogStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.getProduct(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id)
}

func (s *CatalogStore) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.getProduct(ctx, `SELECT `+productColumns+` FROM products p WHERE p.slug = $1`, slug)
}

func (s *CatalogStore) getProduct(ctx context.Context, query string, arg any) (*models.Product, error) {
	product, err := scanProduct(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, notFound(err)
	}
	products := []models.Product{product}
	if err := s.loadRelations(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// GetProductsByIDs returns the products that still exist; missing ids are skipped.
func (s *CatalogStore) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.listProducts(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = ANY($1) ORDER BY p.id`, ids)
}

func (s *CatalogStore) ListFeaturedProducts(ctx context.Context, limit int) ([]models.Product, error) {
	return s.listProducts(ctx, `SELECT `+productColumns+` FROM products p WHERE p.featured ORDER BY p.id LIMIT $1`, limit)
}

func (s *CatalogStore) ListProductsByCategory(ctx context.Context, categoryID int64) ([]models.Product, error) {
	return s.listProducts(ctx, `
		SELECT `+productColumns+`
		FROM products p
		JOIN product_categories pc ON pc.product_id = p.id
		WHERE pc.category_id = $1
		ORDER BY p.name, p.id
	`, categoryID)
}

// SearchProducts returns distinct products where any term is contained,
// case-insensitively, in the product name or in the name of one of its
// categories, sizes or colors.
func (s *CatalogStore) SearchProducts(ctx context.Context, terms []string) ([]models.Product, error) {
	patterns := make([]string, 0, len(terms))
	for _, term := range terms {
		if term == "" {
			continue
		}
		patterns = append(patterns, "%"+escapeLike(term)+"%")
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	return s.listProducts(ctx, `
		SELECT DISTINCT `+productColumns+`
		FROM products p
		LEFT JOIN product_categories pc ON pc.product_id = p.id
		LEFT JOIN categories c ON c.id = pc.category_id
		LEFT JOIN product_sizes ps ON ps.product_id = p.id
		LEFT JOIN sizes sz ON sz.id = ps.size_id
		LEFT JOIN product_colors pco ON pco.product_id = p.id
		LEFT JOIN colors co ON co.id = pco.color_id
		WHERE p.name ILIKE ANY($1)
		   OR c.name ILIKE ANY($1)
		   OR sz.name ILIKE ANY($1)
		   OR co.name ILIKE ANY($1)
		ORDER BY p.name, p.id
	`, patterns)
}

func (s *CatalogStore) listProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, err
	}
	if err := s.loadRelations(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// loadRelations fills prices, sizes, colors, categories and related products.
func (s *CatalogStore) loadRelations(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, len(products))
	index := make(map[int64]*models.Product, len(products))
	for i := range products {
		ids[i] = products[i].ID
		index[products[i].ID] = &products[i]
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, amount, min_quantity, max_quantity
		FROM prices WHERE product_id = ANY($1)
		ORDER BY product_id, amount, min_quantity, id
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load prices: %w", err)
	}
	prices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Price, error) {
		var price models.Price
		err := row.Scan(&price.ID, &price.ProductID, &price.Amount, &price.MinQuantity, &price.MaxQuantity)
		return price, err
	})
	if err != nil {
		return fmt.Errorf("failed to load prices: %w", err)
	}
	for _, price := range prices {
		product := index[price.ProductID]
		product.Prices = append(product.Prices, price)
	}

	err = s.eachLink(ctx, `
		SELECT ps.product_id, sz.id, sz.name FROM product_sizes ps
		JOIN sizes sz ON sz.id = ps.size_id
		WHERE ps.product_id = ANY($1) ORDER BY sz.name
	`, ids, func(productID, id int64, name string) {
		index[productID].Sizes = append(index[productID].Sizes, models.Size{ID: id, Name: name})
	})
	if err != nil {
		return fmt.Errorf("failed to load sizes: %w", err)
	}

	err = s.eachLink(ctx, `
		SELECT pc.product_id, co.id, co.name FROM product_colors pc
		JOIN colors co ON co.id = pc.color_id
		WHERE pc.product_id = ANY($1) ORDER BY co.name
	`, ids, func(productID, id int64, name string) {
		index[productID].Colors = append(index[productID].Colors, models.Color{ID: id, Name: name})
	})
	if err != nil {
		return fmt.Errorf("failed to load colors: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT pc.product_id, c.id, c.name, c.slug, c.image, c.featured FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = ANY($1) ORDER BY c.name
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	var productID int64
	var category models.Category
	_, err = pgx.ForEachRow(rows, []any{&productID, &category.ID, &category.Name, &category.Slug, &category.Image, &category.Featured}, func() error {
		index[productID].Categories = append(index[productID].Categories, category)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT r.product_id, p.id, p.name, p.slug, p.image FROM related_products r
		JOIN products p ON p.id = r.related_id
		WHERE r.product_id = ANY($1) ORDER BY p.name
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load related products: %w", err)
	}
	var related models.ProductRef
	_, err = pgx.ForEachRow(rows, []any{&productID, &related.ID, &related.Name, &related.Slug, &related.Image}, func() error {
		index[productID].Related = append(index[productID].Related, related)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load related products: %w", err)
	}

	return nil
}

func (s *CatalogStore) eachLink(ctx context.Context, query string, ids []int64, fn func(productID, id int64, name string)) error {
	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	var productID, id int64
	var name string
	_, err = pgx.ForEachRow(rows, []any{&productID, &id, &name}, func() error {
		fn(productID, id, name)
		return nil
	})
	return err
}

const categoryColumns = `id, name, slug, image, featured`

func collectCategories(rows pgx.Rows) ([]models.Category, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Category, error) {
		var c models.Category
		err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Image, &c.Featured)
		return c, err
	})
}

func (s *CatalogStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

func (s *CatalogStore) ListFeaturedCategories(ctx context.Context, limit int) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE featured ORDER BY name LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

func (s *CatalogStore) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	err := s.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Image, &c.Featured)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *CatalogStore) ListCustomerImages(ctx context.Context) ([]models.CustomerImage, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM customer_images ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[models.CustomerImage])
}

func (s *CatalogStore) ListCustomerColors(ctx context.Context) ([]models.CustomerColor, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM customer_colors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[models.CustomerColor])
}

// ImportCatalog upserts the snapshot in one transaction. Products and
// categories are matched by slug, option values by name. Prices and product
// relations are replaced; related products are stored in both directions.
func (s *CatalogStore) ImportCatalog(ctx context.Context, catalog *models.Catalog) error {
	if catalog == nil {
		return fmt.Errorf("catalog is required")
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		categoryIDs := make(map[string]int64, len(catalog.Categories))
		for _, c := range catalog.Categories {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO categories (name, slug, image, featured) VALUES ($1, $2, $3, $4)
				ON CONFLICT (slug) DO UPDATE
				SET name = EXCLUDED.name, image = EXCLUDED.image, featured = EXCLUDED.featured
				RETURNING id
			`, c.Name, c.Slug, c.Image, c.Featured).Scan(&id)
			if err != nil {
				return fmt.Errorf("failed to upsert category %s: %w", c.Slug, err)
			}
			categoryIDs[c.Slug] = id
		}

		sizeIDs, err := upsertNames(ctx, tx, "sizes", sizeNames(catalog.Sizes))
		if err != nil {
			return err
		}
		colorIDs, err := upsertNames(ctx, tx, "colors", colorNames(catalog.Colors))
		if err != nil {
			return err
		}
		images := make([]string, 0, len(catalog.CustomerImages))
		for _, image := range catalog.CustomerImages {
			images = append(images, image.Name)
		}
		if _, err := upsertNames(ctx, tx, "customer_images", images); err != nil {
			return err
		}
		colors := make([]string, 0, len(catalog.CustomerColors))
		for _, color := range catalog.CustomerColors {
			colors = append(colors, color.Name)
		}
		if _, err := upsertNames(ctx, tx, "customer_colors", colors); err != nil {
			return err
		}

		productIDs := make(map[string]int64, len(catalog.Products))
		for _, p := range catalog.Products {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO products (name, slug, description, extra_info, image,
					allows_custom_image, allows_custom_color, featured, min_order)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (slug) DO UPDATE
				SET name = EXCLUDED.name, description = EXCLUDED.description,
					extra_info = EXCLUDED.extra_info, image = EXCLUDED.image,
					allows_custom_image = EXCLUDED.allows_custom_image,
					allows_custom_color = EXCLUDED.allows_custom_color,
					featured = EXCLUDED.featured, min_order = EXCLUDED.min_order
				RETURNING id
			`, p.Name, p.Slug, p.Description, p.ExtraInfo, p.Image,
				p.AllowsCustomImage, p.AllowsCustomColor, p.Featured, p.MinOrder).Scan(&id)
			if err != nil {
				return fmt.Errorf("failed to upsert product %s: %w", p.Slug, err)
			}
			productIDs[p.Slug] = id

			for _, table := range []string{"prices", "product_categories", "product_sizes", "product_colors"} {
				if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE product_id = $1`, id); err != nil {
					return fmt.Errorf("failed to reset %s for %s: %w", table, p.Slug, err)
				}
			}
			if _, err := tx.Exec(ctx, `DELETE FROM related_products WHERE product_id = $1 OR related_id = $1`, id); err != nil {
				return fmt.Errorf("failed to reset related products for %s: %w", p.Slug, err)
			}

			for _, price := range p.Prices {
				if _, err := tx.Exec(ctx, `
					INSERT INTO prices (product_id, amount, min_quantity, max_quantity) VALUES ($1, $2, $3, $4)
				`, id, price.Amount, price.MinQuantity, price.MaxQuantity); err != nil {
					return fmt.Errorf("failed to insert price for %s: %w", p.Slug, err)
				}
			}
			for _, c := range p.Categories {
				if err := link(ctx, tx, `INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, categoryIDs, c.Slug); err != nil {
					return err
				}
			}
			for _, size := range p.Sizes {
				if err := link(ctx, tx, `INSERT INTO product_sizes (product_id, size_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, sizeIDs, size.Name); err != nil {
					return err
				}
			}
			for _, color := range p.Colors {
				if err := link(ctx, tx, `INSERT INTO product_colors (product_id, color_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, colorIDs, color.Name); err != nil {
					return err
				}
			}
		}

		for _, p := range catalog.Products {
			id := productIDs[p.Slug]
			for _, related := range p.Related {
				relatedID, ok := productIDs[related.Slug]
				if !ok {
					return fmt.Errorf("unknown related product: %s", related.Slug)
				}
				if _, err := tx.Exec(ctx, `
					INSERT INTO related_products (product_id, related_id)
					VALUES ($1, $2), ($2, $1)
					ON CONFLICT DO NOTHING
				`, id, relatedID); err != nil {
					return fmt.Errorf("failed to relate %s to %s: %w", p.Slug, related.Slug, err)
				}
			}
		}

		return nil
	})
}

func upsertNames(ctx context.Context, tx pgx.Tx, table string, names []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(names))
	for _, name := range names {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO `+table+` (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, name).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert %s %q: %w", table, name, err)
		}
		ids[name] = id
	}
	return ids, nil
}

func link(ctx context.Context, tx pgx.Tx, query string, productID int64, ids map[string]int64, key string) error {
	id, ok := ids[key]
	if !ok {
		return fmt.Errorf("unknown reference: %s", key)
	}
	if _, err := tx.Exec(ctx, query, productID, id); err != nil {
		return fmt.Errorf("failed to link %s: %w", key, err)
	}
	return nil
}

func sizeNames(sizes []models.Size) []string {
	names := make([]string, 0, len(sizes))
	for _, size := range sizes {
		names = append(names, size.Name)
	}
	return names
}

func colorNames(colors []models.Color) []string {
	names := make([]string, 0, len(colors))
	for _, color := range colors {
		names = append(names, color.Name)
	}
	return names
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
