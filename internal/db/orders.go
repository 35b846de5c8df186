package db

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/experina/storefront/internal/models"
)

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// CreateWithItems inserts the order and all its items in one transaction.
// IDs and CreatedAt are written back only after the commit succeeds.
func (s *OrderStore) CreateWithItems(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}

	var (
		orderID   int64
		createdAt time.Time
		itemIDs   = make([]int64, len(order.Items))
	)
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO orders (first_name, last_name, email, address, postal_code, city, remarks)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`, order.FirstName, order.LastName, order.Email, order.Address,
			order.PostalCode, order.City, order.Remarks).Scan(&orderID, &createdAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i, item := range order.Items {
			quantity, err := intToInt32(item.Quantity, "quantity")
			if err != nil {
				return err
			}
			err = tx.QueryRow(ctx, `
				INSERT INTO order_items (order_id, product_id, product_name, size, color,
					custom_image, custom_color, unit_price, quantity, image)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				RETURNING id
			`, orderID, item.ProductID, item.ProductName, item.Size, item.Color,
				item.CustomImage, item.CustomColor, item.UnitPrice, quantity, item.Image).Scan(&itemIDs[i])
			if err != nil {
				return fmt.Errorf("failed to insert order item %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	order.ID = orderID
	order.CreatedAt = createdAt
	for i := range order.Items {
		order.Items[i].ID = itemIDs[i]
		order.Items[i].OrderID = orderID
	}
	return nil
}

func intToInt32(value int, name string) (int32, error) {
	if value < math.MinInt32 || value > math.MaxInt32 {
		return 0, fmt.Errorf("%s out of int32 range: %d", name, value)
	}
	return int32(value), nil
}
