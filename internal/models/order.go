package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID         int64       `json:"id"`
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	Email      string      `json:"email"`
	Address    string      `json:"address"`
	PostalCode string      `json:"postal_code"`
	City       string      `json:"city"`
	Remarks    string      `json:"remarks"`
	CreatedAt  time.Time   `json:"created_at"`
	Items      []OrderItem `json:"items"`
}

// OrderItem is a denormalized copy of a cart line taken at checkout time.
// ProductID is nil once the referenced product has been deleted.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   *int64          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	CustomImage string          `json:"custom_image"`
	CustomColor string          `json:"custom_color"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Image       string          `json:"image"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total is derived from the items and never stored.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	if o == nil {
		return total
	}
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (o *Order) Number() string {
	if o == nil {
		return ""
	}
	return fmt.Sprintf("#0%d", o.ID)
}

func (o *Order) CustomerName() string {
	if o == nil {
		return ""
	}
	return o.FirstName + " " + o.LastName
}
