package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/experina/storefront/internal/email"
	"github.com/experina/storefront/internal/models"
)

// BuildOrderInfo builds a consistent OrderInfo payload for email templates.
func BuildOrderInfo(order *models.Order, shopName, shopURL string) *email.OrderInfo {
	info := &email.OrderInfo{
		ShopName: shopName,
		ShopURL:  strings.TrimRight(shopURL, "/"),
		Total:    formatPrice(decimal.Zero),
	}
	if order == nil {
		return info
	}

	orderDate := order.CreatedAt
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	info.OrderNumber = order.Number()
	info.OrderDate = orderDate.Format("January 2, 2006 15:04")
	info.FirstName = strings.TrimSpace(order.FirstName)
	info.CustomerName = strings.TrimSpace(order.CustomerName())
	info.CustomerEmail = strings.TrimSpace(order.Email)
	info.Address = strings.TrimSpace(order.Address)
	info.PostalCode = strings.TrimSpace(order.PostalCode)
	info.City = strings.TrimSpace(order.City)
	info.Remarks = strings.TrimSpace(order.Remarks)
	info.Total = formatPrice(order.Total())

	info.Items = make([]email.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		info.Items = append(info.Items, email.OrderItem{
			Name:       item.ProductName,
			Options:    itemOptions(item),
			Quantity:   item.Quantity,
			UnitPrice:  formatPrice(item.UnitPrice),
			TotalPrice: formatPrice(item.LineTotal()),
		})
	}
	return info
}

func formatPrice(amount decimal.Decimal) string {
	return "€ " + amount.StringFixed(2)
}

func itemOptions(item models.OrderItem) string {
	parts := make([]string, 0, 4)
	for _, option := range []struct{ label, value string }{
		{"Size", item.Size},
		{"Color", item.Color},
		{"Image", item.CustomImage},
		{"Custom color", item.CustomColor},
	} {
		if value := strings.TrimSpace(option.value); value != "" {
			parts = append(parts, option.label+": "+value)
		}
	}
	return strings.Join(parts, ", ")
}
