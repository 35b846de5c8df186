package cart

// Package cart holds the session-scoped shopping cart aggregate.

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/experina/storefront/internal/models"
)

var ErrInvalidQuantity = errors.New("invalid quantity")

// MaxLineQuantity is the largest quantity a single line may hold. It matches
// the order_items.quantity check constraint.
const MaxLineQuantity = 100000

// PriceResolver resolves the unit price for a quantity from a product's tiers.
type PriceResolver interface {
	UnitPrice(tiers []models.Price, quantity int) (decimal.Decimal, error)
}

// Selection holds the options chosen on the add form. All fields are optional.
type Selection struct {
	Size        string `json:"size"`
	Color       string `json:"color"`
	CustomImage string `json:"custom_image"`
	CustomColor string `json:"custom_color"`
}

// LineItem is one product in the cart. UnitPrice is a snapshot taken when the
// line was priced and is not recomputed by Update.
type LineItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Image       string          `json:"image"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Selection
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an insertion-ordered mapping from product id to line item.
// It is not safe for concurrent use.
type Cart struct {
	order []string
	lines map[string]LineItem
}

func New() *Cart {
	return &Cart{lines: make(map[string]LineItem)}
}

// Key is the cart key for a product id.
func Key(productID int64) string {
	return strconv.FormatInt(productID, 10)
}

// Add inserts the product with quantity and a freshly resolved price. When the
// product is already present, its quantity grows by exactly one and the price
// is re-resolved for the new total; the quantity argument is ignored.
// Selections on an existing line are kept.
func (c *Cart) Add(product *models.Product, selection Selection, quantity int, pricer PriceResolver) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	key := Key(product.ID)

	line, ok := c.lines[key]
	if !ok {
		if quantity < 1 || quantity > MaxLineQuantity {
			return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
		}
		price, err := pricer.UnitPrice(product.Prices, quantity)
		if err != nil {
			return err
		}
		c.put(LineItem{
			ProductID:   key,
			ProductName: product.Name,
			Image:       product.Image,
			Quantity:    quantity,
			UnitPrice:   price,
			Selection:   selection,
		})
		return nil
	}

	if line.Quantity >= MaxLineQuantity {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, line.Quantity+1)
	}
	price, err := pricer.UnitPrice(product.Prices, line.Quantity+1)
	if err != nil {
		return err
	}
	line.Quantity++
	line.UnitPrice = price
	c.lines[key] = line
	return nil
}

// Update replaces the stored quantity without re-pricing. An absent product
// gets a new line with quantity 1 priced for a single unit.
func (c *Cart) Update(product *models.Product, quantity int, pricer PriceResolver) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	if quantity < 1 || quantity > MaxLineQuantity {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	key := Key(product.ID)

	line, ok := c.lines[key]
	if !ok {
		price, err := pricer.UnitPrice(product.Prices, 1)
		if err != nil {
			return err
		}
		c.put(LineItem{
			ProductID:   key,
			ProductName: product.Name,
			Image:       product.Image,
			Quantity:    1,
			UnitPrice:   price,
		})
		return nil
	}

	line.Quantity = quantity
	c.lines[key] = line
	return nil
}

// Remove deletes the line for productID. It reports whether a line existed.
func (c *Cart) Remove(productID string) bool {
	if _, ok := c.lines[productID]; !ok {
		return false
	}
	delete(c.lines, productID)
	for i, key := range c.order {
		if key == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

func (c *Cart) Clear() {
	c.order = nil
	c.lines = make(map[string]LineItem)
}

func (c *Cart) Contains(productID string) bool {
	_, ok := c.lines[productID]
	return ok
}

func (c *Cart) Get(productID string) (LineItem, bool) {
	line, ok := c.lines[productID]
	return line, ok
}

// Items returns the line items in insertion order.
func (c *Cart) Items() []LineItem {
	items := make([]LineItem, 0, len(c.order))
	for _, key := range c.order {
		items = append(items, c.lines[key])
	}
	return items
}

// Len is the total number of units across all lines.
func (c *Cart) Len() int {
	total := 0
	for _, line := range c.lines {
		total += line.Quantity
	}
	return total
}

// Distinct is the number of lines.
func (c *Cart) Distinct() int {
	return len(c.order)
}

func (c *Cart) IsEmpty() bool {
	return len(c.order) == 0
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

func (c *Cart) put(line LineItem) {
	if _, ok := c.lines[line.ProductID]; !ok {
		c.order = append(c.order, line.ProductID)
	}
	c.lines[line.ProductID] = line
}
