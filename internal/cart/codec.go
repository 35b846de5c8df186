package cart

import (
	"encoding/json"
	"fmt"
)

// Encode serializes the cart as a JSON array of line items in insertion order.
func Encode(c *Cart) (json.RawMessage, error) {
	if c == nil {
		c = New()
	}
	data, err := json.Marshal(c.Items())
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart: %w", err)
	}
	return data, nil
}

// Decode restores a cart produced by Encode. Empty input yields an empty cart.
// Lines without a product id or with a non-positive quantity are dropped.
func Decode(raw json.RawMessage) (*Cart, error) {
	c := New()
	if len(raw) == 0 || string(raw) == "null" {
		return c, nil
	}

	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	for _, item := range items {
		if item.ProductID == "" || item.Quantity < 1 {
			continue
		}
		c.put(item)
	}
	return c, nil
}
