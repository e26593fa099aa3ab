// Package cart holds a customer's in-progress selection of products.
//
// A Cart is owned by whoever creates it; nothing here is global. Totals are
// derived from the current lines on every read.
package cart

import (
	"encoding/json"

	"quiosco/order-svc/internal/domain"
)

type Cart struct {
	lines []domain.LineItem
}

func New() *Cart {
	return &Cart{}
}

// Add appends the product as a new line or bumps the quantity of its existing line.
func (c *Cart) Add(p domain.Product) {
	if i := c.index(p.ID); i >= 0 {
		c.setQuantity(i, c.lines[i].Quantity+1)
		return
	}
	c.lines = append(c.lines, domain.LineItem{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Quantity: 1,
		Subtotal: p.Price,
	})
}

func (c *Cart) Increase(productID int) {
	if i := c.index(productID); i >= 0 {
		c.setQuantity(i, c.lines[i].Quantity+1)
	}
}

// Decrease never takes a line below one unit; use Remove to drop it.
func (c *Cart) Decrease(productID int) {
	i := c.index(productID)
	if i < 0 || c.lines[i].Quantity <= 1 {
		return
	}
	c.setQuantity(i, c.lines[i].Quantity-1)
}

func (c *Cart) Remove(productID int) {
	if i := c.index(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Items() []domain.LineItem {
	out := make([]domain.LineItem, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) Total() float64 {
	var total float64
	for _, line := range c.lines {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

// Checkout builds the payload submitted to order creation.
func (c *Cart) Checkout(name, phone string) domain.OrderInput {
	return domain.OrderInput{
		Name:  name,
		Phone: phone,
		Total: c.Total(),
		Order: c.Items(),
	}
}

func (c *Cart) index(productID int) int {
	for i, line := range c.lines {
		if line.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) setQuantity(i, quantity int) {
	c.lines[i].Quantity = quantity
	c.lines[i].Subtotal = c.lines[i].Price * float64(quantity)
}

type snapshot struct {
	Items     []domain.LineItem `json:"items"`
	Total     float64           `json:"total"`
	ItemCount int               `json:"itemCount"`
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	items := c.Items()
	return json.Marshal(snapshot{Items: items, Total: c.Total(), ItemCount: c.ItemCount()})
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	c.lines = nil
	for _, line := range s.Items {
		if line.Quantity < 1 {
			line.Quantity = 1
		}
		line.Subtotal = line.Price * float64(line.Quantity)
		c.lines = append(c.lines, line)
	}
	return nil
}
