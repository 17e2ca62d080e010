// Package cart holds the in-progress sale.
package cart

import (
	"fmt"
	"slices"
	"time"

	"kasirlokal/backend/internal/domain"
	"kasirlokal/backend/internal/store"
)

// Cart keeps one line per product id, in the order products were first added.
type Cart struct {
	lines []domain.CartLine
	now   func() time.Time
}

func New(lines []domain.CartLine, now func() time.Time) *Cart {
	if now == nil {
		now = time.Now
	}
	return &Cart{lines: slices.Clone(lines), now: now}
}

func (c *Cart) Clone() *Cart {
	return &Cart{lines: slices.Clone(c.lines), now: c.now}
}

// Add puts qty of product in the cart. An existing line for the same product
// keeps its original snapshot and only grows in quantity. Stock is not
// checked here.
func (c *Cart) Add(product domain.Product, qty int) (domain.CartLine, error) {
	if qty < 1 {
		return domain.CartLine{}, fmt.Errorf("%w: quantity must be at least 1", store.ErrInvalidInput)
	}

	if idx := c.indexOf(product.ID); idx >= 0 {
		line := &c.lines[idx]
		line.Quantity += qty
		line.Subtotal = line.Price * int64(line.Quantity)
		return *line, nil
	}

	line := domain.CartLine{
		Product:  product,
		Quantity: qty,
		Subtotal: product.Price * int64(qty),
		AddedAt:  c.now().UTC(),
	}
	c.lines = append(c.lines, line)
	return line, nil
}

// SetQuantity replaces the quantity of a line. Zero or less removes it.
func (c *Cart) SetQuantity(id string, qty int) error {
	if qty <= 0 {
		c.Remove(id)
		return nil
	}
	idx := c.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: cart line %s", store.ErrNotFound, id)
	}
	c.lines[idx].Quantity = qty
	c.lines[idx].Subtotal = c.lines[idx].Price * int64(qty)
	return nil
}

// Remove deletes the line for id and reports whether one was there.
func (c *Cart) Remove(id string) bool {
	idx := c.indexOf(id)
	if idx < 0 {
		return false
	}
	c.lines = slices.Delete(c.lines, idx, idx+1)
	return true
}

func (c *Cart) Clear() {
	c.lines = []domain.CartLine{}
}

func (c *Cart) Lines() []domain.CartLine {
	out := slices.Clone(c.lines)
	if out == nil {
		out = []domain.CartLine{}
	}
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) Total() int64 {
	var total int64
	for _, line := range c.lines {
		total += line.Subtotal
	}
	return total
}

// ItemCount sums quantities, not lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

func (c *Cart) Summary() domain.CartSummary {
	return domain.CartSummary{
		Lines:     c.Lines(),
		Total:     c.Total(),
		ItemCount: c.ItemCount(),
	}
}

func (c *Cart) indexOf(id string) int {
	return slices.IndexFunc(c.lines, func(line domain.CartLine) bool {
		return line.ID == id
	})
}
