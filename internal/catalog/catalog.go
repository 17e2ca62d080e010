// Package catalog holds the sellable products and their stock counts.
//
// A Catalog is a plain in-memory value with no locking; callers that share one
// across goroutines must serialize access themselves.
package catalog

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"kasirlokal/backend/internal/domain"
	"kasirlokal/backend/internal/store"
	"kasirlokal/backend/internal/xid"
)

type Options struct {
	// UniqueCodes rejects a product code already used by another product,
	// compared case-insensitively.
	UniqueCodes bool
	Now         func() time.Time
	NewID       func() string
}

type Catalog struct {
	products []domain.Product
	opts     Options
}

func New(products []domain.Product, opts Options) *Catalog {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = xid.NewGenerator(opts.Now).Next
	}
	return &Catalog{products: slices.Clone(products), opts: opts}
}

// Clone returns an independent copy sharing the same options.
func (c *Catalog) Clone() *Catalog {
	return &Catalog{products: slices.Clone(c.products), opts: c.opts}
}

func (c *Catalog) Products() []domain.Product {
	return slices.Clone(c.products)
}

func (c *Catalog) Len() int {
	return len(c.products)
}

func (c *Catalog) Add(input domain.ProductInput) (domain.Product, error) {
	input.Code = strings.TrimSpace(input.Code)
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	input.Description = strings.TrimSpace(input.Description)

	if err := validate(input.Code, input.Name, input.Category, input.Price); err != nil {
		return domain.Product{}, err
	}
	if input.Stock < 0 {
		return domain.Product{}, errNegativeStock
	}
	if c.opts.UniqueCodes && c.codeTaken(input.Code, "") {
		return domain.Product{}, fmt.Errorf("%w: %s", store.ErrDuplicateCode, input.Code)
	}

	now := c.opts.Now().UTC()
	product := domain.Product{
		ID:          c.opts.NewID(),
		Code:        input.Code,
		Name:        input.Name,
		Category:    input.Category,
		Price:       input.Price,
		Stock:       input.Stock,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.products = append(c.products, product)
	return product, nil
}

// Update merges the non-nil fields of patch into the product and refreshes
// UpdatedAt. The whole patch is validated before anything changes.
func (c *Catalog) Update(id string, patch domain.ProductUpdate) (domain.Product, error) {
	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Product{}, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}

	updated := c.products[idx]
	if patch.Code != nil {
		updated.Code = strings.TrimSpace(*patch.Code)
	}
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		updated.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Price != nil {
		updated.Price = *patch.Price
	}
	if patch.Stock != nil {
		// An oversold product keeps its negative stock until someone restocks it.
		if *patch.Stock < 0 {
			return domain.Product{}, errNegativeStock
		}
		updated.Stock = *patch.Stock
	}
	if patch.Description != nil {
		updated.Description = strings.TrimSpace(*patch.Description)
	}

	if err := validate(updated.Code, updated.Name, updated.Category, updated.Price); err != nil {
		return domain.Product{}, err
	}
	if c.opts.UniqueCodes && patch.Code != nil && c.codeTaken(updated.Code, id) {
		return domain.Product{}, fmt.Errorf("%w: %s", store.ErrDuplicateCode, updated.Code)
	}

	updated.UpdatedAt = c.opts.Now().UTC()
	c.products[idx] = updated
	return updated, nil
}

func (c *Catalog) Remove(id string) error {
	idx := c.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	c.products = slices.Delete(c.products, idx, idx+1)
	return nil
}

func (c *Catalog) FindByID(id string) (domain.Product, bool) {
	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Product{}, false
	}
	return c.products[idx], true
}

// Search matches query case-insensitively against name, code and category.
// An empty query returns the whole catalog in insertion order.
func (c *Catalog) Search(query string) []domain.Product {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return c.Products()
	}
	result := make([]domain.Product, 0)
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Code), needle) ||
			strings.Contains(strings.ToLower(p.Category), needle) {
			result = append(result, p)
		}
	}
	return result
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{}, len(c.products))
	categories := make([]string, 0)
	for _, p := range c.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	slices.Sort(categories)
	return categories
}

// ApplySale decrements stock for a sold quantity. It reports false when the
// product no longer exists. Stock is allowed to go below zero here; the
// oversell policy is decided by the caller.
func (c *Catalog) ApplySale(id string, qty int) (domain.Product, bool) {
	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Product{}, false
	}
	c.products[idx].Stock -= qty
	c.products[idx].UpdatedAt = c.opts.Now().UTC()
	return c.products[idx], true
}

func (c *Catalog) indexOf(id string) int {
	return slices.IndexFunc(c.products, func(p domain.Product) bool {
		return p.ID == id
	})
}

func (c *Catalog) codeTaken(code string, exceptID string) bool {
	for _, p := range c.products {
		if p.ID != exceptID && strings.EqualFold(p.Code, code) {
			return true
		}
	}
	return false
}

var errNegativeStock = fmt.Errorf("%w: stock must not be negative", store.ErrInvalidInput)

func validate(code, name, category string, price int64) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", store.ErrInvalidInput)
	case code == "":
		return fmt.Errorf("%w: code is required", store.ErrInvalidInput)
	case category == "":
		return fmt.Errorf("%w: category is required", store.ErrInvalidInput)
	case price < 0:
		return fmt.Errorf("%w: price must not be negative", store.ErrInvalidInput)
	}
	return nil
}
