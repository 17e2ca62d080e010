package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"kasirlokal/backend/internal/domain"
	"kasirlokal/backend/internal/store"
)

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.SearchProducts(ctx, "", "")
}

// SearchProducts matches query against name, code and category. A non-empty
// category further restricts the result to that category.
func (s *Service) SearchProducts(ctx context.Context, query string, category string) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	products := s.catalog.Search(query)
	category = strings.TrimSpace(category)
	if category == "" {
		return products, nil
	}
	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.EqualFold(p.Category, category) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return domain.Product{}, err
	}
	product, ok := s.catalog.FindByID(id)
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	return product, nil
}

func (s *Service) ProductCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.catalog.Len(), nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.catalog.Categories(), nil
}

func (s *Service) AddProduct(ctx context.Context, input domain.ProductInput) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return domain.Product{}, err
	}

	next := s.catalog.Clone()
	product, err := next.Add(input)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.slots.Save(ctx, store.SlotProducts, next.Products()); err != nil {
		return domain.Product{}, err
	}
	s.catalog = next
	s.version++
	s.invalidateReports(ctx)

	s.logger.Info("product added", actorField(ctx), zap.String("product_id", product.ID), zap.String("code", product.Code))
	return product, nil
}

// UpdateProduct changes catalog data only. Lines already in the cart keep the
// snapshot taken when they were added.
func (s *Service) UpdateProduct(ctx context.Context, id string, patch domain.ProductUpdate) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return domain.Product{}, err
	}

	next := s.catalog.Clone()
	product, err := next.Update(id, patch)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.slots.Save(ctx, store.SlotProducts, next.Products()); err != nil {
		return domain.Product{}, err
	}
	s.catalog = next
	s.version++
	s.invalidateReports(ctx)

	s.logger.Info("product updated", actorField(ctx), zap.String("product_id", product.ID))
	return product, nil
}

// RemoveProduct deletes the product and any cart line that refers to it.
// Past transactions are untouched.
func (s *Service) RemoveProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}

	nextCatalog := s.catalog.Clone()
	if err := nextCatalog.Remove(id); err != nil {
		return err
	}
	nextCart := s.cart.Clone()
	nextCart.Remove(id)

	err := s.slots.SaveMany(ctx, map[string]any{
		store.SlotProducts: nextCatalog.Products(),
		store.SlotCart:     nextCart.Lines(),
	})
	if err != nil {
		return err
	}
	s.catalog = nextCatalog
	s.cart = nextCart
	s.version++
	s.invalidateReports(ctx)

	s.logger.Info("product removed", actorField(ctx), zap.String("product_id", id))
	return nil
}
