package service

import (
	"context"
	"fmt"

	"kasirlokal/backend/internal/cart"
	"kasirlokal/backend/internal/domain"
	"kasirlokal/backend/internal/store"
)

func (s *Service) Cart(ctx context.Context) (domain.CartSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return domain.CartSummary{}, err
	}
	return s.cart.Summary(), nil
}

// AddToCart snapshots the current catalog entry into the cart. Stock is not
// checked until commit.
func (s *Service) AddToCart(ctx context.Context, productID string, qty int) (domain.CartSummary, error) {
	return s.mutateCart(ctx, func(c *cart.Cart) error {
		product, ok := s.catalog.FindByID(productID)
		if !ok {
			return fmt.Errorf("%w: product %s", store.ErrNotFound, productID)
		}
		_, err := c.Add(product, qty)
		return err
	})
}

func (s *Service) SetCartQuantity(ctx context.Context, productID string, qty int) (domain.CartSummary, error) {
	return s.mutateCart(ctx, func(c *cart.Cart) error {
		return c.SetQuantity(productID, qty)
	})
}

// RemoveFromCart is a no-op for a product that is not in the cart.
func (s *Service) RemoveFromCart(ctx context.Context, productID string) (domain.CartSummary, error) {
	return s.mutateCart(ctx, func(c *cart.Cart) error {
		c.Remove(productID)
		return nil
	})
}

func (s *Service) ClearCart(ctx context.Context) (domain.CartSummary, error) {
	return s.mutateCart(ctx, func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

func (s *Service) mutateCart(ctx context.Context, fn func(*cart.Cart) error) (domain.CartSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return domain.CartSummary{}, err
	}

	next := s.cart.Clone()
	if err := fn(next); err != nil {
		return domain.CartSummary{}, err
	}
	if err := s.slots.Save(ctx, store.SlotCart, next.Lines()); err != nil {
		return domain.CartSummary{}, err
	}
	s.cart = next
	return next.Summary(), nil
}
