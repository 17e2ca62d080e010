// Package reporting derives read-only views over the ledger and catalog.
package reporting

import (
	"cmp"
	"slices"
	"time"

	"kasirlokal/backend/internal/domain"
)

const (
	DefaultTopSellingLimit   = 5
	DefaultLowStockThreshold = 10
)

// TopSelling aggregates quantity and revenue per product id across all
// transaction lines. Results are ordered by quantity, then revenue, both
// descending, then by id. n <= 0 returns every product.
//
// txs is expected newest first, so a product's name comes from its most
// recent sale.
func TopSelling(txs []domain.Transaction, n int) []domain.ProductSales {
	byID := make(map[string]*domain.ProductSales)
	for _, tx := range txs {
		for _, item := range tx.Items {
			entry, ok := byID[item.ID]
			if !ok {
				entry = &domain.ProductSales{ID: item.ID, Name: item.Name}
				byID[item.ID] = entry
			}
			entry.Quantity += item.Quantity
			entry.Revenue += item.Subtotal
		}
	}

	result := make([]domain.ProductSales, 0, len(byID))
	for _, entry := range byID {
		result = append(result, *entry)
	}
	slices.SortFunc(result, func(a, b domain.ProductSales) int {
		if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Revenue, a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if n > 0 && len(result) > n {
		result = result[:n]
	}
	return result
}

// LowStock returns products with stock at or below threshold, in catalog order.
func LowStock(products []domain.Product, threshold int) []domain.Product {
	result := make([]domain.Product, 0)
	for _, p := range products {
		if p.Stock <= threshold {
			result = append(result, p)
		}
	}
	return result
}

func Summarize(stats domain.Stats, txs []domain.Transaction, products []domain.Product, topN int, threshold int, at time.Time) domain.Report {
	return domain.Report{
		GeneratedAt:       at,
		Stats:             stats,
		TopSelling:        TopSelling(txs, topN),
		LowStock:          LowStock(products, threshold),
		LowStockThreshold: threshold,
	}
}
