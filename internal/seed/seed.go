// Package seed loads a small demo catalog and a few sales into an empty store.
package seed

import (
	"context"
	"fmt"

	"kasirlokal/backend/internal/domain"
	"kasirlokal/backend/internal/ledger"
	"kasirlokal/backend/internal/store"
)

// Target is the part of the service the seeder drives.
type Target interface {
	Hydrated() bool
	ProductCount(ctx context.Context) (int, error)
	Settings(ctx context.Context) (domain.Settings, error)
	AddProduct(ctx context.Context, input domain.ProductInput) (domain.Product, error)
	ClearCart(ctx context.Context) (domain.CartSummary, error)
	AddToCart(ctx context.Context, productID string, qty int) (domain.CartSummary, error)
	Commit(ctx context.Context, req domain.CommitRequest) (domain.Transaction, error)
}

type Result struct {
	Products     int  `json:"products"`
	Transactions int  `json:"transactions"`
	Skipped      bool `json:"skipped"`
}

type saleLine struct {
	product int
	qty     int
}

type sale struct {
	lines []saleLine
	paid  int64
}

func Products() []domain.ProductInput {
	return []domain.ProductInput{
		{Code: "NG001", Name: "Nasi Gudeg", Category: "Makanan", Price: 15000, Stock: 50, Description: "Gudeg khas Yogyakarta dengan ayam dan telur"},
		{Code: "ETM001", Name: "Es Teh Manis", Category: "Minuman", Price: 5000, Stock: 100, Description: "Es teh manis segar"},
		{Code: "AG001", Name: "Ayam Geprek", Category: "Makanan", Price: 18000, Stock: 30, Description: "Ayam geprek pedas dengan sambal"},
		{Code: "KH001", Name: "Kopi Hitam", Category: "Minuman", Price: 8000, Stock: 75, Description: "Kopi hitam tubruk asli"},
		{Code: "SA001", Name: "Soto Ayam", Category: "Makanan", Price: 12000, Stock: 40, Description: "Soto ayam kuning dengan telur"},
		{Code: "JJ001", Name: "Juice Jeruk", Category: "Minuman", Price: 10000, Stock: 60, Description: "Jus jeruk segar tanpa gula"},
		{Code: "GG001", Name: "Gado-gado", Category: "Makanan", Price: 14000, Stock: 25, Description: "Gado-gado dengan bumbu kacang"},
		{Code: "AM001", Name: "Air Mineral", Category: "Minuman", Price: 3000, Stock: 200, Description: "Air mineral botol 600ml"},
	}
}

var sales = []sale{
	{lines: []saleLine{{0, 2}, {1, 2}}, paid: 50000},
	{lines: []saleLine{{2, 1}, {3, 1}}, paid: 30000},
	{lines: []saleLine{{4, 3}, {5, 2}}, paid: 60000},
}

// Sample adds the demo products and rings up three cash sales. It does
// nothing when the catalog already has products. Each sale pays at least
// the amount due under the current tax rate so cash validation passes.
func Sample(ctx context.Context, target Target) (Result, error) {
	if !target.Hydrated() {
		return Result{}, store.ErrNotHydrated
	}
	count, err := target.ProductCount(ctx)
	if err != nil {
		return Result{}, err
	}
	if count > 0 {
		return Result{Skipped: true}, nil
	}
	settings, err := target.Settings(ctx)
	if err != nil {
		return Result{}, err
	}

	inputs := Products()
	products := make([]domain.Product, 0, len(inputs))
	for _, input := range inputs {
		p, err := target.AddProduct(ctx, input)
		if err != nil {
			return Result{Products: len(products)}, fmt.Errorf("seed product %s: %w", input.Code, err)
		}
		products = append(products, p)
	}

	result := Result{Products: len(products)}
	if _, err := target.ClearCart(ctx); err != nil {
		return result, err
	}
	for i, sale := range sales {
		var summary domain.CartSummary
		for _, line := range sale.lines {
			summary, err = target.AddToCart(ctx, products[line.product].ID, line.qty)
			if err != nil {
				return result, fmt.Errorf("seed sale %d: %w", i+1, err)
			}
		}
		due := summary.Total + ledger.Tax(summary.Total, settings.TaxRate)
		if _, err := target.Commit(ctx, domain.CommitRequest{
			PaymentMethod: domain.PaymentCash,
			AmountPaid:    max(sale.paid, due),
		}); err != nil {
			return result, fmt.Errorf("seed sale %d: %w", i+1, err)
		}
		result.Transactions++
	}
	return result, nil
}
