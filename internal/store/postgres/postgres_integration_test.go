package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"kasirlokal/backend/internal/domain"
)

func TestSaveManyRoundTripsSlots(t *testing.T) {
	databaseURL := os.Getenv("KASIRLOKAL_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set KASIRLOKAL_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	productsKey := fmt.Sprintf("it-products-%d", stamp)
	cartKey := fmt.Sprintf("it-cart-%d", stamp)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM pos_slots WHERE key IN ($1, $2)`, productsKey, cartKey)
	})

	products := []domain.Product{{ID: "1", Code: "KH001", Name: "Kopi Hitam", Category: "Minuman", Price: 8000, Stock: 75}}
	err = s.SaveMany(ctx, map[string]any{
		productsKey: products,
		cartKey:     []domain.CartLine{},
	})
	if err != nil {
		t.Fatalf("save many: %v", err)
	}

	var loaded []domain.Product
	found, err := s.Load(ctx, productsKey, &loaded)
	if err != nil {
		t.Fatalf("load products: %v", err)
	}
	if !found || len(loaded) != 1 || loaded[0].Stock != 75 {
		t.Fatalf("expected one product with stock 75, got found=%v %+v", found, loaded)
	}

	var missing []domain.Product
	found, err = s.Load(ctx, fmt.Sprintf("it-missing-%d", stamp), &missing)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if found {
		t.Fatalf("expected missing slot to report not found")
	}
}
