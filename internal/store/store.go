package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Slot keys. Each slot holds one JSON document.
const (
	SlotProducts     = "pos-products"
	SlotTransactions = "pos-transactions"
	SlotCart         = "pos-cart"
	SlotSettings     = "pos-settings"
)

// Slots lists every slot in hydration order.
var Slots = []string{SlotProducts, SlotTransactions, SlotCart, SlotSettings}

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrDuplicateCode       = errors.New("duplicate product code")
	ErrNotHydrated         = errors.New("state not hydrated")
)

// SlotStore persists named JSON documents.
//
// Load must not fail on a missing key: it reports found=false and leaves dest
// untouched so the caller keeps its default. SaveMany writes all values or
// none of them.
type SlotStore interface {
	Load(ctx context.Context, key string, dest any) (bool, error)
	Save(ctx context.Context, key string, value any) error
	SaveMany(ctx context.Context, values map[string]any) error
	Close() error
}

// SlotError wraps a backend failure with the operation and slot it hit.
type SlotError struct {
	Op  string
	Key string
	Err error
}

func (e *SlotError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("slot %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("slot %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *SlotError) Unwrap() error {
	return e.Err
}

func Wrap(op string, key string, err error) error {
	if err == nil {
		return nil
	}
	return &SlotError{Op: op, Key: key, Err: err}
}

// SortedKeys returns the keys of values in a stable order so backends write
// multi-slot batches deterministically.
func SortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
