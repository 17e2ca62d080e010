// Package ledger is the append-only history of completed sales and the
// arithmetic that turns a cart into a transaction.
package ledger

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"kasirlokal/backend/internal/domain"
	"kasirlokal/backend/internal/store"
)

// Tax applies a percentage rate to subtotal, rounding half away from zero.
// The rate is taken to a hundredth of a percent; the product is computed in
// integers so large subtotals stay exact.
func Tax(subtotal int64, ratePercent float64) int64 {
	bp := int64(math.Round(ratePercent * 100))
	if subtotal < 0 {
		return -Tax(-subtotal, ratePercent)
	}
	// split so subtotal*bp cannot overflow
	q, r := subtotal/10000, subtotal%10000
	return q*bp + (r*bp+5000)/10000
}

func NormalizePaymentMethod(method string) string {
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		return domain.PaymentCash
	}
	return method
}

func IsSupportedPaymentMethod(method string) bool {
	switch method {
	case domain.PaymentCash, domain.PaymentQRIS:
		return true
	default:
		return false
	}
}

// Build computes a completed transaction from cart lines. It does not touch
// any state; the lines are copied so later catalog edits cannot reach the
// record.
func Build(lines []domain.CartLine, settings domain.Settings, req domain.CommitRequest, id string, at time.Time) (domain.Transaction, error) {
	if len(lines) == 0 {
		return domain.Transaction{}, store.ErrEmptyCart
	}

	method := NormalizePaymentMethod(req.PaymentMethod)
	if !IsSupportedPaymentMethod(method) {
		return domain.Transaction{}, fmt.Errorf("%w: unsupported payment method %q", store.ErrInvalidInput, req.PaymentMethod)
	}
	if req.AmountPaid < 0 {
		return domain.Transaction{}, fmt.Errorf("%w: amount paid must not be negative", store.ErrInvalidInput)
	}

	var subtotal int64
	for _, line := range lines {
		subtotal += line.Subtotal
	}

	tax := Tax(subtotal, settings.TaxRate)
	if req.TaxOverride != nil {
		if *req.TaxOverride < 0 {
			return domain.Transaction{}, fmt.Errorf("%w: tax override must not be negative", store.ErrInvalidInput)
		}
		tax = *req.TaxOverride
	}
	total := subtotal + tax

	paid := req.AmountPaid
	switch method {
	case domain.PaymentCash:
		if paid < total {
			return domain.Transaction{}, fmt.Errorf("%w: paid %d, total %d", store.ErrInsufficientPayment, paid, total)
		}
	default:
		// Non-cash payments settle the exact total.
		if paid < total {
			paid = total
		}
	}

	at = at.UTC()
	return domain.Transaction{
		ID:            id,
		Items:         slices.Clone(lines),
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         total,
		PaymentMethod: method,
		AmountPaid:    paid,
		Change:        max(0, paid-total),
		Date:          at,
		CreatedAt:     at,
		Status:        domain.StatusCompleted,
	}, nil
}

// Ledger is ordered newest first.
type Ledger struct {
	txs []domain.Transaction
}

func New(txs []domain.Transaction) *Ledger {
	return &Ledger{txs: cloneAll(txs)}
}

func (l *Ledger) Clone() *Ledger {
	return &Ledger{txs: slices.Clone(l.txs)}
}

func (l *Ledger) Prepend(tx domain.Transaction) {
	tx.Items = slices.Clone(tx.Items)
	l.txs = slices.Insert(l.txs, 0, tx)
}

func (l *Ledger) Len() int {
	return len(l.txs)
}

func (l *Ledger) Transactions() []domain.Transaction {
	return cloneAll(l.txs)
}

func (l *Ledger) Latest() (domain.Transaction, bool) {
	if len(l.txs) == 0 {
		return domain.Transaction{}, false
	}
	return cloneTransaction(l.txs[0]), true
}

func (l *Ledger) FindByID(id string) (domain.Transaction, bool) {
	for _, tx := range l.txs {
		if tx.ID == id {
			return cloneTransaction(tx), true
		}
	}
	return domain.Transaction{}, false
}

// ByDateRange returns transactions created within [start, end].
func (l *Ledger) ByDateRange(start, end time.Time) []domain.Transaction {
	result := make([]domain.Transaction, 0)
	for _, tx := range l.txs {
		if tx.CreatedAt.Before(start) || tx.CreatedAt.After(end) {
			continue
		}
		result = append(result, cloneTransaction(tx))
	}
	return result
}

// Filter matches a case-insensitive id substring and, when day is non-zero,
// the calendar day of day's location.
func (l *Ledger) Filter(query string, day time.Time) []domain.Transaction {
	needle := strings.ToLower(strings.TrimSpace(query))
	result := make([]domain.Transaction, 0)
	for _, tx := range l.txs {
		if needle != "" && !strings.Contains(strings.ToLower(tx.ID), needle) {
			continue
		}
		if !day.IsZero() && !sameDay(tx.CreatedAt.In(day.Location()), day) {
			continue
		}
		result = append(result, cloneTransaction(tx))
	}
	return result
}

// Stats aggregates revenue for the day and month containing now, in now's
// location, plus all-time totals.
func (l *Ledger) Stats(now time.Time) domain.Stats {
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())

	var stats domain.Stats
	for _, tx := range l.txs {
		stats.TotalRevenue += tx.Total
		stats.TotalTransactions++
		if tx.CreatedAt.After(now) {
			continue
		}
		if !tx.CreatedAt.Before(startOfMonth) {
			stats.MonthRevenue += tx.Total
			stats.MonthTransactions++
		}
		if !tx.CreatedAt.Before(startOfDay) {
			stats.TodayRevenue += tx.Total
			stats.TodayTransactions++
		}
	}
	return stats
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func cloneTransaction(tx domain.Transaction) domain.Transaction {
	tx.Items = slices.Clone(tx.Items)
	return tx
}

func cloneAll(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = cloneTransaction(tx)
	}
	return out
}
