package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"kasirlokal/backend/internal/domain"
	"kasirlokal/backend/internal/reporting"
	"kasirlokal/backend/internal/store"
)

func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return domain.Stats{}, err
	}
	return s.ledger.Stats(s.opts.Now()), nil
}

// TopSelling returns up to n products by quantity sold. n <= 0 uses the
// configured limit.
func (s *Service) TopSelling(ctx context.Context, n int) ([]domain.ProductSales, error) {
	if n <= 0 {
		n = s.opts.TopSellingLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return reporting.TopSelling(s.ledger.Transactions(), n), nil
}

// LowStock lists products at or below threshold. A negative threshold uses
// the configured one.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	if threshold < 0 {
		threshold = s.opts.LowStockThreshold
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return reporting.LowStock(s.catalog.Products(), threshold), nil
}

// Report builds the dashboard summary. Results are cached under the current
// catalog and ledger version, so a summary computed before a change is never
// served after it.
func (s *Service) Report(ctx context.Context) (domain.Report, error) {
	s.mu.Lock()
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return domain.Report{}, err
	}
	version := s.version
	s.mu.Unlock()

	now := s.opts.Now()
	if cached, ok, err := s.cache.Get(ctx, s.reportKey(now, version)); err != nil {
		s.logger.Warn("report cache read failed", zap.Uint64("version", version), zap.Error(err))
	} else if ok {
		return *cached, nil
	}

	s.mu.Lock()
	version = s.version
	report := reporting.Summarize(
		s.ledger.Stats(now),
		s.ledger.Transactions(),
		s.catalog.Products(),
		s.opts.TopSellingLimit,
		s.opts.LowStockThreshold,
		now.UTC(),
	)
	s.mu.Unlock()

	key := s.reportKey(now, version)
	if err := s.cache.Set(ctx, key, &report, s.opts.ReportCacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
	return report, nil
}

func (s *Service) reportKey(now time.Time, version uint64) string {
	return fmt.Sprintf("summary:v%d:%s:%d:%d", version, now.Format("2006-01-02"), s.opts.TopSellingLimit, s.opts.LowStockThreshold)
}

func parseDay(value string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalidInput)
	}
	return day, nil
}
