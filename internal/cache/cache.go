package cache

import (
	"context"
	"time"

	"kasirlokal/backend/internal/domain"
)

// ReportCache stores computed report summaries between ledger changes.
type ReportCache interface {
	Get(ctx context.Context, key string) (*domain.Report, bool, error)
	Set(ctx context.Context, key string, value *domain.Report, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) (*domain.Report, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ *domain.Report, _ time.Duration) error {
	return nil
}

func (NoopReportCache) Invalidate(_ context.Context) error {
	return nil
}
