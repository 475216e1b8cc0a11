package cache

import (
	"context"
	"time"

	"restaurantos/backend/internal/domain"
)

// SummaryCache memoizes period summaries, which are derived data and safe to
// serve slightly stale.
type SummaryCache interface {
	Get(ctx context.Context, key string) (*domain.PeriodSummary, bool, error)
	Set(ctx context.Context, key string, value *domain.PeriodSummary, ttl time.Duration) error
}

type NoopSummaryCache struct{}

func (NoopSummaryCache) Get(_ context.Context, _ string) (*domain.PeriodSummary, bool, error) {
	return nil, false, nil
}

func (NoopSummaryCache) Set(_ context.Context, _ string, _ *domain.PeriodSummary, _ time.Duration) error {
	return nil
}
