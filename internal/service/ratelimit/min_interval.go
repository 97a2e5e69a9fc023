package ratelimit

import (
	"context"
	"sync"
	"time"

	"FinCorr/internal/domain/models"
	dsvc "FinCorr/internal/domain/service"
)

// MinInterval spaces calls to a HistoryProvider at least minInterval apart,
// across all goroutines.
type MinInterval struct {
	next        dsvc.HistoryProvider
	minInterval time.Duration

	mu   sync.Mutex
	last time.Time
}

var _ dsvc.HistoryProvider = (*MinInterval)(nil)

func NewMinInterval(next dsvc.HistoryProvider, minInterval time.Duration) *MinInterval {
	return &MinInterval{next: next, minInterval: minInterval}
}

func (t *MinInterval) Name() string { return t.next.Name() }

func (t *MinInterval) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]models.PricePoint, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	return t.next.FetchHistory(ctx, symbol, start, end)
}

func (t *MinInterval) wait(ctx context.Context) error {
	if t.minInterval <= 0 {
		return nil
	}
	t.mu.Lock()
	next := t.last.Add(t.minInterval)
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	t.last = next
	t.mu.Unlock()

	d := time.Until(next)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
