package ratelimit

import (
	"context"
	"testing"
	"time"

	"FinCorr/internal/domain/models"
)

func TestAllowConsumesAndRefills(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }

	if !l.Allow("k", 2, 1) || !l.Allow("k", 2, 1) {
		t.Fatalf("first two calls should pass")
	}
	if l.Allow("k", 2, 1) {
		t.Fatalf("bucket should be empty")
	}
	if !l.Allow("other", 2, 1) {
		t.Fatalf("keys must not share buckets")
	}

	now = now.Add(1500 * time.Millisecond)
	if !l.Allow("k", 2, 1) {
		t.Fatalf("one token should have refilled")
	}
	if l.Allow("k", 2, 1) {
		t.Fatalf("only one token should have refilled")
	}
}

type countingProvider struct{ calls []time.Time }

func (c *countingProvider) Name() string { return "counting" }

func (c *countingProvider) FetchHistory(context.Context, string, time.Time, time.Time) ([]models.PricePoint, error) {
	c.calls = append(c.calls, time.Now())
	return nil, nil
}

func TestMinIntervalSpacesCalls(t *testing.T) {
	inner := &countingProvider{}
	p := NewMinInterval(inner, 30*time.Millisecond)
	if p.Name() != "counting" {
		t.Fatalf("name must pass through")
	}
	for i := 0; i < 3; i++ {
		if _, err := p.FetchHistory(context.Background(), "2330.TW", time.Time{}, time.Time{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(inner.calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(inner.calls))
	}
	if gap := inner.calls[2].Sub(inner.calls[0]); gap < 55*time.Millisecond {
		t.Fatalf("calls not spaced: %v", gap)
	}
}

func TestMinIntervalHonoursContext(t *testing.T) {
	p := NewMinInterval(&countingProvider{}, time.Hour)
	_, _ = p.FetchHistory(context.Background(), "a", time.Time{}, time.Time{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.FetchHistory(ctx, "b", time.Time{}, time.Time{}); err == nil {
		t.Fatalf("expected context error")
	}
}
