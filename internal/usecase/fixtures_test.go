package usecase_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"FinCorr/internal/domain/models"
	"FinCorr/internal/repository"
	pkgsqlite "FinCorr/pkg/sqlite"

	"github.com/stretchr/testify/require"
)

// fixedNow is a Friday afternoon.
var fixedNow = time.Date(2024, 6, 28, 15, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	client, err := pkgsqlite.NewClient(pkgsqlite.WithPath(filepath.Join(t.TempDir(), "prices.db")))
	require.NoError(t, err)
	s := repository.NewSQLiteStore(client)
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// points builds consecutive daily closes ending on last.
func points(last time.Time, closes ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(closes))
	first := models.Day(last).AddDate(0, 0, -(len(closes) - 1))
	for i, c := range closes {
		out[i] = models.PricePoint{Date: first.AddDate(0, 0, i), Close: c}
	}
	return out
}

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// seed registers symbol and stores closes ending yesterday.
func seed(t *testing.T, s *repository.SQLiteStore, symbol, name string, closes ...float64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.RegisterSymbol(ctx, symbol, name, models.VenueOf(symbol)))
	if len(closes) == 0 {
		return
	}
	_, err := s.UpsertPrices(ctx, symbol, points(fixedNow.AddDate(0, 0, -1), closes...), models.VenueOf(symbol).Source())
	require.NoError(t, err)
}

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return nil
}

type fakePublisher struct {
	events []models.PriceUpdateEvent
	err    error
}

func (p *fakePublisher) PublishPriceUpdate(_ context.Context, ev models.PriceUpdateEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }
