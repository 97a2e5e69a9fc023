package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"FinCorr/internal/domain/models"
	pkgsqlite "FinCorr/pkg/sqlite"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	client, err := pkgsqlite.NewClient(pkgsqlite.WithPath(filepath.Join(t.TempDir(), "prices.db")))
	require.NoError(t, err)
	s := NewSQLiteStore(client)
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestSQLiteStoreUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	pts := []models.PricePoint{
		{Date: d(2024, 3, 1), Close: 100},
		{Date: d(2024, 3, 4), Close: 101.5},
	}
	n, err := s.UpsertPrices(ctx, "2330.TW", pts, models.SourceTWSE)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// same dates again, one close revised
	pts[1].Close = 102
	_, err = s.UpsertPrices(ctx, "2330.TW", pts, models.SourceTWSE)
	require.NoError(t, err)

	total, err := s.PriceCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)

	tail, err := s.Tail(ctx, "2330.TW", 10)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	require.Equal(t, 102.0, tail[1].Close)
	require.Equal(t, models.SourceTWSE, tail[1].Source)
}

func TestSQLiteStoreSkipsInvalidPoints(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	pts := []models.PricePoint{
		{Date: d(2024, 3, 1), Close: 100},
		{Date: d(2024, 3, 2), Close: 0},
		{Date: time.Time{}, Close: 50},
	}
	n, err := s.UpsertPrices(ctx, "6488.TWO", pts, models.SourceTPEX)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSQLiteStoreTailReturnsMostRecentAscending(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var pts []models.PricePoint
	for i := 0; i < 10; i++ {
		pts = append(pts, models.PricePoint{Date: d(2024, 1, 1).AddDate(0, 0, i), Close: float64(i + 1)})
	}
	_, err := s.UpsertPrices(ctx, "2317.TW", pts, models.SourceTWSE)
	require.NoError(t, err)

	tail, err := s.Tail(ctx, "2317.TW", 3)
	require.NoError(t, err)
	require.Len(t, tail, 3)
	require.Equal(t, []float64{8, 9, 10}, []float64{tail[0].Close, tail[1].Close, tail[2].Close})
	require.True(t, tail[0].Date.Before(tail[2].Date))

	empty, err := s.Tail(ctx, "9999.TW", 3)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestSQLiteStoreLatestDate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, ok, err := s.LatestDate(ctx, "2330.TW")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = s.UpsertPrices(ctx, "2330.TW", []models.PricePoint{
		{Date: d(2024, 5, 2), Close: 800},
		{Date: d(2024, 4, 30), Close: 790},
	}, models.SourceTWSE)
	require.NoError(t, err)

	latest, ok, err := s.LatestDate(ctx, "2330.TW")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, d(2024, 5, 2), latest)
}

func TestSQLiteStorePruneBefore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.UpsertPrices(ctx, "2330.TW", []models.PricePoint{
		{Date: d(2024, 1, 1), Close: 1},
		{Date: d(2024, 1, 2), Close: 2},
		{Date: d(2024, 1, 3), Close: 3},
	}, models.SourceTWSE)
	require.NoError(t, err)

	n, err := s.PruneBefore(ctx, "2330.TW", d(2024, 1, 3))
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	tail, err := s.Tail(ctx, "2330.TW", 10)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	require.Equal(t, d(2024, 1, 3), tail[0].Date)
}

func TestSQLiteStoreRegistry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.RegisterSymbol(ctx, "2330.TW", "台積電", models.VenueListed))
	// second registration keeps the original name
	require.NoError(t, s.RegisterSymbol(ctx, "2330.TW", "other", models.VenueListed))
	require.NoError(t, s.RegisterSymbol(ctx, "6488.TWO", "", models.VenueOTC))

	rec, ok, err := s.SymbolRecord(ctx, "2330.TW")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "台積電", rec.Name)
	require.Equal(t, models.VenueListed, rec.Venue)
	require.True(t, rec.LastUpdate.IsZero())

	require.NoError(t, s.SetLastUpdate(ctx, "2330.TW", d(2024, 6, 1)))
	rec, _, err = s.SymbolRecord(ctx, "2330.TW")
	require.NoError(t, err)
	require.Equal(t, d(2024, 6, 1), rec.LastUpdate)

	_, ok, err = s.SymbolRecord(ctx, "1101.TW")
	require.NoError(t, err)
	require.False(t, ok)

	syms, err := s.Symbols(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"2330.TW", "6488.TWO"}, syms)

	count, err := s.SymbolCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}
