package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"FinCorr/internal/domain/models"
	"FinCorr/internal/repository"
	icache "FinCorr/internal/service/cache"
	"FinCorr/internal/usecase"
	pkgsqlite "FinCorr/pkg/sqlite"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 28, 15, 0, 0, 0, time.UTC)

type stubHistory struct{}

func (stubHistory) Name() string { return "stub" }

func (stubHistory) FetchHistory(_ context.Context, _ string, _, end time.Time) ([]models.PricePoint, error) {
	return []models.PricePoint{{Date: models.Day(end), Close: 50}}, nil
}

type stubQuotes struct{}

func (stubQuotes) FetchDailyQuotes(_ context.Context, date time.Time) ([]models.Quote, error) {
	return []models.Quote{{Code: "6488", Name: "環球晶", Close: float64(date.Day())}}, nil
}

func newScheduler(t *testing.T, cfg Config) (*Scheduler, *repository.SQLiteStore) {
	t.Helper()
	client, err := pkgsqlite.NewClient(pkgsqlite.WithPath(filepath.Join(t.TempDir(), "sched.db")))
	require.NoError(t, err)
	store := repository.NewSQLiteStore(client)
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	clock := func() time.Time { return now }
	runner := usecase.NewRunner(4, nil)
	t.Cleanup(runner.Close)

	updater := usecase.NewUpdater(store, stubHistory{}, usecase.WithClock(clock))
	ingestor := usecase.NewSnapshotIngestor(store, stubQuotes{}, usecase.WithSnapshotClock(clock))
	return New(cfg, runner, updater, ingestor, nil), store
}

func TestRunDailyUpdateUsesWatchList(t *testing.T) {
	s, store := newScheduler(t, Config{
		Symbols:       []models.SymbolEntry{{Symbol: "2330.TW", Name: "台積電"}, {Symbol: "2317.TW", Name: "鴻海"}},
		RetentionDays: 120,
	})
	c := icache.NewTTLCache()
	require.NoError(t, c.SetBytes(context.Background(), icache.RankPrefix+"2330.TW:20", []byte("{}"), time.Minute))
	s.SetCache(c)

	s.RunDailyUpdate()

	n, err := store.SymbolCount(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	require.Zero(t, c.Len())
}

func TestRunSnapshotAndPrune(t *testing.T) {
	s, store := newScheduler(t, Config{RetentionDays: 1, TPExDays: 2})
	ctx := context.Background()

	s.RunSnapshot()
	tail, err := store.Tail(ctx, "6488.TWO", 10)
	require.NoError(t, err)
	require.Len(t, tail, 3)

	_, err = store.UpsertPrices(ctx, "6488.TWO", []models.PricePoint{{Date: now.AddDate(0, 0, -90), Close: 1}}, models.SourceTPEX)
	require.NoError(t, err)
	s.RunPrune()

	tail, err = store.Tail(ctx, "6488.TWO", 10)
	require.NoError(t, err)
	require.Len(t, tail, 3)
}

func TestRegisterAllRejectsBadSpec(t *testing.T) {
	s, _ := newScheduler(t, Config{DailyCron: "not a cron"})
	require.Error(t, s.RegisterAll())

	s, _ = newScheduler(t, Config{DailyCron: "0 30 14 * * 1-5", PruneCron: "0 0 3 * * 0"})
	require.NoError(t, s.RegisterAll())
	s.Start()
	require.Len(t, s.cron.Entries(), 2)
	s.Stop()
}

func TestNewDefaultsToWatchList(t *testing.T) {
	s, _ := newScheduler(t, Config{})
	require.Equal(t, models.DefaultWatchList, s.cfg.Symbols)
}
