package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"FinCorr/internal/domain/models"
	"FinCorr/internal/usecase"
	applogger "FinCorr/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newUpdater(t *testing.T, ctrl *gomock.Controller, opts ...usecase.UpdaterOption) (*usecase.Updater, *MockHistoryProvider, *fakePublisher, *sleepRecorder) {
	t.Helper()
	provider := NewMockHistoryProvider(ctrl)
	provider.EXPECT().Name().Return("mock").AnyTimes()
	pub := &fakePublisher{}
	sleeps := &sleepRecorder{}
	base := []usecase.UpdaterOption{
		usecase.WithClock(clock),
		usecase.WithSleep(sleeps.sleep),
		usecase.WithPublisher(pub),
		usecase.WithUpdaterLogger(applogger.Nop()),
	}
	return usecase.NewUpdater(newStore(t), provider, append(base, opts...)...), provider, pub, sleeps
}

func TestUpdateOneBackfillsNewSymbol(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	s := newStore(t)
	provider := NewMockHistoryProvider(ctrl)
	pub := &fakePublisher{}

	require.NoError(t, s.RegisterSymbol(ctx, "2330.TW", "台積電", models.VenueListed))
	pts := points(fixedNow.AddDate(0, 0, -1), 800, 805, 810)
	provider.EXPECT().FetchHistory(gomock.Any(), "2330.TW", fixedNow.AddDate(0, 0, -(120+60)), fixedNow).Return(pts, nil)

	u := usecase.NewUpdater(s, provider, usecase.WithClock(clock), usecase.WithPublisher(pub))
	res, err := u.UpdateOne(ctx, "2330.tw", 120)
	require.NoError(t, err)
	require.Equal(t, models.UpdateStatusUpdated, res.Status)
	require.Equal(t, 3, res.Points)
	require.Equal(t, "2330.TW", res.Symbol)

	latest, ok, err := s.LatestDate(ctx, "2330.TW")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pts[2].Date, latest)

	rec, ok, err := s.SymbolRecord(ctx, "2330.TW")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, models.Day(fixedNow), rec.LastUpdate)

	tail, err := s.Tail(ctx, "2330.TW", 10)
	require.NoError(t, err)
	require.Equal(t, models.SourceTWSE, tail[0].Source)

	require.Len(t, pub.events, 1)
	require.Equal(t, 810.0, pub.events[0].LastClose)
}

func TestUpdateOneFetchesOnlyMissingDays(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	s := newStore(t)
	provider := NewMockHistoryProvider(ctrl)

	_, err := s.UpsertPrices(ctx, "6488.TWO", points(time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), 500), models.SourceTPEX)
	require.NoError(t, err)

	from := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	provider.EXPECT().FetchHistory(gomock.Any(), "6488.TWO", from, fixedNow).
		Return(points(fixedNow, 501, 502), nil)

	u := usecase.NewUpdater(s, provider, usecase.WithClock(clock))
	res, err := u.UpdateOne(ctx, "6488.TWO", 120)
	require.NoError(t, err)
	require.Equal(t, models.UpdateStatusUpdated, res.Status)

	tail, err := s.Tail(ctx, "6488.TWO", 10)
	require.NoError(t, err)
	require.Len(t, tail, 3)
	require.Equal(t, models.SourceTPEX, tail[2].Source)
}

func TestUpdateOneIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	s := newStore(t)
	provider := NewMockHistoryProvider(ctrl)

	// data through today, so the second run has nothing to fetch
	provider.EXPECT().FetchHistory(gomock.Any(), "2317.TW", gomock.Any(), gomock.Any()).
		Return(points(fixedNow, 100, 101, 102), nil).Times(1)

	u := usecase.NewUpdater(s, provider, usecase.WithClock(clock))
	first, err := u.UpdateOne(ctx, "2317.TW", 120)
	require.NoError(t, err)
	require.Equal(t, models.UpdateStatusUpdated, first.Status)

	before, err := s.PriceCount(ctx)
	require.NoError(t, err)

	second, err := u.UpdateOne(ctx, "2317.TW", 120)
	require.NoError(t, err)
	require.Equal(t, models.UpdateStatusUpToDate, second.Status)
	require.True(t, second.Success())

	after, err := s.PriceCount(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestUpdateOneProviderFailureIsSoft(t *testing.T) {
	ctrl := gomock.NewController(t)
	u, provider, pub, _ := newUpdater(t, ctrl)

	provider.EXPECT().FetchHistory(gomock.Any(), "1101.TW", gomock.Any(), gomock.Any()).
		Return(nil, &models.ProviderError{Provider: "mock", Symbol: "1101.TW", Err: errors.New("timeout")})
	res, err := u.UpdateOne(context.Background(), "1101.TW", 120)
	require.NoError(t, err)
	require.Equal(t, models.UpdateStatusFailed, res.Status)
	require.Contains(t, res.Reason, "timeout")

	provider.EXPECT().FetchHistory(gomock.Any(), "1102.TW", gomock.Any(), gomock.Any()).Return(nil, nil)
	res, err = u.UpdateOne(context.Background(), "1102.TW", 120)
	require.NoError(t, err)
	require.Equal(t, models.UpdateStatusFailed, res.Status)
	require.Empty(t, pub.events)
}

func TestUpdateOneIgnoresPublishErrors(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	s := newStore(t)
	provider := NewMockHistoryProvider(ctrl)
	provider.EXPECT().FetchHistory(gomock.Any(), "2454.TW", gomock.Any(), gomock.Any()).
		Return(points(fixedNow, 1000), nil)

	pub := &fakePublisher{err: errors.New("broker down")}
	u := usecase.NewUpdater(s, provider, usecase.WithClock(clock), usecase.WithPublisher(pub), usecase.WithUpdaterLogger(applogger.Nop()))
	res, err := u.UpdateOne(ctx, "2454.TW", 120)
	require.NoError(t, err)
	require.Equal(t, models.UpdateStatusUpdated, res.Status)
	require.Len(t, pub.events, 1)
}

func TestUpdateManyContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	u, provider, _, sleeps := newUpdater(t, ctrl)

	entries := []models.SymbolEntry{
		{Symbol: "2330.TW", Name: "台積電"},
		{Symbol: " 2317.tw", Name: "鴻海"},
		{Symbol: "9999.TW", Name: "bad"},
		{Symbol: "2454.TW", Name: "聯發科"},
		{Symbol: "6488.TWO", Name: "環球晶"},
	}

	var order []string
	provider.EXPECT().FetchHistory(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, symbol string, _, _ time.Time) ([]models.PricePoint, error) {
			order = append(order, symbol)
			if symbol == "9999.TW" {
				return nil, &models.ProviderError{Provider: "mock", Symbol: symbol, Err: errors.New("404")}
			}
			return points(fixedNow.AddDate(0, 0, -1), 10, 11, 12), nil
		}).Times(5)

	summary, err := u.UpdateMany(ctx, entries, 120, 250*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 5, summary.Total)
	require.Equal(t, 4, summary.Succeeded)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, models.UpdateStatusFailed, summary.Results[2].Status)
	require.Equal(t, []string{"2330.TW", "2317.TW", "9999.TW", "2454.TW", "6488.TWO"}, order)

	// delay only between symbols
	require.Equal(t, []time.Duration{
		250 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond,
	}, sleeps.waits)
}

func TestUpdateManyRegistersEverySymbol(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	s := newStore(t)
	provider := NewMockHistoryProvider(ctrl)
	provider.EXPECT().Name().Return("mock").AnyTimes()
	provider.EXPECT().FetchHistory(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, symbol string, _, _ time.Time) ([]models.PricePoint, error) {
			if symbol == "9999.TW" {
				return nil, errors.New("unknown")
			}
			return points(fixedNow, 1, 2), nil
		}).AnyTimes()

	u := usecase.NewUpdater(s, provider, usecase.WithClock(clock), usecase.WithSleep((&sleepRecorder{}).sleep))
	entries := []models.SymbolEntry{
		{Symbol: "1101.TW", Name: "台泥"},
		{Symbol: "1102.TW", Name: "亞泥"},
		{Symbol: "9999.TW", Name: "bad"},
		{Symbol: "1216.TW", Name: "統一"},
		{Symbol: "1301.TW", Name: "台塑"},
	}
	summary, err := u.UpdateMany(ctx, entries, 120, time.Second)
	require.NoError(t, err)
	require.Equal(t, 4, summary.Succeeded)
	require.Equal(t, 1, summary.Failed)

	n, err := s.SymbolCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 5, n)

	rec, ok, err := s.SymbolRecord(ctx, "1216.TW")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "統一", rec.Name)
}

func TestUpdateManyStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	u, _, _, _ := newUpdater(t, ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := u.UpdateMany(ctx, []models.SymbolEntry{{Symbol: "2330.TW"}}, 120, 0)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, summary.Results)
}

func TestPruneDropsPointsPastRetention(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	s := newStore(t)
	provider := NewMockHistoryProvider(ctrl)

	// cutoff is 2024-06-28 - (10+30) days = 2024-05-19
	require.NoError(t, s.RegisterSymbol(ctx, "2330.TW", "", models.VenueListed))
	_, err := s.UpsertPrices(ctx, "2330.TW", points(time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), 1, 2, 3, 4), models.SourceTWSE)
	require.NoError(t, err)
	require.NoError(t, s.RegisterSymbol(ctx, "2317.TW", "", models.VenueListed))
	_, err = s.UpsertPrices(ctx, "2317.TW", points(time.Date(2024, 5, 18, 0, 0, 0, 0, time.UTC), 1, 2), models.SourceTWSE)
	require.NoError(t, err)

	u := usecase.NewUpdater(s, provider, usecase.WithClock(clock))
	n, err := u.Prune(ctx, "2330.TW", 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	n, err = u.PruneAll(ctx, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	total, err := s.PriceCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
}
