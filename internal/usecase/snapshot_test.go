package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"FinCorr/internal/domain/models"
	"FinCorr/internal/usecase"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestIngestDateStoresSecondaryVenueQuotes(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	s := newStore(t)
	provider := NewMockDailyQuoteProvider(ctrl)

	day := time.Date(2024, 6, 27, 0, 0, 0, 0, time.UTC)
	provider.EXPECT().FetchDailyQuotes(gomock.Any(), day).Return([]models.Quote{
		{Code: "6488", Name: "環球晶", Close: 512.5},
		{Code: " 3105 ", Name: "穩懋", Close: 120},
		{Code: "", Name: "blank", Close: 10},
		{Code: "8069", Name: "元太", Close: 0},
	}, nil)

	ing := usecase.NewSnapshotIngestor(s, provider, usecase.WithSnapshotClock(clock))
	n, err := ing.IngestDate(ctx, day.Add(9*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	tail, err := s.Tail(ctx, "6488.TWO", 5)
	require.NoError(t, err)
	require.Equal(t, []models.PricePoint{{Date: day, Close: 512.5, Source: models.SourceTPEX}}, tail)

	rec, ok, err := s.SymbolRecord(ctx, "3105.TWO")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "穩懋", rec.Name)
	require.Equal(t, models.VenueOTC, rec.Venue)

	_, ok, err = s.SymbolRecord(ctx, "8069.TWO")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIngestDateProviderFailureIsSoft(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockDailyQuoteProvider(ctrl)
	provider.EXPECT().FetchDailyQuotes(gomock.Any(), gomock.Any()).Return(nil, errors.New("http 503"))

	ing := usecase.NewSnapshotIngestor(newStore(t), provider)
	n, err := ing.IngestDate(context.Background(), fixedNow)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestIngestRecentWalksEachDay(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := NewMockDailyQuoteProvider(ctrl)
	provider.EXPECT().FetchDailyQuotes(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, date time.Time) ([]models.Quote, error) {
			if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
				return nil, nil
			}
			return []models.Quote{{Code: "6488", Name: "環球晶", Close: float64(date.Day())}}, nil
		}).Times(4)

	sleeps := &sleepRecorder{}
	ing := usecase.NewSnapshotIngestor(newStore(t), provider,
		usecase.WithSnapshotClock(func() time.Time { return time.Date(2024, 7, 1, 18, 0, 0, 0, time.UTC) }),
		usecase.WithSnapshotSleep(sleeps.sleep),
	)

	got, err := ing.IngestRecent(context.Background(), 3, time.Second)
	require.NoError(t, err)
	require.Equal(t, map[string]int{
		"2024-06-28": 1,
		"2024-06-29": 0,
		"2024-06-30": 0,
		"2024-07-01": 1,
	}, got)
	require.Len(t, sleeps.waits, 3)
}
