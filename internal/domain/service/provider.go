package service

//go:generate mockgen -package=usecase_test -destination=../../usecase/mock_provider_test.go -source=provider.go

import (
	"context"
	"time"

	"FinCorr/internal/domain/models"
)

// HistoryProvider supplies daily close history for one symbol over [start, end].
// Points are ascending by date. An empty slice means no trading data in range;
// errors are *models.ProviderError and callers treat them as soft failures.
type HistoryProvider interface {
	Name() string
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]models.PricePoint, error)
}

// DailyQuoteProvider supplies one venue's full quote table for a trading date.
type DailyQuoteProvider interface {
	FetchDailyQuotes(ctx context.Context, date time.Time) ([]models.Quote, error)
}
