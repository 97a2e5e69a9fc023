package repository

import (
	"context"
	"time"

	"FinCorr/internal/domain/models"
)

// TimeSeriesStore persists daily closes keyed by (symbol, date) plus a symbol registry.
// Every read returns points in ascending date order. Failures are *models.StoreError.
type TimeSeriesStore interface {
	Init(ctx context.Context) error

	UpsertPrices(ctx context.Context, symbol string, points []models.PricePoint, source models.Source) (int, error)
	Tail(ctx context.Context, symbol string, n int) ([]models.PricePoint, error)
	LatestDate(ctx context.Context, symbol string) (time.Time, bool, error)
	PruneBefore(ctx context.Context, symbol string, cutoff time.Time) (int64, error)

	RegisterSymbol(ctx context.Context, symbol, name string, venue models.Venue) error
	SetLastUpdate(ctx context.Context, symbol string, date time.Time) error
	SymbolRecord(ctx context.Context, symbol string) (models.SymbolRecord, bool, error)
	Symbols(ctx context.Context) ([]string, error)

	SymbolCount(ctx context.Context) (int64, error)
	PriceCount(ctx context.Context) (int64, error)

	Health(ctx context.Context) error
	Close() error
}

// EventPublisher announces price updates to downstream consumers.
type EventPublisher interface {
	PublishPriceUpdate(ctx context.Context, ev models.PriceUpdateEvent) error
	Close() error
}

type Metrics interface {
	RecordUpdate(status string)
	RecordPointsWritten(source string, n int)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
