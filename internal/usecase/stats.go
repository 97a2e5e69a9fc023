package usecase

import (
	"context"

	"FinCorr/internal/domain/models"
	domrepo "FinCorr/internal/domain/repository"
)

// Stats returns registry and price point counts.
func Stats(ctx context.Context, store domrepo.TimeSeriesStore) (models.Stats, error) {
	symbols, err := store.SymbolCount(ctx)
	if err != nil {
		return models.Stats{}, models.NewStoreError("symbol count", err)
	}
	points, err := store.PriceCount(ctx)
	if err != nil {
		return models.Stats{}, models.NewStoreError("price count", err)
	}
	return models.Stats{Symbols: symbols, PricePoints: points}, nil
}
