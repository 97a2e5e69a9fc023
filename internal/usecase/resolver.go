package usecase

import (
	"context"
	"time"

	"FinCorr/internal/domain/models"
	domrepo "FinCorr/internal/domain/repository"
	domsvc "FinCorr/internal/domain/service"
	applogger "FinCorr/pkg/logger"
)

// DefaultLookbackDays is the calendar span of a provider existence check (about 5 sessions).
const DefaultLookbackDays = 7

// resolveStep is one link of the resolution chain.
type resolveStep func(ctx context.Context) (symbol string, found bool, err error)

// Resolver maps a possibly bare code to a canonical venue-qualified symbol.
// It never writes to the store.
type Resolver struct {
	store        domrepo.TimeSeriesStore
	provider     domsvc.HistoryProvider
	lookbackDays int
	now          func() time.Time
	l            *applogger.Logger
}

type ResolverOption func(*Resolver)

// WithLookbackDays sets the provider existence check span.
func WithLookbackDays(days int) ResolverOption {
	return func(r *Resolver) {
		if days > 0 {
			r.lookbackDays = days
		}
	}
}

func WithResolverClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

func WithResolverLogger(l *applogger.Logger) ResolverOption {
	return func(r *Resolver) { r.l = l }
}

// NewResolver creates a resolver. provider may be nil, which disables provider lookups.
func NewResolver(store domrepo.TimeSeriesStore, provider domsvc.HistoryProvider, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: store, provider: provider, lookbackDays: DefaultLookbackDays, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the canonical symbol for code, or ErrSymbolNotFound.
func (r *Resolver) Resolve(ctx context.Context, code string) (string, error) {
	base, venue, suffixed := models.SplitSymbol(code)
	if base == "" {
		return "", models.NotFoundError(code)
	}

	var steps []resolveStep
	if suffixed {
		steps = append(steps, r.cacheStep(venue.Qualify(base)))
	}
	for _, v := range models.Venues {
		steps = append(steps, r.cacheStep(v.Qualify(base)))
	}
	for _, v := range models.Venues {
		steps = append(steps, r.providerStep(v.Qualify(base)))
	}

	for _, step := range steps {
		sym, found, err := step(ctx)
		if err != nil {
			return "", err
		}
		if found {
			return sym, nil
		}
	}
	return "", models.NotFoundError(code)
}

// cacheStep hits when the store holds at least one point for symbol.
func (r *Resolver) cacheStep(symbol string) resolveStep {
	return func(ctx context.Context) (string, bool, error) {
		_, ok, err := r.store.LatestDate(ctx, symbol)
		if err != nil {
			return "", false, models.NewStoreError("resolve", err)
		}
		return symbol, ok, nil
	}
}

// providerStep hits when the provider returns any data for the last lookbackDays.
// Provider errors count as a miss.
func (r *Resolver) providerStep(symbol string) resolveStep {
	return func(ctx context.Context) (string, bool, error) {
		if r.provider == nil {
			return "", false, nil
		}
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		end := r.now()
		pts, err := r.provider.FetchHistory(ctx, symbol, end.AddDate(0, 0, -r.lookbackDays), end)
		if err != nil {
			if r.l != nil {
				r.l.Debug("resolve provider lookup failed",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return "", false, nil
		}
		return symbol, len(pts) > 0, nil
	}
}
