package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"FinCorr/internal/domain/models"
	domrepo "FinCorr/internal/domain/repository"
	"FinCorr/internal/services/correlation"
	applogger "FinCorr/pkg/logger"
)

// TailPoints is how many trailing closes are loaded per series.
const TailPoints = 120

var (
	// RankWindows are the long, medium and short windows used for ranking, in sort-key order.
	RankWindows = []int{120, 20, 10}
	// PairWindows are the windows reported for a direct comparison.
	PairWindows = []int{120, 60, 20}
)

const defaultWorkers = 8

// Engine ranks and compares symbols by windowed close correlation.
type Engine struct {
	store         domrepo.TimeSeriesStore
	resolver      *Resolver
	updater       *Updater
	retentionDays int
	workers       int
	runner        *Runner
	onBackfill    func(ctx context.Context, res models.UpdateResult)
	l             *applogger.Logger
}

type EngineOption func(*Engine)

// WithBackfill lets the engine fetch history for symbols missing from the store.
func WithBackfill(u *Updater, retentionDays int) EngineOption {
	return func(e *Engine) {
		e.updater = u
		e.retentionDays = retentionDays
	}
}

// WithWorkers bounds the candidate fan-out.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithEngineLogger(l *applogger.Logger) EngineOption {
	return func(e *Engine) { e.l = l }
}

func NewEngine(store domrepo.TimeSeriesStore, resolver *Resolver, opts ...EngineOption) *Engine {
	e := &Engine{store: store, resolver: resolver, workers: defaultWorkers, retentionDays: 120}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetRunner makes backfills run on r, serialized with every other store writer.
func (e *Engine) SetRunner(r *Runner) { e.runner = r }

// OnBackfill registers fn to be called after a backfill wrote points.
func (e *Engine) OnBackfill(fn func(ctx context.Context, res models.UpdateResult)) { e.onBackfill = fn }

// RankBySimilarity ranks every registered symbol against target.
func (e *Engine) RankBySimilarity(ctx context.Context, target string, topN int) ([]models.CorrelationResult, error) {
	universe, err := e.store.Symbols(ctx)
	if err != nil {
		return nil, models.NewStoreError("symbols", err)
	}
	return e.RankAgainst(ctx, target, universe, topN)
}

// RankAgainst ranks the given candidates against target. Candidates without
// data, and candidates with no defined window, are left out.
func (e *Engine) RankAgainst(ctx context.Context, target string, universe []string, topN int) ([]models.CorrelationResult, error) {
	start := time.Now()

	sym, series, err := e.load(ctx, target)
	if err != nil {
		return nil, err
	}

	candidates := make([]string, 0, len(universe))
	for _, c := range universe {
		c = normalizeSymbol(c)
		if c != "" && c != sym {
			candidates = append(candidates, c)
		}
	}

	slots := make([]*models.CorrelationResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, c := range candidates {
		g.Go(func() error {
			other, err := e.store.Tail(gctx, c, TailPoints)
			if err != nil {
				return models.NewStoreError("tail", err)
			}
			if len(other) == 0 {
				return nil
			}
			r := models.CorrelationResult{
				Symbol:     c,
				PeerSymbol: sym,
				Windows:    correlation.Windows(other, series, RankWindows),
			}
			if r.AllUndefined() {
				return nil
			}
			slots[i] = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]models.CorrelationResult, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return rankLess(results[j], results[i])
	})
	if topN >= 0 && len(results) > topN {
		results = results[:topN]
	}

	peerName, err := e.name(ctx, sym)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if results[i].Name, err = e.name(ctx, results[i].Symbol); err != nil {
			return nil, err
		}
		results[i].PeerName = peerName
	}

	if e.l != nil {
		e.l.Info("rank computed",
			applogger.String("target", sym),
			applogger.Int("candidates", len(candidates)),
			applogger.Int("ranked", len(results)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return results, nil
}

// PairwiseCorrelation compares a against b over PairWindows.
func (e *Engine) PairwiseCorrelation(ctx context.Context, a, b string) (models.CorrelationResult, error) {
	symA, seriesA, err := e.load(ctx, a)
	if err != nil {
		return models.CorrelationResult{}, err
	}
	symB, seriesB, err := e.load(ctx, b)
	if err != nil {
		return models.CorrelationResult{}, err
	}

	r := models.CorrelationResult{
		Symbol:     symA,
		PeerSymbol: symB,
		Windows:    correlation.Windows(seriesA, seriesB, PairWindows),
	}
	if r.Name, err = e.name(ctx, symA); err != nil {
		return models.CorrelationResult{}, err
	}
	if r.PeerName, err = e.name(ctx, symB); err != nil {
		return models.CorrelationResult{}, err
	}
	return r, nil
}

// ClassifyStrength labels a coefficient by magnitude and direction.
func (e *Engine) ClassifyStrength(c float64) string {
	return models.ClassifyStrength(c)
}

// load resolves code, backfills it when nothing is cached and returns its tail.
func (e *Engine) load(ctx context.Context, code string) (string, []models.PricePoint, error) {
	sym, err := e.resolver.Resolve(ctx, code)
	if err != nil {
		return "", nil, err
	}

	if e.updater != nil {
		_, cached, err := e.store.LatestDate(ctx, sym)
		if err != nil {
			return "", nil, models.NewStoreError("latest date", err)
		}
		if !cached {
			if err := e.backfill(ctx, sym); err != nil {
				return "", nil, err
			}
		}
	}

	series, err := e.store.Tail(ctx, sym, TailPoints)
	if err != nil {
		return "", nil, models.NewStoreError("tail", err)
	}
	if len(series) == 0 {
		return "", nil, models.NotFoundError(sym)
	}
	return sym, series, nil
}

// backfill fetches history for sym, on the runner when one is set.
func (e *Engine) backfill(ctx context.Context, sym string) error {
	var (
		res models.UpdateResult
		err error
	)
	if e.runner == nil {
		res, err = e.updater.UpdateOne(ctx, sym, e.retentionDays)
	} else {
		done := e.runner.Submit("backfill "+sym, func(rctx context.Context) (any, error) {
			return e.updater.UpdateOne(rctx, sym, e.retentionDays)
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-done:
			err = r.Err
			if v, ok := r.Value.(models.UpdateResult); ok {
				res = v
			}
		}
	}
	if err != nil {
		return err
	}
	if res.Points > 0 && e.onBackfill != nil {
		e.onBackfill(ctx, res)
	}
	return nil
}

func (e *Engine) name(ctx context.Context, symbol string) (string, error) {
	rec, ok, err := e.store.SymbolRecord(ctx, symbol)
	if err != nil {
		return "", models.NewStoreError("symbol record", err)
	}
	if !ok {
		return "", nil
	}
	return rec.Name, nil
}

// rankLess orders by (long, medium, short) with undefined windows as 0.
func rankLess(a, b models.CorrelationResult) bool {
	for i := range RankWindows {
		x, y := windowFloat(a, i), windowFloat(b, i)
		if x != y {
			return x < y
		}
	}
	return false
}

func windowFloat(r models.CorrelationResult, i int) float64 {
	if i >= len(r.Windows) {
		return 0
	}
	return r.Windows[i].Coefficient.Float()
}

// IsNotFound reports whether err means a symbol could not be found.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrSymbolNotFound)
}
