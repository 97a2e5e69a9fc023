package usecase

import (
	"context"
	"strings"
	"time"

	"FinCorr/internal/domain/models"
	domrepo "FinCorr/internal/domain/repository"
	domsvc "FinCorr/internal/domain/service"
	applogger "FinCorr/pkg/logger"
)

const (
	// backfillPadDays extends a first fetch past the retention horizon.
	backfillPadDays = 60
	// pruneGraceDays keeps points a little past the retention horizon.
	pruneGraceDays = 30
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Updater pulls missing daily closes from a provider into the store.
// It runs serially; callers must not run two batches against one store.
type Updater struct {
	store     domrepo.TimeSeriesStore
	provider  domsvc.HistoryProvider
	publisher domrepo.EventPublisher
	metrics   domrepo.Metrics
	now       func() time.Time
	sleep     SleepFunc
	l         *applogger.Logger
}

type UpdaterOption func(*Updater)

func WithClock(now func() time.Time) UpdaterOption {
	return func(u *Updater) { u.now = now }
}

// WithSleep replaces the inter-symbol wait.
func WithSleep(sleep SleepFunc) UpdaterOption {
	return func(u *Updater) { u.sleep = sleep }
}

// WithPublisher announces every successful update.
func WithPublisher(p domrepo.EventPublisher) UpdaterOption {
	return func(u *Updater) { u.publisher = p }
}

func WithMetrics(m domrepo.Metrics) UpdaterOption {
	return func(u *Updater) { u.metrics = m }
}

func WithUpdaterLogger(l *applogger.Logger) UpdaterOption {
	return func(u *Updater) { u.l = l }
}

func NewUpdater(store domrepo.TimeSeriesStore, provider domsvc.HistoryProvider, opts ...UpdaterOption) *Updater {
	u := &Updater{store: store, provider: provider, now: time.Now, sleep: sleepCtx}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// UpdateOne fetches whatever is missing for symbol. Provider failures and empty
// fetches yield a failed result with a nil error; only store failures return an error.
func (u *Updater) UpdateOne(ctx context.Context, symbol string, retentionDays int) (models.UpdateResult, error) {
	start := time.Now()
	symbol = normalizeSymbol(symbol)
	res := models.UpdateResult{Symbol: symbol}
	defer func() {
		u.recordLatency("update_one", start)
		if u.metrics != nil {
			u.metrics.RecordUpdate(string(res.Status))
		}
	}()

	now := u.now()
	latest, ok, err := u.store.LatestDate(ctx, symbol)
	if err != nil {
		res.Status = models.UpdateStatusFailed
		res.Reason = "store error"
		u.recordError("store")
		return res, models.NewStoreError("latest date", err)
	}

	var from time.Time
	if ok {
		from = latest.AddDate(0, 0, 1)
		if !from.Before(now) {
			res.Status = models.UpdateStatusUpToDate
			return res, nil
		}
	} else {
		from = now.AddDate(0, 0, -(retentionDays + backfillPadDays))
	}
	res.From = models.FormatDate(from)
	res.To = models.FormatDate(now)

	points, err := u.provider.FetchHistory(ctx, symbol, from, now)
	if err != nil {
		res.Status = models.UpdateStatusFailed
		res.Reason = err.Error()
		u.recordError("provider")
		if u.l != nil {
			u.l.Warn("update fetch failed",
				applogger.String("symbol", symbol),
				applogger.String("provider", u.provider.Name()),
				applogger.Error(err),
			)
		}
		return res, nil
	}
	if len(points) == 0 {
		res.Status = models.UpdateStatusFailed
		res.Reason = models.ErrNoData.Error()
		if u.l != nil {
			u.l.Info("update fetched no data",
				applogger.String("symbol", symbol),
				applogger.String("from", res.From),
				applogger.String("to", res.To),
			)
		}
		return res, nil
	}

	source := models.VenueOf(symbol).Source()
	written, err := u.store.UpsertPrices(ctx, symbol, points, source)
	if err != nil {
		res.Status = models.UpdateStatusFailed
		res.Reason = "store error"
		u.recordError("store")
		return res, models.NewStoreError("upsert prices", err)
	}
	if err := u.store.SetLastUpdate(ctx, symbol, now); err != nil {
		res.Status = models.UpdateStatusFailed
		res.Reason = "store error"
		u.recordError("store")
		return res, models.NewStoreError("set last update", err)
	}

	last := points[len(points)-1]
	res.Status = models.UpdateStatusUpdated
	res.Points = written
	res.From = models.FormatDate(points[0].Date)
	res.To = models.FormatDate(last.Date)

	if u.metrics != nil {
		u.metrics.RecordPointsWritten(string(source), written)
		u.metrics.RecordLastPrice(symbol, last.Close)
	}
	u.publish(ctx, models.PriceUpdateEvent{
		Symbol:    symbol,
		Source:    source,
		Points:    written,
		From:      res.From,
		To:        res.To,
		LastClose: last.Close,
		UpdatedAt: now,
	})
	if u.l != nil {
		u.l.Info("symbol updated",
			applogger.String("symbol", symbol),
			applogger.Int("points", written),
			applogger.String("from", res.From),
			applogger.String("to", res.To),
		)
	}
	return res, nil
}

// UpdateMany registers and updates entries in input order, waiting delay between
// consecutive symbols. Per-symbol failures are counted; a store failure or
// cancellation stops the batch and returns the partial summary.
func (u *Updater) UpdateMany(ctx context.Context, entries []models.SymbolEntry, retentionDays int, delay time.Duration) (models.BatchSummary, error) {
	start := time.Now()
	defer u.recordLatency("update_many", start)

	summary := models.BatchSummary{Total: len(entries), Results: make([]models.UpdateResult, 0, len(entries))}
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		symbol := normalizeSymbol(e.Symbol)
		if err := u.store.RegisterSymbol(ctx, symbol, e.Name, models.VenueOf(symbol)); err != nil {
			u.recordError("store")
			return summary, models.NewStoreError("register symbol", err)
		}

		res, err := u.UpdateOne(ctx, symbol, retentionDays)
		if err != nil {
			summary.Add(res)
			return summary, err
		}
		summary.Add(res)

		if u.l != nil {
			u.l.Debug("batch progress",
				applogger.Int("index", i+1),
				applogger.Int("total", len(entries)),
				applogger.String("symbol", symbol),
				applogger.String("status", string(res.Status)),
			)
		}

		if i < len(entries)-1 && delay > 0 {
			if err := u.sleep(ctx, delay); err != nil {
				return summary, err
			}
		}
	}

	if u.l != nil {
		u.l.Info("batch update finished",
			applogger.Int("total", summary.Total),
			applogger.Int("succeeded", summary.Succeeded),
			applogger.Int("failed", summary.Failed),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return summary, nil
}

// Prune deletes points older than retentionDays plus a grace period.
func (u *Updater) Prune(ctx context.Context, symbol string, retentionDays int) (int64, error) {
	cutoff := models.Day(u.now().AddDate(0, 0, -(retentionDays + pruneGraceDays)))
	n, err := u.store.PruneBefore(ctx, normalizeSymbol(symbol), cutoff)
	if err != nil {
		u.recordError("store")
		return 0, models.NewStoreError("prune", err)
	}
	return n, nil
}

// PruneAll prunes every registered symbol and returns the total removed.
func (u *Updater) PruneAll(ctx context.Context, retentionDays int) (int64, error) {
	symbols, err := u.store.Symbols(ctx)
	if err != nil {
		return 0, models.NewStoreError("symbols", err)
	}
	var total int64
	for _, s := range symbols {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := u.Prune(ctx, s, retentionDays)
		if err != nil {
			return total, err
		}
		total += n
	}
	if u.l != nil {
		u.l.Info("prune finished",
			applogger.Int("symbols", len(symbols)),
			applogger.Int64("deleted", total),
		)
	}
	return total, nil
}

func (u *Updater) publish(ctx context.Context, ev models.PriceUpdateEvent) {
	if u.publisher == nil {
		return
	}
	if err := u.publisher.PublishPriceUpdate(ctx, ev); err != nil {
		u.recordError("publish")
		if u.l != nil {
			u.l.Error("publish price update failed",
				applogger.String("symbol", ev.Symbol),
				applogger.Error(err),
			)
		}
	}
}

func (u *Updater) recordError(kind string) {
	if u.metrics != nil {
		u.metrics.RecordError(kind)
	}
}

func (u *Updater) recordLatency(op string, start time.Time) {
	if u.metrics != nil {
		u.metrics.RecordLatency(op, time.Since(start).Seconds())
	}
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
