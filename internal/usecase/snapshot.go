package usecase

import (
	"context"
	"strings"
	"time"

	"FinCorr/internal/domain/models"
	domrepo "FinCorr/internal/domain/repository"
	domsvc "FinCorr/internal/domain/service"
	applogger "FinCorr/pkg/logger"
	"FinCorr/pkg/util"
)

// SnapshotIngestor stores one day's secondary-venue quote table as single
// closes under code.TWO.
type SnapshotIngestor struct {
	store    domrepo.TimeSeriesStore
	provider domsvc.DailyQuoteProvider
	now      func() time.Time
	sleep    SleepFunc
	l        *applogger.Logger
}

type SnapshotOption func(*SnapshotIngestor)

func WithSnapshotClock(now func() time.Time) SnapshotOption {
	return func(s *SnapshotIngestor) { s.now = now }
}

func WithSnapshotSleep(sleep SleepFunc) SnapshotOption {
	return func(s *SnapshotIngestor) { s.sleep = sleep }
}

func WithSnapshotLogger(l *applogger.Logger) SnapshotOption {
	return func(s *SnapshotIngestor) { s.l = l }
}

func NewSnapshotIngestor(store domrepo.TimeSeriesStore, provider domsvc.DailyQuoteProvider, opts ...SnapshotOption) *SnapshotIngestor {
	s := &SnapshotIngestor{store: store, provider: provider, now: time.Now, sleep: sleepCtx}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestDate stores every valid quote for date and returns how many were stored.
// A provider failure yields 0 with a nil error.
func (s *SnapshotIngestor) IngestDate(ctx context.Context, date time.Time) (int, error) {
	day := models.Day(date)
	quotes, err := s.provider.FetchDailyQuotes(ctx, day)
	if err != nil {
		if s.l != nil {
			s.l.Warn("snapshot fetch failed",
				applogger.Date("date", day),
				applogger.Error(err),
			)
		}
		return 0, nil
	}

	stored := 0
	for _, q := range quotes {
		code := strings.ToUpper(strings.TrimSpace(q.Code))
		p := models.PricePoint{Date: day, Close: q.Close}
		if code == "" || !p.Valid() {
			if s.l != nil {
				s.l.Debug("snapshot row skipped",
					applogger.String("code", q.Code),
					applogger.Float64("close", q.Close),
				)
			}
			continue
		}

		sym := models.VenueOTC.Qualify(code)
		n, err := s.store.UpsertPrices(ctx, sym, []models.PricePoint{p}, models.SourceTPEX)
		if err != nil {
			return stored, models.NewStoreError("snapshot upsert", err)
		}
		if n == 0 {
			continue
		}
		if err := s.store.RegisterSymbol(ctx, sym, strings.TrimSpace(q.Name), models.VenueOTC); err != nil {
			return stored, models.NewStoreError("snapshot register", err)
		}
		stored++
	}

	if s.l != nil {
		s.l.Info("snapshot ingested",
			applogger.Date("date", day),
			applogger.Int("quotes", len(quotes)),
			applogger.Int("stored", stored),
		)
	}
	return stored, nil
}

// IngestRange ingests each calendar day in [start, end], waiting delay between days.
// The result maps YYYY-MM-DD to the number of symbols stored.
func (s *SnapshotIngestor) IngestRange(ctx context.Context, start, end time.Time, delay time.Duration) (map[string]int, error) {
	out := make(map[string]int)
	first := true
	err := util.EachDay(models.Day(start), models.Day(end), func(day time.Time) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !first && delay > 0 {
			if err := s.sleep(ctx, delay); err != nil {
				return err
			}
		}
		first = false

		n, err := s.IngestDate(ctx, day)
		if err != nil {
			return err
		}
		out[models.FormatDate(day)] = n
		return nil
	})
	return out, err
}

// IngestRecent ingests the last days calendar days through today.
func (s *SnapshotIngestor) IngestRecent(ctx context.Context, days int, delay time.Duration) (map[string]int, error) {
	today := models.Day(s.now())
	return s.IngestRange(ctx, today.AddDate(0, 0, -days), today, delay)
}
