package scheduler

import (
	"context"
	"fmt"
	"time"

	"FinCorr/internal/domain/models"
	icache "FinCorr/internal/service/cache"
	"FinCorr/internal/usecase"
	applogger "FinCorr/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Config holds cron specs (with seconds) and job parameters.
type Config struct {
	DailyCron     string
	TPExCron      string
	PruneCron     string
	Symbols       []models.SymbolEntry
	RetentionDays int
	Delay         time.Duration
	TPExDays      int
	TPExDelay     time.Duration
}

// Scheduler runs the periodic update, snapshot and prune jobs. Jobs go through
// the runner so they never overlap each other or HTTP-triggered updates.
type Scheduler struct {
	cron     *cron.Cron
	cfg      Config
	runner   *usecase.Runner
	updater  *usecase.Updater
	ingestor *usecase.SnapshotIngestor
	cache    icache.BytesCache
	l        *applogger.Logger
}

func New(cfg Config, runner *usecase.Runner, updater *usecase.Updater, ingestor *usecase.SnapshotIngestor, l *applogger.Logger) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = models.DefaultWatchList
	}
	if cfg.TPExDays <= 0 {
		cfg.TPExDays = 1
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		cfg:      cfg,
		runner:   runner,
		updater:  updater,
		ingestor: ingestor,
		l:        l,
	}
}

// SetCache makes successful jobs drop cached correlation responses.
func (s *Scheduler) SetCache(c icache.BytesCache) { s.cache = c }

// RegisterAll adds every job with a non-empty spec.
func (s *Scheduler) RegisterAll() error {
	jobs := []struct {
		name string
		spec string
		fn   func()
	}{
		{"daily_update", s.cfg.DailyCron, s.RunDailyUpdate},
		{"tpex_snapshot", s.cfg.TPExCron, s.RunSnapshot},
		{"prune", s.cfg.PruneCron, s.RunPrune},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if j.name == "tpex_snapshot" && s.ingestor == nil {
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, j.fn); err != nil {
			return fmt.Errorf("register %s task: %w", j.name, err)
		}
		s.l.Info("scheduler task registered", applogger.String("task", j.name), applogger.String("spec", j.spec))
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("scheduler started", applogger.Int("tasks", len(s.cron.Entries())))
}

// Stop waits for running cron callbacks to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.l.Info("scheduler stopped")
}

// RunDailyUpdate updates the configured watch list.
func (s *Scheduler) RunDailyUpdate() {
	res := s.submit("daily_update", func(ctx context.Context) (any, error) {
		return s.updater.UpdateMany(ctx, s.cfg.Symbols, s.cfg.RetentionDays, s.cfg.Delay)
	})
	if summary, ok := res.Value.(models.BatchSummary); ok {
		s.l.Info("daily update done",
			applogger.Int("total", summary.Total),
			applogger.Int("succeeded", summary.Succeeded),
			applogger.Int("failed", summary.Failed),
		)
		if summary.Succeeded > 0 {
			s.invalidate()
		}
	}
}

// RunSnapshot ingests the most recent secondary-venue quote tables.
func (s *Scheduler) RunSnapshot() {
	if s.ingestor == nil {
		return
	}
	res := s.submit("tpex_snapshot", func(ctx context.Context) (any, error) {
		return s.ingestor.IngestRecent(ctx, s.cfg.TPExDays, s.cfg.TPExDelay)
	})
	if counts, ok := res.Value.(map[string]int); ok {
		total := 0
		for _, n := range counts {
			total += n
		}
		s.l.Info("tpex snapshot done", applogger.Int("days", len(counts)), applogger.Int("stored", total))
		if total > 0 {
			s.invalidate()
		}
	}
}

// RunPrune drops points past retention for every registered symbol.
func (s *Scheduler) RunPrune() {
	res := s.submit("prune", func(ctx context.Context) (any, error) {
		return s.updater.PruneAll(ctx, s.cfg.RetentionDays)
	})
	if n, ok := res.Value.(int64); ok {
		s.l.Info("prune done", applogger.Int64("deleted", n))
	}
}

func (s *Scheduler) submit(name string, task usecase.Task) usecase.TaskResult {
	start := time.Now()
	s.l.Info("running scheduled task", applogger.String("task", name))
	res := <-s.runner.Submit(name, task)
	if res.Err != nil {
		s.l.Error("scheduled task failed",
			applogger.String("task", name),
			applogger.Error(res.Err),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return res
}

func (s *Scheduler) invalidate() {
	if err := icache.InvalidateCorrelations(context.Background(), s.cache); err != nil {
		s.l.Warn("cache invalidation failed", applogger.Error(err))
	}
}
