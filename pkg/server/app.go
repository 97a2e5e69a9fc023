package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	domrepo "FinCorr/internal/domain/repository"
	"FinCorr/internal/scheduler"
	"FinCorr/internal/usecase"
	"FinCorr/pkg/config"
	xhttp "FinCorr/pkg/http"
	applogger "FinCorr/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	scheduler  *scheduler.Scheduler
	runner     *usecase.Runner
	store      domrepo.TimeSeriesStore
	publisher  domrepo.EventPublisher
	closers    []io.Closer
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	runner *usecase.Runner,
	store domrepo.TimeSeriesStore,
	publisher domrepo.EventPublisher,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		httpServer: httpServer,
		scheduler:  sched,
		runner:     runner,
		store:      store,
		publisher:  publisher,
	}
}

// AddCloser registers a resource released at shutdown, after the store.
func (a *App) AddCloser(c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, c)
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	if a.cfg.Scheduler.Enabled && a.scheduler != nil {
		if err := a.scheduler.RegisterAll(); err != nil {
			a.l.Error("scheduler register error", applogger.Error(err))
			return err
		}
		a.scheduler.Start()
		if a.cfg.Scheduler.RunOnStartup {
			go a.scheduler.RunDailyUpdate()
		}
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops intake first, then background work, then storage.
func (a *App) shutdown() error {
	a.l.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.runner != nil {
		a.runner.Close()
	}

	// flush pending log digests while the publisher is still open
	a.l.RemoveCollector()
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("publisher close error", applogger.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.l.Warn("store close error", applogger.Error(err))
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.l.Warn("resource close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
