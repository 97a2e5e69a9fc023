package di

import (
	"context"
	"fmt"
	"time"

	"FinCorr/internal/domain/models"
	"FinCorr/internal/domain/repository"
	"FinCorr/internal/domain/service"
	"FinCorr/internal/export"
	"FinCorr/internal/handler/api"
	internalrepo "FinCorr/internal/repository"
	"FinCorr/internal/scheduler"
	icache "FinCorr/internal/service/cache"
	apimetrics "FinCorr/internal/service/metrics"
	"FinCorr/internal/service/ratelimit"
	"FinCorr/internal/service/tpex"
	"FinCorr/internal/service/yahoo"
	"FinCorr/internal/usecase"
	pkgch "FinCorr/pkg/clickhouse"
	"FinCorr/pkg/config"
	xhttp "FinCorr/pkg/http"
	pkgkafka "FinCorr/pkg/kafka"
	applogger "FinCorr/pkg/logger"
	"FinCorr/pkg/metrics"
	"FinCorr/pkg/server"
	pkgsqlite "FinCorr/pkg/sqlite"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Toolkit bundles the use cases driven by the CLI.
type Toolkit struct {
	Config   *config.Config
	Logger   *applogger.Logger
	Store    repository.TimeSeriesStore
	Resolver *usecase.Resolver
	Updater  *usecase.Updater
	Engine   *usecase.Engine
	Ingestor *usecase.SnapshotIngestor
	Exporter *export.ParquetExporter
}

// Close releases the store.
func (t *Toolkit) Close() error { return t.Store.Close() }

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry creates a private Prometheus registry with runtime collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.NewWithRegistry(reg)
}

func ProvideAPIMetrics(reg *prometheus.Registry) *apimetrics.API {
	return apimetrics.NewAPI(reg)
}

// ProvideStore opens the configured time-series store and migrates its schema.
func ProvideStore(cfg *config.Config, l *applogger.Logger) (repository.TimeSeriesStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.Store.Driver {
	case "clickhouse":
		opts := []pkgch.ClientOption{
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		}
		if cfg.ClickHouse.User != "" {
			opts = append(opts, pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password))
		}
		client, err := pkgch.NewClient(opts...)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		store := internalrepo.NewCHStore(client)
		store.SetLogger(l)
		if err := store.Init(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return store, nil

	default:
		opts := []pkgsqlite.ClientOption{pkgsqlite.WithPath(cfg.Store.SQLite.Path)}
		if cfg.Store.SQLite.BusyTimeout > 0 {
			opts = append(opts, pkgsqlite.WithBusyTimeout(cfg.Store.SQLite.BusyTimeout))
		}
		client, err := pkgsqlite.NewClient(opts...)
		if err != nil {
			return nil, fmt.Errorf("sqlite client: %w", err)
		}
		store := internalrepo.NewSQLiteStore(client)
		store.SetLogger(l)
		if err := store.Init(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("sqlite schema: %w", err)
		}
		return store, nil
	}
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher publishes price updates to Kafka and routes the logger's
// error digests to the log topic. Without a producer events are dropped.
func ProvidePublisher(cfg *config.Config, producer *pkgkafka.Producer, l *applogger.Logger) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	if cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval: 30 * time.Second,
			Topic:        cfg.Kafka.LogTopic,
			Publisher:    pub,
		})
	}
	return pub
}

// ProvideHistoryProvider creates the Yahoo client behind a minimum-interval gate.
func ProvideHistoryProvider(cfg *config.Config, l *applogger.Logger) service.HistoryProvider {
	y := cfg.Provider.Yahoo
	client := yahoo.New(y.BaseURL, xhttp.NewClient(
		xhttp.WithTimeout(y.Timeout),
		xhttp.WithUserAgent(y.UserAgent),
	))
	client.SetLogger(l)
	if y.MinInterval <= 0 {
		return client
	}
	return ratelimit.NewMinInterval(client, y.MinInterval)
}

// ProvideQuoteProvider creates the TPEx daily quotes client.
func ProvideQuoteProvider(cfg *config.Config, l *applogger.Logger) service.DailyQuoteProvider {
	t := cfg.Provider.TPEx
	client := tpex.New(t.BaseURL, xhttp.NewClient(
		xhttp.WithTimeout(t.Timeout),
		xhttp.WithUserAgent(t.UserAgent),
	))
	client.SetLogger(l)
	return client
}

func ProvideResolver(cfg *config.Config, store repository.TimeSeriesStore, provider service.HistoryProvider, l *applogger.Logger) *usecase.Resolver {
	return usecase.NewResolver(store, provider,
		usecase.WithLookbackDays(cfg.Provider.Yahoo.LookbackDays),
		usecase.WithResolverLogger(l),
	)
}

func ProvideUpdater(
	store repository.TimeSeriesStore,
	provider service.HistoryProvider,
	pub repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Updater {
	return usecase.NewUpdater(store, provider,
		usecase.WithPublisher(pub),
		usecase.WithMetrics(m),
		usecase.WithUpdaterLogger(l),
	)
}

func ProvideEngine(cfg *config.Config, store repository.TimeSeriesStore, resolver *usecase.Resolver, updater *usecase.Updater, l *applogger.Logger) *usecase.Engine {
	return usecase.NewEngine(store, resolver,
		usecase.WithBackfill(updater, cfg.Updater.RetentionDays),
		usecase.WithWorkers(cfg.Correlation.Workers),
		usecase.WithEngineLogger(l),
	)
}

func ProvideSnapshotIngestor(store repository.TimeSeriesStore, provider service.DailyQuoteProvider, l *applogger.Logger) *usecase.SnapshotIngestor {
	return usecase.NewSnapshotIngestor(store, provider, usecase.WithSnapshotLogger(l))
}

func ProvideExporter(store repository.TimeSeriesStore, l *applogger.Logger) *export.ParquetExporter {
	e := export.NewParquetExporter(store)
	e.SetLogger(l)
	return e
}

func ProvideRunner(l *applogger.Logger) *usecase.Runner {
	return usecase.NewRunner(16, l)
}

// ProvideCache returns the shared Redis cache when configured, an in-process
// TTL cache when only caching is enabled, or nil.
func ProvideCache(cfg *config.Config) (icache.BytesCache, error) {
	if cfg.Cache.Redis.Enabled {
		rc, err := icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}
	if cfg.Cache.Enabled {
		return icache.NewTTLCache(), nil
	}
	return nil, nil
}

func ProvideHandler(
	cfg *config.Config,
	l *applogger.Logger,
	store repository.TimeSeriesStore,
	resolver *usecase.Resolver,
	engine *usecase.Engine,
	updater *usecase.Updater,
	ingestor *usecase.SnapshotIngestor,
	runner *usecase.Runner,
	cache icache.BytesCache,
	m *apimetrics.API,
) *api.CorrelationEchoHandler {
	h := api.NewCorrelationEchoHandler(l, store, resolver, engine, updater)
	if cache != nil {
		h.SetCache(cache, cfg.Cache.TTL)
		engine.OnBackfill(func(ctx context.Context, _ models.UpdateResult) {
			if err := icache.InvalidateCorrelations(ctx, cache); err != nil {
				l.Warn("cache invalidation after backfill failed", applogger.Error(err))
			}
		})
	}
	h.SetMetrics(m)
	h.SetRunner(runner)
	h.SetIngestor(ingestor, cfg.Scheduler.TPExDelay)
	engine.SetRunner(runner)
	return h
}

func ProvideHTTPServer(cfg *config.Config, h *api.CorrelationEchoHandler, l *applogger.Logger, reg *prometheus.Registry) *xhttp.Server {
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
		xhttp.WithRegistry(reg, reg),
	)
}

func ProvideScheduler(
	cfg *config.Config,
	runner *usecase.Runner,
	updater *usecase.Updater,
	ingestor *usecase.SnapshotIngestor,
	cache icache.BytesCache,
	l *applogger.Logger,
) *scheduler.Scheduler {
	symbols := make([]models.SymbolEntry, 0, len(cfg.Updater.Symbols))
	for _, s := range cfg.Updater.Symbols {
		symbols = append(symbols, models.SymbolEntry{Symbol: s.Symbol, Name: s.Name})
	}
	s := scheduler.New(scheduler.Config{
		DailyCron:     cfg.Scheduler.DailyCron,
		TPExCron:      cfg.Scheduler.TPExCron,
		PruneCron:     cfg.Scheduler.PruneCron,
		Symbols:       symbols,
		RetentionDays: cfg.Updater.RetentionDays,
		Delay:         cfg.Updater.Delay,
		TPExDelay:     cfg.Scheduler.TPExDelay,
	}, runner, updater, ingestor, l)
	if cache != nil {
		s.SetCache(cache)
	}
	return s
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	runner *usecase.Runner,
	store repository.TimeSeriesStore,
	pub repository.EventPublisher,
	cache icache.BytesCache,
) *server.App {
	app := server.New(cfg, l, httpServer, sched, runner, store, pub)
	if rc, ok := cache.(*icache.RedisCache); ok {
		app.AddCloser(rc)
	}
	return app
}
