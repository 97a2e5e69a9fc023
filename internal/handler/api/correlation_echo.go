package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"FinCorr/internal/domain/models"
	domrepo "FinCorr/internal/domain/repository"
	icache "FinCorr/internal/service/cache"
	"FinCorr/internal/service/metrics"
	"FinCorr/internal/service/ratelimit"
	"FinCorr/internal/usecase"
	xhttp "FinCorr/pkg/http"
	xlogger "FinCorr/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	updateBurst      = 5
	updateRefillRate = 0.2

	maxSnapshotDays = 31
	maxSymbolsLimit = 1000
)

// RankResponse is the payload of GET /api/rank.
type RankResponse struct {
	Target  string                     `json:"target"`
	TopN    int                        `json:"top_n"`
	Results []models.CorrelationResult `json:"results"`
}

// ResolveResponse is the payload of GET /api/resolve.
type ResolveResponse struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

// SnapshotResponse is the payload of POST /api/snapshot.
type SnapshotResponse struct {
	Start  string         `json:"start"`
	End    string         `json:"end"`
	Stored map[string]int `json:"stored"`
}

// CorrelationEchoHandler serves the correlation API on Echo.
type CorrelationEchoHandler struct {
	logger   *xlogger.Logger
	store    domrepo.TimeSeriesStore
	resolver *usecase.Resolver
	engine   *usecase.Engine
	updater  *usecase.Updater
	runner   *usecase.Runner

	ingestor      *usecase.SnapshotIngestor
	snapshotDelay time.Duration
	now           func() time.Time

	cache    icache.BytesCache
	cacheTTL time.Duration
	rl       *ratelimit.Limiter
	metrics  *metrics.API
}

func NewCorrelationEchoHandler(
	logger *xlogger.Logger,
	store domrepo.TimeSeriesStore,
	resolver *usecase.Resolver,
	engine *usecase.Engine,
	updater *usecase.Updater,
) *CorrelationEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &CorrelationEchoHandler{
		logger:   logger,
		store:    store,
		resolver: resolver,
		engine:   engine,
		updater:  updater,
		rl:       ratelimit.New(),
		now:      time.Now,
	}
}

// SetCache enables response caching for rank and pair queries.
func (h *CorrelationEchoHandler) SetCache(c icache.BytesCache, ttl time.Duration) {
	h.cache = c
	h.cacheTTL = ttl
}

func (h *CorrelationEchoHandler) SetMetrics(m *metrics.API) { h.metrics = m }

// SetRunner routes update requests through r so they never overlap scheduled jobs.
func (h *CorrelationEchoHandler) SetRunner(r *usecase.Runner) { h.runner = r }

// SetIngestor enables POST /api/snapshot, waiting delay between days.
func (h *CorrelationEchoHandler) SetIngestor(ing *usecase.SnapshotIngestor, delay time.Duration) {
	h.ingestor = ing
	h.snapshotDelay = delay
}

func (h *CorrelationEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/resolve", h.Resolve)
	g.GET("/rank", h.Rank)
	g.GET("/pair", h.Pair)
	g.POST("/update", h.Update)
	g.POST("/update/batch", h.UpdateBatch)
	g.GET("/symbols", h.Symbols)
	g.POST("/snapshot", h.Snapshot)
	g.GET("/stats", h.Stats)
	g.GET("/health", h.Health)
}

func (h *CorrelationEchoHandler) Resolve(c echo.Context) error {
	defer h.observe("resolve", time.Now())
	req := &models.ResolveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sym, err := h.resolver.Resolve(c.Request().Context(), req.Code)
	if err != nil {
		return h.fail(c, "resolve", err)
	}
	return xhttp.SuccessResponse(c, ResolveResponse{Code: req.Code, Symbol: sym})
}

func (h *CorrelationEchoHandler) Rank(c echo.Context) error {
	defer h.observe("rank", time.Now())
	req := &models.RankRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	key := fmt.Sprintf("%s%s:%d", icache.RankPrefix, normalize(req.Target), req.TopN)
	res, err := cached(ctx, h, "rank", key, func() (RankResponse, error) {
		results, err := h.engine.RankBySimilarity(ctx, req.Target, req.TopN)
		if err != nil {
			return RankResponse{}, err
		}
		target := req.Target
		if len(results) > 0 {
			target = results[0].PeerSymbol
		}
		return RankResponse{Target: target, TopN: req.TopN, Results: results}, nil
	})
	if err != nil {
		return h.fail(c, "rank", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *CorrelationEchoHandler) Pair(c echo.Context) error {
	defer h.observe("pair", time.Now())
	req := &models.PairRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	key := icache.PairPrefix + normalize(req.A) + ":" + normalize(req.B)
	res, err := cached(ctx, h, "pair", key, func() (models.CorrelationResult, error) {
		return h.engine.PairwiseCorrelation(ctx, req.A, req.B)
	})
	if err != nil {
		return h.fail(c, "pair", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *CorrelationEchoHandler) Update(c echo.Context) error {
	defer h.observe("update", time.Now())
	if !h.rl.Allow(c.RealIP()+":update", updateBurst, updateRefillRate) {
		return h.fail(c, "update", xhttp.TooManyRequestsError("too many update requests"))
	}
	req := &models.UpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	entries := []models.SymbolEntry{{Symbol: req.Symbol, Name: req.Name}}
	summary, err := h.runBatch(c.Request().Context(), entries, req.RetentionDays, 0)
	if err != nil {
		return h.fail(c, "update", err)
	}
	return xhttp.SuccessResponse(c, summary.Results[0])
}

func (h *CorrelationEchoHandler) UpdateBatch(c echo.Context) error {
	defer h.observe("update_batch", time.Now())
	if !h.rl.Allow(c.RealIP()+":update", updateBurst, updateRefillRate) {
		return h.fail(c, "update_batch", xhttp.TooManyRequestsError("too many update requests"))
	}
	req := &models.BatchUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	delay := time.Duration(req.DelayMS) * time.Millisecond
	summary, err := h.runBatch(c.Request().Context(), req.Symbols, req.RetentionDays, delay)
	if err != nil {
		return h.fail(c, "update_batch", err)
	}
	return xhttp.SuccessResponse(c, summary)
}

// Symbols lists the registry in symbol order, up to limit rows.
func (h *CorrelationEchoHandler) Symbols(c echo.Context) error {
	defer h.observe("symbols", time.Now())
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), maxSymbolsLimit)
	if limit <= 0 || limit > maxSymbolsLimit {
		limit = maxSymbolsLimit
	}

	ctx := c.Request().Context()
	symbols, err := h.store.Symbols(ctx)
	if err != nil {
		return h.fail(c, "symbols", err)
	}
	total := int64(len(symbols))
	if len(symbols) > limit {
		symbols = symbols[:limit]
	}

	rows := make([]models.SymbolRecord, 0, len(symbols))
	for _, sym := range symbols {
		rec, ok, err := h.store.SymbolRecord(ctx, sym)
		if err != nil {
			return h.fail(c, "symbols", err)
		}
		if ok {
			rows = append(rows, rec)
		}
	}
	return xhttp.ListResponse(c, rows, total)
}

// Snapshot ingests the OTC daily quote tables for [start, end]. Both default to today.
func (h *CorrelationEchoHandler) Snapshot(c echo.Context) error {
	defer h.observe("snapshot", time.Now())
	if h.ingestor == nil {
		return h.fail(c, "snapshot", xhttp.ServiceUnavailableError("snapshot ingestion disabled"))
	}
	if !h.rl.Allow(c.RealIP()+":update", updateBurst, updateRefillRate) {
		return h.fail(c, "snapshot", xhttp.TooManyRequestsError("too many update requests"))
	}

	today := models.Day(h.now())
	end := models.Day(xhttp.ParseDateDefault(c.QueryParam("end"), today))
	start := models.Day(xhttp.ParseDateDefault(c.QueryParam("start"), end))
	if start.After(end) {
		return h.fail(c, "snapshot", xhttp.NewAppError("ERR_BAD_RANGE", "start", "start must not be after end", http.StatusBadRequest))
	}
	if end.Sub(start) >= maxSnapshotDays*24*time.Hour {
		return h.fail(c, "snapshot", xhttp.NewAppError("ERR_BAD_RANGE", "start", fmt.Sprintf("range exceeds %d days", maxSnapshotDays), http.StatusBadRequest))
	}

	ctx := c.Request().Context()
	task := func(rctx context.Context) (any, error) {
		return h.ingestor.IngestRange(rctx, start, end, h.snapshotDelay)
	}
	v, err := h.run(ctx, "http_snapshot", task)
	stored, _ := v.(map[string]int)
	if err != nil {
		return h.fail(c, "snapshot", err)
	}

	for _, n := range stored {
		if n > 0 {
			h.invalidate(ctx)
			break
		}
	}
	return xhttp.SuccessResponse(c, SnapshotResponse{
		Start:  models.FormatDate(start),
		End:    models.FormatDate(end),
		Stored: stored,
	})
}

func (h *CorrelationEchoHandler) Stats(c echo.Context) error {
	defer h.observe("stats", time.Now())
	st, err := usecase.Stats(c.Request().Context(), h.store)
	if err != nil {
		return h.fail(c, "stats", err)
	}
	return xhttp.SuccessResponse(c, st)
}

func (h *CorrelationEchoHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("store unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// runBatch runs UpdateMany, on the runner when one is set, then drops cached
// rankings since they may now be stale.
func (h *CorrelationEchoHandler) runBatch(ctx context.Context, entries []models.SymbolEntry, retentionDays int, delay time.Duration) (models.BatchSummary, error) {
	v, err := h.run(ctx, "http_update", func(rctx context.Context) (any, error) {
		return h.updater.UpdateMany(rctx, entries, retentionDays, delay)
	})
	summary, _ := v.(models.BatchSummary)
	if err != nil {
		return summary, err
	}

	if summary.Succeeded > 0 {
		h.invalidate(ctx)
	}
	return summary, nil
}

// run executes task on the runner when one is set, or inline otherwise.
func (h *CorrelationEchoHandler) run(ctx context.Context, name string, task usecase.Task) (any, error) {
	if h.runner == nil {
		return task(ctx)
	}
	done := h.runner.Submit(name, task)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.Value, res.Err
	}
}

func (h *CorrelationEchoHandler) invalidate(ctx context.Context) {
	if err := icache.InvalidateCorrelations(ctx, h.cache); err != nil {
		h.logger.Warn("cache invalidation failed", xlogger.Error(err))
	}
}

// cached serves key from the response cache, loading and storing it on a miss.
func cached[T any](ctx context.Context, h *CorrelationEchoHandler, endpoint, key string, load func() (T, error)) (T, error) {
	if h.cache == nil {
		return load()
	}
	hit := true
	v, err := icache.GetOrLoad(ctx, h.cache, key, h.cacheTTL, func() (T, error) {
		hit = false
		return load()
	})
	if h.metrics != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		h.metrics.CacheLookup.WithLabelValues(endpoint, result).Inc()
	}
	return v, err
}

// fail maps a domain error onto an AppError response.
func (h *CorrelationEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	var (
		appErr *xhttp.AppError
		se     *models.StoreError
		kind   string
	)
	switch {
	case errors.As(err, &appErr):
		kind = appErr.Code
	case errors.Is(err, models.ErrSymbolNotFound):
		kind = "not_found"
		appErr = xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.As(err, &se):
		kind = "store"
		appErr = xhttp.InternalError("store failure").WithError(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = "canceled"
		appErr = xhttp.ServiceUnavailableError("request canceled").WithError(err)
	default:
		kind = "internal"
		appErr = xhttp.InternalError("internal error").WithError(err)
	}

	if h.metrics != nil {
		h.metrics.Errors.WithLabelValues(endpoint, kind).Inc()
	}
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	} else {
		h.logger.Debug(endpoint+" request rejected", xlogger.String("kind", kind), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func (h *CorrelationEchoHandler) observe(endpoint string, start time.Time) {
	if h.metrics != nil {
		h.metrics.Latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

func normalize(code string) string {
	base, venue, ok := models.SplitSymbol(code)
	if ok {
		return venue.Qualify(base)
	}
	return base
}
