package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"FinCorr/internal/domain/models"
	domrepo "FinCorr/internal/domain/repository"
	pkgch "FinCorr/pkg/clickhouse"
	applogger "FinCorr/pkg/logger"
)

// chSchema returns the DDL for a database. Both tables are ReplacingMergeTree so
// re-inserting a key replaces the row once parts merge; reads use FINAL.
func chSchema(db string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.stock_prices (
			symbol      LowCardinality(String),
			date        Date,
			close_price Float64,
			source      LowCardinality(String) DEFAULT 'TWSE',
			updated_at  DateTime64(3) DEFAULT now64(3)
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY (symbol, date)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.stock_list (
			symbol      String,
			name        String,
			market      LowCardinality(String),
			last_update Nullable(Date),
			created_at  DateTime DEFAULT now(),
			version     UInt64
		) ENGINE = ReplacingMergeTree(version)
		ORDER BY symbol`, db),
	}
}

// CHStore implements TimeSeriesStore backed by ClickHouse.
type CHStore struct {
	ch     *pkgch.Client
	db     *sql.DB
	prices string
	list   string
	l      *applogger.Logger
}

var _ domrepo.TimeSeriesStore = (*CHStore)(nil)

func NewCHStore(ch *pkgch.Client) *CHStore {
	return &CHStore{
		ch:     ch,
		db:     ch.DB(),
		prices: ch.Database() + ".stock_prices",
		list:   ch.Database() + ".stock_list",
	}
}

// SetLogger injects a structured logger.
func (s *CHStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHStore) Init(ctx context.Context) error {
	if err := s.ch.InitSchema(ctx, chSchema(s.ch.Database())); err != nil {
		return models.NewStoreError("init", err)
	}
	return nil
}

func (s *CHStore) UpsertPrices(ctx context.Context, symbol string, points []models.PricePoint, source models.Source) (int, error) {
	start := time.Now()
	const chunkSize = 2000

	written := 0
	for from := 0; from < len(points); from += chunkSize {
		to := from + chunkSize
		if to > len(points) {
			to = len(points)
		}

		values := make([]string, 0, to-from)
		args := make([]interface{}, 0, (to-from)*4)
		for _, p := range points[from:to] {
			if !p.Valid() {
				if s.l != nil {
					s.l.Warn("clickhouse upsert skipped invalid point",
						applogger.String("symbol", symbol),
						applogger.Date("date", p.Date),
						applogger.Float64("close", p.Close),
					)
				}
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, symbol, models.Day(p.Date), p.Close, string(source))
		}
		if len(values) == 0 {
			continue
		}

		q := fmt.Sprintf("INSERT INTO %s (symbol, date, close_price, source) VALUES %s", s.prices, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.logErr("clickhouse upsert error", symbol, err)
			return written, models.NewStoreError("upsert prices", err)
		}
		written += len(values)
	}

	if s.l != nil && written > 0 {
		s.l.Info("clickhouse upsert ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", written),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return written, nil
}

func (s *CHStore) Tail(ctx context.Context, symbol string, n int) ([]models.PricePoint, error) {
	if n <= 0 {
		return nil, nil
	}
	q := fmt.Sprintf(`
        SELECT date, close_price, source
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY date DESC
        LIMIT ?
    `, s.prices)
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		s.logErr("clickhouse tail query error", symbol, err)
		return nil, models.NewStoreError("tail", err)
	}
	defer rows.Close()

	tmp := make([]models.PricePoint, 0, n)
	for rows.Next() {
		var (
			p      models.PricePoint
			source string
		)
		if err := rows.Scan(&p.Date, &p.Close, &source); err != nil {
			s.logErr("clickhouse tail scan error", symbol, err)
			return nil, models.NewStoreError("tail scan", err)
		}
		p.Date = models.Day(p.Date)
		p.Source = models.Source(source)
		tmp = append(tmp, p)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStoreError("tail rows", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp, nil
}

func (s *CHStore) LatestDate(ctx context.Context, symbol string) (time.Time, bool, error) {
	var (
		latest time.Time
		n      uint64
	)
	q := fmt.Sprintf(`SELECT max(date), count() FROM %s FINAL WHERE symbol = ?`, s.prices)
	if err := s.db.QueryRowContext(ctx, q, symbol).Scan(&latest, &n); err != nil {
		s.logErr("clickhouse latest_date error", symbol, err)
		return time.Time{}, false, models.NewStoreError("latest date", err)
	}
	if n == 0 {
		return time.Time{}, false, nil
	}
	return models.Day(latest), true, nil
}

func (s *CHStore) PruneBefore(ctx context.Context, symbol string, cutoff time.Time) (int64, error) {
	var n uint64
	cnt := fmt.Sprintf(`SELECT count() FROM %s FINAL WHERE symbol = ? AND date < ?`, s.prices)
	if err := s.db.QueryRowContext(ctx, cnt, symbol, models.Day(cutoff)).Scan(&n); err != nil {
		return 0, models.NewStoreError("prune", err)
	}
	if n == 0 {
		return 0, nil
	}
	del := fmt.Sprintf(`DELETE FROM %s WHERE symbol = ? AND date < ?`, s.prices)
	if _, err := s.db.ExecContext(ctx, del, symbol, models.Day(cutoff)); err != nil {
		s.logErr("clickhouse prune error", symbol, err)
		return 0, models.NewStoreError("prune", err)
	}
	return int64(n), nil
}

func (s *CHStore) RegisterSymbol(ctx context.Context, symbol, name string, venue models.Venue) error {
	_, ok, err := s.SymbolRecord(ctx, symbol)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	q := fmt.Sprintf(`INSERT INTO %s (symbol, name, market, last_update, version) VALUES (?, ?, ?, NULL, ?)`, s.list)
	if _, err := s.db.ExecContext(ctx, q, symbol, name, venue.Market(), uint64(time.Now().UnixNano())); err != nil {
		s.logErr("clickhouse register_symbol error", symbol, err)
		return models.NewStoreError("register symbol", err)
	}
	return nil
}

// SetLastUpdate writes a newer version of the registry row.
func (s *CHStore) SetLastUpdate(ctx context.Context, symbol string, date time.Time) error {
	rec, ok, err := s.SymbolRecord(ctx, symbol)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	q := fmt.Sprintf(`INSERT INTO %s (symbol, name, market, last_update, created_at, version) VALUES (?, ?, ?, ?, ?, ?)`, s.list)
	_, err = s.db.ExecContext(ctx, q, symbol, rec.Name, rec.Venue.Market(), models.Day(date), rec.CreatedAt, uint64(time.Now().UnixNano()))
	if err != nil {
		s.logErr("clickhouse set_last_update error", symbol, err)
		return models.NewStoreError("set last update", err)
	}
	return nil
}

func (s *CHStore) SymbolRecord(ctx context.Context, symbol string) (models.SymbolRecord, bool, error) {
	var (
		rec        = models.SymbolRecord{Symbol: symbol}
		market     string
		lastUpdate sql.NullTime
	)
	q := fmt.Sprintf(`SELECT name, market, last_update, created_at FROM %s FINAL WHERE symbol = ?`, s.list)
	err := s.db.QueryRowContext(ctx, q, symbol).Scan(&rec.Name, &market, &lastUpdate, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SymbolRecord{}, false, nil
	}
	if err != nil {
		return models.SymbolRecord{}, false, models.NewStoreError("symbol record", err)
	}
	rec.Venue = models.VenueOf(symbol)
	if v, ok := models.ParseVenue(market); ok {
		rec.Venue = v
	}
	if lastUpdate.Valid {
		rec.LastUpdate = models.Day(lastUpdate.Time)
	}
	return rec, true, nil
}

func (s *CHStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT symbol FROM %s FINAL ORDER BY symbol`, s.list))
	if err != nil {
		return nil, models.NewStoreError("symbols", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, models.NewStoreError("symbols scan", err)
		}
		out = append(out, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStoreError("symbols rows", err)
	}
	return out, nil
}

func (s *CHStore) SymbolCount(ctx context.Context) (int64, error) {
	return s.count(ctx, s.list)
}

func (s *CHStore) PriceCount(ctx context.Context) (int64, error) {
	return s.count(ctx, s.prices)
}

func (s *CHStore) count(ctx context.Context, table string) (int64, error) {
	var n uint64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT count() FROM %s FINAL`, table)).Scan(&n); err != nil {
		return 0, models.NewStoreError("count "+table, err)
	}
	return int64(n), nil
}

func (s *CHStore) Health(ctx context.Context) error {
	if err := s.ch.Health(ctx); err != nil {
		return models.NewStoreError("health", err)
	}
	return nil
}

func (s *CHStore) Close() error {
	return s.ch.Close()
}

func (s *CHStore) logErr(msg, symbol string, err error) {
	if s.l != nil {
		s.l.Error(msg, applogger.String("symbol", symbol), applogger.Error(err))
	}
}
