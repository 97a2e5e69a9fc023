package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"FinCorr/internal/domain/models"
	domrepo "FinCorr/internal/domain/repository"
	pkgsqlite "FinCorr/pkg/sqlite"
	applogger "FinCorr/pkg/logger"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS stock_prices (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol      TEXT NOT NULL,
		date        TEXT NOT NULL,
		close_price REAL NOT NULL,
		source      TEXT NOT NULL DEFAULT 'TWSE',
		created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_symbol_date ON stock_prices(symbol, date)`,
	`CREATE INDEX IF NOT EXISTS idx_date ON stock_prices(date)`,
	`CREATE TABLE IF NOT EXISTS stock_list (
		symbol      TEXT PRIMARY KEY,
		name        TEXT,
		market      TEXT,
		last_update TEXT,
		created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
}

// SQLiteStore implements TimeSeriesStore on a local SQLite file.
type SQLiteStore struct {
	client *pkgsqlite.Client
	db     *sql.DB
	mu     sync.Mutex // serializes writers
	l      *applogger.Logger
}

var _ domrepo.TimeSeriesStore = (*SQLiteStore)(nil)

func NewSQLiteStore(client *pkgsqlite.Client) *SQLiteStore {
	return &SQLiteStore{client: client, db: client.DB()}
}

// SetLogger injects a structured logger.
func (s *SQLiteStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *SQLiteStore) Init(ctx context.Context) error {
	if err := s.client.Migrate(ctx, sqliteSchema); err != nil {
		return models.NewStoreError("init", err)
	}
	return nil
}

func (s *SQLiteStore) UpsertPrices(ctx context.Context, symbol string, points []models.PricePoint, source models.Source) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, models.NewStoreError("upsert prices", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stock_prices (symbol, date, close_price, source)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			close_price = excluded.close_price,
			source = excluded.source`)
	if err != nil {
		return 0, models.NewStoreError("upsert prices", err)
	}
	defer stmt.Close()

	written := 0
	for _, p := range points {
		if !p.Valid() {
			s.warn("sqlite upsert skipped invalid point",
				applogger.String("symbol", symbol),
				applogger.Date("date", p.Date),
				applogger.Float64("close", p.Close),
			)
			continue
		}
		if _, err := stmt.ExecContext(ctx, symbol, models.FormatDate(p.Date), p.Close, string(source)); err != nil {
			s.warn("sqlite upsert point error",
				applogger.String("symbol", symbol),
				applogger.Date("date", p.Date),
				applogger.Error(err),
			)
			continue
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, models.NewStoreError("upsert prices", err)
	}
	return written, nil
}

func (s *SQLiteStore) Tail(ctx context.Context, symbol string, n int) ([]models.PricePoint, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, close_price, source
		FROM stock_prices
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT ?`, symbol, n)
	if err != nil {
		return nil, models.NewStoreError("tail", err)
	}
	defer rows.Close()

	out := make([]models.PricePoint, 0, n)
	for rows.Next() {
		var (
			date   string
			p      models.PricePoint
			source string
		)
		if err := rows.Scan(&date, &p.Close, &source); err != nil {
			return nil, models.NewStoreError("tail scan", err)
		}
		if p.Date, err = models.ParseDate(date); err != nil {
			return nil, models.NewStoreError("tail parse date", err)
		}
		p.Source = models.Source(source)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStoreError("tail rows", err)
	}

	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *SQLiteStore) LatestDate(ctx context.Context, symbol string) (time.Time, bool, error) {
	var latest sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(date) FROM stock_prices WHERE symbol = ?`, symbol).Scan(&latest)
	if err != nil {
		return time.Time{}, false, models.NewStoreError("latest date", err)
	}
	if !latest.Valid || latest.String == "" {
		return time.Time{}, false, nil
	}
	t, err := models.ParseDate(latest.String)
	if err != nil {
		return time.Time{}, false, models.NewStoreError("latest date", err)
	}
	return t, true, nil
}

func (s *SQLiteStore) PruneBefore(ctx context.Context, symbol string, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM stock_prices WHERE symbol = ? AND date < ?`,
		symbol, models.FormatDate(cutoff))
	if err != nil {
		return 0, models.NewStoreError("prune", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, models.NewStoreError("prune", err)
	}
	return n, nil
}

func (s *SQLiteStore) RegisterSymbol(ctx context.Context, symbol, name string, venue models.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO stock_list (symbol, name, market)
		VALUES (?, ?, ?)`, symbol, name, venue.Market())
	if err != nil {
		return models.NewStoreError("register symbol", err)
	}
	return nil
}

func (s *SQLiteStore) SetLastUpdate(ctx context.Context, symbol string, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `UPDATE stock_list SET last_update = ? WHERE symbol = ?`,
		models.FormatDate(date), symbol)
	if err != nil {
		return models.NewStoreError("set last update", err)
	}
	return nil
}

func (s *SQLiteStore) SymbolRecord(ctx context.Context, symbol string) (models.SymbolRecord, bool, error) {
	var (
		name, market, lastUpdate sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, market, last_update FROM stock_list WHERE symbol = ?`, symbol).
		Scan(&name, &market, &lastUpdate)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SymbolRecord{}, false, nil
	}
	if err != nil {
		return models.SymbolRecord{}, false, models.NewStoreError("symbol record", err)
	}

	rec := models.SymbolRecord{Symbol: symbol, Name: name.String, Venue: models.VenueOf(symbol)}
	if v, ok := models.ParseVenue(market.String); ok {
		rec.Venue = v
	}
	if lastUpdate.Valid && lastUpdate.String != "" {
		if t, err := models.ParseDate(lastUpdate.String); err == nil {
			rec.LastUpdate = t
		}
	}
	return rec, true, nil
}

func (s *SQLiteStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol FROM stock_list ORDER BY symbol`)
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

func (s *SQLiteStore) SymbolCount(ctx context.Context) (int64, error) {
	return s.count(ctx, "stock_list")
}

func (s *SQLiteStore) PriceCount(ctx context.Context) (int64, error) {
	return s.count(ctx, "stock_prices")
}

func (s *SQLiteStore) count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		return 0, models.NewStoreError("count "+table, err)
	}
	return n, nil
}

func (s *SQLiteStore) Health(ctx context.Context) error {
	if err := s.client.Health(ctx); err != nil {
		return models.NewStoreError("health", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.client.Close()
}

func (s *SQLiteStore) warn(msg string, fields ...applogger.Field) {
	if s.l != nil {
		s.l.Warn(msg, fields...)
	}
}
