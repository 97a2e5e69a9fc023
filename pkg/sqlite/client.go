package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

// Client owns a SQLite database handle.
type Client struct {
	db   *sql.DB
	path string
}

// NewClient opens (or creates) the database file and applies pragmas.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &ClientConfig{
		BusyTimeout:  5 * time.Second,
		WAL:          true,
		MaxOpenConns: 4,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	db, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Client{db: db, path: cfg.Path}, nil
}

// dsn embeds the pragmas; SQLite applies them per connection.
func dsn(cfg *ClientConfig) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	if cfg.WAL {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return "file:" + cfg.Path + "?" + q.Encode()
}

// DB returns *sql.DB for direct use.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Path returns the database file path.
func (c *Client) Path() string {
	return c.path
}

// Health performs health check.
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Migrate runs schema statements in order (idempotent when they use IF NOT EXISTS).
func (c *Client) Migrate(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
