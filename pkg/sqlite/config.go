package sqlite

import "time"

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds SQLite configuration.
type ClientConfig struct {
	Path         string
	BusyTimeout  time.Duration
	WAL          bool
	MaxOpenConns int
}

// WithPath sets the database file path.
func WithPath(path string) ClientOption {
	return func(c *ClientConfig) {
		c.Path = path
	}
}

// WithBusyTimeout sets how long a writer waits on a locked database.
func WithBusyTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.BusyTimeout = d
	}
}

// WithWAL toggles write-ahead logging.
func WithWAL(enabled bool) ClientOption {
	return func(c *ClientConfig) {
		c.WAL = enabled
	}
}

// WithMaxOpenConns caps the pool size.
func WithMaxOpenConns(n int) ClientOption {
	return func(c *ClientConfig) {
		c.MaxOpenConns = n
	}
}
