package models

import (
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// PricePoint is one daily close.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Source Source    `json:"source,omitempty"`
}

// Day truncates t to midnight UTC of its calendar date in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string { return t.Format(dateLayout) }

// ParseDate parses YYYY-MM-DD into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// Valid reports whether the point can be stored.
func (p PricePoint) Valid() bool {
	return !p.Date.IsZero() && p.Close > 0 && !math.IsNaN(p.Close) && !math.IsInf(p.Close, 0)
}

// Quote is one row of a venue-wide daily quote table.
type Quote struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Close float64 `json:"close"`
}

// PriceUpdateEvent is published after a symbol's prices were written.
type PriceUpdateEvent struct {
	Symbol    string    `json:"symbol"`
	Source    Source    `json:"source"`
	Points    int       `json:"points"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	LastClose float64   `json:"last_close"`
	UpdatedAt time.Time `json:"updated_at"`
}
