package util

import (
	"strconv"
	"time"
)

var dateLayouts = []string{"2006-01-02", "2006/01/02", "20060102"}

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 99991231 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseDate accepts YYYY-MM-DD, YYYY/MM/DD, YYYYMMDD or anything ParseTime accepts,
// and returns midnight UTC of that calendar date.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	if t, ok := ParseTime(s); ok {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// ParseDateDefault parses a date or returns def if empty/invalid.
func ParseDateDefault(s string, def time.Time) time.Time {
	if t, ok := ParseDate(s); ok {
		return t
	}
	return def
}

// EachDay calls fn for every calendar day in [from, to]. It stops at the first error.
func EachDay(from, to time.Time, fn func(day time.Time) error) error {
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}
