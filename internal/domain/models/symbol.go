package models

import (
	"strings"
	"time"
)

// Venue is the listing venue encoded in a symbol suffix.
type Venue string

const (
	VenueListed Venue = "TW"  // primary listed venue
	VenueOTC    Venue = "TWO" // secondary over-the-counter venue
)

// Source tags the feed a price point came from.
type Source string

const (
	SourceTWSE Source = "TWSE"
	SourceTPEX Source = "TPEX"
)

// Venues lists venues in resolution priority order.
var Venues = []Venue{VenueListed, VenueOTC}

// Suffix returns the symbol suffix including the dot.
func (v Venue) Suffix() string { return "." + string(v) }

// Qualify appends the venue suffix to a base code.
func (v Venue) Qualify(base string) string { return base + v.Suffix() }

// Source returns the feed tag for prices of this venue.
func (v Venue) Source() Source {
	if v == VenueOTC {
		return SourceTPEX
	}
	return SourceTWSE
}

// Market is the registry label for the venue.
func (v Venue) Market() string { return string(v.Source()) }

// ParseVenue accepts a suffix ("TW", ".TWO") or a market label ("TWSE", "TPEX").
func ParseVenue(s string) (Venue, bool) {
	switch strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "TW", "TWSE":
		return VenueListed, true
	case "TWO", "TPEX":
		return VenueOTC, true
	}
	return "", false
}

// SplitSymbol splits "2330.TW" into ("2330", VenueListed, true). An unknown
// suffix is dropped, so "2330.XX" yields ("2330", "", false).
func SplitSymbol(s string) (base string, venue Venue, ok bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	i := strings.LastIndexByte(s, '.')
	if i <= 0 {
		return s, "", false
	}
	if v, known := ParseVenue(s[i+1:]); known {
		return s[:i], v, true
	}
	return s[:i], "", false
}

// VenueOf returns the venue of a qualified symbol, defaulting to the listed venue.
func VenueOf(symbol string) Venue {
	if _, v, ok := SplitSymbol(symbol); ok {
		return v
	}
	return VenueListed
}

// SymbolRecord is one row of the symbol registry.
type SymbolRecord struct {
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name"`
	Venue      Venue     `json:"venue"`
	LastUpdate time.Time `json:"last_update,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// SymbolEntry is a symbol to track together with its display name.
type SymbolEntry struct {
	Symbol string `json:"symbol" validate:"required"`
	Name   string `json:"name"`
}
