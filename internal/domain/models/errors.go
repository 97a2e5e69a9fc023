package models

import (
	"errors"
	"fmt"
)

var (
	// ErrSymbolNotFound means a code could not be resolved in the cache or via a provider lookup,
	// or a resolved symbol has no stored data.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrNoData is returned by providers for an empty range.
	ErrNoData = errors.New("no data")
)

// StoreError is a persistence failure. It is fatal to the calling operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err unless it is nil or already a StoreError.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// ProviderError is an external fetch failure. Callers treat it as soft.
type ProviderError struct {
	Provider string
	Symbol   string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Symbol, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NotFoundError annotates ErrSymbolNotFound with the code that failed.
func NotFoundError(code string) error {
	return fmt.Errorf("%w: %s", ErrSymbolNotFound, code)
}
