package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// GetOrLoad returns the cached JSON value under key, or calls load, caches its
// result for ttl and returns it. Cache failures fall through to load.
func GetOrLoad[T any](ctx context.Context, c BytesCache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if c != nil {
		if b, ok, err := c.GetBytes(ctx, key); err == nil && ok {
			var v T
			if json.Unmarshal(b, &v) == nil {
				return v, nil
			}
		}
	}

	v, err := load()
	if err != nil || c == nil {
		return v, err
	}
	if b, mErr := json.Marshal(v); mErr == nil {
		_ = c.SetBytes(ctx, key, b, ttl)
	}
	return v, nil
}

// Key prefixes of cached correlation responses.
const (
	RankPrefix = "rank:"
	PairPrefix = "pair:"
)

// InvalidateCorrelations drops every cached ranking and pair response.
func InvalidateCorrelations(ctx context.Context, c BytesCache) error {
	if c == nil {
		return nil
	}
	for _, p := range []string{RankPrefix, PairPrefix} {
		if err := c.DeletePrefix(ctx, p); err != nil {
			return fmt.Errorf("delete %q: %w", p, err)
		}
	}
	return nil
}
