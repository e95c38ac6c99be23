package cache

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidResultType is returned when a cached value does not have the
// type the caller asked for, e.g. two call sites sharing a key.
var ErrInvalidResultType = errors.New("cache: cached value has unexpected type")

// KeySerializer builds a cache key from a namespace + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(namespace string, args ...any) string
}

// FetchFn is the function signature CacheService expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes the read-through operations the short-lived cache is
// built on. A non-positive ttl selects the backend default; any ttl above
// MaxTTL is clamped.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetchFn any) (any, error)
	Set(ctx context.Context, key string, ttl time.Duration, value any) error
	Delete(ctx context.Context, key string) error
	// InvalidateKeys drops every key from the backend. It returns once the
	// entries are gone.
	InvalidateKeys(ctx context.Context, keys []string) error
}

// GetOrFetch is a type-safe wrapper function that provides generic support for CacheService.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, ttl time.Duration, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := service.GetOrFetch(ctx, key, ttl, fetchFn)
	if err != nil {
		return zero, err
	}

	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, ErrInvalidResultType
	}
	return typed, nil
}
