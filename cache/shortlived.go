package cache

import (
	"context"
	"errors"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// ShortLived coalesces bursts of identical reads for a few seconds while
// letting writers force the next read to recompute.
//
// Create one per process and inject it wherever a read is cached or a write
// must invalidate. State is process local: a restart drops every value and
// every invalidation mark, which at worst costs one extra compute.
type ShortLived struct {
	backend CacheService
	marks   *xsync.MapOf[string, struct{}]
	logger  *zap.Logger
}

// NewShortLived wraps backend with invalidation marks.
func NewShortLived(backend CacheService, logger *zap.Logger) *ShortLived {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShortLived{
		backend: backend,
		marks:   xsync.NewMapOf[string, struct{}](),
		logger:  logger.Named("cache"),
	}
}

// Invalidate drops keys from the backend and marks them so the next
// GetOrCompute for each of them skips any cached value. It returns after the
// backend entries are gone, so a read that starts afterwards cannot be served
// the value cached before the write. Marking an already marked key is a
// no-op. Keys are handled independently; there is no cross-key atomicity.
func (s *ShortLived) Invalidate(keys ...string) {
	if len(keys) == 0 {
		return
	}
	for _, key := range keys {
		s.marks.Store(key, struct{}{})
	}
	if err := s.backend.InvalidateKeys(context.Background(), keys); err != nil {
		// the marks still force a recompute on the next read of each key
		s.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
	s.logger.Debug("invalidated cache keys", zap.Strings("keys", keys))
}

// IsInvalidated reports whether key carries a pending invalidation mark.
// It exists for diagnostics; reads never need to check it.
func (s *ShortLived) IsInvalidated(key string) bool {
	_, ok := s.marks.Load(key)
	return ok
}

// computeError tags errors returned by the caller's compute function so they
// can be told apart from backend failures.
type computeError struct {
	err error
}

func (e *computeError) Error() string { return e.err.Error() }
func (e *computeError) Unwrap() error { return e.err }

// GetOrCompute returns the value cached under key, computing it with fn on a
// miss, on expiry, or when key was invalidated since the last read.
//
// ttl is clamped to MaxTTL; a non-positive ttl uses the backend default.
// Errors from fn are returned unchanged and never cached. Backend failures
// degrade to calling fn directly.
func GetOrCompute[T any](ctx context.Context, s *ShortLived, key string, ttl time.Duration, fn FetchFn[T]) (T, error) {
	if _, marked := s.marks.LoadAndDelete(key); marked {
		return recompute(ctx, s, key, ttl, fn)
	}

	wrapped := func(ctx context.Context) (T, error) {
		s.logger.Debug("cache miss", zap.String("key", key))
		value, err := fn(ctx)
		if err != nil {
			return value, &computeError{err: err}
		}
		return value, nil
	}

	value, err := GetOrFetch(ctx, s.backend, key, ttl, FetchFn[T](wrapped))
	if err == nil {
		return value, nil
	}

	var ce *computeError
	if errors.As(err, &ce) {
		var zero T
		return zero, ce.err
	}

	s.logger.Warn("cache backend failed, computing directly", zap.String("key", key), zap.Error(err))
	return fn(ctx)
}

// recompute bypasses the cached value and stores the fresh result.
func recompute[T any](ctx context.Context, s *ShortLived, key string, ttl time.Duration, fn FetchFn[T]) (T, error) {
	if err := s.backend.Delete(ctx, key); err != nil {
		s.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
	}

	s.logger.Debug("cache bypass after invalidation", zap.String("key", key))
	value, err := fn(ctx)
	if err != nil {
		return value, err
	}

	if err := s.backend.Set(ctx, key, ttl, value); err != nil {
		s.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}
