// Package cache provides the short-lived read cache used by the portfolio
// read services, plus the key scheme shared with the mutation gateway.
//
// # Overview
//
// The package exports:
//
//   - CacheService: a TTL aware read-through backend (sturdyc by default)
//   - ShortLived: invalidation marks layered over a CacheService
//   - KeySerializer: builds plain string keys such as "dashboard:summary"
//
// # Basic Usage
//
//	backend, err := cache.NewCacheService(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	shared := cache.NewShortLived(backend, logger)
//
//	summary, err := cache.GetOrCompute(ctx, shared, cache.DashboardSummary, 30*time.Second,
//		func(ctx context.Context) (*dashboard.Summary, error) {
//			return computeSummary(ctx)
//		})
//
// After a successful write:
//
//	shared.Invalidate(cache.DashboardKeys()...)
//
// # Freshness
//
// Every TTL is clamped to MaxTTL (60 seconds). Figures served from the cache
// are at most one TTL old, and any write in the same process that invalidates
// a key makes the next read of that key recompute. Invalidate drops the
// backend entries before it returns and also leaves a mark, so every read
// that starts after it sees post-write data. Invalidation never recomputes
// eagerly. A compute already in flight when the write commits may still
// publish pre-write figures, bounded by the TTL.
//
// Marks and values live in process memory only. Horizontally scaled
// deployments can serve another instance's stale value for up to one TTL.
//
// # Concurrency
//
// Marks are kept in an xsync.MapOf and values in sharded sturdyc clients, so
// concurrent readers and writers need no extra locking. Concurrent misses on
// the same key share a single compute call.
//
// # Error Handling
//
// Errors from the compute function are returned to the caller and are never
// cached. If the backend itself fails, GetOrCompute logs the failure and
// falls back to calling the compute function directly, so a cache problem
// never fails a read.
package cache
