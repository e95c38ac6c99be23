package cacheinfra

import (
	"context"
	"reflect"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/viccon/sturdyc"
)

// MaxTTL is the freshness ceiling for every cached entry. Financial figures
// older than this are considered wrong, so no configuration can exceed it.
const MaxTTL = 60 * time.Second

// Config holds the configuration for the sturdyc cache adapter.
type Config struct {
	// Capacity defines the maximum number of entries each TTL bucket can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Must be greater than 0. Default: 256
	NumShards int

	// TTL is the time-to-live used when a caller does not ask for one.
	// Must be greater than 0 and at most MaxTTL.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when a bucket reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often expired entries are swept.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults for dashboard reads.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                30 * time.Second,
		EvictionPercentage: 10,
		EvictionInterval:   0,
	}
}

// ToSturdycOptions converts the Config to sturdyc.Option slice.
// Capacity, NumShards, TTL, and EvictionPercentage are passed directly
// to sturdyc.New() and are not included in the options.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.TTL > MaxTTL {
		return &ConfigError{Field: "TTL", Message: "must not exceed " + MaxTTL.String()}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}

	return nil
}

// ClampTTL maps a requested TTL onto the allowed range, using fallback for
// non-positive requests.
func ClampTTL(ttl, fallback time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = fallback
	}
	if ttl > MaxTTL {
		return MaxTTL
	}
	return ttl
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// sturdycService keeps one sturdyc client per distinct TTL, since sturdyc
// expires entries with a client wide TTL.
type sturdycService struct {
	cfg     Config
	clients *xsync.MapOf[time.Duration, *sturdyc.Client[any]]
}

// NewSturdycService creates a new sturdyc cache service adapter.
// Clients are created lazily the first time a TTL is requested.
func NewSturdycService(cfg Config) (*sturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &sturdycService{
		cfg:     cfg,
		clients: xsync.NewMapOf[time.Duration, *sturdyc.Client[any]](),
	}, nil
}

func (s *sturdycService) client(ttl time.Duration) *sturdyc.Client[any] {
	ttl = ClampTTL(ttl, s.cfg.TTL)
	client, _ := s.clients.LoadOrCompute(ttl, func() *sturdyc.Client[any] {
		return sturdyc.New[any](
			s.cfg.Capacity,
			s.cfg.NumShards,
			ttl,
			s.cfg.EvictionPercentage,
			s.cfg.ToSturdycOptions()...,
		)
	})
	return client
}

// validateFetchFn checks that fetchFn has the signature
// func(context.Context) (T, error).
func validateFetchFn(fetchFn any) error {
	if fetchFn == nil {
		return &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}

	fnType := reflect.TypeOf(fetchFn)

	if fnType.Kind() != reflect.Func {
		return &ConfigError{Field: "fetchFn", Message: "must be a function"}
	}

	if fnType.NumIn() != 1 || fnType.NumOut() != 2 {
		return &ConfigError{Field: "fetchFn", Message: "must have signature func(context.Context) (T, error)"}
	}

	contextType := reflect.TypeOf((*context.Context)(nil)).Elem()
	if !fnType.In(0).Implements(contextType) {
		return &ConfigError{Field: "fetchFn", Message: "first parameter must be context.Context"}
	}

	errorType := reflect.TypeOf((*error)(nil)).Elem()
	if !fnType.Out(1).Implements(errorType) {
		return &ConfigError{Field: "fetchFn", Message: "second return value must be error"}
	}

	return nil
}

// GetOrFetch returns the cached value for key, or runs fetchFn, stores its
// result under the TTL bucket and returns it. Concurrent misses for the same
// key share one fetchFn call.
func (s *sturdycService) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	typedFetchFn := func(ctx context.Context) (any, error) {
		return callFetchFunctionWithReflection(ctx, fetchFn)
	}

	return s.client(ttl).GetOrFetch(ctx, key, typedFetchFn)
}

// callFetchFunctionWithReflection calls a pre-validated fetchFn of any
// FetchFn[T] shape and returns its result as any.
func callFetchFunctionWithReflection(ctx context.Context, fetchFn any) (any, error) {
	if fn, ok := fetchFn.(func(context.Context) (any, error)); ok {
		return fn(ctx)
	}

	results := reflect.ValueOf(fetchFn).Call([]reflect.Value{reflect.ValueOf(ctx)})

	var result any
	var err error

	if resultValue := results[0]; resultValue.IsValid() && resultValue.CanInterface() {
		result = resultValue.Interface()
	}

	if errorValue := results[1]; errorValue.IsValid() && !errorValue.IsNil() {
		err = errorValue.Interface().(error)
	}

	return result, err
}

// Set stores value under key in the TTL bucket, replacing any entry for the
// same key in other buckets.
func (s *sturdycService) Set(ctx context.Context, key string, ttl time.Duration, value any) error {
	target := s.client(ttl)
	s.clients.Range(func(_ time.Duration, c *sturdyc.Client[any]) bool {
		if c != target {
			c.Delete(key)
		}
		return true
	})
	target.Set(key, value)
	return nil
}

// Delete removes key from every TTL bucket.
func (s *sturdycService) Delete(ctx context.Context, key string) error {
	s.clients.Range(func(_ time.Duration, c *sturdyc.Client[any]) bool {
		c.Delete(key)
		return true
	})
	return nil
}

// InvalidateKeys removes multiple entries. Each key is dropped independently.
func (s *sturdycService) InvalidateKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
