package di

import (
	"context"
	"fmt"

	"github.com/goliatone/go-portfolio-crm/apartments"
	"github.com/goliatone/go-portfolio-crm/blobstore"
	"github.com/goliatone/go-portfolio-crm/cache"
	"github.com/goliatone/go-portfolio-crm/dashboard"
	"github.com/goliatone/go-portfolio-crm/internal/config"
	"github.com/goliatone/go-portfolio-crm/internal/httpapi"
	"github.com/goliatone/go-portfolio-crm/internal/storage"
	"github.com/goliatone/go-portfolio-crm/mutation"
	"github.com/goliatone/go-portfolio-crm/repositorycache"
	"go.uber.org/zap"
)

// Container wires the portfolio services from a loaded configuration.
// It owns singleton instances of the cache backend, the shared short lived
// cache, the database handle and the blob store, and hands the services
// built on top of them to the HTTP layer and the CLI commands.
type Container struct {
	config       *config.Config
	logger       *zap.Logger
	cacheService cache.CacheService
	shared       *cache.ShortLived
	store        *storage.Store
	blobs        *blobstore.Local

	apartments *apartments.Service
	dashboard  *dashboard.Service
	directory  *repositorycache.Directory
	gateway    *mutation.Gateway
}

// NewContainer opens the database and builds every service. The caller
// owns the container and must Close it.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cacheService, err := cache.NewCacheService(cfg.CacheConfig())
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	shared := cache.NewShortLived(cacheService, logger)

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, storage.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}
	store := storage.New(db)

	blobs, err := blobstore.NewLocal(cfg.Blob.Root, cfg.Blob.BaseURL)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("blob store: %w", err)
	}

	return &Container{
		config:       cfg,
		logger:       logger,
		cacheService: cacheService,
		shared:       shared,
		store:        store,
		blobs:        blobs,
		apartments:   apartments.NewService(store, logger),
		dashboard:    dashboard.NewService(store, shared, logger),
		directory:    repositorycache.NewDirectory(store.Districts(), store.Buildings(), shared, logger),
		gateway:      mutation.NewGateway(store, shared, blobs, logger),
	}, nil
}

// Migrate creates the schema if it does not exist.
func (c *Container) Migrate(ctx context.Context) error {
	return storage.Migrate(ctx, c.store.DB())
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config {
	return c.config
}

// CacheService returns the singleton cache backend.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// Cache returns the shared short lived cache every write invalidates.
func (c *Container) Cache() *cache.ShortLived {
	return c.shared
}

// Store returns the database backed store.
func (c *Container) Store() *storage.Store {
	return c.store
}

// Apartments returns the apartment read service.
func (c *Container) Apartments() *apartments.Service {
	return c.apartments
}

// Dashboard returns the cached dashboard service.
func (c *Container) Dashboard() *dashboard.Service {
	return c.dashboard
}

// Directory returns the cached district and building listings.
func (c *Container) Directory() *repositorycache.Directory {
	return c.directory
}

// Gateway returns the write gateway.
func (c *Container) Gateway() *mutation.Gateway {
	return c.gateway
}

// HTTPDeps collects the services the HTTP server needs.
func (c *Container) HTTPDeps() httpapi.Deps {
	return httpapi.Deps{
		Apartments: c.apartments,
		Dashboard:  c.dashboard,
		Directory:  c.directory,
		Writer:     c.gateway,
		Token:      c.config.API.Token,
	}
}

// Close releases the database handle.
func (c *Container) Close() error {
	return c.store.Close()
}
