// Package mutation applies every write to the portfolio and keeps the
// short-lived read cache honest: keys affected by a write are invalidated
// after the write succeeds and never before, so a concurrent read cannot
// repopulate the cache with pre-write data.
package mutation

import (
	"context"
	"time"

	"github.com/goliatone/go-portfolio-crm/blobstore"
	"github.com/goliatone/go-portfolio-crm/cache"
	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the storage collaborator of the gateway. Getters return nil, nil
// when the record does not exist.
type Store interface {
	GetDistrict(ctx context.Context, id uuid.UUID) (*model.District, error)
	DistrictBySlug(ctx context.Context, slug string) (*model.District, error)
	CreateDistrict(ctx context.Context, d *model.District) error
	UpdateDistrict(ctx context.Context, d *model.District) error
	DeleteDistrict(ctx context.Context, id uuid.UUID) error
	CountBuildings(ctx context.Context, districtID uuid.UUID) (int, error)

	GetBuilding(ctx context.Context, id uuid.UUID) (*model.Building, error)
	BuildingBySlug(ctx context.Context, districtID uuid.UUID, slug string) (*model.Building, error)
	CreateBuilding(ctx context.Context, b *model.Building) error
	UpdateBuilding(ctx context.Context, b *model.Building) error
	DeleteBuilding(ctx context.Context, id uuid.UUID) error
	CountApartments(ctx context.Context, buildingID uuid.UUID) (int, error)

	// GetApartment loads the building, its district and the attachments.
	GetApartment(ctx context.Context, id uuid.UUID) (*model.Apartment, error)
	ApartmentByNo(ctx context.Context, buildingID uuid.UUID, apartmentNo string) (*model.Apartment, error)
	CreateApartment(ctx context.Context, a *model.Apartment) error
	UpdateApartment(ctx context.Context, a *model.Apartment) error
	// DeleteApartment removes the apartment and its attachment rows.
	DeleteApartment(ctx context.Context, id uuid.UUID) error

	GetAttachment(ctx context.Context, id uuid.UUID) (*model.Attachment, error)
	CreateAttachment(ctx context.Context, att *model.Attachment) error
	DeleteAttachment(ctx context.Context, id uuid.UUID) error
}

// Gateway is the single entry point for portfolio writes.
type Gateway struct {
	store  Store
	cache  *cache.ShortLived
	blobs  blobstore.Store
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// NewGateway creates a gateway. blobs may be nil when attachments are not
// used.
func NewGateway(store Store, shared *cache.ShortLived, blobs blobstore.Store, logger *zap.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{
		store:  store,
		cache:  shared,
		blobs:  blobs,
		logger: logger.Named("mutation"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) invalidate(keys ...string) {
	g.cache.Invalidate(dedupe(keys)...)
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// removeBlob deletes a stored object. Failures leave an orphaned blob, which
// is recoverable, so they are logged and swallowed.
func (g *Gateway) removeBlob(ctx context.Context, url string) {
	if g.blobs == nil || url == "" {
		return
	}
	if err := g.blobs.Delete(ctx, url); err != nil {
		g.logger.Warn("blob delete failed", zap.String("url", url), zap.Error(err))
	}
}
