package repositorycache

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-portfolio-crm/cache"
	"github.com/goliatone/go-portfolio-crm/model"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ListingTTL bounds how long a directory listing is served from cache.
const ListingTTL = 30 * time.Second

// Lister is the read side of a go-repository-bun repository that the
// directory needs. repository.Repository[T] satisfies it.
type Lister[T any] interface {
	List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error)
}

// Directory serves the district and building listings through the shared
// short-lived cache. Writers invalidate the listing keys through the
// mutation gateway.
type Directory struct {
	districts Lister[*model.District]
	buildings Lister[*model.Building]
	cache     *cache.ShortLived
	logger    *zap.Logger
}

// NewDirectory creates a directory over the given repositories.
func NewDirectory(districts Lister[*model.District], buildings Lister[*model.Building], shared *cache.ShortLived, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{
		districts: districts,
		buildings: buildings,
		cache:     shared,
		logger:    logger.Named("directory"),
	}
}

// Districts lists every district by name, each with its building count.
func (d *Directory) Districts(ctx context.Context) ([]*model.District, error) {
	return cache.GetOrCompute(ctx, d.cache, cache.Districts, ListingTTL, func(ctx context.Context) ([]*model.District, error) {
		records, _, err := d.districts.List(ctx, DistrictListing())
		if err != nil {
			return nil, fmt.Errorf("list districts: %w", err)
		}
		d.logger.Debug("districts loaded", zap.Int("count", len(records)))
		return nonNil(records), nil
	})
}

// Buildings lists buildings by name with their district and apartment
// count. A nil districtID lists every building.
func (d *Directory) Buildings(ctx context.Context, districtID *uuid.UUID) ([]*model.Building, error) {
	key := cache.BuildingsKey(districtID)
	return cache.GetOrCompute(ctx, d.cache, key, ListingTTL, func(ctx context.Context) ([]*model.Building, error) {
		records, _, err := d.buildings.List(ctx, BuildingListing(districtID))
		if err != nil {
			return nil, fmt.Errorf("list buildings: %w", err)
		}
		d.logger.Debug("buildings loaded", zap.String("key", key), zap.Int("count", len(records)))
		return nonNil(records), nil
	})
}

// DistrictListing selects districts ordered by name with a building_count
// column.
func DistrictListing() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			ColumnExpr("d.*").
			ColumnExpr("(SELECT COUNT(*) FROM buildings AS cb WHERE cb.district_id = d.id) AS building_count").
			OrderExpr("d.name ASC").
			OrderExpr("d.id ASC")
	}
}

// BuildingListing selects buildings ordered by name, joined with their
// district and carrying an apartment_count column.
func BuildingListing(districtID *uuid.UUID) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.
			ColumnExpr("b.*").
			ColumnExpr("(SELECT COUNT(*) FROM apartments AS ca WHERE ca.building_id = b.id) AS apartment_count").
			Relation("District").
			OrderExpr("b.name ASC").
			OrderExpr("b.id ASC")
		if districtID != nil {
			q = q.Where("b.district_id = ?", *districtID)
		}
		return q
	}
}

func nonNil[T any](records []T) []T {
	if records == nil {
		return []T{}
	}
	return records
}
