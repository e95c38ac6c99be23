package mutation

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-portfolio-crm/cache"
	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func normalizeNamed(name, slug string) (string, string) {
	name = strings.TrimSpace(name)
	if strings.TrimSpace(slug) == "" {
		slug = name
	}
	return name, model.NormalizeSlug(slug)
}

// CreateDistrict adds a district with a unique slug.
func (g *Gateway) CreateDistrict(ctx context.Context, in DistrictInput) (*model.District, error) {
	name, slug := normalizeNamed(in.Name, in.Slug)
	if err := validateNamed(name, slug); err != nil {
		return nil, err
	}

	if err := g.ensureDistrictSlugFree(ctx, slug, uuid.Nil); err != nil {
		return nil, err
	}

	now := g.now()
	d := &model.District{ID: uuid.New(), Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}
	if err := g.store.CreateDistrict(ctx, d); err != nil {
		return nil, fmt.Errorf("create district: %w", err)
	}

	g.invalidate(cache.Districts)
	g.logger.Info("district created", zap.Stringer("id", d.ID), zap.String("slug", d.Slug))
	return d, nil
}

// UpdateDistrict renames a district or changes its slug.
func (g *Gateway) UpdateDistrict(ctx context.Context, id uuid.UUID, in DistrictInput) (*model.District, error) {
	d, err := g.store.GetDistrict(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load district: %w", err)
	}
	if d == nil {
		return nil, &model.NotFoundError{Entity: "district", ID: id.String()}
	}

	name, slug := normalizeNamed(in.Name, in.Slug)
	if err := validateNamed(name, slug); err != nil {
		return nil, err
	}
	if err := g.ensureDistrictSlugFree(ctx, slug, id); err != nil {
		return nil, err
	}

	d.Name, d.Slug, d.UpdatedAt = name, slug, g.now()
	if err := g.store.UpdateDistrict(ctx, d); err != nil {
		return nil, fmt.Errorf("update district: %w", err)
	}

	// building listings carry the district name
	g.invalidate(cache.Districts, cache.BuildingsKey(&id), cache.BuildingsAll)
	g.logger.Info("district updated", zap.Stringer("id", id))
	return d, nil
}

// DeleteDistrict removes a district that owns no buildings.
func (g *Gateway) DeleteDistrict(ctx context.Context, id uuid.UUID) error {
	d, err := g.store.GetDistrict(ctx, id)
	if err != nil {
		return fmt.Errorf("load district: %w", err)
	}
	if d == nil {
		return &model.NotFoundError{Entity: "district", ID: id.String()}
	}

	n, err := g.store.CountBuildings(ctx, id)
	if err != nil {
		return fmt.Errorf("count buildings: %w", err)
	}
	if n > 0 {
		return &model.DependentsError{Entity: "district", Dependent: "building", Count: n}
	}

	if err := g.store.DeleteDistrict(ctx, id); err != nil {
		return fmt.Errorf("delete district: %w", err)
	}

	g.invalidate(cache.Districts, cache.BuildingsKey(&id))
	g.logger.Info("district deleted", zap.Stringer("id", id))
	return nil
}

func (g *Gateway) ensureDistrictSlugFree(ctx context.Context, slug string, self uuid.UUID) error {
	other, err := g.store.DistrictBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("lookup district slug: %w", err)
	}
	if other != nil && other.ID != self {
		return &model.ConflictError{Entity: "district", Field: "slug", Value: slug}
	}
	return nil
}

// CreateBuilding adds a building to an existing district.
func (g *Gateway) CreateBuilding(ctx context.Context, in BuildingInput) (*model.Building, error) {
	if in.DistrictID == nil || *in.DistrictID == uuid.Nil {
		return nil, model.Invalid(fieldError("district_id", errRequiredID))
	}
	name, slug := normalizeNamed(in.Name, in.Slug)
	if err := validateNamed(name, slug); err != nil {
		return nil, err
	}

	district, err := g.requireDistrict(ctx, *in.DistrictID)
	if err != nil {
		return nil, err
	}
	if err := g.ensureBuildingSlugFree(ctx, district.ID, slug, uuid.Nil); err != nil {
		return nil, err
	}

	now := g.now()
	b := &model.Building{
		ID:         uuid.New(),
		DistrictID: district.ID,
		Name:       name,
		Slug:       slug,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := g.store.CreateBuilding(ctx, b); err != nil {
		return nil, fmt.Errorf("create building: %w", err)
	}
	b.District = district

	g.invalidate(cache.BuildingsKey(&district.ID), cache.BuildingsAll, cache.Districts)
	g.logger.Info("building created", zap.Stringer("id", b.ID), zap.Stringer("district_id", district.ID))
	return b, nil
}

// UpdateBuilding renames a building or moves it to another district.
func (g *Gateway) UpdateBuilding(ctx context.Context, id uuid.UUID, in BuildingInput) (*model.Building, error) {
	b, err := g.store.GetBuilding(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load building: %w", err)
	}
	if b == nil {
		return nil, &model.NotFoundError{Entity: "building", ID: id.String()}
	}

	name, slug := normalizeNamed(in.Name, in.Slug)
	if err := validateNamed(name, slug); err != nil {
		return nil, err
	}

	oldDistrict := b.DistrictID
	if in.DistrictID != nil && *in.DistrictID != uuid.Nil && *in.DistrictID != oldDistrict {
		district, err := g.requireDistrict(ctx, *in.DistrictID)
		if err != nil {
			return nil, err
		}
		b.DistrictID = district.ID
		b.District = district
	}
	if err := g.ensureBuildingSlugFree(ctx, b.DistrictID, slug, id); err != nil {
		return nil, err
	}

	b.Name, b.Slug, b.UpdatedAt = name, slug, g.now()
	if err := g.store.UpdateBuilding(ctx, b); err != nil {
		return nil, fmt.Errorf("update building: %w", err)
	}

	g.invalidate(
		cache.BuildingsKey(&oldDistrict),
		cache.BuildingsKey(&b.DistrictID),
		cache.BuildingsAll,
		cache.Districts,
	)
	g.logger.Info("building updated", zap.Stringer("id", id))
	return b, nil
}

// DeleteBuilding removes a building that owns no apartments.
func (g *Gateway) DeleteBuilding(ctx context.Context, id uuid.UUID) error {
	b, err := g.store.GetBuilding(ctx, id)
	if err != nil {
		return fmt.Errorf("load building: %w", err)
	}
	if b == nil {
		return &model.NotFoundError{Entity: "building", ID: id.String()}
	}

	n, err := g.store.CountApartments(ctx, id)
	if err != nil {
		return fmt.Errorf("count apartments: %w", err)
	}
	if n > 0 {
		return &model.DependentsError{Entity: "building", Dependent: "apartment", Count: n}
	}

	if err := g.store.DeleteBuilding(ctx, id); err != nil {
		return fmt.Errorf("delete building: %w", err)
	}

	g.invalidate(cache.BuildingsKey(&b.DistrictID), cache.BuildingsAll, cache.Districts)
	g.logger.Info("building deleted", zap.Stringer("id", id))
	return nil
}

func (g *Gateway) requireDistrict(ctx context.Context, id uuid.UUID) (*model.District, error) {
	d, err := g.store.GetDistrict(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load district: %w", err)
	}
	if d == nil {
		return nil, &model.NotFoundError{Entity: "district", ID: id.String()}
	}
	return d, nil
}

func (g *Gateway) ensureBuildingSlugFree(ctx context.Context, districtID uuid.UUID, slug string, self uuid.UUID) error {
	other, err := g.store.BuildingBySlug(ctx, districtID, slug)
	if err != nil {
		return fmt.Errorf("lookup building slug: %w", err)
	}
	if other != nil && other.ID != self {
		return &model.ConflictError{Entity: "building", Field: "slug", Value: slug}
	}
	return nil
}
