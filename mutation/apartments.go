package mutation

import (
	"context"
	"fmt"

	"github.com/goliatone/go-portfolio-crm/cache"
	"github.com/goliatone/go-portfolio-crm/finance"
	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateApartment adds an apartment to an existing building. When both area
// and unit price are given and no total is, the product is stored as the
// total price.
func (g *Gateway) CreateApartment(ctx context.Context, in ApartmentInput) (*model.Apartment, error) {
	now := g.now()
	a := &model.Apartment{
		ID:                    uuid.New(),
		BuildingID:            in.BuildingID,
		ApartmentNo:           in.ApartmentNo,
		ApartmentType:         in.ApartmentType,
		Status:                in.Status,
		SalesType:             in.SalesType,
		Sqm:                   in.Sqm,
		PricePerSqm:           in.PricePerSqm,
		TotalPrice:            in.TotalPrice,
		TotalPaid:             in.TotalPaid,
		DealDate:              in.DealDate,
		OwnershipName:         in.OwnershipName,
		Email:                 in.Email,
		PassportTaxNo:         in.PassportTaxNo,
		Phone:                 in.Phone,
		DealDescription:       in.DealDescription,
		MatterLink:            in.MatterLink,
		FloorplanDistribution: in.FloorplanDistribution,
		ExteriorLink:          in.ExteriorLink,
		ExteriorLink2:         in.ExteriorLink2,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if !a.TotalPrice.Valid {
		a.TotalPrice = finance.TotalPrice(a.Sqm, a.PricePerSqm, decimal.NullDecimal{})
	}

	normalizeApartment(a)
	if err := validateApartment(a); err != nil {
		return nil, err
	}

	building, err := g.requireBuilding(ctx, a.BuildingID)
	if err != nil {
		return nil, err
	}
	if err := g.ensureApartmentNoFree(ctx, a.BuildingID, a.ApartmentNo, uuid.Nil); err != nil {
		return nil, err
	}

	if err := g.store.CreateApartment(ctx, a); err != nil {
		return nil, fmt.Errorf("create apartment: %w", err)
	}
	a.Building = building

	// building listings carry apartment counts
	g.invalidate(append(cache.DashboardKeys(), cache.BuildingsKey(&building.DistrictID), cache.BuildingsAll)...)
	g.logger.Info("apartment created",
		zap.Stringer("id", a.ID),
		zap.Stringer("building_id", a.BuildingID),
		zap.String("apartment_no", a.ApartmentNo),
	)
	g.warnIncompleteSale(a)
	return a, nil
}

// UpdateApartment applies patch to an apartment. Changing area or unit
// price recomputes the stored total unless the patch sets it explicitly.
// Moving the apartment to another building also drops the building
// listings of both districts.
func (g *Gateway) UpdateApartment(ctx context.Context, id uuid.UUID, patch ApartmentPatch) (*model.Apartment, error) {
	a, err := g.store.GetApartment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load apartment: %w", err)
	}
	if a == nil {
		return nil, &model.NotFoundError{Entity: "apartment", ID: id.String()}
	}

	oldBuilding := a.BuildingID
	oldNo := a.ApartmentNo
	var oldDistrict *uuid.UUID
	if districtID, ok := a.DistrictID(); ok {
		oldDistrict = &districtID
	}

	patch.applyTo(a)
	if patch.repricing() {
		if total := finance.TotalPrice(a.Sqm, a.PricePerSqm, decimal.NullDecimal{}); total.Valid {
			a.TotalPrice = total
		}
	}

	normalizeApartment(a)
	if err := validateApartment(a); err != nil {
		return nil, err
	}

	moved := a.BuildingID != oldBuilding
	if moved {
		building, err := g.requireBuilding(ctx, a.BuildingID)
		if err != nil {
			return nil, err
		}
		a.Building = building
	}
	if moved || a.ApartmentNo != oldNo {
		if err := g.ensureApartmentNoFree(ctx, a.BuildingID, a.ApartmentNo, a.ID); err != nil {
			return nil, err
		}
	}

	a.UpdatedAt = g.now()
	if err := g.store.UpdateApartment(ctx, a); err != nil {
		return nil, fmt.Errorf("update apartment: %w", err)
	}

	keys := cache.DashboardKeys()
	if moved {
		keys = append(keys, cache.BuildingsKey(oldDistrict), cache.BuildingsAll)
		if districtID, ok := a.DistrictID(); ok {
			keys = append(keys, cache.BuildingsKey(&districtID))
		}
	}
	g.invalidate(keys...)

	g.logger.Info("apartment updated",
		zap.Stringer("id", a.ID),
		zap.String("status", string(a.Status)),
		zap.Bool("moved", moved),
	)
	g.warnIncompleteSale(a)
	return a, nil
}

// UpdateApartmentStatus changes only the status. raw is matched without
// regard to letter case.
func (g *Gateway) UpdateApartmentStatus(ctx context.Context, id uuid.UUID, raw string) (*model.Apartment, error) {
	status, err := model.ParseStatus(raw)
	if err != nil {
		return nil, model.Invalid(fieldError("status", err))
	}
	return g.UpdateApartment(ctx, id, ApartmentPatch{Status: Value(status)})
}

// DeleteApartment removes an apartment with its attachments. Stored files
// are removed after the rows are gone; failures there are logged only.
func (g *Gateway) DeleteApartment(ctx context.Context, id uuid.UUID) error {
	a, err := g.store.GetApartment(ctx, id)
	if err != nil {
		return fmt.Errorf("load apartment: %w", err)
	}
	if a == nil {
		return &model.NotFoundError{Entity: "apartment", ID: id.String()}
	}

	if err := g.store.DeleteApartment(ctx, id); err != nil {
		return fmt.Errorf("delete apartment: %w", err)
	}

	for _, att := range a.Attachments {
		g.removeBlob(ctx, att.FileURL)
	}

	keys := append(cache.DashboardKeys(), cache.BuildingsAll)
	if districtID, ok := a.DistrictID(); ok {
		keys = append(keys, cache.BuildingsKey(&districtID))
	}
	g.invalidate(keys...)

	g.logger.Info("apartment deleted", zap.Stringer("id", id), zap.Int("attachments", len(a.Attachments)))
	return nil
}

func (g *Gateway) requireBuilding(ctx context.Context, id uuid.UUID) (*model.Building, error) {
	b, err := g.store.GetBuilding(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load building: %w", err)
	}
	if b == nil {
		return nil, &model.NotFoundError{Entity: "building", ID: id.String()}
	}
	return b, nil
}

func (g *Gateway) ensureApartmentNoFree(ctx context.Context, buildingID uuid.UUID, apartmentNo string, self uuid.UUID) error {
	other, err := g.store.ApartmentByNo(ctx, buildingID, apartmentNo)
	if err != nil {
		return fmt.Errorf("lookup apartment number: %w", err)
	}
	if other != nil && other.ID != self {
		return &model.ConflictError{Entity: "apartment", Field: "apartment_no", Value: apartmentNo}
	}
	return nil
}

// warnIncompleteSale flags sold apartments missing deal details. The write
// still goes through.
func (g *Gateway) warnIncompleteSale(a *model.Apartment) {
	if a.Status != model.StatusSold {
		return
	}
	if a.DealDate == nil || a.OwnershipName == nil {
		g.logger.Warn("sold apartment without deal date or owner",
			zap.Stringer("id", a.ID),
			zap.Bool("has_deal_date", a.DealDate != nil),
			zap.Bool("has_owner", a.OwnershipName != nil),
		)
	}
}
