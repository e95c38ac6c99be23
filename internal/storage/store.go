package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goliatone/go-portfolio-crm/apartments"
	"github.com/goliatone/go-portfolio-crm/dashboard"
	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/goliatone/go-portfolio-crm/mutation"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Store implements the storage ports of the apartment reader, the dashboard
// and the mutation gateway. Getters return nil, nil for missing records.
type Store struct {
	db          *bun.DB
	districts   repository.Repository[*model.District]
	buildings   repository.Repository[*model.Building]
	attachments repository.Repository[*model.Attachment]
}

var (
	_ mutation.Store   = (*Store)(nil)
	_ apartments.Store = (*Store)(nil)
	_ dashboard.Source = (*Store)(nil)
)

// New creates a store over db.
func New(db *bun.DB) *Store {
	return &Store{
		db:          db,
		districts:   repository.NewRepository[*model.District](db, DistrictHandlers()),
		buildings:   repository.NewRepository[*model.Building](db, BuildingHandlers()),
		attachments: repository.NewRepository[*model.Attachment](db, AttachmentHandlers()),
	}
}

// DB exposes the underlying connection.
func (s *Store) DB() *bun.DB { return s.db }

// Districts is the go-repository-bun repository of districts.
func (s *Store) Districts() repository.Repository[*model.District] { return s.districts }

// Buildings is the go-repository-bun repository of buildings.
func (s *Store) Buildings() repository.Repository[*model.Building] { return s.buildings }

// Close closes the connection.
func (s *Store) Close() error { return s.db.Close() }

func DistrictHandlers() repository.ModelHandlers[*model.District] {
	return repository.ModelHandlers[*model.District]{
		NewRecord:     func() *model.District { return &model.District{} },
		GetID:         func(d *model.District) uuid.UUID { return d.ID },
		SetID:         func(d *model.District, id uuid.UUID) { d.ID = id },
		GetIdentifier: func() string { return "slug" },
	}
}

func BuildingHandlers() repository.ModelHandlers[*model.Building] {
	return repository.ModelHandlers[*model.Building]{
		NewRecord:     func() *model.Building { return &model.Building{} },
		GetID:         func(b *model.Building) uuid.UUID { return b.ID },
		SetID:         func(b *model.Building, id uuid.UUID) { b.ID = id },
		GetIdentifier: func() string { return "slug" },
	}
}

func AttachmentHandlers() repository.ModelHandlers[*model.Attachment] {
	return repository.ModelHandlers[*model.Attachment]{
		NewRecord:     func() *model.Attachment { return &model.Attachment{} },
		GetID:         func(a *model.Attachment) uuid.UUID { return a.ID },
		SetID:         func(a *model.Attachment, id uuid.UUID) { a.ID = id },
		GetIdentifier: func() string { return "file_url" },
	}
}

// first runs q and maps sql.ErrNoRows to a nil record.
func first[T any](ctx context.Context, dst *T, q *bun.SelectQuery) (*T, error) {
	if err := q.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return dst, nil
}

// Districts

func (s *Store) GetDistrict(ctx context.Context, id uuid.UUID) (*model.District, error) {
	d := new(model.District)
	return first(ctx, d, s.db.NewSelect().Model(d).Where("d.id = ?", id))
}

func (s *Store) DistrictBySlug(ctx context.Context, slug string) (*model.District, error) {
	d := new(model.District)
	return first(ctx, d, s.db.NewSelect().Model(d).Where("d.slug = ?", slug))
}

func (s *Store) CreateDistrict(ctx context.Context, d *model.District) error {
	_, err := s.districts.Create(ctx, d)
	return err
}

func (s *Store) UpdateDistrict(ctx context.Context, d *model.District) error {
	_, err := s.db.NewUpdate().
		Model(d).
		Column("name", "slug", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (s *Store) DeleteDistrict(ctx context.Context, id uuid.UUID) error {
	return s.districts.Delete(ctx, &model.District{ID: id})
}

func (s *Store) CountBuildings(ctx context.Context, districtID uuid.UUID) (int, error) {
	return s.db.NewSelect().Model((*model.Building)(nil)).Where("b.district_id = ?", districtID).Count(ctx)
}

// Buildings

func (s *Store) GetBuilding(ctx context.Context, id uuid.UUID) (*model.Building, error) {
	b := new(model.Building)
	return first(ctx, b, s.db.NewSelect().Model(b).Relation("District").Where("b.id = ?", id))
}

func (s *Store) BuildingBySlug(ctx context.Context, districtID uuid.UUID, slug string) (*model.Building, error) {
	b := new(model.Building)
	return first(ctx, b, s.db.NewSelect().Model(b).Where("b.district_id = ? AND b.slug = ?", districtID, slug))
}

func (s *Store) CreateBuilding(ctx context.Context, b *model.Building) error {
	_, err := s.buildings.Create(ctx, b)
	return err
}

func (s *Store) UpdateBuilding(ctx context.Context, b *model.Building) error {
	_, err := s.db.NewUpdate().
		Model(b).
		Column("district_id", "name", "slug", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (s *Store) DeleteBuilding(ctx context.Context, id uuid.UUID) error {
	return s.buildings.Delete(ctx, &model.Building{ID: id})
}

func (s *Store) CountApartments(ctx context.Context, buildingID uuid.UUID) (int, error) {
	return s.db.NewSelect().Model((*model.Apartment)(nil)).Where("a.building_id = ?", buildingID).Count(ctx)
}

// Apartments

func (s *Store) selectApartments(dst any) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(dst).
		Relation("Building").
		Relation("Building.District").
		Relation("Attachments", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("att.created_at DESC").OrderExpr("att.id ASC")
		})
}

func (s *Store) GetApartment(ctx context.Context, id uuid.UUID) (*model.Apartment, error) {
	a := new(model.Apartment)
	return first(ctx, a, s.selectApartments(a).Where("a.id = ?", id))
}

func (s *Store) ApartmentByNo(ctx context.Context, buildingID uuid.UUID, apartmentNo string) (*model.Apartment, error) {
	a := new(model.Apartment)
	q := s.db.NewSelect().Model(a).Where("a.building_id = ? AND a.apartment_no = ?", buildingID, apartmentNo)
	return first(ctx, a, q)
}

func (s *Store) CreateApartment(ctx context.Context, a *model.Apartment) error {
	_, err := s.db.NewInsert().Model(a).Exec(ctx)
	return err
}

func (s *Store) UpdateApartment(ctx context.Context, a *model.Apartment) error {
	_, err := s.db.NewUpdate().Model(a).ExcludeColumn("id", "created_at").WherePK().Exec(ctx)
	return err
}

func (s *Store) DeleteApartment(ctx context.Context, id uuid.UUID) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*model.Attachment)(nil)).Where("apartment_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete attachments: %w", err)
		}
		_, err := tx.NewDelete().Model((*model.Apartment)(nil)).Where("id = ?", id).Exec(ctx)
		return err
	})
}

// ListApartments returns one page of apartments with building, district and
// attachments loaded, plus the total matching the filter. NULLs sort first
// on ascending order and last on descending order.
func (s *Store) ListApartments(ctx context.Context, q model.ApartmentQuery) ([]*model.Apartment, int, error) {
	order := q.Order
	if order == "" {
		order = model.OrderApartmentNo
	}
	if !order.IsValid() {
		return nil, 0, fmt.Errorf("unsupported order column %q", order)
	}
	direction := "ASC NULLS FIRST"
	if q.Descending {
		direction = "DESC NULLS LAST"
	}

	var rows []*model.Apartment
	sel := s.selectApartments(&rows).
		OrderExpr("a.? "+direction, bun.Ident(string(order))).
		OrderExpr("a.apartment_no ASC").
		OrderExpr("a.id ASC")
	if q.Filter.BuildingID != nil {
		sel = sel.Where("a.building_id = ?", *q.Filter.BuildingID)
	}
	if len(q.Filter.Statuses) > 0 {
		sel = sel.Where("a.status IN (?)", bun.In(q.Filter.Statuses))
	}
	if q.Limit > 0 {
		sel = sel.Limit(q.Limit)
	}
	if q.Offset > 0 {
		sel = sel.Offset(q.Offset)
	}

	total, err := sel.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	if rows == nil {
		rows = []*model.Apartment{}
	}
	return rows, total, nil
}

// Dashboard source

// StatusTotals aggregates counts and areas per status in one query.
func (s *Store) StatusTotals(ctx context.Context) ([]model.StatusTotal, error) {
	var rows []model.StatusTotal
	err := s.db.NewSelect().
		Model((*model.Apartment)(nil)).
		ColumnExpr("a.status AS status").
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("SUM(a.sqm) AS sqm").
		GroupExpr("a.status").
		OrderExpr("a.status ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FinancialRows projects the pricing columns of apartments in statuses, or
// of every apartment when none are given.
func (s *Store) FinancialRows(ctx context.Context, statuses ...model.Status) ([]model.FinancialRow, error) {
	var rows []model.FinancialRow
	q := s.db.NewSelect().
		Model((*model.Apartment)(nil)).
		Column("id", "status", "sqm", "price_sqm", "total_price", "total_paid", "deal_date", "updated_at").
		OrderExpr("a.id ASC")
	if len(statuses) > 0 {
		q = q.Where("a.status IN (?)", bun.In(statuses))
	}
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Attachments

func (s *Store) GetAttachment(ctx context.Context, id uuid.UUID) (*model.Attachment, error) {
	att := new(model.Attachment)
	return first(ctx, att, s.db.NewSelect().Model(att).Where("att.id = ?", id))
}

func (s *Store) CreateAttachment(ctx context.Context, att *model.Attachment) error {
	_, err := s.attachments.Create(ctx, att)
	return err
}

func (s *Store) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	return s.attachments.Delete(ctx, &model.Attachment{ID: id})
}
