package testsupport

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-portfolio-crm/finance"
	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-memory implementation of every storage port used by
// the services. Records are copied on the way in and out so callers never
// share state with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	districts   map[uuid.UUID]*model.District
	buildings   map[uuid.UUID]*model.Building
	apartments  map[uuid.UUID]*model.Apartment
	attachments map[uuid.UUID]*model.Attachment

	errors map[string]error
	calls  map[string]int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		districts:   map[uuid.UUID]*model.District{},
		buildings:   map[uuid.UUID]*model.Building{},
		apartments:  map[uuid.UUID]*model.Apartment{},
		attachments: map[uuid.UUID]*model.Attachment{},
		errors:      map[string]error{},
		calls:       map[string]int{},
	}
}

// FailWith makes every later call to method return err. A nil err clears it.
func (m *MemoryStore) FailWith(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, method)
		return
	}
	m.errors[method] = err
}

// Calls returns how many times method was invoked.
func (m *MemoryStore) Calls(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

// enter records a call and returns the configured failure, if any.
// Callers must hold the lock.
func (m *MemoryStore) enter(method string) error {
	m.calls[method]++
	return m.errors[method]
}

// Districts

func (m *MemoryStore) GetDistrict(ctx context.Context, id uuid.UUID) (*model.District, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetDistrict"); err != nil {
		return nil, err
	}
	return cloneDistrict(m.districts[id]), nil
}

func (m *MemoryStore) DistrictBySlug(ctx context.Context, slug string) (*model.District, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DistrictBySlug"); err != nil {
		return nil, err
	}
	for _, d := range m.districts {
		if d.Slug == slug {
			return cloneDistrict(d), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CreateDistrict(ctx context.Context, d *model.District) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateDistrict"); err != nil {
		return err
	}
	m.districts[d.ID] = cloneDistrict(d)
	return nil
}

func (m *MemoryStore) UpdateDistrict(ctx context.Context, d *model.District) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateDistrict"); err != nil {
		return err
	}
	m.districts[d.ID] = cloneDistrict(d)
	return nil
}

func (m *MemoryStore) DeleteDistrict(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteDistrict"); err != nil {
		return err
	}
	delete(m.districts, id)
	return nil
}

func (m *MemoryStore) CountBuildings(ctx context.Context, districtID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CountBuildings"); err != nil {
		return 0, err
	}
	n := 0
	for _, b := range m.buildings {
		if b.DistrictID == districtID {
			n++
		}
	}
	return n, nil
}

// Buildings

func (m *MemoryStore) GetBuilding(ctx context.Context, id uuid.UUID) (*model.Building, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetBuilding"); err != nil {
		return nil, err
	}
	return m.buildingWithDistrict(id), nil
}

func (m *MemoryStore) BuildingBySlug(ctx context.Context, districtID uuid.UUID, slug string) (*model.Building, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("BuildingBySlug"); err != nil {
		return nil, err
	}
	for _, b := range m.buildings {
		if b.DistrictID == districtID && b.Slug == slug {
			return m.buildingWithDistrict(b.ID), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CreateBuilding(ctx context.Context, b *model.Building) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateBuilding"); err != nil {
		return err
	}
	m.buildings[b.ID] = cloneBuilding(b)
	return nil
}

func (m *MemoryStore) UpdateBuilding(ctx context.Context, b *model.Building) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateBuilding"); err != nil {
		return err
	}
	m.buildings[b.ID] = cloneBuilding(b)
	return nil
}

func (m *MemoryStore) DeleteBuilding(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteBuilding"); err != nil {
		return err
	}
	delete(m.buildings, id)
	return nil
}

func (m *MemoryStore) CountApartments(ctx context.Context, buildingID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CountApartments"); err != nil {
		return 0, err
	}
	n := 0
	for _, a := range m.apartments {
		if a.BuildingID == buildingID {
			n++
		}
	}
	return n, nil
}

// Apartments

func (m *MemoryStore) GetApartment(ctx context.Context, id uuid.UUID) (*model.Apartment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetApartment"); err != nil {
		return nil, err
	}
	a, ok := m.apartments[id]
	if !ok {
		return nil, nil
	}
	return m.loadApartment(a), nil
}

func (m *MemoryStore) ApartmentByNo(ctx context.Context, buildingID uuid.UUID, apartmentNo string) (*model.Apartment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ApartmentByNo"); err != nil {
		return nil, err
	}
	for _, a := range m.apartments {
		if a.BuildingID == buildingID && a.ApartmentNo == apartmentNo {
			return m.loadApartment(a), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CreateApartment(ctx context.Context, a *model.Apartment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateApartment"); err != nil {
		return err
	}
	m.apartments[a.ID] = cloneApartment(a)
	return nil
}

func (m *MemoryStore) UpdateApartment(ctx context.Context, a *model.Apartment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateApartment"); err != nil {
		return err
	}
	m.apartments[a.ID] = cloneApartment(a)
	return nil
}

func (m *MemoryStore) DeleteApartment(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteApartment"); err != nil {
		return err
	}
	for attID, att := range m.attachments {
		if att.ApartmentID == id {
			delete(m.attachments, attID)
		}
	}
	delete(m.apartments, id)
	return nil
}

// ListApartments filters, orders and pages apartments the way the SQL store
// does: NULLs first on ascending order, then apartment_no and id ascending.
func (m *MemoryStore) ListApartments(ctx context.Context, q model.ApartmentQuery) ([]*model.Apartment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListApartments"); err != nil {
		return nil, 0, err
	}

	var rows []*model.Apartment
	for _, a := range m.apartments {
		if matches(a, q.Filter) {
			rows = append(rows, a)
		}
	}

	order := q.Order
	if order == "" {
		order = model.OrderApartmentNo
	}
	slices.SortFunc(rows, func(a, b *model.Apartment) int {
		c := compareColumn(a, b, order)
		if q.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		if c = strings.Compare(a.ApartmentNo, b.ApartmentNo); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	total := len(rows)
	start := min(q.Offset, total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}

	out := make([]*model.Apartment, 0, end-start)
	for _, a := range rows[start:end] {
		out = append(out, m.loadApartment(a))
	}
	return out, total, nil
}

// Dashboard source

func (m *MemoryStore) StatusTotals(ctx context.Context) ([]model.StatusTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("StatusTotals"); err != nil {
		return nil, err
	}

	byStatus := map[model.Status]*model.StatusTotal{}
	for _, a := range m.apartments {
		row, ok := byStatus[a.Status]
		if !ok {
			row = &model.StatusTotal{Status: a.Status}
			byStatus[a.Status] = row
		}
		row.Count++
		if a.Sqm.Valid {
			row.Sqm = decimal.NewNullDecimal(finance.OrZero(row.Sqm).Add(a.Sqm.Decimal))
		}
	}

	out := make([]model.StatusTotal, 0, len(byStatus))
	for _, status := range model.Statuses {
		if row, ok := byStatus[status]; ok {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *MemoryStore) FinancialRows(ctx context.Context, statuses ...model.Status) ([]model.FinancialRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("FinancialRows"); err != nil {
		return nil, err
	}

	var out []model.FinancialRow
	for _, a := range m.apartments {
		if len(statuses) > 0 && !slices.Contains(statuses, a.Status) {
			continue
		}
		out = append(out, model.FinancialRow{
			ID:          a.ID,
			Status:      a.Status,
			Sqm:         a.Sqm,
			PricePerSqm: a.PricePerSqm,
			TotalPrice:  a.TotalPrice,
			TotalPaid:   a.TotalPaid,
			DealDate:    a.DealDate,
			UpdatedAt:   a.UpdatedAt,
		})
	}
	slices.SortFunc(out, func(a, b model.FinancialRow) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

// Attachments

func (m *MemoryStore) GetAttachment(ctx context.Context, id uuid.UUID) (*model.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetAttachment"); err != nil {
		return nil, err
	}
	return cloneAttachment(m.attachments[id]), nil
}

func (m *MemoryStore) CreateAttachment(ctx context.Context, att *model.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateAttachment"); err != nil {
		return err
	}
	m.attachments[att.ID] = cloneAttachment(att)
	return nil
}

func (m *MemoryStore) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteAttachment"); err != nil {
		return err
	}
	delete(m.attachments, id)
	return nil
}

// helpers; callers hold the lock

func (m *MemoryStore) buildingWithDistrict(id uuid.UUID) *model.Building {
	b := cloneBuilding(m.buildings[id])
	if b != nil {
		b.District = cloneDistrict(m.districts[b.DistrictID])
	}
	return b
}

func (m *MemoryStore) loadApartment(a *model.Apartment) *model.Apartment {
	out := cloneApartment(a)
	out.Building = m.buildingWithDistrict(a.BuildingID)
	for _, att := range m.attachments {
		if att.ApartmentID == a.ID {
			out.Attachments = append(out.Attachments, cloneAttachment(att))
		}
	}
	slices.SortFunc(out.Attachments, func(x, y *model.Attachment) int {
		return y.CreatedAt.Compare(x.CreatedAt)
	})
	return out
}

func matches(a *model.Apartment, f model.ApartmentFilter) bool {
	if f.BuildingID != nil && a.BuildingID != *f.BuildingID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
		return false
	}
	return true
}

func compareColumn(a, b *model.Apartment, column model.OrderColumn) int {
	switch column {
	case model.OrderStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	case model.OrderSqm:
		return compareNull(a.Sqm, b.Sqm)
	case model.OrderTotalPrice:
		return compareNull(a.TotalPrice, b.TotalPrice)
	case model.OrderTotalPaid:
		return compareNull(a.TotalPaid, b.TotalPaid)
	default:
		return strings.Compare(a.ApartmentNo, b.ApartmentNo)
	}
}

func compareNull(a, b decimal.NullDecimal) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	}
	return a.Decimal.Cmp(b.Decimal)
}

func cloneDistrict(d *model.District) *model.District {
	if d == nil {
		return nil
	}
	out := *d
	return &out
}

func cloneBuilding(b *model.Building) *model.Building {
	if b == nil {
		return nil
	}
	out := *b
	out.District = nil
	return &out
}

func cloneApartment(a *model.Apartment) *model.Apartment {
	if a == nil {
		return nil
	}
	out := *a
	out.Building = nil
	out.Attachments = nil
	return &out
}

func cloneAttachment(att *model.Attachment) *model.Attachment {
	if att == nil {
		return nil
	}
	out := *att
	return &out
}
