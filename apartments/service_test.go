package apartments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/goliatone/go-portfolio-crm/pkg/testsupport"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *testsupport.MemoryStore
	service  *Service
	building *model.Building
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testsupport.NewMemoryStore()
	district := store.SeedDistrict("Kentron", "kentron")
	building := store.SeedBuilding(district.ID, "Tower 1", "tower-1")
	return &fixture{
		store:    store,
		service:  NewService(store, nil),
		building: building,
	}
}

func TestList_PaginationTotals(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 125; i++ {
		f.store.SeedApartment(f.building.ID, fmt.Sprintf("%03d", i), model.StatusAvailable)
	}
	ctx := context.Background()

	page3, err := f.service.List(ctx, Filter{}, Page{Page: 3, Limit: 50}, Sort{})
	require.NoError(t, err)
	assert.Len(t, page3.Items, 25)
	assert.Equal(t, Pagination{Page: 3, Limit: 50, Total: 125, TotalPages: 3}, page3.Pagination)
	assert.Equal(t, "101", page3.Items[0].ApartmentNo)

	page4, err := f.service.List(ctx, Filter{}, Page{Page: 4, Limit: 50}, Sort{})
	require.NoError(t, err)
	assert.Empty(t, page4.Items)
	assert.Equal(t, 3, page4.Pagination.TotalPages)
	assert.Equal(t, 125, page4.Pagination.Total)
}

func TestList_PageDefaultsAndLimitCap(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 120; i++ {
		f.store.SeedApartment(f.building.ID, fmt.Sprintf("%03d", i), model.StatusAvailable)
	}
	ctx := context.Background()

	res, err := f.service.List(ctx, Filter{}, Page{}, Sort{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pagination.Page)
	assert.Equal(t, DefaultLimit, res.Pagination.Limit)
	assert.Len(t, res.Items, DefaultLimit)

	res, err = f.service.List(ctx, Filter{}, Page{Limit: 500}, Sort{})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, res.Pagination.Limit)
	assert.Len(t, res.Items, MaxLimit)
	assert.Equal(t, 2, res.Pagination.TotalPages)
}

func TestList_EmptySet(t *testing.T) {
	f := newFixture(t)

	res, err := f.service.List(context.Background(), Filter{}, Page{}, Sort{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	assert.Equal(t, 0, res.Pagination.TotalPages)
}

func TestList_ValidationRejectsBeforeQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		page   Page
		sort   Sort
		field  string
	}{
		{name: "malformed building id", filter: Filter{BuildingID: "not-a-uuid"}, field: "building_id"},
		{name: "unknown status", filter: Filter{Status: "ARCHIVED"}, field: "status"},
		{name: "negative page", page: Page{Page: -1}, field: "page"},
		{name: "negative limit", page: Page{Limit: -5}, field: "limit"},
		{name: "unknown sort field", sort: Sort{By: "price"}, field: "sort_by"},
		{name: "unknown sort order", sort: Sort{Order: "sideways"}, field: "sort_order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.service.List(context.Background(), tt.filter, tt.page, tt.sort)

			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields(), tt.field)
			assert.Equal(t, 0, f.store.Calls("ListApartments"))
		})
	}
}

func TestList_Filters(t *testing.T) {
	f := newFixture(t)
	other := f.store.SeedBuilding(f.building.DistrictID, "Tower 2", "tower-2")
	f.store.SeedApartment(f.building.ID, "1", model.StatusSold)
	f.store.SeedApartment(f.building.ID, "2", model.StatusAvailable)
	f.store.SeedApartment(other.ID, "1", model.StatusSold)
	ctx := context.Background()

	res, err := f.service.List(ctx, Filter{BuildingID: f.building.ID.String()}, Page{}, Sort{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pagination.Total)

	res, err = f.service.List(ctx, Filter{Status: "sold"}, Page{}, Sort{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pagination.Total)
	for _, item := range res.Items {
		assert.Equal(t, model.StatusSold, item.Status)
	}

	res, err = f.service.List(ctx, Filter{BuildingID: other.ID.String(), Status: "AVAILABLE"}, Page{}, Sort{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Pagination.Total)
}

func TestList_SortStability(t *testing.T) {
	f := newFixture(t)
	f.store.SeedApartment(f.building.ID, "03", model.StatusSold)
	f.store.SeedApartment(f.building.ID, "01", model.StatusSold)
	f.store.SeedApartment(f.building.ID, "02", model.StatusAvailable)

	res, err := f.service.List(context.Background(), Filter{}, Page{}, Sort{By: "status"})
	require.NoError(t, err)
	assert.Equal(t, []string{"02", "01", "03"}, numbers(res.Items))

	res, err = f.service.List(context.Background(), Filter{}, Page{}, Sort{By: "status", Order: "DESC"})
	require.NoError(t, err)
	assert.Equal(t, []string{"01", "03", "02"}, numbers(res.Items))
}

func TestList_BalanceSortIsGlobal(t *testing.T) {
	f := newFixture(t)
	// apartment number order disagrees with balance order
	f.store.SeedApartment(f.building.ID, "1", model.StatusSold, testsupport.WithPricing("", "", "500", "0"))
	f.store.SeedApartment(f.building.ID, "2", model.StatusSold, testsupport.WithPricing("", "", "100", "0"))
	f.store.SeedApartment(f.building.ID, "3", model.StatusSold, testsupport.WithPricing("", "", "300", "100"))
	f.store.SeedApartment(f.building.ID, "4", model.StatusUpcoming)
	f.store.SeedApartment(f.building.ID, "5", model.StatusSold, testsupport.WithPricing("", "", "100", ""))
	ctx := context.Background()

	first, err := f.service.List(ctx, Filter{}, Page{Page: 1, Limit: 2}, Sort{By: "balance"})
	require.NoError(t, err)
	second, err := f.service.List(ctx, Filter{}, Page{Page: 2, Limit: 2}, Sort{By: "balance"})
	require.NoError(t, err)
	third, err := f.service.List(ctx, Filter{}, Page{Page: 3, Limit: 2}, Sort{By: "balance"})
	require.NoError(t, err)

	// null balance sorts as zero; equal balances keep apartment number order
	assert.Equal(t, []string{"4", "2"}, numbers(first.Items))
	assert.Equal(t, []string{"5", "3"}, numbers(second.Items))
	assert.Equal(t, []string{"1"}, numbers(third.Items))
	assert.Equal(t, 5, first.Pagination.Total)
	assert.Equal(t, 3, first.Pagination.TotalPages)

	desc, err := f.service.List(ctx, Filter{}, Page{}, Sort{By: "balance", Order: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "2", "5", "4"}, numbers(desc.Items))
}

func TestList_BuildingSort(t *testing.T) {
	f := newFixture(t)
	arabkir := f.store.SeedDistrict("Arabkir", "arabkir")
	block := f.store.SeedBuilding(arabkir.ID, "Block A", "block-a")
	f.store.SeedApartment(f.building.ID, "1", model.StatusAvailable)
	f.store.SeedApartment(block.ID, "2", model.StatusAvailable)

	res, err := f.service.List(context.Background(), Filter{}, Page{}, Sort{By: "building"})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Arabkir - Block A", res.Items[0].BuildingLabel())
	assert.Equal(t, "Kentron - Tower 1", res.Items[1].BuildingLabel())
}

func TestDerivedFieldsMatchAcrossPaths(t *testing.T) {
	f := newFixture(t)
	apts := []*model.Apartment{
		f.store.SeedApartment(f.building.ID, "1", model.StatusSold, testsupport.WithPricing("50", "1000", "999999", "")),
		f.store.SeedApartment(f.building.ID, "2", model.StatusAvailable, testsupport.WithPricing("52.4", "650000", "", "10000000")),
		f.store.SeedApartment(f.building.ID, "3", model.StatusReserved, testsupport.WithPricing("40", "", "", "5000")),
	}
	ctx := context.Background()

	res, err := f.service.List(ctx, Filter{}, Page{}, Sort{})
	require.NoError(t, err)
	byID := map[uuid.UUID]*View{}
	for _, item := range res.Items {
		byID[item.ID] = item
	}

	for _, apt := range apts {
		single, err := f.service.GetByID(ctx, apt.ID)
		require.NoError(t, err)
		listed := byID[apt.ID]
		require.NotNil(t, listed)
		assert.Equal(t, listed.TotalPrice, single.TotalPrice)
		assert.Equal(t, listed.Balance, single.Balance)
	}

	stored := byID[apts[0].ID]
	assert.Equal(t, "999999", stored.TotalPrice.Decimal.String())
	computed := byID[apts[1].ID]
	assert.Equal(t, "34060000", computed.TotalPrice.Decimal.String())
	assert.Equal(t, "24060000", computed.Balance.Decimal.String())
	missing := byID[apts[2].ID]
	assert.False(t, missing.TotalPrice.Valid)
	assert.False(t, missing.Balance.Valid)
}

func TestGetByID(t *testing.T) {
	f := newFixture(t)
	apt := f.store.SeedApartment(f.building.ID, "12-05", model.StatusAvailable)
	f.store.SeedAttachment(apt.ID, model.FileTypeImage, "/files/old.jpg", testsupport.BaseTime)
	f.store.SeedAttachment(apt.ID, model.FileTypeImage, "/files/new.jpg", testsupport.BaseTime.Add(time.Hour))
	f.store.SeedAttachment(apt.ID, model.FileTypeAgreement, "/files/deal.pdf", testsupport.BaseTime)
	ctx := context.Background()

	view, err := f.service.GetByID(ctx, apt.ID)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, "Kentron", view.Building.District.Name)
	assert.Equal(t, "tower-1", view.Building.Slug)
	require.Len(t, view.ImagesFiles, 2)
	assert.Equal(t, "/files/new.jpg", view.ImagesFiles[0].FileURL)
	assert.Len(t, view.AgreementFiles, 1)
	assert.Empty(t, view.FloorplansFiles)
	assert.NotNil(t, view.ProgressImagesFiles)

	missing, err := f.service.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStorageErrorsPropagate(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("connection reset")
	f.store.FailWith("ListApartments", boom)
	f.store.FailWith("GetApartment", boom)

	_, err := f.service.List(context.Background(), Filter{}, Page{}, Sort{})
	assert.ErrorIs(t, err, boom)

	_, err = f.service.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, boom)
}

func numbers(items []*View) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ApartmentNo
	}
	return out
}
