package mutation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-portfolio-crm/apartments"
	"github.com/goliatone/go-portfolio-crm/blobstore"
	"github.com/goliatone/go-portfolio-crm/cache"
	"github.com/goliatone/go-portfolio-crm/dashboard"
	"github.com/goliatone/go-portfolio-crm/finance"
	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/goliatone/go-portfolio-crm/pkg/testsupport"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fixture struct {
	store   *testsupport.MemoryStore
	shared  *cache.ShortLived
	blobs   *recordingBlobs
	gateway *Gateway
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend, err := cache.NewCacheService(cache.DefaultConfig())
	require.NoError(t, err)
	shared := cache.NewShortLived(backend, zap.NewNop())

	local, err := blobstore.NewLocal(t.TempDir(), "http://files.test/uploads")
	require.NoError(t, err)
	blobs := &recordingBlobs{Store: local}

	core, logs := observer.New(zap.InfoLevel)
	store := testsupport.NewMemoryStore()
	clock := func() time.Time { return testsupport.BaseTime }

	return &fixture{
		store:   store,
		shared:  shared,
		blobs:   blobs,
		gateway: NewGateway(store, shared, blobs, zap.New(core), WithClock(clock)),
		logs:    logs,
	}
}

// recordingBlobs wraps a blob store and can be told to fail deletes.
type recordingBlobs struct {
	blobstore.Store
	mu        sync.Mutex
	deleteErr error
	deleted   []string
}

func (r *recordingBlobs) Delete(ctx context.Context, url string) error {
	r.mu.Lock()
	r.deleted = append(r.deleted, url)
	err := r.deleteErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.Store.Delete(ctx, url)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "expected %s, got %s", want, got)
}

func assertMarked(t *testing.T, shared *cache.ShortLived, keys ...string) {
	t.Helper()
	for _, key := range keys {
		assert.Truef(t, shared.IsInvalidated(key), "expected %s to be invalidated", key)
	}
}

func assertNotMarked(t *testing.T, shared *cache.ShortLived, keys ...string) {
	t.Helper()
	for _, key := range keys {
		assert.Falsef(t, shared.IsInvalidated(key), "expected %s to stay cached", key)
	}
}

func TestKentronSaleEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	board := dashboard.NewService(f.store, f.shared, nil)
	reader := apartments.NewService(f.store, nil)

	district, err := f.gateway.CreateDistrict(ctx, DistrictInput{Name: "Kentron", Slug: "kentron"})
	require.NoError(t, err)
	building, err := f.gateway.CreateBuilding(ctx, BuildingInput{DistrictID: &district.ID, Name: "Tower 1", Slug: "tower-1"})
	require.NoError(t, err)

	apt, err := f.gateway.CreateApartment(ctx, ApartmentInput{
		BuildingID:  building.ID,
		ApartmentNo: "12-05",
		Status:      model.StatusAvailable,
		Sqm:         testsupport.Dec("52.4"),
		PricePerSqm: testsupport.Dec("650000"),
	})
	require.NoError(t, err)
	require.True(t, apt.TotalPrice.Valid)
	assertDec(t, "34060000", apt.TotalPrice.Decimal)

	before, err := board.Financial(ctx)
	require.NoError(t, err)
	assertDec(t, "0", before.Sold.Amount)
	assertDec(t, "34060000", before.NotSold.Available)

	_, err = f.gateway.UpdateApartment(ctx, apt.ID, ApartmentPatch{
		Status:    Value(model.StatusSold),
		TotalPaid: Value(testsupport.Dec("10000000")),
	})
	require.NoError(t, err)
	assertMarked(t, f.shared, cache.DashboardKeys()...)

	view, err := reader.GetByID(ctx, apt.ID)
	require.NoError(t, err)
	require.NotNil(t, view)
	assertDec(t, "24060000", view.Balance.Decimal)
	assert.Equal(t, "Kentron - Tower 1", view.BuildingLabel())

	after, err := board.Financial(ctx)
	require.NoError(t, err)
	assertDec(t, "34060000", after.Sold.Amount)
	assertDec(t, "10000000", after.Sold.Paid)
	assertDec(t, "24060000", after.Sold.Balance)
	assertDec(t, "0", after.NotSold.Available)

	summary, err := board.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sold.Count)
	assert.Equal(t, 0, summary.Available.Count)
}

func TestCreateApartment(t *testing.T) {
	t.Run("explicit total wins over product", func(t *testing.T) {
		f := newFixture(t)
		b := seedBuilding(f)

		apt, err := f.gateway.CreateApartment(context.Background(), ApartmentInput{
			BuildingID:  b.ID,
			ApartmentNo: "1",
			Sqm:         testsupport.Dec("10"),
			PricePerSqm: testsupport.Dec("100"),
			TotalPrice:  testsupport.Dec("900"),
		})
		require.NoError(t, err)
		assertDec(t, "900", apt.TotalPrice.Decimal)
		assert.Equal(t, model.StatusUpcoming, apt.Status)
		assert.Equal(t, model.SalesTypeUnsold, apt.SalesType)
	})

	t.Run("total agrees with the calculator", func(t *testing.T) {
		f := newFixture(t)
		b := seedBuilding(f)

		for i, tc := range []struct {
			sqm, price decimal.NullDecimal
		}{
			{testsupport.Dec("33.333"), testsupport.Dec("3.3333")},
			{testsupport.Dec("10"), decimal.NullDecimal{}},
			{decimal.NullDecimal{}, testsupport.Dec("100")},
		} {
			apt, err := f.gateway.CreateApartment(context.Background(), ApartmentInput{
				BuildingID:  b.ID,
				ApartmentNo: fmt.Sprintf("%d", i+1),
				Sqm:         tc.sqm,
				PricePerSqm: tc.price,
			})
			require.NoError(t, err)
			want := finance.TotalPrice(tc.sqm, tc.price, decimal.NullDecimal{})
			require.Equal(t, want.Valid, apt.TotalPrice.Valid, "case %d", i)
			if want.Valid {
				assertDec(t, want.Decimal.String(), apt.TotalPrice.Decimal)
			}
		}
	})

	t.Run("invalidates dashboards and building listings", func(t *testing.T) {
		f := newFixture(t)
		b := seedBuilding(f)

		_, err := f.gateway.CreateApartment(context.Background(), ApartmentInput{BuildingID: b.ID, ApartmentNo: "1"})
		require.NoError(t, err)
		assertMarked(t, f.shared, cache.DashboardKeys()...)
		assertMarked(t, f.shared, cache.BuildingsKey(&b.DistrictID), cache.BuildingsAll)
		assertNotMarked(t, f.shared, cache.Districts)
	})

	t.Run("unknown building", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.gateway.CreateApartment(context.Background(), ApartmentInput{BuildingID: uuid.New(), ApartmentNo: "1"})

		var nf *model.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "building", nf.Entity)
	})

	t.Run("duplicate number in building", func(t *testing.T) {
		f := newFixture(t)
		b := seedBuilding(f)
		f.store.SeedApartment(b.ID, "7", model.StatusAvailable)

		_, err := f.gateway.CreateApartment(context.Background(), ApartmentInput{BuildingID: b.ID, ApartmentNo: " 7 "})

		var conflict *model.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "apartment_no", conflict.Field)
		assertNotMarked(t, f.shared, cache.DashboardKeys()...)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture(t)
		b := seedBuilding(f)

		_, err := f.gateway.CreateApartment(context.Background(), ApartmentInput{
			BuildingID:  b.ID,
			Status:      "LISTED",
			Sqm:         testsupport.Dec("-1"),
			TotalPaid:   testsupport.Dec("-5"),
			Email:       testsupport.Str("not-an-email"),
			MatterLink:  testsupport.Str("nope"),
			ApartmentNo: "",
		})

		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr)
		fields := verr.Fields()
		for _, key := range []string{"apartment_no", "status", "sqm", "total_paid", "email", "matter_link"} {
			assert.Contains(t, fields, key)
		}
		assert.Equal(t, 0, f.store.Calls("CreateApartment"))
	})

	t.Run("blank optional text is stored as null", func(t *testing.T) {
		f := newFixture(t)
		b := seedBuilding(f)

		apt, err := f.gateway.CreateApartment(context.Background(), ApartmentInput{
			BuildingID:    b.ID,
			ApartmentNo:   "1",
			Status:        "sold",
			OwnershipName: testsupport.Str("  "),
		})
		require.NoError(t, err)
		assert.Nil(t, apt.OwnershipName)
		assert.Equal(t, model.StatusSold, apt.Status)
	})
}

func TestUpdateApartment(t *testing.T) {
	t.Run("repricing recomputes total", func(t *testing.T) {
		f := newFixture(t)
		b := seedBuilding(f)
		apt := f.store.SeedApartment(b.ID, "1", model.StatusAvailable, testsupport.WithPricing("10", "100", "1000", ""))

		got, err := f.gateway.UpdateApartment(context.Background(), apt.ID, ApartmentPatch{Sqm: Value(testsupport.Dec("12"))})
		require.NoError(t, err)
		assertDec(t, "1200", got.TotalPrice.Decimal)
	})

	t.Run("repricing with a missing factor keeps the stored total", func(t *testing.T) {
		f := newFixture(t)
		b := seedBuilding(f)
		apt := f.store.SeedApartment(b.ID, "1", model.StatusAvailable, testsupport.WithPricing("", "100", "1000", ""))

		got, err := f.gateway.UpdateApartment(context.Background(), apt.ID, ApartmentPatch{PricePerSqm: Value(testsupport.Dec("200"))})
		require.NoError(t, err)
		assertDec(t, "1000", got.TotalPrice.Decimal)
	})

	t.Run("explicit total in the same patch wins", func(t *testing.T) {
		f := newFixture(t)
		b := seedBuilding(f)
		apt := f.store.SeedApartment(b.ID, "1", model.StatusAvailable, testsupport.WithPricing("10", "100", "1000", ""))

		got, err := f.gateway.UpdateApartment(context.Background(), apt.ID, ApartmentPatch{
			PricePerSqm: Value(testsupport.Dec("200")),
			TotalPrice:  Value(testsupport.Dec("1500")),
		})
		require.NoError(t, err)
		assertDec(t, "1500", got.TotalPrice.Decimal)
	})

	t.Run("move invalidates both district listings", func(t *testing.T) {
		f := newFixture(t)
		from := seedBuilding(f)
		other := f.store.SeedDistrict("Arabkir", "arabkir")
		to := f.store.SeedBuilding(other.ID, "Block A", "block-a")
		apt := f.store.SeedApartment(from.ID, "1", model.StatusAvailable)

		got, err := f.gateway.UpdateApartment(context.Background(), apt.ID, ApartmentPatch{BuildingID: Value(to.ID)})
		require.NoError(t, err)
		assert.Equal(t, to.ID, got.BuildingID)

		assertMarked(t, f.shared, cache.DashboardKeys()...)
		assertMarked(t, f.shared, cache.BuildingsKey(&from.DistrictID), cache.BuildingsKey(&other.ID), cache.BuildingsAll)
	})

	t.Run("in-place update leaves building listings alone", func(t *testing.T) {
		f := newFixture(t)
		b := seedBuilding(f)
		apt := f.store.SeedApartment(b.ID, "1", model.StatusAvailable)

		_, err := f.gateway.UpdateApartment(context.Background(), apt.ID, ApartmentPatch{Phone: Value(testsupport.Str("+374 10 000000"))})
		require.NoError(t, err)
		assertMarked(t, f.shared, cache.DashboardKeys()...)
		assertNotMarked(t, f.shared, cache.BuildingsKey(&b.DistrictID), cache.BuildingsAll)
	})

	t.Run("failed write does not invalidate", func(t *testing.T) {
		f := newFixture(t)
		b := seedBuilding(f)
		apt := f.store.SeedApartment(b.ID, "1", model.StatusAvailable)
		f.store.FailWith("UpdateApartment", errors.New("disk full"))

		_, err := f.gateway.UpdateApartment(context.Background(), apt.ID, ApartmentPatch{Status: Value(model.StatusSold)})
		require.Error(t, err)
		assertNotMarked(t, f.shared, cache.DashboardKeys()...)
	})

	t.Run("missing apartment", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.gateway.UpdateApartment(context.Background(), uuid.New(), ApartmentPatch{})
		assert.True(t, model.IsNotFound(err))
	})

	t.Run("renumbering onto a taken number conflicts", func(t *testing.T) {
		f := newFixture(t)
		b := seedBuilding(f)
		f.store.SeedApartment(b.ID, "1", model.StatusAvailable)
		apt := f.store.SeedApartment(b.ID, "2", model.StatusAvailable)

		_, err := f.gateway.UpdateApartment(context.Background(), apt.ID, ApartmentPatch{ApartmentNo: Value("1")})

		var conflict *model.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("sold without deal details warns", func(t *testing.T) {
		f := newFixture(t)
		b := seedBuilding(f)
		apt := f.store.SeedApartment(b.ID, "1", model.StatusAvailable)

		_, err := f.gateway.UpdateApartment(context.Background(), apt.ID, ApartmentPatch{Status: Value(model.StatusSold)})
		require.NoError(t, err)
		assert.Equal(t, 1, f.logs.FilterMessage("sold apartment without deal date or owner").Len())
	})
}

func TestUpdateApartmentStatus(t *testing.T) {
	f := newFixture(t)
	b := seedBuilding(f)
	apt := f.store.SeedApartment(b.ID, "1", model.StatusAvailable)

	got, err := f.gateway.UpdateApartmentStatus(context.Background(), apt.ID, "reserved")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReserved, got.Status)

	_, err = f.gateway.UpdateApartmentStatus(context.Background(), apt.ID, "gone")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields(), "status")
}

func TestDeleteApartment(t *testing.T) {
	t.Run("removes rows and blobs", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		b := seedBuilding(f)
		apt := f.store.SeedApartment(b.ID, "1", model.StatusSold)

		att, err := f.gateway.AddAttachment(ctx, apt.ID, AttachmentUpload{
			FileType:    "agreement",
			FileName:    "deal.pdf",
			ContentType: "application/pdf",
			Body:        strings.NewReader("%PDF-1.4"),
		})
		require.NoError(t, err)

		require.NoError(t, f.gateway.DeleteApartment(ctx, apt.ID))

		got, err := f.store.GetApartment(ctx, apt.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, []string{att.FileURL}, f.blobs.deleted)
		assertMarked(t, f.shared, cache.DashboardKeys()...)
		assertMarked(t, f.shared, cache.BuildingsKey(&b.DistrictID), cache.BuildingsAll)
	})

	t.Run("blob failures are swallowed", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		b := seedBuilding(f)
		apt := f.store.SeedApartment(b.ID, "1", model.StatusSold)
		f.store.SeedAttachment(apt.ID, model.FileTypeImage, "http://files.test/uploads/x.png", testsupport.BaseTime)
		f.blobs.deleteErr = errors.New("bucket unavailable")

		require.NoError(t, f.gateway.DeleteApartment(ctx, apt.ID))
		assert.Len(t, f.blobs.deleted, 1)
		assert.Equal(t, 1, f.logs.FilterMessage("blob delete failed").Len())
	})

	t.Run("missing apartment", func(t *testing.T) {
		f := newFixture(t)
		err := f.gateway.DeleteApartment(context.Background(), uuid.New())
		assert.True(t, model.IsNotFound(err))
	})
}

func TestDistrictLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.gateway.CreateDistrict(ctx, DistrictInput{Name: "Nor Nork"})
	require.NoError(t, err)
	assert.Equal(t, "nor-nork", d.Slug)
	assertMarked(t, f.shared, cache.Districts)

	_, err = f.gateway.CreateDistrict(ctx, DistrictInput{Name: "Other", Slug: "nor-nork"})
	var conflict *model.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "slug", conflict.Field)

	_, err = f.gateway.CreateDistrict(ctx, DistrictInput{Name: ""})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)

	updated, err := f.gateway.UpdateDistrict(ctx, d.ID, DistrictInput{Name: "Nor Nork 2"})
	require.NoError(t, err)
	assert.Equal(t, "nor-nork-2", updated.Slug)
	assertMarked(t, f.shared, cache.BuildingsKey(&d.ID), cache.BuildingsAll)

	b, err := f.gateway.CreateBuilding(ctx, BuildingInput{DistrictID: &d.ID, Name: "Tower 9"})
	require.NoError(t, err)

	err = f.gateway.DeleteDistrict(ctx, d.ID)
	var deps *model.DependentsError
	require.ErrorAs(t, err, &deps)
	assert.Equal(t, 1, deps.Count)
	assert.Equal(t, 0, f.store.Calls("DeleteDistrict"))

	require.NoError(t, f.gateway.DeleteBuilding(ctx, b.ID))
	require.NoError(t, f.gateway.DeleteDistrict(ctx, d.ID))
	assert.True(t, model.IsNotFound(f.gateway.DeleteDistrict(ctx, d.ID)))
}

func TestBuildingLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.store.SeedDistrict("Kentron", "kentron")
	second := f.store.SeedDistrict("Arabkir", "arabkir")

	_, err := f.gateway.CreateBuilding(ctx, BuildingInput{Name: "Orphan"})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields(), "district_id")

	missing := uuid.New()
	_, err = f.gateway.CreateBuilding(ctx, BuildingInput{DistrictID: &missing, Name: "Lost"})
	assert.True(t, model.IsNotFound(err))

	b, err := f.gateway.CreateBuilding(ctx, BuildingInput{DistrictID: &first.ID, Name: "Tower 1"})
	require.NoError(t, err)
	assertMarked(t, f.shared, cache.BuildingsKey(&first.ID), cache.BuildingsAll, cache.Districts)

	// the same slug is allowed in another district
	_, err = f.gateway.CreateBuilding(ctx, BuildingInput{DistrictID: &second.ID, Name: "Tower 1"})
	require.NoError(t, err)

	_, err = f.gateway.UpdateBuilding(ctx, b.ID, BuildingInput{DistrictID: &second.ID, Name: "Tower 1"})
	var conflict *model.ConflictError
	require.ErrorAs(t, err, &conflict)

	moved, err := f.gateway.UpdateBuilding(ctx, b.ID, BuildingInput{DistrictID: &second.ID, Name: "Tower 1 East"})
	require.NoError(t, err)
	assert.Equal(t, second.ID, moved.DistrictID)
	assertMarked(t, f.shared, cache.BuildingsKey(&first.ID), cache.BuildingsKey(&second.ID))

	f.store.SeedApartment(b.ID, "1", model.StatusAvailable)
	err = f.gateway.DeleteBuilding(ctx, b.ID)
	var deps *model.DependentsError
	require.ErrorAs(t, err, &deps)
	assert.Equal(t, "cannot delete building: 1 dependent apartment(s)", deps.Error())
}

func TestAddAttachment(t *testing.T) {
	t.Run("stores blob and row", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		b := seedBuilding(f)
		apt := f.store.SeedApartment(b.ID, "1", model.StatusAvailable)

		att, err := f.gateway.AddAttachment(ctx, apt.ID, AttachmentUpload{
			FileType:    "image",
			FileName:    "living room (1).jpg",
			ContentType: "image/jpeg",
			Body:        strings.NewReader("hello"),
		})
		require.NoError(t, err)
		assert.Equal(t, model.FileTypeImage, att.FileType)
		assert.Equal(t, "living_room__1_.jpg", att.FileName)
		assert.EqualValues(t, 5, att.FileSize)
		require.NotNil(t, att.MD5Hash)
		assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", *att.MD5Hash)
		assert.Contains(t, att.FileURL, "/apartments/"+apt.ID.String()+"/image/"+att.ID.String()+"-")

		urls, err := f.blobs.List(ctx, "apartments/"+apt.ID.String()+"/")
		require.NoError(t, err)
		assert.Equal(t, []string{att.FileURL}, urls)
	})

	t.Run("content type must fit file type", func(t *testing.T) {
		f := newFixture(t)
		b := seedBuilding(f)
		apt := f.store.SeedApartment(b.ID, "1", model.StatusAvailable)

		_, err := f.gateway.AddAttachment(context.Background(), apt.ID, AttachmentUpload{
			FileType:    "FLOORPLAN",
			FileName:    "plan.png",
			ContentType: "image/png",
			Body:        strings.NewReader("png"),
		})
		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields(), "content_type")
	})

	t.Run("oversize upload", func(t *testing.T) {
		f := newFixture(t)
		b := seedBuilding(f)
		apt := f.store.SeedApartment(b.ID, "1", model.StatusAvailable)

		_, err := f.gateway.AddAttachment(context.Background(), apt.ID, AttachmentUpload{
			FileType:    "AGREEMENT",
			FileName:    "huge.pdf",
			ContentType: "application/pdf",
			Body:        io.LimitReader(zeros{}, MaxAttachmentSize+10),
		})
		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields(), "file")
	})

	t.Run("row failure removes the blob", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		b := seedBuilding(f)
		apt := f.store.SeedApartment(b.ID, "1", model.StatusAvailable)
		f.store.FailWith("CreateAttachment", errors.New("constraint"))

		_, err := f.gateway.AddAttachment(ctx, apt.ID, AttachmentUpload{
			FileType:    "IMAGE",
			FileName:    "a.png",
			ContentType: "image/png",
			Body:        strings.NewReader("png"),
		})
		require.Error(t, err)
		require.Len(t, f.blobs.deleted, 1)

		urls, err := f.blobs.List(ctx, "apartments/")
		require.NoError(t, err)
		assert.Empty(t, urls)
	})

	t.Run("unknown apartment", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.gateway.AddAttachment(context.Background(), uuid.New(), AttachmentUpload{
			FileType:    "IMAGE",
			FileName:    "a.png",
			ContentType: "image/png",
			Body:        strings.NewReader("png"),
		})
		assert.True(t, model.IsNotFound(err))
	})
}

func TestRemoveAttachment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := seedBuilding(f)
	apt := f.store.SeedApartment(b.ID, "1", model.StatusAvailable)
	other := f.store.SeedApartment(b.ID, "2", model.StatusAvailable)
	att := f.store.SeedAttachment(apt.ID, model.FileTypeFloorplan, "http://files.test/uploads/p.pdf", testsupport.BaseTime)

	assert.True(t, model.IsNotFound(f.gateway.RemoveAttachment(ctx, other.ID, att.ID)))

	f.blobs.deleteErr = errors.New("timeout")
	require.NoError(t, f.gateway.RemoveAttachment(ctx, apt.ID, att.ID))

	got, err := f.store.GetAttachment(ctx, att.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, []string{att.FileURL}, f.blobs.deleted)
}

func TestApartmentPatchJSON(t *testing.T) {
	var patch ApartmentPatch
	require.NoError(t, json.Unmarshal([]byte(`{"status":"SOLD","email":null,"sqm":"52.4"}`), &patch))

	assert.True(t, patch.Status.Set)
	assert.Equal(t, model.StatusSold, patch.Status.Value)
	assert.True(t, patch.Email.Set)
	assert.Nil(t, patch.Email.Value)
	assert.True(t, patch.Sqm.Set)
	assertDec(t, "52.4", patch.Sqm.Value.Decimal)
	assert.False(t, patch.Phone.Set)
	assert.True(t, patch.repricing())
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "a_b-c.PDF", SanitizeFileName("a b-c.PDF"))
	assert.Equal(t, "file", SanitizeFileName("   "))
	assert.Equal(t, "___.txt", SanitizeFileName("ÿ/!.txt"))
}

func seedBuilding(f *fixture) *model.Building {
	d := f.store.SeedDistrict("Kentron", "kentron")
	return f.store.SeedBuilding(d.ID, "Tower 1", "tower-1")
}

type zeros struct{}

func (zeros) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
