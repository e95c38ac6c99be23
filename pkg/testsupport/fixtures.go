package testsupport

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadReader creates an io.Reader from fixture data.
// Useful for testing functions that accept readers.
func LoadReader(t *testing.T, path string) io.Reader {
	t.Helper()

	data := LoadFixture(t, path)
	return strings.NewReader(string(data))
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// Dec parses s as a present decimal. It panics on malformed input.
func Dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// Str returns a pointer to s.
func Str(s string) *string { return &s }

// BaseTime is the fixed clock used by fixtures.
var BaseTime = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

// SeedDistrict stores a district and returns it.
func (m *MemoryStore) SeedDistrict(name, slug string) *model.District {
	d := &model.District{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		CreatedAt: BaseTime,
		UpdatedAt: BaseTime,
	}
	m.mu.Lock()
	m.districts[d.ID] = cloneDistrict(d)
	m.mu.Unlock()
	return d
}

// SeedBuilding stores a building under districtID and returns it.
func (m *MemoryStore) SeedBuilding(districtID uuid.UUID, name, slug string) *model.Building {
	b := &model.Building{
		ID:         uuid.New(),
		DistrictID: districtID,
		Name:       name,
		Slug:       slug,
		CreatedAt:  BaseTime,
		UpdatedAt:  BaseTime,
	}
	m.mu.Lock()
	m.buildings[b.ID] = cloneBuilding(b)
	m.mu.Unlock()
	return b
}

// ApartmentOption customizes a seeded apartment.
type ApartmentOption func(*model.Apartment)

// WithPricing sets area, unit price, stored total and paid amount. Empty
// strings leave the field null.
func WithPricing(sqm, pricePerSqm, totalPrice, totalPaid string) ApartmentOption {
	return func(a *model.Apartment) {
		a.Sqm = optionalDec(sqm)
		a.PricePerSqm = optionalDec(pricePerSqm)
		a.TotalPrice = optionalDec(totalPrice)
		a.TotalPaid = optionalDec(totalPaid)
	}
}

// WithDealDate sets the deal date.
func WithDealDate(t time.Time) ApartmentOption {
	return func(a *model.Apartment) { a.DealDate = &t }
}

// WithUpdatedAt sets the last modified timestamp.
func WithUpdatedAt(t time.Time) ApartmentOption {
	return func(a *model.Apartment) { a.UpdatedAt = t }
}

// SeedApartment stores an apartment and returns it.
func (m *MemoryStore) SeedApartment(buildingID uuid.UUID, apartmentNo string, status model.Status, opts ...ApartmentOption) *model.Apartment {
	a := &model.Apartment{
		ID:          uuid.New(),
		BuildingID:  buildingID,
		ApartmentNo: apartmentNo,
		Status:      status,
		SalesType:   model.SalesTypeUnsold,
		CreatedAt:   BaseTime,
		UpdatedAt:   BaseTime,
	}
	for _, opt := range opts {
		opt(a)
	}
	m.mu.Lock()
	m.apartments[a.ID] = cloneApartment(a)
	m.mu.Unlock()
	return a
}

// SeedAttachment stores an attachment and returns it.
func (m *MemoryStore) SeedAttachment(apartmentID uuid.UUID, fileType model.FileType, fileURL string, createdAt time.Time) *model.Attachment {
	att := &model.Attachment{
		ID:          uuid.New(),
		ApartmentID: apartmentID,
		FileType:    fileType,
		FileURL:     fileURL,
		FileName:    filepath.Base(fileURL),
		CreatedAt:   createdAt,
	}
	m.mu.Lock()
	m.attachments[att.ID] = cloneAttachment(att)
	m.mu.Unlock()
	return att
}

func optionalDec(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return Dec(s)
}
