package mutation

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field is an optional update value. Set reports whether the caller supplied
// it; a set Field may still carry a zero Value to clear a nullable column.
type Field[T any] struct {
	Set   bool
	Value T
}

// Value returns a set Field holding v.
func Value[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// UnmarshalJSON marks the field as set whenever its key is present,
// including an explicit null.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	return json.Unmarshal(data, &f.Value)
}

func (f Field[T]) apply(dst *T) {
	if f.Set {
		*dst = f.Value
	}
}

// DistrictInput creates or updates a district. An empty slug is derived
// from the name.
type DistrictInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// BuildingInput creates or updates a building. On update a nil DistrictID
// keeps the current district.
type BuildingInput struct {
	DistrictID *uuid.UUID `json:"district_id"`
	Name       string     `json:"name"`
	Slug       string     `json:"slug"`
}

// ApartmentInput creates an apartment. Status defaults to UPCOMING and
// SalesType to UNSOLD.
type ApartmentInput struct {
	BuildingID            uuid.UUID           `json:"building_id"`
	ApartmentNo           string              `json:"apartment_no"`
	ApartmentType         *int                `json:"apartment_type"`
	Status                model.Status        `json:"status"`
	SalesType             model.SalesType     `json:"sales_type"`
	Sqm                   decimal.NullDecimal `json:"sqm"`
	PricePerSqm           decimal.NullDecimal `json:"price_sqm"`
	TotalPrice            decimal.NullDecimal `json:"total_price"`
	TotalPaid             decimal.NullDecimal `json:"total_paid"`
	DealDate              *time.Time          `json:"deal_date"`
	OwnershipName         *string             `json:"ownership_name"`
	Email                 *string             `json:"email"`
	PassportTaxNo         *string             `json:"passport_tax_no"`
	Phone                 *string             `json:"phone"`
	DealDescription       *string             `json:"deal_description"`
	MatterLink            *string             `json:"matter_link"`
	FloorplanDistribution *string             `json:"floorplan_distribution"`
	ExteriorLink          *string             `json:"exterior_link"`
	ExteriorLink2         *string             `json:"exterior_link2"`
}

// ApartmentPatch updates the fields that are Set and leaves the rest alone.
type ApartmentPatch struct {
	BuildingID            Field[uuid.UUID]           `json:"building_id"`
	ApartmentNo           Field[string]              `json:"apartment_no"`
	ApartmentType         Field[*int]                `json:"apartment_type"`
	Status                Field[model.Status]        `json:"status"`
	SalesType             Field[model.SalesType]     `json:"sales_type"`
	Sqm                   Field[decimal.NullDecimal] `json:"sqm"`
	PricePerSqm           Field[decimal.NullDecimal] `json:"price_sqm"`
	TotalPrice            Field[decimal.NullDecimal] `json:"total_price"`
	TotalPaid             Field[decimal.NullDecimal] `json:"total_paid"`
	DealDate              Field[*time.Time]          `json:"deal_date"`
	OwnershipName         Field[*string]             `json:"ownership_name"`
	Email                 Field[*string]             `json:"email"`
	PassportTaxNo         Field[*string]             `json:"passport_tax_no"`
	Phone                 Field[*string]             `json:"phone"`
	DealDescription       Field[*string]             `json:"deal_description"`
	MatterLink            Field[*string]             `json:"matter_link"`
	FloorplanDistribution Field[*string]             `json:"floorplan_distribution"`
	ExteriorLink          Field[*string]             `json:"exterior_link"`
	ExteriorLink2         Field[*string]             `json:"exterior_link2"`
}

// repricing reports whether the patch touches an input of the stored total
// without setting the total itself.
func (p ApartmentPatch) repricing() bool {
	return (p.Sqm.Set || p.PricePerSqm.Set) && !p.TotalPrice.Set
}

func (p ApartmentPatch) applyTo(a *model.Apartment) {
	p.BuildingID.apply(&a.BuildingID)
	p.ApartmentNo.apply(&a.ApartmentNo)
	p.ApartmentType.apply(&a.ApartmentType)
	p.Status.apply(&a.Status)
	p.SalesType.apply(&a.SalesType)
	p.Sqm.apply(&a.Sqm)
	p.PricePerSqm.apply(&a.PricePerSqm)
	p.TotalPrice.apply(&a.TotalPrice)
	p.TotalPaid.apply(&a.TotalPaid)
	p.DealDate.apply(&a.DealDate)
	p.OwnershipName.apply(&a.OwnershipName)
	p.Email.apply(&a.Email)
	p.PassportTaxNo.apply(&a.PassportTaxNo)
	p.Phone.apply(&a.Phone)
	p.DealDescription.apply(&a.DealDescription)
	p.MatterLink.apply(&a.MatterLink)
	p.FloorplanDistribution.apply(&a.FloorplanDistribution)
	p.ExteriorLink.apply(&a.ExteriorLink)
	p.ExteriorLink2.apply(&a.ExteriorLink2)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

func validateNamed(name, slug string) error {
	return model.Invalid(validation.Errors{
		"name": validation.Validate(name, validation.Required, validation.Length(1, 255)),
		"slug": validation.Validate(slug, validation.Required, validation.Length(1, 255), validation.Match(slugPattern)),
	}.Filter())
}

func statusValues() []any {
	out := make([]any, len(model.Statuses))
	for i, s := range model.Statuses {
		out[i] = s
	}
	return out
}

var salesTypeValues = []any{
	model.SalesTypeUnsold, model.SalesTypeMortgage, model.SalesTypeCash, model.SalesTypeTimebased,
}

var errRequiredID = errors.New("cannot be blank")

func requiredID(value any) error {
	if id, ok := value.(uuid.UUID); ok && id == uuid.Nil {
		return errRequiredID
	}
	return nil
}

func positive(value any) error {
	if d, ok := value.(decimal.NullDecimal); ok && d.Valid && !d.Decimal.IsPositive() {
		return errors.New("must be greater than 0")
	}
	return nil
}

func nonNegative(value any) error {
	if d, ok := value.(decimal.NullDecimal); ok && d.Valid && d.Decimal.IsNegative() {
		return errors.New("must be no less than 0")
	}
	return nil
}

// normalizeApartment trims text, upper-cases enums, turns blank optional
// text into NULL and applies defaults.
func normalizeApartment(a *model.Apartment) {
	a.ApartmentNo = strings.TrimSpace(a.ApartmentNo)
	a.Status = model.Status(strings.ToUpper(strings.TrimSpace(string(a.Status))))
	a.SalesType = model.SalesType(strings.ToUpper(strings.TrimSpace(string(a.SalesType))))
	if a.Status == "" {
		a.Status = model.StatusUpcoming
	}
	if a.SalesType == "" {
		a.SalesType = model.SalesTypeUnsold
	}
	for _, field := range []**string{
		&a.OwnershipName, &a.Email, &a.PassportTaxNo, &a.Phone, &a.DealDescription,
		&a.MatterLink, &a.FloorplanDistribution, &a.ExteriorLink, &a.ExteriorLink2,
	} {
		if *field != nil && strings.TrimSpace(**field) == "" {
			*field = nil
		}
	}
}

func validateApartment(a *model.Apartment) error {
	return model.Invalid(validation.Errors{
		"building_id":            validation.Validate(a.BuildingID, validation.By(requiredID)),
		"apartment_no":           validation.Validate(a.ApartmentNo, validation.Required, validation.Length(1, 50)),
		"status":                 validation.Validate(a.Status, validation.Required, validation.In(statusValues()...)),
		"sales_type":             validation.Validate(a.SalesType, validation.Required, validation.In(salesTypeValues...)),
		"sqm":                    validation.Validate(a.Sqm, validation.By(positive)),
		"price_sqm":              validation.Validate(a.PricePerSqm, validation.By(positive)),
		"total_price":            validation.Validate(a.TotalPrice, validation.By(nonNegative)),
		"total_paid":             validation.Validate(a.TotalPaid, validation.By(nonNegative)),
		"ownership_name":         validation.Validate(a.OwnershipName, validation.Length(0, 500)),
		"email":                  validation.Validate(a.Email, is.EmailFormat),
		"passport_tax_no":        validation.Validate(a.PassportTaxNo, validation.Length(0, 100)),
		"phone":                  validation.Validate(a.Phone, validation.Length(0, 50)),
		"deal_description":       validation.Validate(a.DealDescription, validation.Length(0, 500)),
		"matter_link":            validation.Validate(a.MatterLink, is.URL),
		"floorplan_distribution": validation.Validate(a.FloorplanDistribution, validation.Length(0, 500)),
		"exterior_link":          validation.Validate(a.ExteriorLink, is.URL),
		"exterior_link2":         validation.Validate(a.ExteriorLink2, is.URL),
	}.Filter())
}

func fieldError(name string, err error) error {
	return validation.Errors{name: err}
}
