package apartments

import (
	"sort"
	"time"

	"github.com/goliatone/go-portfolio-crm/finance"
	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DistrictRef is the denormalized district shown on an apartment.
type DistrictRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// BuildingRef is the denormalized building shown on an apartment.
type BuildingRef struct {
	ID       uuid.UUID    `json:"id"`
	Name     string       `json:"name"`
	Slug     string       `json:"slug"`
	District *DistrictRef `json:"district,omitempty"`
}

// View is an apartment as presented to readers: stored fields plus the
// derived total price and balance.
type View struct {
	ID                    uuid.UUID           `json:"id"`
	ApartmentNo           string              `json:"apartment_no"`
	ApartmentType         *int                `json:"apartment_type"`
	Status                model.Status        `json:"status"`
	SalesType             model.SalesType     `json:"sales_type"`
	Sqm                   decimal.NullDecimal `json:"sqm"`
	PricePerSqm           decimal.NullDecimal `json:"price_sqm"`
	TotalPrice            decimal.NullDecimal `json:"total_price"`
	TotalPaid             decimal.NullDecimal `json:"total_paid"`
	Balance               decimal.NullDecimal `json:"balance"`
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
	Building              *BuildingRef        `json:"building"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`

	AgreementFiles      []*model.Attachment `json:"agreement_files"`
	FloorplansFiles     []*model.Attachment `json:"floorplans_files"`
	ImagesFiles         []*model.Attachment `json:"images_files"`
	ProgressImagesFiles []*model.Attachment `json:"progress_images_files"`
}

// BuildingLabel is the "district - building" text used by the building sort.
func (v *View) BuildingLabel() string {
	if v.Building == nil {
		return ""
	}
	if v.Building.District == nil {
		return v.Building.Name
	}
	return v.Building.District.Name + " - " + v.Building.Name
}

// NewView builds the presented form of a stored apartment. Both the list and
// the single record paths go through it, so derived values always match.
func NewView(a *model.Apartment) *View {
	fin := finance.Compute(a.Sqm, a.PricePerSqm, a.TotalPrice, a.TotalPaid)

	v := &View{
		ID:                    a.ID,
		ApartmentNo:           a.ApartmentNo,
		ApartmentType:         a.ApartmentType,
		Status:                a.Status,
		SalesType:             a.SalesType,
		Sqm:                   a.Sqm,
		PricePerSqm:           a.PricePerSqm,
		TotalPrice:            fin.TotalPrice,
		TotalPaid:             a.TotalPaid,
		Balance:               fin.Balance,
		DealDate:              a.DealDate,
		OwnershipName:         a.OwnershipName,
		Email:                 a.Email,
		PassportTaxNo:         a.PassportTaxNo,
		Phone:                 a.Phone,
		DealDescription:       a.DealDescription,
		MatterLink:            a.MatterLink,
		FloorplanDistribution: a.FloorplanDistribution,
		ExteriorLink:          a.ExteriorLink,
		ExteriorLink2:         a.ExteriorLink2,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}

	if b := a.Building; b != nil {
		v.Building = &BuildingRef{ID: b.ID, Name: b.Name, Slug: b.Slug}
		if d := b.District; d != nil {
			v.Building.District = &DistrictRef{ID: d.ID, Name: d.Name, Slug: d.Slug}
		}
	}

	groupAttachments(v, a.Attachments)
	return v
}

// groupAttachments splits attachments into the four file type buckets,
// newest first. Every bucket is non-nil so it encodes as [].
func groupAttachments(v *View, attachments []*model.Attachment) {
	v.AgreementFiles = []*model.Attachment{}
	v.FloorplansFiles = []*model.Attachment{}
	v.ImagesFiles = []*model.Attachment{}
	v.ProgressImagesFiles = []*model.Attachment{}

	sorted := make([]*model.Attachment, len(attachments))
	copy(sorted, attachments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	for _, att := range sorted {
		switch att.FileType {
		case model.FileTypeAgreement:
			v.AgreementFiles = append(v.AgreementFiles, att)
		case model.FileTypeFloorplan:
			v.FloorplansFiles = append(v.FloorplansFiles, att)
		case model.FileTypeImage:
			v.ImagesFiles = append(v.ImagesFiles, att)
		case model.FileTypeProgressImage:
			v.ProgressImagesFiles = append(v.ProgressImagesFiles, att)
		}
	}
}
