// Package model holds the persistent portfolio entities and the query shapes
// the storage layer understands.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// District is the top level of the portfolio hierarchy.
type District struct {
	bun.BaseModel `bun:"table:districts,alias:d"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Slug      string    `bun:"slug,notnull,unique" json:"slug"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`

	// BuildingCount is filled by directory listings only.
	BuildingCount int `bun:"building_count,scanonly" json:"building_count"`
}

// Building belongs to a district and owns apartments.
type Building struct {
	bun.BaseModel `bun:"table:buildings,alias:b"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	DistrictID uuid.UUID `bun:"district_id,notnull,type:uuid,unique:district_slug" json:"district_id"`
	Name       string    `bun:"name,notnull" json:"name"`
	Slug       string    `bun:"slug,notnull,unique:district_slug" json:"slug"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull" json:"updated_at"`

	District *District `bun:"rel:belongs-to,join:district_id=id" json:"district,omitempty"`

	// ApartmentCount is filled by directory listings only.
	ApartmentCount int `bun:"apartment_count,scanonly" json:"apartment_count"`
}

// Apartment is the unit of sale. TotalPrice is an optional stored override;
// consumers never read it directly but go through finance.Compute.
type Apartment struct {
	bun.BaseModel `bun:"table:apartments,alias:a"`

	ID                    uuid.UUID           `bun:"id,pk,type:uuid"`
	BuildingID            uuid.UUID           `bun:"building_id,notnull,type:uuid,unique:building_apartment_no"`
	ApartmentNo           string              `bun:"apartment_no,notnull,unique:building_apartment_no"`
	ApartmentType         *int                `bun:"apartment_type"`
	Status                Status              `bun:"status,notnull"`
	Sqm                   decimal.NullDecimal `bun:"sqm,type:decimal(18,4)"`
	PricePerSqm           decimal.NullDecimal `bun:"price_sqm,type:decimal(18,4)"`
	TotalPrice            decimal.NullDecimal `bun:"total_price,type:decimal(18,4)"`
	TotalPaid             decimal.NullDecimal `bun:"total_paid,type:decimal(18,4)"`
	DealDate              *time.Time          `bun:"deal_date"`
	OwnershipName         *string             `bun:"ownership_name"`
	Email                 *string             `bun:"email"`
	PassportTaxNo         *string             `bun:"passport_tax_no"`
	Phone                 *string             `bun:"phone"`
	SalesType             SalesType           `bun:"sales_type,notnull"`
	DealDescription       *string             `bun:"deal_description"`
	MatterLink            *string             `bun:"matter_link"`
	FloorplanDistribution *string             `bun:"floorplan_distribution"`
	ExteriorLink          *string             `bun:"exterior_link"`
	ExteriorLink2         *string             `bun:"exterior_link2"`
	CreatedAt             time.Time           `bun:"created_at,notnull"`
	UpdatedAt             time.Time           `bun:"updated_at,notnull"`

	Building    *Building     `bun:"rel:belongs-to,join:building_id=id"`
	Attachments []*Attachment `bun:"rel:has-many,join:id=apartment_id"`
}

// Attachment is a file stored in the blob store and owned by one apartment.
type Attachment struct {
	bun.BaseModel `bun:"table:apartment_attachments,alias:att"`

	ID          uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	ApartmentID uuid.UUID `bun:"apartment_id,notnull,type:uuid" json:"apartment_id"`
	FileType    FileType  `bun:"file_type,notnull" json:"file_type"`
	FileURL     string    `bun:"file_url,notnull" json:"file_url"`
	FileName    string    `bun:"file_name" json:"file_name"`
	FileSize    int64     `bun:"file_size" json:"file_size"`
	MD5Hash     *string   `bun:"md5_hash" json:"md5_hash,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}

// BuildingLabel is the composite "district - building" name used for sorting.
func (a *Apartment) BuildingLabel() string {
	if a.Building == nil {
		return ""
	}
	if a.Building.District == nil {
		return a.Building.Name
	}
	return a.Building.District.Name + " - " + a.Building.Name
}

// DistrictID resolves the owning district through the loaded building.
func (a *Apartment) DistrictID() (uuid.UUID, bool) {
	if a.Building == nil {
		return uuid.Nil, false
	}
	return a.Building.DistrictID, true
}
