package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goliatone/go-portfolio-crm/apartments"
	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// bearerAuth rejects requests whose Authorization header does not carry
// token.
func bearerAuth(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
			return
		}
		c.Next()
	}
}

func (h *handlers) registerExternal(g *gin.RouterGroup) {
	g.GET("/apartments/:id", h.externalApartment)
	g.PUT("/apartments/:id/status", h.externalStatus)
}

type externalAttachment struct {
	ID        uuid.UUID `json:"id"`
	FileType  string    `json:"file_type"`
	FileURL   string    `json:"file_url"`
	FileName  string    `json:"file_name"`
	FileSize  int64     `json:"file_size"`
	MD5Hash   *string   `json:"md5_hash"`
	CreatedAt time.Time `json:"created_at"`
}

// externalApartment is the flat representation partners consume. Enums are
// lower case and the deal date is a calendar date.
type externalApartment struct {
	ID                    uuid.UUID            `json:"id"`
	ApartmentNo           string               `json:"apartment_no"`
	ApartmentType         *int                 `json:"apartment_type"`
	Status                string               `json:"status"`
	Sqm                   decimal.NullDecimal  `json:"sqm"`
	PricePerSqm           decimal.NullDecimal  `json:"price_sqm"`
	TotalPrice            decimal.NullDecimal  `json:"total_price"`
	TotalPaid             decimal.NullDecimal  `json:"total_paid"`
	Balance               decimal.NullDecimal  `json:"balance"`
	DealDate              *string              `json:"deal_date"`
	OwnershipName         *string              `json:"ownership_name"`
	Email                 *string              `json:"email"`
	PassportTaxNo         *string              `json:"passport_tax_no"`
	Phone                 *string              `json:"phone"`
	SalesType             string               `json:"sales_type"`
	DealDescription       *string              `json:"deal_description"`
	MatterLink            *string              `json:"matter_link"`
	FloorplanDistribution *string              `json:"floorplan_distribution"`
	ExteriorLink          *string              `json:"exterior_link"`
	ExteriorLink2         *string              `json:"exterior_link2"`
	BuildingID            *uuid.UUID           `json:"building_id"`
	BuildingSlug          string               `json:"building_slug"`
	BuildingName          string               `json:"building_name"`
	DistrictID            *uuid.UUID           `json:"district_id"`
	DistrictSlug          string               `json:"district_slug"`
	DistrictName          string               `json:"district_name"`
	Attachments           []externalAttachment `json:"attachments"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

func toExternal(v *apartments.View) externalApartment {
	out := externalApartment{
		ID:                    v.ID,
		ApartmentNo:           v.ApartmentNo,
		ApartmentType:         v.ApartmentType,
		Status:                strings.ToLower(string(v.Status)),
		Sqm:                   v.Sqm,
		PricePerSqm:           v.PricePerSqm,
		TotalPrice:            v.TotalPrice,
		TotalPaid:             v.TotalPaid,
		Balance:               v.Balance,
		OwnershipName:         v.OwnershipName,
		Email:                 v.Email,
		PassportTaxNo:         v.PassportTaxNo,
		Phone:                 v.Phone,
		SalesType:             strings.ToLower(string(v.SalesType)),
		DealDescription:       v.DealDescription,
		MatterLink:            v.MatterLink,
		FloorplanDistribution: v.FloorplanDistribution,
		ExteriorLink:          v.ExteriorLink,
		ExteriorLink2:         v.ExteriorLink2,
		Attachments:           []externalAttachment{},
		CreatedAt:             v.CreatedAt.UTC(),
		UpdatedAt:             v.UpdatedAt.UTC(),
	}
	if out.SalesType == "" {
		out.SalesType = strings.ToLower(string(model.SalesTypeUnsold))
	}
	if v.DealDate != nil {
		date := v.DealDate.UTC().Format(time.DateOnly)
		out.DealDate = &date
	}
	if b := v.Building; b != nil {
		out.BuildingID = &b.ID
		out.BuildingSlug = b.Slug
		out.BuildingName = b.Name
		if d := b.District; d != nil {
			out.DistrictID = &d.ID
			out.DistrictSlug = d.Slug
			out.DistrictName = d.Name
		}
	}
	for _, group := range [][]*model.Attachment{v.AgreementFiles, v.FloorplansFiles, v.ImagesFiles, v.ProgressImagesFiles} {
		for _, att := range group {
			out.Attachments = append(out.Attachments, externalAttachment{
				ID:        att.ID,
				FileType:  string(att.FileType),
				FileURL:   att.FileURL,
				FileName:  att.FileName,
				FileSize:  att.FileSize,
				MD5Hash:   att.MD5Hash,
				CreatedAt: att.CreatedAt.UTC(),
			})
		}
	}
	return out
}

func (h *handlers) externalApartment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.deps.Apartments.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if view == nil {
		h.respondError(c, &model.NotFoundError{Entity: "apartment", ID: id.String()})
		return
	}
	c.JSON(http.StatusOK, toExternal(view))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *handlers) externalStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if _, err := model.ParseStatus(req.Status); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{
			Error:   "invalid status value",
			Details: "status must be one of: upcoming, available, reserved, sold",
		})
		return
	}

	a, err := h.deps.Writer.UpdateApartmentStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         a.ID,
		"status":     strings.ToLower(string(a.Status)),
		"updated_at": a.UpdatedAt.UTC(),
	})
}
