package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-portfolio-crm/apartments"
	"github.com/goliatone/go-portfolio-crm/dashboard"
	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/goliatone/go-portfolio-crm/mutation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApartmentReader lists and loads apartments.
type ApartmentReader interface {
	List(ctx context.Context, filter apartments.Filter, page apartments.Page, sort apartments.Sort) (*apartments.ListResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*apartments.View, error)
}

// DashboardReader serves the cached aggregates.
type DashboardReader interface {
	Summary(ctx context.Context) (*dashboard.Summary, error)
	Financial(ctx context.Context) (*dashboard.Financial, error)
	Timeline(ctx context.Context) ([]dashboard.TimelineEntry, error)
}

// DirectoryReader serves the cached district and building listings.
type DirectoryReader interface {
	Districts(ctx context.Context) ([]*model.District, error)
	Buildings(ctx context.Context, districtID *uuid.UUID) ([]*model.Building, error)
}

// Writer applies portfolio writes.
type Writer interface {
	CreateDistrict(ctx context.Context, in mutation.DistrictInput) (*model.District, error)
	UpdateDistrict(ctx context.Context, id uuid.UUID, in mutation.DistrictInput) (*model.District, error)
	DeleteDistrict(ctx context.Context, id uuid.UUID) error
	CreateBuilding(ctx context.Context, in mutation.BuildingInput) (*model.Building, error)
	UpdateBuilding(ctx context.Context, id uuid.UUID, in mutation.BuildingInput) (*model.Building, error)
	DeleteBuilding(ctx context.Context, id uuid.UUID) error
	CreateApartment(ctx context.Context, in mutation.ApartmentInput) (*model.Apartment, error)
	UpdateApartment(ctx context.Context, id uuid.UUID, patch mutation.ApartmentPatch) (*model.Apartment, error)
	UpdateApartmentStatus(ctx context.Context, id uuid.UUID, status string) (*model.Apartment, error)
	DeleteApartment(ctx context.Context, id uuid.UUID) error
	AddAttachment(ctx context.Context, apartmentID uuid.UUID, up mutation.AttachmentUpload) (*model.Attachment, error)
	RemoveAttachment(ctx context.Context, apartmentID, attachmentID uuid.UUID) error
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

func (h *handlers) register(g *gin.RouterGroup) {
	g.GET("/apartments", h.listApartments)
	g.GET("/apartments/:id", h.getApartment)
	g.POST("/apartments", h.createApartment)
	g.PUT("/apartments/:id", h.updateApartment)
	g.DELETE("/apartments/:id", h.deleteApartment)
	g.POST("/apartments/:id/attachments", h.addAttachment)
	g.DELETE("/apartments/:id/attachments/:attachmentId", h.removeAttachment)

	g.GET("/districts", h.listDistricts)
	g.POST("/districts", h.createDistrict)
	g.PUT("/districts/:id", h.updateDistrict)
	g.DELETE("/districts/:id", h.deleteDistrict)

	g.GET("/buildings", h.listBuildings)
	g.POST("/buildings", h.createBuilding)
	g.PUT("/buildings/:id", h.updateBuilding)
	g.DELETE("/buildings/:id", h.deleteBuilding)

	g.GET("/dashboard/summary", h.summary)
	g.GET("/dashboard/financial", h.financial)
	g.GET("/dashboard/timeline", h.timeline)
}

// pathID parses a uuid route parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter. Missing means zero.
func queryInt(c *gin.Context, name string, errs validation.Errors) int {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		errs[name] = errors.New("must be an integer")
	}
	return n
}

// Apartments

func (h *handlers) listApartments(c *gin.Context) {
	errs := validation.Errors{}
	page := apartments.Page{
		Page:  queryInt(c, "page", errs),
		Limit: queryInt(c, "limit", errs),
	}
	if len(errs) > 0 {
		h.respondError(c, model.Invalid(errs))
		return
	}

	result, err := h.deps.Apartments.List(c.Request.Context(),
		apartments.Filter{BuildingID: c.Query("building_id"), Status: c.Query("status")},
		page,
		apartments.Sort{By: c.Query("sort_by"), Order: c.Query("sort_order")},
	)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) getApartment(c *gin.Context) {
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
	c.JSON(http.StatusOK, view)
}

// respondApartment answers with the reader's view of a freshly written
// apartment so derived fields are present.
func (h *handlers) respondApartment(c *gin.Context, status int, id uuid.UUID) {
	view, err := h.deps.Apartments.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if view == nil {
		h.respondError(c, &model.NotFoundError{Entity: "apartment", ID: id.String()})
		return
	}
	c.JSON(status, view)
}

func (h *handlers) createApartment(c *gin.Context) {
	var in mutation.ApartmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	a, err := h.deps.Writer.CreateApartment(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondApartment(c, http.StatusCreated, a.ID)
}

func (h *handlers) updateApartment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch mutation.ApartmentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if _, err := h.deps.Writer.UpdateApartment(c.Request.Context(), id, patch); err != nil {
		h.respondError(c, err)
		return
	}
	h.respondApartment(c, http.StatusOK, id)
}

func (h *handlers) deleteApartment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.deps.Writer.DeleteApartment(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) addAttachment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "missing file")
		return
	}
	if header.Size > mutation.MaxAttachmentSize {
		h.respondError(c, model.Invalid(validation.Errors{"file": errors.New("file is too large")}))
		return
	}
	file, err := header.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer file.Close()

	att, err := h.deps.Writer.AddAttachment(c.Request.Context(), id, mutation.AttachmentUpload{
		FileType:    c.PostForm("file_type"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, att)
}

func (h *handlers) removeAttachment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := pathID(c, "attachmentId")
	if !ok {
		return
	}
	if err := h.deps.Writer.RemoveAttachment(c.Request.Context(), id, attachmentID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Districts

func (h *handlers) listDistricts(c *gin.Context) {
	districts, err := h.deps.Directory.Districts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, districts)
}

func (h *handlers) createDistrict(c *gin.Context) {
	var in mutation.DistrictInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	d, err := h.deps.Writer.CreateDistrict(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *handlers) updateDistrict(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in mutation.DistrictInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	d, err := h.deps.Writer.UpdateDistrict(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handlers) deleteDistrict(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.deps.Writer.DeleteDistrict(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Buildings

func (h *handlers) listBuildings(c *gin.Context) {
	var districtID *uuid.UUID
	if raw := c.Query("district_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.respondError(c, model.Invalid(validation.Errors{"district_id": errors.New("must be a valid UUID")}))
			return
		}
		districtID = &id
	}
	buildings, err := h.deps.Directory.Buildings(c.Request.Context(), districtID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildings)
}

func (h *handlers) createBuilding(c *gin.Context) {
	var in mutation.BuildingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	b, err := h.deps.Writer.CreateBuilding(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *handlers) updateBuilding(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in mutation.BuildingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	b, err := h.deps.Writer.UpdateBuilding(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *handlers) deleteBuilding(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.deps.Writer.DeleteBuilding(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Dashboard

func (h *handlers) summary(c *gin.Context) {
	summary, err := h.deps.Dashboard.Summary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handlers) financial(c *gin.Context) {
	financial, err := h.deps.Dashboard.Financial(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, financial)
}

func (h *handlers) timeline(c *gin.Context) {
	timeline, err := h.deps.Dashboard.Timeline(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, timeline)
}
