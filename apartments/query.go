package apartments

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/google/uuid"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// SortField names a key the list can be ordered by.
type SortField string

const (
	SortApartmentNo SortField = "apartmentNo"
	SortStatus      SortField = "status"
	SortSqm         SortField = "sqm"
	SortTotalPrice  SortField = "total_price"
	SortTotalPaid   SortField = "total_paid"
	SortBalance     SortField = "balance"
	SortBuilding    SortField = "building"
)

// storageColumns maps the keys backed by a stored column. Keys missing here
// are derived and sorted in memory.
var storageColumns = map[SortField]model.OrderColumn{
	SortApartmentNo: model.OrderApartmentNo,
	SortStatus:      model.OrderStatus,
	SortSqm:         model.OrderSqm,
	SortTotalPrice:  model.OrderTotalPrice,
	SortTotalPaid:   model.OrderTotalPaid,
}

// Filter narrows the list. Values arrive as raw text and are validated
// before any query runs.
type Filter struct {
	BuildingID string
	Status     string
}

// Page selects a window of the filtered set. Page 0 means the first page and
// Limit 0 means DefaultLimit; limits above MaxLimit are clamped.
type Page struct {
	Page  int
	Limit int
}

// Sort orders the list. Empty values mean apartmentNo ascending.
type Sort struct {
	By    string
	Order string
}

// Pagination is the metadata returned with every page.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ListResult is one page of apartments.
type ListResult struct {
	Items      []*View    `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// query is the validated form of a list request.
type query struct {
	filter     model.ApartmentFilter
	page       int
	limit      int
	sortBy     SortField
	descending bool
}

func (q query) offset() int {
	return (q.page - 1) * q.limit
}

func stringValues[T ~string](values ...T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

var sortFields = []SortField{
	SortApartmentNo, SortStatus, SortSqm, SortTotalPrice, SortTotalPaid, SortBalance, SortBuilding,
}

func parseQuery(f Filter, p Page, s Sort) (query, error) {
	buildingID := strings.TrimSpace(f.BuildingID)
	status := strings.ToUpper(strings.TrimSpace(f.Status))
	sortBy := strings.TrimSpace(s.By)
	order := strings.ToLower(strings.TrimSpace(s.Order))

	err := validation.Errors{
		"building_id": validation.Validate(buildingID, is.UUID),
		"status":      validation.Validate(status, validation.In(stringValues(model.Statuses...)...)),
		"page":        validation.Validate(p.Page, validation.Min(0)),
		"limit":       validation.Validate(p.Limit, validation.Min(0)),
		"sort_by":     validation.Validate(sortBy, validation.In(stringValues(sortFields...)...)),
		"sort_order":  validation.Validate(order, validation.In("asc", "desc")),
	}.Filter()
	if err != nil {
		return query{}, model.Invalid(err)
	}

	q := query{
		page:       p.Page,
		limit:      p.Limit,
		sortBy:     SortField(sortBy),
		descending: order == "desc",
	}

	if buildingID != "" {
		id, err := uuid.Parse(buildingID)
		if err != nil {
			return query{}, model.Invalid(validation.Errors{"building_id": err})
		}
		q.filter.BuildingID = &id
	}
	if status != "" {
		q.filter.Statuses = []model.Status{model.Status(status)}
	}
	if q.page == 0 {
		q.page = 1
	}
	if q.limit == 0 {
		q.limit = DefaultLimit
	}
	if q.limit > MaxLimit {
		q.limit = MaxLimit
	}
	if q.sortBy == "" {
		q.sortBy = SortApartmentNo
	}
	return q, nil
}

func totalPages(total, limit int) int {
	if total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
