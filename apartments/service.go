// Package apartments serves filtered, paginated and sorted apartment reads
// with derived financial fields attached to every record.
package apartments

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-portfolio-crm/finance"
	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the storage collaborator of the query service.
type Store interface {
	// ListApartments returns the rows selected by q with building, district
	// and attachments loaded, plus the count of all rows matching q.Filter.
	ListApartments(ctx context.Context, q model.ApartmentQuery) ([]*model.Apartment, int, error)
	// GetApartment returns nil, nil when the apartment does not exist.
	GetApartment(ctx context.Context, id uuid.UUID) (*model.Apartment, error)
}

// Service implements apartment listing and single record reads.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a query service over store.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger.Named("apartments")}
}

// List returns one page of apartments matching the filter.
//
// Keys backed by a stored column are ordered and paged by storage. Derived
// keys (balance, building) load the whole filtered set in apartment number
// order, compute derived values, stable sort and then slice the page, so
// page boundaries are consistent with the global order.
func (s *Service) List(ctx context.Context, filter Filter, page Page, sort Sort) (*ListResult, error) {
	q, err := parseQuery(filter, page, sort)
	if err != nil {
		return nil, err
	}

	var (
		items []*View
		total int
	)
	if column, ok := storageColumns[q.sortBy]; ok {
		items, total, err = s.listStored(ctx, q, column)
	} else {
		items, total, err = s.listDerived(ctx, q)
	}
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Items: items,
		Pagination: Pagination{
			Page:       q.page,
			Limit:      q.limit,
			Total:      total,
			TotalPages: totalPages(total, q.limit),
		},
	}, nil
}

func (s *Service) listStored(ctx context.Context, q query, column model.OrderColumn) ([]*View, int, error) {
	rows, total, err := s.store.ListApartments(ctx, model.ApartmentQuery{
		Filter:     q.filter,
		Order:      column,
		Descending: q.descending,
		Limit:      q.limit,
		Offset:     q.offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list apartments: %w", err)
	}
	return views(rows), total, nil
}

func (s *Service) listDerived(ctx context.Context, q query) ([]*View, int, error) {
	rows, total, err := s.store.ListApartments(ctx, model.ApartmentQuery{
		Filter: q.filter,
		Order:  model.OrderApartmentNo,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list apartments: %w", err)
	}

	all := views(rows)
	compare := derivedComparator(q.sortBy)
	slices.SortStableFunc(all, func(a, b *View) int {
		if q.descending {
			return compare(b, a)
		}
		return compare(a, b)
	})

	s.logger.Debug("sorted apartments in memory",
		zap.String("sort_by", string(q.sortBy)),
		zap.Int("rows", len(all)),
	)

	start := min(q.offset(), len(all))
	end := min(start+q.limit, len(all))
	return all[start:end], total, nil
}

func derivedComparator(field SortField) func(a, b *View) int {
	switch field {
	case SortBuilding:
		return func(a, b *View) int {
			return strings.Compare(strings.ToLower(a.BuildingLabel()), strings.ToLower(b.BuildingLabel()))
		}
	default:
		// Missing balances order as zero.
		return func(a, b *View) int {
			return finance.OrZero(a.Balance).Cmp(finance.OrZero(b.Balance))
		}
	}
}

// GetByID returns the apartment with derived fields, or nil when it does
// not exist.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*View, error) {
	apt, err := s.store.GetApartment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get apartment %s: %w", id, err)
	}
	if apt == nil {
		return nil, nil
	}
	return NewView(apt), nil
}

func views(rows []*model.Apartment) []*View {
	out := make([]*View, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewView(row))
	}
	return out
}
