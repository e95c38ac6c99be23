package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderColumn names an apartment column the storage layer can sort by.
type OrderColumn string

const (
	OrderApartmentNo OrderColumn = "apartment_no"
	OrderStatus      OrderColumn = "status"
	OrderSqm         OrderColumn = "sqm"
	OrderTotalPrice  OrderColumn = "total_price"
	OrderTotalPaid   OrderColumn = "total_paid"
)

// IsValid reports whether the column is one storage knows how to order by.
func (c OrderColumn) IsValid() bool {
	switch c {
	case OrderApartmentNo, OrderStatus, OrderSqm, OrderTotalPrice, OrderTotalPaid:
		return true
	}
	return false
}

// ApartmentFilter restricts apartment queries. Zero value matches everything.
type ApartmentFilter struct {
	BuildingID *uuid.UUID
	Statuses   []Status
}

// ApartmentQuery is a storage level apartment read. Rows are ordered by
// Order (apartment_no when empty) and then by apartment_no and id so the
// order is deterministic. Limit zero means no limit.
type ApartmentQuery struct {
	Filter     ApartmentFilter
	Order      OrderColumn
	Descending bool
	Limit      int
	Offset     int
}

// StatusTotal is one row of the per-status count and area aggregate.
// Sqm is the sum of non-null areas and is invalid when no area was recorded.
type StatusTotal struct {
	Status Status              `bun:"status"`
	Count  int                 `bun:"count"`
	Sqm    decimal.NullDecimal `bun:"sqm"`
}

// FinancialRow is the projection the dashboard needs to derive prices.
type FinancialRow struct {
	ID          uuid.UUID           `bun:"id"`
	Status      Status              `bun:"status"`
	Sqm         decimal.NullDecimal `bun:"sqm"`
	PricePerSqm decimal.NullDecimal `bun:"price_sqm"`
	TotalPrice  decimal.NullDecimal `bun:"total_price"`
	TotalPaid   decimal.NullDecimal `bun:"total_paid"`
	DealDate    *time.Time          `bun:"deal_date"`
	UpdatedAt   time.Time           `bun:"updated_at"`
}
