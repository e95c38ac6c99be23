// Package dashboard computes the portfolio rollups shown on the dashboard.
// Every figure goes through finance.Compute, the same rule the apartment
// list and detail views use, so the totals reconcile with per-record values.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/goliatone/go-portfolio-crm/cache"
	"github.com/goliatone/go-portfolio-crm/finance"
	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	SummaryTTL   = 30 * time.Second
	FinancialTTL = 30 * time.Second
	TimelineTTL  = 60 * time.Second
)

// Source is the storage collaborator of the dashboard.
type Source interface {
	// StatusTotals returns one row per status present, with the apartment
	// count and the sum of recorded areas.
	StatusTotals(ctx context.Context) ([]model.StatusTotal, error)
	// FinancialRows returns the pricing projection of apartments in the
	// given statuses.
	FinancialRows(ctx context.Context, statuses ...model.Status) ([]model.FinancialRow, error)
}

// Bucket is a count and summed area.
type Bucket struct {
	Count int             `json:"count"`
	Sqm   decimal.Decimal `json:"sqm"`
}

// Summary counts apartments and sums their area per status. An apartment
// without an area is counted but adds nothing to Sqm.
type Summary struct {
	Total     Bucket `json:"total"`
	Upcoming  Bucket `json:"upcoming"`
	Available Bucket `json:"available"`
	Reserved  Bucket `json:"reserved"`
	Sold      Bucket `json:"sold"`
}

// SoldTotals sums derived prices and payments of sold apartments.
type SoldTotals struct {
	Amount  decimal.Decimal `json:"amount"`
	Paid    decimal.Decimal `json:"paid"`
	Balance decimal.Decimal `json:"balance"`
}

// NotSoldTotals sums derived prices per unsold status.
type NotSoldTotals struct {
	Upcoming  decimal.Decimal `json:"upcoming"`
	Available decimal.Decimal `json:"available"`
	Reserved  decimal.Decimal `json:"reserved"`
}

// Financial is the money rollup of the whole portfolio.
type Financial struct {
	Sold    SoldTotals    `json:"sold"`
	NotSold NotSoldTotals `json:"notSold"`
}

// TimelineEntry is one calendar month of sales. Sales without a deal date
// are placed in the month the apartment was last modified.
type TimelineEntry struct {
	Month  string          `json:"month"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Service serves the cached dashboard reads.
type Service struct {
	source Source
	cache  *cache.ShortLived
	logger *zap.Logger
}

// NewService creates a dashboard over source, caching through shared.
func NewService(source Source, shared *cache.ShortLived, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, cache: shared, logger: logger.Named("dashboard")}
}

// Summary returns apartment counts and areas per status.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	return cache.GetOrCompute(ctx, s.cache, cache.DashboardSummary, SummaryTTL, s.computeSummary)
}

// Financial returns the sold and unsold money totals.
func (s *Service) Financial(ctx context.Context) (*Financial, error) {
	return cache.GetOrCompute(ctx, s.cache, cache.DashboardFinancial, FinancialTTL, s.computeFinancial)
}

// Timeline returns monthly sales, oldest month first.
func (s *Service) Timeline(ctx context.Context) ([]TimelineEntry, error) {
	return cache.GetOrCompute(ctx, s.cache, cache.DashboardTimeline, TimelineTTL, s.computeTimeline)
}

func (s *Service) computeSummary(ctx context.Context) (*Summary, error) {
	rows, err := s.source.StatusTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("status totals: %w", err)
	}

	out := &Summary{}
	for _, row := range rows {
		var bucket *Bucket
		switch row.Status {
		case model.StatusUpcoming:
			bucket = &out.Upcoming
		case model.StatusAvailable:
			bucket = &out.Available
		case model.StatusReserved:
			bucket = &out.Reserved
		case model.StatusSold:
			bucket = &out.Sold
		default:
			s.logger.Warn("unknown apartment status in totals", zap.String("status", string(row.Status)))
			continue
		}
		sqm := finance.OrZero(row.Sqm)
		bucket.Count += row.Count
		bucket.Sqm = bucket.Sqm.Add(sqm)
		out.Total.Count += row.Count
		out.Total.Sqm = out.Total.Sqm.Add(sqm)
	}
	return out, nil
}

func (s *Service) computeFinancial(ctx context.Context) (*Financial, error) {
	rows, err := s.source.FinancialRows(ctx, model.Statuses...)
	if err != nil {
		return nil, fmt.Errorf("financial rows: %w", err)
	}

	out := &Financial{}
	for _, row := range rows {
		total := finance.OrZero(priceOf(row).TotalPrice)
		switch row.Status {
		case model.StatusSold:
			out.Sold.Amount = out.Sold.Amount.Add(total)
			out.Sold.Paid = out.Sold.Paid.Add(finance.OrZero(row.TotalPaid))
		case model.StatusUpcoming:
			out.NotSold.Upcoming = out.NotSold.Upcoming.Add(total)
		case model.StatusAvailable:
			out.NotSold.Available = out.NotSold.Available.Add(total)
		case model.StatusReserved:
			out.NotSold.Reserved = out.NotSold.Reserved.Add(total)
		}
	}
	out.Sold.Balance = out.Sold.Amount.Sub(out.Sold.Paid)
	return out, nil
}

func (s *Service) computeTimeline(ctx context.Context) ([]TimelineEntry, error) {
	rows, err := s.source.FinancialRows(ctx, model.StatusSold)
	if err != nil {
		return nil, fmt.Errorf("sold rows: %w", err)
	}

	months := map[string]*TimelineEntry{}
	fallbacks := 0
	for _, row := range rows {
		anchor, dated := saleAnchor(row)
		if !dated {
			fallbacks++
		}
		month := anchor.Format("2006-01")
		entry, ok := months[month]
		if !ok {
			entry = &TimelineEntry{Month: month}
			months[month] = entry
		}
		entry.Count++
		entry.Amount = entry.Amount.Add(finance.OrZero(priceOf(row).TotalPrice))
	}

	if fallbacks > 0 {
		s.logger.Debug("timeline used last modified time for undated sales", zap.Int("count", fallbacks))
	}

	out := make([]TimelineEntry, 0, len(months))
	for _, entry := range months {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

// saleAnchor is the instant a sale is attributed to: the deal date when
// recorded, otherwise the last modification time. The second result is
// false when the fallback was used.
func saleAnchor(row model.FinancialRow) (time.Time, bool) {
	if row.DealDate != nil {
		return row.DealDate.UTC(), true
	}
	return row.UpdatedAt.UTC(), false
}

func priceOf(row model.FinancialRow) finance.Financials {
	return finance.Compute(row.Sqm, row.PricePerSqm, row.TotalPrice, row.TotalPaid)
}
