// Package finance derives the presented price fields of an apartment from
// its stored quantities.
//
// Every read path (single apartment, paginated listing, dashboard rollups)
// resolves prices through Compute, so a given apartment shows the same
// total price and balance wherever it appears.
package finance

import "github.com/shopspring/decimal"

// Financials are the derived fields of one apartment.
type Financials struct {
	TotalPrice decimal.NullDecimal
	Balance    decimal.NullDecimal
}

// Compute resolves the total price and balance.
//
// The total price is the stored total when present, otherwise sqm times
// price per sqm when both are present, otherwise null. The balance is null
// without a total price, the full total when nothing was paid yet, and the
// difference otherwise. Values are exact; callers round for display.
func Compute(sqm, pricePerSqm, storedTotal, totalPaid decimal.NullDecimal) Financials {
	total := TotalPrice(sqm, pricePerSqm, storedTotal)
	return Financials{
		TotalPrice: total,
		Balance:    Balance(total, totalPaid),
	}
}

// TotalPrice applies the stored-value-wins resolution rule.
func TotalPrice(sqm, pricePerSqm, storedTotal decimal.NullDecimal) decimal.NullDecimal {
	if storedTotal.Valid {
		return storedTotal
	}
	if sqm.Valid && pricePerSqm.Valid {
		return decimal.NewNullDecimal(sqm.Decimal.Mul(pricePerSqm.Decimal))
	}
	return decimal.NullDecimal{}
}

// Balance treats an unknown payment as nothing paid.
func Balance(total, totalPaid decimal.NullDecimal) decimal.NullDecimal {
	if !total.Valid {
		return decimal.NullDecimal{}
	}
	if !totalPaid.Valid {
		return total
	}
	return decimal.NewNullDecimal(total.Decimal.Sub(totalPaid.Decimal))
}

// OrZero unwraps a nullable amount for summing.
func OrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
