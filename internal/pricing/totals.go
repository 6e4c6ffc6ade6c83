// Package pricing derives room line totals and reservation aggregate totals.
// Both functions are pure and are the single source of truth for rounding:
// write path and tests go through the same code so persisted totals are
// always reproducible from the stored room rows.
package pricing

import "github.com/shopspring/decimal"

// LineTotal returns round(dailyRate * nights, 2).  Rounding is half-up
// (decimal.Round rounds half away from zero, which is identical for the
// non-negative amounts handled here).
func LineTotal(dailyRate decimal.Decimal, nights int) decimal.Decimal {
    return dailyRate.Mul(decimal.NewFromInt(int64(nights))).Round(2)
}

// AggregateTotal returns the sum of the given line totals rounded to 2
// decimals.  An empty or nil slice yields zero, matching the contract that
// a reservation without rooms has an aggregate total of 0.
func AggregateTotal(lineTotals []decimal.Decimal) decimal.Decimal {
    sum := decimal.Zero
    for _, t := range lineTotals {
        sum = sum.Add(t)
    }
    return sum.Round(2)
}
