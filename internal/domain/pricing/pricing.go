// Package pricing computes order totals.
//
// Money is handled as decimal.Decimal throughout. A total is rounded to two
// decimal places (half away from zero) once, after the discount has been
// applied, so intermediate values never lose precision.
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

const (
	// DefaultQuantity is used for line items that omit a quantity.
	DefaultQuantity = 1
	// MaxQuantity is the largest quantity accepted for one line item.
	MaxQuantity = 1000
)

// Line is a priced line item.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Quote is the result of pricing a set of lines.
type Quote struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Subtotal returns the sum of price * quantity across all lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := zero
	for _, l := range lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Total prices lines and applies an optional percentage discount. A nil
// percent means no coupon. The result is never negative.
func Total(lines []Line, percent *decimal.Decimal) Quote {
	subtotal := Subtotal(lines)

	discount := zero
	if percent != nil {
		discount = subtotal.Mul(*percent).Div(hundred)
	}

	total := floorAtZero(subtotal.Sub(discount)).Round(2)
	return Quote{
		Subtotal: subtotal.Round(2),
		Discount: subtotal.Round(2).Sub(total),
		Total:    total,
	}
}

// MinorUnits converts an amount to the smallest currency unit (cents),
// rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}
