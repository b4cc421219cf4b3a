package validate

import "github.com/shopspring/decimal"

// MaxAmount is the exclusive upper bound for any stored money amount. Prices,
// discounts and totals are NUMERIC(10,2) columns.
var MaxAmount = decimal.New(1, 8)

// Amount checks that d is a storable money amount: not negative, below
// MaxAmount and with at most two decimal places.
func Amount(es *Errors, field string, d decimal.Decimal) {
	switch {
	case d.IsNegative():
		es.Add(field, "must not be negative")
	case d.GreaterThanOrEqual(MaxAmount):
		es.Add(field, "must be less than "+MaxAmount.String())
	case !d.Equal(d.Truncate(2)):
		es.Add(field, "must have at most 2 decimal places")
	}
}
