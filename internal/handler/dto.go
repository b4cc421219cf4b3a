package handler

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// money renders a decimal as a JSON number with two decimals.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// percent renders a decimal as a JSON number without trailing zeros.
func percent(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
