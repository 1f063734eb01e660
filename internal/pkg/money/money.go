// Package money holds the decimal helpers shared by the ledger and its reports.
// Amounts never pass through binary floating point; floats appear only as
// rounded percentages for display.
package money

import (
	"strings"

	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits stored for an amount.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// MaxAmount matches NUMERIC(18,2).
var MaxAmount = decimal.RequireFromString("9999999999999999.99")

// ParseAmount accepts "123.45" or "123,45" and rejects non-positive values
// and values with more than two fractional digits.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, apperr.Validation("amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperr.Validation("invalid amount %q", s)
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return apperr.Validation("amount must be greater than zero")
	}
	if !d.Equal(d.Truncate(Scale)) {
		return apperr.Validation("amount must have at most %d decimal places", Scale)
	}
	if d.GreaterThan(MaxAmount) {
		return apperr.Validation("amount is too large")
	}
	return nil
}

// Percent returns part/whole*100, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// Round converts a percentage for display.
func Round(d decimal.Decimal, places int32) float64 {
	return d.Round(places).InexactFloat64()
}

// Sum adds amounts exactly; an empty input sums to zero.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
