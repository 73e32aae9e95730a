// Package money holds the decimal helpers shared by pricing, coupons and
// commission. Amounts are kept at two decimal places.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places every stored amount carries.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Round rounds half away from zero to Scale places.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Scale)
}

// Percent returns round(amount * rate / 100).
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(rate).Div(hundred))
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Sum adds the provided amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}

// Format renders an amount with exactly Scale decimals.
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(Scale)
}

// Parse reads a decimal amount and rejects more than Scale fractional digits.
func Parse(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if value.Exponent() < -Scale && !value.Equal(Round(value)) {
		return decimal.Zero, fmt.Errorf("amount %q has more than %d decimal places", raw, Scale)
	}
	return value, nil
}
