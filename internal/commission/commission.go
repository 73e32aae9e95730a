// Package commission splits a line total between the platform and the vendor.
package commission

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketplace-engine/pkg/money"
)

// Split is the result of applying a commission rate to one line.
// Commission plus VendorPayout always equals the line total.
type Split struct {
	Rate         decimal.Decimal
	Commission   decimal.Decimal
	VendorPayout decimal.Decimal
}

// Calculate applies rate (a percentage) to lineTotal. The commission is
// rounded half away from zero to cents and the vendor keeps the remainder.
func Calculate(lineTotal, rate decimal.Decimal) Split {
	commission := money.Percent(lineTotal, rate)
	return Split{
		Rate:         rate,
		Commission:   commission,
		VendorPayout: lineTotal.Sub(commission),
	}
}

// ResolveRate prefers the vendor's own rate and falls back to the platform default.
func ResolveRate(vendorRate *decimal.Decimal, platformDefault decimal.Decimal) decimal.Decimal {
	if vendorRate != nil {
		return *vendorRate
	}
	return platformDefault
}
