// Package money converts between integer cents (storage and arithmetic)
// and decimal dollar amounts (API boundaries).
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CentsFromAmount converts a dollar amount to integer cents, rounding
// half away from zero. 19.99 -> 1999.
func CentsFromAmount(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// AmountFromCents converts integer cents to a dollar amount. 1999 -> 19.99.
func AmountFromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(hundred)
}

// FormatCents renders integer cents as a fixed two-decimal dollar string.
func FormatCents(cents int64) string {
	return AmountFromCents(cents).StringFixed(2)
}

// ParseAmount parses a decimal dollar string. Prices are strictly
// positive everywhere they occur, so zero is rejected along with
// negatives.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount %q must be positive", s)
	}
	return d, nil
}

// DiscountCents computes round(total × percent / 100) in cents.
func DiscountCents(totalCents int64, percent int) int64 {
	return decimal.NewFromInt(totalCents).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(hundred).
		Round(0).
		IntPart()
}
