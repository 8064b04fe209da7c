package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmount bounds a single payment or fee.
var MaxAmount = decimal.NewFromInt(1_000_000_000)

func init() {
	// Amounts travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseAmount parses a payment amount. It accepts "12.34" and "12,34" and
// rejects anything that is not strictly positive or carries sub-cent digits.
// The parsed value is exactly the input.
//
//	ParseAmount("100")    -> 100
//	ParseAmount("12,30")  -> 12.3
//	ParseAmount("12.345") -> ErrInvalidAmount
//	ParseAmount("-1")     -> ErrInvalidAmount
//	ParseAmount("NaN")    -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := parseMoney(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseFee parses a category fee, which may be zero.
func ParseFee(s string) (decimal.Decimal, error) {
	d, err := parseMoney(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrInvalidFee
	}
	return d, nil
}

func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.Equal(d.Round(2)) || d.GreaterThan(MaxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
