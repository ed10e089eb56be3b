package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by every monetary amount.
// All balances and amounts are NUMERIC(20, 4) in the backing store.
const Scale = 4

// Currency identifies a supported settlement currency.
type Currency string

const (
	USD Currency = "USD"
	NGN Currency = "NGN"
	GHS Currency = "GHS"
)

// Supported returns the closed set of currencies the platform settles in.
func Supported() []Currency {
	return []Currency{USD, NGN, GHS}
}

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	switch c {
	case USD, NGN, GHS:
		return true
	}
	return false
}

func (c Currency) String() string { return string(c) }

// Quantize rounds d to the platform's fixed scale. Every amount that crosses
// a service boundary goes through this so debit/credit pairs cannot drift.
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// IsPositive reports whether d is strictly greater than zero.
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}

// IsNegative reports whether d is strictly less than zero.
func IsNegative(d decimal.Decimal) bool {
	return d.LessThan(decimal.Zero)
}

// Parse parses a decimal string and quantizes it to the platform scale.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Quantize(d), nil
}

// MustParse is a test and fixture helper; it panics on malformed input.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}
