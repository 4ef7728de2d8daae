// Package types provides common type aliases and monetary arithmetic helpers.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point drift; binary floats must
// never carry monetary quantities.
type Money = decimal.Decimal

// MoneyPlaces is the number of fractional digits of the currency minor unit.
const MoneyPlaces = 2

// NewMoneyFromString creates a Money value from a string.
// This is the preferred constructor for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewMoneyFromInt creates a Money value from whole currency units.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney rounds to the currency minor unit (2 places) using round-half-up:
// exact halves round away from zero, so 0.125 becomes 0.13.
func RoundMoney(m Money) Money {
	return m.Round(MoneyPlaces)
}

// VATAmount computes the VAT portion of a pre-VAT total at the given
// percentage rate, rounded to the minor unit.
func VATAmount(total, ratePercent Money) Money {
	return RoundMoney(total.Mul(ratePercent).Div(decimal.NewFromInt(100)))
}

// LineTotal computes quantity × unit price rounded to the minor unit.
func LineTotal(unitPrice Money, quantity int64) Money {
	return RoundMoney(unitPrice.Mul(decimal.NewFromInt(quantity)))
}
