// Package types provides the decimal types used for money and stock quantities.
package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// Quantity is a stock or recipe quantity. Stored as NUMERIC(15,4).
type Quantity = decimal.Decimal

const (
	// MoneyScale is the number of fractional digits kept on totals.
	MoneyScale int32 = 2
	// QuantityScale is the number of fractional digits kept on stock quantities.
	QuantityScale int32 = 4
)

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MustQuantity is MustMoney for quantities.
func MustQuantity(s string) Quantity {
	return MustMoney(s)
}

// Zero returns zero value.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// RoundMoney rounds half away from zero to MoneyScale digits.
func RoundMoney(m Money) Money {
	return m.Round(MoneyScale)
}

// RoundQuantity rounds to QuantityScale digits.
func RoundQuantity(q Quantity) Quantity {
	return q.Round(QuantityScale)
}

// NonNegative clamps v at zero.
func NonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// RequireNonNegative returns an error naming field when v < 0.
func RequireNonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%s must not be negative", field)
	}
	return nil
}
