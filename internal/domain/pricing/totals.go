// Package pricing computes order and invoice totals.
package pricing

import (
	"github.com/shopspring/decimal"

	"bistro/internal/core/types"
)

var hundred = decimal.NewFromInt(100)

// Input is what a bill is computed from.
type Input struct {
	Subtotal    types.Money
	DeliveryFee types.Money
	Discount    types.Money
	TaxRate     decimal.Decimal // percent, e.g. 14 for 14%
	// TaxAmount, when positive, overrides the rate-based tax.
	TaxAmount types.Money
}

// Totals is a computed bill.
type Totals struct {
	Subtotal    types.Money `json:"subtotal"`
	DeliveryFee types.Money `json:"deliveryFee"`
	Discount    types.Money `json:"discount"`
	Base        types.Money `json:"base"`
	TaxAmount   types.Money `json:"taxAmount"`
	Total       types.Money `json:"total"`
}

// Compute applies:
//
//	base  = max(0, subtotal - discount)
//	tax   = taxAmount if > 0 else base * taxRate / 100
//	total = base + deliveryFee + tax
//
// Rounding to cents happens once, on each output field.
func Compute(in Input) Totals {
	base := types.NonNegative(in.Subtotal.Sub(in.Discount))

	tax := in.TaxAmount
	if !tax.IsPositive() {
		tax = base.Mul(in.TaxRate).Div(hundred)
	}

	return Totals{
		Subtotal:    types.RoundMoney(in.Subtotal),
		DeliveryFee: types.RoundMoney(in.DeliveryFee),
		Discount:    types.RoundMoney(in.Discount),
		Base:        types.RoundMoney(base),
		TaxAmount:   types.RoundMoney(tax),
		Total:       types.RoundMoney(base.Add(in.DeliveryFee).Add(tax)),
	}
}

// LineTotal is quantity × unit price, rounded to cents.
func LineTotal(quantity int, unitPrice types.Money) types.Money {
	return types.RoundMoney(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// Profit is subtotal - cogs - discount, for reporting.
func Profit(subtotal, cogs, discount types.Money) types.Money {
	return types.RoundMoney(subtotal.Sub(cogs).Sub(discount))
}
