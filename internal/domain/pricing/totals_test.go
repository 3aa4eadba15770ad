package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"bistro/internal/core/types"
)

func TestCompute(t *testing.T) {
	m := types.MustMoney

	tests := []struct {
		name      string
		in        Input
		wantBase  string
		wantTax   string
		wantTotal string
	}{
		{
			name:      "plain dine-in",
			in:        Input{Subtotal: m("25.00")},
			wantBase:  "25",
			wantTax:   "0",
			wantTotal: "25",
		},
		{
			name:      "discount then rate tax then fee",
			in:        Input{Subtotal: m("100"), Discount: m("10"), TaxRate: decimal.NewFromInt(14), DeliveryFee: m("5")},
			wantBase:  "90",
			wantTax:   "12.6",
			wantTotal: "107.6",
		},
		{
			name:      "stored tax amount wins over rate",
			in:        Input{Subtotal: m("50"), TaxRate: decimal.NewFromInt(14), TaxAmount: m("3.50")},
			wantBase:  "50",
			wantTax:   "3.5",
			wantTotal: "53.5",
		},
		{
			name:      "discount larger than subtotal clamps base at zero",
			in:        Input{Subtotal: m("20"), Discount: m("30"), DeliveryFee: m("7.5"), TaxRate: decimal.NewFromInt(10)},
			wantBase:  "0",
			wantTax:   "0",
			wantTotal: "7.5",
		},
		{
			name:      "rounding happens on output",
			in:        Input{Subtotal: m("10.01"), TaxRate: decimal.RequireFromString("12.5")},
			wantBase:  "10.01",
			wantTax:   "1.25",
			wantTotal: "11.26",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.in)
			assert.True(t, got.Base.Equal(m(tt.wantBase)), "base: %s", got.Base)
			assert.True(t, got.TaxAmount.Equal(m(tt.wantTax)), "tax: %s", got.TaxAmount)
			assert.True(t, got.Total.Equal(m(tt.wantTotal)), "total: %s", got.Total)
		})
	}
}

func TestLineTotalAndProfit(t *testing.T) {
	assert.True(t, LineTotal(5, types.MustMoney("5.00")).Equal(types.MustMoney("25")))
	assert.True(t, LineTotal(3, types.MustMoney("0.335")).Equal(types.MustMoney("1.01")))
	assert.True(t, Profit(types.MustMoney("25"), types.MustMoney("8.40"), types.MustMoney("2")).Equal(types.MustMoney("14.6")))
}
