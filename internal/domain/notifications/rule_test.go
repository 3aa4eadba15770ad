package notifications

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/core/types"
	"bistro/internal/domain/inventory"
)

func material(name, stock, minStock string) *inventory.Material {
	m := inventory.NewMaterial()
	m.Name = name
	m.Unit = "kg"
	m.Stock = types.MustQuantity(stock)
	m.MinStock = types.MustQuantity(minStock)
	return m
}

func TestLowStockRule_Default(t *testing.T) {
	rule, err := NewLowStockRule("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLowStockRule, rule.String())

	tests := []struct {
		stock, minStock string
		low             bool
	}{
		{"5", "5", true},
		{"4.9999", "5", true},
		{"5.0001", "5", false},
		{"0", "0", true},
	}
	for _, tt := range tests {
		got, err := rule.Match(material("Milk", tt.stock, tt.minStock))
		require.NoError(t, err)
		assert.Equal(t, tt.low, got, "stock %s min %s", tt.stock, tt.minStock)
	}
}

func TestLowStockRule_Custom(t *testing.T) {
	rule, err := NewLowStockRule(`stock < minStock * 2.0 && unit == "kg" && !name.startsWith("Test")`)
	require.NoError(t, err)

	low, err := rule.Match(material("Flour", "9", "5"))
	require.NoError(t, err)
	assert.True(t, low)

	low, err = rule.Match(material("Test flour", "9", "5"))
	require.NoError(t, err)
	assert.False(t, low)
}

func TestLowStockRule_RejectsBadExpressions(t *testing.T) {
	_, err := NewLowStockRule("stock <=")
	assert.Error(t, err)

	_, err = NewLowStockRule("stock + minStock")
	assert.ErrorContains(t, err, "must evaluate to bool")

	_, err = NewLowStockRule("price > 0")
	assert.Error(t, err)
}
