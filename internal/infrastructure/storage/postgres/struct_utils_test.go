package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/core/id"
	"bistro/internal/domain/catalog"
	"bistro/internal/domain/inventory"
	"bistro/internal/domain/orders"
)

func TestExtractDBColumns_EmbeddedBase(t *testing.T) {
	cols := ExtractDBColumns[inventory.Material]()

	assert.Equal(t, []string{"id", "created_at", "updated_at", "name", "unit", "cost", "stock", "min_stock"}, cols)
}

func TestExtractDBColumns_SkipsDerivedFields(t *testing.T) {
	cols := ExtractDBColumns[*catalog.Product]()

	assert.Contains(t, cols, "category_id")
	assert.NotContains(t, cols, "recipe")
	assert.NotContains(t, cols, "unit_cost")
}

func TestStructToMap(t *testing.T) {
	zone := id.New()
	o := &orders.Order{
		Code:     "ORD-260101-AB12",
		Type:     orders.TypeDelivery,
		ZoneID:   &zone,
		Discount: decimal.RequireFromString("1.50"),
		Items:    []orders.Item{{ProductName: "Latte", Quantity: 2}},
	}
	o.ID = id.New()

	m := StructToMap(o)

	assert.Equal(t, o.ID, m["id"])
	assert.Equal(t, "ORD-260101-AB12", m["code"])
	assert.Equal(t, orders.TypeDelivery, m["type"])
	assert.Equal(t, &zone, m["zone_id"])
	assert.True(t, decimal.RequireFromString("1.5").Equal(m["discount"].(decimal.Decimal)))
	_, hasItems := m["items"]
	assert.False(t, hasItems)
}

func TestStructToMap_NilAndNonStruct(t *testing.T) {
	var m *inventory.Material
	assert.Nil(t, StructToMap(m))
	assert.Nil(t, StructToMap(42))
}

func TestColumns(t *testing.T) {
	row := map[string]any{"id": 1, "name": "Milk", "extra": true}

	out := Columns(row, []string{"id", "name", "missing"}, "id")

	require.Len(t, out, 1)
	assert.Equal(t, "Milk", out["name"])
}
