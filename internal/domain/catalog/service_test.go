package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/app/apptest"
	"bistro/internal/core/apperror"
	"bistro/internal/core/entity"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/catalog"
	"bistro/internal/domain/inventory"
	"bistro/internal/domain/orders"
)

func TestCreateProduct_RecipeValidation(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "1000", "0.002")

	tests := []struct {
		name   string
		recipe []catalog.RecipeItem
		code   string
	}{
		{"zero quantity", []catalog.RecipeItem{apptest.Uses(milk, "0")}, apperror.CodeInvalidInput},
		{"duplicate material", []catalog.RecipeItem{apptest.Uses(milk, "1"), apptest.Uses(milk, "2")}, apperror.CodeInvalidInput},
		{"unknown material", []catalog.RecipeItem{{MaterialID: id.New(), Quantity: types.MustQuantity("1")}}, apperror.CodeInvalidMaterials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := catalog.NewProduct()
			p.Name = "Latte " + tt.name
			p.Price = types.MustMoney("4")
			p.Recipe = tt.recipe
			err := env.Services.Catalog.CreateProduct(env.Ctx, p)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestProduct_UnitCostFollowsMaterialCost(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "1000", "0.002")
	beans := env.Material("Beans", "1000", "0.03")
	latte := env.Product("Latte", "4", apptest.Uses(milk, "200"), apptest.Uses(beans, "18"))

	got, err := env.Services.Catalog.GetProduct(env.Ctx, latte.ID)
	require.NoError(t, err)
	assert.True(t, got.UnitCost.Equal(types.MustMoney("0.94")), "unit cost %s", got.UnitCost)
	require.Len(t, got.Recipe, 2)
	assert.Equal(t, 1, got.Recipe[0].LineNo)

	cost := types.MustMoney("0.004")
	_, err = env.Services.Materials.Update(env.Ctx, milk.ID, inventoryCost(cost))
	require.NoError(t, err)

	got, err = env.Services.Catalog.GetProduct(env.Ctx, latte.ID)
	require.NoError(t, err)
	assert.True(t, got.UnitCost.Equal(types.MustMoney("1.34")), "unit cost %s", got.UnitCost)
}

func TestUpdateProduct_ReplacesRecipe(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "1000", "0.002")
	oat := env.Material("Oat milk", "1000", "0.003")
	latte := env.Product("Latte", "4", apptest.Uses(milk, "200"))

	recipe := []catalog.RecipeItem{apptest.Uses(oat, "180")}
	got, err := env.Services.Catalog.UpdateProduct(env.Ctx, latte.ID, catalog.ProductUpdate{Recipe: &recipe})
	require.NoError(t, err)
	require.Len(t, got.Recipe, 1)
	assert.Equal(t, oat.ID, got.Recipe[0].MaterialID)

	o, err := env.Services.Orders.Create(env.Ctx, orders.CreateInput{
		Type:  orders.TypeTakeaway,
		Items: []orders.ItemInput{{ProductID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NotNil(t, o)
	env.RequireStock(milk.ID, "1000")
	env.RequireStock(oat.ID, "820")
}

func TestProduct_UniqueNameAndCategory(t *testing.T) {
	env := apptest.New(t)
	env.Product("Latte", "4")

	p := catalog.NewProduct()
	p.Name = "LATTE"
	assert.True(t, apperror.HasCode(env.Services.Catalog.CreateProduct(env.Ctx, p), apperror.CodeConflict))

	missing := id.New()
	p = catalog.NewProduct()
	p.Name = "Mocha"
	p.CategoryID = &missing
	assert.True(t, apperror.IsNotFound(env.Services.Catalog.CreateProduct(env.Ctx, p)))
}

func TestDeleteProduct_BlockedByOrders(t *testing.T) {
	env := apptest.New(t)
	latte := env.Product("Latte", "4")
	tea := env.Product("Tea", "2")

	_, err := env.Services.Orders.Create(env.Ctx, orders.CreateInput{
		Type:  orders.TypeTakeaway,
		Items: []orders.ItemInput{{ProductID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	err = env.Services.Catalog.DeleteProduct(env.Ctx, latte.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeReferentialBlock))
	require.NoError(t, env.Services.Catalog.DeleteProduct(env.Ctx, tea.ID))
}

func TestDeleteCategory_BlockedByProducts(t *testing.T) {
	env := apptest.New(t)
	drinks := &catalog.Category{Base: entity.NewBase(), Name: "Drinks"}
	require.NoError(t, env.Services.Categories.Create(env.Ctx, drinks))

	p := catalog.NewProduct()
	p.Name = "Tea"
	p.CategoryID = &drinks.ID
	require.NoError(t, env.Services.Catalog.CreateProduct(env.Ctx, p))

	err := env.Services.Categories.Delete(env.Ctx, drinks.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeReferentialBlock))

	_, err = env.Services.Catalog.UpdateProduct(env.Ctx, p.ID, catalog.ProductUpdate{ClearCategory: true})
	require.NoError(t, err)
	require.NoError(t, env.Services.Categories.Delete(env.Ctx, drinks.ID))
}

func inventoryCost(cost types.Money) inventory.UpdateInput {
	return inventory.UpdateInput{Cost: &cost}
}
