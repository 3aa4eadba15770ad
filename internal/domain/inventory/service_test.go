package inventory_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/app/apptest"
	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain"
	"bistro/internal/domain/inventory"
)

func TestMaterialService_Validation(t *testing.T) {
	env := apptest.New(t)

	m := inventory.NewMaterial()
	m.Name = "  "
	assert.True(t, apperror.HasCode(env.Services.Materials.Create(env.Ctx, m), apperror.CodeInvalidInput))

	m = inventory.NewMaterial()
	m.Name = "Milk"
	m.Stock = types.MustQuantity("-1")
	assert.True(t, apperror.HasCode(env.Services.Materials.Create(env.Ctx, m), apperror.CodeInvalidInput))

	m = inventory.NewMaterial()
	m.Name = "Milk"
	require.NoError(t, env.Services.Materials.Create(env.Ctx, m))
	assert.Equal(t, "pcs", m.Unit)
}

func TestMaterialService_UniqueName(t *testing.T) {
	env := apptest.New(t)
	env.Material("Milk", "1", "1")

	m := inventory.NewMaterial()
	m.Name = "milk"
	err := env.Services.Materials.Create(env.Ctx, m)
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))
}

func TestMaterialService_StocktakeCorrection(t *testing.T) {
	env := apptest.New(t)
	m := env.Material("Milk", "10", "1")

	counted := types.MustQuantity("7.25")
	got, err := env.Services.Materials.Update(env.Ctx, m.ID, inventory.UpdateInput{Stock: &counted})
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(counted))
	env.RequireStock(m.ID, "7.25")
}

func TestMaterialService_EditKeepsConcurrentConsumption(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "100", "1")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, env.Services.Ledger.AdjustStock(env.Ctx, milk.ID, types.MustQuantity("-1")))
		}()
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("Milk %d", i)
			_, err := env.Services.Materials.Update(env.Ctx, milk.ID, inventory.UpdateInput{Name: &name})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	env.RequireStock(milk.ID, "80")

	name := "Oat milk"
	_, err := env.Services.Materials.Update(env.Ctx, id.New(), inventory.UpdateInput{Name: &name})
	assert.True(t, apperror.IsNotFound(err))
}

func TestMaterialService_DeleteBlockedByRecipe(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "10", "1")
	spare := env.Material("Spare", "0", "0")
	env.Product("Latte", "4", apptest.Uses(milk, "0.2"))

	err := env.Services.Materials.Delete(env.Ctx, milk.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeReferentialBlock))

	require.NoError(t, env.Services.Materials.Delete(env.Ctx, spare.ID))
	_, err = env.Services.Materials.GetByID(env.Ctx, spare.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestMaterialService_ListSearch(t *testing.T) {
	env := apptest.New(t)
	env.Material("Whole milk", "1", "1")
	env.Material("Oat milk", "1", "1")
	env.Material("Sugar", "1", "1")

	res, err := env.Services.Materials.List(env.Ctx, inventory.ListFilter{
		ListFilter: domain.ListFilter{Search: "MILK"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.TotalCount)
}

func TestMaterialService_ListLowStockUsesRule(t *testing.T) {
	env := apptest.New(t, apptest.WithLowStockRule("stock < 3.0 && unit == 'g'"))
	env.Material("Whole milk", "1", "1")
	env.Material("Oat milk", "2", "1")
	env.Material("Skim milk", "9", "1")
	env.Material("Sugar", "0", "1")

	res, err := env.Services.Materials.List(env.Ctx, inventory.ListFilter{
		ListFilter:   domain.ListFilter{Search: "milk", Limit: 1},
		LowStockOnly: true,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.TotalCount)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Oat milk", res.Items[0].Name)

	counts, err := env.Services.Notifications.Counts(env.Ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts.LowStock)
}
