package purchases_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/app/apptest"
	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/events"
	"bistro/internal/domain/inventory"
	"bistro/internal/domain/purchases"
	"bistro/internal/domain/waste"
)

func line(m *inventory.Material, qty, cost string) purchases.Item {
	return purchases.Item{MaterialID: m.ID, Quantity: types.MustQuantity(qty), UnitCost: types.MustMoney(cost)}
}

func TestCreate_PostedIncrementsStock(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "100", "0.002")
	beans := env.Material("Beans", "0", "0.03")

	p, err := env.Services.Purchases.Create(env.Ctx, purchases.Input{
		SupplierName: "Dairy Co",
		Status:       purchases.StatusPosted,
		Items:        []purchases.Item{line(milk, "500", "0.002"), line(beans, "1000", "0.03"), line(milk, "100", "0.002")},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(p.Number, purchases.NumberPrefix), p.Number)
	assert.True(t, p.Total.Equal(types.MustMoney("31.2")), "total %s", p.Total)
	env.RequireStock(milk.ID, "700")
	env.RequireStock(beans.ID, "1000")
	assert.Contains(t, env.EventTypes(), events.PurchasePosted)
}

func TestCreate_DraftLeavesStock(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "100", "0.002")

	_, err := env.Services.Purchases.Create(env.Ctx, purchases.Input{Items: []purchases.Item{line(milk, "500", "0.002")}})
	require.NoError(t, err)
	env.RequireStock(milk.ID, "100")
}

func TestCreate_UnknownMaterial(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "100", "0.002")

	_, err := env.Services.Purchases.Create(env.Ctx, purchases.Input{
		Status: purchases.StatusPosted,
		Items: []purchases.Item{
			line(milk, "5", "1"),
			{MaterialID: id.New(), Quantity: types.MustQuantity("1")},
		},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidMaterials))
	env.RequireStock(milk.ID, "100")
}

func TestUpdate_StockFollowsStatusAndQuantity(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "100", "0.002")
	sugar := env.Material("Sugar", "0", "0.01")
	svc := env.Services.Purchases

	p, err := svc.Create(env.Ctx, purchases.Input{Items: []purchases.Item{line(milk, "50", "0.002")}})
	require.NoError(t, err)

	steps := []struct {
		name        string
		status      purchases.Status
		items       []purchases.Item
		milk, sugar string
	}{
		{"post", purchases.StatusPosted, []purchases.Item{line(milk, "50", "0.002")}, "150", "0"},
		{"raise quantity", purchases.StatusPosted, []purchases.Item{line(milk, "80", "0.002")}, "180", "0"},
		{"swap material", purchases.StatusPosted, []purchases.Item{line(sugar, "20", "0.01")}, "100", "20"},
		{"back to draft", purchases.StatusDraft, []purchases.Item{line(sugar, "20", "0.01")}, "100", "0"},
		{"post again", purchases.StatusPosted, []purchases.Item{line(milk, "10", "0.002"), line(sugar, "5", "0.01")}, "110", "5"},
		{"cancel", purchases.StatusCancelled, []purchases.Item{line(milk, "10", "0.002"), line(sugar, "5", "0.01")}, "100", "0"},
	}
	for _, step := range steps {
		_, err := svc.Update(env.Ctx, p.ID, purchases.Input{Status: step.status, Items: step.items})
		require.NoError(t, err, step.name)
		env.RequireStock(milk.ID, step.milk)
		env.RequireStock(sugar.ID, step.sugar)
	}
}

func TestUpdate_RevertBlockedWhenStockWasUsed(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "0", "0.002")

	p, err := env.Services.Purchases.Create(env.Ctx, purchases.Input{
		Status: purchases.StatusPosted,
		Items:  []purchases.Item{line(milk, "100", "0.002")},
	})
	require.NoError(t, err)

	_, err = env.Services.Waste.Create(env.Ctx, waste.Input{MaterialID: milk.ID, Quantity: types.MustQuantity("60")})
	require.NoError(t, err)
	env.RequireStock(milk.ID, "40")

	_, err = env.Services.Purchases.Update(env.Ctx, p.ID, purchases.Input{
		Status: purchases.StatusCancelled,
		Items:  []purchases.Item{line(milk, "100", "0.002")},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStockForRevert), "got %v", err)

	err = env.Services.Purchases.Delete(env.Ctx, p.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStockForRevert), "got %v", err)

	got, err := env.Services.Purchases.GetByID(env.Ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, purchases.StatusPosted, got.Status)
	env.RequireStock(milk.ID, "40")

	// Lowering the quantity to what is left is still possible.
	_, err = env.Services.Purchases.Update(env.Ctx, p.ID, purchases.Input{
		Status: purchases.StatusPosted,
		Items:  []purchases.Item{line(milk, "60", "0.002")},
	})
	require.NoError(t, err)
	env.RequireStock(milk.ID, "0")
}

func TestDelete_PostedReturnsQuantities(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "10", "0.002")

	p, err := env.Services.Purchases.Create(env.Ctx, purchases.Input{
		Status: purchases.StatusPosted,
		Items:  []purchases.Item{line(milk, "90", "0.002")},
	})
	require.NoError(t, err)
	env.RequireStock(milk.ID, "100")

	require.NoError(t, env.Services.Purchases.Delete(env.Ctx, p.ID))
	env.RequireStock(milk.ID, "10")

	_, err = env.Services.Purchases.GetByID(env.Ctx, p.ID)
	assert.True(t, apperror.IsNotFound(err))

	history, err := env.Services.Audit.History(env.Ctx, "purchase", p.ID, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestCreate_ValidatesItems(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "10", "0.002")

	_, err := env.Services.Purchases.Create(env.Ctx, purchases.Input{})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	_, err = env.Services.Purchases.Create(env.Ctx, purchases.Input{Items: []purchases.Item{line(milk, "0", "1")}})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	_, err = env.Services.Purchases.Create(env.Ctx, purchases.Input{Items: []purchases.Item{line(milk, "1", "-1")}})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}
