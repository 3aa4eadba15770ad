package waste_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/app/apptest"
	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/audit"
	"bistro/internal/domain/waste"
)

func qty(s string) types.Quantity { return types.MustQuantity(s) }

func TestCreate_WithdrawsStockAndDefaultsCost(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "100", "0.25")

	w, err := env.Services.Waste.Create(env.Ctx, waste.Input{MaterialID: milk.ID, Quantity: qty("10"), Reason: " spilled "})
	require.NoError(t, err)
	assert.True(t, w.Cost.Equal(types.MustMoney("2.5")), "cost %s", w.Cost)
	assert.Equal(t, "spilled", w.Reason)
	assert.False(t, w.Date.IsZero())
	env.RequireStock(milk.ID, "90")

	explicit := types.MustMoney("1")
	w, err = env.Services.Waste.Create(env.Ctx, waste.Input{MaterialID: milk.ID, Quantity: qty("10"), Cost: &explicit})
	require.NoError(t, err)
	assert.True(t, w.Cost.Equal(explicit))
	env.RequireStock(milk.ID, "80")
}

func TestCreate_GuardedAgainstNegativeStock(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "5", "1")

	_, err := env.Services.Waste.Create(env.Ctx, waste.Input{MaterialID: milk.ID, Quantity: qty("6")})
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	env.RequireStock(milk.ID, "5")

	list, err := env.Services.Waste.List(env.Ctx, waste.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
}

func TestCreate_Validation(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "5", "1")

	_, err := env.Services.Waste.Create(env.Ctx, waste.Input{MaterialID: milk.ID, Quantity: qty("0")})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	_, err = env.Services.Waste.Create(env.Ctx, waste.Input{MaterialID: id.New(), Quantity: qty("1")})
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdate_SameMaterialMovesDifference(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "100", "0.1")

	w, err := env.Services.Waste.Create(env.Ctx, waste.Input{MaterialID: milk.ID, Quantity: qty("10")})
	require.NoError(t, err)

	got, err := env.Services.Waste.Update(env.Ctx, w.ID, waste.Input{Quantity: qty("25")})
	require.NoError(t, err)
	env.RequireStock(milk.ID, "75")
	assert.True(t, got.Cost.Equal(types.MustMoney("2.5")), "cost %s", got.Cost)

	_, err = env.Services.Waste.Update(env.Ctx, w.ID, waste.Input{Quantity: qty("5")})
	require.NoError(t, err)
	env.RequireStock(milk.ID, "95")

	_, err = env.Services.Waste.Update(env.Ctx, w.ID, waste.Input{Quantity: qty("200")})
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	env.RequireStock(milk.ID, "95")
}

func TestUpdate_OtherMaterialReturnsAndWithdraws(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "100", "0.1")
	cream := env.Material("Cream", "50", "0.3")

	w, err := env.Services.Waste.Create(env.Ctx, waste.Input{MaterialID: milk.ID, Quantity: qty("10")})
	require.NoError(t, err)

	_, err = env.Services.Waste.Update(env.Ctx, w.ID, waste.Input{MaterialID: cream.ID, Quantity: qty("20")})
	require.NoError(t, err)
	env.RequireStock(milk.ID, "100")
	env.RequireStock(cream.ID, "30")
}

func TestDelete_ReturnsQuantity(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "100", "0.1")

	w, err := env.Services.Waste.Create(env.Ctx, waste.Input{MaterialID: milk.ID, Quantity: qty("40")})
	require.NoError(t, err)
	require.NoError(t, env.Services.Waste.Delete(env.Ctx, w.ID))
	env.RequireStock(milk.ID, "100")

	history, err := env.Services.Audit.History(env.Ctx, "waste", w.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, audit.ActionDelete, history[0].Action)
	assert.NotEmpty(t, history[0].UserID)
}
