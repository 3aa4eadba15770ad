package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/app/apptest"
	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/events"
	"bistro/internal/domain/inventory"
)

func TestDeltas_DiffAndOrder(t *testing.T) {
	a, b, c := id.New(), id.New(), id.New()

	prev := inventory.Deltas{a: types.MustQuantity("5"), b: types.MustQuantity("2")}
	next := inventory.Deltas{a: types.MustQuantity("3"), c: types.MustQuantity("1")}

	diff := inventory.Diff(prev, next)
	assert.True(t, diff[a].Equal(types.MustQuantity("-2")))
	assert.True(t, diff[b].Equal(types.MustQuantity("-2")))
	assert.True(t, diff[c].Equal(types.MustQuantity("1")))

	diff.Add(c, types.MustQuantity("-1"))
	ids := diff.IDs()
	assert.Len(t, ids, 2, "zero deltas are skipped")
	assert.True(t, ids[0].String() < ids[1].String(), "ids come back in lock order")
}

func TestLedger_GuardedDecrement(t *testing.T) {
	env := apptest.New(t)
	flour := env.Material("Flour", "10", "0.5")
	ledger := env.Services.Ledger

	require.NoError(t, ledger.AdjustStock(env.Ctx, flour.ID, types.MustQuantity("-4")))
	env.RequireStock(flour.ID, "6")

	err := ledger.AdjustStock(env.Ctx, flour.ID, types.MustQuantity("-7"))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, flour.ID.String(), appErr.Details["material_id"])
	env.RequireStock(flour.ID, "6")

	require.NoError(t, ledger.AdjustStock(env.Ctx, flour.ID, types.MustQuantity("-6")))
	env.RequireStock(flour.ID, "0")

	require.NoError(t, ledger.AdjustStock(env.Ctx, flour.ID, types.MustQuantity("2.5")))
	env.RequireStock(flour.ID, "2.5")
}

func TestLedger_UnknownMaterial(t *testing.T) {
	env := apptest.New(t)

	err := env.Services.Ledger.AdjustStock(env.Ctx, id.New(), types.MustQuantity("1"))
	assert.True(t, apperror.IsNotFound(err))
}

func TestLedger_ApplyDeltasRollsBackWithTransaction(t *testing.T) {
	env := apptest.New(t)
	oil := env.Material("Oil", "5", "1")
	salt := env.Material("Salt", "1", "1")

	err := env.InTx(func(ctx context.Context) error {
		return env.Services.Ledger.ApplyDeltas(ctx, inventory.Deltas{
			oil.ID:  types.MustQuantity("-5"),
			salt.ID: types.MustQuantity("-2"),
		})
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	env.RequireStock(oil.ID, "5")
	env.RequireStock(salt.ID, "1")
}

func TestLedger_PublishesLowStock(t *testing.T) {
	env := apptest.New(t)
	m := env.Material("Beans", "10", "2")
	minStock := types.MustQuantity("5")
	_, err := env.Services.Materials.Update(env.Ctx, m.ID, inventory.UpdateInput{MinStock: &minStock})
	require.NoError(t, err)

	require.NoError(t, env.Services.Ledger.AdjustStock(env.Ctx, m.ID, types.MustQuantity("-4")))
	assert.NotContains(t, env.EventTypes(), events.StockLow)

	require.NoError(t, env.Services.Ledger.AdjustStock(env.Ctx, m.ID, types.MustQuantity("-1")))
	assert.Contains(t, env.EventTypes(), events.StockLow)
}

func TestLedger_LowStockFollowsConfiguredRule(t *testing.T) {
	env := apptest.New(t, apptest.WithLowStockRule("stock < 3.0"))
	m := env.Material("Beans", "10", "2")
	minStock := types.MustQuantity("8")
	_, err := env.Services.Materials.Update(env.Ctx, m.ID, inventory.UpdateInput{MinStock: &minStock})
	require.NoError(t, err)

	require.NoError(t, env.Services.Ledger.AdjustStock(env.Ctx, m.ID, types.MustQuantity("-5")))
	assert.NotContains(t, env.EventTypes(), events.StockLow)

	require.NoError(t, env.Services.Ledger.AdjustStock(env.Ctx, m.ID, types.MustQuantity("-3")))
	assert.Contains(t, env.EventTypes(), events.StockLow)
}
