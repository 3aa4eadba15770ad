package dining_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/app/apptest"
	"bistro/internal/core/apperror"
	"bistro/internal/core/entity"
	"bistro/internal/core/types"
	"bistro/internal/domain/dining"
	"bistro/internal/domain/orders"
)

func TestTables_Validation(t *testing.T) {
	env := apptest.New(t)
	tables := env.Services.Dining.Tables

	err := tables.Create(env.Ctx, &dining.Table{Base: entity.NewBase(), Name: "Bar", Number: 0})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	env.Table("Bar", 1)
	err = tables.Create(env.Ctx, &dining.Table{Base: entity.NewBase(), Name: "bar", Number: 1})
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))

	require.NoError(t, tables.Create(env.Ctx, &dining.Table{Base: entity.NewBase(), Name: "Bar", Number: 2}))
}

func TestZones_RejectNegativeFee(t *testing.T) {
	env := apptest.New(t)
	err := env.Services.Dining.Zones.Create(env.Ctx, &dining.Zone{
		Base: entity.NewBase(), Name: "Far", Fee: types.MustMoney("-1"),
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}

func TestDelete_BlockedWhileActiveOrderReferences(t *testing.T) {
	env := apptest.New(t)
	tea := env.Product("Tea", "2")
	table := env.Table("Window", 1)
	zone := env.Zone("Downtown", "3")
	driver := env.Driver("Sam")

	dineIn, err := env.Services.Orders.Create(env.Ctx, orders.CreateInput{
		Type: orders.TypeDineIn, TableID: &table.ID,
		Items: []orders.ItemInput{{ProductID: tea.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	delivery, err := env.Services.Orders.Create(env.Ctx, orders.CreateInput{
		Type: orders.TypeDelivery, ZoneID: &zone.ID, DriverID: &driver.ID,
		Items: []orders.ItemInput{{ProductID: tea.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.True(t, apperror.HasCode(env.Services.Dining.Tables.Delete(env.Ctx, table.ID), apperror.CodeReferentialBlock))
	assert.True(t, apperror.HasCode(env.Services.Dining.Zones.Delete(env.Ctx, zone.ID), apperror.CodeReferentialBlock))
	assert.True(t, apperror.HasCode(env.Services.Dining.Drivers.Delete(env.Ctx, driver.ID), apperror.CodeReferentialBlock))

	cancelled := orders.StatusCancelled
	delivered := orders.StatusDelivered
	_, err = env.Services.Orders.Update(env.Ctx, dineIn.ID, orders.UpdateInput{Status: &cancelled})
	require.NoError(t, err)
	_, err = env.Services.Orders.Update(env.Ctx, delivery.ID, orders.UpdateInput{Status: &delivered})
	require.NoError(t, err)

	require.NoError(t, env.Services.Dining.Tables.Delete(env.Ctx, table.ID))
	require.NoError(t, env.Services.Dining.Zones.Delete(env.Ctx, zone.ID))
	require.NoError(t, env.Services.Dining.Drivers.Delete(env.Ctx, driver.ID))
}

func TestDelete_DetachesHistoricalOrders(t *testing.T) {
	env := apptest.New(t)
	tea := env.Product("Tea", "2")
	table := env.Table("Window", 1)
	zone := env.Zone("Downtown", "3")
	driver := env.Driver("Sam")
	delivered := orders.StatusDelivered

	dineIn, err := env.Services.Orders.Create(env.Ctx, orders.CreateInput{
		Type: orders.TypeDineIn, TableID: &table.ID,
		Items: []orders.ItemInput{{ProductID: tea.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	delivery, err := env.Services.Orders.Create(env.Ctx, orders.CreateInput{
		Type: orders.TypeDelivery, ZoneID: &zone.ID, DriverID: &driver.ID,
		Items: []orders.ItemInput{{ProductID: tea.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	for _, o := range []*orders.Order{dineIn, delivery} {
		_, err = env.Services.Orders.Update(env.Ctx, o.ID, orders.UpdateInput{Status: &delivered})
		require.NoError(t, err)
	}

	require.NoError(t, env.Services.Dining.Tables.Delete(env.Ctx, table.ID))
	require.NoError(t, env.Services.Dining.Zones.Delete(env.Ctx, zone.ID))
	require.NoError(t, env.Services.Dining.Drivers.Delete(env.Ctx, driver.ID))

	got, err := env.Services.Orders.GetByID(env.Ctx, dineIn.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TableID)

	got, err = env.Services.Orders.GetByID(env.Ctx, delivery.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ZoneID)
	assert.Nil(t, got.DriverID)
	assert.True(t, got.DeliveryFee.Equal(types.MustMoney("3")), "fee %s", got.DeliveryFee)

	notes := "regular"
	_, err = env.Services.Orders.Update(env.Ctx, dineIn.ID, orders.UpdateInput{Notes: &notes})
	require.NoError(t, err)
	require.NoError(t, env.Services.Orders.Delete(env.Ctx, dineIn.ID))
	require.NoError(t, env.Services.Orders.Delete(env.Ctx, delivery.ID))
}
