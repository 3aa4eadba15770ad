package reports_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/app/apptest"
	"bistro/internal/core/apperror"
	"bistro/internal/core/types"
	"bistro/internal/domain/catalog"
	"bistro/internal/domain/inventory"
	"bistro/internal/domain/orders"
)

type shop struct {
	*apptest.Env

	milk          *inventory.Material
	coffee, latte *catalog.Product
}

// Coffee costs 0.30 to make, a latte 0.40.
func newShop(t *testing.T) *shop {
	env := apptest.New(t)
	s := &shop{Env: env}
	sugar := env.Material("Sugar", "1000", "0.01")
	s.milk = env.Material("Milk", "10000", "0.002")
	s.coffee = env.Product("Coffee", "2.50", apptest.Uses(sugar, "10"), apptest.Uses(s.milk, "100"))
	s.latte = env.Product("Latte", "4.00", apptest.Uses(s.milk, "200"))
	return s
}

func (s *shop) order(t *testing.T, in orders.CreateInput, final orders.Status) *orders.Order {
	t.Helper()
	if in.Type == "" {
		in.Type = orders.TypeTakeaway
	}
	o, err := s.Services.Orders.Create(s.Ctx, in)
	require.NoError(t, err)
	if final != orders.StatusPreparing {
		o, err = s.Services.Orders.Update(s.Ctx, o.ID, orders.UpdateInput{Status: &final})
		require.NoError(t, err)
	}
	return o
}

func items(p *catalog.Product, qty int) []orders.ItemInput {
	return []orders.ItemInput{{ProductID: p.ID, Quantity: qty}}
}

func window() (time.Time, time.Time) {
	now := time.Now().UTC()
	return now.Add(-time.Hour), now.Add(time.Hour)
}

func TestProfit_DeliveredOrdersOnly(t *testing.T) {
	s := newShop(t)
	s.order(t, orders.CreateInput{Items: items(s.coffee, 2), Discount: types.MustMoney("1")}, orders.StatusDelivered)
	s.order(t, orders.CreateInput{Items: items(s.latte, 1)}, orders.StatusDelivered)
	s.order(t, orders.CreateInput{Items: items(s.coffee, 5)}, orders.StatusCancelled)
	s.order(t, orders.CreateInput{Items: items(s.latte, 3)}, orders.StatusReady)

	from, to := window()
	report, err := s.Services.Reports.Profit(s.Ctx, from, to)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Orders)
	assert.True(t, report.Revenue.Equal(types.MustMoney("9")), "revenue %s", report.Revenue)
	assert.True(t, report.Discount.Equal(types.MustMoney("1")), "discount %s", report.Discount)
	assert.True(t, report.COGS.Equal(types.MustMoney("1")), "cogs %s", report.COGS)
	assert.True(t, report.Profit.Equal(types.MustMoney("7")), "profit %s", report.Profit)

	orderCount := 0
	for _, d := range report.Days {
		orderCount += d.Orders
	}
	assert.Equal(t, 2, orderCount)

	require.Len(t, report.TopProducts, 2)
	assert.Equal(t, "Coffee", report.TopProducts[0].ProductName)
	assert.Equal(t, 2, report.TopProducts[0].Quantity)
	assert.True(t, report.TopProducts[0].COGS.Equal(types.MustMoney("0.6")))
}

func TestProfit_UsesCurrentRecipeCost(t *testing.T) {
	s := newShop(t)
	s.order(t, orders.CreateInput{Items: items(s.latte, 1)}, orders.StatusDelivered)

	cost := types.MustMoney("0.005")
	_, err := s.Services.Materials.Update(s.Ctx, s.milk.ID, inventory.UpdateInput{Cost: &cost})
	require.NoError(t, err)

	from, to := window()
	report, err := s.Services.Reports.Profit(s.Ctx, from, to)
	require.NoError(t, err)
	assert.True(t, report.COGS.Equal(types.MustMoney("1")), "cogs %s", report.COGS)
	assert.True(t, report.Profit.Equal(types.MustMoney("3")), "profit %s", report.Profit)
}

func TestProfit_EmptyAndInvalidWindows(t *testing.T) {
	s := newShop(t)
	from, to := window()

	report, err := s.Services.Reports.Profit(s.Ctx, from, to)
	require.NoError(t, err)
	assert.Zero(t, report.Orders)
	assert.True(t, report.Profit.IsZero())
	assert.Empty(t, report.TopProducts)

	_, err = s.Services.Reports.Profit(s.Ctx, to, from)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	_, err = s.Services.Reports.Profit(s.Ctx, time.Time{}, to)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}

func TestDashboard(t *testing.T) {
	s := newShop(t)
	table := s.Table("Window", 1)
	s.Material("Cups", "0", "0.1")

	s.order(t, orders.CreateInput{Type: orders.TypeDineIn, TableID: &table.ID, Items: items(s.coffee, 1)}, orders.StatusPreparing)
	s.order(t, orders.CreateInput{Items: items(s.latte, 1)}, orders.StatusOut)
	s.order(t, orders.CreateInput{Items: items(s.latte, 2)}, orders.StatusDelivered)
	s.order(t, orders.CreateInput{Items: items(s.coffee, 1)}, orders.StatusCancelled)

	d, err := s.Services.Reports.Dashboard(s.Ctx)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		"PREPARING": 1, "READY": 0, "OUT": 1, "DELIVERED": 1, "CANCELLED": 1,
	}, d.OrdersByStatus)
	assert.Equal(t, 2, d.ActiveOrders)
	assert.Equal(t, 1, d.OccupiedTables)
	assert.Equal(t, 1, d.TodayOrders)
	assert.True(t, d.TodaySales.Equal(types.MustMoney("8")), "today %s", d.TodaySales)
	assert.Equal(t, 1, d.LowStock)
}

func TestProfit_ProductWithoutRecipeCostsNothing(t *testing.T) {
	s := newShop(t)
	tea := s.Product("Tea", "3")
	s.order(t, orders.CreateInput{Items: items(tea, 1)}, orders.StatusDelivered)

	from, to := window()
	report, err := s.Services.Reports.Profit(s.Ctx, from, to)
	require.NoError(t, err)
	assert.True(t, report.COGS.IsZero())
	assert.True(t, report.Profit.Equal(types.MustMoney("3")))
}
