package orders_test

import (
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/app/apptest"
	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/domain/catalog"
	"bistro/internal/domain/events"
	"bistro/internal/domain/inventory"
	"bistro/internal/domain/orders"
	"bistro/internal/domain/sales"
)

type cafe struct {
	*apptest.Env

	sugar, milk   *inventory.Material
	coffee, latte *catalog.Product
}

// newCafe stocks 100 sugar and 1000 milk. A coffee uses 10 sugar and 100 milk,
// a latte 200 milk.
func newCafe(t *testing.T) *cafe {
	env := apptest.New(t)
	c := &cafe{Env: env}
	c.sugar = env.Material("Sugar", "100", "0.01")
	c.milk = env.Material("Milk", "1000", "0.002")
	c.coffee = env.Product("Coffee", "2.50", apptest.Uses(c.sugar, "10"), apptest.Uses(c.milk, "100"))
	c.latte = env.Product("Latte", "4.00", apptest.Uses(c.milk, "200"))
	return c
}

func (c *cafe) takeaway(t *testing.T, items ...orders.ItemInput) *orders.Order {
	t.Helper()
	o, err := c.Services.Orders.Create(c.Ctx, orders.CreateInput{Type: orders.TypeTakeaway, Items: items})
	require.NoError(t, err)
	return o
}

func (c *cafe) setStatus(orderID id.ID, st orders.Status) (*orders.Order, error) {
	return c.Services.Orders.Update(c.Ctx, orderID, orders.UpdateInput{Status: &st})
}

func item(p *catalog.Product, qty int) orders.ItemInput {
	return orders.ItemInput{ProductID: p.ID, Quantity: qty}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.Truef(t, ok, "expected app error, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestCreate_ConsumesAggregatedStockAndPrices(t *testing.T) {
	c := newCafe(t)

	o, err := c.Services.Orders.Create(c.Ctx, orders.CreateInput{
		Type:         orders.TypeTakeaway,
		CustomerName: "  Ada ",
		Items:        []orders.ItemInput{item(c.coffee, 2), item(c.latte, 1)},
		Discount:     apptest.Money("1"),
		TaxRate:      apptest.Money("10"),
	})
	require.NoError(t, err)

	assert.Equal(t, orders.StatusPreparing, o.Status)
	assert.Equal(t, "Ada", o.CustomerName)
	assert.Equal(t, orders.PaymentCash, o.PaymentMethod)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Coffee", o.Items[0].ProductName)
	assert.True(t, o.Items[0].TotalPrice.Equal(apptest.Money("5")))
	assert.True(t, o.Subtotal.Equal(apptest.Money("9")))
	assert.True(t, o.TaxAmount.Equal(apptest.Money("0.8")))
	assert.True(t, o.Total.Equal(apptest.Money("8.8")))

	c.RequireStock(c.sugar.ID, "80")
	c.RequireStock(c.milk.ID, "600")
	assert.Contains(t, c.EventTypes(), events.OrderCreated)
}

func TestCreate_PriceIsSnapshot(t *testing.T) {
	c := newCafe(t)
	o := c.takeaway(t, item(c.coffee, 1))

	price := apptest.Money("9.99")
	_, err := c.Services.Catalog.UpdateProduct(c.Ctx, c.coffee.ID, catalog.ProductUpdate{Price: &price})
	require.NoError(t, err)

	got, err := c.Services.Orders.GetByID(c.Ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.Items[0].UnitPrice.Equal(apptest.Money("2.5")))
}

func TestCreate_InsufficientStockIsAtomic(t *testing.T) {
	c := newCafe(t)
	// Each line fits on its own (800 and 400 milk) but together they need 1200.
	_, err := c.Services.Orders.Create(c.Ctx, orders.CreateInput{
		Type:  orders.TypeTakeaway,
		Items: []orders.ItemInput{item(c.coffee, 8), item(c.latte, 2)},
	})
	requireCode(t, err, apperror.CodeInsufficientStock)

	c.RequireStock(c.sugar.ID, "100")
	c.RequireStock(c.milk.ID, "1000")
	list, err := c.Services.Orders.List(c.Ctx, orders.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
	assert.Empty(t, c.Events())
}

func TestCreate_RejectsInactiveOrUnknownProducts(t *testing.T) {
	c := newCafe(t)
	inactive := false
	_, err := c.Services.Catalog.UpdateProduct(c.Ctx, c.latte.ID, catalog.ProductUpdate{IsActive: &inactive})
	require.NoError(t, err)

	_, err = c.Services.Orders.Create(c.Ctx, orders.CreateInput{
		Type:  orders.TypeTakeaway,
		Items: []orders.ItemInput{item(c.coffee, 1), item(c.latte, 1)},
	})
	requireCode(t, err, apperror.CodeInvalidProducts)

	_, err = c.Services.Orders.Create(c.Ctx, orders.CreateInput{
		Type:  orders.TypeTakeaway,
		Items: []orders.ItemInput{{ProductID: id.New(), Quantity: 1}},
	})
	requireCode(t, err, apperror.CodeInvalidProducts)
	c.RequireStock(c.milk.ID, "1000")
}

func TestCreate_ValidatesInput(t *testing.T) {
	c := newCafe(t)
	zone := c.Zone("Downtown", "3")
	table := c.Table("Window", 1)

	tests := []struct {
		name string
		in   orders.CreateInput
		code string
	}{
		{"no items", orders.CreateInput{Type: orders.TypeTakeaway}, apperror.CodeInvalidInput},
		{"zero quantity", orders.CreateInput{Type: orders.TypeTakeaway, Items: []orders.ItemInput{item(c.coffee, 0)}}, apperror.CodeInvalidInput},
		{"negative discount", orders.CreateInput{Type: orders.TypeTakeaway, Items: []orders.ItemInput{item(c.coffee, 1)}, Discount: apptest.Money("-1")}, apperror.CodeInvalidInput},
		{"delivery without zone", orders.CreateInput{Type: orders.TypeDelivery, Items: []orders.ItemInput{item(c.coffee, 1)}}, apperror.CodeInvalidTypeCombination},
		{"takeaway with zone", orders.CreateInput{Type: orders.TypeTakeaway, ZoneID: &zone.ID, Items: []orders.ItemInput{item(c.coffee, 1)}}, apperror.CodeInvalidTypeCombination},
		{"delivery with table", orders.CreateInput{Type: orders.TypeDelivery, ZoneID: &zone.ID, TableID: &table.ID, Items: []orders.ItemInput{item(c.coffee, 1)}}, apperror.CodeInvalidTypeCombination},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Services.Orders.Create(c.Ctx, tt.in)
			requireCode(t, err, tt.code)
		})
	}
	c.RequireStock(c.milk.ID, "1000")
	assert.False(t, c.TableOccupied(table.ID))
}

func TestCreate_GeneratesCode(t *testing.T) {
	c := newCafe(t)
	o := c.takeaway(t, item(c.coffee, 1))
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{6}-[A-Z2-9]{4}$`), o.Code)
}

func TestDineIn_TableOccupancy(t *testing.T) {
	c := newCafe(t)
	table := c.Table("Window", 1)

	first, err := c.Services.Orders.Create(c.Ctx, orders.CreateInput{
		Type: orders.TypeDineIn, TableID: &table.ID, Items: []orders.ItemInput{item(c.coffee, 1)},
	})
	require.NoError(t, err)
	assert.True(t, c.TableOccupied(table.ID))

	_, err = c.Services.Orders.Create(c.Ctx, orders.CreateInput{
		Type: orders.TypeDineIn, TableID: &table.ID, Items: []orders.ItemInput{item(c.coffee, 1)},
	})
	requireCode(t, err, apperror.CodeTableOccupied)
	c.RequireStock(c.sugar.ID, "90")

	_, err = c.setStatus(first.ID, orders.StatusReady)
	require.NoError(t, err)
	assert.True(t, c.TableOccupied(table.ID))

	_, err = c.setStatus(first.ID, orders.StatusDelivered)
	require.NoError(t, err)
	assert.False(t, c.TableOccupied(table.ID))

	_, err = c.Services.Orders.Create(c.Ctx, orders.CreateInput{
		Type: orders.TypeDineIn, TableID: &table.ID, Items: []orders.ItemInput{item(c.coffee, 1)},
	})
	require.NoError(t, err)
	assert.True(t, c.TableOccupied(table.ID))
}

func TestUpdate_MovesTable(t *testing.T) {
	c := newCafe(t)
	window := c.Table("Window", 1)
	patio := c.Table("Patio", 2)

	o, err := c.Services.Orders.Create(c.Ctx, orders.CreateInput{
		Type: orders.TypeDineIn, TableID: &window.ID, Items: []orders.ItemInput{item(c.coffee, 1)},
	})
	require.NoError(t, err)

	_, err = c.Services.Orders.Update(c.Ctx, o.ID, orders.UpdateInput{TableID: &patio.ID})
	require.NoError(t, err)
	assert.False(t, c.TableOccupied(window.ID))
	assert.True(t, c.TableOccupied(patio.ID))

	_, err = c.Services.Orders.Update(c.Ctx, o.ID, orders.UpdateInput{ClearTable: true})
	require.NoError(t, err)
	assert.False(t, c.TableOccupied(patio.ID))
}

func TestUpdate_CancelRestoresStockOnce(t *testing.T) {
	c := newCafe(t)
	o := c.takeaway(t, item(c.coffee, 3))
	c.RequireStock(c.sugar.ID, "70")

	got, err := c.setStatus(o.ID, orders.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, got.Status)
	c.RequireStock(c.sugar.ID, "100")
	c.RequireStock(c.milk.ID, "1000")

	_, err = c.setStatus(o.ID, orders.StatusPreparing)
	requireCode(t, err, apperror.CodeOrderCancelled)

	// Re-sending the current status is a no-op, not a second restore.
	_, err = c.setStatus(o.ID, orders.StatusCancelled)
	require.NoError(t, err)
	c.RequireStock(c.sugar.ID, "100")
}

func TestUpdate_DeliveredIsFinalAndMaterializesSale(t *testing.T) {
	c := newCafe(t)
	zone := c.Zone("Downtown", "3.50")
	driver := c.Driver("Sam")

	o, err := c.Services.Orders.Create(c.Ctx, orders.CreateInput{
		Type:     orders.TypeDelivery,
		ZoneID:   &zone.ID,
		DriverID: &driver.ID,
		Items:    []orders.ItemInput{item(c.latte, 2)},
	})
	require.NoError(t, err)
	assert.True(t, o.DeliveryFee.Equal(apptest.Money("3.5")))
	assert.True(t, o.Total.Equal(apptest.Money("11.5")))

	for _, st := range []orders.Status{orders.StatusReady, orders.StatusOut, orders.StatusDelivered} {
		_, err = c.setStatus(o.ID, st)
		require.NoError(t, err)
	}

	got, err := c.Services.Orders.GetByID(c.Ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeliveredAt)

	list, err := c.Services.Sales.List(c.Ctx, sales.ListFilter{OrderID: &o.ID})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	sale := list.Items[0]
	assert.Equal(t, sales.StatusPaid, sale.Status)
	assert.True(t, sale.Total.Equal(got.Total))
	assert.True(t, sale.DeliveryFee.Equal(apptest.Money("3.5")))
	require.Len(t, sale.Items, 1)
	assert.Equal(t, "Latte", sale.Items[0].Name)
	assert.Contains(t, sale.InvoiceNo, sales.InvoicePrefix)

	_, err = c.setStatus(o.ID, orders.StatusCancelled)
	requireCode(t, err, apperror.CodeOrderFinalized)
	c.RequireStock(c.milk.ID, "600")

	_, err = c.Services.Sales.Void(c.Ctx, sale.ID)
	requireCode(t, err, apperror.CodeOrderLinkedSale)
	assert.Contains(t, c.EventTypes(), events.SaleMaterialized)
	assert.Contains(t, c.EventTypes(), events.OrderDelivered)
}

func TestUpdate_DeliveredCannotReopen(t *testing.T) {
	c := newCafe(t)
	o := c.takeaway(t, item(c.latte, 1))
	_, err := c.setStatus(o.ID, orders.StatusDelivered)
	require.NoError(t, err)

	list, err := c.Services.Sales.List(c.Ctx, sales.ListFilter{OrderID: &o.ID})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	before := list.Items[0]

	_, err = c.setStatus(o.ID, orders.StatusPreparing)
	requireCode(t, err, apperror.CodeOrderFinalized)

	got, err := c.Services.Orders.GetByID(c.Ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusDelivered, got.Status)
	c.RequireStock(c.milk.ID, "800")

	list, err = c.Services.Sales.List(c.Ctx, sales.ListFilter{OrderID: &o.ID})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	after := list.Items[0]
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.InvoiceNo, after.InvoiceNo)
	assert.Equal(t, sales.StatusPaid, after.Status)
	assert.True(t, after.Total.Equal(before.Total))
}

func TestUpdate_UnknownDriver(t *testing.T) {
	c := newCafe(t)
	o := c.takeaway(t, item(c.coffee, 1))

	unknown := id.New()
	_, err := c.Services.Orders.Update(c.Ctx, o.ID, orders.UpdateInput{DriverID: &unknown})
	requireCode(t, err, apperror.CodeNotFound)
}

func TestDelete_ActiveOrderRestoresStockAndFreesTable(t *testing.T) {
	c := newCafe(t)
	table := c.Table("Window", 1)
	o, err := c.Services.Orders.Create(c.Ctx, orders.CreateInput{
		Type: orders.TypeDineIn, TableID: &table.ID, Items: []orders.ItemInput{item(c.latte, 1)},
	})
	require.NoError(t, err)

	require.NoError(t, c.Services.Orders.Delete(c.Ctx, o.ID))
	c.RequireStock(c.milk.ID, "1000")
	assert.False(t, c.TableOccupied(table.ID))

	_, err = c.Services.Orders.GetByID(c.Ctx, o.ID)
	requireCode(t, err, apperror.CodeNotFound)
}

func TestDelete_DeliveredOrderKeepsDetachedSale(t *testing.T) {
	c := newCafe(t)
	o := c.takeaway(t, item(c.coffee, 1))
	_, err := c.setStatus(o.ID, orders.StatusDelivered)
	require.NoError(t, err)

	list, err := c.Services.Sales.List(c.Ctx, sales.ListFilter{OrderID: &o.ID})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	saleID := list.Items[0].ID

	require.NoError(t, c.Services.Orders.Delete(c.Ctx, o.ID))
	c.RequireStock(c.sugar.ID, "90")

	sale, err := c.Services.Sales.GetByID(c.Ctx, saleID)
	require.NoError(t, err)
	assert.Nil(t, sale.OrderID)
}

func TestCreate_ConcurrentOrdersNeverOversell(t *testing.T) {
	c := newCafe(t)
	// 100 sugar covers exactly ten coffees.
	const attempts = 25

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		shortages int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Services.Orders.Create(c.Ctx, orders.CreateInput{
				Type: orders.TypeTakeaway, Items: []orders.ItemInput{item(c.coffee, 1)},
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if apperror.HasCode(err, apperror.CodeInsufficientStock) {
				shortages++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, attempts-10, shortages)
	c.RequireStock(c.sugar.ID, "0")
}

func TestCreate_ConcurrentClaimsOfOneTable(t *testing.T) {
	c := newCafe(t)
	table := c.Table("Window", 1)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Services.Orders.Create(c.Ctx, orders.CreateInput{
				Type: orders.TypeDineIn, TableID: &table.ID, Items: []orders.ItemInput{item(c.latte, 1)},
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	c.RequireStock(c.milk.ID, "800")
	assert.True(t, c.TableOccupied(table.ID))
}
