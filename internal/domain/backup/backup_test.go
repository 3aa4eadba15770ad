package backup_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/app/apptest"
	"bistro/internal/core/apperror"
	"bistro/internal/core/types"
	"bistro/internal/domain"
	"bistro/internal/domain/auth"
	"bistro/internal/domain/inventory"
	"bistro/internal/domain/orders"
	"bistro/internal/domain/purchases"
	"bistro/internal/domain/sales"
)

func TestExportRestore_RoundTrip(t *testing.T) {
	env := apptest.New(t)
	_, err := env.Services.Auth.EnsureAdmin(env.Ctx, "admin", "correct-horse")
	require.NoError(t, err)

	milk := env.Material("Milk", "1000", "0.002")
	latte := env.Product("Latte", "4.00", apptest.Uses(milk, "200"))
	table := env.Table("Terrace", 7)
	order, err := env.Services.Orders.Create(env.Ctx, orders.CreateInput{
		Type:    orders.TypeDineIn,
		TableID: &table.ID,
		Items:   []orders.ItemInput{{ProductID: latte.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	env.RequireStock(milk.ID, "600")

	var archive bytes.Buffer
	require.NoError(t, env.Services.Backup.Export(env.Ctx, &archive))

	cancelled := orders.StatusCancelled
	_, err = env.Services.Orders.Update(env.Ctx, order.ID, orders.UpdateInput{Status: &cancelled})
	require.NoError(t, err)
	env.Material("Cream", "50", "0.01")
	env.RequireStock(milk.ID, "1000")
	require.False(t, env.TableOccupied(table.ID))

	require.NoError(t, env.Services.Backup.Restore(env.Ctx, bytes.NewReader(archive.Bytes())))

	env.RequireStock(milk.ID, "600")
	assert.True(t, env.TableOccupied(table.ID))

	restored, err := env.Services.Orders.GetByID(env.Ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPreparing, restored.Status)
	assert.Equal(t, order.Code, restored.Code)
	require.Len(t, restored.Items, 1)
	assert.Equal(t, 2, restored.Items[0].Quantity)

	mats, err := env.Services.Materials.List(env.Ctx, inventory.ListFilter{ListFilter: domain.ListFilter{Search: "cream"}})
	require.NoError(t, err)
	assert.Empty(t, mats.Items)

	// Recipes survive, so new orders keep consuming stock.
	_, err = env.Services.Orders.Create(env.Ctx, orders.CreateInput{
		Type:  orders.TypeTakeaway,
		Items: []orders.ItemInput{{ProductID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	env.RequireStock(milk.ID, "400")

	// Password hashes survive too.
	_, err = env.Services.Auth.Login(env.Ctx, auth.Credentials{Username: "admin", Password: "correct-horse"})
	assert.NoError(t, err)
}

func TestRestore_IntoFreshStoreKeepsNumbering(t *testing.T) {
	src := apptest.New(t)
	milk := src.Material("Milk", "1000", "0.002")
	latte := src.Product("Latte", "4.00", apptest.Uses(milk, "200"))
	delivered := orders.StatusDelivered

	first, err := src.Services.Orders.Create(src.Ctx, orders.CreateInput{
		Type:  orders.TypeTakeaway,
		Items: []orders.ItemInput{{ProductID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = src.Services.Orders.Update(src.Ctx, first.ID, orders.UpdateInput{Status: &delivered})
	require.NoError(t, err)
	firstPurchase, err := src.Services.Purchases.Create(src.Ctx, purchases.Input{
		Status: purchases.StatusPosted,
		Items:  []purchases.Item{{MaterialID: milk.ID, Quantity: types.MustQuantity("100"), UnitCost: types.MustMoney("0.002")}},
	})
	require.NoError(t, err)

	var archive bytes.Buffer
	require.NoError(t, src.Services.Backup.Export(src.Ctx, &archive))

	dst := apptest.New(t)
	require.NoError(t, dst.Services.Backup.Restore(dst.Ctx, &archive))

	second, err := dst.Services.Orders.Create(dst.Ctx, orders.CreateInput{
		Type:  orders.TypeTakeaway,
		Items: []orders.ItemInput{{ProductID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = dst.Services.Orders.Update(dst.Ctx, second.ID, orders.UpdateInput{Status: &delivered})
	require.NoError(t, err)

	invoices, err := dst.Services.Sales.List(dst.Ctx, sales.ListFilter{})
	require.NoError(t, err)
	require.Len(t, invoices.Items, 2)
	numbers := []string{invoices.Items[0].InvoiceNo, invoices.Items[1].InvoiceNo}
	assert.NotEqual(t, numbers[0], numbers[1])
	for _, n := range numbers {
		assert.True(t, strings.HasSuffix(n, "-00001") || strings.HasSuffix(n, "-00002"), n)
	}

	p, err := dst.Services.Purchases.Create(dst.Ctx, purchases.Input{
		Items: []purchases.Item{{MaterialID: milk.ID, Quantity: types.MustQuantity("1"), UnitCost: types.MustMoney("0.002")}},
	})
	require.NoError(t, err)
	assert.NotEqual(t, firstPurchase.Number, p.Number)
	assert.True(t, strings.HasSuffix(p.Number, "-00002"), p.Number)
}

func TestRestore_RejectsBadArchives(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "1000", "0.002")

	var futureVersion bytes.Buffer
	enc, err := zstd.NewWriter(&futureVersion)
	require.NoError(t, err)
	_, err = enc.Write([]byte(`{"version":99,"tables":[]}`))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	tests := []struct {
		name string
		data []byte
	}{
		{name: "not zstd", data: []byte("definitely not an archive")},
		{name: "empty", data: nil},
		{name: "unknown version", data: futureVersion.Bytes()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.Services.Backup.Restore(env.Ctx, bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput), "got %v", err)
		})
	}

	env.RequireStock(milk.ID, "1000")
}

func TestExport_IsZstdJSON(t *testing.T) {
	env := apptest.New(t)
	env.Material("Flour", "5", "1")

	var archive bytes.Buffer
	require.NoError(t, env.Services.Backup.Export(env.Ctx, &archive))

	dec, err := zstd.NewReader(&archive)
	require.NoError(t, err)
	defer dec.Close()
	var plain bytes.Buffer
	_, err = plain.ReadFrom(dec)
	require.NoError(t, err)

	body := plain.String()
	assert.True(t, strings.HasPrefix(body, `{"version":1,`), body)
	assert.Contains(t, body, `"name":"materials"`)
	assert.Contains(t, body, "Flour")
}
