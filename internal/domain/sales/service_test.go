package sales_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/app/apptest"
	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/sales"
	"bistro/internal/infrastructure/storage/memory"
	"bistro/pkg/numerator"
)

var day = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func manual(status sales.Status) sales.Input {
	return sales.Input{
		Date:         day,
		CustomerName: " Walk-in ",
		Status:       status,
		Items: []sales.Item{
			{Name: "Croissant", Quantity: types.MustQuantity("3"), Price: types.MustMoney("2.20")},
			{Name: "Juice", Quantity: types.MustQuantity("1"), Price: types.MustMoney("3.40")},
		},
		Discount: types.MustMoney("1"),
		TaxRate:  types.MustMoney("5"),
	}
}

func TestCreate_ComputesTotalsAndNumbers(t *testing.T) {
	env := apptest.New(t)

	first, err := env.Services.Sales.Create(env.Ctx, manual(""))
	require.NoError(t, err)
	assert.Equal(t, sales.StatusDraft, first.Status)
	assert.Equal(t, "Walk-in", first.CustomerName)
	assert.Equal(t, "INV-2026-00001", first.InvoiceNo)
	assert.True(t, first.Subtotal.Equal(types.MustMoney("10")), "subtotal %s", first.Subtotal)
	assert.True(t, first.TaxAmount.Equal(types.MustMoney("0.45")), "tax %s", first.TaxAmount)
	assert.True(t, first.Total.Equal(types.MustMoney("9.45")), "total %s", first.Total)
	require.Len(t, first.Items, 2)
	assert.Equal(t, 2, first.Items[1].LineNo)

	second, err := env.Services.Sales.Create(env.Ctx, manual(sales.StatusPaid))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00002", second.InvoiceNo)
}

func TestCreate_Rejects(t *testing.T) {
	env := apptest.New(t)

	_, err := env.Services.Sales.Create(env.Ctx, manual(sales.StatusVoid))
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	in := manual("")
	in.Items = nil
	_, err = env.Services.Sales.Create(env.Ctx, in)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	in = manual("")
	in.Items[0].Quantity = types.MustQuantity("0")
	_, err = env.Services.Sales.Create(env.Ctx, in)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}

func TestUpdateVoidDelete(t *testing.T) {
	env := apptest.New(t)
	s, err := env.Services.Sales.Create(env.Ctx, manual(""))
	require.NoError(t, err)

	in := manual(sales.StatusPaid)
	in.Items = in.Items[:1]
	in.Discount = types.Zero()
	in.TaxRate = types.Zero()
	updated, err := env.Services.Sales.Update(env.Ctx, s.ID, in)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusPaid, updated.Status)
	assert.True(t, updated.Total.Equal(types.MustMoney("6.6")), "total %s", updated.Total)
	assert.Equal(t, s.InvoiceNo, updated.InvoiceNo)

	voided, err := env.Services.Sales.Void(env.Ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusVoid, voided.Status)

	require.NoError(t, env.Services.Sales.Delete(env.Ctx, s.ID))
	_, err = env.Services.Sales.GetByID(env.Ctx, s.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestList_FiltersByStatus(t *testing.T) {
	env := apptest.New(t)
	_, err := env.Services.Sales.Create(env.Ctx, manual(""))
	require.NoError(t, err)
	_, err = env.Services.Sales.Create(env.Ctx, manual(sales.StatusPaid))
	require.NoError(t, err)

	paid := sales.StatusPaid
	res, err := env.Services.Sales.List(env.Ctx, sales.ListFilter{Status: &paid})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.TotalCount)
}

func TestMaterialize_IsUpsert(t *testing.T) {
	store := memory.New()
	repo := memory.NewSaleRepo(store)
	m := sales.NewMaterializer(repo, numerator.New(memory.NewSequences(store)), nil)
	ctx := apptest.New(t).Ctx

	orderID := id.New()
	snap := sales.OrderSnapshot{
		OrderID:       orderID,
		OrderCode:     "ORD-260314-AB12",
		PaymentMethod: "CARD",
		DeliveredAt:   day,
		Lines: []sales.OrderLine{
			{Name: "Latte", Quantity: 2, UnitPrice: types.MustMoney("4"), Total: types.MustMoney("8")},
		},
		DeliveryFee: types.MustMoney("2"),
	}

	first, err := m.Materialize(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusPaid, first.Status)
	assert.Equal(t, "Order ORD-260314-AB12", first.Notes)
	assert.True(t, first.Total.Equal(types.MustMoney("10")))

	snap.Lines = append(snap.Lines, sales.OrderLine{Name: "Cookie", Quantity: 1, UnitPrice: types.MustMoney("1.5")})
	second, err := m.Materialize(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.InvoiceNo, second.InvoiceNo)
	assert.True(t, second.Total.Equal(types.MustMoney("11.5")))

	res, err := repo.List(ctx, sales.ListFilter{OrderID: &orderID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.TotalCount)
	require.Len(t, res.Items[0].Items, 2)
}
