package notifications_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/app/apptest"
	"bistro/internal/core/types"
	"bistro/internal/domain/notifications"
	"bistro/internal/domain/orders"
	"bistro/internal/domain/sales"
)

func TestCounts(t *testing.T) {
	env := apptest.New(t)
	milk := env.Material("Milk", "300", "0.002")
	env.Material("Cups", "0", "0.1")
	latte := env.Product("Latte", "4", apptest.Uses(milk, "300"))

	_, err := env.Services.Orders.Create(env.Ctx, orders.CreateInput{
		Type:  orders.TypeTakeaway,
		Items: []orders.ItemInput{{ProductID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = env.Services.Sales.Create(env.Ctx, sales.Input{
		Items: []sales.Item{{Name: "Gift card", Quantity: types.MustQuantity("1"), Price: types.MustMoney("20")}},
	})
	require.NoError(t, err)

	counts, err := env.Services.Notifications.Counts(env.Ctx)
	require.NoError(t, err)
	assert.Equal(t, notifications.Counts{LowStock: 2, PendingOrders: 1, DraftSales: 1}, counts)

	low, err := env.Services.Notifications.LowStock(env.Ctx)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Cups", low[0].Name)
}

func TestHub_FansOutSnapshots(t *testing.T) {
	env := apptest.New(t)
	env.Material("Cups", "0", "0.1")

	hub := notifications.NewHub(env.Services.Notifications, 10*time.Millisecond)
	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(env.Ctx)
	defer cancel()
	go hub.Run(ctx)

	select {
	case c := <-ch:
		assert.Equal(t, 1, c.LowStock)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot received")
	}

	// A late subscriber gets the last snapshot right away.
	late, unsubscribeLate := hub.Subscribe()
	select {
	case c := <-late:
		assert.Equal(t, 1, c.LowStock)
	case <-time.After(time.Second):
		t.Fatal("late subscriber got nothing")
	}

	unsubscribeLate()
	unsubscribeLate()
	for range late {
		// Drains whatever was buffered; the loop ends only once the channel is closed.
	}
}
