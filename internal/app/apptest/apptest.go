// Package apptest builds a fully wired application over the in-memory store
// for service-level tests.
package apptest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"bistro/internal/app"
	appctx "bistro/internal/core/context"
	"bistro/internal/core/entity"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/catalog"
	"bistro/internal/domain/dining"
	"bistro/internal/domain/events"
	"bistro/internal/domain/inventory"
	"bistro/internal/infrastructure/storage/memory"
)

// Env is a wired application plus the store behind it.
type Env struct {
	t testing.TB

	Ctx      context.Context
	Store    *memory.Store
	Services *app.Services
}

// Option adjusts the application options before wiring.
type Option func(*app.Options)

// WithLowStockRule sets the CEL expression that flags low materials.
func WithLowStockRule(expr string) Option {
	return func(o *app.Options) { o.LowStockRule = expr }
}

// New creates an empty application. The context carries an admin user.
func New(t testing.TB, opts ...Option) *Env {
	t.Helper()

	o := app.Options{
		OrderCodePrefix: "ORD",
		JWTSecret:       "test-secret-test-secret-test-secret",
	}
	for _, opt := range opts {
		opt(&o)
	}

	store := memory.New()
	svc, err := app.New(app.MemoryRepositories(store), o)
	require.NoError(t, err)

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:   id.New().String(),
		Username: "tester",
		Role:     "admin",
		IsAdmin:  true,
	})
	return &Env{t: t, Ctx: ctx, Store: store, Services: svc}
}

// Material creates a material with the given stock and unit cost.
func (e *Env) Material(name, stock, cost string) *inventory.Material {
	e.t.Helper()
	m := inventory.NewMaterial()
	m.Name = name
	m.Unit = "g"
	m.Stock = types.MustQuantity(stock)
	m.Cost = types.MustMoney(cost)
	require.NoError(e.t, e.Services.Materials.Create(e.Ctx, m))
	return m
}

// Uses is a recipe line: qty of m per product unit.
func Uses(m *inventory.Material, qty string) catalog.RecipeItem {
	return catalog.RecipeItem{MaterialID: m.ID, Quantity: types.MustQuantity(qty)}
}

// Product creates an active product with the given recipe.
func (e *Env) Product(name, price string, recipe ...catalog.RecipeItem) *catalog.Product {
	e.t.Helper()
	p := catalog.NewProduct()
	p.Name = name
	p.Price = types.MustMoney(price)
	p.Recipe = recipe
	require.NoError(e.t, e.Services.Catalog.CreateProduct(e.Ctx, p))
	return p
}

// Table creates a dining table.
func (e *Env) Table(name string, number int) *dining.Table {
	e.t.Helper()
	t := &dining.Table{Base: entity.NewBase(), Name: name, Number: number, Seats: 4}
	require.NoError(e.t, e.Services.Dining.Tables.Create(e.Ctx, t))
	return t
}

// Zone creates a delivery zone.
func (e *Env) Zone(name, fee string) *dining.Zone {
	e.t.Helper()
	z := &dining.Zone{Base: entity.NewBase(), Name: name, Fee: types.MustMoney(fee)}
	require.NoError(e.t, e.Services.Dining.Zones.Create(e.Ctx, z))
	return z
}

// Driver creates an active driver.
func (e *Env) Driver(name string) *dining.Driver {
	e.t.Helper()
	d := &dining.Driver{Base: entity.NewBase(), Name: name, IsActive: true}
	require.NoError(e.t, e.Services.Dining.Drivers.Create(e.Ctx, d))
	return d
}

// InTx runs fn in one store transaction.
func (e *Env) InTx(fn func(ctx context.Context) error) error {
	return memory.NewTxManager(e.Store).RunInTransaction(e.Ctx, fn)
}

// Stock returns the current stock of a material.
func (e *Env) Stock(materialID id.ID) types.Quantity {
	e.t.Helper()
	m, err := e.Services.Materials.GetByID(e.Ctx, materialID)
	require.NoError(e.t, err)
	return m.Stock
}

// RequireStock asserts the stock of a material.
func (e *Env) RequireStock(materialID id.ID, want string) {
	e.t.Helper()
	got := e.Stock(materialID)
	require.Truef(e.t, got.Equal(types.MustQuantity(want)), "stock = %s, want %s", got, want)
}

// TableOccupied reports the cached occupancy flag of a table.
func (e *Env) TableOccupied(tableID id.ID) bool {
	e.t.Helper()
	t, err := e.Services.Dining.Tables.GetByID(e.Ctx, tableID)
	require.NoError(e.t, err)
	return t.IsOccupied
}

// Events returns every event written to the outbox so far.
func (e *Env) Events() []events.Event {
	return memory.NewOutbox(e.Store).Events()
}

// EventTypes returns the types of the outbox events in order.
func (e *Env) EventTypes() []string {
	evs := e.Events()
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}

// Money parses a decimal literal.
func Money(s string) types.Money {
	return types.MustMoney(s)
}
