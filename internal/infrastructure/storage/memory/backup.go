package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"bistro/internal/core/id"
	"bistro/internal/domain/auth"
	"bistro/internal/domain/backup"
	"bistro/internal/domain/catalog"
	"bistro/internal/domain/dining"
	"bistro/internal/domain/inventory"
	"bistro/internal/domain/orders"
	"bistro/internal/domain/purchases"
	"bistro/internal/domain/sales"
	"bistro/internal/domain/waste"
)

var _ backup.Store = (*BackupStore)(nil)

// BackupStore implements backup.Store. Line items travel inside their parent
// record, so the *_items tables dump as empty arrays.
type BackupStore struct{ s *Store }

// NewBackupStore creates the backup store.
func NewBackupStore(s *Store) *BackupStore { return &BackupStore{s: s} }

// userRow keeps the password hash that auth.User hides from JSON.
type userRow struct {
	auth.User
	PasswordHash string `json:"passwordHash"`
}

func values[T any](m map[id.ID]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func (b *BackupStore) DumpTable(_ context.Context, name string) (json.RawMessage, error) {
	var (
		rows any
		err  error
	)
	b.s.read(func(st *state) {
		switch name {
		case "roles":
			rows = values(st.roles)
		case "users":
			us := make([]userRow, 0, len(st.users))
			for _, u := range st.users {
				us = append(us, userRow{User: *u, PasswordHash: u.PasswordHash})
			}
			rows = us
		case "materials":
			rows = values(st.materials)
		case "categories":
			rows = values(st.categories)
		case "products":
			rows = values(st.products)
		case "dining_tables":
			rows = values(st.tables)
		case "zones":
			rows = values(st.zones)
		case "drivers":
			rows = values(st.drivers)
		case "orders":
			rows = values(st.orders)
		case "sales":
			rows = values(st.sales)
		case "purchases":
			rows = values(st.purchases)
		case "waste":
			rows = values(st.waste)
		case "recipe_items", "order_items", "sale_items", "purchase_items":
			rows = []struct{}{}
		default:
			err = fmt.Errorf("unknown table %q", name)
		}
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(rows)
}

func (b *BackupStore) ClearTable(ctx context.Context, name string) error {
	return b.s.write(ctx, func(st *state) error {
		switch name {
		case "roles":
			st.roles = map[id.ID]*auth.Role{}
		case "users":
			st.users = map[id.ID]*auth.User{}
			st.sessions = map[string]*auth.Session{}
		case "materials":
			st.materials = map[id.ID]*inventory.Material{}
		case "categories":
			st.categories = map[id.ID]*catalog.Category{}
		case "products":
			st.products = map[id.ID]*catalog.Product{}
		case "dining_tables":
			st.tables = map[id.ID]*dining.Table{}
		case "zones":
			st.zones = map[id.ID]*dining.Zone{}
		case "drivers":
			st.drivers = map[id.ID]*dining.Driver{}
		case "orders":
			st.orders = map[id.ID]*orders.Order{}
		case "sales":
			st.sales = map[id.ID]*sales.Sale{}
		case "purchases":
			st.purchases = map[id.ID]*purchases.Purchase{}
		case "waste":
			st.waste = map[id.ID]*waste.Waste{}
		case "recipe_items", "order_items", "sale_items", "purchase_items":
		default:
			return fmt.Errorf("unknown table %q", name)
		}
		return nil
	})
}

func (b *BackupStore) LoadTable(ctx context.Context, name string, raw json.RawMessage) (int64, error) {
	var n int64
	err := b.s.write(ctx, func(st *state) error {
		switch name {
		case "roles":
			return load(raw, st.roles, &n, func(r *auth.Role) id.ID { return r.ID })
		case "users":
			var rows []userRow
			if err := json.Unmarshal(raw, &rows); err != nil {
				return err
			}
			for _, row := range rows {
				u := row.User
				u.PasswordHash = row.PasswordHash
				st.users[u.ID] = &u
				n++
			}
			return nil
		case "materials":
			return load(raw, st.materials, &n, func(m *inventory.Material) id.ID { return m.ID })
		case "categories":
			return load(raw, st.categories, &n, func(c *catalog.Category) id.ID { return c.ID })
		case "products":
			return load(raw, st.products, &n, func(p *catalog.Product) id.ID {
				for i := range p.Recipe {
					p.Recipe[i].ProductID = p.ID
				}
				return p.ID
			})
		case "dining_tables":
			return load(raw, st.tables, &n, func(t *dining.Table) id.ID { return t.ID })
		case "zones":
			return load(raw, st.zones, &n, func(z *dining.Zone) id.ID { return z.ID })
		case "drivers":
			return load(raw, st.drivers, &n, func(d *dining.Driver) id.ID { return d.ID })
		case "orders":
			return load(raw, st.orders, &n, func(o *orders.Order) id.ID {
				for i := range o.Items {
					o.Items[i].OrderID = o.ID
				}
				return o.ID
			})
		case "sales":
			return load(raw, st.sales, &n, func(s *sales.Sale) id.ID {
				for i := range s.Items {
					s.Items[i].SaleID = s.ID
				}
				return s.ID
			})
		case "purchases":
			return load(raw, st.purchases, &n, func(p *purchases.Purchase) id.ID {
				for i := range p.Items {
					p.Items[i].PurchaseID = p.ID
				}
				return p.ID
			})
		case "waste":
			return load(raw, st.waste, &n, func(w *waste.Waste) id.ID { return w.ID })
		case "recipe_items", "order_items", "sale_items", "purchase_items":
			return nil
		}
		return fmt.Errorf("unknown table %q", name)
	})
	return n, err
}

func load[T any](raw json.RawMessage, into map[id.ID]*T, n *int64, key func(*T) id.ID) error {
	var rows []*T
	if err := json.Unmarshal(raw, &rows); err != nil {
		return err
	}
	for _, row := range rows {
		into[key(row)] = row
		*n++
	}
	return nil
}
