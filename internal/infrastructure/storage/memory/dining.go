package memory

import (
	"context"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/domain/dining"
	"bistro/internal/domain/orders"
)

// NewTableRepo creates a dining table repository. Name and number form the unique key.
func NewTableRepo(s *Store) dining.TableRepository {
	return &refRepo[*dining.Table]{
		s:      s,
		entity: "table",
		table:  func(st *state) map[id.ID]*dining.Table { return st.tables },
		clone:  shallow[dining.Table],
		name:   func(t *dining.Table) string { return t.Name },
		sameKey: func(a, b *dining.Table) bool {
			return equalFold(a.Name, b.Name) && a.Number == b.Number
		},
		inUse: func(st *state, tableID id.ID) string {
			return activeOrderReason(st, func(o *orders.Order) bool { return id.Equal(o.TableID, &tableID) })
		},
		detach: func(st *state, tableID id.ID) {
			detachOrders(st, func(o *orders.Order) bool { return id.Equal(o.TableID, &tableID) },
				func(o *orders.Order) { o.TableID = nil })
		},
	}
}

// NewZoneRepo creates a delivery zone repository.
func NewZoneRepo(s *Store) dining.ZoneRepository {
	return &refRepo[*dining.Zone]{
		s:      s,
		entity: "zone",
		table:  func(st *state) map[id.ID]*dining.Zone { return st.zones },
		clone:  shallow[dining.Zone],
		name:   func(z *dining.Zone) string { return z.Name },
		sameKey: func(a, b *dining.Zone) bool {
			return equalFold(a.Name, b.Name)
		},
		inUse: func(st *state, zoneID id.ID) string {
			return activeOrderReason(st, func(o *orders.Order) bool { return id.Equal(o.ZoneID, &zoneID) })
		},
		detach: func(st *state, zoneID id.ID) {
			detachOrders(st, func(o *orders.Order) bool { return id.Equal(o.ZoneID, &zoneID) },
				func(o *orders.Order) { o.ZoneID = nil })
		},
	}
}

// NewDriverRepo creates a driver repository.
func NewDriverRepo(s *Store) dining.DriverRepository {
	return &refRepo[*dining.Driver]{
		s:      s,
		entity: "driver",
		table:  func(st *state) map[id.ID]*dining.Driver { return st.drivers },
		clone:  shallow[dining.Driver],
		name:   func(d *dining.Driver) string { return d.Name },
		sameKey: func(a, b *dining.Driver) bool {
			return equalFold(a.Name, b.Name)
		},
		inUse: func(st *state, driverID id.ID) string {
			return activeOrderReason(st, func(o *orders.Order) bool { return id.Equal(o.DriverID, &driverID) })
		},
		detach: func(st *state, driverID id.ID) {
			detachOrders(st, func(o *orders.Order) bool { return id.Equal(o.DriverID, &driverID) },
				func(o *orders.Order) { o.DriverID = nil })
		},
	}
}

func activeOrderReason(st *state, match func(o *orders.Order) bool) string {
	for _, o := range st.orders {
		if isActiveOrder(o) && match(o) {
			return "referenced by active order " + o.Code
		}
	}
	return ""
}

// detachOrders clears a deleted reference on the orders that still carry it,
// matching ON DELETE SET NULL. Only terminal orders can reach here.
func detachOrders(st *state, match func(o *orders.Order) bool, clear func(o *orders.Order)) {
	for orderID, o := range st.orders {
		if match(o) {
			c := *o
			clear(&c)
			st.orders[orderID] = &c
		}
	}
}

var _ orders.TableStore = (*TableStore)(nil)

// TableStore implements orders.TableStore. Transactions are already
// serialized, so locking a table only checks that it exists.
type TableStore struct{ s *Store }

// NewTableStore creates the occupancy side of the table repository.
func NewTableStore(s *Store) *TableStore { return &TableStore{s: s} }

func (t *TableStore) LockTable(_ context.Context, tableID id.ID) error {
	found := false
	t.s.read(func(st *state) {
		_, found = st.tables[tableID]
	})
	if !found {
		return apperror.NewNotFound("table", tableID.String())
	}
	return nil
}

func (t *TableStore) HasActiveOrder(_ context.Context, tableID, excludeOrderID id.ID) (bool, error) {
	busy := false
	t.s.read(func(st *state) {
		for _, o := range st.orders {
			if o.ID != excludeOrderID && isActiveOrder(o) && o.TableID != nil && *o.TableID == tableID {
				busy = true
				return
			}
		}
	})
	return busy, nil
}

func (t *TableStore) SetTableOccupied(ctx context.Context, tableID id.ID, occupied bool) error {
	return t.s.write(ctx, func(st *state) error {
		tbl, ok := st.tables[tableID]
		if !ok {
			return apperror.NewNotFound("table", tableID.String())
		}
		c := *tbl
		c.IsOccupied = occupied
		st.tables[tableID] = &c
		return nil
	})
}
