package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/domain/dining"
	"bistro/internal/domain/orders"
	"bistro/internal/infrastructure/storage/postgres"
)

// NewTableRepo creates the dining tables repository. Name and number form the unique key.
func NewTableRepo(txManager *postgres.TxManager) dining.TableRepository {
	return NewBaseRefRepo(txManager, RefRepoConfig[*dining.Table]{
		TableName:  "dining_tables",
		EntityName: "table",
		NewFn:      func() *dining.Table { return &dining.Table{} },
		UniqueKey: func(t *dining.Table) squirrel.Sqlizer {
			return squirrel.And{NameEquals(t.Name), squirrel.Eq{"number": t.Number}}
		},
		InUse: activeOrderUsage("table_id"),
	})
}

// NewZoneRepo creates the delivery zones repository.
func NewZoneRepo(txManager *postgres.TxManager) dining.ZoneRepository {
	return NewBaseRefRepo(txManager, RefRepoConfig[*dining.Zone]{
		TableName:  "zones",
		EntityName: "zone",
		NewFn:      func() *dining.Zone { return &dining.Zone{} },
		UniqueKey:  func(z *dining.Zone) squirrel.Sqlizer { return NameEquals(z.Name) },
		InUse:      activeOrderUsage("zone_id"),
	})
}

// NewDriverRepo creates the drivers repository.
func NewDriverRepo(txManager *postgres.TxManager) dining.DriverRepository {
	return NewBaseRefRepo(txManager, RefRepoConfig[*dining.Driver]{
		TableName:  "drivers",
		EntityName: "driver",
		NewFn:      func() *dining.Driver { return &dining.Driver{} },
		UniqueKey:  func(d *dining.Driver) squirrel.Sqlizer { return NameEquals(d.Name) },
		InUse:      activeOrderUsage("driver_id"),
	})
}

var _ orders.TableStore = (*TableStore)(nil)

// TableStore implements the occupancy side of dining tables.
type TableStore struct {
	txManager *postgres.TxManager
}

// NewTableStore creates a table store.
func NewTableStore(txManager *postgres.TxManager) *TableStore {
	return &TableStore{txManager: txManager}
}

// LockTable takes a row lock so two transactions cannot both claim a free table.
func (s *TableStore) LockTable(ctx context.Context, tableID id.ID) error {
	var locked id.ID
	q := postgres.Builder().
		Select("id").
		From("dining_tables").
		Where(squirrel.Eq{"id": tableID}).
		Suffix("FOR UPDATE")
	return postgres.Get(ctx, s.txManager.GetQuerier(ctx), &locked, q, "table", tableID.String())
}

func (s *TableStore) HasActiveOrder(ctx context.Context, tableID, excludeOrderID id.ID) (bool, error) {
	q := postgres.Builder().
		Select("1").
		From("orders").
		Where(squirrel.Eq{"table_id": tableID}).
		Where(squirrel.NotEq{"id": excludeOrderID}).
		Where(squirrel.Eq{"status": postgres.ActiveOrderStatuses})
	return postgres.Exists(ctx, s.txManager.GetQuerier(ctx), q)
}

func (s *TableStore) SetTableOccupied(ctx context.Context, tableID id.ID, occupied bool) error {
	q := postgres.Builder().
		Update("dining_tables").
		Set("is_occupied", occupied).
		Where(squirrel.Eq{"id": tableID})
	n, err := postgres.Exec(ctx, s.txManager.GetQuerier(ctx), q)
	if err != nil {
		return fmt.Errorf("set table occupied: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("table", tableID.String())
	}
	return nil
}
