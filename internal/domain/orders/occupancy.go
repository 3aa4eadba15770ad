package orders

import (
	"context"
	"fmt"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
)

// OccupancyTracker keeps dining_tables.is_occupied equal to
// "an order with an active status references this table".
type OccupancyTracker struct {
	store TableStore
}

// NewOccupancyTracker creates a tracker.
func NewOccupancyTracker(store TableStore) *OccupancyTracker {
	return &OccupancyTracker{store: store}
}

// Claim locks the table and verifies no other active order holds it.
// Concurrent claims of one table serialize on the row lock.
func (t *OccupancyTracker) Claim(ctx context.Context, tableID, orderID id.ID) error {
	if err := t.store.LockTable(ctx, tableID); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("table", tableID.String())
		}
		return fmt.Errorf("lock table: %w", err)
	}

	busy, err := t.store.HasActiveOrder(ctx, tableID, orderID)
	if err != nil {
		return fmt.Errorf("check table occupancy: %w", err)
	}
	if busy {
		return apperror.NewTableOccupied(tableID.String())
	}
	return nil
}

// Recompute rewrites the occupancy flag of every given table from the orders.
// Nil entries are skipped, so callers can pass old and new table ids as they are.
// A table deleted since the order referenced it has no flag left to update.
func (t *OccupancyTracker) Recompute(ctx context.Context, tableIDs ...*id.ID) error {
	var ids []id.ID
	for _, tid := range tableIDs {
		if tid != nil {
			ids = append(ids, *tid)
		}
	}

	for _, tid := range id.Unique(ids) {
		occupied, err := t.store.HasActiveOrder(ctx, tid, id.Nil())
		if err != nil {
			return fmt.Errorf("recompute occupancy of %s: %w", tid, err)
		}
		if err := t.store.SetTableOccupied(ctx, tid, occupied); err != nil {
			if apperror.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("recompute occupancy of %s: %w", tid, err)
		}
	}
	return nil
}
