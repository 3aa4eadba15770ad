package orders

import (
	"context"
	"time"

	"bistro/internal/core/id"
	"bistro/internal/domain"
)

// ListFilter narrows order listings. Search matches code and customer name.
type ListFilter struct {
	domain.ListFilter

	Statuses []Status
	Type     *Type
	TableID  *id.ID
	DriverID *id.ID
	From     *time.Time
	To       *time.Time
}

// Repository defines persistence for orders. Orders returned carry their items.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id id.ID) (*Order, error)
	// GetForUpdate loads the order and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, id id.ID) (*Order, error)
	// Update writes the order header. Items are immutable after creation.
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

// TableStore is the table side of occupancy tracking.
type TableStore interface {
	// LockTable locks the table row for the rest of the transaction; NotFound if missing.
	LockTable(ctx context.Context, tableID id.ID) error
	// HasActiveOrder reports whether an order other than excludeOrderID with an
	// active status references the table.
	HasActiveOrder(ctx context.Context, tableID, excludeOrderID id.ID) (bool, error)
	SetTableOccupied(ctx context.Context, tableID id.ID, occupied bool) error
}
