package purchases

import (
	"context"
	"time"

	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/domain/inventory"
)

// ListFilter narrows purchase listings. Search matches number and supplier.
type ListFilter struct {
	domain.ListFilter

	Status *Status
	From   *time.Time
	To     *time.Time
}

// Repository defines persistence for purchases. Purchases returned carry their items.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	GetByID(ctx context.Context, id id.ID) (*Purchase, error)
	GetForUpdate(ctx context.Context, id id.ID) (*Purchase, error)
	Update(ctx context.Context, p *Purchase) error
	ReplaceItems(ctx context.Context, purchaseID id.ID, items []Item) error
	Delete(ctx context.Context, id id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Purchase], error)
}

// MaterialReader checks referenced materials exist.
type MaterialReader interface {
	GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*inventory.Material, error)
}

// StockLedger applies stock movements inside the caller's transaction.
type StockLedger interface {
	ApplyDeltas(ctx context.Context, deltas inventory.Deltas) error
}

// NumberGenerator issues sequential document numbers.
type NumberGenerator interface {
	Next(ctx context.Context, prefix string, at time.Time) (string, error)
}
