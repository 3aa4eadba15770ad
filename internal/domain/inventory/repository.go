package inventory

import (
	"context"

	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain"
)

// ListFilter narrows material listings.
type ListFilter struct {
	domain.ListFilter

	// LowStockOnly keeps materials the low stock rule matches
	LowStockOnly bool
}

// Repository defines persistence for materials and their stock.
type Repository interface {
	Create(ctx context.Context, m *Material) error
	GetByID(ctx context.Context, id id.ID) (*Material, error)
	// GetForUpdate reads the material and holds its row until the transaction ends.
	GetForUpdate(ctx context.Context, id id.ID) (*Material, error)
	// GetByIDs returns the materials found; missing ids are simply absent from the map.
	GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*Material, error)
	Update(ctx context.Context, m *Material) error
	Delete(ctx context.Context, id id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Material], error)
	ListAll(ctx context.Context) ([]*Material, error)

	NameTaken(ctx context.Context, name string, excludeID id.ID) (bool, error)
	// InUse returns a non-empty reason when recipes, purchases or waste reference the material.
	InUse(ctx context.Context, id id.ID) (string, error)

	// IncrementStock adds qty (> 0) unconditionally. Missing material is NotFound.
	IncrementStock(ctx context.Context, id id.ID, qty types.Quantity) error

	// DecrementStock subtracts qty (> 0) only if stock >= qty, as one conditional update.
	// It returns false when the guard fails and NotFound when the material is missing.
	DecrementStock(ctx context.Context, id id.ID, qty types.Quantity) (bool, error)
}
