package catalog

import (
	"context"

	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/domain/inventory"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	domain.ListFilter

	CategoryID *id.ID
	ActiveOnly bool
}

// ProductRepository defines persistence for products and their recipes.
// Products returned by every Get/List method carry their recipe.
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id id.ID) (*Product, error)
	// GetByIDs returns the products found; missing ids are absent from the map.
	GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*Product, error)
	Update(ctx context.Context, p *Product) error
	// ReplaceRecipe deletes the stored recipe and inserts items in its place.
	ReplaceRecipe(ctx context.Context, productID id.ID, items []RecipeItem) error
	Delete(ctx context.Context, id id.ID) error
	List(ctx context.Context, filter ProductFilter) (domain.ListResult[*Product], error)

	NameTaken(ctx context.Context, name string, excludeID id.ID) (bool, error)
	// InUse returns a non-empty reason when order items reference the product.
	InUse(ctx context.Context, id id.ID) (string, error)
}

// CategoryRepository defines persistence for categories.
type CategoryRepository interface {
	domain.ReferenceRepository[*Category]
}

// MaterialReader is the slice of the inventory repository costing needs.
type MaterialReader interface {
	GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*inventory.Material, error)
}
