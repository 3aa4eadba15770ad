package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"bistro/internal/core/id"
	"bistro/internal/domain/catalog"
	"bistro/internal/infrastructure/storage/postgres"
)

// NewCategoryRepo creates the categories repository.
func NewCategoryRepo(txManager *postgres.TxManager) catalog.CategoryRepository {
	return NewBaseRefRepo(txManager, RefRepoConfig[*catalog.Category]{
		TableName:  "categories",
		EntityName: "category",
		NewFn:      func() *catalog.Category { return &catalog.Category{} },
		UniqueKey:  func(c *catalog.Category) squirrel.Sqlizer { return NameEquals(c.Name) },
		InUse: func(ctx context.Context, q postgres.Querier, categoryID id.ID) (string, error) {
			name, err := firstMatch(ctx, q, postgres.Builder().
				Select("name").
				From("products").
				Where(squirrel.Eq{"category_id": categoryID}))
			if err != nil || name == "" {
				return "", err
			}
			return "category has products", nil
		},
	})
}
