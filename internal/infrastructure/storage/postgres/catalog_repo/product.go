package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/domain/catalog"
	"bistro/internal/infrastructure/storage/postgres"
)

const (
	productsTable = "products"
	recipeTable   = "recipe_items"
)

var recipeCols = []string{"product_id", "line_no", "material_id", "quantity"}

var _ catalog.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implements catalog.ProductRepository. Recipes live in recipe_items.
type ProductRepo struct {
	txManager  *postgres.TxManager
	lines      *postgres.LineWriter
	selectCols []string
}

// NewProductRepo creates a product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txManager:  txManager,
		lines:      postgres.NewLineWriter(txManager),
		selectCols: postgres.ExtractDBColumns[catalog.Product](),
	}
}

func (r *ProductRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *ProductRepo) baseSelect() squirrel.SelectBuilder {
	return postgres.Builder().Select(r.selectCols...).From(productsTable)
}

func recipeRows(productID id.ID, items []catalog.RecipeItem) [][]any {
	rows := make([][]any, len(items))
	for i, it := range items {
		rows[i] = []any{productID, i + 1, it.MaterialID, it.Quantity}
	}
	return rows
}

func (r *ProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	q := postgres.Builder().
		Insert(productsTable).
		SetMap(postgres.Columns(postgres.StructToMap(p), r.selectCols))
	if _, err := postgres.Exec(ctx, r.querier(ctx), q); err != nil {
		return postgres.MapError(fmt.Errorf("insert product: %w", err), "product")
	}
	if err := r.lines.Insert(ctx, recipeTable, recipeCols, recipeRows(p.ID, p.Recipe)); err != nil {
		return postgres.MapError(err, "recipe")
	}
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	var p catalog.Product
	q := r.baseSelect().Where(squirrel.Eq{"id": productID})
	if err := postgres.Get(ctx, r.querier(ctx), &p, q, "product", productID.String()); err != nil {
		return nil, err
	}
	if err := r.attachRecipes(ctx, []*catalog.Product{&p}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*catalog.Product, error) {
	out := make(map[id.ID]*catalog.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []*catalog.Product
	if err := postgres.Select(ctx, r.querier(ctx), &items, r.baseSelect().Where(squirrel.Eq{"id": ids})); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	if err := r.attachRecipes(ctx, items); err != nil {
		return nil, err
	}
	for _, p := range items {
		out[p.ID] = p
	}
	return out, nil
}

// Update writes the product header; the recipe is replaced separately.
func (r *ProductRepo) Update(ctx context.Context, p *catalog.Product) error {
	q := postgres.Builder().
		Update(productsTable).
		SetMap(postgres.Columns(postgres.StructToMap(p), r.selectCols, "id", "created_at")).
		Where(squirrel.Eq{"id": p.ID})
	n, err := postgres.Exec(ctx, r.querier(ctx), q)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update product: %w", err), "product")
	}
	if n == 0 {
		return apperror.NewNotFound("product", p.ID.String())
	}
	return nil
}

func (r *ProductRepo) ReplaceRecipe(ctx context.Context, productID id.ID, items []catalog.RecipeItem) error {
	if err := r.lines.Replace(ctx, recipeTable, "product_id", productID, recipeCols, recipeRows(productID, items)); err != nil {
		return postgres.MapError(err, "recipe")
	}
	return nil
}

// Delete removes the product; its recipe goes with it through ON DELETE CASCADE.
func (r *ProductRepo) Delete(ctx context.Context, productID id.ID) error {
	n, err := postgres.Exec(ctx, r.querier(ctx), postgres.Builder().Delete(productsTable).Where(squirrel.Eq{"id": productID}))
	if err != nil {
		return postgres.MapError(fmt.Errorf("delete product: %w", err), "product")
	}
	if n == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}

func (r *ProductRepo) listQuery(filter catalog.ProductFilter) squirrel.SelectBuilder {
	q := r.baseSelect()
	if filter.Search != "" {
		q = q.Where(postgres.ILike(filter.Search, "name"))
	}
	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if filter.CategoryID != nil {
		q = q.Where(squirrel.Eq{"category_id": *filter.CategoryID})
	}
	return q
}

func (r *ProductRepo) List(ctx context.Context, filter catalog.ProductFilter) (domain.ListResult[*catalog.Product], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	q := r.listQuery(filter)

	total, err := postgres.Count(ctx, r.querier(ctx), q)
	if err != nil {
		return domain.ListResult[*catalog.Product]{}, err
	}

	var items []*catalog.Product
	q = q.OrderBy("lower(name)", "id").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))
	if err := postgres.Select(ctx, r.querier(ctx), &items, q); err != nil {
		return domain.ListResult[*catalog.Product]{}, fmt.Errorf("list products: %w", err)
	}
	if err := r.attachRecipes(ctx, items); err != nil {
		return domain.ListResult[*catalog.Product]{}, err
	}
	return domain.NewListResult(items, total, filter.ListFilter), nil
}

func (r *ProductRepo) NameTaken(ctx context.Context, name string, excludeID id.ID) (bool, error) {
	q := postgres.Builder().
		Select("1").
		From(productsTable).
		Where(NameEquals(name)).
		Where(squirrel.NotEq{"id": excludeID})
	return postgres.Exists(ctx, r.querier(ctx), q)
}

func (r *ProductRepo) InUse(ctx context.Context, productID id.ID) (string, error) {
	code, err := firstMatch(ctx, r.querier(ctx), postgres.Builder().
		Select("o.code").
		From("order_items oi").
		Join("orders o ON o.id = oi.order_id").
		Where(squirrel.Eq{"oi.product_id": productID}))
	if err != nil || code == "" {
		return "", err
	}
	return "referenced by order " + code, nil
}

// attachRecipes loads the recipes of products in one query.
func (r *ProductRepo) attachRecipes(ctx context.Context, products []*catalog.Product) error {
	if len(products) == 0 {
		return nil
	}
	byID := make(map[id.ID]*catalog.Product, len(products))
	ids := make([]id.ID, len(products))
	for i, p := range products {
		p.Recipe = []catalog.RecipeItem{}
		byID[p.ID] = p
		ids[i] = p.ID
	}

	var lines []catalog.RecipeItem
	q := postgres.Builder().
		Select(recipeCols...).
		From(recipeTable).
		Where(squirrel.Eq{"product_id": ids}).
		OrderBy("product_id", "line_no")
	if err := postgres.Select(ctx, r.querier(ctx), &lines, q); err != nil {
		return fmt.Errorf("load recipes: %w", err)
	}
	for _, line := range lines {
		if p, ok := byID[line.ProductID]; ok {
			p.Recipe = append(p.Recipe, line)
		}
	}
	return nil
}
