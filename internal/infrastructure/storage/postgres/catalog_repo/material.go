package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain"
	"bistro/internal/domain/inventory"
	"bistro/internal/infrastructure/storage/postgres"
)

const materialsTable = "materials"

var _ inventory.Repository = (*MaterialRepo)(nil)

// MaterialRepo implements inventory.Repository.
type MaterialRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewMaterialRepo creates a material repository.
func NewMaterialRepo(txManager *postgres.TxManager) *MaterialRepo {
	return &MaterialRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[inventory.Material](),
	}
}

func (r *MaterialRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *MaterialRepo) baseSelect() squirrel.SelectBuilder {
	return postgres.Builder().Select(r.selectCols...).From(materialsTable)
}

func (r *MaterialRepo) Create(ctx context.Context, m *inventory.Material) error {
	q := postgres.Builder().
		Insert(materialsTable).
		SetMap(postgres.Columns(postgres.StructToMap(m), r.selectCols))
	if _, err := postgres.Exec(ctx, r.querier(ctx), q); err != nil {
		return postgres.MapError(fmt.Errorf("insert material: %w", err), "material")
	}
	return nil
}

func (r *MaterialRepo) getQuery(materialID id.ID, lock bool) squirrel.SelectBuilder {
	q := r.baseSelect().Where(squirrel.Eq{"id": materialID})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

func (r *MaterialRepo) get(ctx context.Context, materialID id.ID, lock bool) (*inventory.Material, error) {
	var m inventory.Material
	if err := postgres.Get(ctx, r.querier(ctx), &m, r.getQuery(materialID, lock), "material", materialID.String()); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MaterialRepo) GetByID(ctx context.Context, materialID id.ID) (*inventory.Material, error) {
	return r.get(ctx, materialID, false)
}

// GetForUpdate blocks concurrent stock updates on the row until the caller's transaction ends.
func (r *MaterialRepo) GetForUpdate(ctx context.Context, materialID id.ID) (*inventory.Material, error) {
	return r.get(ctx, materialID, true)
}

func (r *MaterialRepo) GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*inventory.Material, error) {
	out := make(map[id.ID]*inventory.Material, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []*inventory.Material
	if err := postgres.Select(ctx, r.querier(ctx), &items, r.baseSelect().Where(squirrel.Eq{"id": ids})); err != nil {
		return nil, fmt.Errorf("get materials: %w", err)
	}
	for _, m := range items {
		out[m.ID] = m
	}
	return out, nil
}

// Update rewrites the descriptive columns. Stock is written too so a
// stocktake can set it absolutely; callers read the row with GetForUpdate first.
func (r *MaterialRepo) Update(ctx context.Context, m *inventory.Material) error {
	q := postgres.Builder().
		Update(materialsTable).
		SetMap(postgres.Columns(postgres.StructToMap(m), r.selectCols, "id", "created_at")).
		Where(squirrel.Eq{"id": m.ID})
	n, err := postgres.Exec(ctx, r.querier(ctx), q)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update material: %w", err), "material")
	}
	if n == 0 {
		return apperror.NewNotFound("material", m.ID.String())
	}
	return nil
}

func (r *MaterialRepo) Delete(ctx context.Context, materialID id.ID) error {
	n, err := postgres.Exec(ctx, r.querier(ctx), postgres.Builder().Delete(materialsTable).Where(squirrel.Eq{"id": materialID}))
	if err != nil {
		return postgres.MapError(fmt.Errorf("delete material: %w", err), "material")
	}
	if n == 0 {
		return apperror.NewNotFound("material", materialID.String())
	}
	return nil
}

func (r *MaterialRepo) listQuery(filter domain.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()
	if filter.Search != "" {
		q = q.Where(postgres.ILike(filter.Search, "name"))
	}
	return q
}

func (r *MaterialRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*inventory.Material], error) {
	filter = filter.Normalize()
	q := r.listQuery(filter)

	total, err := postgres.Count(ctx, r.querier(ctx), q)
	if err != nil {
		return domain.ListResult[*inventory.Material]{}, err
	}

	var items []*inventory.Material
	q = q.OrderBy("lower(name)", "id").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))
	if err := postgres.Select(ctx, r.querier(ctx), &items, q); err != nil {
		return domain.ListResult[*inventory.Material]{}, fmt.Errorf("list materials: %w", err)
	}
	return domain.NewListResult(items, total, filter), nil
}

func (r *MaterialRepo) ListAll(ctx context.Context) ([]*inventory.Material, error) {
	var items []*inventory.Material
	if err := postgres.Select(ctx, r.querier(ctx), &items, r.baseSelect().OrderBy("lower(name)", "id")); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return items, nil
}

func (r *MaterialRepo) NameTaken(ctx context.Context, name string, excludeID id.ID) (bool, error) {
	q := postgres.Builder().
		Select("1").
		From(materialsTable).
		Where(NameEquals(name)).
		Where(squirrel.NotEq{"id": excludeID})
	return postgres.Exists(ctx, r.querier(ctx), q)
}

func (r *MaterialRepo) InUse(ctx context.Context, materialID id.ID) (string, error) {
	q := r.querier(ctx)

	product, err := firstMatch(ctx, q, postgres.Builder().
		Select("p.name").
		From("recipe_items ri").
		Join("products p ON p.id = ri.product_id").
		Where(squirrel.Eq{"ri.material_id": materialID}))
	if err != nil {
		return "", err
	}
	if product != "" {
		return "used in recipe of product " + product, nil
	}

	number, err := firstMatch(ctx, q, postgres.Builder().
		Select("p.number").
		From("purchase_items pi").
		Join("purchases p ON p.id = pi.purchase_id").
		Where(squirrel.Eq{"pi.material_id": materialID}))
	if err != nil {
		return "", err
	}
	if number != "" {
		return "referenced by purchase " + number, nil
	}

	wasted, err := postgres.Exists(ctx, q, postgres.Builder().
		Select("1").
		From("waste").
		Where(squirrel.Eq{"material_id": materialID}))
	if err != nil {
		return "", err
	}
	if wasted {
		return "referenced by waste records", nil
	}
	return "", nil
}

func (r *MaterialRepo) IncrementStock(ctx context.Context, materialID id.ID, qty types.Quantity) error {
	q := postgres.Builder().
		Update(materialsTable).
		Set("stock", squirrel.Expr("stock + ?", qty)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": materialID})
	n, err := postgres.Exec(ctx, r.querier(ctx), q)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("material", materialID.String())
	}
	return nil
}

// decrementQuery is the guarded withdrawal: it only matches while enough stock remains.
func decrementQuery(materialID id.ID, qty types.Quantity, at time.Time) squirrel.UpdateBuilder {
	return postgres.Builder().
		Update(materialsTable).
		Set("stock", squirrel.Expr("stock - ?", qty)).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": materialID}).
		Where(squirrel.GtOrEq{"stock": qty})
}

func (r *MaterialRepo) DecrementStock(ctx context.Context, materialID id.ID, qty types.Quantity) (bool, error) {
	n, err := postgres.Exec(ctx, r.querier(ctx), decrementQuery(materialID, qty, time.Now().UTC()))
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	exists, err := postgres.Exists(ctx, r.querier(ctx), postgres.Builder().
		Select("1").
		From(materialsTable).
		Where(squirrel.Eq{"id": materialID}))
	if err != nil {
		return false, err
	}
	if !exists {
		return false, apperror.NewNotFound("material", materialID.String())
	}
	return false, nil
}
