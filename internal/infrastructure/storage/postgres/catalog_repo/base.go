// Package catalog_repo provides PostgreSQL implementations for reference data:
// materials, products with recipes, categories, dining tables, zones and drivers.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/infrastructure/storage/postgres"
)

// InUseFunc reports why a row cannot be deleted, or "" when nothing references it.
type InUseFunc func(ctx context.Context, q postgres.Querier, entityID id.ID) (string, error)

// BaseRefRepo implements domain.ReferenceRepository over one table.
// Embed or return it from specific constructors.
type BaseRefRepo[T domain.ReferenceEntity] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T

	// uniqueKey returns the predicate matching rows that share e's unique key.
	uniqueKey func(e T) squirrel.Sqlizer
	inUse     InUseFunc
}

// RefRepoConfig configures a BaseRefRepo.
type RefRepoConfig[T domain.ReferenceEntity] struct {
	TableName  string
	EntityName string
	NewFn      func() T
	UniqueKey  func(e T) squirrel.Sqlizer
	InUse      InUseFunc
}

// NewBaseRefRepo creates a reference repository. Columns come from T's db tags.
func NewBaseRefRepo[T domain.ReferenceEntity](txManager *postgres.TxManager, cfg RefRepoConfig[T]) *BaseRefRepo[T] {
	return &BaseRefRepo[T]{
		txManager:  txManager,
		tableName:  cfg.TableName,
		entityName: cfg.EntityName,
		selectCols: postgres.ExtractDBColumns[T](),
		newFn:      cfg.NewFn,
		uniqueKey:  cfg.UniqueKey,
		inUse:      cfg.InUse,
	}
}

func (r *BaseRefRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *BaseRefRepo[T]) baseSelect() squirrel.SelectBuilder {
	return postgres.Builder().Select(r.selectCols...).From(r.tableName)
}

// Create inserts a new row using the entity's db tags.
func (r *BaseRefRepo[T]) Create(ctx context.Context, e T) error {
	q := postgres.Builder().
		Insert(r.tableName).
		SetMap(postgres.Columns(postgres.StructToMap(e), r.selectCols))

	if _, err := postgres.Exec(ctx, r.querier(ctx), q); err != nil {
		return postgres.MapError(fmt.Errorf("insert %s: %w", r.tableName, err), r.entityName)
	}
	return nil
}

// Update rewrites every column except id and created_at.
func (r *BaseRefRepo[T]) Update(ctx context.Context, e T) error {
	q := postgres.Builder().
		Update(r.tableName).
		SetMap(postgres.Columns(postgres.StructToMap(e), r.selectCols, "id", "created_at")).
		Where(squirrel.Eq{"id": e.GetID()})

	n, err := postgres.Exec(ctx, r.querier(ctx), q)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update %s: %w", r.tableName, err), r.entityName)
	}
	if n == 0 {
		return apperror.NewNotFound(r.entityName, e.GetID().String())
	}
	return nil
}

// GetByID retrieves a row by primary key.
func (r *BaseRefRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	e := r.newFn()
	q := r.baseSelect().Where(squirrel.Eq{"id": entityID})
	if err := postgres.Get(ctx, r.querier(ctx), e, q, r.entityName, entityID.String()); err != nil {
		var zero T
		return zero, err
	}
	return e, nil
}

// GetForUpdate retrieves a row and locks it until the transaction ends.
func (r *BaseRefRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	e := r.newFn()
	q := r.baseSelect().Where(squirrel.Eq{"id": entityID}).Suffix("FOR UPDATE")
	if err := postgres.Get(ctx, r.querier(ctx), e, q, r.entityName, entityID.String()); err != nil {
		var zero T
		return zero, err
	}
	return e, nil
}

// Delete removes a row. Remaining foreign keys surface as ReferentialBlock.
func (r *BaseRefRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	q := postgres.Builder().Delete(r.tableName).Where(squirrel.Eq{"id": entityID})
	n, err := postgres.Exec(ctx, r.querier(ctx), q)
	if err != nil {
		return postgres.MapError(fmt.Errorf("delete %s: %w", r.tableName, err), r.entityName)
	}
	if n == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

func (r *BaseRefRepo[T]) listQuery(filter domain.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()
	if filter.Search != "" {
		q = q.Where(postgres.ILike(filter.Search, "name"))
	}
	return q
}

// List retrieves rows ordered by name.
func (r *BaseRefRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	filter = filter.Normalize()
	q := r.listQuery(filter)

	total, err := postgres.Count(ctx, r.querier(ctx), q)
	if err != nil {
		return domain.ListResult[T]{}, err
	}

	var items []T
	q = q.OrderBy("lower(name)", "id").Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	if err := postgres.Select(ctx, r.querier(ctx), &items, q); err != nil {
		return domain.ListResult[T]{}, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return domain.NewListResult(items, total, filter), nil
}

func (r *BaseRefRepo[T]) nameTakenQuery(e T) squirrel.SelectBuilder {
	return postgres.Builder().
		Select("1").
		From(r.tableName).
		Where(r.uniqueKey(e)).
		Where(squirrel.NotEq{"id": e.GetID()})
}

// NameTaken reports whether another row shares e's unique key.
func (r *BaseRefRepo[T]) NameTaken(ctx context.Context, e T) (bool, error) {
	return postgres.Exists(ctx, r.querier(ctx), r.nameTakenQuery(e))
}

// InUse reports why the row cannot be deleted.
func (r *BaseRefRepo[T]) InUse(ctx context.Context, entityID id.ID) (string, error) {
	if r.inUse == nil {
		return "", nil
	}
	return r.inUse(ctx, r.querier(ctx), entityID)
}

// NameEquals matches rows whose name equals name, ignoring case and outer spaces.
func NameEquals(name string) squirrel.Sqlizer {
	return squirrel.Expr("lower(name) = lower(?)", strings.TrimSpace(name))
}

// firstMatch returns the first value of col found by q, or "".
func firstMatch(ctx context.Context, q postgres.Querier, b squirrel.SelectBuilder) (string, error) {
	var found []string
	if err := postgres.Select(ctx, q, &found, b.Limit(1)); err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", nil
	}
	return found[0], nil
}

// activeOrderUsage builds an InUseFunc blocking deletes while an active order references col.
func activeOrderUsage(col string) InUseFunc {
	return func(ctx context.Context, q postgres.Querier, entityID id.ID) (string, error) {
		code, err := firstMatch(ctx, q, postgres.Builder().
			Select("code").
			From("orders").
			Where(squirrel.Eq{col: entityID}).
			Where(squirrel.Eq{"status": postgres.ActiveOrderStatuses}))
		if err != nil || code == "" {
			return "", err
		}
		return "referenced by active order " + code, nil
	}
}
