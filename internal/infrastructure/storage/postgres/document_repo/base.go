// Package document_repo provides PostgreSQL implementations for documents:
// orders, invoices, purchases and waste records. Documents with lines keep
// them in a child table keyed by (parent, line_no).
package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/infrastructure/storage/postgres"
)

// baseDocRepo holds the header-table operations shared by every document.
type baseDocRepo struct {
	txManager  *postgres.TxManager
	lines      *postgres.LineWriter
	tableName  string
	entityName string
	selectCols []string
}

func newBaseDocRepo(txManager *postgres.TxManager, tableName, entityName string, cols []string) baseDocRepo {
	return baseDocRepo{
		txManager:  txManager,
		lines:      postgres.NewLineWriter(txManager),
		tableName:  tableName,
		entityName: entityName,
		selectCols: cols,
	}
}

func (r *baseDocRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *baseDocRepo) baseSelect() squirrel.SelectBuilder {
	return postgres.Builder().Select(r.selectCols...).From(r.tableName)
}

func (r *baseDocRepo) insert(ctx context.Context, doc any) error {
	q := postgres.Builder().
		Insert(r.tableName).
		SetMap(postgres.Columns(postgres.StructToMap(doc), r.selectCols))
	if _, err := postgres.Exec(ctx, r.querier(ctx), q); err != nil {
		return postgres.MapError(fmt.Errorf("insert %s: %w", r.tableName, err), r.entityName)
	}
	return nil
}

func (r *baseDocRepo) update(ctx context.Context, docID id.ID, doc any) error {
	q := postgres.Builder().
		Update(r.tableName).
		SetMap(postgres.Columns(postgres.StructToMap(doc), r.selectCols, "id", "created_at")).
		Where(squirrel.Eq{"id": docID})
	n, err := postgres.Exec(ctx, r.querier(ctx), q)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update %s: %w", r.tableName, err), r.entityName)
	}
	if n == 0 {
		return apperror.NewNotFound(r.entityName, docID.String())
	}
	return nil
}

// delete removes the header; lines cascade.
func (r *baseDocRepo) delete(ctx context.Context, docID id.ID) error {
	n, err := postgres.Exec(ctx, r.querier(ctx), postgres.Builder().Delete(r.tableName).Where(squirrel.Eq{"id": docID}))
	if err != nil {
		return postgres.MapError(fmt.Errorf("delete %s: %w", r.tableName, err), r.entityName)
	}
	if n == 0 {
		return apperror.NewNotFound(r.entityName, docID.String())
	}
	return nil
}

func (r *baseDocRepo) get(ctx context.Context, dst any, docID id.ID, forUpdate bool) error {
	q := r.baseSelect().Where(squirrel.Eq{"id": docID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	return postgres.Get(ctx, r.querier(ctx), dst, q, r.entityName, docID.String())
}

// page counts q, then selects one page of it into dst.
func (r *baseDocRepo) page(ctx context.Context, dst any, q squirrel.SelectBuilder, limit, offset int, orderBy ...string) (int64, error) {
	total, err := postgres.Count(ctx, r.querier(ctx), q)
	if err != nil {
		return 0, err
	}
	q = q.OrderBy(orderBy...).Limit(uint64(limit)).Offset(uint64(offset))
	if err := postgres.Select(ctx, r.querier(ctx), dst, q); err != nil {
		return 0, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return total, nil
}

// loadLines selects the lines of the given parents ordered by parent and line number.
func loadLines[L any](ctx context.Context, q postgres.Querier, table, parentCol string, cols []string, parentIDs []id.ID) ([]L, error) {
	var lines []L
	if len(parentIDs) == 0 {
		return lines, nil
	}
	b := postgres.Builder().
		Select(cols...).
		From(table).
		Where(squirrel.Eq{parentCol: parentIDs}).
		OrderBy(parentCol, "line_no")
	if err := postgres.Select(ctx, q, &lines, b); err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	return lines, nil
}

// dateRange limits col to [from, to).
func dateRange(q squirrel.SelectBuilder, col string, from, to *time.Time) squirrel.SelectBuilder {
	if from != nil {
		q = q.Where(squirrel.GtOrEq{col: *from})
	}
	if to != nil {
		q = q.Where(squirrel.Lt{col: *to})
	}
	return q
}
