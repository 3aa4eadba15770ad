package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/domain/purchases"
	"bistro/internal/infrastructure/storage/postgres"
)

const purchaseItemsTable = "purchase_items"

var purchaseItemCols = []string{"purchase_id", "line_no", "material_id", "quantity", "unit_cost", "total"}

var _ purchases.Repository = (*PurchaseRepo)(nil)

// PurchaseRepo implements purchases.Repository.
type PurchaseRepo struct {
	baseDocRepo
}

// NewPurchaseRepo creates a purchase repository.
func NewPurchaseRepo(txManager *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{newBaseDocRepo(txManager, "purchases", "purchase", postgres.ExtractDBColumns[purchases.Purchase]())}
}

func purchaseItemRows(purchaseID id.ID, items []purchases.Item) [][]any {
	rows := make([][]any, len(items))
	for i, it := range items {
		rows[i] = []any{purchaseID, i + 1, it.MaterialID, it.Quantity, it.UnitCost, it.Total}
	}
	return rows
}

func (r *PurchaseRepo) Create(ctx context.Context, p *purchases.Purchase) error {
	if err := r.insert(ctx, p); err != nil {
		return err
	}
	if err := r.lines.Insert(ctx, purchaseItemsTable, purchaseItemCols, purchaseItemRows(p.ID, p.Items)); err != nil {
		return postgres.MapError(err, "purchase item")
	}
	return nil
}

func (r *PurchaseRepo) GetByID(ctx context.Context, purchaseID id.ID) (*purchases.Purchase, error) {
	return r.getOne(ctx, purchaseID, false)
}

func (r *PurchaseRepo) GetForUpdate(ctx context.Context, purchaseID id.ID) (*purchases.Purchase, error) {
	return r.getOne(ctx, purchaseID, true)
}

func (r *PurchaseRepo) getOne(ctx context.Context, purchaseID id.ID, forUpdate bool) (*purchases.Purchase, error) {
	var p purchases.Purchase
	if err := r.get(ctx, &p, purchaseID, forUpdate); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*purchases.Purchase{&p}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PurchaseRepo) Update(ctx context.Context, p *purchases.Purchase) error {
	return r.update(ctx, p.ID, p)
}

func (r *PurchaseRepo) ReplaceItems(ctx context.Context, purchaseID id.ID, items []purchases.Item) error {
	if err := r.lines.Replace(ctx, purchaseItemsTable, "purchase_id", purchaseID, purchaseItemCols, purchaseItemRows(purchaseID, items)); err != nil {
		return postgres.MapError(err, "purchase item")
	}
	return nil
}

func (r *PurchaseRepo) Delete(ctx context.Context, purchaseID id.ID) error {
	return r.delete(ctx, purchaseID)
}

func (r *PurchaseRepo) listQuery(filter purchases.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()
	if filter.Search != "" {
		q = q.Where(postgres.ILike(filter.Search, "number", "supplier_name"))
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": string(*filter.Status)})
	}
	return dateRange(q, "date", filter.From, filter.To)
}

func (r *PurchaseRepo) List(ctx context.Context, filter purchases.ListFilter) (domain.ListResult[*purchases.Purchase], error) {
	filter.ListFilter = filter.ListFilter.Normalize()

	var items []*purchases.Purchase
	total, err := r.page(ctx, &items, r.listQuery(filter), filter.Limit, filter.Offset, "date DESC", "id DESC")
	if err != nil {
		return domain.ListResult[*purchases.Purchase]{}, err
	}
	if err := r.attachItems(ctx, items); err != nil {
		return domain.ListResult[*purchases.Purchase]{}, err
	}
	return domain.NewListResult(items, total, filter.ListFilter), nil
}

func (r *PurchaseRepo) attachItems(ctx context.Context, list []*purchases.Purchase) error {
	byID := make(map[id.ID]*purchases.Purchase, len(list))
	ids := make([]id.ID, len(list))
	for i, p := range list {
		p.Items = []purchases.Item{}
		byID[p.ID] = p
		ids[i] = p.ID
	}
	lines, err := loadLines[purchases.Item](ctx, r.querier(ctx), purchaseItemsTable, "purchase_id", purchaseItemCols, ids)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if p, ok := byID[line.PurchaseID]; ok {
			p.Items = append(p.Items, line)
		}
	}
	return nil
}
