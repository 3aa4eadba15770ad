package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/domain/sales"
	"bistro/internal/infrastructure/storage/postgres"
)

const saleItemsTable = "sale_items"

var saleItemCols = []string{"sale_id", "line_no", "name", "quantity", "price", "total"}

var _ sales.Repository = (*SaleRepo)(nil)

// SaleRepo implements sales.Repository.
type SaleRepo struct {
	baseDocRepo
}

// NewSaleRepo creates an invoice repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{newBaseDocRepo(txManager, "sales", "sale", postgres.ExtractDBColumns[sales.Sale]())}
}

func saleItemRows(saleID id.ID, items []sales.Item) [][]any {
	rows := make([][]any, len(items))
	for i, it := range items {
		rows[i] = []any{saleID, i + 1, it.Name, it.Quantity, it.Price, it.Total}
	}
	return rows
}

// Create inserts the invoice and its lines. A second invoice for the same
// order violates sales_order_id_key and comes back as Conflict.
func (r *SaleRepo) Create(ctx context.Context, s *sales.Sale) error {
	if err := r.insert(ctx, s); err != nil {
		return err
	}
	if err := r.lines.Insert(ctx, saleItemsTable, saleItemCols, saleItemRows(s.ID, s.Items)); err != nil {
		return postgres.MapError(err, "sale item")
	}
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	var s sales.Sale
	if err := r.get(ctx, &s, saleID, false); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*sales.Sale{&s}); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SaleRepo) GetByOrderID(ctx context.Context, orderID id.ID) (*sales.Sale, error) {
	var s sales.Sale
	q := r.baseSelect().Where(squirrel.Eq{"order_id": orderID})
	if err := postgres.Get(ctx, r.querier(ctx), &s, q, "sale", orderID.String()); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*sales.Sale{&s}); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SaleRepo) Update(ctx context.Context, s *sales.Sale) error {
	return r.update(ctx, s.ID, s)
}

func (r *SaleRepo) ReplaceItems(ctx context.Context, saleID id.ID, items []sales.Item) error {
	if err := r.lines.Replace(ctx, saleItemsTable, "sale_id", saleID, saleItemCols, saleItemRows(saleID, items)); err != nil {
		return postgres.MapError(err, "sale item")
	}
	return nil
}

func (r *SaleRepo) Delete(ctx context.Context, saleID id.ID) error {
	return r.delete(ctx, saleID)
}

func (r *SaleRepo) DetachOrder(ctx context.Context, orderID id.ID) error {
	q := postgres.Builder().
		Update(r.tableName).
		Set("order_id", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"order_id": orderID})
	if _, err := postgres.Exec(ctx, r.querier(ctx), q); err != nil {
		return fmt.Errorf("detach order from sale: %w", err)
	}
	return nil
}

func (r *SaleRepo) listQuery(filter sales.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()
	if filter.Search != "" {
		q = q.Where(postgres.ILike(filter.Search, "invoice_no", "customer_name"))
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": string(*filter.Status)})
	}
	if filter.OrderID != nil {
		q = q.Where(squirrel.Eq{"order_id": *filter.OrderID})
	}
	return dateRange(q, "date", filter.From, filter.To)
}

// List returns invoices by date, newest first.
func (r *SaleRepo) List(ctx context.Context, filter sales.ListFilter) (domain.ListResult[*sales.Sale], error) {
	filter.ListFilter = filter.ListFilter.Normalize()

	var items []*sales.Sale
	total, err := r.page(ctx, &items, r.listQuery(filter), filter.Limit, filter.Offset, "date DESC", "id DESC")
	if err != nil {
		return domain.ListResult[*sales.Sale]{}, err
	}
	if err := r.attachItems(ctx, items); err != nil {
		return domain.ListResult[*sales.Sale]{}, err
	}
	return domain.NewListResult(items, total, filter.ListFilter), nil
}

func (r *SaleRepo) attachItems(ctx context.Context, list []*sales.Sale) error {
	byID := make(map[id.ID]*sales.Sale, len(list))
	ids := make([]id.ID, len(list))
	for i, s := range list {
		s.Items = []sales.Item{}
		byID[s.ID] = s
		ids[i] = s.ID
	}
	lines, err := loadLines[sales.Item](ctx, r.querier(ctx), saleItemsTable, "sale_id", saleItemCols, ids)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if s, ok := byID[line.SaleID]; ok {
			s.Items = append(s.Items, line)
		}
	}
	return nil
}
