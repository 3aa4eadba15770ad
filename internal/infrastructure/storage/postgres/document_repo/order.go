package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/domain/orders"
	"bistro/internal/infrastructure/storage/postgres"
)

const orderItemsTable = "order_items"

var orderItemCols = []string{"order_id", "line_no", "product_id", "product_name", "quantity", "unit_price", "total_price"}

var _ orders.Repository = (*OrderRepo)(nil)

// OrderRepo implements orders.Repository.
type OrderRepo struct {
	baseDocRepo
}

// NewOrderRepo creates an order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{newBaseDocRepo(txManager, "orders", "order", postgres.ExtractDBColumns[orders.Order]())}
}

// Create inserts the order and its items. A duplicate code is a Conflict.
func (r *OrderRepo) Create(ctx context.Context, o *orders.Order) error {
	if err := r.insert(ctx, o); err != nil {
		return err
	}
	rows := make([][]any, len(o.Items))
	for i, it := range o.Items {
		rows[i] = []any{o.ID, i + 1, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice, it.TotalPrice}
	}
	if err := r.lines.Insert(ctx, orderItemsTable, orderItemCols, rows); err != nil {
		return postgres.MapError(err, "order item")
	}
	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	return r.getOne(ctx, orderID, false)
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	return r.getOne(ctx, orderID, true)
}

func (r *OrderRepo) getOne(ctx context.Context, orderID id.ID, forUpdate bool) (*orders.Order, error) {
	var o orders.Order
	if err := r.get(ctx, &o, orderID, forUpdate); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*orders.Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

// Update writes the header only; items are immutable after creation.
func (r *OrderRepo) Update(ctx context.Context, o *orders.Order) error {
	return r.update(ctx, o.ID, o)
}

func (r *OrderRepo) Delete(ctx context.Context, orderID id.ID) error {
	return r.delete(ctx, orderID)
}

func (r *OrderRepo) listQuery(filter orders.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()
	if filter.Search != "" {
		q = q.Where(postgres.ILike(filter.Search, "code", "customer_name"))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where(squirrel.Eq{"status": statuses})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": string(*filter.Type)})
	}
	if filter.TableID != nil {
		q = q.Where(squirrel.Eq{"table_id": *filter.TableID})
	}
	if filter.DriverID != nil {
		q = q.Where(squirrel.Eq{"driver_id": *filter.DriverID})
	}
	return dateRange(q, "created_at", filter.From, filter.To)
}

// List returns orders newest first.
func (r *OrderRepo) List(ctx context.Context, filter orders.ListFilter) (domain.ListResult[*orders.Order], error) {
	filter.ListFilter = filter.ListFilter.Normalize()

	var items []*orders.Order
	total, err := r.page(ctx, &items, r.listQuery(filter), filter.Limit, filter.Offset, "created_at DESC", "id DESC")
	if err != nil {
		return domain.ListResult[*orders.Order]{}, err
	}
	if err := r.attachItems(ctx, items); err != nil {
		return domain.ListResult[*orders.Order]{}, err
	}
	return domain.NewListResult(items, total, filter.ListFilter), nil
}

func (r *OrderRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	return postgres.Exists(ctx, r.querier(ctx), postgres.Builder().
		Select("1").
		From(r.tableName).
		Where(squirrel.Eq{"code": code}))
}

func (r *OrderRepo) attachItems(ctx context.Context, list []*orders.Order) error {
	byID := make(map[id.ID]*orders.Order, len(list))
	ids := make([]id.ID, len(list))
	for i, o := range list {
		o.Items = []orders.Item{}
		byID[o.ID] = o
		ids[i] = o.ID
	}
	lines, err := loadLines[orders.Item](ctx, r.querier(ctx), orderItemsTable, "order_id", orderItemCols, ids)
	if err != nil {
		return fmt.Errorf("attach order items: %w", err)
	}
	for _, line := range lines {
		if o, ok := byID[line.OrderID]; ok {
			o.Items = append(o.Items, line)
		}
	}
	return nil
}
