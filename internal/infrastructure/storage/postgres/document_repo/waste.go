package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/domain/waste"
	"bistro/internal/infrastructure/storage/postgres"
)

var _ waste.Repository = (*WasteRepo)(nil)

// WasteRepo implements waste.Repository.
type WasteRepo struct {
	baseDocRepo
}

// NewWasteRepo creates a waste repository.
func NewWasteRepo(txManager *postgres.TxManager) *WasteRepo {
	return &WasteRepo{newBaseDocRepo(txManager, "waste", "waste", postgres.ExtractDBColumns[waste.Waste]())}
}

func (r *WasteRepo) Create(ctx context.Context, w *waste.Waste) error {
	return r.insert(ctx, w)
}

func (r *WasteRepo) GetByID(ctx context.Context, wasteID id.ID) (*waste.Waste, error) {
	var w waste.Waste
	if err := r.get(ctx, &w, wasteID, false); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WasteRepo) GetForUpdate(ctx context.Context, wasteID id.ID) (*waste.Waste, error) {
	var w waste.Waste
	if err := r.get(ctx, &w, wasteID, true); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WasteRepo) Update(ctx context.Context, w *waste.Waste) error {
	return r.update(ctx, w.ID, w)
}

func (r *WasteRepo) Delete(ctx context.Context, wasteID id.ID) error {
	return r.delete(ctx, wasteID)
}

func (r *WasteRepo) listQuery(filter waste.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()
	if filter.Search != "" {
		q = q.Where(postgres.ILike(filter.Search, "reason"))
	}
	if filter.MaterialID != nil {
		q = q.Where(squirrel.Eq{"material_id": *filter.MaterialID})
	}
	return dateRange(q, "date", filter.From, filter.To)
}

func (r *WasteRepo) List(ctx context.Context, filter waste.ListFilter) (domain.ListResult[*waste.Waste], error) {
	filter.ListFilter = filter.ListFilter.Normalize()

	var items []*waste.Waste
	total, err := r.page(ctx, &items, r.listQuery(filter), filter.Limit, filter.Offset, "date DESC", "id DESC")
	if err != nil {
		return domain.ListResult[*waste.Waste]{}, err
	}
	return domain.NewListResult(items, total, filter.ListFilter), nil
}
