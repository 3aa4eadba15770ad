package memory

import (
	"context"
	"time"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/domain/purchases"
	"bistro/internal/domain/waste"
)

var (
	_ purchases.Repository = (*PurchaseRepo)(nil)
	_ waste.Repository     = (*WasteRepo)(nil)
)

// PurchaseRepo implements purchases.Repository.
type PurchaseRepo struct{ s *Store }

// NewPurchaseRepo creates a purchase repository.
func NewPurchaseRepo(s *Store) *PurchaseRepo { return &PurchaseRepo{s: s} }

func clonePurchase(p *purchases.Purchase) *purchases.Purchase {
	c := *p
	c.Items = append([]purchases.Item(nil), p.Items...)
	return &c
}

func (r *PurchaseRepo) Create(ctx context.Context, p *purchases.Purchase) error {
	return r.s.write(ctx, func(st *state) error {
		c := clonePurchase(p)
		for i := range c.Items {
			c.Items[i].PurchaseID = c.ID
		}
		st.purchases[p.ID] = c
		return nil
	})
}

func (r *PurchaseRepo) GetByID(_ context.Context, purchaseID id.ID) (*purchases.Purchase, error) {
	var out *purchases.Purchase
	r.s.read(func(st *state) {
		if p, ok := st.purchases[purchaseID]; ok {
			out = clonePurchase(p)
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("purchase", purchaseID.String())
	}
	return out, nil
}

func (r *PurchaseRepo) GetForUpdate(ctx context.Context, purchaseID id.ID) (*purchases.Purchase, error) {
	return r.GetByID(ctx, purchaseID)
}

func (r *PurchaseRepo) Update(ctx context.Context, p *purchases.Purchase) error {
	return r.s.write(ctx, func(st *state) error {
		old, ok := st.purchases[p.ID]
		if !ok {
			return apperror.NewNotFound("purchase", p.ID.String())
		}
		c := clonePurchase(p)
		c.Items = old.Items
		st.purchases[p.ID] = c
		return nil
	})
}

func (r *PurchaseRepo) ReplaceItems(ctx context.Context, purchaseID id.ID, items []purchases.Item) error {
	return r.s.write(ctx, func(st *state) error {
		old, ok := st.purchases[purchaseID]
		if !ok {
			return apperror.NewNotFound("purchase", purchaseID.String())
		}
		c := clonePurchase(old)
		c.Items = make([]purchases.Item, len(items))
		for i, it := range items {
			it.PurchaseID = purchaseID
			c.Items[i] = it
		}
		st.purchases[purchaseID] = c
		return nil
	})
}

func (r *PurchaseRepo) Delete(ctx context.Context, purchaseID id.ID) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.purchases[purchaseID]; !ok {
			return apperror.NewNotFound("purchase", purchaseID.String())
		}
		delete(st.purchases, purchaseID)
		return nil
	})
}

func (r *PurchaseRepo) List(_ context.Context, filter purchases.ListFilter) (domain.ListResult[*purchases.Purchase], error) {
	var items []*purchases.Purchase
	r.s.read(func(st *state) {
		for _, p := range st.purchases {
			if filter.Search != "" && !containsFold(p.Number, filter.Search) && !containsFold(p.SupplierName, filter.Search) {
				continue
			}
			if filter.Status != nil && p.Status != *filter.Status {
				continue
			}
			if !inRange(p.Date, filter.From, filter.To) {
				continue
			}
			items = append(items, clonePurchase(p))
		}
	})
	newestFirst(items, func(p *purchases.Purchase) time.Time { return p.Date })
	return paginate(items, filter.ListFilter), nil
}

// WasteRepo implements waste.Repository.
type WasteRepo struct{ s *Store }

// NewWasteRepo creates a waste repository.
func NewWasteRepo(s *Store) *WasteRepo { return &WasteRepo{s: s} }

func (r *WasteRepo) Create(ctx context.Context, w *waste.Waste) error {
	return r.s.write(ctx, func(st *state) error {
		st.waste[w.ID] = shallow(w)
		return nil
	})
}

func (r *WasteRepo) GetByID(_ context.Context, wasteID id.ID) (*waste.Waste, error) {
	var out *waste.Waste
	r.s.read(func(st *state) {
		if w, ok := st.waste[wasteID]; ok {
			out = shallow(w)
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("waste", wasteID.String())
	}
	return out, nil
}

func (r *WasteRepo) GetForUpdate(ctx context.Context, wasteID id.ID) (*waste.Waste, error) {
	return r.GetByID(ctx, wasteID)
}

func (r *WasteRepo) Update(ctx context.Context, w *waste.Waste) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.waste[w.ID]; !ok {
			return apperror.NewNotFound("waste", w.ID.String())
		}
		st.waste[w.ID] = shallow(w)
		return nil
	})
}

func (r *WasteRepo) Delete(ctx context.Context, wasteID id.ID) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.waste[wasteID]; !ok {
			return apperror.NewNotFound("waste", wasteID.String())
		}
		delete(st.waste, wasteID)
		return nil
	})
}

func (r *WasteRepo) List(_ context.Context, filter waste.ListFilter) (domain.ListResult[*waste.Waste], error) {
	var items []*waste.Waste
	r.s.read(func(st *state) {
		for _, w := range st.waste {
			if !containsFold(w.Reason, filter.Search) {
				continue
			}
			if filter.MaterialID != nil && w.MaterialID != *filter.MaterialID {
				continue
			}
			if !inRange(w.Date, filter.From, filter.To) {
				continue
			}
			items = append(items, shallow(w))
		}
	})
	newestFirst(items, func(w *waste.Waste) time.Time { return w.Date })
	return paginate(items, filter.ListFilter), nil
}
