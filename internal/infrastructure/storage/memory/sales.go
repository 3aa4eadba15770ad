package memory

import (
	"context"
	"time"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/domain/sales"
)

var _ sales.Repository = (*SaleRepo)(nil)

// SaleRepo implements sales.Repository.
type SaleRepo struct{ s *Store }

// NewSaleRepo creates a sale repository.
func NewSaleRepo(s *Store) *SaleRepo { return &SaleRepo{s: s} }

func cloneSale(s *sales.Sale) *sales.Sale {
	c := *s
	c.OrderID = clonePtr(s.OrderID)
	c.Items = append([]sales.Item(nil), s.Items...)
	return &c
}

func (r *SaleRepo) Create(ctx context.Context, sale *sales.Sale) error {
	return r.s.write(ctx, func(st *state) error {
		for _, other := range st.sales {
			if other.InvoiceNo == sale.InvoiceNo {
				return apperror.NewDuplicate("sale", "invoiceNo", sale.InvoiceNo)
			}
			if sale.OrderID != nil && id.Equal(other.OrderID, sale.OrderID) {
				return apperror.NewDuplicate("sale", "orderId", sale.OrderID.String())
			}
		}
		c := cloneSale(sale)
		for i := range c.Items {
			c.Items[i].SaleID = c.ID
		}
		st.sales[sale.ID] = c
		return nil
	})
}

func (r *SaleRepo) GetByID(_ context.Context, saleID id.ID) (*sales.Sale, error) {
	var out *sales.Sale
	r.s.read(func(st *state) {
		if s, ok := st.sales[saleID]; ok {
			out = cloneSale(s)
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("sale", saleID.String())
	}
	return out, nil
}

func (r *SaleRepo) GetByOrderID(_ context.Context, orderID id.ID) (*sales.Sale, error) {
	var out *sales.Sale
	r.s.read(func(st *state) {
		for _, s := range st.sales {
			if s.OrderID != nil && *s.OrderID == orderID {
				out = cloneSale(s)
				return
			}
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("sale", "order "+orderID.String())
	}
	return out, nil
}

func (r *SaleRepo) Update(ctx context.Context, sale *sales.Sale) error {
	return r.s.write(ctx, func(st *state) error {
		old, ok := st.sales[sale.ID]
		if !ok {
			return apperror.NewNotFound("sale", sale.ID.String())
		}
		c := cloneSale(sale)
		c.Items = old.Items
		st.sales[sale.ID] = c
		return nil
	})
}

func (r *SaleRepo) ReplaceItems(ctx context.Context, saleID id.ID, items []sales.Item) error {
	return r.s.write(ctx, func(st *state) error {
		old, ok := st.sales[saleID]
		if !ok {
			return apperror.NewNotFound("sale", saleID.String())
		}
		c := cloneSale(old)
		c.Items = make([]sales.Item, len(items))
		for i, it := range items {
			it.SaleID = saleID
			c.Items[i] = it
		}
		st.sales[saleID] = c
		return nil
	})
}

func (r *SaleRepo) Delete(ctx context.Context, saleID id.ID) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.sales[saleID]; !ok {
			return apperror.NewNotFound("sale", saleID.String())
		}
		delete(st.sales, saleID)
		return nil
	})
}

func (r *SaleRepo) DetachOrder(ctx context.Context, orderID id.ID) error {
	return r.s.write(ctx, func(st *state) error {
		for sid, s := range st.sales {
			if s.OrderID != nil && *s.OrderID == orderID {
				c := cloneSale(s)
				c.OrderID = nil
				st.sales[sid] = c
			}
		}
		return nil
	})
}

func (r *SaleRepo) List(_ context.Context, filter sales.ListFilter) (domain.ListResult[*sales.Sale], error) {
	var items []*sales.Sale
	r.s.read(func(st *state) {
		for _, s := range st.sales {
			if filter.Search != "" && !containsFold(s.InvoiceNo, filter.Search) && !containsFold(s.CustomerName, filter.Search) {
				continue
			}
			if filter.Status != nil && s.Status != *filter.Status {
				continue
			}
			if filter.OrderID != nil && !id.Equal(s.OrderID, filter.OrderID) {
				continue
			}
			if !inRange(s.Date, filter.From, filter.To) {
				continue
			}
			items = append(items, cloneSale(s))
		}
	})
	newestFirst(items, func(s *sales.Sale) time.Time { return s.Date })
	return paginate(items, filter.ListFilter), nil
}
