package memory

import (
	"context"
	"slices"
	"time"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/domain/orders"
)

var _ orders.Repository = (*OrderRepo)(nil)

// OrderRepo implements orders.Repository.
type OrderRepo struct{ s *Store }

// NewOrderRepo creates an order repository.
func NewOrderRepo(s *Store) *OrderRepo { return &OrderRepo{s: s} }

func cloneOrder(o *orders.Order) *orders.Order {
	c := *o
	c.ZoneID = clonePtr(o.ZoneID)
	c.DriverID = clonePtr(o.DriverID)
	c.TableID = clonePtr(o.TableID)
	c.DeliveredAt = clonePtr(o.DeliveredAt)
	c.Items = append([]orders.Item(nil), o.Items...)
	return &c
}

func (r *OrderRepo) Create(ctx context.Context, o *orders.Order) error {
	return r.s.write(ctx, func(st *state) error {
		for _, other := range st.orders {
			if other.Code == o.Code {
				return apperror.NewDuplicate("order", "code", o.Code)
			}
		}
		c := cloneOrder(o)
		for i := range c.Items {
			c.Items[i].OrderID = c.ID
		}
		st.orders[o.ID] = c
		return nil
	})
}

func (r *OrderRepo) GetByID(_ context.Context, orderID id.ID) (*orders.Order, error) {
	var out *orders.Order
	r.s.read(func(st *state) {
		if o, ok := st.orders[orderID]; ok {
			out = cloneOrder(o)
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	return out, nil
}

// GetForUpdate is GetByID: transactions are serialized store-wide.
func (r *OrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *OrderRepo) Update(ctx context.Context, o *orders.Order) error {
	return r.s.write(ctx, func(st *state) error {
		old, ok := st.orders[o.ID]
		if !ok {
			return apperror.NewNotFound("order", o.ID.String())
		}
		c := cloneOrder(o)
		c.Items = old.Items
		st.orders[o.ID] = c
		return nil
	})
}

func (r *OrderRepo) Delete(ctx context.Context, orderID id.ID) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.orders[orderID]; !ok {
			return apperror.NewNotFound("order", orderID.String())
		}
		delete(st.orders, orderID)
		return nil
	})
}

func (r *OrderRepo) List(_ context.Context, filter orders.ListFilter) (domain.ListResult[*orders.Order], error) {
	var items []*orders.Order
	r.s.read(func(st *state) {
		for _, o := range st.orders {
			if filter.Search != "" && !containsFold(o.Code, filter.Search) && !containsFold(o.CustomerName, filter.Search) {
				continue
			}
			if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, o.Status) {
				continue
			}
			if filter.Type != nil && o.Type != *filter.Type {
				continue
			}
			if filter.TableID != nil && !id.Equal(o.TableID, filter.TableID) {
				continue
			}
			if filter.DriverID != nil && !id.Equal(o.DriverID, filter.DriverID) {
				continue
			}
			if !inRange(o.CreatedAt, filter.From, filter.To) {
				continue
			}
			items = append(items, cloneOrder(o))
		}
	})
	newestFirst(items, func(o *orders.Order) time.Time { return o.CreatedAt })
	return paginate(items, filter.ListFilter), nil
}

func (r *OrderRepo) CodeExists(_ context.Context, code string) (bool, error) {
	exists := false
	r.s.read(func(st *state) {
		for _, o := range st.orders {
			if o.Code == code {
				exists = true
				return
			}
		}
	})
	return exists, nil
}
