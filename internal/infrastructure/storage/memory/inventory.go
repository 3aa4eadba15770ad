package memory

import (
	"context"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain"
	"bistro/internal/domain/inventory"
	"bistro/internal/domain/orders"
)

var _ inventory.Repository = (*MaterialRepo)(nil)

// MaterialRepo implements inventory.Repository.
type MaterialRepo struct{ s *Store }

// NewMaterialRepo creates a material repository.
func NewMaterialRepo(s *Store) *MaterialRepo { return &MaterialRepo{s: s} }

func cloneMaterial(m *inventory.Material) *inventory.Material {
	c := *m
	return &c
}

func (r *MaterialRepo) Create(ctx context.Context, m *inventory.Material) error {
	return r.s.write(ctx, func(st *state) error {
		st.materials[m.ID] = cloneMaterial(m)
		return nil
	})
}

func (r *MaterialRepo) GetByID(_ context.Context, materialID id.ID) (*inventory.Material, error) {
	var out *inventory.Material
	r.s.read(func(st *state) {
		if m, ok := st.materials[materialID]; ok {
			out = cloneMaterial(m)
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("material", materialID.String())
	}
	return out, nil
}

// GetForUpdate needs no row lock here: the store already serializes transactions.
func (r *MaterialRepo) GetForUpdate(ctx context.Context, materialID id.ID) (*inventory.Material, error) {
	return r.GetByID(ctx, materialID)
}

func (r *MaterialRepo) GetByIDs(_ context.Context, ids []id.ID) (map[id.ID]*inventory.Material, error) {
	out := make(map[id.ID]*inventory.Material, len(ids))
	r.s.read(func(st *state) {
		for _, mid := range ids {
			if m, ok := st.materials[mid]; ok {
				out[mid] = cloneMaterial(m)
			}
		}
	})
	return out, nil
}

func (r *MaterialRepo) Update(ctx context.Context, m *inventory.Material) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.materials[m.ID]; !ok {
			return apperror.NewNotFound("material", m.ID.String())
		}
		st.materials[m.ID] = cloneMaterial(m)
		return nil
	})
}

func (r *MaterialRepo) Delete(ctx context.Context, materialID id.ID) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.materials[materialID]; !ok {
			return apperror.NewNotFound("material", materialID.String())
		}
		delete(st.materials, materialID)
		return nil
	})
}

func (r *MaterialRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*inventory.Material], error) {
	all, _ := r.ListAll(ctx)
	items := all[:0]
	for _, m := range all {
		if containsFold(m.Name, filter.Search) {
			items = append(items, m)
		}
	}
	return paginate(items, filter), nil
}

func (r *MaterialRepo) ListAll(_ context.Context) ([]*inventory.Material, error) {
	var items []*inventory.Material
	r.s.read(func(st *state) {
		for _, m := range st.materials {
			items = append(items, cloneMaterial(m))
		}
	})
	byName(items, func(m *inventory.Material) string { return m.Name })
	return items, nil
}

func (r *MaterialRepo) NameTaken(_ context.Context, name string, excludeID id.ID) (bool, error) {
	taken := false
	r.s.read(func(st *state) {
		for _, m := range st.materials {
			if m.ID != excludeID && equalFold(m.Name, name) {
				taken = true
				return
			}
		}
	})
	return taken, nil
}

func (r *MaterialRepo) InUse(_ context.Context, materialID id.ID) (string, error) {
	reason := ""
	r.s.read(func(st *state) {
		for _, p := range st.products {
			for _, ri := range p.Recipe {
				if ri.MaterialID == materialID {
					reason = "used in recipe of product " + p.Name
					return
				}
			}
		}
		for _, p := range st.purchases {
			for _, it := range p.Items {
				if it.MaterialID == materialID {
					reason = "referenced by purchase " + p.Number
					return
				}
			}
		}
		for _, w := range st.waste {
			if w.MaterialID == materialID {
				reason = "referenced by waste records"
				return
			}
		}
	})
	return reason, nil
}

func (r *MaterialRepo) IncrementStock(ctx context.Context, materialID id.ID, qty types.Quantity) error {
	return r.s.write(ctx, func(st *state) error {
		m, ok := st.materials[materialID]
		if !ok {
			return apperror.NewNotFound("material", materialID.String())
		}
		c := cloneMaterial(m)
		c.Stock = c.Stock.Add(qty)
		st.materials[materialID] = c
		return nil
	})
}

func (r *MaterialRepo) DecrementStock(ctx context.Context, materialID id.ID, qty types.Quantity) (bool, error) {
	applied := false
	err := r.s.write(ctx, func(st *state) error {
		m, ok := st.materials[materialID]
		if !ok {
			return apperror.NewNotFound("material", materialID.String())
		}
		if m.Stock.LessThan(qty) {
			return nil
		}
		c := cloneMaterial(m)
		c.Stock = c.Stock.Sub(qty)
		st.materials[materialID] = c
		applied = true
		return nil
	})
	return applied, err
}

// isActiveOrder mirrors the SQL filter on active statuses.
func isActiveOrder(o *orders.Order) bool {
	return o.Status.IsActive()
}
