package memory

import (
	"context"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/domain/catalog"
)

var _ catalog.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implements catalog.ProductRepository.
type ProductRepo struct{ s *Store }

// NewProductRepo creates a product repository.
func NewProductRepo(s *Store) *ProductRepo { return &ProductRepo{s: s} }

func cloneProduct(p *catalog.Product) *catalog.Product {
	c := *p
	c.CategoryID = clonePtr(p.CategoryID)
	c.Recipe = append([]catalog.RecipeItem(nil), p.Recipe...)
	return &c
}

func (r *ProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	return r.s.write(ctx, func(st *state) error {
		c := cloneProduct(p)
		for i := range c.Recipe {
			c.Recipe[i].ProductID = c.ID
		}
		st.products[p.ID] = c
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, productID id.ID) (*catalog.Product, error) {
	var out *catalog.Product
	r.s.read(func(st *state) {
		if p, ok := st.products[productID]; ok {
			out = cloneProduct(p)
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return out, nil
}

func (r *ProductRepo) GetByIDs(_ context.Context, ids []id.ID) (map[id.ID]*catalog.Product, error) {
	out := make(map[id.ID]*catalog.Product, len(ids))
	r.s.read(func(st *state) {
		for _, pid := range ids {
			if p, ok := st.products[pid]; ok {
				out[pid] = cloneProduct(p)
			}
		}
	})
	return out, nil
}

// Update writes the product header and keeps the stored recipe.
func (r *ProductRepo) Update(ctx context.Context, p *catalog.Product) error {
	return r.s.write(ctx, func(st *state) error {
		old, ok := st.products[p.ID]
		if !ok {
			return apperror.NewNotFound("product", p.ID.String())
		}
		c := cloneProduct(p)
		c.Recipe = append([]catalog.RecipeItem(nil), old.Recipe...)
		c.UnitCost = old.UnitCost
		st.products[p.ID] = c
		return nil
	})
}

func (r *ProductRepo) ReplaceRecipe(ctx context.Context, productID id.ID, items []catalog.RecipeItem) error {
	return r.s.write(ctx, func(st *state) error {
		old, ok := st.products[productID]
		if !ok {
			return apperror.NewNotFound("product", productID.String())
		}
		c := cloneProduct(old)
		c.Recipe = make([]catalog.RecipeItem, len(items))
		for i, it := range items {
			it.ProductID = productID
			c.Recipe[i] = it
		}
		st.products[productID] = c
		return nil
	})
}

func (r *ProductRepo) Delete(ctx context.Context, productID id.ID) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.products[productID]; !ok {
			return apperror.NewNotFound("product", productID.String())
		}
		delete(st.products, productID)
		return nil
	})
}

func (r *ProductRepo) List(_ context.Context, filter catalog.ProductFilter) (domain.ListResult[*catalog.Product], error) {
	var items []*catalog.Product
	r.s.read(func(st *state) {
		for _, p := range st.products {
			if !containsFold(p.Name, filter.Search) {
				continue
			}
			if filter.ActiveOnly && !p.IsActive {
				continue
			}
			if filter.CategoryID != nil && !id.Equal(p.CategoryID, filter.CategoryID) {
				continue
			}
			items = append(items, cloneProduct(p))
		}
	})
	byName(items, func(p *catalog.Product) string { return p.Name })
	return paginate(items, filter.ListFilter), nil
}

func (r *ProductRepo) NameTaken(_ context.Context, name string, excludeID id.ID) (bool, error) {
	taken := false
	r.s.read(func(st *state) {
		for _, p := range st.products {
			if p.ID != excludeID && equalFold(p.Name, name) {
				taken = true
				return
			}
		}
	})
	return taken, nil
}

func (r *ProductRepo) InUse(_ context.Context, productID id.ID) (string, error) {
	reason := ""
	r.s.read(func(st *state) {
		for _, o := range st.orders {
			for _, it := range o.Items {
				if it.ProductID == productID {
					reason = "referenced by order " + o.Code
					return
				}
			}
		}
	})
	return reason, nil
}

// NewCategoryRepo creates a category repository.
func NewCategoryRepo(s *Store) catalog.CategoryRepository {
	return &refRepo[*catalog.Category]{
		s:      s,
		entity: "category",
		table:  func(st *state) map[id.ID]*catalog.Category { return st.categories },
		clone:  shallow[catalog.Category],
		name:   func(c *catalog.Category) string { return c.Name },
		sameKey: func(a, b *catalog.Category) bool {
			return equalFold(a.Name, b.Name)
		},
		inUse: func(st *state, categoryID id.ID) string {
			for _, p := range st.products {
				if p.CategoryID != nil && *p.CategoryID == categoryID {
					return "category has products"
				}
			}
			return ""
		},
	}
}
