package catalog

import (
	"context"
	"fmt"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/core/tx"
	"bistro/internal/core/types"
	"bistro/internal/domain"
	"bistro/pkg/logger"
)

// ProductUpdate carries a product edit; nil fields are left unchanged.
// A non-nil Recipe fully replaces the stored recipe.
type ProductUpdate struct {
	Name          *string
	CategoryID    *id.ID
	ClearCategory bool
	Price         *types.Money
	IsActive      *bool
	Recipe        *[]RecipeItem
}

// Service manages products and computes recipe cost.
type Service struct {
	products   ProductRepository
	categories CategoryRepository
	materials  MaterialReader
	txManager  tx.Manager
}

// NewService creates a new catalog service.
func NewService(products ProductRepository, categories CategoryRepository, materials MaterialReader, txManager tx.Manager) *Service {
	return &Service{
		products:   products,
		categories: categories,
		materials:  materials,
		txManager:  txManager,
	}
}

// NewCategoryService creates the CRUD service for categories.
// Deleting a category that still has products is blocked.
func NewCategoryService(repo CategoryRepository, txManager tx.Manager) *domain.ReferenceService[*Category] {
	return domain.NewReferenceService(domain.ReferenceServiceConfig[*Category]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "category",
	})
}

// CreateProduct validates the product and its recipe and inserts both.
func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkReferences(ctx, p); err != nil {
			return err
		}
		if err := s.products.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		return s.fillCost(ctx, p)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product created", "product_id", p.ID, "name", p.Name, "recipe_items", len(p.Recipe))
	return nil
}

// UpdateProduct applies an edit. Price changes never touch existing order items.
func (s *Service) UpdateProduct(ctx context.Context, productID id.ID, in ProductUpdate) (*Product, error) {
	var result *Product
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.getProduct(ctx, productID)
		if err != nil {
			return err
		}

		if in.Name != nil {
			p.Name = *in.Name
		}
		if in.ClearCategory {
			p.CategoryID = nil
		} else if in.CategoryID != nil {
			p.CategoryID = in.CategoryID
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		if in.IsActive != nil {
			p.IsActive = *in.IsActive
		}
		if in.Recipe != nil {
			p.Recipe = *in.Recipe
		}

		if err := p.Validate(ctx); err != nil {
			return err
		}
		if err := s.checkReferences(ctx, p); err != nil {
			return err
		}

		p.Touch()
		if err := s.products.Update(ctx, p); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if in.Recipe != nil {
			if err := s.products.ReplaceRecipe(ctx, p.ID, p.Recipe); err != nil {
				return fmt.Errorf("replace recipe: %w", err)
			}
		}
		result = p
		return s.fillCost(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "product updated", "product_id", productID, "recipe_replaced", in.Recipe != nil)
	return result, nil
}

// DeleteProduct removes a product that no order item references.
func (s *Service) DeleteProduct(ctx context.Context, productID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.getProduct(ctx, productID); err != nil {
			return err
		}
		reason, err := s.products.InUse(ctx, productID)
		if err != nil {
			return fmt.Errorf("check product references: %w", err)
		}
		if reason != "" {
			return apperror.NewReferentialBlock("product", productID.String(), reason)
		}
		return s.products.Delete(ctx, productID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product deleted", "product_id", productID)
	return nil
}

// GetProduct returns a product with its recipe and live unit cost.
func (s *Service) GetProduct(ctx context.Context, productID id.ID) (*Product, error) {
	p, err := s.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := s.fillCost(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProducts returns products with live unit cost.
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) (domain.ListResult[*Product], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	result, err := s.products.List(ctx, filter)
	if err != nil {
		return result, err
	}
	if err := s.fillCost(ctx, result.Items...); err != nil {
		return result, err
	}
	return result, nil
}

// ProductsForSale loads products for an order, failing with InvalidProducts
// if any id is unknown or inactive.
func (s *Service) ProductsForSale(ctx context.Context, ids []id.ID) (map[id.ID]*Product, error) {
	ids = id.Unique(ids)
	found, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	var invalid []id.ID
	for _, pid := range ids {
		p, ok := found[pid]
		if !ok || !p.IsActive {
			invalid = append(invalid, pid)
		}
	}
	if len(invalid) > 0 {
		return nil, apperror.NewInvalidProducts(id.Strings(invalid))
	}
	return found, nil
}

// ProductsByID returns the products found, active or not.
func (s *Service) ProductsByID(ctx context.Context, ids []id.ID) (map[id.ID]*Product, error) {
	found, err := s.products.GetByIDs(ctx, id.Unique(ids))
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return found, nil
}

// UnitCosts returns the current recipe cost of each product found.
func (s *Service) UnitCosts(ctx context.Context, ids []id.ID) (map[id.ID]types.Money, error) {
	found, err := s.products.GetByIDs(ctx, id.Unique(ids))
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	products := make([]*Product, 0, len(found))
	for _, p := range found {
		products = append(products, p)
	}
	if err := s.fillCost(ctx, products...); err != nil {
		return nil, err
	}

	costs := make(map[id.ID]types.Money, len(found))
	for pid, p := range found {
		costs[pid] = p.UnitCost
	}
	return costs, nil
}

func (s *Service) getProduct(ctx context.Context, productID id.ID) (*Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, err
	}
	return p, nil
}

// checkReferences enforces unique name, existing category and existing recipe materials.
func (s *Service) checkReferences(ctx context.Context, p *Product) error {
	taken, err := s.products.NameTaken(ctx, p.Name, p.ID)
	if err != nil {
		return fmt.Errorf("check product name: %w", err)
	}
	if taken {
		return apperror.NewDuplicate("product", "name", p.Name)
	}

	if p.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *p.CategoryID); err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("category", p.CategoryID.String())
			}
			return err
		}
	}

	if len(p.Recipe) == 0 {
		return nil
	}
	ids := p.MaterialIDs()
	found, err := s.materials.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load recipe materials: %w", err)
	}
	var missing []id.ID
	for _, mid := range ids {
		if _, ok := found[mid]; !ok {
			missing = append(missing, mid)
		}
	}
	if len(missing) > 0 {
		return apperror.NewInvalidMaterials(id.Strings(missing))
	}
	return nil
}

func (s *Service) fillCost(ctx context.Context, products ...*Product) error {
	var ids []id.ID
	for _, p := range products {
		ids = append(ids, p.MaterialIDs()...)
	}
	if len(ids) == 0 {
		return nil
	}
	materials, err := s.materials.GetByIDs(ctx, id.Unique(ids))
	if err != nil {
		return fmt.Errorf("load materials for costing: %w", err)
	}
	for _, p := range products {
		p.ComputeUnitCost(materials)
	}
	return nil
}
