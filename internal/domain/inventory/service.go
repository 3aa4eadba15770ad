package inventory

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

// UpdateInput carries the fields of a material edit; nil fields are left unchanged.
type UpdateInput struct {
	Name     *string
	Unit     *string
	Cost     *types.Money
	Stock    *types.Quantity
	MinStock *types.Quantity
}

// Service manages the materials catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
	lowStock  LowStockMatcher
}

// NewService creates a new material service.
func NewService(repo Repository, txManager tx.Manager, lowStock LowStockMatcher) *Service {
	return &Service{repo: repo, txManager: txManager, lowStock: lowStock}
}

func (s *Service) ensureUniqueName(ctx context.Context, name string, excludeID id.ID) error {
	taken, err := s.repo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("check material name: %w", err)
	}
	if taken {
		return apperror.NewDuplicate("material", "name", name)
	}
	return nil
}

// Create validates and inserts a material.
func (s *Service) Create(ctx context.Context, m *Material) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureUniqueName(ctx, m.Name, m.ID); err != nil {
			return err
		}
		return s.repo.Create(ctx, m)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "material created", "material_id", m.ID, "name", m.Name, "stock", m.Stock)
	return nil
}

// GetByID returns a material.
func (s *Service) GetByID(ctx context.Context, materialID id.ID) (*Material, error) {
	m, err := s.repo.GetByID(ctx, materialID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("material", materialID.String())
		}
		return nil, err
	}
	return m, nil
}

// Update applies an edit. Setting Stock replaces the on-hand quantity (stocktake correction).
func (s *Service) Update(ctx context.Context, materialID id.ID, in UpdateInput) (*Material, error) {
	var result *Material
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// The row is rewritten whole, stock included, so it must not move under us.
		m, err := s.repo.GetForUpdate(ctx, materialID)
		if err != nil {
			return err
		}

		if in.Name != nil {
			m.Name = *in.Name
		}
		if in.Unit != nil {
			m.Unit = *in.Unit
		}
		if in.Cost != nil {
			m.Cost = *in.Cost
		}
		if in.Stock != nil {
			m.Stock = *in.Stock
		}
		if in.MinStock != nil {
			m.MinStock = *in.MinStock
		}
		if err := m.Validate(ctx); err != nil {
			return err
		}
		if err := s.ensureUniqueName(ctx, m.Name, m.ID); err != nil {
			return err
		}

		m.Touch()
		if err := s.repo.Update(ctx, m); err != nil {
			return err
		}
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "material updated", "material_id", materialID)
	return result, nil
}

// Delete removes a material that no recipe, purchase or waste record references.
func (s *Service) Delete(ctx context.Context, materialID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.GetByID(ctx, materialID); err != nil {
			return err
		}
		reason, err := s.repo.InUse(ctx, materialID)
		if err != nil {
			return fmt.Errorf("check material references: %w", err)
		}
		if reason != "" {
			return apperror.NewReferentialBlock("material", materialID.String(), reason)
		}
		return s.repo.Delete(ctx, materialID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "material deleted", "material_id", materialID)
	return nil
}

// List returns materials matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Material], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	if !filter.LowStockOnly {
		return s.repo.List(ctx, filter.ListFilter)
	}
	return s.listLow(ctx, filter.ListFilter)
}

// listLow walks every name match, keeps what the rule flags and pages the result.
func (s *Service) listLow(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Material], error) {
	var low []*Material
	page := domain.ListFilter{Search: filter.Search, Limit: domain.MaxLimit}
	for {
		res, err := s.repo.List(ctx, page)
		if err != nil {
			return domain.ListResult[*Material]{}, err
		}
		for _, m := range res.Items {
			matched, err := s.lowStock.Match(m)
			if err != nil {
				return domain.ListResult[*Material]{}, err
			}
			if matched {
				low = append(low, m)
			}
		}
		page.Offset += len(res.Items)
		if len(res.Items) == 0 || int64(page.Offset) >= res.TotalCount {
			break
		}
	}

	total := len(low)
	start := min(filter.Offset, total)
	end := min(start+filter.Limit, total)
	return domain.NewListResult(low[start:end], int64(total), filter), nil
}
