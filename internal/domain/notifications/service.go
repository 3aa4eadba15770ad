// Package notifications computes the badge counts shown to staff and pushes
// them to subscribers on a fixed interval.
package notifications

import (
	"context"
	"fmt"

	"bistro/internal/domain/inventory"
)

// Counts is the notification snapshot.
type Counts struct {
	LowStock      int `json:"lowStock"`
	PendingOrders int `json:"pendingOrders"`
	DraftSales    int `json:"draftSales"`
}

// Repository counts the open work items.
type Repository interface {
	// PendingOrders counts orders in an active status.
	PendingOrders(ctx context.Context) (int, error)
	// DraftSales counts sales still in DRAFT.
	DraftSales(ctx context.Context) (int, error)
}

// MaterialLister returns every material.
type MaterialLister interface {
	ListAll(ctx context.Context) ([]*inventory.Material, error)
}

// Service evaluates notification counts.
type Service struct {
	repo      Repository
	materials MaterialLister
	rule      *LowStockRule
}

// NewService creates a new notification service.
func NewService(repo Repository, materials MaterialLister, rule *LowStockRule) *Service {
	return &Service{repo: repo, materials: materials, rule: rule}
}

// Counts returns the current snapshot.
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	var c Counts

	low, err := s.LowStock(ctx)
	if err != nil {
		return c, err
	}
	c.LowStock = len(low)

	if c.PendingOrders, err = s.repo.PendingOrders(ctx); err != nil {
		return c, fmt.Errorf("count pending orders: %w", err)
	}
	if c.DraftSales, err = s.repo.DraftSales(ctx); err != nil {
		return c, fmt.Errorf("count draft sales: %w", err)
	}
	return c, nil
}

// LowStock returns the materials matched by the low-stock rule.
func (s *Service) LowStock(ctx context.Context) ([]*inventory.Material, error) {
	all, err := s.materials.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}

	var low []*inventory.Material
	for _, m := range all {
		ok, err := s.rule.Match(m)
		if err != nil {
			return nil, err
		}
		if ok {
			low = append(low, m)
		}
	}
	return low, nil
}

// LowStockCount returns the number of materials matched by the low-stock rule.
func (s *Service) LowStockCount(ctx context.Context) (int, error) {
	low, err := s.LowStock(ctx)
	if err != nil {
		return 0, err
	}
	return len(low), nil
}
