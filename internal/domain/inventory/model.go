// Package inventory owns raw-material stock: the materials catalog and the
// ledger that moves stock up and down without ever letting it go negative.
package inventory

import (
	"context"
	"strings"

	"bistro/internal/core/entity"
	"bistro/internal/core/types"
)

// Material is a stock-keeping raw ingredient (sugar, milk, cups).
type Material struct {
	entity.Base

	Name     string         `db:"name" json:"name"`
	Unit     string         `db:"unit" json:"unit"`
	Cost     types.Money    `db:"cost" json:"cost"`
	Stock    types.Quantity `db:"stock" json:"stock"`
	MinStock types.Quantity `db:"min_stock" json:"minStock"`
}

// NewMaterial creates a material with a fresh ID.
func NewMaterial() *Material {
	return &Material{Base: entity.NewBase()}
}

// Validate implements entity.Validatable.
func (m *Material) Validate(_ context.Context) error {
	if err := entity.RequireName(&m.Name, "name", 120); err != nil {
		return err
	}
	m.Unit = strings.TrimSpace(m.Unit)
	if m.Unit == "" {
		m.Unit = "pcs"
	}
	if err := types.RequireNonNegative("cost", m.Cost); err != nil {
		return entity.FieldError("cost", err)
	}
	if err := types.RequireNonNegative("stock", m.Stock); err != nil {
		return entity.FieldError("stock", err)
	}
	if err := types.RequireNonNegative("minStock", m.MinStock); err != nil {
		return entity.FieldError("minStock", err)
	}
	m.Stock = types.RoundQuantity(m.Stock)
	m.MinStock = types.RoundQuantity(m.MinStock)
	return nil
}

// LowStockMatcher decides whether a material needs reordering. One configured
// rule backs the StockLow event, the low stock listing and the alert counts.
type LowStockMatcher interface {
	Match(m *Material) (bool, error)
}
