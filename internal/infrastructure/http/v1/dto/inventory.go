package dto

import (
	"bistro/internal/core/types"
	"bistro/internal/domain/inventory"
)

// CreateMaterialRequest creates a raw material.
type CreateMaterialRequest struct {
	Name     string         `json:"name" binding:"required"`
	Unit     string         `json:"unit"`
	Cost     types.Money    `json:"cost"`
	Stock    types.Quantity `json:"stock"`
	MinStock types.Quantity `json:"minStock"`
}

func (r *CreateMaterialRequest) ToEntity() *inventory.Material {
	m := inventory.NewMaterial()
	m.Name = r.Name
	m.Unit = r.Unit
	m.Cost = r.Cost
	m.Stock = r.Stock
	m.MinStock = r.MinStock
	return m
}

// UpdateMaterialRequest edits a material. Stock, when present, is set absolutely (stocktake).
type UpdateMaterialRequest struct {
	Name     *string         `json:"name"`
	Unit     *string         `json:"unit"`
	Cost     *types.Money    `json:"cost"`
	Stock    *types.Quantity `json:"stock"`
	MinStock *types.Quantity `json:"minStock"`
}

func (r *UpdateMaterialRequest) ToInput() inventory.UpdateInput {
	return inventory.UpdateInput{
		Name:     r.Name,
		Unit:     r.Unit,
		Cost:     r.Cost,
		Stock:    r.Stock,
		MinStock: r.MinStock,
	}
}

// MaterialListQuery filters materials.
type MaterialListQuery struct {
	ListQuery
	LowStock bool `form:"lowStock"`
}

func (q MaterialListQuery) ToFilter() inventory.ListFilter {
	return inventory.ListFilter{ListFilter: q.ListQuery.ToFilter(), LowStockOnly: q.LowStock}
}
