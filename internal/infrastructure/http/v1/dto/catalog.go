package dto

import (
	"bistro/internal/core/entity"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/catalog"
)

// CategoryRequest creates or renames a category.
type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (r *CategoryRequest) ToEntity() *catalog.Category {
	return &catalog.Category{Base: entity.NewBase(), Name: r.Name}
}

func (r *CategoryRequest) ApplyTo(c *catalog.Category) error {
	c.Name = r.Name
	return nil
}

// RecipeItemRequest is one recipe line.
type RecipeItemRequest struct {
	MaterialID id.ID          `json:"materialId"`
	Quantity   types.Quantity `json:"quantity"`
}

func recipeFromRequest(items []RecipeItemRequest) []catalog.RecipeItem {
	out := make([]catalog.RecipeItem, len(items))
	for i, it := range items {
		out[i] = catalog.RecipeItem{MaterialID: it.MaterialID, Quantity: it.Quantity}
	}
	return out
}

// CreateProductRequest creates a product with its recipe.
type CreateProductRequest struct {
	Name       string              `json:"name" binding:"required"`
	CategoryID *id.ID              `json:"categoryId"`
	Price      types.Money         `json:"price"`
	IsActive   *bool               `json:"isActive"`
	Recipe     []RecipeItemRequest `json:"recipe"`
}

func (r *CreateProductRequest) ToEntity() *catalog.Product {
	p := catalog.NewProduct()
	p.Name = r.Name
	p.CategoryID = r.CategoryID
	p.Price = r.Price
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	p.Recipe = recipeFromRequest(r.Recipe)
	return p
}

// UpdateProductRequest edits a product. A present recipe replaces the stored one;
// "categoryId": null removes the category.
type UpdateProductRequest struct {
	Name       *string              `json:"name"`
	CategoryID NullableID           `json:"categoryId"`
	Price      *types.Money         `json:"price"`
	IsActive   *bool                `json:"isActive"`
	Recipe     *[]RecipeItemRequest `json:"recipe"`
}

func (r *UpdateProductRequest) ToInput() catalog.ProductUpdate {
	in := catalog.ProductUpdate{
		Name:     r.Name,
		Price:    r.Price,
		IsActive: r.IsActive,
	}
	if r.CategoryID.Set {
		in.CategoryID = r.CategoryID.Value
		in.ClearCategory = r.CategoryID.Value == nil
	}
	if r.Recipe != nil {
		recipe := recipeFromRequest(*r.Recipe)
		in.Recipe = &recipe
	}
	return in
}

// ProductListQuery filters products.
type ProductListQuery struct {
	ListQuery
	CategoryID string `form:"categoryId"`
	ActiveOnly bool   `form:"activeOnly"`
}
