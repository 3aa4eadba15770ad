// Package catalog holds sellable products, their categories and recipes.
// A recipe lists the materials one unit of a product consumes; it drives both
// stock consumption at order time and live unit cost for reporting.
package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"bistro/internal/core/apperror"
	"bistro/internal/core/entity"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/inventory"
)

// MaxRecipeItems bounds a recipe's length.
const MaxRecipeItems = 50

// Category groups products on the menu.
type Category struct {
	entity.Base

	Name string `db:"name" json:"name"`
}

// Validate implements entity.Validatable.
func (c *Category) Validate(_ context.Context) error {
	return entity.RequireName(&c.Name, "name", 80)
}

// RecipeItem is one material line of a product recipe.
type RecipeItem struct {
	ProductID  id.ID          `db:"product_id" json:"-"`
	LineNo     int            `db:"line_no" json:"lineNo"`
	MaterialID id.ID          `db:"material_id" json:"materialId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
}

// Product is a menu item.
type Product struct {
	entity.Base

	Name       string      `db:"name" json:"name"`
	CategoryID *id.ID      `db:"category_id" json:"categoryId,omitempty"`
	Price      types.Money `db:"price" json:"price"`
	IsActive   bool        `db:"is_active" json:"isActive"`

	Recipe []RecipeItem `db:"-" json:"recipe"`

	// UnitCost is derived from current material costs; never stored.
	UnitCost types.Money `db:"-" json:"unitCost"`
}

// NewProduct creates an active product with a fresh ID.
func NewProduct() *Product {
	return &Product{Base: entity.NewBase(), IsActive: true}
}

// Validate implements entity.Validatable and renumbers recipe lines.
func (p *Product) Validate(_ context.Context) error {
	if err := entity.RequireName(&p.Name, "name", 120); err != nil {
		return err
	}
	if err := types.RequireNonNegative("price", p.Price); err != nil {
		return entity.FieldError("price", err)
	}
	return p.setRecipe(p.Recipe)
}

// SetRecipe replaces the whole recipe. There is no partial patch.
func (p *Product) SetRecipe(items []RecipeItem) error {
	return p.setRecipe(items)
}

func (p *Product) setRecipe(items []RecipeItem) error {
	if len(items) > MaxRecipeItems {
		return apperror.NewInvalidInput(fmt.Sprintf("recipe cannot have more than %d items", MaxRecipeItems)).
			WithDetail("field", "recipe")
	}

	seen := make(map[id.ID]struct{}, len(items))
	recipe := make([]RecipeItem, len(items))
	for i, item := range items {
		if id.IsNil(item.MaterialID) {
			return apperror.NewInvalidInput("recipe material is required").
				WithDetail("field", fmt.Sprintf("recipe[%d].materialId", i))
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewInvalidInput("recipe quantity must be greater than zero").
				WithDetail("field", fmt.Sprintf("recipe[%d].quantity", i))
		}
		if _, dup := seen[item.MaterialID]; dup {
			return apperror.NewInvalidInput("material appears twice in recipe").
				WithDetail("field", fmt.Sprintf("recipe[%d].materialId", i)).
				WithDetail("material_id", item.MaterialID.String())
		}
		seen[item.MaterialID] = struct{}{}

		recipe[i] = RecipeItem{
			ProductID:  p.ID,
			LineNo:     i + 1,
			MaterialID: item.MaterialID,
			Quantity:   types.RoundQuantity(item.Quantity),
		}
	}
	p.Recipe = recipe
	return nil
}

// MaterialIDs returns the distinct materials the recipe uses.
func (p *Product) MaterialIDs() []id.ID {
	ids := make([]id.ID, len(p.Recipe))
	for i, item := range p.Recipe {
		ids[i] = item.MaterialID
	}
	return ids
}

// Consumption returns the materials used by units of this product.
// Values are positive quantities to withdraw.
func (p *Product) Consumption(units int) inventory.Deltas {
	out := make(inventory.Deltas, len(p.Recipe))
	n := decimal.NewFromInt(int64(units))
	for _, item := range p.Recipe {
		out.Add(item.MaterialID, item.Quantity.Mul(n))
	}
	return out
}

// ComputeUnitCost sets UnitCost = Σ recipe quantity × material cost.
// Materials missing from the map contribute nothing.
func (p *Product) ComputeUnitCost(materials map[id.ID]*inventory.Material) {
	cost := decimal.Zero
	for _, item := range p.Recipe {
		if m, ok := materials[item.MaterialID]; ok {
			cost = cost.Add(item.Quantity.Mul(m.Cost))
		}
	}
	p.UnitCost = types.RoundMoney(cost)
}
