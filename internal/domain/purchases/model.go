// Package purchases records supplier deliveries. A purchase adds its
// quantities to stock only while it is POSTED.
package purchases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bistro/internal/core/apperror"
	"bistro/internal/core/entity"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/inventory"
)

// Status of a purchase.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPosted    Status = "POSTED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus converts user input into a Status. Empty means draft.
func ParseStatus(s string) (Status, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return StatusDraft, nil
	}
	switch st := Status(s); st {
	case StatusDraft, StatusPosted, StatusCancelled:
		return st, nil
	}
	return "", apperror.NewInvalidInput(fmt.Sprintf("unknown purchase status %q", s)).WithDetail("field", "status")
}

// MaxItems bounds the number of lines per purchase.
const MaxItems = 200

// Item is a purchased material line.
type Item struct {
	PurchaseID id.ID          `db:"purchase_id" json:"-"`
	LineNo     int            `db:"line_no" json:"lineNo"`
	MaterialID id.ID          `db:"material_id" json:"materialId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
	UnitCost   types.Money    `db:"unit_cost" json:"unitCost"`
	Total      types.Money    `db:"total" json:"total"`
}

// Purchase is a supplier delivery document.
type Purchase struct {
	entity.Base

	Number       string      `db:"number" json:"number"`
	SupplierName string      `db:"supplier_name" json:"supplierName"`
	Date         time.Time   `db:"date" json:"date"`
	Status       Status      `db:"status" json:"status"`
	Notes        string      `db:"notes" json:"notes"`
	Total        types.Money `db:"total" json:"total"`

	Items []Item `db:"-" json:"items"`
}

// Validate implements entity.Validatable and recomputes line and document totals.
func (p *Purchase) Validate(_ context.Context) error {
	p.SupplierName = strings.TrimSpace(p.SupplierName)
	p.Notes = strings.TrimSpace(p.Notes)
	if p.Date.IsZero() {
		return apperror.NewInvalidInput("date is required").WithDetail("field", "date")
	}
	if len(p.Items) == 0 {
		return apperror.NewInvalidInput("at least one item is required").WithDetail("field", "items")
	}
	if len(p.Items) > MaxItems {
		return apperror.NewInvalidInput(fmt.Sprintf("purchase cannot have more than %d items", MaxItems)).
			WithDetail("field", "items")
	}

	total := decimal.Zero
	for i := range p.Items {
		item := &p.Items[i]
		field := fmt.Sprintf("items[%d]", i)
		if id.IsNil(item.MaterialID) {
			return apperror.NewInvalidInput("material is required").WithDetail("field", field+".materialId")
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewInvalidInput("quantity must be greater than zero").WithDetail("field", field+".quantity")
		}
		if item.UnitCost.IsNegative() {
			return apperror.NewInvalidInput("unit cost must not be negative").WithDetail("field", field+".unitCost")
		}
		item.PurchaseID = p.ID
		item.LineNo = i + 1
		item.Quantity = types.RoundQuantity(item.Quantity)
		item.Total = types.RoundMoney(item.Quantity.Mul(item.UnitCost))
		total = total.Add(item.Total)
	}
	p.Total = types.RoundMoney(total)
	return nil
}

// Effect is the stock the purchase currently contributes: its quantities per
// material while POSTED, nothing otherwise.
func (p *Purchase) Effect() inventory.Deltas {
	out := make(inventory.Deltas)
	if p.Status != StatusPosted {
		return out
	}
	for _, item := range p.Items {
		out.Add(item.MaterialID, item.Quantity)
	}
	return out
}

// MaterialIDs returns the materials referenced by the items.
func (p *Purchase) MaterialIDs() []id.ID {
	ids := make([]id.ID, len(p.Items))
	for i, item := range p.Items {
		ids[i] = item.MaterialID
	}
	return ids
}
