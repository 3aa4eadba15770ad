// Package waste records material written off (spoiled, spilled, expired).
// A waste record withdraws its quantity from stock for as long as it exists.
package waste

import (
	"context"
	"strings"
	"time"

	"bistro/internal/core/apperror"
	"bistro/internal/core/entity"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain"
)

// Waste is a stock write-off.
type Waste struct {
	entity.Base

	MaterialID id.ID          `db:"material_id" json:"materialId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
	Cost       types.Money    `db:"cost" json:"cost"`
	Reason     string         `db:"reason" json:"reason"`
	Date       time.Time      `db:"date" json:"date"`
}

// Validate implements entity.Validatable.
func (w *Waste) Validate(_ context.Context) error {
	if id.IsNil(w.MaterialID) {
		return apperror.NewInvalidInput("material is required").WithDetail("field", "materialId")
	}
	if !w.Quantity.IsPositive() {
		return apperror.NewInvalidInput("quantity must be greater than zero").WithDetail("field", "quantity")
	}
	if w.Cost.IsNegative() {
		return apperror.NewInvalidInput("cost must not be negative").WithDetail("field", "cost")
	}
	if w.Date.IsZero() {
		return apperror.NewInvalidInput("date is required").WithDetail("field", "date")
	}
	w.Quantity = types.RoundQuantity(w.Quantity)
	w.Reason = strings.TrimSpace(w.Reason)
	return nil
}

// ListFilter narrows waste listings. Search matches the reason.
type ListFilter struct {
	domain.ListFilter

	MaterialID *id.ID
	From       *time.Time
	To         *time.Time
}

// Repository defines persistence for waste records.
type Repository interface {
	Create(ctx context.Context, w *Waste) error
	GetByID(ctx context.Context, id id.ID) (*Waste, error)
	GetForUpdate(ctx context.Context, id id.ID) (*Waste, error)
	Update(ctx context.Context, w *Waste) error
	Delete(ctx context.Context, id id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Waste], error)
}
