package sales

import (
	"context"
	"time"

	"bistro/internal/core/id"
	"bistro/internal/domain"
)

// ListFilter narrows invoice listings. Search matches invoice number and customer.
type ListFilter struct {
	domain.ListFilter

	Status  *Status
	OrderID *id.ID
	From    *time.Time
	To      *time.Time
}

// Repository defines persistence for invoices. Sales returned carry their items.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, id id.ID) (*Sale, error)
	// GetByOrderID returns the invoice linked to an order, or NotFound.
	GetByOrderID(ctx context.Context, orderID id.ID) (*Sale, error)
	Update(ctx context.Context, s *Sale) error
	ReplaceItems(ctx context.Context, saleID id.ID, items []Item) error
	Delete(ctx context.Context, id id.ID) error
	// DetachOrder clears the order link of the invoice materialized from orderID, if any.
	DetachOrder(ctx context.Context, orderID id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error)
}

// NumberGenerator issues sequential document numbers such as INV-2026-00001.
type NumberGenerator interface {
	Next(ctx context.Context, prefix string, at time.Time) (string, error)
}
