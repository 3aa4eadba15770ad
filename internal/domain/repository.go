// Package domain provides the building blocks shared by the business packages:
// list pagination and a generic service for simple reference entities.
package domain

import (
	"context"
	"strings"

	"bistro/internal/core/entity"
	"bistro/internal/core/id"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search is a case-insensitive substring match on the entity name
	Search string

	Limit  int
	Offset int
}

// Normalize clamps pagination to sane bounds.
func (f ListFilter) Normalize() ListFilter {
	f.Search = strings.TrimSpace(f.Search)
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResult builds a ListResult, never returning a nil Items slice.
func NewListResult[T any](items []T, total int64, f ListFilter) ListResult[T] {
	if items == nil {
		items = []T{}
	}
	return ListResult[T]{Items: items, TotalCount: total, Limit: f.Limit, Offset: f.Offset}
}

// ReferenceEntity is a named reference record (category, zone, driver, table).
type ReferenceEntity interface {
	entity.Validatable
	entity.Identifiable
}

// ReferenceRepository defines persistence for reference entities.
type ReferenceRepository[T ReferenceEntity] interface {
	Create(ctx context.Context, e T) error
	GetByID(ctx context.Context, id id.ID) (T, error)
	Update(ctx context.Context, e T) error
	Delete(ctx context.Context, id id.ID) error
	List(ctx context.Context, filter ListFilter) (ListResult[T], error)

	// NameTaken reports whether another record already uses e's unique key.
	NameTaken(ctx context.Context, e T) (bool, error)

	// InUse returns a non-empty reason when dependent rows block deleting the record.
	InUse(ctx context.Context, id id.ID) (string, error)
}
