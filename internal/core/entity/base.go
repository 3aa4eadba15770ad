// Package entity provides the fields and helpers shared by every persisted entity.
package entity

import (
	"context"
	"strings"
	"time"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Identifiable exposes the primary key.
type Identifiable interface {
	GetID() id.ID
}

// Base contains the primary key and audit timestamps.
type Base struct {
	ID        id.ID     `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBase creates a Base with a fresh ID and timestamps.
func NewBase() Base {
	now := time.Now().UTC()
	return Base{ID: id.New(), CreatedAt: now, UpdatedAt: now}
}

// GetID implements Identifiable.
func (b *Base) GetID() id.ID { return b.ID }

// Touch updates the UpdatedAt timestamp.
func (b *Base) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// RequireName trims *name in place and fails when it is empty or longer than max.
func RequireName(name *string, field string, max int) error {
	*name = strings.TrimSpace(*name)
	if *name == "" {
		return apperror.NewInvalidInput(field + " is required").WithDetail("field", field)
	}
	if max > 0 && len([]rune(*name)) > max {
		return apperror.NewInvalidInput(field+" is too long").
			WithDetail("field", field).
			WithDetail("max", max)
	}
	return nil
}

// FieldError wraps a plain validation error with the offending field name.
func FieldError(field string, err error) error {
	if err == nil {
		return nil
	}
	return apperror.NewInvalidInput(err.Error()).WithDetail("field", field)
}
