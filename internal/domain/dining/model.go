// Package dining holds the floor and dispatch reference data orders point at:
// dining tables, delivery zones and drivers.
package dining

import (
	"context"
	"strings"

	"bistro/internal/core/apperror"
	"bistro/internal/core/entity"
	"bistro/internal/core/types"
)

// Table is a dining table. IsOccupied is a cache of "an active order references
// this table", rewritten by the order service after every relevant mutation.
type Table struct {
	entity.Base

	Name       string `db:"name" json:"name"`
	Number     int    `db:"number" json:"number"`
	Seats      int    `db:"seats" json:"seats"`
	IsOccupied bool   `db:"is_occupied" json:"isOccupied"`
}

// Validate implements entity.Validatable.
func (t *Table) Validate(_ context.Context) error {
	if err := entity.RequireName(&t.Name, "name", 60); err != nil {
		return err
	}
	if t.Number <= 0 {
		return apperror.NewInvalidInput("table number must be positive").WithDetail("field", "number")
	}
	if t.Seats < 0 {
		return apperror.NewInvalidInput("seats must not be negative").WithDetail("field", "seats")
	}
	return nil
}

// Zone is a delivery area with a flat delivery fee.
type Zone struct {
	entity.Base

	Name string      `db:"name" json:"name"`
	Fee  types.Money `db:"fee" json:"fee"`
}

// Validate implements entity.Validatable.
func (z *Zone) Validate(_ context.Context) error {
	if err := entity.RequireName(&z.Name, "name", 80); err != nil {
		return err
	}
	if err := types.RequireNonNegative("fee", z.Fee); err != nil {
		return entity.FieldError("fee", err)
	}
	z.Fee = types.RoundMoney(z.Fee)
	return nil
}

// Driver delivers orders.
type Driver struct {
	entity.Base

	Name     string `db:"name" json:"name"`
	Phone    string `db:"phone" json:"phone"`
	IsActive bool   `db:"is_active" json:"isActive"`
}

// Validate implements entity.Validatable.
func (d *Driver) Validate(_ context.Context) error {
	if err := entity.RequireName(&d.Name, "name", 80); err != nil {
		return err
	}
	d.Phone = strings.TrimSpace(d.Phone)
	return nil
}
