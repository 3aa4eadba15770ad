package dto

import (
	"bistro/internal/core/entity"
	"bistro/internal/core/types"
	"bistro/internal/domain/dining"
)

// TableRequest creates or edits a dining table. Occupancy is never client-set.
type TableRequest struct {
	Name   string `json:"name" binding:"required"`
	Number int    `json:"number"`
	Seats  int    `json:"seats"`
}

func (r *TableRequest) ToEntity() *dining.Table {
	return &dining.Table{Base: entity.NewBase(), Name: r.Name, Number: r.Number, Seats: r.Seats}
}

func (r *TableRequest) ApplyTo(t *dining.Table) error {
	t.Name = r.Name
	t.Number = r.Number
	t.Seats = r.Seats
	return nil
}

// ZoneRequest creates or edits a delivery zone.
type ZoneRequest struct {
	Name string      `json:"name" binding:"required"`
	Fee  types.Money `json:"fee"`
}

func (r *ZoneRequest) ToEntity() *dining.Zone {
	return &dining.Zone{Base: entity.NewBase(), Name: r.Name, Fee: r.Fee}
}

func (r *ZoneRequest) ApplyTo(z *dining.Zone) error {
	z.Name = r.Name
	z.Fee = r.Fee
	return nil
}

// DriverRequest creates or edits a driver. IsActive defaults to true on create.
type DriverRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	IsActive *bool  `json:"isActive"`
}

func (r *DriverRequest) ToEntity() *dining.Driver {
	d := &dining.Driver{Base: entity.NewBase(), Name: r.Name, Phone: r.Phone, IsActive: true}
	if r.IsActive != nil {
		d.IsActive = *r.IsActive
	}
	return d
}

func (r *DriverRequest) ApplyTo(d *dining.Driver) error {
	d.Name = r.Name
	d.Phone = r.Phone
	if r.IsActive != nil {
		d.IsActive = *r.IsActive
	}
	return nil
}
