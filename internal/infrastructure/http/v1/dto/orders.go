package dto

import (
	"github.com/shopspring/decimal"

	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/orders"
)

// OrderItemRequest is a requested order line.
type OrderItemRequest struct {
	ProductID id.ID `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CreateOrderRequest places an order.
type CreateOrderRequest struct {
	Type          string             `json:"type" binding:"required"`
	CustomerName  string             `json:"customerName"`
	CustomerPhone string             `json:"customerPhone"`
	Address       string             `json:"address"`
	Items         []OrderItemRequest `json:"items"`
	ZoneID        *id.ID             `json:"zoneId"`
	TableID       *id.ID             `json:"tableId"`
	DriverID      *id.ID             `json:"driverId"`
	Discount      types.Money        `json:"discount"`
	TaxRate       decimal.Decimal    `json:"taxRate"`
	TaxAmount     types.Money        `json:"taxAmount"`
	PaymentMethod string             `json:"paymentMethod"`
	Notes         string             `json:"notes"`
}

func (r *CreateOrderRequest) ToInput() (orders.CreateInput, error) {
	orderType, err := orders.ParseType(r.Type)
	if err != nil {
		return orders.CreateInput{}, err
	}
	payment, err := orders.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return orders.CreateInput{}, err
	}

	items := make([]orders.ItemInput, len(r.Items))
	for i, it := range r.Items {
		items[i] = orders.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	return orders.CreateInput{
		Type:          orderType,
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		Address:       r.Address,
		Items:         items,
		ZoneID:        r.ZoneID,
		TableID:       r.TableID,
		DriverID:      r.DriverID,
		Discount:      r.Discount,
		TaxRate:       r.TaxRate,
		TaxAmount:     r.TaxAmount,
		PaymentMethod: payment,
		Notes:         r.Notes,
	}, nil
}

// UpdateOrderRequest edits an order. "tableId": null and "driverId": null clear the field.
type UpdateOrderRequest struct {
	Status        *string    `json:"status"`
	TableID       NullableID `json:"tableId"`
	DriverID      NullableID `json:"driverId"`
	CustomerName  *string    `json:"customerName"`
	PaymentMethod *string    `json:"paymentMethod"`
	Notes         *string    `json:"notes"`
}

func (r *UpdateOrderRequest) ToInput() (orders.UpdateInput, error) {
	in := orders.UpdateInput{
		CustomerName: r.CustomerName,
		Notes:        r.Notes,
	}
	if r.Status != nil {
		st, err := orders.ParseStatus(*r.Status)
		if err != nil {
			return in, err
		}
		in.Status = &st
	}
	if r.PaymentMethod != nil {
		pm, err := orders.ParsePaymentMethod(*r.PaymentMethod)
		if err != nil {
			return in, err
		}
		in.PaymentMethod = &pm
	}
	if r.TableID.Set {
		in.TableID = r.TableID.Value
		in.ClearTable = r.TableID.Value == nil
	}
	if r.DriverID.Set {
		in.DriverID = r.DriverID.Value
		in.ClearDriver = r.DriverID.Value == nil
	}
	return in, nil
}

// OrderListQuery filters orders. Status accepts a comma-separated list.
type OrderListQuery struct {
	ListQuery
	Status   string `form:"status"`
	Type     string `form:"type"`
	TableID  string `form:"tableId"`
	DriverID string `form:"driverId"`
	From     string `form:"from"`
	To       string `form:"to"`
}
