// Package orders implements the order aggregate: creation with atomic stock
// consumption, the status state machine, table occupancy and the hand-off to
// invoicing when an order is delivered.
package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bistro/internal/core/apperror"
	"bistro/internal/core/entity"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/catalog"
	"bistro/internal/domain/inventory"
	"bistro/internal/domain/pricing"
)

const (
	// MaxItems bounds the number of lines per order.
	MaxItems = 100
	// MaxItemQuantity bounds the quantity of a single line.
	MaxItemQuantity = 1000
)

// Type is how the order is served.
type Type string

const (
	TypeDineIn   Type = "DINE_IN"
	TypeTakeaway Type = "TAKEAWAY"
	TypeDelivery Type = "DELIVERY"
)

// ParseType converts user input into a Type.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(s))); t {
	case TypeDineIn, TypeTakeaway, TypeDelivery:
		return t, nil
	}
	return "", apperror.NewInvalidInput(fmt.Sprintf("unknown order type %q", s)).WithDetail("field", "type")
}

// Status is the order lifecycle state.
type Status string

const (
	StatusPreparing Status = "PREPARING"
	StatusReady     Status = "READY"
	StatusOut       Status = "OUT"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// ActiveStatuses are the statuses that hold a table.
var ActiveStatuses = []Status{StatusPreparing, StatusReady, StatusOut}

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusPreparing, StatusReady, StatusOut, StatusDelivered, StatusCancelled}
}

// ParseStatus converts user input into a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPreparing, StatusReady, StatusOut, StatusDelivered, StatusCancelled:
		return st, nil
	}
	return "", apperror.NewInvalidInput(fmt.Sprintf("unknown order status %q", s)).WithDetail("field", "status")
}

// IsActive reports whether the status holds a table.
func (s Status) IsActive() bool {
	switch s {
	case StatusPreparing, StatusReady, StatusOut:
		return true
	}
	return false
}

// IsTerminal reports whether no further status change is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentCard   PaymentMethod = "CARD"
	PaymentOnline PaymentMethod = "ONLINE"
)

// ParsePaymentMethod converts user input into a PaymentMethod. Empty means cash.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return PaymentCash, nil
	}
	switch p := PaymentMethod(s); p {
	case PaymentCash, PaymentCard, PaymentOnline:
		return p, nil
	}
	return "", apperror.NewInvalidInput(fmt.Sprintf("unknown payment method %q", s)).WithDetail("field", "paymentMethod")
}

// Item is an order line. Name and prices are snapshots taken at creation.
type Item struct {
	OrderID     id.ID       `db:"order_id" json:"-"`
	LineNo      int         `db:"line_no" json:"lineNo"`
	ProductID   id.ID       `db:"product_id" json:"productId"`
	ProductName string      `db:"product_name" json:"productName"`
	Quantity    int         `db:"quantity" json:"quantity"`
	UnitPrice   types.Money `db:"unit_price" json:"unitPrice"`
	TotalPrice  types.Money `db:"total_price" json:"totalPrice"`
}

// Order is a customer order.
type Order struct {
	entity.Base

	Code          string          `db:"code" json:"code"`
	Type          Type            `db:"type" json:"type"`
	Status        Status          `db:"status" json:"status"`
	CustomerName  string          `db:"customer_name" json:"customerName"`
	CustomerPhone string          `db:"customer_phone" json:"customerPhone"`
	Address       string          `db:"address" json:"address"`
	ZoneID        *id.ID          `db:"zone_id" json:"zoneId,omitempty"`
	DriverID      *id.ID          `db:"driver_id" json:"driverId,omitempty"`
	TableID       *id.ID          `db:"table_id" json:"tableId,omitempty"`
	PaymentMethod PaymentMethod   `db:"payment_method" json:"paymentMethod"`
	Notes         string          `db:"notes" json:"notes"`
	Discount      types.Money     `db:"discount" json:"discount"`
	TaxRate       decimal.Decimal `db:"tax_rate" json:"taxRate"`
	TaxAmount     types.Money     `db:"tax_amount" json:"taxAmount"`
	Subtotal      types.Money     `db:"subtotal" json:"subtotal"`
	DeliveryFee   types.Money     `db:"delivery_fee" json:"deliveryFee"`
	Total         types.Money     `db:"total" json:"total"`
	DeliveredAt   *time.Time      `db:"delivered_at" json:"deliveredAt,omitempty"`

	Items []Item `db:"-" json:"items"`
}

// ProductIDs returns the products referenced by the items.
func (o *Order) ProductIDs() []id.ID {
	ids := make([]id.ID, len(o.Items))
	for i, item := range o.Items {
		ids[i] = item.ProductID
	}
	return ids
}

// ApplyTotals recomputes the stored totals from the items, the given zone fee
// and the order's discount and tax settings.
func (o *Order) ApplyTotals(zoneFee types.Money) pricing.Totals {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.TotalPrice)
	}

	fee := decimal.Zero
	if o.Type == TypeDelivery {
		fee = zoneFee
	}

	t := pricing.Compute(pricing.Input{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Discount:    o.Discount,
		TaxRate:     o.TaxRate,
		TaxAmount:   o.TaxAmount,
	})
	o.Subtotal = t.Subtotal
	o.DeliveryFee = t.DeliveryFee
	o.TaxAmount = t.TaxAmount
	o.Total = t.Total
	return t
}

// Consumption aggregates the materials the items use, summed per material
// across all lines. Products missing from the map contribute nothing.
func (o *Order) Consumption(products map[id.ID]*catalog.Product) inventory.Deltas {
	needs := make(inventory.Deltas)
	for _, item := range o.Items {
		if p, ok := products[item.ProductID]; ok {
			needs.Merge(p.Consumption(item.Quantity))
		}
	}
	return needs
}

// CheckTypeCombination validates zone and table usage against the order type.
func CheckTypeCombination(t Type, zoneID, tableID *id.ID) error {
	if t == TypeDelivery && zoneID == nil {
		return apperror.NewInvalidTypeCombination("delivery orders require a zone").WithDetail("field", "zoneId")
	}
	if t != TypeDelivery && zoneID != nil {
		return apperror.NewInvalidTypeCombination("only delivery orders can have a zone").WithDetail("field", "zoneId")
	}
	if t != TypeDineIn && tableID != nil {
		return apperror.NewInvalidTypeCombination("only dine-in orders can have a table").WithDetail("field", "tableId")
	}
	return nil
}
