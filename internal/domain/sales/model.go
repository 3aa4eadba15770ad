// Package sales holds invoices. Invoices are entered by hand or materialized
// from delivered orders; order-linked invoices are read-only to direct edits.
package sales

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
	"bistro/internal/domain/pricing"
)

// Status of an invoice.
type Status string

const (
	StatusDraft Status = "DRAFT"
	StatusPaid  Status = "PAID"
	StatusVoid  Status = "VOID"
)

// ParseStatus converts user input into a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusDraft, StatusPaid, StatusVoid:
		return st, nil
	}
	return "", apperror.NewInvalidInput(fmt.Sprintf("unknown sale status %q", s)).WithDetail("field", "status")
}

// MaxItems bounds the number of invoice lines.
const MaxItems = 200

// Item is an invoice line. It is a snapshot, independent of any order item.
type Item struct {
	SaleID   id.ID          `db:"sale_id" json:"-"`
	LineNo   int            `db:"line_no" json:"lineNo"`
	Name     string         `db:"name" json:"name"`
	Quantity types.Quantity `db:"quantity" json:"quantity"`
	Price    types.Money    `db:"price" json:"price"`
	Total    types.Money    `db:"total" json:"total"`
}

// Sale is an invoice.
type Sale struct {
	entity.Base

	InvoiceNo     string      `db:"invoice_no" json:"invoiceNo"`
	Date          time.Time   `db:"date" json:"date"`
	CustomerName  string      `db:"customer_name" json:"customerName"`
	PaymentMethod string      `db:"payment_method" json:"paymentMethod"`
	Notes         string      `db:"notes" json:"notes"`
	Status        Status      `db:"status" json:"status"`
	OrderID       *id.ID      `db:"order_id" json:"orderId,omitempty"`
	Subtotal      types.Money `db:"subtotal" json:"subtotal"`
	DeliveryFee   types.Money `db:"delivery_fee" json:"deliveryFee"`
	Discount      types.Money `db:"discount" json:"discount"`
	TaxAmount     types.Money `db:"tax_amount" json:"taxAmount"`
	Total         types.Money `db:"total" json:"total"`

	Items []Item `db:"-" json:"items"`
}

// IsOrderLinked reports whether the invoice was materialized from an order.
func (s *Sale) IsOrderLinked() bool {
	return s.OrderID != nil
}

// Validate implements entity.Validatable for manually entered invoices.
func (s *Sale) Validate(_ context.Context) error {
	s.CustomerName = strings.TrimSpace(s.CustomerName)
	if s.Date.IsZero() {
		return apperror.NewInvalidInput("date is required").WithDetail("field", "date")
	}
	if len(s.Items) == 0 {
		return apperror.NewInvalidInput("at least one item is required").WithDetail("field", "items")
	}
	if len(s.Items) > MaxItems {
		return apperror.NewInvalidInput(fmt.Sprintf("invoice cannot have more than %d items", MaxItems)).
			WithDetail("field", "items")
	}
	for i := range s.Items {
		item := &s.Items[i]
		field := fmt.Sprintf("items[%d]", i)
		if err := entity.RequireName(&item.Name, field+".name", 200); err != nil {
			return err
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewInvalidInput("quantity must be greater than zero").WithDetail("field", field+".quantity")
		}
		if item.Price.IsNegative() {
			return apperror.NewInvalidInput("price must not be negative").WithDetail("field", field+".price")
		}
	}
	if s.Discount.IsNegative() || s.TaxAmount.IsNegative() || s.DeliveryFee.IsNegative() {
		return apperror.NewInvalidInput("discount, tax and fee must not be negative")
	}
	return nil
}

// Recalculate renumbers lines and recomputes every total from the items.
func (s *Sale) Recalculate(taxRate decimal.Decimal) {
	subtotal := decimal.Zero
	for i := range s.Items {
		item := &s.Items[i]
		item.SaleID = s.ID
		item.LineNo = i + 1
		item.Total = types.RoundMoney(item.Price.Mul(item.Quantity))
		subtotal = subtotal.Add(item.Total)
	}

	t := pricing.Compute(pricing.Input{
		Subtotal:    subtotal,
		DeliveryFee: s.DeliveryFee,
		Discount:    s.Discount,
		TaxRate:     taxRate,
		TaxAmount:   s.TaxAmount,
	})
	s.Subtotal = t.Subtotal
	s.DeliveryFee = t.DeliveryFee
	s.Discount = t.Discount
	s.TaxAmount = t.TaxAmount
	s.Total = t.Total
}
