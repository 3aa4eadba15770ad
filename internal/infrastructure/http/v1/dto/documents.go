package dto

import (
	"github.com/shopspring/decimal"

	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/purchases"
	"bistro/internal/domain/sales"
	"bistro/internal/domain/waste"
)

// --- Sales ---

// SaleItemRequest is a manual invoice line.
type SaleItemRequest struct {
	Name     string         `json:"name"`
	Quantity types.Quantity `json:"quantity"`
	Price    types.Money    `json:"price"`
}

// SaleRequest creates or replaces a manual invoice.
type SaleRequest struct {
	Date          Date              `json:"date"`
	CustomerName  string            `json:"customerName"`
	PaymentMethod string            `json:"paymentMethod"`
	Notes         string            `json:"notes"`
	Status        string            `json:"status"`
	Items         []SaleItemRequest `json:"items"`
	DeliveryFee   types.Money       `json:"deliveryFee"`
	Discount      types.Money       `json:"discount"`
	TaxRate       decimal.Decimal   `json:"taxRate"`
	TaxAmount     types.Money       `json:"taxAmount"`
}

func (r *SaleRequest) ToInput() (sales.Input, error) {
	in := sales.Input{
		Date:          r.Date.Time,
		CustomerName:  r.CustomerName,
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes,
		DeliveryFee:   r.DeliveryFee,
		Discount:      r.Discount,
		TaxRate:       r.TaxRate,
		TaxAmount:     r.TaxAmount,
	}
	if r.Status != "" {
		st, err := sales.ParseStatus(r.Status)
		if err != nil {
			return in, err
		}
		in.Status = st
	}
	in.Items = make([]sales.Item, len(r.Items))
	for i, it := range r.Items {
		in.Items[i] = sales.Item{Name: it.Name, Quantity: it.Quantity, Price: it.Price}
	}
	return in, nil
}

// SaleListQuery filters invoices.
type SaleListQuery struct {
	ListQuery
	Status  string `form:"status"`
	OrderID string `form:"orderId"`
	From    string `form:"from"`
	To      string `form:"to"`
}

// --- Purchases ---

// PurchaseItemRequest is a purchased material line.
type PurchaseItemRequest struct {
	MaterialID id.ID          `json:"materialId"`
	Quantity   types.Quantity `json:"quantity"`
	UnitCost   types.Money    `json:"unitCost"`
}

// PurchaseRequest creates or replaces a purchase.
type PurchaseRequest struct {
	SupplierName string                `json:"supplierName"`
	Date         Date                  `json:"date"`
	Status       string                `json:"status"`
	Notes        string                `json:"notes"`
	Items        []PurchaseItemRequest `json:"items"`
}

func (r *PurchaseRequest) ToInput() (purchases.Input, error) {
	st, err := purchases.ParseStatus(r.Status)
	if err != nil {
		return purchases.Input{}, err
	}
	in := purchases.Input{
		SupplierName: r.SupplierName,
		Date:         r.Date.Time,
		Status:       st,
		Notes:        r.Notes,
		Items:        make([]purchases.Item, len(r.Items)),
	}
	for i, it := range r.Items {
		in.Items[i] = purchases.Item{MaterialID: it.MaterialID, Quantity: it.Quantity, UnitCost: it.UnitCost}
	}
	return in, nil
}

// PurchaseListQuery filters purchases.
type PurchaseListQuery struct {
	ListQuery
	Status string `form:"status"`
	From   string `form:"from"`
	To     string `form:"to"`
}

// --- Waste ---

// WasteRequest creates or replaces a waste record. Omitted cost defaults to
// quantity × material cost.
type WasteRequest struct {
	MaterialID id.ID          `json:"materialId"`
	Quantity   types.Quantity `json:"quantity"`
	Cost       *types.Money   `json:"cost"`
	Reason     string         `json:"reason"`
	Date       Date           `json:"date"`
}

func (r *WasteRequest) ToInput() waste.Input {
	return waste.Input{
		MaterialID: r.MaterialID,
		Quantity:   r.Quantity,
		Cost:       r.Cost,
		Reason:     r.Reason,
		Date:       r.Date.Time,
	}
}

// WasteListQuery filters waste records.
type WasteListQuery struct {
	ListQuery
	MaterialID string `form:"materialId"`
	From       string `form:"from"`
	To         string `form:"to"`
}
