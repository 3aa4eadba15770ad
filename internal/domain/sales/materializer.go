package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bistro/internal/core/apperror"
	"bistro/internal/core/entity"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/events"
	"bistro/pkg/logger"
)

// InvoicePrefix prefixes invoice numbers.
const InvoicePrefix = "INV"

// OrderLine is one order item as seen by the materializer.
type OrderLine struct {
	Name      string
	Quantity  int
	UnitPrice types.Money
	Total     types.Money
}

// OrderSnapshot is the state of a delivered order an invoice is derived from.
type OrderSnapshot struct {
	OrderID       id.ID
	OrderCode     string
	CustomerName  string
	PaymentMethod string
	DeliveredAt   time.Time
	Lines         []OrderLine
	DeliveryFee   types.Money
	Discount      types.Money
	TaxRate       decimal.Decimal
	TaxAmount     types.Money
}

// Materializer derives the invoice of a delivered order.
type Materializer struct {
	repo    Repository
	numbers NumberGenerator
	events  events.Publisher
}

// NewMaterializer creates a new materializer.
func NewMaterializer(repo Repository, numbers NumberGenerator, publisher events.Publisher) *Materializer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Materializer{repo: repo, numbers: numbers, events: publisher}
}

// Materialize upserts the invoice of an order: an existing linked invoice gets its
// items replaced and totals recomputed in place, otherwise a new PAID invoice is
// created. Calling it twice for one order never yields two invoices.
//
// It must run inside the caller's transaction, together with the status write
// that triggered it.
func (m *Materializer) Materialize(ctx context.Context, snap OrderSnapshot) (*Sale, error) {
	if snap.DeliveredAt.IsZero() {
		snap.DeliveredAt = time.Now().UTC()
	}

	existing, err := m.repo.GetByOrderID(ctx, snap.OrderID)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("load linked sale: %w", err)
	}

	sale := existing
	created := sale == nil
	if created {
		invoiceNo, err := m.numbers.Next(ctx, InvoicePrefix, snap.DeliveredAt)
		if err != nil {
			return nil, fmt.Errorf("generate invoice number: %w", err)
		}
		orderID := snap.OrderID
		sale = &Sale{
			Base:      entity.NewBase(),
			InvoiceNo: invoiceNo,
			OrderID:   &orderID,
		}
	}

	sale.Date = snap.DeliveredAt
	sale.CustomerName = snap.CustomerName
	sale.PaymentMethod = snap.PaymentMethod
	sale.Notes = "Order " + snap.OrderCode
	sale.Status = StatusPaid
	sale.DeliveryFee = snap.DeliveryFee
	sale.Discount = snap.Discount
	sale.TaxAmount = snap.TaxAmount
	sale.Items = make([]Item, len(snap.Lines))
	for i, line := range snap.Lines {
		sale.Items[i] = Item{
			Name:     line.Name,
			Quantity: decimal.NewFromInt(int64(line.Quantity)),
			Price:    line.UnitPrice,
		}
	}
	sale.Recalculate(snap.TaxRate)

	if created {
		if err := m.repo.Create(ctx, sale); err != nil {
			return nil, fmt.Errorf("create sale: %w", err)
		}
	} else {
		sale.Touch()
		if err := m.repo.Update(ctx, sale); err != nil {
			return nil, fmt.Errorf("update sale: %w", err)
		}
		if err := m.repo.ReplaceItems(ctx, sale.ID, sale.Items); err != nil {
			return nil, fmt.Errorf("replace sale items: %w", err)
		}
	}

	err = m.events.Publish(ctx, events.Event{
		AggregateType: "sale",
		AggregateID:   sale.ID,
		Type:          events.SaleMaterialized,
		Payload: map[string]any{
			"saleId":    sale.ID,
			"invoiceNo": sale.InvoiceNo,
			"orderId":   snap.OrderID,
			"total":     sale.Total,
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale materialized",
		"sale_id", sale.ID, "order_id", snap.OrderID, "invoice_no", sale.InvoiceNo,
		"total", sale.Total, "created", created)
	return sale, nil
}
