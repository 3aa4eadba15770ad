// Package events defines domain events emitted by the order and inventory services.
// Events are written to a transactional outbox and relayed to the message bus by the worker.
package events

import (
	"context"

	"bistro/internal/core/id"
)

// Event types.
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	OrderDelivered     = "order.delivered"
	OrderDeleted       = "order.deleted"
	SaleMaterialized   = "sale.materialized"
	PurchasePosted     = "purchase.posted"
	StockLow           = "stock.low"
)

// Event is a fact about an aggregate, published after its transaction commits.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	Type          string
	Payload       any
}

// Publisher records events. Implementations must write within the transaction in ctx
// so an event is never emitted for a rolled-back change.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
