package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/events"
	"bistro/pkg/logger"
)

// Deltas is a signed per-material stock change set.
type Deltas map[id.ID]types.Quantity

// Add accumulates qty for material m.
func (d Deltas) Add(m id.ID, qty types.Quantity) {
	d[m] = d[m].Add(qty)
}

// Merge adds every entry of other into d.
func (d Deltas) Merge(other Deltas) {
	for m, qty := range other {
		d.Add(m, qty)
	}
}

// Negate returns a copy with every sign flipped.
func (d Deltas) Negate() Deltas {
	out := make(Deltas, len(d))
	for m, qty := range d {
		out[m] = qty.Neg()
	}
	return out
}

// Diff returns next - prev per material over the union of both sets.
func Diff(prev, next Deltas) Deltas {
	out := make(Deltas, len(prev)+len(next))
	out.Merge(next)
	out.Merge(prev.Negate())
	return out
}

// IDs returns materials with a non-zero delta in lock order.
func (d Deltas) IDs() []id.ID {
	ids := make([]id.ID, 0, len(d))
	for m, qty := range d {
		if !qty.IsZero() {
			ids = append(ids, m)
		}
	}
	id.Sort(ids)
	return ids
}

// Ledger applies stock movements. Every call must run inside the caller's transaction;
// the ledger never opens one itself, so a failed movement aborts the whole operation.
type Ledger struct {
	repo     Repository
	events   events.Publisher
	lowStock LowStockMatcher
}

// NewLedger creates a ledger over the material repository.
func NewLedger(repo Repository, publisher events.Publisher, lowStock LowStockMatcher) *Ledger {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Ledger{repo: repo, events: publisher, lowStock: lowStock}
}

// AdjustStock moves one material's stock by delta.
// A negative delta is a guarded decrement that fails with InsufficientStock
// instead of crossing zero; a positive delta always applies.
func (l *Ledger) AdjustStock(ctx context.Context, materialID id.ID, delta types.Quantity) error {
	switch {
	case delta.IsZero():
		return nil
	case delta.IsPositive():
		if err := l.repo.IncrementStock(ctx, materialID, delta); err != nil {
			return l.mapErr(err, materialID)
		}
		return nil
	}

	qty := delta.Neg()
	applied, err := l.repo.DecrementStock(ctx, materialID, qty)
	if err != nil {
		return l.mapErr(err, materialID)
	}
	if !applied {
		available := decimal.Zero
		if m, err := l.repo.GetByID(ctx, materialID); err == nil {
			available = m.Stock
		}
		return apperror.NewInsufficientStock(materialID.String(), qty.String(), available.String())
	}

	return l.checkLow(ctx, materialID)
}

// ApplyDeltas applies a change set in ascending material order, stopping at the first failure.
func (l *Ledger) ApplyDeltas(ctx context.Context, deltas Deltas) error {
	for _, m := range deltas.IDs() {
		if err := l.AdjustStock(ctx, m, deltas[m]); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) checkLow(ctx context.Context, materialID id.ID) error {
	m, err := l.repo.GetByID(ctx, materialID)
	if err != nil {
		return l.mapErr(err, materialID)
	}
	low, err := l.lowStock.Match(m)
	if err != nil {
		logger.Warn(ctx, "low stock rule failed", "material_id", m.ID, "error", err)
		return nil
	}
	if !low {
		return nil
	}
	logger.Debug(ctx, "material below minimum stock", "material_id", m.ID, "stock", m.Stock)
	return l.events.Publish(ctx, events.Event{
		AggregateType: "material",
		AggregateID:   m.ID,
		Type:          events.StockLow,
		Payload: map[string]any{
			"materialId": m.ID,
			"name":       m.Name,
			"stock":      m.Stock,
			"minStock":   m.MinStock,
		},
	})
}

func (l *Ledger) mapErr(err error, materialID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound("material", materialID.String())
	}
	if apperror.IsAppError(err) {
		return err
	}
	return fmt.Errorf("adjust stock of %s: %w", materialID, err)
}
