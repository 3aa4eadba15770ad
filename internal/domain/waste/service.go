package waste

import (
	"context"
	"fmt"
	"time"

	"bistro/internal/core/apperror"
	"bistro/internal/core/entity"
	"bistro/internal/core/id"
	"bistro/internal/core/tx"
	"bistro/internal/core/types"
	"bistro/internal/domain"
	"bistro/internal/domain/audit"
	"bistro/internal/domain/inventory"
	"bistro/pkg/logger"
)

// MaterialReader resolves the written-off material.
type MaterialReader interface {
	GetByID(ctx context.Context, id id.ID) (*inventory.Material, error)
}

// StockLedger moves stock inside the caller's transaction.
type StockLedger interface {
	AdjustStock(ctx context.Context, materialID id.ID, delta types.Quantity) error
}

// Input is a waste record as entered by the user. A nil Cost defaults to
// quantity × the material's current cost.
type Input struct {
	MaterialID id.ID
	Quantity   types.Quantity
	Cost       *types.Money
	Reason     string
	Date       time.Time
}

// Service manages waste records and the stock they withdraw.
type Service struct {
	repo      Repository
	materials MaterialReader
	ledger    StockLedger
	txManager tx.Manager
	audit     audit.Recorder
}

// NewService creates a new waste service.
func NewService(repo Repository, materials MaterialReader, ledger StockLedger, txManager tx.Manager, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{repo: repo, materials: materials, ledger: ledger, txManager: txManager, audit: recorder}
}

// Create records waste and withdraws it from stock with a guarded decrement.
func (s *Service) Create(ctx context.Context, in Input) (*Waste, error) {
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}
	w := &Waste{
		Base:       entity.NewBase(),
		MaterialID: in.MaterialID,
		Quantity:   in.Quantity,
		Reason:     in.Reason,
		Date:       in.Date,
	}
	if in.Cost != nil {
		w.Cost = *in.Cost
	}
	if err := w.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.material(ctx, w.MaterialID)
		if err != nil {
			return err
		}
		if in.Cost == nil {
			w.Cost = defaultCost(w.Quantity, m)
		}

		if err := s.ledger.AdjustStock(ctx, w.MaterialID, w.Quantity.Neg()); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, w); err != nil {
			return fmt.Errorf("create waste: %w", err)
		}
		return s.record(ctx, w, audit.ActionCreate, nil)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "waste recorded", "waste_id", w.ID, "material_id", w.MaterialID, "quantity", w.Quantity)
	return w, nil
}

// Update edits a waste record. With the same material only the quantity
// difference moves stock; with a different material the old quantity is fully
// returned and the new quantity fully withdrawn.
func (s *Service) Update(ctx context.Context, wasteID id.ID, in Input) (*Waste, error) {
	var result *Waste
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		w, err := s.getForUpdate(ctx, wasteID)
		if err != nil {
			return err
		}
		prev := *w

		if !id.IsNil(in.MaterialID) {
			w.MaterialID = in.MaterialID
		}
		w.Quantity = in.Quantity
		w.Reason = in.Reason
		if !in.Date.IsZero() {
			w.Date = in.Date
		}
		if in.Cost != nil {
			w.Cost = *in.Cost
		}
		if err := w.Validate(ctx); err != nil {
			return err
		}

		m, err := s.material(ctx, w.MaterialID)
		if err != nil {
			return err
		}
		changed := w.MaterialID != prev.MaterialID || !w.Quantity.Equal(prev.Quantity)
		if in.Cost == nil && changed {
			w.Cost = defaultCost(w.Quantity, m)
		}

		if w.MaterialID == prev.MaterialID {
			// More waste withdraws the difference; less waste returns it.
			if err := s.ledger.AdjustStock(ctx, w.MaterialID, prev.Quantity.Sub(w.Quantity)); err != nil {
				return err
			}
		} else {
			if err := s.ledger.AdjustStock(ctx, prev.MaterialID, prev.Quantity); err != nil {
				return err
			}
			if err := s.ledger.AdjustStock(ctx, w.MaterialID, w.Quantity.Neg()); err != nil {
				return err
			}
		}

		w.Touch()
		if err := s.repo.Update(ctx, w); err != nil {
			return fmt.Errorf("update waste: %w", err)
		}
		result = w
		return s.record(ctx, w, audit.ActionUpdate, &prev)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "waste updated", "waste_id", wasteID, "material_id", result.MaterialID, "quantity", result.Quantity)
	return result, nil
}

// Delete removes a waste record and returns its quantity to stock.
func (s *Service) Delete(ctx context.Context, wasteID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		w, err := s.getForUpdate(ctx, wasteID)
		if err != nil {
			return err
		}
		if err := s.ledger.AdjustStock(ctx, w.MaterialID, w.Quantity); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, w.ID); err != nil {
			return fmt.Errorf("delete waste: %w", err)
		}
		return s.record(ctx, w, audit.ActionDelete, nil)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "waste deleted", "waste_id", wasteID)
	return nil
}

// GetByID returns a waste record.
func (s *Service) GetByID(ctx context.Context, wasteID id.ID) (*Waste, error) {
	w, err := s.repo.GetByID(ctx, wasteID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("waste", wasteID.String())
		}
		return nil, err
	}
	return w, nil
}

// List returns waste records matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Waste], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) getForUpdate(ctx context.Context, wasteID id.ID) (*Waste, error) {
	w, err := s.repo.GetForUpdate(ctx, wasteID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("waste", wasteID.String())
		}
		return nil, err
	}
	return w, nil
}

func (s *Service) material(ctx context.Context, materialID id.ID) (*inventory.Material, error) {
	m, err := s.materials.GetByID(ctx, materialID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("material", materialID.String())
		}
		return nil, err
	}
	return m, nil
}

func (s *Service) record(ctx context.Context, w *Waste, action audit.Action, prev *Waste) error {
	changes := map[string]any{
		"materialId": w.MaterialID,
		"quantity":   w.Quantity,
		"cost":       w.Cost,
	}
	if prev != nil {
		changes["previous"] = map[string]any{"materialId": prev.MaterialID, "quantity": prev.Quantity}
	}
	return s.audit.Record(ctx, audit.Entry{
		EntityType: "waste",
		EntityID:   w.ID,
		Action:     action,
		Changes:    changes,
	})
}

func defaultCost(qty types.Quantity, m *inventory.Material) types.Money {
	return types.RoundMoney(qty.Mul(m.Cost))
}
