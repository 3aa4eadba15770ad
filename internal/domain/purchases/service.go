package purchases

import (
	"context"
	"fmt"
	"time"

	"bistro/internal/core/apperror"
	"bistro/internal/core/entity"
	"bistro/internal/core/id"
	"bistro/internal/core/tx"
	"bistro/internal/domain"
	"bistro/internal/domain/audit"
	"bistro/internal/domain/events"
	"bistro/internal/domain/inventory"
	"bistro/pkg/logger"
)

// NumberPrefix prefixes purchase numbers.
const NumberPrefix = "PUR"

// Input is a purchase as entered by the user.
type Input struct {
	SupplierName string
	Date         time.Time
	Status       Status
	Notes        string
	Items        []Item
}

// Service manages purchases and keeps stock in line with their status.
type Service struct {
	repo      Repository
	materials MaterialReader
	ledger    StockLedger
	numbers   NumberGenerator
	txManager tx.Manager
	events    events.Publisher
	audit     audit.Recorder
}

// NewService creates a new purchase service.
func NewService(repo Repository, materials MaterialReader, ledger StockLedger, numbers NumberGenerator,
	txManager tx.Manager, publisher events.Publisher, recorder audit.Recorder) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		repo:      repo,
		materials: materials,
		ledger:    ledger,
		numbers:   numbers,
		txManager: txManager,
		events:    publisher,
		audit:     recorder,
	}
}

// Create records a purchase; a POSTED purchase increments stock immediately.
func (s *Service) Create(ctx context.Context, in Input) (*Purchase, error) {
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}
	p := &Purchase{
		Base:         entity.NewBase(),
		SupplierName: in.SupplierName,
		Date:         in.Date,
		Status:       in.Status,
		Notes:        in.Notes,
		Items:        in.Items,
	}
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkMaterials(ctx, p); err != nil {
			return err
		}
		number, err := s.numbers.Next(ctx, NumberPrefix, p.Date)
		if err != nil {
			return fmt.Errorf("generate purchase number: %w", err)
		}
		p.Number = number

		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		if err := s.ledger.ApplyDeltas(ctx, p.Effect()); err != nil {
			return err
		}
		return s.afterWrite(ctx, p, "", audit.ActionCreate)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase created", "purchase_id", p.ID, "number", p.Number, "status", p.Status, "total", p.Total)
	return p, nil
}

// Update replaces a purchase's content and status. Stock moves by
// (new effect - old effect) per material; if undoing a posted quantity would
// drive stock negative the update fails with InsufficientStockForRevert and
// nothing changes.
func (s *Service) Update(ctx context.Context, purchaseID id.ID, in Input) (*Purchase, error) {
	var result *Purchase
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.getForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		prevStatus := p.Status
		prevEffect := p.Effect()

		p.SupplierName = in.SupplierName
		if !in.Date.IsZero() {
			p.Date = in.Date
		}
		if in.Status != "" {
			p.Status = in.Status
		}
		p.Notes = in.Notes
		p.Items = in.Items
		if err := p.Validate(ctx); err != nil {
			return err
		}
		if err := s.checkMaterials(ctx, p); err != nil {
			return err
		}

		if err := s.applyReverting(ctx, inventory.Diff(prevEffect, p.Effect())); err != nil {
			return err
		}

		p.Touch()
		if err := s.repo.Update(ctx, p); err != nil {
			return fmt.Errorf("update purchase: %w", err)
		}
		if err := s.repo.ReplaceItems(ctx, p.ID, p.Items); err != nil {
			return fmt.Errorf("replace purchase items: %w", err)
		}
		result = p
		return s.afterWrite(ctx, p, prevStatus, audit.ActionUpdate)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase updated", "purchase_id", purchaseID, "status", result.Status)
	return result, nil
}

// Delete removes a purchase, taking a posted purchase's quantities back out of stock.
func (s *Service) Delete(ctx context.Context, purchaseID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.getForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		if err := s.applyReverting(ctx, p.Effect().Negate()); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, p.ID); err != nil {
			return fmt.Errorf("delete purchase: %w", err)
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: "purchase",
			EntityID:   p.ID,
			Action:     audit.ActionDelete,
			Changes:    map[string]any{"number": p.Number, "status": p.Status},
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase deleted", "purchase_id", purchaseID)
	return nil
}

// GetByID returns a purchase with its items.
func (s *Service) GetByID(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	p, err := s.repo.GetByID(ctx, purchaseID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("purchase", purchaseID.String())
		}
		return nil, err
	}
	return p, nil
}

// List returns purchases matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Purchase], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) getForUpdate(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	p, err := s.repo.GetForUpdate(ctx, purchaseID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("purchase", purchaseID.String())
		}
		return nil, err
	}
	return p, nil
}

// applyReverting applies deltas, reporting a failed decrement as a failed revert.
func (s *Service) applyReverting(ctx context.Context, deltas inventory.Deltas) error {
	err := s.ledger.ApplyDeltas(ctx, deltas)
	if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeInsufficientStock {
		materialID, _ := appErr.Details["material_id"].(string)
		return apperror.NewInsufficientStockForRevert(materialID).WithCause(err)
	}
	return err
}

func (s *Service) checkMaterials(ctx context.Context, p *Purchase) error {
	ids := id.Unique(p.MaterialIDs())
	found, err := s.materials.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load materials: %w", err)
	}
	var missing []id.ID
	for _, mid := range ids {
		if _, ok := found[mid]; !ok {
			missing = append(missing, mid)
		}
	}
	if len(missing) > 0 {
		return apperror.NewInvalidMaterials(id.Strings(missing))
	}
	return nil
}

func (s *Service) afterWrite(ctx context.Context, p *Purchase, prevStatus Status, action audit.Action) error {
	if p.Status == StatusPosted && prevStatus != StatusPosted {
		err := s.events.Publish(ctx, events.Event{
			AggregateType: "purchase",
			AggregateID:   p.ID,
			Type:          events.PurchasePosted,
			Payload:       map[string]any{"purchaseId": p.ID, "number": p.Number, "total": p.Total},
		})
		if err != nil {
			return err
		}
	}
	return s.audit.Record(ctx, audit.Entry{
		EntityType: "purchase",
		EntityID:   p.ID,
		Action:     action,
		Changes: map[string]any{
			"status": map[string]any{"old": prevStatus, "new": p.Status},
			"items":  len(p.Items),
			"total":  p.Total,
		},
	})
}
