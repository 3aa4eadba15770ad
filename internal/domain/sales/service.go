package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bistro/internal/core/apperror"
	"bistro/internal/core/entity"
	"bistro/internal/core/id"
	"bistro/internal/core/tx"
	"bistro/internal/core/types"
	"bistro/internal/domain"
	"bistro/pkg/logger"
)

// Input is a manual invoice as entered by a cashier.
type Input struct {
	Date          time.Time
	CustomerName  string
	PaymentMethod string
	Notes         string
	Status        Status
	Items         []Item
	DeliveryFee   types.Money
	Discount      types.Money
	TaxRate       decimal.Decimal
	TaxAmount     types.Money
}

// Service manages manual invoices and reads all invoices.
type Service struct {
	repo      Repository
	numbers   NumberGenerator
	txManager tx.Manager
}

// NewService creates a new sales service.
func NewService(repo Repository, numbers NumberGenerator, txManager tx.Manager) *Service {
	return &Service{repo: repo, numbers: numbers, txManager: txManager}
}

func (in Input) apply(s *Sale) {
	s.Date = in.Date
	s.CustomerName = in.CustomerName
	s.PaymentMethod = in.PaymentMethod
	s.Notes = in.Notes
	s.Status = in.Status
	s.Items = in.Items
	s.DeliveryFee = in.DeliveryFee
	s.Discount = in.Discount
	s.TaxAmount = in.TaxAmount
}

// Create inserts a manual invoice (DRAFT or PAID).
func (s *Service) Create(ctx context.Context, in Input) (*Sale, error) {
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if in.Status == StatusVoid {
		return nil, apperror.NewInvalidInput("a new sale cannot be void").WithDetail("field", "status")
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	sale := &Sale{Base: entity.NewBase()}
	in.apply(sale)
	if err := sale.Validate(ctx); err != nil {
		return nil, err
	}
	sale.Recalculate(in.TaxRate)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		invoiceNo, err := s.numbers.Next(ctx, InvoicePrefix, sale.Date)
		if err != nil {
			return fmt.Errorf("generate invoice number: %w", err)
		}
		sale.InvoiceNo = invoiceNo
		return s.repo.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale created", "sale_id", sale.ID, "invoice_no", sale.InvoiceNo, "total", sale.Total)
	return sale, nil
}

// Update replaces a manual invoice's content. Order-linked invoices are rejected.
func (s *Service) Update(ctx context.Context, saleID id.ID, in Input) (*Sale, error) {
	var result *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.editable(ctx, saleID)
		if err != nil {
			return err
		}
		if in.Status == "" {
			in.Status = sale.Status
		}
		if in.Date.IsZero() {
			in.Date = sale.Date
		}
		in.apply(sale)
		if err := sale.Validate(ctx); err != nil {
			return err
		}
		sale.Recalculate(in.TaxRate)
		sale.Touch()

		if err := s.repo.Update(ctx, sale); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}
		if err := s.repo.ReplaceItems(ctx, sale.ID, sale.Items); err != nil {
			return fmt.Errorf("replace sale items: %w", err)
		}
		result = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale updated", "sale_id", saleID, "total", result.Total)
	return result, nil
}

// Void marks a manual invoice as void.
func (s *Service) Void(ctx context.Context, saleID id.ID) (*Sale, error) {
	var result *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.editable(ctx, saleID)
		if err != nil {
			return err
		}
		sale.Status = StatusVoid
		sale.Touch()
		result = sale
		return s.repo.Update(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale voided", "sale_id", saleID)
	return result, nil
}

// Delete removes a manual invoice.
func (s *Service) Delete(ctx context.Context, saleID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.editable(ctx, saleID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, saleID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale deleted", "sale_id", saleID)
	return nil
}

// GetByID returns an invoice with its items.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	sale, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, err
	}
	return sale, nil
}

// List returns invoices matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) editable(ctx context.Context, saleID id.ID) (*Sale, error) {
	sale, err := s.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.IsOrderLinked() {
		return nil, apperror.NewOrderLinkedSale(saleID.String())
	}
	return sale, nil
}
