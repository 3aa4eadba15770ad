package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bistro/internal/core/apperror"
	"bistro/internal/core/entity"
	"bistro/internal/core/id"
	"bistro/internal/core/tx"
	"bistro/internal/core/types"
	"bistro/internal/domain"
	"bistro/internal/domain/audit"
	"bistro/internal/domain/catalog"
	"bistro/internal/domain/dining"
	"bistro/internal/domain/events"
	"bistro/internal/domain/inventory"
	"bistro/internal/domain/pricing"
	"bistro/internal/domain/sales"
	"bistro/pkg/logger"
)

const codeAttempts = 8

// ProductSource resolves products and their recipes.
type ProductSource interface {
	// ProductsForSale fails with InvalidProducts unless every id is an active product.
	ProductsForSale(ctx context.Context, ids []id.ID) (map[id.ID]*catalog.Product, error)
	// ProductsByID returns whatever products exist, active or not.
	ProductsByID(ctx context.Context, ids []id.ID) (map[id.ID]*catalog.Product, error)
}

// ZoneReader resolves delivery zones.
type ZoneReader interface {
	GetByID(ctx context.Context, id id.ID) (*dining.Zone, error)
}

// DriverReader resolves drivers.
type DriverReader interface {
	GetByID(ctx context.Context, id id.ID) (*dining.Driver, error)
}

// StockLedger applies stock movements inside the caller's transaction.
type StockLedger interface {
	ApplyDeltas(ctx context.Context, deltas inventory.Deltas) error
}

// SaleMaterializer upserts the invoice of a delivered order.
type SaleMaterializer interface {
	Materialize(ctx context.Context, snap sales.OrderSnapshot) (*sales.Sale, error)
}

// SaleLinker detaches invoices from deleted orders.
type SaleLinker interface {
	DetachOrder(ctx context.Context, orderID id.ID) error
}

// Deps wires the order service.
type Deps struct {
	Repo      Repository
	Tables    TableStore
	Products  ProductSource
	Zones     ZoneReader
	Drivers   DriverReader
	Ledger    StockLedger
	Sales     SaleMaterializer
	SaleLinks SaleLinker
	TxManager tx.Manager
	Events    events.Publisher
	Audit     audit.Recorder
	Codes     *CodeGenerator
	Now       func() time.Time
}

// Service implements the order operations. Every mutating call is one transaction.
type Service struct {
	repo      Repository
	occupancy *OccupancyTracker
	products  ProductSource
	zones     ZoneReader
	drivers   DriverReader
	ledger    StockLedger
	sales     SaleMaterializer
	saleLinks SaleLinker
	txManager tx.Manager
	events    events.Publisher
	audit     audit.Recorder
	codes     *CodeGenerator
	now       func() time.Time
}

// NewService creates a new order service.
func NewService(d Deps) *Service {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Audit == nil {
		d.Audit = audit.Nop{}
	}
	if d.Codes == nil {
		d.Codes = NewCodeGenerator(DefaultCodePrefix)
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		repo:      d.Repo,
		occupancy: NewOccupancyTracker(d.Tables),
		products:  d.Products,
		zones:     d.Zones,
		drivers:   d.Drivers,
		ledger:    d.Ledger,
		sales:     d.Sales,
		saleLinks: d.SaleLinks,
		txManager: d.TxManager,
		events:    d.Events,
		audit:     d.Audit,
		codes:     d.Codes,
		now:       d.Now,
	}
}

// ItemInput is a requested order line.
type ItemInput struct {
	ProductID id.ID
	Quantity  int
}

// CreateInput is a new order as submitted by the POS.
type CreateInput struct {
	Type          Type
	CustomerName  string
	CustomerPhone string
	Address       string
	Items         []ItemInput
	ZoneID        *id.ID
	TableID       *id.ID
	DriverID      *id.ID
	Discount      types.Money
	TaxRate       decimal.Decimal
	TaxAmount     types.Money
	PaymentMethod PaymentMethod
	Notes         string
}

func (in *CreateInput) validate() error {
	if len(in.Items) == 0 {
		return apperror.NewInvalidInput("order must have at least one item").WithDetail("field", "items")
	}
	if len(in.Items) > MaxItems {
		return apperror.NewInvalidInput(fmt.Sprintf("order cannot have more than %d items", MaxItems)).
			WithDetail("field", "items")
	}
	for i, item := range in.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewInvalidInput("product is required").
				WithDetail("field", fmt.Sprintf("items[%d].productId", i))
		}
		if item.Quantity < 1 || item.Quantity > MaxItemQuantity {
			return apperror.NewInvalidInput(fmt.Sprintf("quantity must be between 1 and %d", MaxItemQuantity)).
				WithDetail("field", fmt.Sprintf("items[%d].quantity", i))
		}
	}
	if in.Discount.IsNegative() {
		return apperror.NewInvalidInput("discount must not be negative").WithDetail("field", "discount")
	}
	if in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return apperror.NewInvalidInput("tax rate must be between 0 and 100").WithDetail("field", "taxRate")
	}
	if in.TaxAmount.IsNegative() {
		return apperror.NewInvalidInput("tax amount must not be negative").WithDetail("field", "taxAmount")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = PaymentCash
	}
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	return nil
}

// Create places an order. Product validation, stock consumption, the table
// claim and the insert form one transaction: any failure leaves stock, tables
// and orders exactly as they were.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	// (a), (b): type/zone and type/table compatibility.
	if err := CheckTypeCombination(in.Type, in.ZoneID, in.TableID); err != nil {
		return nil, err
	}

	order := &Order{
		Base:          entity.NewBase(),
		Type:          in.Type,
		Status:        StatusPreparing,
		CustomerName:  in.CustomerName,
		CustomerPhone: strings.TrimSpace(in.CustomerPhone),
		Address:       strings.TrimSpace(in.Address),
		ZoneID:        in.ZoneID,
		DriverID:      in.DriverID,
		TableID:       in.TableID,
		PaymentMethod: in.PaymentMethod,
		Notes:         strings.TrimSpace(in.Notes),
		Discount:      types.RoundMoney(in.Discount),
		TaxRate:       in.TaxRate,
		TaxAmount:     in.TaxAmount,
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// (c) all products exist and are active.
		ids := make([]id.ID, len(in.Items))
		for i, item := range in.Items {
			ids[i] = item.ProductID
		}
		products, err := s.products.ProductsForSale(ctx, ids)
		if err != nil {
			return err
		}

		zoneFee, err := s.zoneFee(ctx, order.ZoneID)
		if err != nil {
			return err
		}
		if order.DriverID != nil {
			if err := s.checkDriver(ctx, *order.DriverID); err != nil {
				return err
			}
		}

		// (d) price snapshot.
		order.Items = make([]Item, len(in.Items))
		for i, item := range in.Items {
			p := products[item.ProductID]
			order.Items[i] = Item{
				OrderID:     order.ID,
				LineNo:      i + 1,
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    item.Quantity,
				UnitPrice:   p.Price,
				TotalPrice:  pricing.LineTotal(item.Quantity, p.Price),
			}
		}

		// (e), (f) aggregated guarded decrement.
		if err := s.ledger.ApplyDeltas(ctx, order.Consumption(products).Negate()); err != nil {
			return err
		}

		// (g) table must be free.
		if order.TableID != nil {
			if err := s.occupancy.Claim(ctx, *order.TableID, order.ID); err != nil {
				return err
			}
		}

		// (h) unique code.
		if order.Code, err = s.generateCode(ctx); err != nil {
			return err
		}

		order.ApplyTotals(zoneFee)

		// (i) persist.
		if err := s.repo.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		// (j) occupy the table.
		if err := s.occupancy.Recompute(ctx, order.TableID); err != nil {
			return err
		}

		if err := s.publish(ctx, events.OrderCreated, order, nil); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: "order",
			EntityID:   order.ID,
			Action:     audit.ActionCreate,
			Changes: map[string]any{
				"code":  order.Code,
				"type":  order.Type,
				"items": len(order.Items),
				"total": order.Total,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order created",
		"order_id", order.ID, "code", order.Code, "type", order.Type,
		"items", len(order.Items), "total", order.Total)
	return order, nil
}

// UpdateInput is an order edit; nil fields are left unchanged.
type UpdateInput struct {
	Status        *Status
	TableID       *id.ID
	ClearTable    bool
	DriverID      *id.ID
	ClearDriver   bool
	CustomerName  *string
	PaymentMethod *PaymentMethod
	Notes         *string
}

// Update changes status, table, driver and free-text fields.
//
// DELIVERED and CANCELLED are terminal. Entering DELIVERED materializes the
// invoice in the same transaction; entering CANCELLED returns the consumed
// materials to stock. A terminal order never holds its table.
func (s *Service) Update(ctx context.Context, orderID id.ID, in UpdateInput) (*Order, error) {
	var (
		result     *Order
		prevStatus Status
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.getForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		prevStatus = o.Status
		prevTable := o.TableID

		if in.Status != nil && *in.Status != o.Status {
			switch o.Status {
			case StatusDelivered:
				return apperror.NewOrderFinalized(orderID.String())
			case StatusCancelled:
				return apperror.NewOrderCancelled(orderID.String())
			}
			o.Status = *in.Status
		}

		nextTable := o.TableID
		if in.ClearTable {
			nextTable = nil
		} else if in.TableID != nil {
			nextTable = in.TableID
		}
		if !id.Equal(nextTable, o.TableID) {
			if err := CheckTypeCombination(o.Type, o.ZoneID, nextTable); err != nil {
				return err
			}
			if nextTable != nil && !o.Status.IsTerminal() {
				if err := s.occupancy.Claim(ctx, *nextTable, o.ID); err != nil {
					return err
				}
			}
			o.TableID = nextTable
		}

		if in.ClearDriver {
			o.DriverID = nil
		} else if in.DriverID != nil && !id.Equal(in.DriverID, o.DriverID) {
			if err := s.checkDriver(ctx, *in.DriverID); err != nil {
				return err
			}
			o.DriverID = in.DriverID
		}
		if in.CustomerName != nil {
			o.CustomerName = strings.TrimSpace(*in.CustomerName)
		}
		if in.PaymentMethod != nil {
			o.PaymentMethod = *in.PaymentMethod
		}
		if in.Notes != nil {
			o.Notes = strings.TrimSpace(*in.Notes)
		}

		if o.Status != prevStatus {
			if err := s.enterStatus(ctx, o, prevStatus); err != nil {
				return err
			}
		}

		o.Touch()
		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if err := s.occupancy.Recompute(ctx, prevTable, o.TableID); err != nil {
			return err
		}

		if o.Status != prevStatus {
			if err := s.publish(ctx, events.OrderStatusChanged, o, map[string]any{"from": prevStatus}); err != nil {
				return err
			}
		}
		result = o
		return s.audit.Record(ctx, audit.Entry{
			EntityType: "order",
			EntityID:   o.ID,
			Action:     audit.ActionUpdate,
			Changes: map[string]any{
				"status":   map[string]any{"old": prevStatus, "new": o.Status},
				"tableId":  map[string]any{"old": prevTable, "new": o.TableID},
				"driverId": o.DriverID,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order updated", "order_id", orderID, "status_from", prevStatus, "status_to", result.Status)
	return result, nil
}

// enterStatus runs the side effects of a status change already applied to o.
func (s *Service) enterStatus(ctx context.Context, o *Order, prev Status) error {
	switch o.Status {
	case StatusDelivered:
		deliveredAt := s.now()
		o.DeliveredAt = &deliveredAt

		zoneFee, err := s.currentZoneFee(ctx, o)
		if err != nil {
			return err
		}
		o.ApplyTotals(zoneFee)

		if _, err := s.sales.Materialize(ctx, s.snapshot(o)); err != nil {
			return err
		}
		return s.publish(ctx, events.OrderDelivered, o, nil)

	case StatusCancelled:
		if prev.IsActive() {
			return s.restoreStock(ctx, o)
		}
	}
	return nil
}

// Delete removes an order in any status. Stock consumed by an order that never
// reached a terminal status is returned; a materialized invoice is kept but detached.
func (s *Service) Delete(ctx context.Context, orderID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.getForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if o.Status.IsActive() {
			if err := s.restoreStock(ctx, o); err != nil {
				return err
			}
		}
		if o.Status == StatusDelivered {
			if err := s.saleLinks.DetachOrder(ctx, o.ID); err != nil {
				return fmt.Errorf("detach sale: %w", err)
			}
		}
		if err := s.repo.Delete(ctx, o.ID); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		if err := s.occupancy.Recompute(ctx, o.TableID); err != nil {
			return err
		}

		if err := s.publish(ctx, events.OrderDeleted, o, nil); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: "order",
			EntityID:   o.ID,
			Action:     audit.ActionDelete,
			Changes:    map[string]any{"code": o.Code, "status": o.Status},
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "order deleted", "order_id", orderID)
	return nil
}

// GetByID returns an order with its items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("order", orderID.String())
		}
		return nil, err
	}
	return o, nil
}

// List returns orders matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) getForUpdate(ctx context.Context, orderID id.ID) (*Order, error) {
	o, err := s.repo.GetForUpdate(ctx, orderID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("order", orderID.String())
		}
		return nil, err
	}
	return o, nil
}

func (s *Service) zoneFee(ctx context.Context, zoneID *id.ID) (types.Money, error) {
	if zoneID == nil {
		return decimal.Zero, nil
	}
	z, err := s.zones.GetByID(ctx, *zoneID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return decimal.Zero, apperror.NewNotFound("zone", zoneID.String())
		}
		return decimal.Zero, err
	}
	return z.Fee, nil
}

// currentZoneFee is the zone's fee now, or the fee stored on the order if the zone is gone.
func (s *Service) currentZoneFee(ctx context.Context, o *Order) (types.Money, error) {
	fee, err := s.zoneFee(ctx, o.ZoneID)
	if apperror.IsNotFound(err) {
		return o.DeliveryFee, nil
	}
	return fee, err
}

func (s *Service) checkDriver(ctx context.Context, driverID id.ID) error {
	if _, err := s.drivers.GetByID(ctx, driverID); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("driver", driverID.String())
		}
		return err
	}
	return nil
}

// restoreStock returns the order's material consumption using current recipes.
func (s *Service) restoreStock(ctx context.Context, o *Order) error {
	products, err := s.products.ProductsByID(ctx, o.ProductIDs())
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	return s.ledger.ApplyDeltas(ctx, o.Consumption(products))
}

func (s *Service) generateCode(ctx context.Context) (string, error) {
	for range codeAttempts {
		code, err := s.codes.Generate(s.now())
		if err != nil {
			return "", fmt.Errorf("generate order code: %w", err)
		}
		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check order code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("generate order code: %d collisions", codeAttempts)
}

func (s *Service) snapshot(o *Order) sales.OrderSnapshot {
	lines := make([]sales.OrderLine, len(o.Items))
	for i, item := range o.Items {
		lines[i] = sales.OrderLine{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.TotalPrice,
		}
	}
	snap := sales.OrderSnapshot{
		OrderID:       o.ID,
		OrderCode:     o.Code,
		CustomerName:  o.CustomerName,
		PaymentMethod: string(o.PaymentMethod),
		Lines:         lines,
		DeliveryFee:   o.DeliveryFee,
		Discount:      o.Discount,
		TaxRate:       o.TaxRate,
		TaxAmount:     o.TaxAmount,
	}
	if o.DeliveredAt != nil {
		snap.DeliveredAt = *o.DeliveredAt
	}
	return snap
}

func (s *Service) publish(ctx context.Context, eventType string, o *Order, extra map[string]any) error {
	payload := map[string]any{
		"orderId": o.ID,
		"code":    o.Code,
		"type":    o.Type,
		"status":  o.Status,
		"total":   o.Total,
	}
	if o.TableID != nil {
		payload["tableId"] = o.TableID
	}
	for k, v := range extra {
		payload[k] = v
	}
	return s.events.Publish(ctx, events.Event{
		AggregateType: "order",
		AggregateID:   o.ID,
		Type:          eventType,
		Payload:       payload,
	})
}
