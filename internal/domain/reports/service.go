package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/orders"
	"bistro/internal/domain/pricing"
)

// DefaultTopProducts is the number of products returned in a profit report.
const DefaultTopProducts = 10

// Service provides report generation operations.
type Service struct {
	repo     Repository
	costs    CostSource
	lowStock LowStockCounter
	now      func() time.Time
}

// NewService creates a new reports service.
func NewService(repo Repository, costs CostSource, lowStock LowStockCounter) *Service {
	return &Service{
		repo:     repo,
		costs:    costs,
		lowStock: lowStock,
		now:      time.Now,
	}
}

// Profit reports revenue, live COGS and profit for orders delivered in [from, to).
// Profit = subtotal - COGS - discount.
func (s *Service) Profit(ctx context.Context, from, to time.Time) (*ProfitReport, error) {
	if from.IsZero() || to.IsZero() {
		return nil, apperror.NewInvalidInput("from and to are required")
	}
	if !from.Before(to) {
		return nil, apperror.NewInvalidInput("from must be before to")
	}

	days, err := s.repo.DeliveredByDay(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load delivered orders: %w", err)
	}
	items, err := s.repo.DeliveredItems(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load delivered items: %w", err)
	}

	productIDs := make([]id.ID, 0, len(items))
	for _, it := range items {
		productIDs = append(productIDs, it.ProductID)
	}
	unitCosts := map[id.ID]types.Money{}
	if len(productIDs) > 0 {
		unitCosts, err = s.costs.UnitCosts(ctx, productIDs)
		if err != nil {
			return nil, fmt.Errorf("load unit costs: %w", err)
		}
	}

	cogsByDay := make(map[string]types.Money)
	top := make(map[id.ID]*TopProduct)
	for _, it := range items {
		// A deleted product contributes no cost.
		cost := unitCosts[it.ProductID].Mul(decimal.NewFromInt(int64(it.Quantity)))
		key := dayKey(it.Day)
		cogsByDay[key] = cogsByDay[key].Add(cost)

		tp, ok := top[it.ProductID]
		if !ok {
			tp = &TopProduct{ProductID: it.ProductID, ProductName: it.ProductName}
			top[it.ProductID] = tp
		}
		tp.Quantity += it.Quantity
		tp.Revenue = tp.Revenue.Add(it.Revenue)
		tp.COGS = tp.COGS.Add(cost)
	}

	report := &ProfitReport{
		From:        from,
		To:          to,
		Revenue:     types.Zero(),
		Discount:    types.Zero(),
		DeliveryFee: types.Zero(),
		Tax:         types.Zero(),
		COGS:        types.Zero(),
		Days:        make([]ProfitDay, 0, len(days)),
	}
	for _, d := range days {
		cogs := types.RoundMoney(cogsByDay[dayKey(d.Day)])
		report.Days = append(report.Days, ProfitDay{
			DayTotals: d,
			COGS:      cogs,
			Profit:    pricing.Profit(d.Subtotal, cogs, d.Discount),
		})
		report.Orders += d.Orders
		report.Revenue = report.Revenue.Add(d.Subtotal)
		report.Discount = report.Discount.Add(d.Discount)
		report.DeliveryFee = report.DeliveryFee.Add(d.DeliveryFee)
		report.Tax = report.Tax.Add(d.Tax)
		report.COGS = report.COGS.Add(cogs)
	}
	report.Profit = pricing.Profit(report.Revenue, report.COGS, report.Discount)

	report.TopProducts = make([]TopProduct, 0, len(top))
	for _, tp := range top {
		tp.COGS = types.RoundMoney(tp.COGS)
		report.TopProducts = append(report.TopProducts, *tp)
	}
	sort.Slice(report.TopProducts, func(i, j int) bool {
		a, b := report.TopProducts[i], report.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.ProductName < b.ProductName
	})
	if len(report.TopProducts) > DefaultTopProducts {
		report.TopProducts = report.TopProducts[:DefaultTopProducts]
	}

	return report, nil
}

// Dashboard returns order counts by status, today's paid sales and the low-stock count.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	counts, err := s.repo.OrdersByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	byStatus := make(map[string]int, len(counts))
	active := 0
	for _, st := range orders.AllStatuses() {
		n := counts[string(st)]
		byStatus[string(st)] = n
		if st.IsActive() {
			active += n
		}
	}

	start := startOfDay(s.now())
	salesCount, salesTotal, err := s.repo.PaidSales(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("sum today's sales: %w", err)
	}

	occupied, err := s.repo.OccupiedTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("count occupied tables: %w", err)
	}

	low, err := s.lowStock.LowStockCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("count low stock: %w", err)
	}

	return &Dashboard{
		OrdersByStatus: byStatus,
		ActiveOrders:   active,
		OccupiedTables: occupied,
		TodaySales:     salesTotal,
		TodayOrders:    salesCount,
		LowStock:       low,
	}, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
