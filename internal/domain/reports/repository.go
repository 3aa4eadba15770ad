package reports

import (
	"context"
	"time"

	"bistro/internal/core/id"
	"bistro/internal/core/types"
)

// Repository aggregates report source data. Periods are half-open [from, to).
type Repository interface {
	// DeliveredByDay groups delivered orders by the day of delivery.
	DeliveredByDay(ctx context.Context, from, to time.Time) ([]DayTotals, error)
	// DeliveredItems groups delivered order lines by day and product.
	DeliveredItems(ctx context.Context, from, to time.Time) ([]ItemTotals, error)
	// OrdersByStatus counts all orders per status.
	OrdersByStatus(ctx context.Context) (map[string]int, error)
	// PaidSales returns the number and sum of PAID sales dated in the period.
	PaidSales(ctx context.Context, from, to time.Time) (int, types.Money, error)
	// OccupiedTables counts tables currently marked occupied.
	OccupiedTables(ctx context.Context) (int, error)
}

// CostSource resolves the live recipe cost of products.
type CostSource interface {
	UnitCosts(ctx context.Context, ids []id.ID) (map[id.ID]types.Money, error)
}

// LowStockCounter reports how many materials are at or below their threshold.
type LowStockCounter interface {
	LowStockCount(ctx context.Context) (int, error)
}
