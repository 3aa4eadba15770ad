// Package reports computes profit and dashboard figures from delivered orders and sales.
package reports

import (
	"time"

	"bistro/internal/core/id"
	"bistro/internal/core/types"
)

// DayTotals is the sum of delivered orders on one calendar day (UTC).
type DayTotals struct {
	Day         time.Time   `db:"day" json:"day"`
	Orders      int         `db:"orders" json:"orders"`
	Subtotal    types.Money `db:"subtotal" json:"subtotal"`
	Discount    types.Money `db:"discount" json:"discount"`
	DeliveryFee types.Money `db:"delivery_fee" json:"deliveryFee"`
	Tax         types.Money `db:"tax" json:"tax"`
	Total       types.Money `db:"total" json:"total"`
}

// ItemTotals is the quantity of one product sold through delivered orders on one day.
type ItemTotals struct {
	Day         time.Time   `db:"day"`
	ProductID   id.ID       `db:"product_id"`
	ProductName string      `db:"product_name"`
	Quantity    int         `db:"quantity"`
	Revenue     types.Money `db:"revenue"`
}

// ProfitDay is one row of the per-day breakdown.
type ProfitDay struct {
	DayTotals
	COGS   types.Money `json:"cogs"`
	Profit types.Money `json:"profit"`
}

// TopProduct ranks a product by units sold.
type TopProduct struct {
	ProductID   id.ID       `json:"productId"`
	ProductName string      `json:"productName"`
	Quantity    int         `json:"quantity"`
	Revenue     types.Money `json:"revenue"`
	COGS        types.Money `json:"cogs"`
}

// ProfitReport summarizes delivered orders in [From, To).
// COGS uses current recipe cost, not the cost at the time of sale.
type ProfitReport struct {
	From        time.Time    `json:"from"`
	To          time.Time    `json:"to"`
	Orders      int          `json:"orders"`
	Revenue     types.Money  `json:"revenue"`
	Discount    types.Money  `json:"discount"`
	DeliveryFee types.Money  `json:"deliveryFee"`
	Tax         types.Money  `json:"tax"`
	COGS        types.Money  `json:"cogs"`
	Profit      types.Money  `json:"profit"`
	Days        []ProfitDay  `json:"days"`
	TopProducts []TopProduct `json:"topProducts"`
}

// Dashboard is the at-a-glance view of the restaurant.
type Dashboard struct {
	OrdersByStatus map[string]int `json:"ordersByStatus"`
	ActiveOrders   int            `json:"activeOrders"`
	OccupiedTables int            `json:"occupiedTables"`
	TodaySales     types.Money    `json:"todaySales"`
	TodayOrders    int            `json:"todayOrders"`
	LowStock       int            `json:"lowStock"`
}
