// Package report_repo provides the PostgreSQL aggregates behind reports and notifications.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"bistro/internal/core/types"
	"bistro/internal/domain/notifications"
	"bistro/internal/domain/orders"
	"bistro/internal/domain/reports"
	"bistro/internal/domain/sales"
	"bistro/internal/infrastructure/storage/postgres"
)

var (
	_ reports.Repository       = (*ReportRepo)(nil)
	_ notifications.Repository = (*ReportRepo)(nil)
)

// ReportRepo runs read-only aggregate queries. Days are UTC calendar days.
type ReportRepo struct {
	txManager *postgres.TxManager
}

// NewReportRepo creates a report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

const deliveredByDaySQL = `
	SELECT date_trunc('day', delivered_at AT TIME ZONE 'UTC') AT TIME ZONE 'UTC' AS day,
	       COUNT(*)                       AS orders,
	       COALESCE(SUM(subtotal), 0)     AS subtotal,
	       COALESCE(SUM(discount), 0)     AS discount,
	       COALESCE(SUM(delivery_fee), 0) AS delivery_fee,
	       COALESCE(SUM(tax_amount), 0)   AS tax,
	       COALESCE(SUM(total), 0)        AS total
	FROM orders
	WHERE status = $1 AND delivered_at >= $2 AND delivered_at < $3
	GROUP BY 1
	ORDER BY 1`

func (r *ReportRepo) DeliveredByDay(ctx context.Context, from, to time.Time) ([]reports.DayTotals, error) {
	var out []reports.DayTotals
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, deliveredByDaySQL,
		string(orders.StatusDelivered), from, to)
	if err != nil {
		return nil, fmt.Errorf("delivered by day: %w", err)
	}
	return out, nil
}

const deliveredItemsSQL = `
	SELECT date_trunc('day', o.delivered_at AT TIME ZONE 'UTC') AT TIME ZONE 'UTC' AS day,
	       oi.product_id,
	       MIN(oi.product_name)            AS product_name,
	       SUM(oi.quantity)                AS quantity,
	       COALESCE(SUM(oi.total_price), 0) AS revenue
	FROM order_items oi
	JOIN orders o ON o.id = oi.order_id
	WHERE o.status = $1 AND o.delivered_at >= $2 AND o.delivered_at < $3
	GROUP BY 1, oi.product_id
	ORDER BY 1, product_name`

func (r *ReportRepo) DeliveredItems(ctx context.Context, from, to time.Time) ([]reports.ItemTotals, error) {
	var out []reports.ItemTotals
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, deliveredItemsSQL,
		string(orders.StatusDelivered), from, to)
	if err != nil {
		return nil, fmt.Errorf("delivered items: %w", err)
	}
	return out, nil
}

func (r *ReportRepo) OrdersByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("orders by status: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *ReportRepo) PaidSales(ctx context.Context, from, to time.Time) (int, types.Money, error) {
	var (
		n     int
		total types.Money
	)
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0)
		FROM sales
		WHERE status = $1 AND date >= $2 AND date < $3
	`, string(sales.StatusPaid), from, to).Scan(&n, &total)
	if err != nil {
		return 0, types.Zero(), fmt.Errorf("paid sales: %w", err)
	}
	return n, total, nil
}

func (r *ReportRepo) OccupiedTables(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM dining_tables WHERE is_occupied`)
}

func (r *ReportRepo) PendingOrders(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM orders WHERE status = ANY($1)`, postgres.ActiveOrderStatuses)
}

func (r *ReportRepo) DraftSales(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM sales WHERE status = $1`, string(sales.StatusDraft))
}

func (r *ReportRepo) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
