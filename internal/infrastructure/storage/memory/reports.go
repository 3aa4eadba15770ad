package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"bistro/internal/core/id"
	"bistro/internal/core/types"
	"bistro/internal/domain/notifications"
	"bistro/internal/domain/orders"
	"bistro/internal/domain/reports"
	"bistro/internal/domain/sales"
)

var (
	_ reports.Repository       = (*ReportRepo)(nil)
	_ notifications.Repository = (*ReportRepo)(nil)
)

// ReportRepo implements the report and notification aggregates.
type ReportRepo struct{ s *Store }

// NewReportRepo creates the report repository.
func NewReportRepo(s *Store) *ReportRepo { return &ReportRepo{s: s} }

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func deliveredIn(o *orders.Order, from, to time.Time) bool {
	return o.Status == orders.StatusDelivered && o.DeliveredAt != nil && inRange(*o.DeliveredAt, &from, &to)
}

func (r *ReportRepo) DeliveredByDay(_ context.Context, from, to time.Time) ([]reports.DayTotals, error) {
	byDay := map[time.Time]*reports.DayTotals{}
	r.s.read(func(st *state) {
		for _, o := range st.orders {
			if !deliveredIn(o, from, to) {
				continue
			}
			day := truncateDay(*o.DeliveredAt)
			d, ok := byDay[day]
			if !ok {
				d = &reports.DayTotals{Day: day, Subtotal: types.Zero(), Discount: types.Zero(),
					DeliveryFee: types.Zero(), Tax: types.Zero(), Total: types.Zero()}
				byDay[day] = d
			}
			d.Orders++
			d.Subtotal = d.Subtotal.Add(o.Subtotal)
			d.Discount = d.Discount.Add(o.Discount)
			d.DeliveryFee = d.DeliveryFee.Add(o.DeliveryFee)
			d.Tax = d.Tax.Add(o.TaxAmount)
			d.Total = d.Total.Add(o.Total)
		}
	})

	out := make([]reports.DayTotals, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func (r *ReportRepo) DeliveredItems(_ context.Context, from, to time.Time) ([]reports.ItemTotals, error) {
	type key struct {
		day     time.Time
		product id.ID
	}
	agg := map[key]*reports.ItemTotals{}
	r.s.read(func(st *state) {
		for _, o := range st.orders {
			if !deliveredIn(o, from, to) {
				continue
			}
			day := truncateDay(*o.DeliveredAt)
			for _, it := range o.Items {
				k := key{day, it.ProductID}
				t, ok := agg[k]
				if !ok {
					t = &reports.ItemTotals{Day: day, ProductID: it.ProductID, ProductName: it.ProductName, Revenue: types.Zero()}
					agg[k] = t
				}
				t.Quantity += it.Quantity
				t.Revenue = t.Revenue.Add(it.TotalPrice)
			}
		}
	})

	out := make([]reports.ItemTotals, 0, len(agg))
	for _, t := range agg {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Day.Equal(out[j].Day) {
			return out[i].Day.Before(out[j].Day)
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out, nil
}

func (r *ReportRepo) OrdersByStatus(_ context.Context) (map[string]int, error) {
	counts := map[string]int{}
	r.s.read(func(st *state) {
		for _, o := range st.orders {
			counts[string(o.Status)]++
		}
	})
	return counts, nil
}

func (r *ReportRepo) PaidSales(_ context.Context, from, to time.Time) (int, types.Money, error) {
	n, total := 0, decimal.Zero
	r.s.read(func(st *state) {
		for _, s := range st.sales {
			if s.Status == sales.StatusPaid && inRange(s.Date, &from, &to) {
				n++
				total = total.Add(s.Total)
			}
		}
	})
	return n, total, nil
}

func (r *ReportRepo) OccupiedTables(_ context.Context) (int, error) {
	n := 0
	r.s.read(func(st *state) {
		for _, t := range st.tables {
			if t.IsOccupied {
				n++
			}
		}
	})
	return n, nil
}

func (r *ReportRepo) PendingOrders(_ context.Context) (int, error) {
	n := 0
	r.s.read(func(st *state) {
		for _, o := range st.orders {
			if isActiveOrder(o) {
				n++
			}
		}
	})
	return n, nil
}

func (r *ReportRepo) DraftSales(_ context.Context) (int, error) {
	n := 0
	r.s.read(func(st *state) {
		for _, s := range st.sales {
			if s.Status == sales.StatusDraft {
				n++
			}
		}
	})
	return n, nil
}
