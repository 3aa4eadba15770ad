package document_repo

import (
	"testing"
	"time"

	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/domain/orders"
	"bistro/internal/domain/sales"
	"bistro/internal/domain/waste"
)

func TestOrderRepo_ListQuery(t *testing.T) {
	repo := NewOrderRepo(nil)
	tableID := id.New()
	dineIn := orders.TypeDineIn

	q := repo.listQuery(orders.ListFilter{
		ListFilter: domain.ListFilter{Search: "ORD"},
		Statuses:   []orders.Status{orders.StatusPreparing, orders.StatusReady},
		Type:       &dineIn,
		TableID:    &tableID,
	})
	sql, args, err := q.ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	wantWhere := " FROM orders WHERE (code ILIKE $1 OR customer_name ILIKE $2) AND status IN ($3,$4) AND type = $5 AND table_id = $6"
	if got := sql[len(sql)-len(wantWhere):]; got != wantWhere {
		t.Errorf("SQL mismatch\nwant suffix: %s\ngot:         %s", wantWhere, sql)
	}
	if len(args) != 6 || args[2] != "PREPARING" || args[4] != "DINE_IN" || args[5] != tableID {
		t.Errorf("Args mismatch: %v", args)
	}
}

func TestSaleRepo_ListQueryDateRange(t *testing.T) {
	repo := NewSaleRepo(nil)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	paid := sales.StatusPaid

	sql, args, err := repo.listQuery(sales.ListFilter{Status: &paid, From: &from, To: &to}).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	wantWhere := " FROM sales WHERE status = $1 AND date >= $2 AND date < $3"
	if got := sql[len(sql)-len(wantWhere):]; got != wantWhere {
		t.Errorf("SQL mismatch\nwant suffix: %s\ngot:         %s", wantWhere, sql)
	}
	if len(args) != 3 || args[0] != "PAID" {
		t.Errorf("Args mismatch: %v", args)
	}
}

func TestWasteRepo_ListQueryByMaterial(t *testing.T) {
	repo := NewWasteRepo(nil)
	materialID := id.New()

	sql, args, err := repo.listQuery(waste.ListFilter{MaterialID: &materialID}).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	wantSQL := "SELECT id, created_at, updated_at, material_id, quantity, cost, reason, date FROM waste WHERE material_id = $1"
	if sql != wantSQL {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", wantSQL, sql)
	}
	if len(args) != 1 || args[0] != materialID {
		t.Errorf("Args mismatch: %v", args)
	}
}
