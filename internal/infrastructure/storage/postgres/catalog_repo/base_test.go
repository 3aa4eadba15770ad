package catalog_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bistro/internal/core/id"
	"bistro/internal/domain"
	"bistro/internal/domain/catalog"
	"bistro/internal/domain/dining"
)

func TestBaseRefRepo_ListQuery(t *testing.T) {
	repo := NewCategoryRepo(nil).(*BaseRefRepo[*catalog.Category])

	sql, args, err := repo.listQuery(domain.ListFilter{Search: "drink"}).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	wantSQL := "SELECT id, created_at, updated_at, name FROM categories WHERE (name ILIKE $1)"
	if sql != wantSQL {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", wantSQL, sql)
	}
	if len(args) != 1 || args[0] != "%drink%" {
		t.Errorf("Args mismatch\nwant: [%%drink%%]\ngot:  %v", args)
	}
}

func TestBaseRefRepo_TableUniqueKey(t *testing.T) {
	repo := NewTableRepo(nil).(*BaseRefRepo[*dining.Table])
	tbl := &dining.Table{Name: " Window ", Number: 4}
	tbl.ID = id.New()

	sql, args, err := repo.nameTakenQuery(tbl).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	wantSQL := "SELECT 1 FROM dining_tables WHERE (lower(name) = lower($1) AND number = $2) AND id <> $3"
	if sql != wantSQL {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", wantSQL, sql)
	}
	if len(args) != 3 || args[0] != "Window" || args[1] != 4 || args[2] != tbl.ID {
		t.Errorf("Args mismatch: %v", args)
	}
}

func TestMaterialRepo_ListQuery(t *testing.T) {
	repo := NewMaterialRepo(nil)

	sql, args, err := repo.listQuery(domain.ListFilter{Search: "milk"}).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	if !strings.HasSuffix(sql, "FROM materials WHERE (name ILIKE $1)") {
		t.Errorf("SQL mismatch: %s", sql)
	}
	if len(args) != 1 || args[0] != "%milk%" {
		t.Errorf("Args mismatch: %v", args)
	}
}

func TestMaterialRepo_GetForUpdateLocksRow(t *testing.T) {
	repo := NewMaterialRepo(nil)
	materialID := id.New()

	sql, args, err := repo.getQuery(materialID, true).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	if !strings.HasSuffix(sql, "FROM materials WHERE id = $1 FOR UPDATE") {
		t.Errorf("row lock missing: %s", sql)
	}
	if len(args) != 1 || args[0] != materialID {
		t.Errorf("Args mismatch: %v", args)
	}

	sql, _, err = repo.getQuery(materialID, false).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	if strings.Contains(sql, "FOR UPDATE") {
		t.Errorf("plain read must not lock: %s", sql)
	}
}

func TestDecrementQuery_IsGuarded(t *testing.T) {
	materialID := id.New()
	qty := decimal.RequireFromString("2.5")

	sql, args, err := decrementQuery(materialID, qty, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	wantSQL := "UPDATE materials SET stock = stock - $1, updated_at = $2 WHERE id = $3 AND stock >= $4"
	if sql != wantSQL {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", wantSQL, sql)
	}
	if len(args) != 4 || args[2] != materialID {
		t.Errorf("Args mismatch: %v", args)
	}
}

func TestProductRepo_ListQueryFilters(t *testing.T) {
	repo := NewProductRepo(nil)
	categoryID := id.New()

	sql, args, err := repo.listQuery(catalog.ProductFilter{ActiveOnly: true, CategoryID: &categoryID}).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	if !strings.Contains(sql, "WHERE is_active = $1 AND category_id = $2") {
		t.Errorf("unexpected SQL: %s", sql)
	}
	if len(args) != 2 || args[0] != true || args[1] != categoryID {
		t.Errorf("Args mismatch: %v", args)
	}
}
