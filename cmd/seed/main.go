// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"bistro/internal/app"
	"bistro/internal/config"
	"bistro/internal/core/apperror"
	"bistro/internal/core/entity"
	"bistro/internal/core/id"
	"bistro/internal/domain/catalog"
	"bistro/internal/domain/dining"
	"bistro/internal/domain/inventory"
	"bistro/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("configuration error", "error", err)
	}
	if cfg.StorageDriver != config.DriverPostgres {
		log.Fatal("seeding only makes sense for the postgres storage driver")
	}

	ctx := context.Background()

	storage, err := app.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer storage.Close()

	log.Info("connected to database")

	services, err := app.New(storage.Repositories, app.ServiceOptions(cfg, nil))
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	password := cfg.AdminPassword
	if password == "" {
		password = "Admin123!"
		log.Warn("ADMIN_PASSWORD not set, using the default password; change it after first login")
	}
	if _, err := services.Auth.EnsureAdmin(ctx, cfg.AdminUsername, password); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}
	log.Infow("admin user ready", "username", cfg.AdminUsername)

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, services, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedDemoData creates a small café: a few materials, a menu, tables, a zone and a driver.
// Records whose name already exists are skipped so the command can be rerun.
func seedDemoData(ctx context.Context, s *app.Services, log *logger.Logger) error {
	type materialSeed struct {
		name, unit    string
		cost          string
		stock, minQty string
	}
	materialSeeds := []materialSeed{
		{"Coffee beans", "kg", "18.50", "10", "2"},
		{"Milk", "l", "1.20", "40", "8"},
		{"Sugar", "kg", "0.90", "15", "3"},
		{"Paper cup", "pcs", "0.05", "500", "100"},
		{"Croissant dough", "pcs", "0.60", "60", "12"},
	}

	materials := make(map[string]id.ID, len(materialSeeds))
	for _, ms := range materialSeeds {
		m := inventory.NewMaterial()
		m.Name = ms.name
		m.Unit = ms.unit
		m.Cost = decimal.RequireFromString(ms.cost)
		m.Stock = decimal.RequireFromString(ms.stock)
		m.MinStock = decimal.RequireFromString(ms.minQty)
		if err := s.Materials.Create(ctx, m); err != nil {
			if !apperror.HasCode(err, apperror.CodeConflict) {
				return fmt.Errorf("material %s: %w", ms.name, err)
			}
			log.Infow("material exists, skipping", "name", ms.name)
			continue
		}
		materials[ms.name] = m.ID
	}

	drinks := &catalog.Category{Base: entity.NewBase(), Name: "Drinks"}
	bakery := &catalog.Category{Base: entity.NewBase(), Name: "Bakery"}
	for _, c := range []*catalog.Category{drinks, bakery} {
		if err := s.Categories.Create(ctx, c); err != nil && !apperror.HasCode(err, apperror.CodeConflict) {
			return fmt.Errorf("category %s: %w", c.Name, err)
		}
	}

	recipe := func(lines ...any) []catalog.RecipeItem {
		var out []catalog.RecipeItem
		for i := 0; i+1 < len(lines); i += 2 {
			materialID, ok := materials[lines[i].(string)]
			if !ok {
				continue
			}
			out = append(out, catalog.RecipeItem{
				MaterialID: materialID,
				Quantity:   decimal.RequireFromString(lines[i+1].(string)),
			})
		}
		return out
	}

	products := []struct {
		name     string
		category *catalog.Category
		price    string
		recipe   []catalog.RecipeItem
	}{
		{"Espresso", drinks, "2.50", recipe("Coffee beans", "0.018", "Paper cup", "1")},
		{"Cappuccino", drinks, "3.40", recipe("Coffee beans", "0.018", "Milk", "0.15", "Paper cup", "1")},
		{"Latte", drinks, "3.80", recipe("Coffee beans", "0.018", "Milk", "0.25", "Sugar", "0.01", "Paper cup", "1")},
		{"Croissant", bakery, "2.20", recipe("Croissant dough", "1")},
	}
	for _, ps := range products {
		p := catalog.NewProduct()
		p.Name = ps.name
		p.CategoryID = id.Ptr(ps.category.ID)
		p.Price = decimal.RequireFromString(ps.price)
		p.Recipe = ps.recipe
		if err := s.Catalog.CreateProduct(ctx, p); err != nil {
			if !apperror.HasCode(err, apperror.CodeConflict) && !apperror.IsNotFound(err) &&
				!apperror.HasCode(err, apperror.CodeInvalidMaterials) {
				return fmt.Errorf("product %s: %w", ps.name, err)
			}
			log.Infow("product skipped", "name", ps.name, "reason", err.Error())
		}
	}

	for n := 1; n <= 6; n++ {
		t := &dining.Table{Base: entity.NewBase(), Name: fmt.Sprintf("Table %d", n), Number: n, Seats: 4}
		if err := s.Dining.Tables.Create(ctx, t); err != nil && !apperror.HasCode(err, apperror.CodeConflict) {
			return fmt.Errorf("table %d: %w", n, err)
		}
	}

	zone := &dining.Zone{Base: entity.NewBase(), Name: "City centre", Fee: decimal.RequireFromString("3.00")}
	if err := s.Dining.Zones.Create(ctx, zone); err != nil && !apperror.HasCode(err, apperror.CodeConflict) {
		return fmt.Errorf("zone: %w", err)
	}

	driver := &dining.Driver{Base: entity.NewBase(), Name: "Sam", Phone: "+10000000000", IsActive: true}
	if err := s.Dining.Drivers.Create(ctx, driver); err != nil && !apperror.HasCode(err, apperror.CodeConflict) {
		return fmt.Errorf("driver: %w", err)
	}

	log.Infow("demo data seeded", "materials", len(materials), "products", len(products))
	return nil
}
