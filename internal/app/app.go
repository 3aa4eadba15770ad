// Package app wires repositories into domain services. Both storage drivers
// produce the same Repositories set, so the HTTP layer and the commands never
// depend on a concrete backend.
package app

import (
	"context"
	"fmt"
	"time"

	"bistro/internal/core/tx"
	"bistro/internal/domain"
	"bistro/internal/domain/audit"
	"bistro/internal/domain/auth"
	"bistro/internal/domain/backup"
	"bistro/internal/domain/catalog"
	"bistro/internal/domain/dining"
	"bistro/internal/domain/events"
	"bistro/internal/domain/idempotency"
	"bistro/internal/domain/inventory"
	"bistro/internal/domain/notifications"
	"bistro/internal/domain/orders"
	"bistro/internal/domain/purchases"
	"bistro/internal/domain/reports"
	"bistro/internal/domain/sales"
	"bistro/internal/domain/waste"
	"bistro/pkg/numerator"
)

// ReportRepository backs both reports and notification counts.
type ReportRepository interface {
	reports.Repository
	notifications.Repository
}

// AuditLog records and reads entity history.
type AuditLog interface {
	audit.Recorder
	audit.Reader
}

// Repositories is the storage side of the application.
type Repositories struct {
	TxManager tx.Manager

	Materials  inventory.Repository
	Products   catalog.ProductRepository
	Categories catalog.CategoryRepository
	Tables     dining.TableRepository
	Zones      dining.ZoneRepository
	Drivers    dining.DriverRepository
	TableStore orders.TableStore
	Orders     orders.Repository
	Sales      sales.Repository
	Purchases  purchases.Repository
	Waste      waste.Repository
	Reports    ReportRepository

	Users    auth.UserRepository
	Roles    auth.RoleRepository
	Sessions auth.SessionRepository

	Sequences   numerator.Store
	Events      events.Publisher
	Audit       AuditLog
	Backup      backup.Store
	Idempotency idempotency.Store

	// Ping checks the backend; nil when there is nothing to check.
	Ping func(ctx context.Context) error
}

// Options tune the services.
type Options struct {
	OrderCodePrefix string
	LowStockRule    string
	NotifyInterval  time.Duration

	JWTSecret  string
	SessionTTL time.Duration
	Limiter    auth.RateLimiter
}

// Services is the domain side of the application.
type Services struct {
	Materials     *inventory.Service
	Ledger        *inventory.Ledger
	Catalog       *catalog.Service
	Categories    *domain.ReferenceService[*catalog.Category]
	Dining        *dining.Services
	Orders        *orders.Service
	Sales         *sales.Service
	Purchases     *purchases.Service
	Waste         *waste.Service
	Reports       *reports.Service
	Notifications *notifications.Service
	Hub           *notifications.Hub
	Auth          *auth.Service
	Roles         *domain.ReferenceService[*auth.Role]
	Backup        *backup.Service
	Audit         audit.Reader
	Idempotency   idempotency.Store
	Ping          func(ctx context.Context) error
}

// New builds every service over repos.
func New(repos Repositories, opts Options) (*Services, error) {
	rule, err := notifications.NewLowStockRule(opts.LowStockRule)
	if err != nil {
		return nil, fmt.Errorf("low stock rule: %w", err)
	}

	numbers := numerator.New(repos.Sequences)
	ledger := inventory.NewLedger(repos.Materials, repos.Events, rule)
	catalogSvc := catalog.NewService(repos.Products, repos.Categories, repos.Materials, repos.TxManager)
	materializer := sales.NewMaterializer(repos.Sales, numbers, repos.Events)

	ordersSvc := orders.NewService(orders.Deps{
		Repo:      repos.Orders,
		Tables:    repos.TableStore,
		Products:  catalogSvc,
		Zones:     repos.Zones,
		Drivers:   repos.Drivers,
		Ledger:    ledger,
		Sales:     materializer,
		SaleLinks: repos.Sales,
		TxManager: repos.TxManager,
		Events:    repos.Events,
		Audit:     repos.Audit,
		Codes:     orders.NewCodeGenerator(opts.OrderCodePrefix),
	})

	notificationsSvc := notifications.NewService(repos.Reports, repos.Materials, rule)

	jwtConfig := auth.DefaultJWTConfig(opts.JWTSecret)
	if opts.SessionTTL > 0 {
		jwtConfig.TTL = opts.SessionTTL
	}
	authSvc := auth.NewService(
		repos.Users,
		repos.Roles,
		repos.Sessions,
		repos.TxManager,
		auth.NewJWTService(jwtConfig),
		opts.Limiter,
		auth.DefaultServiceConfig(),
	)

	return &Services{
		Materials:     inventory.NewService(repos.Materials, repos.TxManager, rule),
		Ledger:        ledger,
		Catalog:       catalogSvc,
		Categories:    catalog.NewCategoryService(repos.Categories, repos.TxManager),
		Dining:        dining.NewServices(repos.Tables, repos.Zones, repos.Drivers, repos.TxManager),
		Orders:        ordersSvc,
		Sales:         sales.NewService(repos.Sales, numbers, repos.TxManager),
		Purchases:     purchases.NewService(repos.Purchases, repos.Materials, ledger, numbers, repos.TxManager, repos.Events, repos.Audit),
		Waste:         waste.NewService(repos.Waste, repos.Materials, ledger, repos.TxManager, repos.Audit),
		Reports:       reports.NewService(repos.Reports, catalogSvc, notificationsSvc),
		Notifications: notificationsSvc,
		Hub:           notifications.NewHub(notificationsSvc, opts.NotifyInterval),
		Auth:          authSvc,
		Roles:         auth.NewRoleService(repos.Roles, repos.TxManager),
		Backup:        backup.NewService(repos.Backup, repos.TxManager, numbers),
		Audit:         repos.Audit,
		Idempotency:   repos.Idempotency,
		Ping:          repos.Ping,
	}, nil
}
