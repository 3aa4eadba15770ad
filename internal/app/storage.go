package app

import (
	"context"
	"fmt"

	"bistro/internal/config"
	"bistro/internal/domain/auth"
	"bistro/internal/domain/idempotency"
	"bistro/internal/infrastructure/storage/memory"
	"bistro/internal/infrastructure/storage/postgres"
	"bistro/internal/infrastructure/storage/postgres/auth_repo"
	"bistro/internal/infrastructure/storage/postgres/catalog_repo"
	"bistro/internal/infrastructure/storage/postgres/document_repo"
	"bistro/internal/infrastructure/storage/postgres/report_repo"
)

// MemoryRepositories builds repositories over an in-process store.
func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		TxManager:   memory.NewTxManager(store),
		Materials:   memory.NewMaterialRepo(store),
		Products:    memory.NewProductRepo(store),
		Categories:  memory.NewCategoryRepo(store),
		Tables:      memory.NewTableRepo(store),
		Zones:       memory.NewZoneRepo(store),
		Drivers:     memory.NewDriverRepo(store),
		TableStore:  memory.NewTableStore(store),
		Orders:      memory.NewOrderRepo(store),
		Sales:       memory.NewSaleRepo(store),
		Purchases:   memory.NewPurchaseRepo(store),
		Waste:       memory.NewWasteRepo(store),
		Reports:     memory.NewReportRepo(store),
		Users:       memory.NewUserRepo(store),
		Roles:       memory.NewRoleRepo(store),
		Sessions:    memory.NewSessionRepo(store),
		Sequences:   memory.NewSequences(store),
		Events:      memory.NewOutbox(store),
		Audit:       memory.NewAuditLog(store),
		Backup:      memory.NewBackupStore(store),
		Idempotency: memory.NewIdempotencyStore(idempotency.DefaultTTL),
	}
}

// PostgresRepositories builds repositories over a connection pool.
func PostgresRepositories(pool *postgres.Pool) (Repositories, error) {
	txManager := postgres.NewTxManager(pool)

	auditLog, err := postgres.NewAuditService(txManager)
	if err != nil {
		return Repositories{}, fmt.Errorf("create audit log: %w", err)
	}
	reportRepo := report_repo.NewReportRepo(txManager)

	return Repositories{
		TxManager:   txManager,
		Materials:   catalog_repo.NewMaterialRepo(txManager),
		Products:    catalog_repo.NewProductRepo(txManager),
		Categories:  catalog_repo.NewCategoryRepo(txManager),
		Tables:      catalog_repo.NewTableRepo(txManager),
		Zones:       catalog_repo.NewZoneRepo(txManager),
		Drivers:     catalog_repo.NewDriverRepo(txManager),
		TableStore:  catalog_repo.NewTableStore(txManager),
		Orders:      document_repo.NewOrderRepo(txManager),
		Sales:       document_repo.NewSaleRepo(txManager),
		Purchases:   document_repo.NewPurchaseRepo(txManager),
		Waste:       document_repo.NewWasteRepo(txManager),
		Reports:     reportRepo,
		Users:       auth_repo.NewUserRepo(txManager),
		Roles:       auth_repo.NewRoleRepo(txManager),
		Sessions:    auth_repo.NewSessionRepo(txManager),
		Sequences:   postgres.NewSequences(txManager),
		Events:      postgres.NewOutboxPublisher(txManager),
		Audit:       auditLog,
		Backup:      postgres.NewBackupStore(txManager),
		Idempotency: postgres.NewIdempotencyStore(txManager, idempotency.DefaultTTL),
		Ping: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
	}, nil
}

// Storage is an opened backend. Pool is nil for the memory driver.
type Storage struct {
	Repositories
	Pool *postgres.Pool
}

// Close releases the backend.
func (s *Storage) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// OpenStorage opens the backend named by cfg.StorageDriver.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg.StorageDriver == config.DriverMemory {
		return &Storage{Repositories: MemoryRepositories(memory.New())}, nil
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	repos, err := PostgresRepositories(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &Storage{Repositories: repos, Pool: pool}, nil
}

// ServiceOptions derives Options from cfg.
func ServiceOptions(cfg *config.Config, limiter auth.RateLimiter) Options {
	return Options{
		OrderCodePrefix: cfg.OrderCodePrefix,
		LowStockRule:    cfg.LowStockRule,
		NotifyInterval:  cfg.NotifyInterval,
		JWTSecret:       cfg.JWTSecret,
		SessionTTL:      cfg.SessionTTL,
		Limiter:         limiter,
	}
}
