// Package main is the entry point for the Bistro background worker.
// It relays the transactional outbox to NATS and purges expired rows.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"bistro/internal/app"
	"bistro/internal/config"
	"bistro/internal/domain/auth"
	"bistro/internal/domain/idempotency"
	"bistro/internal/infrastructure/messaging"
	"bistro/internal/infrastructure/storage/postgres"
	"bistro/pkg/logger"
)

const (
	sessionRetention = 7 * 24 * time.Hour
	outboxRetention  = 72 * time.Hour
	cleanupInterval  = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.LogDev,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	if cfg.StorageDriver != config.DriverPostgres {
		log.Fatalw("worker requires the postgres storage driver", "storage", cfg.StorageDriver)
	}
	if cfg.NATSURL == "" {
		log.Fatal("NATS_URL is required for the worker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting bistro worker")

	storage, err := app.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer storage.Close()

	services, err := app.New(storage.Repositories, app.ServiceOptions(cfg, nil))
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	publisher, err := messaging.NewNATSPublisher(cfg.NATSURL, messaging.DefaultSubjectPrefix)
	if err != nil {
		log.Fatalw("failed to connect to NATS", "error", err)
	}
	defer publisher.Close()

	txManager := postgres.NewTxManager(storage.Pool)
	worker := &Worker{
		relay:        postgres.NewOutboxRelay(txManager, 100, publisher),
		auth:         services.Auth,
		idempotency:  services.Idempotency,
		pollInterval: cfg.OutboxPollInterval,
		log:          log.WithComponent("worker"),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker runs the outbox relay and periodic cleanups.
type Worker struct {
	relay        *postgres.OutboxRelay
	auth         *auth.Service
	idempotency  idempotency.Store
	pollInterval time.Duration
	log          *logger.Logger
}

// Run loops until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	w.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *Worker) processOutbox(ctx context.Context) {
	// Drain full batches before waiting for the next tick.
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n > 0 {
			w.log.Debugw("processed outbox batch", "count", n)
		}
		if n < 100 {
			return
		}
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	if n, err := w.auth.CleanupSessions(ctx, sessionRetention); err != nil {
		w.log.Errorw("session cleanup failed", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up expired sessions", "count", n)
	}

	if n, err := w.idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}

	if n, err := w.relay.PurgePublished(ctx, outboxRetention); err != nil {
		w.log.Errorw("outbox purge failed", "error", err)
	} else if n > 0 {
		w.log.Infow("purged published outbox messages", "count", n)
	}
}
