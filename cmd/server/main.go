// Package main is the entry point for the Bistro API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"bistro/internal/app"
	"bistro/internal/config"
	v1 "bistro/internal/infrastructure/http/v1"
	"bistro/internal/infrastructure/ratelimit"
	"bistro/pkg/logger"
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

	// Money and quantities go out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("starting bistro server", "storage", cfg.StorageDriver)

	storage, err := app.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer storage.Close()

	limiter := ratelimit.New(ratelimit.Config{
		Rate:    rate.Every(cfg.LoginInterval()),
		Burst:   cfg.LoginBurst,
		IdleTTL: 15 * time.Minute,
	})

	services, err := app.New(storage.Repositories, app.ServiceOptions(cfg, limiter))
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	if cfg.AdminPassword != "" {
		if _, err := services.Auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalw("failed to ensure admin user", "error", err)
		}
		log.Infow("admin user ready", "username", cfg.AdminUsername)
	} else if cfg.StorageDriver == config.DriverMemory {
		log.Warn("ADMIN_PASSWORD is not set; the in-memory store has no users and nobody can log in")
	}

	go services.Hub.Run(ctx)

	router := v1.NewRouter(v1.RouterConfig{
		Services:     services,
		Logger:       log,
		CookieSecure: cfg.CookieSecure,
		Debug:        cfg.LogDev,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No write timeout: the notification stream stays open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
