package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/salon-booking-wizard/internal/api/router"
	"github.com/wolfman30/salon-booking-wizard/internal/audit"
	appconfig "github.com/wolfman30/salon-booking-wizard/internal/config"
	httpmiddleware "github.com/wolfman30/salon-booking-wizard/internal/http/middleware"
	"github.com/wolfman30/salon-booking-wizard/internal/salonapi"
	"github.com/wolfman30/salon-booking-wizard/internal/webbooking"
	"github.com/wolfman30/salon-booking-wizard/internal/wizard"
	"github.com/wolfman30/salon-booking-wizard/pkg/logging"
)

const (
	janitorInterval   = time.Minute
	rateLimitIdle     = 10 * time.Minute
	snapshotRetention = 24 * time.Hour
)

func main() {
	// A missing .env is fine outside local development.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info("starting salon booking wizard API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"snapshot_store", cfg.SnapshotStore,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsHandler, wizardMetrics := setupMetrics()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}
	store := setupSnapshotStore(ctx, cfg, pool, logger)
	defer store.Close()
	logger.Info("wizard snapshots configured", "store", store.kind)

	backend := salonapi.NewClient(salonapi.Options{
		BaseURL: cfg.SalonAPIBaseURL,
		SalonID: cfg.SalonID,
		Timeout: cfg.SalonAPITimeout,
		Logger:  logger,
	})

	managerCfg := wizard.Config{
		Backend:         backend,
		Store:           store.gateway,
		Hub:             wizard.NewHub(),
		Metrics:         wizardMetrics,
		Logger:          logger,
		SnapshotTTL:     cfg.SnapshotTTL,
		MinPhoneDigits:  cfg.MinPhoneDigits,
		BookingSource:   cfg.BookingSource,
		DefaultLanguage: firstOr(cfg.SupportedLanguages, "en"),
	}
	var trail webbooking.ConfirmationQuerier
	if db := openAuditDB(cfg.DatabaseURL, logger); db != nil {
		defer func() { _ = db.Close() }()
		t := audit.NewTrail(db)
		managerCfg.Auditor = t
		trail = t
	}
	manager := wizard.NewManager(managerCfg)

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Background janitors
	go manager.Run(ctx, janitorInterval, cfg.SessionIdleTTL)
	go limiter.Run(ctx.Done(), janitorInterval, rateLimitIdle)
	if store.postgres != nil {
		go runSnapshotPurge(ctx, store.postgres, time.Hour, snapshotRetention, logger)
	}

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		Booking:            webbooking.NewHandler(manager, logger),
		Ops:                webbooking.NewOpsHandler(manager, trail, logger),
		MetricsHandler:     metricsHandler,
		HealthChecks:       store.checks,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		DefaultSalonID:     cfg.SalonID,
		SupportedLanguages: cfg.SupportedLanguages,
		ClientJWTSecret:    cfg.ClientJWTSecret,
		OpsToken:           cfg.OpsToken,
		RateLimiter:        limiter,
	}
	r := router.New(routerCfg)

	// Create HTTP server. No WriteTimeout: the event stream is long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func firstOr(values []string, fallback string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return fallback
}
