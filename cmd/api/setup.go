package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/salon-booking-wizard/internal/api/router"
	appconfig "github.com/wolfman30/salon-booking-wizard/internal/config"
	"github.com/wolfman30/salon-booking-wizard/internal/observability/metrics"
	"github.com/wolfman30/salon-booking-wizard/internal/wizard"
	"github.com/wolfman30/salon-booking-wizard/pkg/logging"
)

// setupMetrics builds a dedicated registry with the wizard and runtime
// collectors and the handler that exposes it.
func setupMetrics() (http.Handler, *metrics.WizardMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	wm := metrics.NewWizardMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), wm
}

// connectPostgresPool returns nil when no database is configured or it is
// unreachable.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// openAuditDB opens a database/sql handle over the pgx driver for the audit
// trail. It returns nil without a database URL.
func openAuditDB(databaseURL string, logger *logging.Logger) *sql.DB {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("failed to open audit database", "error", err)
		return nil
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db
}

func newRedisClient(cfg *appconfig.Config) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

// snapshotStore is the selected persistence gateway plus the resources it
// owns.
type snapshotStore struct {
	gateway  wizard.PersistenceGateway
	kind     string
	checks   map[string]router.HealthCheck
	postgres *wizard.PostgresGateway
	closers  []func()
}

func (s *snapshotStore) Close() {
	for _, c := range s.closers {
		c()
	}
}

// setupSnapshotStore picks the gateway named by SNAPSHOT_STORE. A store whose
// backing service is unavailable degrades to the in-memory gateway.
func setupSnapshotStore(ctx context.Context, cfg *appconfig.Config, pool *pgxpool.Pool, logger *logging.Logger) *snapshotStore {
	store := &snapshotStore{checks: map[string]router.HealthCheck{}}

	switch cfg.SnapshotStore {
	case "redis":
		client := newRedisClient(cfg)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, using in-memory snapshots", "addr", cfg.RedisAddr, "error", err)
			_ = client.Close()
			break
		}
		store.gateway = wizard.NewRedisGateway(client)
		store.kind = "redis"
		store.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		store.closers = append(store.closers, func() { _ = client.Close() })
	case "postgres":
		if pool == nil {
			logger.Warn("postgres unavailable, using in-memory snapshots")
			break
		}
		pg := wizard.NewPostgresGateway(pool)
		store.gateway = pg
		store.postgres = pg
		store.kind = "postgres"
	case "memory":
	default:
		logger.Warn("unknown snapshot store, using in-memory snapshots", "store", cfg.SnapshotStore)
	}

	if store.gateway == nil {
		store.gateway = wizard.NewMemoryGateway()
		store.kind = "memory"
	}
	if pool != nil {
		store.checks["postgres"] = func(ctx context.Context) error { return pool.Ping(ctx) }
	}
	return store
}

// runSnapshotPurge removes Postgres snapshots older than retention until ctx
// is done.
func runSnapshotPurge(ctx context.Context, pg *wizard.PostgresGateway, interval, retention time.Duration, logger *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := pg.PurgeBefore(ctx, time.Now().Add(-retention))
			if err != nil {
				logger.Warn("snapshot purge failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired snapshots", "count", n)
			}
		}
	}
}
