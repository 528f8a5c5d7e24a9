// Package main is the entry point for the ledger API server.
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

	"github.com/redis/go-redis/v9"

	"ledger/internal/app"
	"ledger/internal/config"
	corelock "ledger/internal/core/lock"
	"ledger/internal/infrastructure/cache"
	v1 "ledger/internal/infrastructure/http/v1"
	infralock "ledger/internal/infrastructure/lock"
	"ledger/internal/infrastructure/storage/memory"
	"ledger/internal/infrastructure/storage/postgres"
	"ledger/internal/infrastructure/storage/postgres/catalog_repo"
	"ledger/pkg/logger"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.LogDevelopment,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	routerCfg := v1.RouterConfig{
		Logger:  log,
		Version: version,
		Debug:   cfg.LogDevelopment,
	}

	if cfg.DevInMemory {
		log.Warn("DEV_INMEMORY is set: state lives in process memory and is lost on exit")
		container, err := app.InMemory(memory.NewStore(), time.Now)
		if err != nil {
			log.Fatalw("failed to wire ledger", "error", err)
		}
		if _, err := app.Seed(ctx, container.Accounts, app.DefaultChart, app.DefaultTags); err != nil {
			log.Fatalw("failed to seed chart of accounts", "error", err)
		}
		routerCfg.Container = container
	} else {
		cleanup, err := wirePostgres(ctx, cfg, log, &routerCfg)
		if err != nil {
			log.Fatalw("failed to start", "error", err)
		}
		defer cleanup()
	}

	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTPAddr, "in_memory", cfg.DevInMemory, "version", version)
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

// wirePostgres connects to PostgreSQL, applies the schema and fills routerCfg.
// The returned cleanup releases everything opened here.
func wirePostgres(ctx context.Context, cfg *config.Config, log *logger.Logger, routerCfg *v1.RouterConfig) (func(), error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL, "ledger-server")
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	closers := []func(){pool.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	log.Info("database connection established")

	if err := postgres.Migrate(ctx, pool); err != nil {
		cleanup()
		return nil, err
	}

	txm := postgres.NewTxManager(pool, cfg.DBStatementTimeout)

	var locker corelock.Locker
	if cfg.UseRedis() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		closers = append(closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		locker = infralock.NewRedisLocker(rdb, "ledger:lock:", infralock.DefaultWait)
		log.Infow("using redis account locks", "addr", cfg.RedisAddr)
	} else {
		locker = infralock.NewLocalLocker(infralock.DefaultWait)
		log.Warn("REDIS_ADDR not set: account locks are process-local, run a single server instance")
	}

	registry := cache.NewTagRegistryCache(pool.Unwrap(), catalog_repo.NewAccountRepo(txm))

	container, err := app.Postgres(txm, app.PostgresOptions{
		Locker:   locker,
		LockTTL:  cfg.LockTTL,
		Registry: registry,
	})
	if err != nil {
		cleanup()
		return nil, err
	}

	created, err := app.Seed(ctx, container.Accounts, app.DefaultChart, app.DefaultTags)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("seed chart of accounts: %w", err)
	}
	if created > 0 {
		log.Infow("seeded chart of accounts", "created", created)
	}

	if err := registry.Start(ctx); err != nil {
		cleanup()
		return nil, fmt.Errorf("start tag registry cache: %w", err)
	}
	closers = append(closers, registry.Stop)

	routerCfg.Container = container
	routerCfg.DB = pool
	routerCfg.Registry = registry
	routerCfg.Idempotency = postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL)
	return cleanup, nil
}
