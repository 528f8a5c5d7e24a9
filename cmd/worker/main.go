// Package main is the entry point for the ledger background worker.
// It relays the transactional outbox, expires idempotency keys and
// periodically verifies cached balances against posted history.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ledger/internal/app"
	"ledger/internal/config"
	appctx "ledger/internal/core/context"
	"ledger/internal/domain/registers/balance"
	infralock "ledger/internal/infrastructure/lock"
	"ledger/internal/infrastructure/storage/postgres"
	"ledger/pkg/logger"
)

// Retention of published outbox rows.
const publishedRetention = 7 * 24 * time.Hour

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

	if cfg.DevInMemory {
		log.Fatal("the worker needs PostgreSQL; DEV_INMEMORY is not supported")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = appctx.WithActor(ctx, &appctx.Actor{UserID: "worker", Source: "worker"})

	log.Info("starting ledger worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL, "ledger-worker"))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool, cfg.DBStatementTimeout)
	container, err := app.Postgres(txm, app.PostgresOptions{
		Locker:  infralock.NewLocalLocker(infralock.DefaultWait),
		LockTTL: cfg.LockTTL,
	})
	if err != nil {
		log.Fatalw("failed to wire ledger", "error", err)
	}

	worker := &Worker{
		relay:          postgres.NewOutboxRelay(txm, cfg.WorkerBatchSize, postgres.LogHandler),
		idempotency:    postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL),
		balances:       container.Balances,
		log:            log.WithComponent("worker"),
		batchSize:      cfg.WorkerBatchSize,
		pollInterval:   cfg.WorkerPollInterval,
		verifyInterval: config.GetEnvDuration("VERIFY_INTERVAL", time.Hour),
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

// Worker runs the periodic background jobs.
type Worker struct {
	relay       *postgres.OutboxRelay
	idempotency *postgres.IdempotencyStore
	balances    *balance.Accumulator
	log         *logger.Logger

	batchSize      int
	pollInterval   time.Duration
	verifyInterval time.Duration
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(1 * time.Hour)
	defer cleanupTicker.Stop()

	verifyTicker := time.NewTicker(w.verifyInterval)
	defer verifyTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOutbox(cycle(ctx))
		case <-cleanupTicker.C:
			w.cleanup(cycle(ctx))
		case <-verifyTicker.C:
			w.verifyBalances(cycle(ctx))
		}
	}
}

// cycle gives one worker pass its own trace id.
func cycle(ctx context.Context) context.Context {
	return appctx.WithTrace(ctx, appctx.NewTrace(appctx.OriginWorker))
}

// processOutbox drains the outbox while full batches keep coming.
func (w *Worker) processOutbox(ctx context.Context) {
	log := w.log.WithContext(ctx)
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n > 0 {
			log.Debugw("processed outbox batch", "count", n)
		}
		if n < w.batchSize {
			return
		}
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	log := w.log.WithContext(ctx)
	if n, err := w.relay.MoveToDLQ(ctx); err != nil {
		log.Errorw("failed to move outbox messages to DLQ", "error", err)
	} else if n > 0 {
		log.Warnw("moved outbox messages to DLQ", "count", n)
	}

	if n, err := w.relay.PurgePublished(ctx, publishedRetention); err != nil {
		log.Errorw("failed to purge published outbox messages", "error", err)
	} else if n > 0 {
		log.Infow("purged published outbox messages", "count", n)
	}

	if n, err := w.idempotency.CleanupExpired(ctx); err != nil {
		log.Errorw("failed to clean up idempotency keys", "error", err)
	} else if n > 0 {
		log.Infow("cleaned up idempotency keys", "count", n)
	}
}

// verifyBalances reports drift between cached balances and posted history.
// Repair is left to an operator.
func (w *Worker) verifyBalances(ctx context.Context) {
	log := w.log.WithContext(ctx)
	report, err := w.balances.Verify(ctx)
	if err != nil {
		log.Errorw("balance verification failed", "error", err)
		return
	}
	if len(report.Mismatches) == 0 {
		log.Infow("balances verified", "accounts", report.Accounts)
		return
	}
	for _, m := range report.Mismatches {
		log.Errorw("cached balance mismatch",
			"account", m.AccountCode,
			"cached", int64(m.Cached),
			"expected", int64(m.Expected),
		)
	}
}
