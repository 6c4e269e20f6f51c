package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"khata/internal/amqp"
	"khata/internal/cli"
	"khata/internal/storage"
	fbstore "khata/internal/store/firebase"
	"khata/internal/worker"
)

// The worker mirrors the local SQLite ledger into the hosted record store.
// It consumes change messages from the broker and additionally reconciles
// every owner on a fixed interval so dropped messages heal on their own.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}
	if cfg.FirebaseDatabaseURL == "" {
		logger.Error("FIREBASE_DATABASE_URL is required for the sync worker")
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	mirror, err := fbstore.New(context.Background(), fbstore.Config{
		CredentialsFile: cfg.FirebaseCredentialsFile,
		CredentialsJSON: cfg.FirebaseCredentialsJSON,
		DatabaseURL:     cfg.FirebaseDatabaseURL,
		ProjectID:       cfg.FirebaseProjectID,
	})
	if err != nil {
		logger.Error("Failed to initialize Firebase client", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, mirror)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Catch up anything written while the worker was down before consuming.
	logger.Info("Performing startup reconciliation")
	if err := syncWorker.ReconcileAll(ctx); err != nil {
		logger.Error("Startup reconciliation failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeChanges(gctx, func(msg *amqp.ChangeMessage) error {
			return syncWorker.HandleChange(gctx, msg)
		})
	})
	g.Go(func() error {
		return syncWorker.RunReconciliation(gctx, cfg.SyncInterval)
	})

	logger.Info("Worker started",
		"queue", cfg.AMQPQueue,
		"sync_interval", cfg.SyncInterval.String())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
