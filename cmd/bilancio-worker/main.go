package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bilancio/internal/amqp"
	"bilancio/internal/config"
	"bilancio/internal/ledger"
	memledger "bilancio/internal/ledger/memory"
	applog "bilancio/internal/log"
	"bilancio/internal/mirror"
	gmirror "bilancio/internal/mirror/google"
	memmirror "bilancio/internal/mirror/memory"
	"bilancio/internal/storage"
	"bilancio/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting bilancio-worker", applog.FieldOperation, applog.OpStartup)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the mirror worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The worker reads the same ledger the server writes. The memory backend
	// only makes sense for local smoke runs.
	var store ledger.Reader
	switch cfg.LedgerBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to open SQLite ledger",
				applog.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		store = repo
	default:
		store = memledger.NewStore()
		logger.Warn("Using in-memory ledger: mirrored rows will be empty")
	}

	var writer mirror.Writer
	switch cfg.MirrorBackend {
	case "sheets":
		client, err := gmirror.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets mirror", applog.FieldError, err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		writer = memmirror.NewMirror()
		logger.Info("In-memory mirror initialized")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirrorWorker := worker.NewMirrorWorker(store, writer)

	err = amqpClient.ConsumeWithReconnect(ctx, func(msg *amqp.LedgerEventMessage) error {
		return mirrorWorker.HandleEvent(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Ledger event consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
