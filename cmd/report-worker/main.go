package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/caffeinepub/travel-expense-tracker/internal/amqp"
	"github.com/caffeinepub/travel-expense-tracker/internal/backend"
	"github.com/caffeinepub/travel-expense-tracker/internal/config"
	"github.com/caffeinepub/travel-expense-tracker/internal/export/sheets"
	applog "github.com/caffeinepub/travel-expense-tracker/internal/log"
	"github.com/caffeinepub/travel-expense-tracker/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if !cfg.ReportSyncEnabled() {
		logger.Error("AMQP_URL is required for the report worker")
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the report worker")
		os.Exit(1)
	}

	logger.Info("Starting report worker")

	result, err := backend.New(cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	sheetsClient, err := sheets.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reportWorker := worker.NewReportWorker(result.Service, sheetsClient)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Consuming report sync messages", "queue", cfg.AMQPQueue)
	err = amqpClient.ConsumeReportSync(ctx, func(msg *amqp.ReportSyncMessage) error {
		return reportWorker.HandleReportSync(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Report worker stopped gracefully")
}
