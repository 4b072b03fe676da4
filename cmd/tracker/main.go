package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/caffeinepub/travel-expense-tracker/internal/amqp"
	"github.com/caffeinepub/travel-expense-tracker/internal/backend"
	"github.com/caffeinepub/travel-expense-tracker/internal/config"
	"github.com/caffeinepub/travel-expense-tracker/internal/httpapi"
	applog "github.com/caffeinepub/travel-expense-tracker/internal/log"
	"github.com/caffeinepub/travel-expense-tracker/internal/querycache"
	"github.com/caffeinepub/travel-expense-tracker/internal/tripsync"
)

func main() {
	// Load .env for local development; absent in production is fine.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

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

	var publisher tripsync.ReportPublisher
	if cfg.ReportSyncEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("Report sync publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Report sync publishing disabled - no AMQP_URL provided")
	}

	coordinator := tripsync.NewCoordinator(
		tripsync.NewReadyProvider(result.Service),
		querycache.NewStore(),
		publisher,
	)
	srv := httpapi.NewServer(":"+cfg.Port, coordinator)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting tracker server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
