package main

import (
	"context"
	"net/http"
	"time"

	"duckledger/internal/amqp"
	"duckledger/internal/bot"
	"duckledger/internal/cli"
	apphttp "duckledger/internal/http"
	gsheet "duckledger/internal/sheets/google"
	"duckledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitRepository(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// AMQP is optional: without it the worker's pending sweep still mirrors
	// rows, just with more latency.
	var publisher services.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
		} else {
			amqpClient = client
			publisher = client
			defer amqpClient.Close()
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	// Google Sheets mirror for full-table exports (optional).
	var mirror *gsheet.Client
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
		} else {
			mirror = client
			logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		}
	}

	var ledger *services.LedgerService
	if mirror != nil {
		ledger = services.NewLedgerService(repo, publisher, mirror, cfg.Location(), cfg.ExportDir)
	} else {
		ledger = services.NewLedgerService(repo, publisher, nil, cfg.Location(), cfg.ExportDir)
	}

	controller := bot.NewController(ledger)
	srv := apphttp.NewServer(":"+cfg.Port, controller)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting duckledger server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		return
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
