package main

import (
	"context"
	"os"
	"time"

	"familyfinance/internal/amqp"
	"familyfinance/internal/cli"
	"familyfinance/internal/log"
	gsheet "familyfinance/internal/sheets/google"
	"familyfinance/internal/worker"
)

func main() {
	cfg, logger, err := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting journal-worker")
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	if err := cfg.ValidateJournal(); err != nil {
		cli.Fatal(logger, "Journal configuration validation failed", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	journal, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		OAuthClientJSON: cfg.GoogleOAuthClientJSON,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		OAuthTokenJSON:  cfg.GoogleOAuthTokenJSON,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
	}, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}
	if err := journal.EnsureHeader(ctx); err != nil {
		// Don't exit - rows can still be appended without a header
		logger.Warn("Failed to write journal header", log.FieldError, err.Error())
	}
	logger.Info("Google Sheets journal initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer amqpClient.Close()

	done := make(chan error, 1)
	go func() {
		done <- worker.NewJournalWorker(journal, logger).Run(ctx, amqpClient)
	}()

	select {
	case sig := <-cli.ShutdownSignals():
		logger.Info("Shutdown signal received", "signal", sig.String())
	case err := <-done:
		if err != nil {
			logger.Error("Message consumption failed", log.FieldError, err.Error())
			amqpClient.Close()
			os.Exit(1)
		}
		logger.Info("Consumer stopped")
		return
	}

	logger.Info("Shutting down worker...")
	cancel()

	select {
	case <-done:
		logger.Info("Worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
