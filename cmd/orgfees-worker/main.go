package main

import (
	"os"

	"orgfees/internal/amqp"
	"orgfees/internal/cli"
	"orgfees/internal/config"
	"orgfees/internal/log"
	gsheet "orgfees/internal/sheets/google"
	"orgfees/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.NewLogger(cfg, log.ComponentWorker, nil)

	if err := cfg.ValidateLedger(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	ledger, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		Sheet:           cfg.GoogleLedgerSheet,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		Location:        cfg.Location(),
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets ledger", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	logger.Info("Starting orgfees-worker",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleLedgerSheet,
		"queue", cfg.AMQPQueue)

	w := worker.NewLedgerWorker(ledger, logger)
	if err := w.Run(ctx, amqpClient); err != nil {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	appended, failed := w.Stats()
	logger.Info("Worker stopped", "appended", appended, "failed", failed)
}
