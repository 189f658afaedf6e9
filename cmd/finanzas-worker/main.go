// Command finanzas-worker exports the finance summary to Google Sheets. It
// re-exports on every change notification from AMQP and on a fixed interval.
package main

import (
	"context"
	"os"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/cli"
	"finanzas/internal/config"
	applog "finanzas/internal/log"
	"finanzas/internal/sheets"
	gsheet "finanzas/internal/sheets/google"
	mem "finanzas/internal/sheets/memory"
	"finanzas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting finanzas-worker", applog.FieldOperation, applog.OpStartup)

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		os.Exit(1)
	}
	// The worker only reads; seeding belongs to the CLI.
	cfg.SeedOnStart = false
	// The worker consumes notifications, it does not publish them.
	amqpURL := cfg.AMQPURL
	cfg.AMQPURL = ""

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := cli.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", applog.FieldError, err)
		os.Exit(1)
	}

	writer, err := newWriter(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		app.Close()
		os.Exit(1)
	}

	var consumer worker.Consumer
	if amqpURL != "" {
		client, err := amqp.NewClient(amqpURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			app.Close()
			os.Exit(1)
		}
		defer client.Close()
		consumer = client
	} else {
		logger.Info("AMQP disabled, relying on periodic export", "interval", cfg.ExportInterval)
	}

	exporter := worker.NewExportWorker(app.Store, app.Views, writer, worker.Config{
		SummarySheet:  cfg.GoogleSheetName,
		UpcomingSheet: cfg.GoogleUpcomingSheetName,
	}, logger)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, cancel)
	go func() {
		if err := exporter.Run(ctx, consumer, cfg.ExportInterval); err != nil {
			logger.Error("Worker stopped", applog.FieldError, err)
		}
		cancel()
	}()

	select {
	case <-shutdownCtx.Done():
		<-done
	case <-ctx.Done():
	}

	stats := exporter.Stats()
	logger.Info("Worker shutdown complete",
		applog.FieldOperation, applog.OpShutdown,
		"exports", stats.Exports,
		"failures", stats.Failures)
	if err := app.Close(); err != nil {
		logger.Warn("Failed to release resources", applog.FieldError, err)
	}
}

// newWriter returns the Sheets client, or an in-process writer when no
// spreadsheet is configured.
func newWriter(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.RowWriter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting in memory")
		return mem.New(), nil
	}
	client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, gsheet.Credentials{
		JSON:            cfg.GoogleServiceAccountJSON,
		File:            cfg.GoogleServiceAccountFile,
		ApplicationFile: cfg.GoogleApplicationCredentials,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
