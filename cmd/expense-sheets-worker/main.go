package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	"expensetracker/internal/client"
	"expensetracker/internal/config"
	"expensetracker/internal/log"
	"expensetracker/internal/sheets"
	gsheet "expensetracker/internal/sheets/google"
	mem "expensetracker/internal/sheets/memory"
	"expensetracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	logger.Info("Starting expense-sheets-worker", log.FieldOperation, log.OpStartup)

	// Without a spreadsheet the worker mirrors into memory, which is only
	// useful for local runs against a broker.
	var mirror sheets.Mirror
	if cfg.GoogleSpreadsheetID != "" {
		initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		sheetsClient, err := gsheet.NewFromEnv(initCtx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		cancel()
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		mirror = sheetsClient
		logger.Info("Google Sheets client initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		mirror = mem.New()
		logger.Warn("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, mirroring in memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	mirrorWorker := worker.NewMirrorWorker(mirror)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.ResyncOnStart {
		api, err := client.New(cfg.ExpenseAPIURL)
		if err != nil {
			logger.Error("Invalid expense API URL", log.FieldError, err)
			os.Exit(1)
		}
		// A failed resync is logged; live events keep flowing.
		g.Go(func() error {
			if err := mirrorWorker.Resync(gctx, api); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Startup resync failed",
					log.FieldOperation, log.OpResync,
					log.FieldError, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		err := amqpClient.ConsumeExpenseEvents(gctx, func(ctx context.Context, ev amqp.ExpenseEvent) error {
			if err := mirrorWorker.HandleEvent(ctx, ev); err != nil {
				logger.Error("Failed to mirror expense event",
					log.FieldOperation, log.OpMirror,
					log.FieldEventType, string(ev.Type),
					log.FieldExpenseID, ev.ID,
					log.FieldError, err)
				return err
			}
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	err = g.Wait()
	if shutdownErr := cli.GracefulShutdown(logger, 10*time.Second,
		func(context.Context) error { return amqpClient.Close() },
	); shutdownErr != nil {
		logger.Error("Error closing AMQP client", log.FieldError, shutdownErr)
	}
	if err != nil {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("expense-sheets-worker stopped")
}
