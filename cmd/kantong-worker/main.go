package main

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"kantong/internal/amqp"
	"kantong/internal/cache"
	"kantong/internal/cli"
	klog "kantong/internal/log"
	"kantong/internal/rates"
	"kantong/internal/services"
	"kantong/internal/sheets"
	gsheet "kantong/internal/sheets/google"
	"kantong/internal/storage"
	"kantong/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), klog.ComponentWorker, os.Stdout)
	logger.Info("Starting kantong-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	store, err := cli.InitStore(context.Background(), logger, cfg)
	if err != nil {
		os.Exit(1)
	}

	repo := storage.NewRepository(store.Store)
	aggregator := services.NewAggregator(repo, services.WithLocation(cfg.Location()))
	pockets := services.NewPocketRegistry(repo, aggregator)

	caches := cache.NewManager()
	var opts []services.LedgerOption
	if cfg.RatesAPIURL != "" {
		src := rates.NewCachedSource(rates.NewHTTPSource(cfg.RatesAPIURL, cfg.RatesTimeout), cfg.RatesCacheSize, cfg.RatesCacheTTL)
		caches.Register("rates", src.Cache())
		logger.WithComponent(klog.ComponentRates).Info("Exchange rates enabled",
			"url", cfg.RatesAPIURL,
			"cache_size", cfg.RatesCacheSize,
			"cache_ttl", cfg.RatesCacheTTL)
		opts = append(opts, services.WithRateSource(src))
	}
	ledger := services.NewLedger(repo, pockets, aggregator, opts...)
	reconciler := services.NewReconciler(repo, pockets, aggregator)

	var exporter sheets.ReportExporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.NewFromConfig(context.Background(), cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", klog.FieldError, err)
			_ = store.Close()
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	var events *amqp.Client
	if cfg.AMQPEnabled() {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WithComponent(klog.ComponentAMQP).Error("Failed to initialize AMQP client",
				klog.FieldError, err,
				"error_type", klog.ErrorTypeNetwork)
			_ = store.Close()
			os.Exit(1)
		}
	} else {
		logger.Info("AMQP disabled - running periodic reconciliation only")
	}

	var wg sync.WaitGroup
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		wg.Wait()
		caches.Wait()
		if events != nil {
			if err := events.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", klog.FieldError, err)
			}
		}
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close store", klog.FieldError, err)
		}
	})

	w := worker.NewReconcileWorker(reconciler, ledger, exporter)

	logger.Info("Performing startup reconciliation", klog.FieldOperation, klog.OpStartup)
	if err := w.StartupCheck(ctx); err != nil {
		logger.Error("Startup reconciliation failed", klog.FieldError, err)
	}

	caches.Start(ctx, cfg.RatesCacheTTL)
	logger.WithComponent(klog.ComponentCache).Debug("Cache sweeper started", "interval", cfg.RatesCacheTTL)

	if events != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := events.ConsumeLedgerEvents(ctx, w.HandleLedgerEvent); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithComponent(klog.ComponentAMQP).Error("Ledger event consumption failed", klog.FieldError, err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx, cfg.ReconcileInterval)
	}()

	cli.WaitForShutdown(ctx, done)
}
