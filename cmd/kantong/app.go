package main

import (
	"context"
	"errors"

	"kantong/internal/amqp"
	"kantong/internal/backend"
	"kantong/internal/cli"
	"kantong/internal/config"
	klog "kantong/internal/log"
	"kantong/internal/rates"
	"kantong/internal/services"
	"kantong/internal/storage"
)

// app holds the services one CLI invocation works with.
type app struct {
	cfg        *config.Config
	logger     *klog.Logger
	store      *backend.BackendResult
	repo       *storage.Repository
	ledger     *services.Ledger
	reconciler *services.Reconciler
	events     *amqp.Client
}

func openApp(ctx context.Context, cfg *config.Config, logger *klog.Logger, publish bool) (*app, error) {
	store, err := cli.InitStore(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, store: store}
	a.repo = storage.NewRepository(store.Store)
	aggregator := services.NewAggregator(a.repo, services.WithLocation(cfg.Location()))
	pockets := services.NewPocketRegistry(a.repo, aggregator)

	var opts []services.LedgerOption
	if cfg.RatesAPIURL != "" {
		src := rates.NewCachedSource(rates.NewHTTPSource(cfg.RatesAPIURL, cfg.RatesTimeout), cfg.RatesCacheSize, cfg.RatesCacheTTL)
		opts = append(opts, services.WithRateSource(src))
	}

	if publish && cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WithComponent(klog.ComponentAMQP).Warn("Failed to initialize AMQP client, continuing without ledger events",
				klog.FieldError, err,
				"error_type", klog.ErrorTypeNetwork)
		} else {
			a.events = client
			opts = append(opts, services.WithPublisher(client))
		}
	}

	a.ledger = services.NewLedger(a.repo, pockets, aggregator, opts...)
	a.reconciler = services.NewReconciler(a.repo, pockets, aggregator)
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	if a.events != nil {
		errs = append(errs, a.events.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}
