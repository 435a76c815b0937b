package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"marketfund/internal/adapter"
	"marketfund/internal/infra"
	"marketfund/internal/outbox"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")
	if cfg.StoreBackend != infra.StoreBackendPostgres {
		logger.Fatal().Str("backend", cfg.StoreBackend).Msg("worker: relay needs the postgres backend")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := adapter.Open(ctx, cfg, "worker", logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer backend.Close()

	var publisher outbox.Publisher = outbox.LogPublisher{Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		kp := outbox.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OutboxTopicPrefix)
		defer kp.Close()
		publisher = kp
	} else {
		logger.Warn().Msg("worker: KAFKA_BROKERS not set, events are only logged")
	}

	metrics := infra.NewMetrics()
	relay := outbox.NewRelay(backend.Store, publisher, logger, metrics, cfg.OutboxBatchSize, cfg.OutboxPollInterval)

	metricsServer := infra.NewHTTPServer(cfg, metrics.Handler())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		return metricsServer.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
