package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"artisanhub/services/notification-service/internal/notify"
	"artisanhub/services/notification-service/internal/repo"
	"artisanhub/services/notification-service/internal/worker"
	"artisanhub/shared/pkg/config"
	"artisanhub/shared/pkg/db"
	"artisanhub/shared/pkg/logger"
	"artisanhub/shared/pkg/models"
	"artisanhub/shared/pkg/obs"
	"artisanhub/shared/pkg/rabbit"
)

var topology = rabbit.Topology{
	Service: "notification",
	Queue:   "notification.q",
	Keys: []string{
		models.EventOrderCreated,
		models.EventOrderAccepted,
		models.EventOrderCompleted,
		models.EventOrderCancelled,
	},
	RetryDelay: 5 * time.Second,
	Prefetch:   20,
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("notification-service", cfg.Common.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("notification-service exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	shutdownTracer, err := obs.InitTracer(ctx, "notification-service", cfg.Tracing.OTLPEndpoint, cfg.Tracing.Environment)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	rc, err := rabbit.Connect(cfg.Rabbit.URL)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	if err := topology.Declare(rc.Ch); err != nil {
		return err
	}
	deliveries, err := topology.Consume(ctx, rc.Ch)
	if err != nil {
		return err
	}

	w := &worker.Consumer{
		Log:       log,
		Processed: &repo.ProcessedEventsPG{DB: pool},
		Notifier:  notify.LogNotifier{Log: log},
		Redeliver: rabbit.Redeliver{
			Topology:    topology,
			Retry:       rabbit.NewPublisher(rc.Ch, rabbit.ExchangeRetry),
			Dead:        rabbit.NewPublisher(rc.Ch, rabbit.ExchangeDLX),
			MaxAttempts: 5,
		},
	}
	log.Info().Str("queue", topology.Queue).Strs("keys", topology.Keys).Msg("notification worker started")
	w.Run(ctx, deliveries)
	return nil
}
