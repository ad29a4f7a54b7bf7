package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpx "artisanhub/services/outbox-worker/internal/http"
	"artisanhub/services/outbox-worker/internal/outbox"
	"artisanhub/shared/pkg/config"
	"artisanhub/shared/pkg/db"
	"artisanhub/shared/pkg/logger"
	"artisanhub/shared/pkg/obs"
	"artisanhub/shared/pkg/rabbit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("outbox-worker", cfg.Common.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("outbox-worker exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	shutdownTracer, err := obs.InitTracer(ctx, "outbox-worker", cfg.Tracing.OTLPEndpoint, cfg.Tracing.Environment)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	rc, err := rabbit.Connect(cfg.Rabbit.URL)
	if err != nil {
		return fmt.Errorf("rabbit connect: %w", err)
	}
	defer func() { _ = rc.Close() }()

	runner := &outbox.Runner{
		Log:          log,
		DB:           pool,
		Pub:          rabbit.NewPublisher(rc.Ch, rabbit.ExchangeEvents),
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
		BackoffMax:   cfg.Outbox.BackoffMax,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		runner.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              cfg.Outbox.HTTPAddr,
		Handler:           (&httpx.Server{DB: pool}).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Int("batch", runner.BatchSize).Dur("poll", runner.PollInterval).Msg("outbox-worker started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown...")
	case err = <-srvErr:
		log.Error().Err(err).Msg("http server failed")
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	<-done
	_ = shutdownTracer(shCtx)
	return err
}
