package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"crowdfund/internal/bootstrap"
	"crowdfund/internal/infra"
)

const (
	payoutBatch     = 50
	defaultInterval = 5 * time.Second
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	led, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("worker: failed to open ledger")
		os.Exit(1)
	}
	defer led.Close()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.AutoPayout {
		g.Go(func() error {
			return every(gctx, cfg.WorkerPoll, func(ctx context.Context) {
				n, err := led.Service.PayoutApproved(ctx, payoutBatch)
				if err != nil {
					logger.Error().Err(err).Msg("worker: payout pass failed")
					return
				}
				if n > 0 {
					logger.Info().Int("paid", n).Msg("worker: paid approved milestones")
				}
			})
		})
	}
	g.Go(func() error {
		return every(gctx, cfg.ReconcileInterval, func(ctx context.Context) {
			if err := bootstrap.LogReconcile(ctx, led.Service, logger); err != nil {
				logger.Error().Err(err).Msg("worker: reconcile failed")
			}
		})
	})

	logger.Info().
		Bool("auto_payout", cfg.AutoPayout).
		Dur("poll", cfg.WorkerPoll).
		Dur("reconcile_interval", cfg.ReconcileInterval).
		Msg("worker: started")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker: stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("worker: stopped")
}

// every runs fn immediately and then on each tick until ctx ends.
func every(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) error {
	if interval <= 0 {
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		fn(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
