// Package bootstrap wires the Postgres-backed ledger shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"crowdfund/internal/adapter/repo"
	"crowdfund/internal/domain"
	"crowdfund/internal/infra"
	"crowdfund/internal/ledger"
)

// Ledger bundles the pool, store and service of a running process.
type Ledger struct {
	Pool    *pgxpool.Pool
	Store   *repo.LedgerStorePG
	Service *ledger.Service
	Metrics *infra.LedgerMetrics
}

// Close releases the pool.
func (l *Ledger) Close() {
	if l.Pool != nil {
		l.Pool.Close()
	}
}

// Open connects to Postgres, applies migrations when configured and builds
// the ledger service with metrics and the configured voting policy.
func Open(ctx context.Context, cfg *infra.Config, logger zerolog.Logger, opts ...ledger.Option) (*Ledger, error) {
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if cfg.MigrateOnStart {
		if err := infra.ApplyMigrations(pool, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}
	metrics := infra.NewLedgerMetrics()
	store := repo.NewLedgerStore(pool, logger,
		repo.WithTxRetries(cfg.DBTxRetries),
		repo.WithRetryHook(metrics.TxRetried),
	)
	base := []ledger.Option{
		ledger.WithMetrics(metrics),
		ledger.WithPolicy(ledger.Policy{
			Quorum:          cfg.VoteQuorum,
			RequireDonation: cfg.VoteRequireDonation,
		}),
		ledger.WithGoalObserver(func(_ context.Context, c domain.Campaign) {
			logger.Info().
				Int64("campaign_id", c.ID).
				Int64("goal_amount", c.GoalAmount).
				Int64("amount_raised", c.AmountRaised).
				Msg("campaign goal reached")
		}),
	}
	svc := ledger.NewService(store, logger, append(base, opts...)...)
	return &Ledger{Pool: pool, Store: store, Service: svc, Metrics: metrics}, nil
}

// LogReconcile runs a reconcile pass and logs what it repaired.
func LogReconcile(ctx context.Context, svc *ledger.Service, logger zerolog.Logger) error {
	report, err := svc.Reconcile(ctx)
	if err != nil {
		return err
	}
	if report.Repaired() {
		logger.Warn().
			Ints64("milestones_marked_paid", report.MilestonesMarkedPaid).
			Int("campaigns_repaired", len(report.CampaignsRepaired)).
			Ints64("campaigns_completed", report.CampaignsCompleted).
			Msg("reconcile repaired ledger state")
	}
	return nil
}
