package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"crowdfund/internal/domain"
	"crowdfund/internal/infra"
)

// LedgerStorePG implements domain.Ledger on PostgreSQL. Write units run at
// SERIALIZABLE isolation; rows a decision depends on are locked with
// SELECT ... FOR UPDATE so concurrent units on the same campaign or milestone
// serialize instead of losing updates.
type LedgerStorePG struct {
	pool   *pgxpool.Pool
	runner *infra.SQLRunner
	logger zerolog.Logger
	opts   storeOptions
}

type storeOptions struct {
	numRetries int
	retryDelay time.Duration
	onRetry    func(attempt int)
}

// StoreOption customises a LedgerStorePG.
type StoreOption func(*storeOptions)

// WithTxRetries sets how many attempts a unit gets on retryable failures.
func WithTxRetries(n int) StoreOption {
	return func(o *storeOptions) { o.numRetries = n }
}

// WithTxRetryDelay sets the base backoff delay between attempts.
func WithTxRetryDelay(d time.Duration) StoreOption {
	return func(o *storeOptions) { o.retryDelay = d }
}

// WithRetryHook registers a callback invoked on every retry, e.g. a metric.
func WithRetryHook(fn func(attempt int)) StoreOption {
	return func(o *storeOptions) { o.onRetry = fn }
}

// NewLedgerStore constructs the PostgreSQL ledger store.
func NewLedgerStore(pool *pgxpool.Pool, logger zerolog.Logger, opts ...StoreOption) *LedgerStorePG {
	o := storeOptions{numRetries: DefaultNumTxRetries, retryDelay: DefaultRetryDelay}
	for _, opt := range opts {
		opt(&o)
	}
	return &LedgerStorePG{
		pool:   pool,
		runner: infra.NewSQLRunner(pool, logger),
		logger: logger,
		opts:   o,
	}
}

// WithinTx runs fn as one SERIALIZABLE read-write unit.
func (s *LedgerStorePG) WithinTx(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadWrite}, fn)
}

// ReadTx runs fn against a REPEATABLE READ read-only snapshot.
func (s *LedgerStorePG) ReadTx(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (s *LedgerStorePG) run(ctx context.Context, txOpts pgx.TxOptions, fn func(tx domain.LedgerTx) error) error {
	makeTx := func(ctx context.Context) (Tx, error) {
		return s.pool.BeginTx(ctx, txOpts)
	}
	body := func(tx Tx) error {
		pgTx, ok := tx.(pgx.Tx)
		if !ok {
			return fmt.Errorf("expected pgx.Tx, got %T", tx)
		}
		return fn(&ledgerTx{sql: s.runner.WithExecutor(pgTx)})
	}
	onBackoff := func(retry int, delay time.Duration, cause error) {
		s.logger.Warn().Err(cause).Int("attempt", retry+1).Dur("delay", delay).Msg("ledger unit retry")
		if s.opts.onRetry != nil {
			s.opts.onRetry(retry)
		}
	}
	return executeWithRetry(ctx, makeTx, body, onBackoff, s.opts.numRetries, s.opts.retryDelay)
}

// Ping reports whether the store is reachable.
func (s *LedgerStorePG) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", domain.ErrConnectivity)
	}
	return nil
}

// ledgerTx implements domain.LedgerTx on a single open transaction.
type ledgerTx struct {
	sql infra.SQLExecutor
}

var (
	_ domain.Ledger   = (*LedgerStorePG)(nil)
	_ domain.LedgerTx = (*ledgerTx)(nil)
)
