package repo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"crowdfund/internal/domain"
)

const (
	// DefaultNumTxRetries is the default number of attempts for a ledger unit
	// failing with a retryable error.
	DefaultNumTxRetries = 10

	// DefaultRetryDelay is the base delay between attempts.
	DefaultRetryDelay = 50 * time.Millisecond

	// DefaultMaxRetryDelay caps the exponential backoff.
	DefaultMaxRetryDelay = time.Second
)

// Tx is the part of a database transaction the retry loop drives.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// MakeTx opens a new transaction.
type MakeTx func(ctx context.Context) (Tx, error)

// TxBody runs the unit of work inside tx.
type TxBody func(tx Tx) error

// OnBackoff is called before sleeping ahead of attempt retry+1.
type OnBackoff func(retry int, delay time.Duration, cause error)

// randRetryDelay returns a delay between 50% and 150% of initial, doubled per
// attempt and capped at maxDelay.
func randRetryDelay(initial, maxDelay time.Duration, attempt int) time.Duration {
	half := initial / 2
	delay := half + time.Duration(rand.Int63n(int64(initial))) //nolint:gosec
	if attempt == 0 {
		return delay
	}
	factor := time.Duration(math.Pow(2, min(float64(attempt), 32)))
	if actual := delay * factor; actual < maxDelay {
		return actual
	}
	return maxDelay
}

// executeWithRetry runs body in a fresh transaction until it commits, fails
// with a non-retryable error, the context ends, or numRetries attempts are
// used. A connectivity failure while committing is never retried: the commit
// may have reached the server and replaying the unit could apply it twice.
func executeWithRetry(ctx context.Context, makeTx MakeTx, body TxBody, onBackoff OnBackoff,
	numRetries int, baseDelay time.Duration) error {

	if numRetries < 1 {
		numRetries = 1
	}
	if baseDelay <= 0 {
		baseDelay = DefaultRetryDelay
	}

	wait := func(attempt int, cause error) bool {
		if attempt == numRetries-1 {
			return false
		}
		delay := randRetryDelay(baseDelay, DefaultMaxRetryDelay, attempt)
		if onBackoff != nil {
			onBackoff(attempt, delay, cause)
		}
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var lastErr error
	for attempt := 0; attempt < numRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		tx, err := makeTx(ctx)
		if err != nil {
			mapped := mapPGError(err)
			if _, ok := isRetryable(mapped); ok {
				lastErr = mapped
				if wait(attempt, mapped) {
					continue
				}
				break
			}
			return mapped
		}

		if bodyErr := body(tx); bodyErr != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			mapped := mapPGError(bodyErr)
			if _, ok := isRetryable(mapped); ok && ctx.Err() == nil {
				lastErr = mapped
				if wait(attempt, mapped) {
					continue
				}
				break
			}
			return mapped
		}

		if commitErr := tx.Commit(ctx); commitErr != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			mapped := mapPGError(commitErr)
			if re, ok := isRetryable(mapped); ok {
				if errors.Is(re.kind, domain.ErrConnectivity) {
					return fmt.Errorf("%w: %w", domain.ErrCommitUnknown, re)
				}
				lastErr = mapped
				if wait(attempt, mapped) {
					continue
				}
				break
			}
			return mapped
		}
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if lastErr == nil {
		return ErrRetriesExceeded
	}
	return fmt.Errorf("%w: %w", ErrRetriesExceeded, lastErr)
}
