package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"crowdfund/internal/domain"
)

type fakeTx struct {
	commitErr  error
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(context.Context) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolledBack = true
	return nil
}

type txFactory struct {
	commitErrs []error
	opened     []*fakeTx
}

func (f *txFactory) make(context.Context) (Tx, error) {
	tx := &fakeTx{}
	if n := len(f.opened); n < len(f.commitErrs) {
		tx.commitErr = f.commitErrs[n]
	}
	f.opened = append(f.opened, tx)
	return tx, nil
}

var serializationErr = &pgconn.PgError{Code: pgerrcode.SerializationFailure}

func TestExecuteWithRetryRetriesSerializationFailures(t *testing.T) {
	factory := &txFactory{}
	calls := 0
	var backoffs []int

	err := executeWithRetry(context.Background(), factory.make, func(Tx) error {
		calls++
		if calls < 3 {
			return serializationErr
		}
		return nil
	}, func(retry int, _ time.Duration, _ error) {
		backoffs = append(backoffs, retry)
	}, 5, time.Millisecond)

	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, []int{0, 1}, backoffs)
	require.True(t, factory.opened[0].rolledBack)
	require.True(t, factory.opened[2].committed)
}

func TestExecuteWithRetryStopsOnDomainError(t *testing.T) {
	factory := &txFactory{}
	calls := 0

	err := executeWithRetry(context.Background(), factory.make, func(Tx) error {
		calls++
		return domain.ErrInsufficientFunds
	}, nil, 5, time.Millisecond)

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.Equal(t, 1, calls)
	require.True(t, factory.opened[0].rolledBack)
	require.False(t, factory.opened[0].committed)
}

func TestExecuteWithRetryExhausted(t *testing.T) {
	factory := &txFactory{}

	err := executeWithRetry(context.Background(), factory.make, func(Tx) error {
		return serializationErr
	}, nil, 3, time.Millisecond)

	require.ErrorIs(t, err, ErrRetriesExceeded)
	require.ErrorIs(t, err, domain.ErrConflict)
	require.Len(t, factory.opened, 3)
}

func TestExecuteWithRetryCommitConnectivityNotReplayed(t *testing.T) {
	factory := &txFactory{commitErrs: []error{&pgconn.PgError{Code: pgerrcode.AdminShutdown}}}
	calls := 0

	err := executeWithRetry(context.Background(), factory.make, func(Tx) error {
		calls++
		return nil
	}, nil, 5, time.Millisecond)

	require.ErrorIs(t, err, domain.ErrCommitUnknown)
	require.ErrorIs(t, err, domain.ErrConnectivity)
	require.Equal(t, 1, calls)
}

func TestExecuteWithRetryCommitSerializationReplayed(t *testing.T) {
	factory := &txFactory{commitErrs: []error{serializationErr}}
	calls := 0

	err := executeWithRetry(context.Background(), factory.make, func(Tx) error {
		calls++
		return nil
	}, nil, 5, time.Millisecond)

	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.True(t, factory.opened[1].committed)
}

func TestExecuteWithRetryBeginFailure(t *testing.T) {
	begins := 0
	makeTx := func(context.Context) (Tx, error) {
		begins++
		return nil, errors.New("dial tcp: connection refused")
	}

	err := executeWithRetry(context.Background(), makeTx, func(Tx) error {
		t.Fatal("body must not run without a transaction")
		return nil
	}, nil, 2, time.Millisecond)

	require.Error(t, err)
	require.Equal(t, 1, begins)
}

func TestExecuteWithRetryContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	factory := &txFactory{}

	err := executeWithRetry(ctx, factory.make, func(Tx) error { return nil }, nil, 3, time.Millisecond)

	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, factory.opened)
}

func TestRandRetryDelayBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		d := randRetryDelay(base, time.Second, 0)
		require.GreaterOrEqual(t, d, base/2)
		require.Less(t, d, base+base/2)
	}
	require.Equal(t, time.Second, randRetryDelay(base, time.Second, 10))
}
