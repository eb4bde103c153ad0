package repo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"crowdfund/internal/domain"
)

// ErrRetriesExceeded is returned when a ledger unit keeps failing with a
// retryable error after the configured number of attempts.
var ErrRetriesExceeded = errors.New("ledger unit retries exceeded")

// retryableError marks a failure after which the whole unit may be replayed.
// kind is domain.ErrConflict for serialization failures and
// domain.ErrConnectivity for a lost connection.
type retryableError struct {
	kind error
	err  error
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("%v: %v", e.kind, e.err)
}

func (e *retryableError) Unwrap() []error {
	return []error{e.kind, e.err}
}

func isRetryable(err error) (*retryableError, bool) {
	var re *retryableError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// postgresSerializationMsgs catches serialization failures that reach us
// without a typed *pgconn.PgError.
var postgresSerializationMsgs = []string{
	"could not serialize access",
	"current transaction is aborted",
	"deadlock detected",
}

// mapPGError translates driver errors into the domain error taxonomy.
func mapPGError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := isRetryable(err); ok {
		return err
	}
	for _, kind := range []error{
		domain.ErrValidation, domain.ErrNotFound, domain.ErrState, domain.ErrConflict,
		domain.ErrInsufficientFunds, domain.ErrConnectivity, domain.ErrForbidden,
	} {
		if errors.Is(err, kind) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return parsePostgresError(pgErr)
	}

	if isConnectivityError(err) {
		return &retryableError{kind: domain.ErrConnectivity, err: err}
	}

	for _, msg := range postgresSerializationMsgs {
		if strings.Contains(err.Error(), msg) {
			return &retryableError{kind: domain.ErrConflict, err: err}
		}
	}
	return err
}

func parsePostgresError(pgErr *pgconn.PgError) error {
	switch {
	case pgErr.Code == pgerrcode.UniqueViolation:
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrConflict)

	case pgErr.Code == pgerrcode.ForeignKeyViolation:
		// Deleting a referenced row reports the referencing table; inserting
		// a dangling reference reports the missing key.
		if strings.Contains(pgErr.Message, "update or delete") {
			return fmt.Errorf("%s: row has dependents: %w", pgErr.ConstraintName, domain.ErrState)
		}
		return fmt.Errorf("%s: referenced row: %w", pgErr.ConstraintName, domain.ErrNotFound)

	case pgErr.Code == pgerrcode.CheckViolation, pgErr.Code == pgerrcode.NotNullViolation,
		pgErr.Code == pgerrcode.InvalidTextRepresentation:
		return fmt.Errorf("%s: %w", pgErr.Message, domain.ErrValidation)

	case pgErr.Code == pgerrcode.SerializationFailure,
		pgErr.Code == pgerrcode.DeadlockDetected,
		pgErr.Code == pgerrcode.InFailedSQLTransaction:
		return &retryableError{kind: domain.ErrConflict, err: pgErr}

	case pgerrcode.IsConnectionException(pgErr.Code),
		pgErr.Code == pgerrcode.AdminShutdown,
		pgErr.Code == pgerrcode.CrashShutdown,
		pgErr.Code == pgerrcode.CannotConnectNow:
		return &retryableError{kind: domain.ErrConnectivity, err: pgErr}

	default:
		return fmt.Errorf("unknown postgres error: %w", pgErr)
	}
}

func isConnectivityError(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed)
}

// notFound converts an empty result into a domain.ErrNotFound naming the entity.
func notFound(err error, entity string, id any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, id, domain.ErrNotFound)
	}
	return mapPGError(err)
}
