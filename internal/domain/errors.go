package domain

import "errors"

// Error kinds surfaced by the ledger. Call sites wrap them with context via
// fmt.Errorf("...: %w", ErrX) and callers branch with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrState             = errors.New("state error")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrConnectivity      = errors.New("store unreachable")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")

	// ErrCommitUnknown means the store went away during commit, so the unit
	// may or may not have been applied.
	ErrCommitUnknown = errors.New("commit outcome unknown")
)
