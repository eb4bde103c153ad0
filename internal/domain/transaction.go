package domain

import (
	"fmt"
	"time"
)

// TransactionType enumerates money movement kinds.
type TransactionType string

const (
	TransactionTypeDonation TransactionType = "DONATION"
	TransactionTypePayout   TransactionType = "PAYOUT"
)

// TransactionStatus enumerates transaction execution states.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transition returns the target status when the edge s -> to is allowed.
// COMPLETED and FAILED are terminal.
func (s TransactionStatus) Transition(to TransactionStatus) (TransactionStatus, error) {
	if s == TransactionStatusPending && (to == TransactionStatusCompleted || to == TransactionStatusFailed) {
		return to, nil
	}
	return s, fmt.Errorf("transaction %s -> %s: %w", s, to, ErrState)
}

// Transaction records a money movement in the ledger.
type Transaction struct {
	ID          int64
	Type        TransactionType
	Amount      int64
	Status      TransactionStatus
	Timestamp   time.Time
	UserID      int64
	CampaignID  int64
	MilestoneID *int64
}

// Validate checks the type/milestone pairing: PAYOUT always references a
// milestone, DONATION never does.
func (t Transaction) Validate() error {
	switch t.Type {
	case TransactionTypeDonation:
		if t.MilestoneID != nil {
			return fmt.Errorf("donation transaction must not reference a milestone: %w", ErrValidation)
		}
	case TransactionTypePayout:
		if t.MilestoneID == nil {
			return fmt.Errorf("payout transaction requires a milestone: %w", ErrValidation)
		}
	default:
		return fmt.Errorf("unknown transaction type %q: %w", t.Type, ErrValidation)
	}
	if t.Amount <= 0 {
		return fmt.Errorf("transaction amount must be positive: %w", ErrValidation)
	}
	return nil
}
