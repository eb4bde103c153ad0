package repo

import (
	"context"
	"fmt"

	"crowdfund/internal/domain"
	"crowdfund/internal/sqlinline"
)

// CreateTransaction inserts a ledger transaction after checking the
// type/milestone pairing.
func (t *ledgerTx) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	if err := txn.Validate(); err != nil {
		return err
	}
	status := txn.Status
	if status == "" {
		status = domain.TransactionStatusPending
	}
	row := t.sql.QueryRow(ctx, sqlinline.QInsertTransaction,
		string(txn.Type), txn.Amount, string(status), txn.UserID, txn.CampaignID, txn.MilestoneID)
	if err := row.Scan(&txn.ID, &txn.Timestamp); err != nil {
		return mapPGError(err)
	}
	txn.Status = status
	return nil
}

// UpdateTransactionStatus moves a PENDING transaction to a terminal status.
// Rows already terminal are left untouched and reported as ErrState.
func (t *ledgerTx) UpdateTransactionStatus(ctx context.Context, id int64, status domain.TransactionStatus) error {
	if _, err := domain.TransactionStatusPending.Transition(status); err != nil {
		return err
	}
	tag, err := t.sql.Exec(ctx, sqlinline.QUpdateTransactionStatus, id, string(status))
	if err != nil {
		return mapPGError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d is not pending: %w", id, domain.ErrState)
	}
	return nil
}

func (t *ledgerTx) ListTransactions(ctx context.Context, campaignID int64) ([]domain.Transaction, error) {
	rows, err := t.sql.Query(ctx, sqlinline.QListTransactionsByCampaign, campaignID)
	if err != nil {
		return nil, mapPGError(err)
	}
	defer rows.Close()

	var items []domain.Transaction
	for rows.Next() {
		var (
			txn          domain.Transaction
			kind, status string
		)
		if err := rows.Scan(&txn.ID, &kind, &txn.Amount, &status, &txn.Timestamp,
			&txn.UserID, &txn.CampaignID, &txn.MilestoneID); err != nil {
			return nil, mapPGError(err)
		}
		txn.Type = domain.TransactionType(kind)
		txn.Status = domain.TransactionStatus(status)
		items = append(items, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPGError(err)
	}
	return items, nil
}

func (t *ledgerTx) SumTransactions(ctx context.Context, campaignID int64, kind domain.TransactionType, status domain.TransactionStatus) (int64, error) {
	return t.count(ctx, sqlinline.QSumTransactions, campaignID, string(kind), string(status))
}

func (t *ledgerTx) CountCompletedPayouts(ctx context.Context, milestoneID int64) (int64, error) {
	return t.count(ctx, sqlinline.QCountCompletedPayouts, milestoneID)
}

func (t *ledgerTx) LedgerStats(ctx context.Context) (*domain.LedgerStats, error) {
	var s domain.LedgerStats
	row := t.sql.QueryRow(ctx, sqlinline.QLedgerStats)
	if err := row.Scan(&s.Users, &s.Campaigns, &s.Donations, &s.TotalRaised, &s.TotalPaidOut, &s.PaidMilestones); err != nil {
		return nil, mapPGError(err)
	}
	return &s, nil
}
