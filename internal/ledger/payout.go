package ledger

import (
	"context"
	"errors"
	"fmt"

	"crowdfund/internal/domain"
)

// PayoutMilestone releases an APPROVED milestone's amount to the campaign
// owner. The PAYOUT transaction, its completion and the PAID status flip
// commit together; the store's retry loop replays the whole unit on
// transient failures, so a COMPLETED PAYOUT never exists without PAID.
func (s *Service) PayoutMilestone(ctx context.Context, milestoneID int64) (*domain.Transaction, error) {
	var (
		payout            domain.Transaction
		campaignCompleted bool
	)
	err := s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		campaignCompleted = false
		m, err := tx.GetMilestoneForUpdate(ctx, milestoneID)
		if err != nil {
			return err
		}
		switch m.Status {
		case domain.MilestoneStatusApproved:
		case domain.MilestoneStatusPaid:
			return fmt.Errorf("milestone %d already paid: %w", m.ID, domain.ErrState)
		default:
			return fmt.Errorf("milestone %d is %s: %w", m.ID, m.Status, domain.ErrState)
		}
		if n, err := tx.CountCompletedPayouts(ctx, m.ID); err != nil {
			return err
		} else if n > 0 {
			return fmt.Errorf("milestone %d already has a completed payout: %w", m.ID, domain.ErrState)
		}

		c, err := tx.GetCampaignForUpdate(ctx, m.CampaignID)
		if err != nil {
			return err
		}
		available, err := availableBalance(ctx, tx, c)
		if err != nil {
			return err
		}
		if available < m.Amount {
			return fmt.Errorf("milestone %d needs %d, campaign %d has %d available: %w",
				m.ID, m.Amount, c.ID, available, domain.ErrInsufficientFunds)
		}

		msID := m.ID
		payout = domain.Transaction{
			Type:        domain.TransactionTypePayout,
			Amount:      m.Amount,
			Status:      domain.TransactionStatusPending,
			UserID:      c.UserID,
			CampaignID:  c.ID,
			MilestoneID: &msID,
		}
		if err := tx.CreateTransaction(ctx, &payout); err != nil {
			return err
		}
		done, err := payout.Status.Transition(domain.TransactionStatusCompleted)
		if err != nil {
			return err
		}
		if err := tx.UpdateTransactionStatus(ctx, payout.ID, done); err != nil {
			return err
		}
		payout.Status = done

		paid, err := m.Status.Transition(domain.MilestoneStatusPaid)
		if err != nil {
			return err
		}
		if err := tx.UpdateMilestoneStatus(ctx, m.ID, paid); err != nil {
			return err
		}

		campaignCompleted, err = completeIfAllPaid(ctx, tx, c)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PayoutCompleted(payout.Amount)
	s.logger.Info().
		Int64("milestone_id", milestoneID).
		Int64("campaign_id", payout.CampaignID).
		Int64("transaction_id", payout.ID).
		Int64("amount", payout.Amount).
		Msg("milestone paid out")
	if campaignCompleted {
		s.logger.Info().Int64("campaign_id", payout.CampaignID).Msg("campaign completed")
	}
	return &payout, nil
}

// availableBalance is raised minus completed payouts.
func availableBalance(ctx context.Context, tx domain.LedgerTx, c *domain.Campaign) (int64, error) {
	paidOut, err := tx.SumTransactions(ctx, c.ID, domain.TransactionTypePayout, domain.TransactionStatusCompleted)
	if err != nil {
		return 0, err
	}
	return c.AmountRaised - paidOut, nil
}

// completeIfAllPaid moves an APPROVED campaign to COMPLETED once every one of
// its milestones is PAID.
func completeIfAllPaid(ctx context.Context, tx domain.LedgerTx, c *domain.Campaign) (bool, error) {
	if c.Status != domain.CampaignStatusApproved {
		return false, nil
	}
	milestones, err := tx.ListMilestones(ctx, c.ID)
	if err != nil {
		return false, err
	}
	if len(milestones) == 0 {
		return false, nil
	}
	for _, m := range milestones {
		if m.Status != domain.MilestoneStatusPaid {
			return false, nil
		}
	}
	next, err := c.Status.Transition(domain.CampaignStatusCompleted)
	if err != nil {
		return false, err
	}
	if err := tx.UpdateCampaignStatus(ctx, c.ID, next); err != nil {
		return false, err
	}
	c.Status = next
	return true, nil
}

// AvailableBalance reports how much of a campaign's raised amount has not
// been paid out yet.
func (s *Service) AvailableBalance(ctx context.Context, campaignID int64) (int64, error) {
	var available int64
	err := s.store.ReadTx(ctx, func(tx domain.LedgerTx) error {
		c, err := tx.GetCampaign(ctx, campaignID)
		if err != nil {
			return err
		}
		available, err = availableBalance(ctx, tx, c)
		return err
	})
	return available, err
}

// PayoutApproved walks every APPROVED milestone in id order, reading pageSize
// ids per page, and pays out each one it can. Milestones without enough
// funds, or decided by a concurrent payout, are skipped; any other error
// stops the pass.
func (s *Service) PayoutApproved(ctx context.Context, pageSize int) (int, error) {
	paid := 0
	var after int64
	for {
		var ids []int64
		err := s.store.ReadTx(ctx, func(tx domain.LedgerTx) error {
			var err error
			ids, err = tx.ListMilestoneIDsByStatus(ctx, domain.MilestoneStatusApproved, after, pageSize)
			return err
		})
		if err != nil {
			return paid, err
		}
		if len(ids) == 0 {
			return paid, nil
		}
		for _, id := range ids {
			after = id
			if _, err := s.PayoutMilestone(ctx, id); err != nil {
				if errors.Is(err, domain.ErrInsufficientFunds) || errors.Is(err, domain.ErrState) {
					s.logger.Debug().Err(err).Int64("milestone_id", id).Msg("payout skipped")
					continue
				}
				return paid, fmt.Errorf("payout milestone %d: %w", id, err)
			}
			paid++
		}
		if err := ctx.Err(); err != nil {
			return paid, err
		}
	}
}
