package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crowdfund/internal/domain"
)

// DonationResult is what RecordDonation committed.
type DonationResult struct {
	Donation     domain.Donation
	Transaction  domain.Transaction
	AmountRaised int64
	GoalReached  bool
}

// RecordDonation applies a donation to an APPROVED, active campaign. The
// Donation row, its DONATION transaction and the amountRaised increment are
// one unit. When the unit fails on the store side a FAILED transaction is
// recorded afterwards so the attempt stays visible in the ledger.
func (s *Service) RecordDonation(ctx context.Context, donorID, campaignID, amount int64) (*DonationResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("donation amount must be positive: %w", domain.ErrValidation)
	}

	var (
		res      DonationResult
		campaign domain.Campaign
		crossed  bool
	)
	err := s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		if _, err := tx.GetUser(ctx, donorID); err != nil {
			return err
		}
		c, err := tx.GetCampaignForUpdate(ctx, campaignID)
		if err != nil {
			return err
		}
		if !c.AcceptsDonations() {
			return fmt.Errorf("campaign %d is %s (active=%t): %w", c.ID, c.Status, c.IsActive, domain.ErrState)
		}

		donation := domain.Donation{Amount: amount, UserID: donorID, CampaignID: c.ID}
		if err := tx.CreateDonation(ctx, &donation); err != nil {
			return err
		}
		txn := domain.Transaction{
			Type:       domain.TransactionTypeDonation,
			Amount:     amount,
			Status:     domain.TransactionStatusPending,
			UserID:     donorID,
			CampaignID: c.ID,
		}
		if err := tx.CreateTransaction(ctx, &txn); err != nil {
			return err
		}
		total, err := tx.IncrementAmountRaised(ctx, c.ID, amount)
		if err != nil {
			return err
		}
		next, err := txn.Status.Transition(domain.TransactionStatusCompleted)
		if err != nil {
			return err
		}
		if err := tx.UpdateTransactionStatus(ctx, txn.ID, next); err != nil {
			return err
		}
		txn.Status = next

		crossed = c.AmountRaised < c.GoalAmount && total >= c.GoalAmount
		c.AmountRaised = total
		campaign = *c
		res = DonationResult{
			Donation:     donation,
			Transaction:  txn,
			AmountRaised: total,
			GoalReached:  c.GoalReached(),
		}
		return nil
	})
	if err != nil {
		s.metrics.DonationFailed()
		switch {
		case errors.Is(err, domain.ErrCommitUnknown):
			s.logger.Warn().Err(err).
				Int64("campaign_id", campaignID).
				Int64("user_id", donorID).
				Int64("amount", amount).
				Msg("donation commit outcome unknown, needs reconciliation")
		case !callerError(err):
			s.recordFailedDonation(ctx, donorID, campaignID, amount, err)
		}
		return nil, err
	}

	s.metrics.DonationRecorded(amount)
	s.logger.Info().
		Int64("campaign_id", campaignID).
		Int64("user_id", donorID).
		Int64("amount", amount).
		Int64("amount_raised", res.AmountRaised).
		Int64("transaction_id", res.Transaction.ID).
		Msg("donation recorded")

	if crossed {
		s.metrics.GoalReached(campaignID)
		s.logger.Info().
			Int64("campaign_id", campaignID).
			Int64("goal_amount", campaign.GoalAmount).
			Int64("amount_raised", campaign.AmountRaised).
			Msg("campaign goal reached")
		if s.onGoal != nil {
			s.onGoal(ctx, campaign)
		}
	}
	return &res, nil
}

// recordFailedDonation writes a FAILED DONATION transaction in its own unit.
// It never touches amountRaised and its own failure is only logged.
func (s *Service) recordFailedDonation(ctx context.Context, donorID, campaignID, amount int64, cause error) {
	ctx = context.WithoutCancel(ctx)
	err := s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		txn := domain.Transaction{
			Type:       domain.TransactionTypeDonation,
			Amount:     amount,
			Status:     domain.TransactionStatusPending,
			UserID:     donorID,
			CampaignID: campaignID,
		}
		if err := tx.CreateTransaction(ctx, &txn); err != nil {
			return err
		}
		return tx.UpdateTransactionStatus(ctx, txn.ID, domain.TransactionStatusFailed)
	})
	log := s.logger.Warn()
	if err != nil {
		log = s.logger.Error().AnErr("audit_err", err)
	}
	log.Err(cause).
		Int64("campaign_id", campaignID).
		Int64("user_id", donorID).
		Int64("amount", amount).
		Bool("failed_recorded", err == nil).
		Msg("donation failed")
}

// CreateCampaignInput carries the fields of a new campaign.
type CreateCampaignInput struct {
	Title       string
	Description string
	GoalAmount  int64
}

// CreateCampaign creates a PENDING, active campaign owned by ownerID. Only
// campaign creators and admins own campaigns.
func (s *Service) CreateCampaign(ctx context.Context, ownerID int64, in CreateCampaignInput) (*domain.Campaign, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	if in.GoalAmount <= 0 {
		return nil, fmt.Errorf("goal amount must be positive: %w", domain.ErrValidation)
	}
	campaign := &domain.Campaign{
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		GoalAmount:  in.GoalAmount,
		UserID:      ownerID,
	}
	err := s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		owner, err := tx.GetUser(ctx, ownerID)
		if err != nil {
			return err
		}
		if !owner.CanCreateCampaigns() {
			return fmt.Errorf("user %d has role %s: %w", ownerID, owner.Role, domain.ErrForbidden)
		}
		return tx.CreateCampaign(ctx, campaign)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("campaign_id", campaign.ID).Int64("user_id", ownerID).Int64("goal_amount", campaign.GoalAmount).Msg("campaign created")
	return campaign, nil
}

// GetCampaign fetches a campaign by id.
func (s *Service) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	var c *domain.Campaign
	err := s.store.ReadTx(ctx, func(tx domain.LedgerTx) error {
		var err error
		c, err = tx.GetCampaign(ctx, id)
		return err
	})
	return c, err
}

// ListCampaigns lists campaigns newest first.
func (s *Service) ListCampaigns(ctx context.Context, filter domain.CampaignFilter) ([]domain.Campaign, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("status %q: %w", *filter.Status, domain.ErrValidation)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("negative paging: %w", domain.ErrValidation)
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	var items []domain.Campaign
	err := s.store.ReadTx(ctx, func(tx domain.LedgerTx) error {
		var err error
		items, err = tx.ListCampaigns(ctx, filter)
		return err
	})
	return items, err
}

// ReviewCampaign is the admin decision on a PENDING campaign.
func (s *Service) ReviewCampaign(ctx context.Context, adminID, campaignID int64, approve bool) (*domain.Campaign, error) {
	target := domain.CampaignStatusRejected
	if approve {
		target = domain.CampaignStatusApproved
	}
	return s.transitionCampaign(ctx, campaignID, target, func(tx domain.LedgerTx) error {
		_, err := requireAdmin(ctx, tx, adminID)
		return err
	})
}

// CompleteCampaign closes an APPROVED campaign by admin decision.
func (s *Service) CompleteCampaign(ctx context.Context, adminID, campaignID int64) (*domain.Campaign, error) {
	return s.transitionCampaign(ctx, campaignID, domain.CampaignStatusCompleted, func(tx domain.LedgerTx) error {
		_, err := requireAdmin(ctx, tx, adminID)
		return err
	})
}

func (s *Service) transitionCampaign(ctx context.Context, campaignID int64, to domain.CampaignStatus,
	authorize func(tx domain.LedgerTx) error) (*domain.Campaign, error) {

	var campaign *domain.Campaign
	err := s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		c, err := tx.GetCampaignForUpdate(ctx, campaignID)
		if err != nil {
			return err
		}
		if err := authorize(tx); err != nil {
			return err
		}
		next, err := c.Status.Transition(to)
		if err != nil {
			return err
		}
		if err := tx.UpdateCampaignStatus(ctx, c.ID, next); err != nil {
			return err
		}
		c.Status = next
		campaign = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("campaign_id", campaignID).Str("status", string(to)).Msg("campaign status changed")
	return campaign, nil
}

// SetCampaignActive pauses or resumes donations. Finished campaigns cannot
// be toggled.
func (s *Service) SetCampaignActive(ctx context.Context, actorID, campaignID int64, active bool) (*domain.Campaign, error) {
	var campaign *domain.Campaign
	err := s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		c, err := tx.GetCampaignForUpdate(ctx, campaignID)
		if err != nil {
			return err
		}
		if err := requireOwnerOrAdmin(ctx, tx, actorID, c); err != nil {
			return err
		}
		if c.Status.Terminal() {
			return fmt.Errorf("campaign %d is %s: %w", c.ID, c.Status, domain.ErrState)
		}
		if err := tx.SetCampaignActive(ctx, c.ID, active); err != nil {
			return err
		}
		c.IsActive = active
		campaign = c
		return nil
	})
	return campaign, err
}

// DeleteCampaign removes a campaign that has no donations, milestones or
// transactions.
func (s *Service) DeleteCampaign(ctx context.Context, actorID, campaignID int64) error {
	return s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		c, err := tx.GetCampaignForUpdate(ctx, campaignID)
		if err != nil {
			return err
		}
		if err := requireOwnerOrAdmin(ctx, tx, actorID, c); err != nil {
			return err
		}
		n, err := tx.CountCampaignDependents(ctx, c.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("campaign %d has %d dependent rows: %w", c.ID, n, domain.ErrState)
		}
		return tx.DeleteCampaign(ctx, c.ID)
	})
}

// ListDonations lists the donations of an existing campaign.
func (s *Service) ListDonations(ctx context.Context, campaignID int64) ([]domain.Donation, error) {
	var items []domain.Donation
	err := s.store.ReadTx(ctx, func(tx domain.LedgerTx) error {
		if _, err := tx.GetCampaign(ctx, campaignID); err != nil {
			return err
		}
		var err error
		items, err = tx.ListDonations(ctx, campaignID)
		return err
	})
	return items, err
}

// ListTransactions lists every ledger transaction of an existing campaign,
// FAILED ones included.
func (s *Service) ListTransactions(ctx context.Context, campaignID int64) ([]domain.Transaction, error) {
	var items []domain.Transaction
	err := s.store.ReadTx(ctx, func(tx domain.LedgerTx) error {
		if _, err := tx.GetCampaign(ctx, campaignID); err != nil {
			return err
		}
		var err error
		items, err = tx.ListTransactions(ctx, campaignID)
		return err
	})
	return items, err
}
