package ledger

import (
	"context"
	"fmt"
	"strings"

	"crowdfund/internal/domain"
)

// CreateMilestoneInput carries the fields of a new milestone.
type CreateMilestoneInput struct {
	Title       string
	Description *string
	Amount      int64
}

// CreateMilestone adds a PENDING milestone to a campaign that is still open.
// Only the campaign owner can add milestones.
func (s *Service) CreateMilestone(ctx context.Context, ownerID, campaignID int64, in CreateMilestoneInput) (*domain.Milestone, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("milestone amount must be positive: %w", domain.ErrValidation)
	}
	milestone := &domain.Milestone{
		Title:       in.Title,
		Description: in.Description,
		Amount:      in.Amount,
		CampaignID:  campaignID,
	}
	err := s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		c, err := tx.GetCampaignForUpdate(ctx, campaignID)
		if err != nil {
			return err
		}
		if c.UserID != ownerID {
			return fmt.Errorf("user %d does not own campaign %d: %w", ownerID, c.ID, domain.ErrForbidden)
		}
		if c.Status != domain.CampaignStatusPending && c.Status != domain.CampaignStatusApproved {
			return fmt.Errorf("campaign %d is %s: %w", c.ID, c.Status, domain.ErrState)
		}
		return tx.CreateMilestone(ctx, milestone)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("milestone_id", milestone.ID).Int64("campaign_id", campaignID).Int64("amount", milestone.Amount).Msg("milestone created")
	return milestone, nil
}

// AttachProof stores a proof-of-completion reference on a PENDING milestone
// without submitting it.
func (s *Service) AttachProof(ctx context.Context, ownerID, milestoneID int64, proofURL string) (*domain.Milestone, error) {
	proofURL = strings.TrimSpace(proofURL)
	if proofURL == "" {
		return nil, fmt.Errorf("proof reference is required: %w", domain.ErrValidation)
	}
	var milestone *domain.Milestone
	err := s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		m, err := s.ownedMilestone(ctx, tx, ownerID, milestoneID)
		if err != nil {
			return err
		}
		if m.Status != domain.MilestoneStatusPending {
			return fmt.Errorf("milestone %d is %s: %w", m.ID, m.Status, domain.ErrState)
		}
		if err := tx.SetMilestoneProof(ctx, m.ID, proofURL); err != nil {
			return err
		}
		m.ProofURL = &proofURL
		milestone = m
		return nil
	})
	return milestone, err
}

// SubmitMilestone moves a PENDING milestone to SUBMITTED. A proof reference
// is required, either passed here or attached earlier.
func (s *Service) SubmitMilestone(ctx context.Context, ownerID, milestoneID int64, proofURL string) (*domain.Milestone, error) {
	proofURL = strings.TrimSpace(proofURL)
	var milestone *domain.Milestone
	err := s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		m, err := s.ownedMilestone(ctx, tx, ownerID, milestoneID)
		if err != nil {
			return err
		}
		next, err := m.Status.Transition(domain.MilestoneStatusSubmitted)
		if err != nil {
			return err
		}
		if proofURL != "" {
			if err := tx.SetMilestoneProof(ctx, m.ID, proofURL); err != nil {
				return err
			}
			m.ProofURL = &proofURL
		}
		if m.ProofURL == nil || *m.ProofURL == "" {
			return fmt.Errorf("milestone %d has no proof attached: %w", m.ID, domain.ErrValidation)
		}
		if err := tx.UpdateMilestoneStatus(ctx, m.ID, next); err != nil {
			return err
		}
		m.Status = next
		milestone = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("milestone_id", milestoneID).Msg("milestone submitted")
	return milestone, nil
}

// ownedMilestone locks the milestone and checks ownerID owns its campaign.
func (s *Service) ownedMilestone(ctx context.Context, tx domain.LedgerTx, ownerID, milestoneID int64) (*domain.Milestone, error) {
	m, err := tx.GetMilestoneForUpdate(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	c, err := tx.GetCampaign(ctx, m.CampaignID)
	if err != nil {
		return nil, err
	}
	if c.UserID != ownerID {
		return nil, fmt.Errorf("user %d does not own milestone %d: %w", ownerID, m.ID, domain.ErrForbidden)
	}
	return m, nil
}

// CanManageMilestone checks that actorID owns the milestone's campaign or is
// an admin. HTTP uses it to guard finalize and payout.
func (s *Service) CanManageMilestone(ctx context.Context, actorID, milestoneID int64) error {
	return s.store.ReadTx(ctx, func(tx domain.LedgerTx) error {
		m, err := tx.GetMilestone(ctx, milestoneID)
		if err != nil {
			return err
		}
		c, err := tx.GetCampaign(ctx, m.CampaignID)
		if err != nil {
			return err
		}
		return requireOwnerOrAdmin(ctx, tx, actorID, c)
	})
}

// GetMilestone fetches a milestone by id.
func (s *Service) GetMilestone(ctx context.Context, id int64) (*domain.Milestone, error) {
	var m *domain.Milestone
	err := s.store.ReadTx(ctx, func(tx domain.LedgerTx) error {
		var err error
		m, err = tx.GetMilestone(ctx, id)
		return err
	})
	return m, err
}

// ListMilestones lists the milestones of an existing campaign.
func (s *Service) ListMilestones(ctx context.Context, campaignID int64) ([]domain.Milestone, error) {
	var items []domain.Milestone
	err := s.store.ReadTx(ctx, func(tx domain.LedgerTx) error {
		if _, err := tx.GetCampaign(ctx, campaignID); err != nil {
			return err
		}
		var err error
		items, err = tx.ListMilestones(ctx, campaignID)
		return err
	})
	return items, err
}

// ListVotes returns the votes on a milestone with their tally.
func (s *Service) ListVotes(ctx context.Context, milestoneID int64) ([]domain.MilestoneVote, domain.VoteTally, error) {
	var (
		votes []domain.MilestoneVote
		tally domain.VoteTally
	)
	err := s.store.ReadTx(ctx, func(tx domain.LedgerTx) error {
		if _, err := tx.GetMilestone(ctx, milestoneID); err != nil {
			return err
		}
		var err error
		if votes, err = tx.ListVotes(ctx, milestoneID); err != nil {
			return err
		}
		tally, err = tx.TallyVotes(ctx, milestoneID)
		return err
	})
	return votes, tally, err
}

// CastVote records userID's decision on a SUBMITTED milestone. A repeat vote
// replaces the earlier one. The milestone row is locked so a vote racing a
// finalize either lands before it or is rejected.
func (s *Service) CastVote(ctx context.Context, userID, milestoneID int64, approved bool) (*domain.MilestoneVote, error) {
	vote := &domain.MilestoneVote{Approved: approved, UserID: userID, MilestoneID: milestoneID}
	err := s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		m, err := tx.GetMilestoneForUpdate(ctx, milestoneID)
		if err != nil {
			return err
		}
		if m.Status != domain.MilestoneStatusSubmitted {
			return fmt.Errorf("milestone %d is %s: %w", m.ID, m.Status, domain.ErrState)
		}
		if err := s.checkVoter(ctx, tx, userID, m); err != nil {
			return err
		}
		return tx.UpsertVote(ctx, vote)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.VoteCast()
	s.logger.Info().Int64("milestone_id", milestoneID).Int64("user_id", userID).Bool("approved", approved).Msg("vote cast")
	return vote, nil
}

func (s *Service) checkVoter(ctx context.Context, tx domain.LedgerTx, userID int64, m *domain.Milestone) error {
	c, err := tx.GetCampaign(ctx, m.CampaignID)
	if err != nil {
		return err
	}
	if c.UserID == userID {
		return fmt.Errorf("campaign owner cannot vote on own milestone %d: %w", m.ID, domain.ErrForbidden)
	}
	if !s.policy.RequireDonation {
		return nil
	}
	donated, err := tx.HasDonated(ctx, userID, c.ID)
	if err != nil {
		return err
	}
	if !donated {
		return fmt.Errorf("user %d has not donated to campaign %d: %w", userID, c.ID, domain.ErrForbidden)
	}
	return nil
}

// FinalizeResult is the outcome of FinalizeMilestone.
type FinalizeResult struct {
	Status domain.MilestoneStatus
	Tally  domain.VoteTally
}

// FinalizeMilestone decides a SUBMITTED milestone from its votes. On a
// milestone that is already decided it returns the stored status and the
// counted votes without writing.
func (s *Service) FinalizeMilestone(ctx context.Context, milestoneID int64) (*FinalizeResult, error) {
	var res FinalizeResult
	decided := false
	err := s.store.ReadTx(ctx, func(tx domain.LedgerTx) error {
		m, err := tx.GetMilestone(ctx, milestoneID)
		if err != nil {
			return err
		}
		if !m.Status.Finalized() {
			return nil
		}
		tally, err := tx.TallyVotes(ctx, m.ID)
		if err != nil {
			return err
		}
		res = FinalizeResult{Status: m.Status, Tally: tally}
		decided = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if decided {
		return &res, nil
	}

	changed := false
	err = s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		changed = false
		m, err := tx.GetMilestoneForUpdate(ctx, milestoneID)
		if err != nil {
			return err
		}
		tally, err := tx.TallyVotes(ctx, m.ID)
		if err != nil {
			return err
		}
		res = FinalizeResult{Status: m.Status, Tally: tally}
		if m.Status.Finalized() {
			return nil
		}
		if m.Status != domain.MilestoneStatusSubmitted {
			return fmt.Errorf("milestone %d is %s: %w", m.ID, m.Status, domain.ErrState)
		}
		decision, err := s.policy.Decide(tally)
		if err != nil {
			return fmt.Errorf("milestone %d: %w", m.ID, err)
		}
		next, err := m.Status.Transition(decision)
		if err != nil {
			return err
		}
		if err := tx.UpdateMilestoneStatus(ctx, m.ID, next); err != nil {
			return err
		}
		res.Status = next
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.MilestoneFinalized(string(res.Status))
		s.logger.Info().
			Int64("milestone_id", milestoneID).
			Str("status", string(res.Status)).
			Int("approve", res.Tally.Approve).
			Int("reject", res.Tally.Reject).
			Msg("milestone finalized")
	}
	return &res, nil
}

// DeleteMilestone removes a milestone that has no votes or transactions.
// Only the campaign owner can delete it.
func (s *Service) DeleteMilestone(ctx context.Context, ownerID, milestoneID int64) error {
	return s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		m, err := s.ownedMilestone(ctx, tx, ownerID, milestoneID)
		if err != nil {
			return err
		}
		n, err := tx.CountMilestoneDependents(ctx, m.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("milestone %d has %d dependent rows: %w", m.ID, n, domain.ErrState)
		}
		return tx.DeleteMilestone(ctx, m.ID)
	})
}
