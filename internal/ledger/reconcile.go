package ledger

import (
	"context"

	"crowdfund/internal/domain"
)

// ReconcileReport lists what Reconcile repaired.
type ReconcileReport struct {
	MilestonesMarkedPaid []int64
	CampaignsRepaired    []domain.CampaignDrift
	CampaignsCompleted   []int64
}

// Repaired reports whether anything changed.
func (r ReconcileReport) Repaired() bool {
	return len(r.MilestonesMarkedPaid)+len(r.CampaignsRepaired)+len(r.CampaignsCompleted) > 0
}

// Reconcile re-derives the ledger's cached state from its transactions:
// milestones with a COMPLETED PAYOUT become PAID, and amountRaised is reset
// to the sum of COMPLETED DONATION transactions where the two disagree.
func (s *Service) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	var report ReconcileReport
	err := s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		report = ReconcileReport{}

		ids, err := tx.ListUnmarkedPaidMilestones(ctx)
		if err != nil {
			return err
		}
		touched := map[int64]bool{}
		for _, id := range ids {
			m, err := tx.GetMilestoneForUpdate(ctx, id)
			if err != nil {
				return err
			}
			next, err := m.Status.Transition(domain.MilestoneStatusPaid)
			if err != nil {
				return err
			}
			if err := tx.UpdateMilestoneStatus(ctx, m.ID, next); err != nil {
				return err
			}
			report.MilestonesMarkedPaid = append(report.MilestonesMarkedPaid, m.ID)
			touched[m.CampaignID] = true
		}

		drift, err := tx.ListCampaignDrift(ctx)
		if err != nil {
			return err
		}
		for _, d := range drift {
			if err := tx.SetAmountRaised(ctx, d.CampaignID, d.Computed); err != nil {
				return err
			}
			report.CampaignsRepaired = append(report.CampaignsRepaired, d)
		}

		for campaignID := range touched {
			c, err := tx.GetCampaignForUpdate(ctx, campaignID)
			if err != nil {
				return err
			}
			completed, err := completeIfAllPaid(ctx, tx, c)
			if err != nil {
				return err
			}
			if completed {
				report.CampaignsCompleted = append(report.CampaignsCompleted, campaignID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, id := range report.MilestonesMarkedPaid {
		s.logger.Warn().Int64("milestone_id", id).Msg("reconcile: milestone marked paid from payout transaction")
	}
	for _, d := range report.CampaignsRepaired {
		s.logger.Warn().
			Int64("campaign_id", d.CampaignID).
			Int64("stored", d.Stored).
			Int64("computed", d.Computed).
			Msg("reconcile: amountRaised repaired")
	}
	s.metrics.ReconcileRepaired("milestone_paid", len(report.MilestonesMarkedPaid))
	s.metrics.ReconcileRepaired("amount_raised", len(report.CampaignsRepaired))
	if !report.Repaired() {
		s.logger.Debug().Msg("reconcile: ledger consistent")
	}
	return &report, nil
}
