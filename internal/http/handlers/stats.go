package handlers

import (
	"net/http"
)

func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Ledger.Stats(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"total_users":     stats.Users,
		"total_campaigns": stats.Campaigns,
		"total_donations": stats.Donations,
		"total_raised":    stats.TotalRaised,
		"total_paid_out":  stats.TotalPaidOut,
		"paid_milestones": stats.PaidMilestones,
	})
}
