package handlers

import (
	"time"

	"crowdfund/internal/domain"
	"crowdfund/internal/ledger"
)

type userView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func viewUser(u *domain.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

type campaignView struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	IsActive     bool      `json:"is_active"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	GoalAmount   int64     `json:"goal_amount"`
	AmountRaised int64     `json:"amount_raised"`
	GoalReached  bool      `json:"goal_reached"`
	UserID       int64     `json:"user_id"`
	Available    *int64    `json:"available_balance,omitempty"`
}

func viewCampaign(c *domain.Campaign) campaignView {
	return campaignView{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		IsActive:     c.IsActive,
		Status:       string(c.Status),
		CreatedAt:    c.CreatedAt,
		GoalAmount:   c.GoalAmount,
		AmountRaised: c.AmountRaised,
		GoalReached:  c.GoalReached(),
		UserID:       c.UserID,
	}
}

type milestoneView struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Amount      int64     `json:"amount"`
	ProofURL    *string   `json:"proof_url"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	CampaignID  int64     `json:"campaign_id"`
}

func viewMilestone(m *domain.Milestone) milestoneView {
	return milestoneView{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Amount:      m.Amount,
		ProofURL:    m.ProofURL,
		Status:      string(m.Status),
		Timestamp:   m.Timestamp,
		CampaignID:  m.CampaignID,
	}
}

type donationView struct {
	ID         int64     `json:"id"`
	Amount     int64     `json:"amount"`
	Timestamp  time.Time `json:"timestamp"`
	UserID     int64     `json:"user_id"`
	CampaignID int64     `json:"campaign_id"`
}

func viewDonation(d *domain.Donation) donationView {
	return donationView{
		ID:         d.ID,
		Amount:     d.Amount,
		Timestamp:  d.Timestamp,
		UserID:     d.UserID,
		CampaignID: d.CampaignID,
	}
}

type transactionView struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	UserID      int64     `json:"user_id"`
	CampaignID  int64     `json:"campaign_id"`
	MilestoneID *int64    `json:"milestone_id"`
}

func viewTransaction(t *domain.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		Type:        string(t.Type),
		Amount:      t.Amount,
		Status:      string(t.Status),
		Timestamp:   t.Timestamp,
		UserID:      t.UserID,
		CampaignID:  t.CampaignID,
		MilestoneID: t.MilestoneID,
	}
}

type voteView struct {
	ID          int64 `json:"id"`
	Approved    bool  `json:"approved"`
	UserID      int64 `json:"user_id"`
	MilestoneID int64 `json:"milestone_id"`
}

func viewVote(v *domain.MilestoneVote) voteView {
	return voteView{ID: v.ID, Approved: v.Approved, UserID: v.UserID, MilestoneID: v.MilestoneID}
}

type tallyView struct {
	Approve int `json:"approve"`
	Reject  int `json:"reject"`
	Total   int `json:"total"`
	Quorum  int `json:"quorum"`
}

func viewTally(t domain.VoteTally, p ledger.Policy) tallyView {
	return tallyView{Approve: t.Approve, Reject: t.Reject, Total: t.Total(), Quorum: p.Quorum}
}

// viewList maps a slice of domain values to their views.
func viewList[T any, V any](items []T, fn func(*T) V) []V {
	out := make([]V, 0, len(items))
	for i := range items {
		out = append(out, fn(&items[i]))
	}
	return out
}
