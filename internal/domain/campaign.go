package domain

import (
	"fmt"
	"time"
)

// CampaignStatus enumerates campaign lifecycle states.
type CampaignStatus string

const (
	CampaignStatusPending   CampaignStatus = "PENDING"
	CampaignStatusApproved  CampaignStatus = "APPROVED"
	CampaignStatusRejected  CampaignStatus = "REJECTED"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
)

var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignStatusPending:  {CampaignStatusApproved, CampaignStatusRejected},
	CampaignStatusApproved: {CampaignStatusCompleted},
}

// Valid reports whether s is a known campaign status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusPending, CampaignStatusApproved, CampaignStatusRejected, CampaignStatusCompleted:
		return true
	}
	return false
}

// Transition returns the target status when the edge s -> to is allowed.
func (s CampaignStatus) Transition(to CampaignStatus) (CampaignStatus, error) {
	for _, next := range campaignTransitions[s] {
		if next == to {
			return to, nil
		}
	}
	return s, fmt.Errorf("campaign %s -> %s: %w", s, to, ErrState)
}

// Terminal reports whether no further transitions are possible.
func (s CampaignStatus) Terminal() bool {
	return len(campaignTransitions[s]) == 0
}

// Campaign is a fundraising project owned by a CampaignCreator.
type Campaign struct {
	ID           int64
	Title        string
	Description  string
	IsActive     bool
	Status       CampaignStatus
	CreatedAt    time.Time
	GoalAmount   int64
	AmountRaised int64
	UserID       int64
}

// AcceptsDonations reports whether the campaign is APPROVED and active.
func (c Campaign) AcceptsDonations() bool {
	return c.Status == CampaignStatusApproved && c.IsActive
}

// GoalReached reports whether the raised total meets the goal.
func (c Campaign) GoalReached() bool {
	return c.GoalAmount > 0 && c.AmountRaised >= c.GoalAmount
}

// CampaignDrift describes a campaign whose stored counter disagrees with the
// sum of its COMPLETED DONATION transactions.
type CampaignDrift struct {
	CampaignID int64
	Stored     int64
	Computed   int64
}
