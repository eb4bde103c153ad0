package domain

import (
	"fmt"
	"time"
)

// MilestoneStatus enumerates milestone lifecycle states.
type MilestoneStatus string

const (
	MilestoneStatusPending   MilestoneStatus = "PENDING"
	MilestoneStatusSubmitted MilestoneStatus = "SUBMITTED"
	MilestoneStatusApproved  MilestoneStatus = "APPROVED"
	MilestoneStatusRejected  MilestoneStatus = "REJECTED"
	MilestoneStatusPaid      MilestoneStatus = "PAID"
)

var milestoneTransitions = map[MilestoneStatus][]MilestoneStatus{
	MilestoneStatusPending:   {MilestoneStatusSubmitted},
	MilestoneStatusSubmitted: {MilestoneStatusApproved, MilestoneStatusRejected},
	MilestoneStatusApproved:  {MilestoneStatusPaid},
}

// Valid reports whether s is a known milestone status.
func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestoneStatusPending, MilestoneStatusSubmitted, MilestoneStatusApproved,
		MilestoneStatusRejected, MilestoneStatusPaid:
		return true
	}
	return false
}

// Transition returns the target status when the edge s -> to is allowed.
func (s MilestoneStatus) Transition(to MilestoneStatus) (MilestoneStatus, error) {
	for _, next := range milestoneTransitions[s] {
		if next == to {
			return to, nil
		}
	}
	return s, fmt.Errorf("milestone %s -> %s: %w", s, to, ErrState)
}

// Finalized reports whether voting on the milestone is closed.
func (s MilestoneStatus) Finalized() bool {
	return s == MilestoneStatusApproved || s == MilestoneStatusRejected || s == MilestoneStatusPaid
}

// Milestone is a partial deliverable of a campaign gated behind donor approval.
type Milestone struct {
	ID          int64
	Title       string
	Description *string
	Amount      int64
	ProofURL    *string
	Status      MilestoneStatus
	Timestamp   time.Time
	CampaignID  int64
}

// VoteTally counts the votes cast on a milestone.
type VoteTally struct {
	Approve int
	Reject  int
}

// Total returns the number of votes cast.
func (t VoteTally) Total() int {
	return t.Approve + t.Reject
}
