package domain

import (
	"errors"
	"testing"
)

func TestCampaignStatusTransition(t *testing.T) {
	cases := []struct {
		from, to CampaignStatus
		ok       bool
	}{
		{CampaignStatusPending, CampaignStatusApproved, true},
		{CampaignStatusPending, CampaignStatusRejected, true},
		{CampaignStatusApproved, CampaignStatusCompleted, true},
		{CampaignStatusPending, CampaignStatusCompleted, false},
		{CampaignStatusRejected, CampaignStatusApproved, false},
		{CampaignStatusCompleted, CampaignStatusApproved, false},
		{CampaignStatusApproved, CampaignStatusPending, false},
	}
	for _, tc := range cases {
		got, err := tc.from.Transition(tc.to)
		if tc.ok {
			if err != nil || got != tc.to {
				t.Fatalf("%s -> %s: got (%s, %v), want allowed", tc.from, tc.to, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrState) {
			t.Fatalf("%s -> %s: expected ErrState, got %v", tc.from, tc.to, err)
		}
		if got != tc.from {
			t.Fatalf("%s -> %s: rejected transition changed status to %s", tc.from, tc.to, got)
		}
	}
}

func TestMilestoneStatusTransition(t *testing.T) {
	allowed := map[[2]MilestoneStatus]bool{
		{MilestoneStatusPending, MilestoneStatusSubmitted}:  true,
		{MilestoneStatusSubmitted, MilestoneStatusApproved}: true,
		{MilestoneStatusSubmitted, MilestoneStatusRejected}: true,
		{MilestoneStatusApproved, MilestoneStatusPaid}:      true,
	}
	all := []MilestoneStatus{
		MilestoneStatusPending, MilestoneStatusSubmitted, MilestoneStatusApproved,
		MilestoneStatusRejected, MilestoneStatusPaid,
	}
	for _, from := range all {
		for _, to := range all {
			_, err := from.Transition(to)
			if allowed[[2]MilestoneStatus{from, to}] != (err == nil) {
				t.Fatalf("%s -> %s: unexpected result %v", from, to, err)
			}
		}
	}
}

func TestMilestoneFinalized(t *testing.T) {
	if MilestoneStatusSubmitted.Finalized() || MilestoneStatusPending.Finalized() {
		t.Fatal("open milestones must not report finalized")
	}
	for _, s := range []MilestoneStatus{MilestoneStatusApproved, MilestoneStatusRejected, MilestoneStatusPaid} {
		if !s.Finalized() {
			t.Fatalf("%s should be finalized", s)
		}
	}
}

func TestTransactionStatusTerminal(t *testing.T) {
	if _, err := TransactionStatusPending.Transition(TransactionStatusCompleted); err != nil {
		t.Fatalf("pending -> completed: %v", err)
	}
	if _, err := TransactionStatusPending.Transition(TransactionStatusFailed); err != nil {
		t.Fatalf("pending -> failed: %v", err)
	}
	for _, from := range []TransactionStatus{TransactionStatusCompleted, TransactionStatusFailed} {
		for _, to := range []TransactionStatus{TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed} {
			if _, err := from.Transition(to); !errors.Is(err, ErrState) {
				t.Fatalf("%s -> %s should be rejected", from, to)
			}
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	mid := int64(7)
	cases := []struct {
		name string
		txn  Transaction
		ok   bool
	}{
		{name: "donation", txn: Transaction{Type: TransactionTypeDonation, Amount: 10}, ok: true},
		{name: "donation with milestone", txn: Transaction{Type: TransactionTypeDonation, Amount: 10, MilestoneID: &mid}},
		{name: "payout", txn: Transaction{Type: TransactionTypePayout, Amount: 10, MilestoneID: &mid}, ok: true},
		{name: "payout without milestone", txn: Transaction{Type: TransactionTypePayout, Amount: 10}},
		{name: "zero amount", txn: Transaction{Type: TransactionTypeDonation}},
		{name: "unknown type", txn: Transaction{Type: "REFUND", Amount: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.txn.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}
