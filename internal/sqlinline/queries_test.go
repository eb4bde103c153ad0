package sqlinline

import (
	"strings"
	"testing"

	"crowdfund/internal/infra"
)

var allQueries = map[string]string{
	"QCountCampaignDependents":    QCountCampaignDependents,
	"QCountCompletedPayouts":      QCountCompletedPayouts,
	"QCountMilestoneDependents":   QCountMilestoneDependents,
	"QCountUserDependents":        QCountUserDependents,
	"QDeleteCampaign":             QDeleteCampaign,
	"QDeleteMilestone":            QDeleteMilestone,
	"QDeleteUser":                 QDeleteUser,
	"QHasDonated":                 QHasDonated,
	"QIncrementAmountRaised":      QIncrementAmountRaised,
	"QInsertCampaign":             QInsertCampaign,
	"QInsertDonation":             QInsertDonation,
	"QInsertMilestone":            QInsertMilestone,
	"QInsertTransaction":          QInsertTransaction,
	"QInsertUser":                 QInsertUser,
	"QLedgerStats":                QLedgerStats,
	"QListCampaignDrift":          QListCampaignDrift,
	"QListCampaigns":              QListCampaigns,
	"QListDonationsByCampaign":    QListDonationsByCampaign,
	"QListMilestoneIDsByStatus":   QListMilestoneIDsByStatus,
	"QListMilestonesByCampaign":   QListMilestonesByCampaign,
	"QListTransactionsByCampaign": QListTransactionsByCampaign,
	"QListUnmarkedPaidMilestones": QListUnmarkedPaidMilestones,
	"QListVotesByMilestone":       QListVotesByMilestone,
	"QSelectCampaignByID":         QSelectCampaignByID,
	"QSelectCampaignForUpdate":    QSelectCampaignForUpdate,
	"QSelectMilestoneByID":        QSelectMilestoneByID,
	"QSelectMilestoneForUpdate":   QSelectMilestoneForUpdate,
	"QSelectUserByEmail":          QSelectUserByEmail,
	"QSelectUserByID":             QSelectUserByID,
	"QSetAmountRaised":            QSetAmountRaised,
	"QSetCampaignActive":          QSetCampaignActive,
	"QSetMilestoneProof":          QSetMilestoneProof,
	"QSumTransactions":            QSumTransactions,
	"QTallyVotes":                 QTallyVotes,
	"QUpdateCampaignStatus":       QUpdateCampaignStatus,
	"QUpdateMilestoneStatus":      QUpdateMilestoneStatus,
	"QUpdateTransactionStatus":    QUpdateTransactionStatus,
	"QUpdateUserRole":             QUpdateUserRole,
	"QUpsertVote":                 QUpsertVote,
}

func TestQueriesCarryUniqueMarkers(t *testing.T) {
	seen := make(map[string]string, len(allQueries))
	for name, query := range allQueries {
		marker, body, err := infra.ExtractMarker(query)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if strings.TrimSpace(body) == "" {
			t.Fatalf("%s: empty statement body", name)
		}
		if prev, ok := seen[marker]; ok {
			t.Fatalf("%s reuses marker %s from %s", name, marker, prev)
		}
		seen[marker] = name
	}
}

func TestQueriesQuoteLedgerTables(t *testing.T) {
	for name, query := range allQueries {
		for _, table := range []string{"Campaign", "Donation", "Milestone", "MilestoneVote", "Transaction", "User"} {
			if strings.Contains(query, " "+table+" ") || strings.Contains(query, " "+table+"\n") {
				t.Fatalf("%s references %s without quoting", name, table)
			}
		}
	}
}

