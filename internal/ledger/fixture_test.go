package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"crowdfund/internal/domain"
	"crowdfund/internal/ledger/ledgertest"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *ledgertest.Store
	svc   *Service
	admin *domain.User
	owner *domain.User
	seq   int
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := ledgertest.NewStore()
	opts = append([]Option{WithBcryptCost(bcrypt.MinCost)}, opts...)
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: store,
		svc:   NewService(store, zerolog.Nop(), opts...),
	}
	f.admin = f.user(domain.UserRoleAdmin)
	f.owner = f.user(domain.UserRoleCampaignCreator)
	return f
}

func (f *fixture) user(role domain.UserRole) *domain.User {
	f.t.Helper()
	f.seq++
	u, err := f.svc.RegisterUser(f.ctx, RegisterUserInput{
		Username: fmt.Sprintf("user%d", f.seq),
		Email:    fmt.Sprintf("user%d@example.com", f.seq),
		Password: "correct horse",
		Role:     role,
	})
	require.NoError(f.t, err)
	return u
}

func (f *fixture) donor() *domain.User {
	return f.user(domain.UserRoleDonor)
}

func (f *fixture) approvedCampaign(goal int64) *domain.Campaign {
	f.t.Helper()
	c, err := f.svc.CreateCampaign(f.ctx, f.owner.ID, CreateCampaignInput{Title: "Clean water", GoalAmount: goal})
	require.NoError(f.t, err)
	c, err = f.svc.ReviewCampaign(f.ctx, f.admin.ID, c.ID, true)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) donate(donor *domain.User, c *domain.Campaign, amount int64) *DonationResult {
	f.t.Helper()
	res, err := f.svc.RecordDonation(f.ctx, donor.ID, c.ID, amount)
	require.NoError(f.t, err)
	return res
}

func (f *fixture) submittedMilestone(c *domain.Campaign, amount int64) *domain.Milestone {
	f.t.Helper()
	m, err := f.svc.CreateMilestone(f.ctx, f.owner.ID, c.ID, CreateMilestoneInput{Title: "Phase", Amount: amount})
	require.NoError(f.t, err)
	m, err = f.svc.SubmitMilestone(f.ctx, f.owner.ID, m.ID, "https://files.example.com/proof.pdf")
	require.NoError(f.t, err)
	return m
}

func (f *fixture) approvedMilestone(c *domain.Campaign, amount int64, voter *domain.User) *domain.Milestone {
	f.t.Helper()
	m := f.submittedMilestone(c, amount)
	_, err := f.svc.CastVote(f.ctx, voter.ID, m.ID, true)
	require.NoError(f.t, err)
	res, err := f.svc.FinalizeMilestone(f.ctx, m.ID)
	require.NoError(f.t, err)
	require.Equal(f.t, domain.MilestoneStatusApproved, res.Status)
	return m
}

func (f *fixture) campaign(id int64) *domain.Campaign {
	f.t.Helper()
	c, err := f.svc.GetCampaign(f.ctx, id)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) milestone(id int64) *domain.Milestone {
	f.t.Helper()
	m, err := f.svc.GetMilestone(f.ctx, id)
	require.NoError(f.t, err)
	return m
}

func (f *fixture) transactions(campaignID int64, kind domain.TransactionType, status domain.TransactionStatus) []domain.Transaction {
	f.t.Helper()
	all, err := f.svc.ListTransactions(f.ctx, campaignID)
	require.NoError(f.t, err)
	var out []domain.Transaction
	for _, x := range all {
		if x.Type == kind && x.Status == status {
			out = append(out, x)
		}
	}
	return out
}

// requireConserved checks amountRaised against the COMPLETED DONATION
// transactions of the campaign.
func (f *fixture) requireConserved(campaignID int64) {
	f.t.Helper()
	var sum int64
	for _, x := range f.transactions(campaignID, domain.TransactionTypeDonation, domain.TransactionStatusCompleted) {
		sum += x.Amount
	}
	require.Equal(f.t, sum, f.campaign(campaignID).AmountRaised)
}
