package domain

import "context"

// Ledger runs units of work against the ledger store. WithinTx executes fn as a
// single atomic unit: either every write fn performs is committed or none is.
// ReadTx executes fn against a consistent snapshot and must not write.
type Ledger interface {
	WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error
	ReadTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx is the view of the store available inside a unit of work. The
// ForUpdate variants lock the returned row until the unit ends.
type LedgerTx interface {
	UserRepository
	CampaignRepository
	DonationRepository
	MilestoneRepository
	VoteRepository
	TransactionRepository
}

// UserRepository defines access methods for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	SetUserRole(ctx context.Context, id int64, role UserRole) error
	CountUserDependents(ctx context.Context, id int64) (int64, error)
	DeleteUser(ctx context.Context, id int64) error
}

// CampaignRepository defines persistence for campaigns.
type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign *Campaign) error
	GetCampaign(ctx context.Context, id int64) (*Campaign, error)
	GetCampaignForUpdate(ctx context.Context, id int64) (*Campaign, error)
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]Campaign, error)
	// IncrementAmountRaised adds delta to the stored counter in place and
	// returns the new total.
	IncrementAmountRaised(ctx context.Context, id int64, delta int64) (int64, error)
	SetAmountRaised(ctx context.Context, id int64, amount int64) error
	UpdateCampaignStatus(ctx context.Context, id int64, status CampaignStatus) error
	SetCampaignActive(ctx context.Context, id int64, active bool) error
	CountCampaignDependents(ctx context.Context, id int64) (int64, error)
	DeleteCampaign(ctx context.Context, id int64) error
	ListCampaignDrift(ctx context.Context) ([]CampaignDrift, error)
}

// CampaignFilter narrows ListCampaigns.
type CampaignFilter struct {
	Status *CampaignStatus
	UserID *int64
	Limit  int
	Offset int
}

// DonationRepository handles donation persistence.
type DonationRepository interface {
	CreateDonation(ctx context.Context, donation *Donation) error
	ListDonations(ctx context.Context, campaignID int64) ([]Donation, error)
	HasDonated(ctx context.Context, userID, campaignID int64) (bool, error)
}

// MilestoneRepository handles milestone persistence.
type MilestoneRepository interface {
	CreateMilestone(ctx context.Context, milestone *Milestone) error
	GetMilestone(ctx context.Context, id int64) (*Milestone, error)
	GetMilestoneForUpdate(ctx context.Context, id int64) (*Milestone, error)
	ListMilestones(ctx context.Context, campaignID int64) ([]Milestone, error)
	ListMilestoneIDsByStatus(ctx context.Context, status MilestoneStatus, afterID int64, limit int) ([]int64, error)
	UpdateMilestoneStatus(ctx context.Context, id int64, status MilestoneStatus) error
	SetMilestoneProof(ctx context.Context, id int64, proofURL string) error
	CountMilestoneDependents(ctx context.Context, id int64) (int64, error)
	DeleteMilestone(ctx context.Context, id int64) error
	// ListUnmarkedPaidMilestones returns APPROVED milestones that already have
	// a COMPLETED PAYOUT transaction.
	ListUnmarkedPaidMilestones(ctx context.Context) ([]int64, error)
}

// VoteRepository handles milestone votes.
type VoteRepository interface {
	// UpsertVote inserts the vote or overwrites the approved flag of the
	// existing (UserID, MilestoneID) row.
	UpsertVote(ctx context.Context, vote *MilestoneVote) error
	ListVotes(ctx context.Context, milestoneID int64) ([]MilestoneVote, error)
	TallyVotes(ctx context.Context, milestoneID int64) (VoteTally, error)
}

// TransactionRepository handles ledger transactions.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, txn *Transaction) error
	UpdateTransactionStatus(ctx context.Context, id int64, status TransactionStatus) error
	ListTransactions(ctx context.Context, campaignID int64) ([]Transaction, error)
	SumTransactions(ctx context.Context, campaignID int64, kind TransactionType, status TransactionStatus) (int64, error)
	CountCompletedPayouts(ctx context.Context, milestoneID int64) (int64, error)
	LedgerStats(ctx context.Context) (*LedgerStats, error)
}

// LedgerStats aggregates platform-wide totals.
type LedgerStats struct {
	Users          int64
	Campaigns      int64
	Donations      int64
	TotalRaised    int64
	TotalPaidOut   int64
	PaidMilestones int64
}
