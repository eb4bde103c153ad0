// Package ledger implements the crowdfunding engines: campaign funding,
// milestone approval and payout. Every operation runs as one unit of work on
// a domain.Ledger and re-reads the rows it decides on inside that unit.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"crowdfund/internal/domain"
)

// Metrics receives ledger events. *infra.LedgerMetrics satisfies it.
type Metrics interface {
	DonationRecorded(amount int64)
	DonationFailed()
	GoalReached(campaignID int64)
	VoteCast()
	MilestoneFinalized(status string)
	PayoutCompleted(amount int64)
	ReconcileRepaired(kind string, n int)
}

type nopMetrics struct{}

func (nopMetrics) DonationRecorded(int64) {}
func (nopMetrics) DonationFailed() {}
func (nopMetrics) GoalReached(int64) {}
func (nopMetrics) VoteCast() {}
func (nopMetrics) MilestoneFinalized(string) {}
func (nopMetrics) PayoutCompleted(int64) {}
func (nopMetrics) ReconcileRepaired(string, int) {}

// GoalObserver is called after a donation commits that lifts a campaign's
// raised total to or past its goal for the first time.
type GoalObserver func(ctx context.Context, campaign domain.Campaign)

// Policy holds the milestone voting rules.
type Policy struct {
	// Quorum is the minimum number of cast votes before a milestone can be
	// finalized.
	Quorum int
	// RequireDonation restricts voting to users who donated to the
	// milestone's campaign.
	RequireDonation bool
}

// DefaultPolicy requires one vote from a donor of the campaign.
func DefaultPolicy() Policy {
	return Policy{Quorum: 1, RequireDonation: true}
}

// Decide converts a tally into a final milestone status. Approval needs
// strictly more approve than reject votes; a tie rejects.
func (p Policy) Decide(t domain.VoteTally) (domain.MilestoneStatus, error) {
	quorum := p.Quorum
	if quorum < 1 {
		quorum = 1
	}
	if t.Total() < quorum {
		return domain.MilestoneStatusSubmitted, fmt.Errorf("quorum not reached (%d of %d votes): %w", t.Total(), quorum, domain.ErrState)
	}
	if t.Approve > t.Reject {
		return domain.MilestoneStatusApproved, nil
	}
	return domain.MilestoneStatusRejected, nil
}

// Service runs the ledger engines against a store.
type Service struct {
	store      domain.Ledger
	logger     zerolog.Logger
	metrics    Metrics
	onGoal     GoalObserver
	policy     Policy
	bcryptCost int
}

// Option customises a Service.
type Option func(*Service)

// WithMetrics routes ledger events to m.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithGoalObserver registers the goal-reached callback.
func WithGoalObserver(fn GoalObserver) Option {
	return func(s *Service) { s.onGoal = fn }
}

// WithPolicy overrides the voting policy.
func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// NewService constructs a Service.
func NewService(store domain.Ledger, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  logger.With().Str("component", "ledger").Logger(),
		metrics: nopMetrics{},
		policy:  DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the voting policy in effect.
func (s *Service) Policy() Policy {
	return s.policy
}

// Stats returns platform-wide totals.
func (s *Service) Stats(ctx context.Context) (*domain.LedgerStats, error) {
	var stats *domain.LedgerStats
	err := s.store.ReadTx(ctx, func(tx domain.LedgerTx) error {
		var err error
		stats, err = tx.LedgerStats(ctx)
		return err
	})
	return stats, err
}

func requireAdmin(ctx context.Context, tx domain.LedgerTx, id int64) (*domain.User, error) {
	u, err := tx.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, fmt.Errorf("user %d is not an admin: %w", id, domain.ErrForbidden)
	}
	return u, nil
}

// requireOwnerOrAdmin loads the actor and checks it owns the campaign or is
// an admin.
func requireOwnerOrAdmin(ctx context.Context, tx domain.LedgerTx, actorID int64, c *domain.Campaign) error {
	u, err := tx.GetUser(ctx, actorID)
	if err != nil {
		return err
	}
	if c.UserID != u.ID && !u.IsAdmin() {
		return fmt.Errorf("user %d may not manage campaign %d: %w", actorID, c.ID, domain.ErrForbidden)
	}
	return nil
}

// callerError reports whether err stems from the request rather than the store.
func callerError(err error) bool {
	for _, kind := range []error{
		domain.ErrValidation, domain.ErrNotFound, domain.ErrState, domain.ErrForbidden,
		domain.ErrUnauthorized, domain.ErrInsufficientFunds,
		context.Canceled, context.DeadlineExceeded,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
