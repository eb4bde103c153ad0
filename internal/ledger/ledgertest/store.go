// Package ledgertest provides an in-memory domain.Ledger for tests. Units of
// work are serialized by a single lock and run against a copy of the state
// that replaces the live state only when the unit returns nil, so a failing
// unit leaves nothing behind. Integrity rules mirror the PostgreSQL schema:
// unique usernames, emails and votes, one COMPLETED PAYOUT per milestone,
// positive amounts, and deletes rejected while dependents exist.
package ledgertest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"crowdfund/internal/domain"
)

// ErrInjected is the default error returned by an injected failure.
var ErrInjected = fmt.Errorf("injected store failure: %w", domain.ErrConnectivity)

var errReadOnly = errors.New("write inside read-only unit")

type state struct {
	nextID     int64
	users      map[int64]domain.User
	campaigns  map[int64]domain.Campaign
	donations  map[int64]domain.Donation
	milestones map[int64]domain.Milestone
	votes      map[int64]domain.MilestoneVote
	txns       map[int64]domain.Transaction
}

func newState() *state {
	return &state{
		users:      map[int64]domain.User{},
		campaigns:  map[int64]domain.Campaign{},
		donations:  map[int64]domain.Donation{},
		milestones: map[int64]domain.Milestone{},
		votes:      map[int64]domain.MilestoneVote{},
		txns:       map[int64]domain.Transaction{},
	}
}

func (s *state) clone() *state {
	c := &state{nextID: s.nextID}
	c.users = cloneMap(s.users)
	c.campaigns = cloneMap(s.campaigns)
	c.donations = cloneMap(s.donations)
	c.milestones = cloneMap(s.milestones)
	c.votes = cloneMap(s.votes)
	c.txns = cloneMap(s.txns)
	return c
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store is an in-memory ledger.
type Store struct {
	mu    sync.RWMutex
	state *state
	now   func() time.Time

	failMu   sync.Mutex
	failures map[string]failure
	units    int
}

type failure struct {
	err       error
	remaining int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		state:    newState(),
		now:      func() time.Time { return time.Now().UTC() },
		failures: map[string]failure{},
	}
}

// FailOn makes the next `times` calls to the named LedgerTx method fail with
// err (ErrInjected when nil). times <= 0 fails every call until ClearFailures.
// The method "Commit" fails WithinTx after its writes have been applied.
func (s *Store) FailOn(method string, err error, times int) {
	if err == nil {
		err = ErrInjected
	}
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures[method] = failure{err: err, remaining: times}
}

// ClearFailures removes every injected failure.
func (s *Store) ClearFailures() {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures = map[string]failure{}
}

// Units reports how many write units have committed.
func (s *Store) Units() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.units
}

func (s *Store) injected(method string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	f, ok := s.failures[method]
	if !ok {
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
		if f.remaining == 0 {
			delete(s.failures, method)
		} else {
			s.failures[method] = f
		}
	}
	return f.err
}

// WithinTx runs fn against a private copy of the state and publishes it on success.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(&storeTx{store: s, st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work
	s.units++
	if err := s.injected("Commit"); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCommitUnknown, err)
	}
	return nil
}

// ReadTx runs fn against the committed state; writes fail.
func (s *Store) ReadTx(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&storeTx{store: s, st: s.state, readOnly: true})
}

type storeTx struct {
	store    *Store
	st       *state
	readOnly bool
}

var (
	_ domain.Ledger   = (*Store)(nil)
	_ domain.LedgerTx = (*storeTx)(nil)
)

func (t *storeTx) read(method string) error {
	return t.store.injected(method)
}

func (t *storeTx) write(method string) error {
	if t.readOnly {
		return fmt.Errorf("%s: %w", method, errReadOnly)
	}
	return t.store.injected(method)
}

func notFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, domain.ErrNotFound)
}

func sortedValues[V any](m map[int64]V, keep func(V) bool) []V {
	keys := make([]int64, 0, len(m))
	for k, v := range m {
		if keep == nil || keep(v) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// Users

func (t *storeTx) CreateUser(_ context.Context, user *domain.User) error {
	if err := t.write("CreateUser"); err != nil {
		return err
	}
	if !user.Role.Valid() {
		return fmt.Errorf("role %q: %w", user.Role, domain.ErrValidation)
	}
	for _, u := range t.st.users {
		if u.Username == user.Username {
			return fmt.Errorf("User_username_key: %w", domain.ErrConflict)
		}
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("User_email_key: %w", domain.ErrConflict)
		}
	}
	user.ID = t.st.id()
	user.CreatedAt = t.store.now()
	t.st.users[user.ID] = *user
	return nil
}

func (t *storeTx) GetUser(_ context.Context, id int64) (*domain.User, error) {
	if err := t.read("GetUser"); err != nil {
		return nil, err
	}
	u, ok := t.st.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

func (t *storeTx) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	if err := t.read("GetUserByEmail"); err != nil {
		return nil, err
	}
	for _, u := range t.st.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return &u, nil
		}
	}
	return nil, notFound("user", email)
}

func (t *storeTx) SetUserRole(_ context.Context, id int64, role domain.UserRole) error {
	if err := t.write("SetUserRole"); err != nil {
		return err
	}
	u, ok := t.st.users[id]
	if !ok {
		return notFound("user", id)
	}
	if !role.Valid() {
		return fmt.Errorf("role %q: %w", role, domain.ErrValidation)
	}
	u.Role = role
	t.st.users[id] = u
	return nil
}

func (t *storeTx) CountUserDependents(_ context.Context, id int64) (int64, error) {
	if err := t.read("CountUserDependents"); err != nil {
		return 0, err
	}
	var n int64
	for _, c := range t.st.campaigns {
		if c.UserID == id {
			n++
		}
	}
	for _, d := range t.st.donations {
		if d.UserID == id {
			n++
		}
	}
	for _, v := range t.st.votes {
		if v.UserID == id {
			n++
		}
	}
	for _, x := range t.st.txns {
		if x.UserID == id {
			n++
		}
	}
	return n, nil
}

func (t *storeTx) DeleteUser(ctx context.Context, id int64) error {
	if err := t.write("DeleteUser"); err != nil {
		return err
	}
	if _, ok := t.st.users[id]; !ok {
		return notFound("user", id)
	}
	if n, _ := t.CountUserDependents(ctx, id); n > 0 {
		return fmt.Errorf("user %d has dependents: %w", id, domain.ErrState)
	}
	delete(t.st.users, id)
	return nil
}

// Campaigns

func (t *storeTx) CreateCampaign(_ context.Context, c *domain.Campaign) error {
	if err := t.write("CreateCampaign"); err != nil {
		return err
	}
	if _, ok := t.st.users[c.UserID]; !ok {
		return notFound("user", c.UserID)
	}
	if c.GoalAmount <= 0 {
		return fmt.Errorf("Campaign_goalAmount_positive: %w", domain.ErrValidation)
	}
	c.ID = t.st.id()
	c.CreatedAt = t.store.now()
	c.IsActive = true
	c.Status = domain.CampaignStatusPending
	c.AmountRaised = 0
	t.st.campaigns[c.ID] = *c
	return nil
}

func (t *storeTx) GetCampaign(_ context.Context, id int64) (*domain.Campaign, error) {
	if err := t.read("GetCampaign"); err != nil {
		return nil, err
	}
	c, ok := t.st.campaigns[id]
	if !ok {
		return nil, notFound("campaign", id)
	}
	return &c, nil
}

func (t *storeTx) GetCampaignForUpdate(ctx context.Context, id int64) (*domain.Campaign, error) {
	if err := t.read("GetCampaignForUpdate"); err != nil {
		return nil, err
	}
	return t.GetCampaign(ctx, id)
}

func (t *storeTx) ListCampaigns(_ context.Context, f domain.CampaignFilter) ([]domain.Campaign, error) {
	if err := t.read("ListCampaigns"); err != nil {
		return nil, err
	}
	items := sortedValues(t.st.campaigns, func(c domain.Campaign) bool {
		if f.Status != nil && c.Status != *f.Status {
			return false
		}
		return f.UserID == nil || c.UserID == *f.UserID
	})
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if f.Offset >= len(items) {
		return nil, nil
	}
	items = items[f.Offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (t *storeTx) IncrementAmountRaised(_ context.Context, id int64, delta int64) (int64, error) {
	if err := t.write("IncrementAmountRaised"); err != nil {
		return 0, err
	}
	c, ok := t.st.campaigns[id]
	if !ok {
		return 0, notFound("campaign", id)
	}
	if c.AmountRaised+delta < 0 {
		return 0, fmt.Errorf("Campaign_amountRaised_nonnegative: %w", domain.ErrValidation)
	}
	c.AmountRaised += delta
	t.st.campaigns[id] = c
	return c.AmountRaised, nil
}

func (t *storeTx) SetAmountRaised(_ context.Context, id int64, amount int64) error {
	if err := t.write("SetAmountRaised"); err != nil {
		return err
	}
	c, ok := t.st.campaigns[id]
	if !ok {
		return notFound("campaign", id)
	}
	if amount < 0 {
		return fmt.Errorf("Campaign_amountRaised_nonnegative: %w", domain.ErrValidation)
	}
	c.AmountRaised = amount
	t.st.campaigns[id] = c
	return nil
}

func (t *storeTx) UpdateCampaignStatus(_ context.Context, id int64, status domain.CampaignStatus) error {
	if err := t.write("UpdateCampaignStatus"); err != nil {
		return err
	}
	c, ok := t.st.campaigns[id]
	if !ok {
		return notFound("campaign", id)
	}
	c.Status = status
	t.st.campaigns[id] = c
	return nil
}

func (t *storeTx) SetCampaignActive(_ context.Context, id int64, active bool) error {
	if err := t.write("SetCampaignActive"); err != nil {
		return err
	}
	c, ok := t.st.campaigns[id]
	if !ok {
		return notFound("campaign", id)
	}
	c.IsActive = active
	t.st.campaigns[id] = c
	return nil
}

func (t *storeTx) CountCampaignDependents(_ context.Context, id int64) (int64, error) {
	if err := t.read("CountCampaignDependents"); err != nil {
		return 0, err
	}
	var n int64
	for _, d := range t.st.donations {
		if d.CampaignID == id {
			n++
		}
	}
	for _, m := range t.st.milestones {
		if m.CampaignID == id {
			n++
		}
	}
	for _, x := range t.st.txns {
		if x.CampaignID == id {
			n++
		}
	}
	return n, nil
}

func (t *storeTx) DeleteCampaign(ctx context.Context, id int64) error {
	if err := t.write("DeleteCampaign"); err != nil {
		return err
	}
	if _, ok := t.st.campaigns[id]; !ok {
		return notFound("campaign", id)
	}
	if n, _ := t.CountCampaignDependents(ctx, id); n > 0 {
		return fmt.Errorf("campaign %d has dependents: %w", id, domain.ErrState)
	}
	delete(t.st.campaigns, id)
	return nil
}

func (t *storeTx) ListCampaignDrift(_ context.Context) ([]domain.CampaignDrift, error) {
	if err := t.read("ListCampaignDrift"); err != nil {
		return nil, err
	}
	computed := map[int64]int64{}
	for _, x := range t.st.txns {
		if x.Type == domain.TransactionTypeDonation && x.Status == domain.TransactionStatusCompleted {
			computed[x.CampaignID] += x.Amount
		}
	}
	var drift []domain.CampaignDrift
	for _, c := range sortedValues(t.st.campaigns, nil) {
		if c.AmountRaised != computed[c.ID] {
			drift = append(drift, domain.CampaignDrift{CampaignID: c.ID, Stored: c.AmountRaised, Computed: computed[c.ID]})
		}
	}
	return drift, nil
}

// Donations

func (t *storeTx) CreateDonation(_ context.Context, d *domain.Donation) error {
	if err := t.write("CreateDonation"); err != nil {
		return err
	}
	if _, ok := t.st.users[d.UserID]; !ok {
		return notFound("user", d.UserID)
	}
	if _, ok := t.st.campaigns[d.CampaignID]; !ok {
		return notFound("campaign", d.CampaignID)
	}
	if d.Amount <= 0 {
		return fmt.Errorf("Donation_amount_positive: %w", domain.ErrValidation)
	}
	d.ID = t.st.id()
	d.Timestamp = t.store.now()
	t.st.donations[d.ID] = *d
	return nil
}

func (t *storeTx) ListDonations(_ context.Context, campaignID int64) ([]domain.Donation, error) {
	if err := t.read("ListDonations"); err != nil {
		return nil, err
	}
	return sortedValues(t.st.donations, func(d domain.Donation) bool { return d.CampaignID == campaignID }), nil
}

func (t *storeTx) HasDonated(_ context.Context, userID, campaignID int64) (bool, error) {
	if err := t.read("HasDonated"); err != nil {
		return false, err
	}
	for _, d := range t.st.donations {
		if d.UserID == userID && d.CampaignID == campaignID {
			return true, nil
		}
	}
	return false, nil
}

// Milestones

func (t *storeTx) CreateMilestone(_ context.Context, m *domain.Milestone) error {
	if err := t.write("CreateMilestone"); err != nil {
		return err
	}
	if _, ok := t.st.campaigns[m.CampaignID]; !ok {
		return notFound("campaign", m.CampaignID)
	}
	if m.Amount <= 0 {
		return fmt.Errorf("Milestone_amount_positive: %w", domain.ErrValidation)
	}
	m.ID = t.st.id()
	m.Timestamp = t.store.now()
	m.Status = domain.MilestoneStatusPending
	t.st.milestones[m.ID] = *m
	return nil
}

func (t *storeTx) GetMilestone(_ context.Context, id int64) (*domain.Milestone, error) {
	if err := t.read("GetMilestone"); err != nil {
		return nil, err
	}
	m, ok := t.st.milestones[id]
	if !ok {
		return nil, notFound("milestone", id)
	}
	return &m, nil
}

func (t *storeTx) GetMilestoneForUpdate(ctx context.Context, id int64) (*domain.Milestone, error) {
	if err := t.read("GetMilestoneForUpdate"); err != nil {
		return nil, err
	}
	return t.GetMilestone(ctx, id)
}

func (t *storeTx) ListMilestones(_ context.Context, campaignID int64) ([]domain.Milestone, error) {
	if err := t.read("ListMilestones"); err != nil {
		return nil, err
	}
	return sortedValues(t.st.milestones, func(m domain.Milestone) bool { return m.CampaignID == campaignID }), nil
}

func (t *storeTx) ListMilestoneIDsByStatus(_ context.Context, status domain.MilestoneStatus, afterID int64, limit int) ([]int64, error) {
	if err := t.read("ListMilestoneIDsByStatus"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	var ids []int64
	for _, m := range sortedValues(t.st.milestones, func(m domain.Milestone) bool { return m.Status == status && m.ID > afterID }) {
		if len(ids) == limit {
			break
		}
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (t *storeTx) UpdateMilestoneStatus(_ context.Context, id int64, status domain.MilestoneStatus) error {
	if err := t.write("UpdateMilestoneStatus"); err != nil {
		return err
	}
	m, ok := t.st.milestones[id]
	if !ok {
		return notFound("milestone", id)
	}
	m.Status = status
	t.st.milestones[id] = m
	return nil
}

func (t *storeTx) SetMilestoneProof(_ context.Context, id int64, proofURL string) error {
	if err := t.write("SetMilestoneProof"); err != nil {
		return err
	}
	m, ok := t.st.milestones[id]
	if !ok {
		return notFound("milestone", id)
	}
	m.ProofURL = &proofURL
	t.st.milestones[id] = m
	return nil
}

func (t *storeTx) CountMilestoneDependents(_ context.Context, id int64) (int64, error) {
	if err := t.read("CountMilestoneDependents"); err != nil {
		return 0, err
	}
	var n int64
	for _, v := range t.st.votes {
		if v.MilestoneID == id {
			n++
		}
	}
	for _, x := range t.st.txns {
		if x.MilestoneID != nil && *x.MilestoneID == id {
			n++
		}
	}
	return n, nil
}

func (t *storeTx) DeleteMilestone(ctx context.Context, id int64) error {
	if err := t.write("DeleteMilestone"); err != nil {
		return err
	}
	if _, ok := t.st.milestones[id]; !ok {
		return notFound("milestone", id)
	}
	if n, _ := t.CountMilestoneDependents(ctx, id); n > 0 {
		return fmt.Errorf("milestone %d has dependents: %w", id, domain.ErrState)
	}
	delete(t.st.milestones, id)
	return nil
}

func (t *storeTx) ListUnmarkedPaidMilestones(_ context.Context) ([]int64, error) {
	if err := t.read("ListUnmarkedPaidMilestones"); err != nil {
		return nil, err
	}
	paid := map[int64]bool{}
	for _, x := range t.st.txns {
		if x.Type == domain.TransactionTypePayout && x.Status == domain.TransactionStatusCompleted && x.MilestoneID != nil {
			paid[*x.MilestoneID] = true
		}
	}
	var ids []int64
	for _, m := range sortedValues(t.st.milestones, nil) {
		if m.Status == domain.MilestoneStatusApproved && paid[m.ID] {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

// Votes

func (t *storeTx) UpsertVote(_ context.Context, v *domain.MilestoneVote) error {
	if err := t.write("UpsertVote"); err != nil {
		return err
	}
	if _, ok := t.st.users[v.UserID]; !ok {
		return notFound("user", v.UserID)
	}
	if _, ok := t.st.milestones[v.MilestoneID]; !ok {
		return notFound("milestone", v.MilestoneID)
	}
	for id, existing := range t.st.votes {
		if existing.UserID == v.UserID && existing.MilestoneID == v.MilestoneID {
			existing.Approved = v.Approved
			t.st.votes[id] = existing
			v.ID = id
			return nil
		}
	}
	v.ID = t.st.id()
	t.st.votes[v.ID] = *v
	return nil
}

func (t *storeTx) ListVotes(_ context.Context, milestoneID int64) ([]domain.MilestoneVote, error) {
	if err := t.read("ListVotes"); err != nil {
		return nil, err
	}
	return sortedValues(t.st.votes, func(v domain.MilestoneVote) bool { return v.MilestoneID == milestoneID }), nil
}

func (t *storeTx) TallyVotes(_ context.Context, milestoneID int64) (domain.VoteTally, error) {
	if err := t.read("TallyVotes"); err != nil {
		return domain.VoteTally{}, err
	}
	var tally domain.VoteTally
	for _, v := range t.st.votes {
		if v.MilestoneID != milestoneID {
			continue
		}
		if v.Approved {
			tally.Approve++
		} else {
			tally.Reject++
		}
	}
	return tally, nil
}

// Transactions

func (t *storeTx) CreateTransaction(_ context.Context, x *domain.Transaction) error {
	if err := t.write("CreateTransaction"); err != nil {
		return err
	}
	if err := x.Validate(); err != nil {
		return err
	}
	if _, ok := t.st.users[x.UserID]; !ok {
		return notFound("user", x.UserID)
	}
	if _, ok := t.st.campaigns[x.CampaignID]; !ok {
		return notFound("campaign", x.CampaignID)
	}
	if x.MilestoneID != nil {
		if _, ok := t.st.milestones[*x.MilestoneID]; !ok {
			return notFound("milestone", *x.MilestoneID)
		}
	}
	if x.Status == "" {
		x.Status = domain.TransactionStatusPending
	}
	if err := t.checkPayoutUnique(*x, 0); err != nil {
		return err
	}
	x.ID = t.st.id()
	x.Timestamp = t.store.now()
	t.st.txns[x.ID] = *x
	return nil
}

func (t *storeTx) checkPayoutUnique(x domain.Transaction, self int64) error {
	if x.Type != domain.TransactionTypePayout || x.Status != domain.TransactionStatusCompleted {
		return nil
	}
	for id, other := range t.st.txns {
		if id == self || other.Type != domain.TransactionTypePayout || other.Status != domain.TransactionStatusCompleted {
			continue
		}
		if *other.MilestoneID == *x.MilestoneID {
			return fmt.Errorf("Transaction_milestoneId_completed_payout_key: %w", domain.ErrConflict)
		}
	}
	return nil
}

func (t *storeTx) UpdateTransactionStatus(_ context.Context, id int64, status domain.TransactionStatus) error {
	if err := t.write("UpdateTransactionStatus"); err != nil {
		return err
	}
	x, ok := t.st.txns[id]
	if !ok || x.Status != domain.TransactionStatusPending {
		return fmt.Errorf("transaction %d is not pending: %w", id, domain.ErrState)
	}
	next, err := x.Status.Transition(status)
	if err != nil {
		return err
	}
	x.Status = next
	if err := t.checkPayoutUnique(x, id); err != nil {
		return err
	}
	t.st.txns[id] = x
	return nil
}

func (t *storeTx) ListTransactions(_ context.Context, campaignID int64) ([]domain.Transaction, error) {
	if err := t.read("ListTransactions"); err != nil {
		return nil, err
	}
	return sortedValues(t.st.txns, func(x domain.Transaction) bool { return x.CampaignID == campaignID }), nil
}

func (t *storeTx) SumTransactions(_ context.Context, campaignID int64, kind domain.TransactionType, status domain.TransactionStatus) (int64, error) {
	if err := t.read("SumTransactions"); err != nil {
		return 0, err
	}
	var sum int64
	for _, x := range t.st.txns {
		if x.CampaignID == campaignID && x.Type == kind && x.Status == status {
			sum += x.Amount
		}
	}
	return sum, nil
}

func (t *storeTx) CountCompletedPayouts(_ context.Context, milestoneID int64) (int64, error) {
	if err := t.read("CountCompletedPayouts"); err != nil {
		return 0, err
	}
	var n int64
	for _, x := range t.st.txns {
		if x.Type == domain.TransactionTypePayout && x.Status == domain.TransactionStatusCompleted &&
			x.MilestoneID != nil && *x.MilestoneID == milestoneID {
			n++
		}
	}
	return n, nil
}

func (t *storeTx) LedgerStats(_ context.Context) (*domain.LedgerStats, error) {
	if err := t.read("LedgerStats"); err != nil {
		return nil, err
	}
	s := &domain.LedgerStats{
		Users:     int64(len(t.st.users)),
		Campaigns: int64(len(t.st.campaigns)),
		Donations: int64(len(t.st.donations)),
	}
	for _, x := range t.st.txns {
		if x.Status != domain.TransactionStatusCompleted {
			continue
		}
		switch x.Type {
		case domain.TransactionTypeDonation:
			s.TotalRaised += x.Amount
		case domain.TransactionTypePayout:
			s.TotalPaidOut += x.Amount
		}
	}
	for _, m := range t.st.milestones {
		if m.Status == domain.MilestoneStatusPaid {
			s.PaidMilestones++
		}
	}
	return s, nil
}
