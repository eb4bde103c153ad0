package infra

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LedgerMetrics exports ledger activity counters.
type LedgerMetrics struct {
	registry *prometheus.Registry

	donations       prometheus.Counter
	donationsFailed prometheus.Counter
	amountDonated   prometheus.Counter
	goalsReached    prometheus.Counter
	votes           prometheus.Counter
	finalized       *prometheus.CounterVec
	payouts         prometheus.Counter
	amountPaidOut   prometheus.Counter
	repairs         *prometheus.CounterVec
	txRetries       prometheus.Counter
}

// NewLedgerMetrics registers the ledger collectors on a dedicated registry
// together with the Go runtime and process collectors.
func NewLedgerMetrics() *LedgerMetrics {
	reg := prometheus.NewRegistry()
	m := &LedgerMetrics{
		registry: reg,
		donations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crowdfund_donations_total",
			Help: "Donations recorded.",
		}),
		donationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crowdfund_donations_failed_total",
			Help: "Donations that failed after validation and were recorded as FAILED transactions.",
		}),
		amountDonated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crowdfund_donated_amount_total",
			Help: "Sum of recorded donation amounts in minor units.",
		}),
		goalsReached: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crowdfund_campaign_goals_reached_total",
			Help: "Donations that brought a campaign to or past its goal.",
		}),
		votes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crowdfund_milestone_votes_total",
			Help: "Milestone votes cast or replaced.",
		}),
		finalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crowdfund_milestones_finalized_total",
			Help: "Milestones finalized, by outcome.",
		}, []string{"status"}),
		payouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crowdfund_payouts_total",
			Help: "Completed milestone payouts.",
		}),
		amountPaidOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crowdfund_paid_out_amount_total",
			Help: "Sum of completed payout amounts in minor units.",
		}),
		repairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crowdfund_reconcile_repairs_total",
			Help: "Rows repaired by reconciliation, by kind.",
		}, []string{"kind"}),
		txRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crowdfund_store_tx_retries_total",
			Help: "Ledger units retried after serialization or connectivity failures.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.donations, m.donationsFailed, m.amountDonated, m.goalsReached, m.votes,
		m.finalized, m.payouts, m.amountPaidOut, m.repairs, m.txRetries,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *LedgerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests and custom exporters.
func (m *LedgerMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *LedgerMetrics) DonationRecorded(amount int64) {
	m.donations.Inc()
	m.amountDonated.Add(float64(amount))
}

func (m *LedgerMetrics) DonationFailed() { m.donationsFailed.Inc() }

func (m *LedgerMetrics) GoalReached(int64) { m.goalsReached.Inc() }

func (m *LedgerMetrics) VoteCast() { m.votes.Inc() }

func (m *LedgerMetrics) MilestoneFinalized(status string) {
	m.finalized.WithLabelValues(status).Inc()
}

func (m *LedgerMetrics) PayoutCompleted(amount int64) {
	m.payouts.Inc()
	m.amountPaidOut.Add(float64(amount))
}

func (m *LedgerMetrics) ReconcileRepaired(kind string, n int) {
	if n <= 0 {
		return
	}
	m.repairs.WithLabelValues(kind).Add(float64(n))
}

// TxRetried matches the retry hook signature of the ledger store.
func (m *LedgerMetrics) TxRetried(int) { m.txRetries.Inc() }
