// Package metrics exposes Prometheus collectors for the pacing daemon.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP request metrics for the daemon API
var (
	// HTTPRequestDuration tracks the duration of HTTP requests
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method, path, and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsTotal counts the total number of HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)
)

// Pacing engine metrics
var (
	// RefreshDuration tracks how long one full refresh cycle takes
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pacing_refresh_duration_seconds",
			Help:    "Duration of one fetch-and-evaluate cycle across all accounts",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
	)

	// RefreshTotal counts refresh cycles by outcome
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacing_refresh_total",
			Help: "Total number of refresh cycles by status (success, partial, error)",
		},
		[]string{"status"},
	)

	// AccountsEvaluated tracks the number of accounts in the last batch
	AccountsEvaluated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pacing_accounts_evaluated",
			Help: "Number of accounts evaluated in the most recent batch",
		},
	)

	// AccountFailuresTotal counts per-account evaluation failures
	AccountFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacing_account_failures_total",
			Help: "Total number of per-account evaluation failures",
		},
		[]string{"account"},
	)

	// PaceDelta tracks each account's relative deviation from target pace
	PaceDelta = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pacing_pace_delta",
			Help: "Relative deviation from to-date target pace (0.10 = 10% over)",
		},
		[]string{"account"},
	)

	// BudgetSpentPct tracks each account's spend as a share of budget
	BudgetSpentPct = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pacing_budget_spent_pct",
			Help: "Month-to-date spend as a share of monthly budget (0-1+)",
		},
		[]string{"account"},
	)

	// SpendMTD tracks each account's month-to-date spend in account currency
	SpendMTD = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pacing_spend_mtd",
			Help: "Month-to-date spend in the account's currency units",
		},
		[]string{"account"},
	)

	// ProjectedEOM tracks each account's projected end-of-month spend
	ProjectedEOM = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pacing_projected_eom_spend",
			Help: "Projected end-of-month spend in the account's currency units",
		},
		[]string{"account"},
	)

	// TrendAccounts tracks fleet counts per trend bucket
	TrendAccounts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pacing_trend_accounts",
			Help: "Number of accounts per trend bucket (on_target, over, under)",
		},
		[]string{"trend"},
	)
)

// Daemon stream metrics
var (
	// SSESubscribers tracks currently connected event stream clients
	SSESubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pacing_sse_subscribers",
			Help: "Number of currently connected event stream subscribers",
		},
	)

	// EventsEmittedTotal counts emitted pacing events by type
	EventsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacing_events_emitted_total",
			Help: "Total number of pacing events emitted by type",
		},
		[]string{"type"},
	)
)

// RecordHTTPRequest records the duration and increments the counter for an HTTP request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordRefresh records one refresh cycle.
// status should be "success", "partial", or "error"
func RecordRefresh(status string, duration time.Duration) {
	RefreshDuration.Observe(duration.Seconds())
	RefreshTotal.WithLabelValues(status).Inc()
}

// RecordAccountFailure increments the failure counter for an account
func RecordAccountFailure(account string) {
	AccountFailuresTotal.WithLabelValues(account).Inc()
}

// UpdateAccountPacing sets the per-account pacing gauges after a batch
func UpdateAccountPacing(account string, paceDelta, pctSpent, spendMTD, projected float64) {
	PaceDelta.WithLabelValues(account).Set(paceDelta)
	BudgetSpentPct.WithLabelValues(account).Set(pctSpent)
	SpendMTD.WithLabelValues(account).Set(spendMTD)
	ProjectedEOM.WithLabelValues(account).Set(projected)
}

// UpdateTrendCounts sets the fleet trend bucket gauges
func UpdateTrendCounts(onTarget, over, under int) {
	TrendAccounts.WithLabelValues("on_target").Set(float64(onTarget))
	TrendAccounts.WithLabelValues("over").Set(float64(over))
	TrendAccounts.WithLabelValues("under").Set(float64(under))
}

// RecordEvent increments the emitted event counter for a type
func RecordEvent(eventType string) {
	EventsEmittedTotal.WithLabelValues(eventType).Inc()
}
