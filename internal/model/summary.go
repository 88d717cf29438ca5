package model

import (
	"strings"
	"time"
)

// TrendOnTarget is the label for accounts pacing within the ±5% band.
const TrendOnTarget = "On Target"

// Projection holds the month-level forecast derived from the WMA daily rate.
type Projection struct {
	WMADaily              float64
	RemainingDays         int
	ProjectedEOMSpend     float64
	RecommendedDailySpend float64
}

// AccountPacingSummary is the one-per-account record consumed by dashboards.
// It is constructed fresh each run and never mutated afterwards.
type AccountPacingSummary struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name,omitempty"`
	Currency    string `json:"currency,omitempty"`

	Year        int        `json:"year"`
	Month       time.Month `json:"month"`
	DaysInMonth int        `json:"days_in_month"`
	DaysElapsed int        `json:"days_elapsed"`

	MonthlyBudget         float64 `json:"monthly_budget"`
	SpendMTD              float64 `json:"spend_mtd"`
	AvailableRemaining    float64 `json:"available_remaining"`
	TargetSpendToDate     float64 `json:"target_spend_to_date"`
	PaceVsTarget          float64 `json:"pace_vs_target"`
	PctBudgetSpent        float64 `json:"pct_budget_spent"`
	WMADaily              float64 `json:"wma_daily"`
	ProjectedEOMSpend     float64 `json:"projected_eom_spend"`
	RecommendedDailySpend float64 `json:"recommended_daily_spend"`
	PaceDeltaPct          float64 `json:"pace_delta_pct"`
	TrendLabel            string  `json:"trend_label"`

	PerDay []DayRow `json:"per_day,omitempty"`
}

// RemainingDays returns the count of days after the elapsed portion.
func (s *AccountPacingSummary) RemainingDays() int {
	if s.DaysElapsed >= s.DaysInMonth {
		return 0
	}
	return s.DaysInMonth - s.DaysElapsed
}

// TrendDirection maps the trend label to -1 (under), 0 (on target), +1 (over).
func (s *AccountPacingSummary) TrendDirection() int {
	switch {
	case s.TrendLabel == TrendOnTarget:
		return 0
	case strings.HasPrefix(s.TrendLabel, "Over"):
		return 1
	default:
		return -1
	}
}
