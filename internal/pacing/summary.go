package pacing

import (
	"fmt"
	"math"

	"github.com/adpace/adpace/internal/model"
)

// onTargetBand is the symmetric pace-delta band treated as on target.
// The boundary is inclusive: exactly ±5% still counts.
const onTargetBand = 0.05

// BuildSummary combines one account's budget, month-to-date spend and the
// projected series into the record dashboards consume. Every ratio guards its
// denominator and resolves to 0 instead of NaN or Inf, so a zero budget or a
// degenerate month never poisons downstream rendering.
func BuildSummary(acct model.Account, mc model.MonthContext, spendMTD float64, rows []model.DayRow, proj model.Projection) model.AccountPacingSummary {
	s := model.AccountPacingSummary{
		AccountID:   acct.ID,
		AccountName: acct.Name,
		Currency:    acct.Currency,
		Year:        mc.Year,
		Month:       mc.Month,
		DaysInMonth: mc.DaysInMonth,
		DaysElapsed: mc.DaysElapsed,

		MonthlyBudget:         acct.MonthlyBudget,
		SpendMTD:              spendMTD,
		WMADaily:              proj.WMADaily,
		ProjectedEOMSpend:     proj.ProjectedEOMSpend,
		RecommendedDailySpend: proj.RecommendedDailySpend,
		PerDay:                rows,
	}

	if rem := acct.MonthlyBudget - spendMTD; rem > 0 {
		s.AvailableRemaining = rem
	}
	if mc.DaysInMonth > 0 {
		s.TargetSpendToDate = acct.MonthlyBudget * float64(mc.DaysElapsed) / float64(mc.DaysInMonth)
	}
	s.PaceVsTarget = spendMTD - s.TargetSpendToDate
	if acct.MonthlyBudget > 0 {
		s.PctBudgetSpent = spendMTD / acct.MonthlyBudget
	}
	if s.TargetSpendToDate > 0 {
		s.PaceDeltaPct = spendMTD/s.TargetSpendToDate - 1
	}
	s.TrendLabel = TrendLabel(s.PaceDeltaPct)
	return s
}

// TrendLabel buckets a pace delta into a human-readable label.
func TrendLabel(delta float64) string {
	if math.Abs(delta) <= onTargetBand {
		return model.TrendOnTarget
	}
	n := int(math.Round(math.Abs(delta) * 100))
	if delta < 0 {
		return fmt.Sprintf("Under %d%%", n)
	}
	return fmt.Sprintf("Over %d%%", n)
}
