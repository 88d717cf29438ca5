// Package pacing implements the monthly budget pacing and forecast engine.
// Everything in here is pure computation over dates and numbers; providers
// and renderers live elsewhere and call into it.
package pacing

import (
	"time"

	"github.com/adpace/adpace/internal/model"
)

// ResolveMonth computes the month window containing ref, evaluated in loc.
func ResolveMonth(ref time.Time, loc *time.Location) model.MonthContext {
	if loc == nil {
		loc = time.UTC
	}
	local := ref.In(loc)
	return ResolveMonthAt(local.Year(), local.Month(), ref, loc)
}

// ResolveMonthAt computes the window for an explicitly chosen month. The last
// day of the month is the first day of the next month minus one day, which
// handles 28/29/30/31 uniformly, leap years included. A month fully in the
// past is complete (DaysElapsed == DaysInMonth); a future month clamps
// DaysElapsed to 1.
func ResolveMonthAt(year int, month time.Month, ref time.Time, loc *time.Location) model.MonthContext {
	if loc == nil {
		loc = time.UTC
	}
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
	daysInMonth := firstOfNext.AddDate(0, 0, -1).Day()

	local := ref.In(loc)
	var elapsed int
	switch {
	case local.Year() == year && local.Month() == month:
		elapsed = local.Day()
	case !local.Before(firstOfNext):
		elapsed = daysInMonth
	default:
		elapsed = 1
	}
	if elapsed > daysInMonth {
		elapsed = daysInMonth
	}
	if elapsed < 1 {
		elapsed = 1
	}

	return model.MonthContext{
		Year:        year,
		Month:       month,
		DaysInMonth: daysInMonth,
		DaysElapsed: elapsed,
	}
}

// Run executes the full engine for one account: daily series, WMA estimate,
// forecast projection, summary. Observations may arrive unsorted or with
// duplicate dates; spendMTD is the provider's authoritative month-to-date
// total and may differ slightly from the summed series.
func Run(acct model.Account, mc model.MonthContext, obs []model.DailyObservation, spendMTD float64, wmaWindow int) model.AccountPacingSummary {
	rows := BuildDailySeries(acct.MonthlyBudget, mc, obs)
	wma := WeightedMovingAverage(rows, mc.DaysElapsed, wmaWindow)
	rows, proj := Project(rows, mc, acct.MonthlyBudget, spendMTD, wma)
	return BuildSummary(acct, mc, spendMTD, rows, proj)
}
