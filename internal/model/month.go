// Package model defines domain types for adpace accounts and pacing metrics.
package model

import (
	"fmt"
	"time"
)

// MonthContext describes the calendar window one pacing run covers.
// DaysElapsed is always clamped to [1, DaysInMonth].
type MonthContext struct {
	Year        int
	Month       time.Month
	DaysInMonth int
	DaysElapsed int
}

// Key returns the month in YYYY-MM form, used as a cache and API key.
func (mc MonthContext) Key() string {
	return fmt.Sprintf("%04d-%02d", mc.Year, int(mc.Month))
}

// DayDate returns the calendar date of the given 1-based day of this month.
func (mc MonthContext) DayDate(day int) time.Time {
	return time.Date(mc.Year, mc.Month, day, 0, 0, 0, 0, time.UTC)
}

// RemainingDays is the count of days after the last elapsed day.
func (mc MonthContext) RemainingDays() int {
	if r := mc.DaysInMonth - mc.DaysElapsed; r > 0 {
		return r
	}
	return 0
}

// DailyObservation is one raw (date, cost) spend sample from a provider.
// Multiple observations for the same date are summed before use.
type DailyObservation struct {
	Date time.Time
	Cost float64
}

// DayRow is one day of the pacing series. Rows are ordered ascending and
// contiguous from day 1; CumSpend never decreases across the month.
type DayRow struct {
	Date time.Time `json:"date"`
	Day  int       `json:"day"` // 1-based day of month

	Cost     float64 `json:"cost"`
	CumSpend float64 `json:"cum_spend"`

	TargetDaily    float64 `json:"target_daily"`
	CumTarget      float64 `json:"cum_target"`
	Gap            float64 `json:"gap"`
	CumGap         float64 `json:"cum_gap"`
	RunningPacePct float64 `json:"running_pace_pct"`
	RecDaily       float64 `json:"rec_daily"`

	// Filled by the forecast projector. For Day <= DaysElapsed,
	// CumForecastWMA equals CumSpend exactly.
	CumForecastWMA    float64 `json:"cum_forecast_wma"`
	ProjectedEOMAtDay float64 `json:"projected_eom_at_day"`
}
