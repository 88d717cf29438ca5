package pacing

import "github.com/adpace/adpace/internal/model"

// BuildDailySeries merges raw observations into one row per calendar day of
// the month and computes per-day target and gap metrics against a flat daily
// target. Rows come back ascending and contiguous from day 1 so consumers can
// index by day number. Days with no observation, including future days, stay
// at zero cost. Observations dated outside the month are dropped.
func BuildDailySeries(budget float64, mc model.MonthContext, obs []model.DailyObservation) []model.DayRow {
	costByDay := make(map[int]float64, mc.DaysInMonth)
	for _, o := range obs {
		if o.Date.Year() != mc.Year || o.Date.Month() != mc.Month {
			continue
		}
		d := o.Date.Day()
		if d < 1 || d > mc.DaysInMonth {
			continue
		}
		if o.Cost > 0 {
			costByDay[d] += o.Cost
		}
	}

	var targetDaily float64
	if mc.DaysInMonth > 0 {
		targetDaily = budget / float64(mc.DaysInMonth)
	}

	rows := make([]model.DayRow, 0, mc.DaysInMonth)
	var cum float64
	for d := 1; d <= mc.DaysInMonth; d++ {
		cost := costByDay[d]
		cum += cost

		row := model.DayRow{
			Date:        mc.DayDate(d),
			Day:         d,
			Cost:        cost,
			CumSpend:    cum,
			TargetDaily: targetDaily,
			CumTarget:   targetDaily * float64(d),
			Gap:         cost - targetDaily,
			CumGap:      cum - targetDaily*float64(d),
		}
		if budget > 0 {
			row.RunningPacePct = cum / budget
		}
		// What the per-day recommendation would have been, standing on day d
		// with the rest of the month still ahead. Zero on the last day.
		if remaining := mc.DaysInMonth - d; remaining > 0 {
			if rec := (budget - cum) / float64(remaining); rec > 0 {
				row.RecDaily = rec
			}
		}
		rows = append(rows, row)
	}
	return rows
}
