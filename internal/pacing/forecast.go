package pacing

import "github.com/adpace/adpace/internal/model"

// Project extends the daily series with the WMA forecast curve and computes
// the month-level projection. It returns fresh rows; the input series is
// never mutated, so a row's actual fields stay fixed once built.
//
// CumForecastWMA equals the actual cumulative spend for elapsed days and a
// linear extrapolation at wmaDaily past them. ProjectedEOMAtDay answers
// "if today were day d, where would the month land" for every day.
func Project(rows []model.DayRow, mc model.MonthContext, budget, spendMTD, wmaDaily float64) ([]model.DayRow, model.Projection) {
	out := make([]model.DayRow, len(rows))
	for i, row := range rows {
		if row.Day <= mc.DaysElapsed {
			row.CumForecastWMA = row.CumSpend
		} else {
			row.CumForecastWMA = spendMTD + wmaDaily*float64(row.Day-mc.DaysElapsed)
		}
		row.ProjectedEOMAtDay = row.CumSpend + wmaDaily*float64(mc.DaysInMonth-row.Day)
		out[i] = row
	}

	proj := model.Projection{
		WMADaily:      wmaDaily,
		RemainingDays: mc.RemainingDays(),
	}
	proj.ProjectedEOMSpend = spendMTD + wmaDaily*float64(proj.RemainingDays)
	// On the last day of the month there are no remaining days to adjust.
	if proj.RemainingDays > 0 {
		if rec := (budget - spendMTD) / float64(proj.RemainingDays); rec > 0 {
			proj.RecommendedDailySpend = rec
		}
	}
	return out, proj
}
