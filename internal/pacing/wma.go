package pacing

import "github.com/adpace/adpace/internal/model"

// WeightedMovingAverage computes the linearly recency-weighted average daily
// spend over the last `window` elapsed days. The most recent day carries
// weight n, the day before n-1, down to 1, so a recent spike or drop moves
// the estimate more than an old one. Returns 0 when no days have elapsed.
func WeightedMovingAverage(rows []model.DayRow, daysElapsed, window int) float64 {
	if daysElapsed > len(rows) {
		daysElapsed = len(rows)
	}
	n := window
	if daysElapsed < n {
		n = daysElapsed
	}
	if n <= 0 {
		return 0
	}

	var weighted, weightSum float64
	for i := 0; i < n; i++ {
		day := daysElapsed - i // 1-based day number, newest first
		w := float64(n - i)
		weighted += w * rows[day-1].Cost
		weightSum += w
	}
	return weighted / weightSum
}
