package pipeline

import (
	"math"
	"sort"
	"strings"

	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/pacing"
)

// Rollup aggregates account summaries into fleet-level totals for the
// overview surfaces.
type Rollup struct {
	Accounts              int
	Failed                int
	TotalBudget           float64
	TotalSpendMTD         float64
	TotalTargetToDate     float64
	TotalProjected        float64
	TotalRecommendedDaily float64
	OnTarget              int
	Over                  int
	Under                 int
}

// BuildRollup computes fleet totals from a batch report. Failed accounts
// contribute only to the Failed count.
func BuildRollup(report model.BatchReport) Rollup {
	var r Rollup
	for _, res := range report.Results {
		if res.Err != nil || res.Summary == nil {
			r.Failed++
			continue
		}
		s := res.Summary
		r.Accounts++
		r.TotalBudget += s.MonthlyBudget
		r.TotalSpendMTD += s.SpendMTD
		r.TotalTargetToDate += s.TargetSpendToDate
		r.TotalProjected += s.ProjectedEOMSpend
		r.TotalRecommendedDaily += s.RecommendedDailySpend

		switch s.TrendDirection() {
		case 1:
			r.Over++
		case -1:
			r.Under++
		default:
			r.OnTarget++
		}
	}
	return r
}

// PctBudgetSpent returns fleet spend as a share of fleet budget, 0 when no
// budget is configured.
func (r Rollup) PctBudgetSpent() float64 {
	if r.TotalBudget <= 0 {
		return 0
	}
	return r.TotalSpendMTD / r.TotalBudget
}

// PaceDeltaPct returns the fleet's relative deviation from its summed
// to-date target, 0 when the target is 0.
func (r Rollup) PaceDeltaPct() float64 {
	if r.TotalTargetToDate <= 0 {
		return 0
	}
	return r.TotalSpendMTD/r.TotalTargetToDate - 1
}

// TrendLabel returns the fleet-level pace label.
func (r Rollup) TrendLabel() string {
	return pacing.TrendLabel(r.PaceDeltaPct())
}

// SortByAttention orders summaries by how far they deviate from target
// pace, worst first. Ties break on account ID for stable output.
func SortByAttention(summaries []*model.AccountPacingSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		di := math.Abs(summaries[i].PaceDeltaPct)
		dj := math.Abs(summaries[j].PaceDeltaPct)
		if di != dj {
			return di > dj
		}
		return summaries[i].AccountID < summaries[j].AccountID
	})
}

// FilterSummaries returns summaries whose account ID or name contains the
// query, case-insensitively. An empty query returns the input unchanged.
func FilterSummaries(summaries []*model.AccountPacingSummary, query string) []*model.AccountPacingSummary {
	if query == "" {
		return summaries
	}
	var out []*model.AccountPacingSummary
	for _, s := range summaries {
		if containsIgnoreCase(s.AccountID, query) || containsIgnoreCase(s.AccountName, query) {
			out = append(out, s)
		}
	}
	return out
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
