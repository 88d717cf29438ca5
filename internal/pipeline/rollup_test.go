package pipeline

import (
	"errors"
	"testing"

	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/pacing"
)

func pacedSummary(id string, budget, spend, target float64) *model.AccountPacingSummary {
	s := &model.AccountPacingSummary{
		AccountID:         id,
		MonthlyBudget:     budget,
		SpendMTD:          spend,
		TargetSpendToDate: target,
	}
	if target > 0 {
		s.PaceDeltaPct = spend/target - 1
	}
	s.TrendLabel = pacing.TrendLabel(s.PaceDeltaPct)
	return s
}

func TestBuildRollup(t *testing.T) {
	report := model.BatchReport{
		Results: []model.AccountResult{
			{Summary: pacedSummary("over", 1000, 600, 400)},
			{Summary: pacedSummary("under", 1000, 320, 400)},
			{Summary: pacedSummary("on", 1000, 400, 400)},
			{Err: errors.New("api down")},
		},
	}

	r := BuildRollup(report)

	if r.Accounts != 3 || r.Failed != 1 {
		t.Fatalf("Accounts, Failed = %d, %d, want 3, 1", r.Accounts, r.Failed)
	}
	if r.Over != 1 || r.Under != 1 || r.OnTarget != 1 {
		t.Errorf("Over, Under, OnTarget = %d, %d, %d, want 1, 1, 1", r.Over, r.Under, r.OnTarget)
	}
	if r.TotalBudget != 3000 || r.TotalSpendMTD != 1320 {
		t.Errorf("TotalBudget, TotalSpendMTD = %v, %v, want 3000, 1320", r.TotalBudget, r.TotalSpendMTD)
	}
	if got := r.PctBudgetSpent(); got != 0.44 {
		t.Errorf("PctBudgetSpent = %v, want 0.44", got)
	}
	// Fleet spend 1320 against a 1200 to-date target is 10% over.
	if got := r.PaceDeltaPct(); got < 0.0999 || got > 0.1001 {
		t.Errorf("PaceDeltaPct = %v, want 0.1", got)
	}
	if got := r.TrendLabel(); got != "Over 10%" {
		t.Errorf("TrendLabel = %q, want Over 10%%", got)
	}
}

func TestBuildRollupEmpty(t *testing.T) {
	r := BuildRollup(model.BatchReport{})
	if r.PctBudgetSpent() != 0 || r.PaceDeltaPct() != 0 {
		t.Errorf("empty rollup ratios = %v, %v, want 0, 0", r.PctBudgetSpent(), r.PaceDeltaPct())
	}
	if r.TrendLabel() != model.TrendOnTarget {
		t.Errorf("TrendLabel = %q, want %q", r.TrendLabel(), model.TrendOnTarget)
	}
}

func TestSortByAttention(t *testing.T) {
	summaries := []*model.AccountPacingSummary{
		{AccountID: "calm", PaceDeltaPct: 0.01},
		{AccountID: "zz-hot", PaceDeltaPct: -0.30},
		{AccountID: "aa-hot", PaceDeltaPct: 0.30},
		{AccountID: "warm", PaceDeltaPct: 0.10},
	}

	SortByAttention(summaries)

	want := []string{"aa-hot", "zz-hot", "warm", "calm"}
	for i, id := range want {
		if summaries[i].AccountID != id {
			t.Errorf("summaries[%d] = %s, want %s", i, summaries[i].AccountID, id)
		}
	}
}

func TestFilterSummaries(t *testing.T) {
	summaries := []*model.AccountPacingSummary{
		{AccountID: "acct-1", AccountName: "Acme Berlin"},
		{AccountID: "acct-2", AccountName: "Globex"},
	}

	if got := FilterSummaries(summaries, ""); len(got) != 2 {
		t.Errorf("empty query: len = %d, want 2", len(got))
	}
	if got := FilterSummaries(summaries, "ACME"); len(got) != 1 || got[0].AccountID != "acct-1" {
		t.Errorf("name match failed: %+v", got)
	}
	if got := FilterSummaries(summaries, "acct-2"); len(got) != 1 || got[0].AccountName != "Globex" {
		t.Errorf("id match failed: %+v", got)
	}
	if got := FilterSummaries(summaries, "nothing"); len(got) != 0 {
		t.Errorf("no match: len = %d, want 0", len(got))
	}
}
