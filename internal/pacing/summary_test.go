package pacing

import (
	"testing"

	"github.com/adpace/adpace/internal/model"
)

func TestTrendLabel(t *testing.T) {
	tests := []struct {
		delta float64
		want  string
	}{
		{0, "On Target"},
		{0.05, "On Target"},       // boundary is inclusive
		{-0.05, "On Target"},      // symmetric
		{0.0500001, "Over 5%"},    // just past the band
		{-0.0500001, "Under 5%"},
		{0.12, "Over 12%"},
		{-0.3, "Under 30%"},
		{0.347, "Over 35%"},
		{-0.044, "On Target"},
		{1.5, "Over 150%"},
	}

	for _, tt := range tests {
		if got := TrendLabel(tt.delta); got != tt.want {
			t.Errorf("TrendLabel(%v) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

func TestBuildSummaryPaceFields(t *testing.T) {
	mc := septemberContext(t, 10)
	acct := model.Account{ID: "a-9", Name: "Delta", Currency: "USD", MonthlyBudget: 3000}

	rows := BuildDailySeries(acct.MonthlyBudget, mc, dailyCosts(t, mc, 150, 150, 150, 150, 150, 150, 150, 150, 150, 150))
	wma := WeightedMovingAverage(rows, mc.DaysElapsed, 7)
	rows, proj := Project(rows, mc, acct.MonthlyBudget, 1500, wma)

	s := BuildSummary(acct, mc, 1500, rows, proj)

	if !approxEqual(s.TargetSpendToDate, 1000) {
		t.Errorf("TargetSpendToDate = %v, want 1000", s.TargetSpendToDate)
	}
	if !approxEqual(s.PaceVsTarget, 500) {
		t.Errorf("PaceVsTarget = %v, want 500", s.PaceVsTarget)
	}
	if !approxEqual(s.PaceDeltaPct, 0.5) {
		t.Errorf("PaceDeltaPct = %v, want 0.5", s.PaceDeltaPct)
	}
	if s.TrendLabel != "Over 50%" {
		t.Errorf("TrendLabel = %q, want \"Over 50%%\"", s.TrendLabel)
	}
	if s.TrendDirection() != 1 {
		t.Errorf("TrendDirection = %d, want 1", s.TrendDirection())
	}
	if !approxEqual(s.AvailableRemaining, 1500) {
		t.Errorf("AvailableRemaining = %v, want 1500", s.AvailableRemaining)
	}
}

func TestBuildSummaryOverspentRemainingClampsToZero(t *testing.T) {
	mc := septemberContext(t, 20)
	acct := model.Account{ID: "a-10", Name: "Epsilon", Currency: "USD", MonthlyBudget: 1000}

	rows := BuildDailySeries(acct.MonthlyBudget, mc, nil)
	rows, proj := Project(rows, mc, acct.MonthlyBudget, 1400, 70)

	s := BuildSummary(acct, mc, 1400, rows, proj)
	if s.AvailableRemaining != 0 {
		t.Fatalf("AvailableRemaining = %v, want 0", s.AvailableRemaining)
	}
}

func TestBuildSummaryUnderPace(t *testing.T) {
	mc := septemberContext(t, 20)
	acct := model.Account{ID: "a-11", Name: "Zeta", Currency: "GBP", MonthlyBudget: 3000}

	// Target to date is 2000; spending 1000 means 50% under.
	rows := BuildDailySeries(acct.MonthlyBudget, mc, nil)
	rows, proj := Project(rows, mc, acct.MonthlyBudget, 1000, 50)

	s := BuildSummary(acct, mc, 1000, rows, proj)
	if s.TrendLabel != "Under 50%" {
		t.Errorf("TrendLabel = %q, want \"Under 50%%\"", s.TrendLabel)
	}
	if s.TrendDirection() != -1 {
		t.Errorf("TrendDirection = %d, want -1", s.TrendDirection())
	}
}
