package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adpace/adpace/internal/config"
	"github.com/adpace/adpace/internal/model"
)

var errProviderDown = errors.New("spend api down")

// fakeProvider serves canned spend data and injected failures.
type fakeProvider struct {
	mu       sync.Mutex
	daily    map[string][]model.DailyObservation
	mtd      map[string]float64
	currency map[string]string
	tz       map[string]string
	fail     map[string]error
	panicOn  string
	calls    int
}

func (p *fakeProvider) DailySpend(_ context.Context, id string, _ int, _ time.Month) ([]model.DailyObservation, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.panicOn == id {
		panic("provider bug for " + id)
	}
	if err := p.fail[id]; err != nil {
		return nil, err
	}
	return p.daily[id], nil
}

func (p *fakeProvider) MonthToDateSpend(_ context.Context, id string, _ int, _ time.Month) (float64, error) {
	if err := p.fail[id]; err != nil {
		return 0, err
	}
	return p.mtd[id], nil
}

func (p *fakeProvider) CurrencyCode(_ context.Context, id string) (string, error) {
	return p.currency[id], nil
}

func (p *fakeProvider) Timezone(_ context.Context, id string) (string, error) {
	return p.tz[id], nil
}

// obsDays builds one observation per day starting at the 1st.
func obsDays(year int, month time.Month, costs ...float64) []model.DailyObservation {
	out := make([]model.DailyObservation, len(costs))
	for i, c := range costs {
		out[i] = model.DailyObservation{
			Date: time.Date(year, month, i+1, 0, 0, 0, 0, time.UTC),
			Cost: c,
		}
	}
	return out
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testRunner(p *fakeProvider, ref time.Time) *Runner {
	return &Runner{
		Provider: p,
		Window:   7,
		TZMode:   config.TimezoneModeFixed,
		Location: time.UTC,
		Now:      func() time.Time { return ref },
		Log:      quietLogger(),
	}
}

func TestRunnerBatch(t *testing.T) {
	steady := make([]float64, 10)
	for i := range steady {
		steady[i] = 100
	}

	p := &fakeProvider{
		daily: map[string][]model.DailyObservation{
			"a": obsDays(2025, time.September, steady...),
			"b": obsDays(2025, time.September, steady...),
			"c": obsDays(2025, time.September, steady...),
		},
		mtd: map[string]float64{"a": 1000, "b": 1000, "c": 1000},
	}
	accounts := []model.Account{
		{ID: "a", Name: "Alpha", MonthlyBudget: 3000, Include: true},
		{ID: "b", Name: "Beta", MonthlyBudget: 3000, Include: true},
		{ID: "c", Name: "Gamma", MonthlyBudget: 3000, Include: true},
	}
	ref := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)

	report := testRunner(p, ref).Run(context.Background(), accounts, 2025, time.September, nil)

	if report.RunID == "" {
		t.Error("RunID should be set")
	}
	if report.Succeeded != 3 || report.Failed != 0 {
		t.Fatalf("Succeeded, Failed = %d, %d, want 3, 0", report.Succeeded, report.Failed)
	}
	// Result order matches input order regardless of worker scheduling.
	for i, want := range []string{"a", "b", "c"} {
		if report.Results[i].Account.ID != want {
			t.Errorf("Results[%d].Account.ID = %s, want %s", i, report.Results[i].Account.ID, want)
		}
	}

	s := report.Results[0].Summary
	if s == nil {
		t.Fatal("Summary should be set on success")
	}
	if s.WMADaily != 100 {
		t.Errorf("WMADaily = %v, want 100", s.WMADaily)
	}
	if s.ProjectedEOMSpend != 3000 {
		t.Errorf("ProjectedEOMSpend = %v, want 3000", s.ProjectedEOMSpend)
	}
	if s.TrendLabel != model.TrendOnTarget {
		t.Errorf("TrendLabel = %q, want %q", s.TrendLabel, model.TrendOnTarget)
	}
	if len(s.PerDay) != 30 {
		t.Errorf("len(PerDay) = %d, want 30", len(s.PerDay))
	}
}

func TestRunnerIsolation(t *testing.T) {
	p := &fakeProvider{
		daily: map[string][]model.DailyObservation{
			"a": obsDays(2025, time.September, 100, 100),
			"c": obsDays(2025, time.September, 100, 100),
		},
		mtd:  map[string]float64{"a": 200, "c": 200},
		fail: map[string]error{"b": errProviderDown},
	}
	accounts := []model.Account{
		{ID: "a", MonthlyBudget: 3000},
		{ID: "b", MonthlyBudget: 3000},
		{ID: "c", MonthlyBudget: 3000},
	}
	ref := time.Date(2025, 9, 2, 12, 0, 0, 0, time.UTC)

	report := testRunner(p, ref).Run(context.Background(), accounts, 2025, time.September, nil)

	if report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("Succeeded, Failed = %d, %d, want 2, 1", report.Succeeded, report.Failed)
	}
	if !errors.Is(report.Results[1].Err, errProviderDown) {
		t.Errorf("Results[1].Err = %v, want wrapped errProviderDown", report.Results[1].Err)
	}
	if report.Results[1].Summary != nil {
		t.Error("failed account should carry no summary")
	}
	if report.Results[0].Summary == nil || report.Results[2].Summary == nil {
		t.Error("healthy accounts should still produce summaries")
	}
	if got := len(report.Failures()); got != 1 {
		t.Errorf("len(Failures) = %d, want 1", got)
	}
	if got := len(report.Summaries()); got != 2 {
		t.Errorf("len(Summaries) = %d, want 2", got)
	}
}

func TestRunnerPanicBecomesError(t *testing.T) {
	p := &fakeProvider{
		daily: map[string][]model.DailyObservation{
			"a": obsDays(2025, time.September, 100),
			"c": obsDays(2025, time.September, 100),
		},
		mtd:     map[string]float64{"a": 100, "c": 100},
		panicOn: "b",
	}
	accounts := []model.Account{
		{ID: "a", MonthlyBudget: 3000},
		{ID: "b", MonthlyBudget: 3000},
		{ID: "c", MonthlyBudget: 3000},
	}
	ref := time.Date(2025, 9, 2, 12, 0, 0, 0, time.UTC)

	report := testRunner(p, ref).Run(context.Background(), accounts, 2025, time.September, nil)

	if report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("Succeeded, Failed = %d, %d, want 2, 1", report.Succeeded, report.Failed)
	}
	if report.Results[1].Err == nil {
		t.Fatal("panicking account should surface an error")
	}
}

func TestRunnerAccountTimezone(t *testing.T) {
	if _, err := time.LoadLocation("America/New_York"); err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}

	p := &fakeProvider{
		daily: map[string][]model.DailyObservation{"a": obsDays(2025, time.September, 100)},
		mtd:   map[string]float64{"a": 100},
	}
	// 03:00 UTC on the 11th is still the evening of the 10th in New York.
	ref := time.Date(2025, 9, 11, 3, 0, 0, 0, time.UTC)

	r := testRunner(p, ref)
	r.TZMode = config.TimezoneModeAccount

	accounts := []model.Account{
		{ID: "a", Timezone: "America/New_York", MonthlyBudget: 3000},
	}
	report := r.Run(context.Background(), accounts, 2025, time.September, nil)
	if report.Failed != 0 {
		t.Fatalf("Failed = %d, want 0: %v", report.Failed, report.Results[0].Err)
	}
	if got := report.Results[0].Summary.DaysElapsed; got != 10 {
		t.Errorf("DaysElapsed = %d, want 10 (account zone)", got)
	}

	// Fixed mode evaluates the same instant in UTC, one day later.
	r.TZMode = config.TimezoneModeFixed
	report = r.Run(context.Background(), accounts, 2025, time.September, nil)
	if got := report.Results[0].Summary.DaysElapsed; got != 11 {
		t.Errorf("DaysElapsed = %d, want 11 (fixed UTC)", got)
	}
}

func TestRunnerBadTimezone(t *testing.T) {
	p := &fakeProvider{
		daily: map[string][]model.DailyObservation{
			"good": obsDays(2025, time.September, 100),
			"bad":  obsDays(2025, time.September, 100),
		},
		mtd: map[string]float64{"good": 100, "bad": 100},
	}
	accounts := []model.Account{
		{ID: "bad", Timezone: "Mars/Olympus", MonthlyBudget: 3000},
		{ID: "good", MonthlyBudget: 3000},
	}
	ref := time.Date(2025, 9, 5, 12, 0, 0, 0, time.UTC)

	r := testRunner(p, ref)
	r.TZMode = config.TimezoneModeAccount
	report := r.Run(context.Background(), accounts, 2025, time.September, nil)

	if report.Failed != 1 || report.Succeeded != 1 {
		t.Fatalf("Failed, Succeeded = %d, %d, want 1, 1", report.Failed, report.Succeeded)
	}
	if report.Results[0].Err == nil {
		t.Error("bad timezone should fail that account")
	}
	if report.Results[1].Err != nil {
		t.Errorf("account without zone should fall back to fixed: %v", report.Results[1].Err)
	}
}

func TestRunnerWindowDefault(t *testing.T) {
	// Three heavy days followed by seven quiet ones. Only a 7-day window
	// averages to exactly 70.
	costs := []float64{1000, 1000, 1000, 70, 70, 70, 70, 70, 70, 70}
	p := &fakeProvider{
		daily: map[string][]model.DailyObservation{"a": obsDays(2025, time.September, costs...)},
		mtd:   map[string]float64{"a": 3490},
	}
	ref := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)

	r := testRunner(p, ref)
	r.Window = 0

	report := r.Run(context.Background(), []model.Account{{ID: "a", MonthlyBudget: 9000}}, 2025, time.September, nil)
	if report.Failed != 0 {
		t.Fatalf("Failed = %d, want 0", report.Failed)
	}
	if got := report.Results[0].Summary.WMADaily; got != 70 {
		t.Errorf("WMADaily = %v, want 70 (default window %d)", got, config.DefaultWMAWindowDays)
	}
}

func TestRunnerProgress(t *testing.T) {
	p := &fakeProvider{
		daily: map[string][]model.DailyObservation{
			"a": obsDays(2025, time.September, 1),
			"b": obsDays(2025, time.September, 1),
			"c": obsDays(2025, time.September, 1),
		},
		mtd: map[string]float64{"a": 1, "b": 1, "c": 1},
	}
	accounts := []model.Account{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	ref := time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	var seen []int
	progress := func(current, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		seen = append(seen, current)
	}

	testRunner(p, ref).Run(context.Background(), accounts, 2025, time.September, progress)

	if len(seen) != 3 {
		t.Fatalf("progress calls = %d, want 3", len(seen))
	}
	max := 0
	for _, n := range seen {
		if n > max {
			max = n
		}
	}
	if max != 3 {
		t.Errorf("max progress = %d, want 3", max)
	}
}

func TestRunnerEmpty(t *testing.T) {
	report := testRunner(&fakeProvider{}, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)).
		Run(context.Background(), nil, 2025, time.September, nil)
	if report.Succeeded != 0 || report.Failed != 0 || len(report.Results) != 0 {
		t.Errorf("empty batch = %+v, want zero counts", report)
	}
	if report.RunID == "" {
		t.Error("RunID should be set even for empty batches")
	}
}
