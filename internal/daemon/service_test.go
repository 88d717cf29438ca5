package daemon

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adpace/adpace/internal/model"
)

func quietService(t *testing.T, cfg Config) *Service {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(cfg, nil, nil, nil, log)
}

func TestDiffSnapshotsTrendTransitions(t *testing.T) {
	prev := Snapshot{Pace: []AccountPace{
		{AccountID: "acct-a", Trend: "On Target"},
		{AccountID: "acct-b", Trend: "Over 10%"},
		{AccountID: "acct-c", Trend: "Under 5%"},
	}}
	curr := Snapshot{Pace: []AccountPace{
		{AccountID: "acct-a", Trend: "Over 6%"},
		{AccountID: "acct-b", Trend: "Over 10%"},
		{AccountID: "acct-c", Error: "api down"},
		{AccountID: "acct-d", Trend: "Under 3%"},
	}}

	events := diffSnapshots(prev, curr)
	if len(events) != 2 {
		t.Fatalf("diff produced %d events, want 2", len(events))
	}

	if events[0].Type != EventTrendChange || events[0].Account != "acct-a" {
		t.Fatalf("first event = %+v, want trend_change for acct-a", events[0])
	}
	if events[0].From != "On Target" || events[0].To != "Over 6%" {
		t.Fatalf("transition = %q -> %q, want On Target -> Over 6%%", events[0].From, events[0].To)
	}

	if events[1].Type != EventRefreshError || events[1].Account != "acct-c" {
		t.Fatalf("second event = %+v, want refresh_error for acct-c", events[1])
	}
	if events[1].Error != "api down" {
		t.Fatalf("error = %q, want %q", events[1].Error, "api down")
	}
}

func TestDiffSnapshotsRepeatedFailureSilent(t *testing.T) {
	prev := Snapshot{Pace: []AccountPace{{AccountID: "acct-a", Error: "api down"}}}
	curr := Snapshot{Pace: []AccountPace{{AccountID: "acct-a", Error: "api down"}}}

	if events := diffSnapshots(prev, curr); len(events) != 0 {
		t.Fatalf("repeated failure produced %d events, want 0", len(events))
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := quietService(t, Config{
		Interval:     10 * time.Minute,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1, Type: EventSnapshot})
	s.publishEvent(Event{ID: 2, Type: EventTrendChange})
	s.publishEvent(Event{ID: 3, Type: EventTrendChange})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestBuildSnapshot(t *testing.T) {
	report := model.BatchReport{
		Year:  2025,
		Month: time.September,
		Results: []model.AccountResult{
			{
				Account: model.Account{ID: "acct-1", Name: "Acme", Currency: "USD", MonthlyBudget: 3000},
				Summary: &model.AccountPacingSummary{
					AccountID:         "acct-1",
					SpendMTD:          1000,
					TargetSpendToDate: 1000,
					PctBudgetSpent:    1.0 / 3,
					ProjectedEOMSpend: 3000,
					TrendLabel:        "On Target",
				},
			},
			{
				Account: model.Account{ID: "acct-2", MonthlyBudget: 500},
				Err:     io.ErrUnexpectedEOF,
			},
		},
		Failed: 1,
	}

	snap := buildSnapshot(report, nil, time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC))

	if snap.Month != "2025-09" {
		t.Errorf("Month = %q, want 2025-09", snap.Month)
	}
	if snap.Accounts != 2 || snap.Failed != 1 {
		t.Errorf("Accounts/Failed = %d/%d, want 2/1", snap.Accounts, snap.Failed)
	}
	if len(snap.Pace) != 2 {
		t.Fatalf("Pace len = %d, want 2", len(snap.Pace))
	}
	if snap.Pace[0].Trend != "On Target" {
		t.Errorf("Pace[0].Trend = %q, want On Target", snap.Pace[0].Trend)
	}
	if snap.Pace[1].Error == "" {
		t.Error("failed account missing error in snapshot")
	}
}

func seedReport(s *Service) {
	perDay := []model.DayRow{
		{Day: 1, Date: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), Cost: 100, CumSpend: 100, CumTarget: 100},
		{Day: 2, Date: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC), Cost: 120, CumSpend: 220, CumTarget: 200},
	}
	report := model.BatchReport{
		Year:  2025,
		Month: time.September,
		Results: []model.AccountResult{
			{
				Account: model.Account{ID: "acct-1", Name: "Acme", Currency: "USD", MonthlyBudget: 3000},
				Summary: &model.AccountPacingSummary{
					AccountID:   "acct-1",
					AccountName: "Acme",
					Year:        2025,
					Month:       time.September,
					DaysInMonth: 30,
					DaysElapsed: 2,
					TrendLabel:  "Over 10%",
					PerDay:      perDay,
				},
			},
		},
	}

	s.mu.Lock()
	s.report = report
	s.snapshot = buildSnapshot(report, nil, time.Now())
	s.hasSnapshot = true
	s.mu.Unlock()
}

func TestHandleAccount(t *testing.T) {
	s := quietService(t, Config{})
	seedReport(s)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/accounts/acct-1", nil)
	s.handleAccount(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var detail AccountDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decoding detail: %v", err)
	}
	if detail.AccountID != "acct-1" || detail.Month != "2025-09" {
		t.Errorf("detail = %s/%s, want acct-1/2025-09", detail.AccountID, detail.Month)
	}
	if len(detail.Days) != 2 {
		t.Fatalf("Days len = %d, want 2", len(detail.Days))
	}
	if detail.Days[1].Date != "2025-09-02" {
		t.Errorf("Days[1].Date = %q, want 2025-09-02", detail.Days[1].Date)
	}
}

func TestHandleAccountUnknown(t *testing.T) {
	s := quietService(t, Config{})
	seedReport(s)

	rec := httptest.NewRecorder()
	s.handleAccount(rec, httptest.NewRequest("GET", "/api/accounts/ghost", nil))
	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleSnapshotBeforeFirstRefresh(t *testing.T) {
	s := quietService(t, Config{})

	rec := httptest.NewRecorder()
	s.handleSnapshot(rec, httptest.NewRequest("GET", "/api/snapshot", nil))
	if rec.Code != 503 {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	s := quietService(t, Config{Interval: 15 * time.Minute})
	seedReport(s)

	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest("GET", "/api/status", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var st Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if st.RefreshIntervalSec != 900 {
		t.Errorf("RefreshIntervalSec = %d, want 900", st.RefreshIntervalSec)
	}
	if st.Summary.Month != "2025-09" {
		t.Errorf("Summary.Month = %q, want 2025-09", st.Summary.Month)
	}
}
