package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/adpace/adpace/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestAccountRoundTrip(t *testing.T) {
	c := openTestCache(t)

	accounts := []model.Account{
		{ID: "acct-2", Name: "Beta", Currency: "USD", Timezone: "America/New_York"},
		{ID: "acct-1", Name: "Alpha", Currency: "EUR", Timezone: "Europe/Berlin"},
	}
	for _, a := range accounts {
		if err := c.SaveAccount(a); err != nil {
			t.Fatalf("SaveAccount(%s): %v", a.ID, err)
		}
	}

	got, err := c.Accounts()
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(accounts) = %d, want 2", len(got))
	}
	// Ordered by ID.
	if got[0].ID != "acct-1" || got[1].ID != "acct-2" {
		t.Errorf("order = %s, %s, want acct-1, acct-2", got[0].ID, got[1].ID)
	}
	if got[0].Name != "Alpha" || got[0].Currency != "EUR" || got[0].Timezone != "Europe/Berlin" {
		t.Errorf("acct-1 = %+v, want Alpha/EUR/Europe/Berlin", got[0])
	}

	n, err := c.AccountCount()
	if err != nil || n != 2 {
		t.Errorf("AccountCount = %d, %v, want 2", n, err)
	}
}

func TestDailySpendUpsert(t *testing.T) {
	c := openTestCache(t)

	obs := []model.DailyObservation{
		{Date: day(t, "2025-09-01"), Cost: 100},
		{Date: day(t, "2025-09-02"), Cost: 110},
	}
	if err := c.SaveDailySpend("acct-1", obs, SourceAPI); err != nil {
		t.Fatalf("SaveDailySpend: %v", err)
	}

	// A restated cost replaces the old row rather than accumulating.
	restated := []model.DailyObservation{{Date: day(t, "2025-09-02"), Cost: 90}}
	if err := c.SaveDailySpend("acct-1", restated, SourceAPI); err != nil {
		t.Fatalf("SaveDailySpend (restated): %v", err)
	}

	got, err := c.DailySpend("acct-1", 2025, time.September)
	if err != nil {
		t.Fatalf("DailySpend: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(obs) = %d, want 2", len(got))
	}
	if got[1].Cost != 90 {
		t.Errorf("restated cost = %v, want 90", got[1].Cost)
	}

	sum, err := c.SummedSpend("acct-1", 2025, time.September)
	if err != nil {
		t.Fatalf("SummedSpend: %v", err)
	}
	if sum != 190 {
		t.Errorf("SummedSpend = %v, want 190", sum)
	}
}

func TestDailySpendMonthBounds(t *testing.T) {
	c := openTestCache(t)

	obs := []model.DailyObservation{
		{Date: day(t, "2025-08-31"), Cost: 1},
		{Date: day(t, "2025-09-01"), Cost: 2},
		{Date: day(t, "2025-09-30"), Cost: 3},
		{Date: day(t, "2025-10-01"), Cost: 4},
	}
	if err := c.SaveDailySpend("acct-1", obs, SourceImport); err != nil {
		t.Fatalf("SaveDailySpend: %v", err)
	}

	got, err := c.DailySpend("acct-1", 2025, time.September)
	if err != nil {
		t.Fatalf("DailySpend: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(obs) = %d, want 2 (September only)", len(got))
	}
	if got[0].Cost != 2 || got[1].Cost != 3 {
		t.Errorf("costs = %v, %v, want 2, 3", got[0].Cost, got[1].Cost)
	}

	// Other accounts do not bleed in.
	other, err := c.DailySpend("acct-2", 2025, time.September)
	if err != nil {
		t.Fatalf("DailySpend(acct-2): %v", err)
	}
	if len(other) != 0 {
		t.Errorf("len(other) = %d, want 0", len(other))
	}
}

func TestMonthTotal(t *testing.T) {
	c := openTestCache(t)

	_, found, err := c.MonthTotal("acct-1", 2025, time.September)
	if err != nil {
		t.Fatalf("MonthTotal: %v", err)
	}
	if found {
		t.Fatal("found = true before any save")
	}

	if err := c.SaveMonthTotal("acct-1", 2025, time.September, 1234.56); err != nil {
		t.Fatalf("SaveMonthTotal: %v", err)
	}
	if err := c.SaveMonthTotal("acct-1", 2025, time.September, 1300.00); err != nil {
		t.Fatalf("SaveMonthTotal (update): %v", err)
	}

	total, found, err := c.MonthTotal("acct-1", 2025, time.September)
	if err != nil {
		t.Fatalf("MonthTotal: %v", err)
	}
	if !found || total != 1300.00 {
		t.Errorf("MonthTotal = %v, %v, want 1300.00, true", total, found)
	}
}

func TestImportTracking(t *testing.T) {
	c := openTestCache(t)

	if err := c.SaveImport("/exports/a.csv", 111, 2048); err != nil {
		t.Fatalf("SaveImport: %v", err)
	}
	if err := c.SaveImport("/exports/a.csv", 222, 4096); err != nil {
		t.Fatalf("SaveImport (update): %v", err)
	}

	tracked, err := c.TrackedImports()
	if err != nil {
		t.Fatalf("TrackedImports: %v", err)
	}
	fi, ok := tracked["/exports/a.csv"]
	if !ok {
		t.Fatal("expected tracked entry for /exports/a.csv")
	}
	if fi.MtimeNs != 222 || fi.SizeBytes != 4096 {
		t.Errorf("FileInfo = %+v, want mtime 222, size 4096", fi)
	}

	if err := c.DeleteImport("/exports/a.csv"); err != nil {
		t.Fatalf("DeleteImport: %v", err)
	}
	tracked, err = c.TrackedImports()
	if err != nil {
		t.Fatalf("TrackedImports: %v", err)
	}
	if len(tracked) != 0 {
		t.Errorf("len(tracked) = %d, want 0 after delete", len(tracked))
	}
}

func TestRunAudit(t *testing.T) {
	c := openTestCache(t)

	base := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r := RunRecord{
			RunID:     string(rune('a' + i)),
			Kind:      "fetch",
			Started:   base.Add(time.Duration(i) * time.Minute),
			Finished:  base.Add(time.Duration(i)*time.Minute + 30*time.Second),
			OKCount:   5,
			FailCount: i,
		}
		if err := c.SaveRun(r); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	runs, err := c.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	// Newest first.
	if runs[0].RunID != "c" || runs[1].RunID != "b" {
		t.Errorf("order = %s, %s, want c, b", runs[0].RunID, runs[1].RunID)
	}
	if runs[0].FailCount != 2 {
		t.Errorf("FailCount = %d, want 2", runs[0].FailCount)
	}
}

func TestLastUpdated(t *testing.T) {
	c := openTestCache(t)

	ts, err := c.LastUpdated("acct-1")
	if err != nil {
		t.Fatalf("LastUpdated: %v", err)
	}
	if !ts.IsZero() {
		t.Errorf("LastUpdated = %v, want zero time for empty cache", ts)
	}

	obs := []model.DailyObservation{{Date: day(t, "2025-09-01"), Cost: 10}}
	if err := c.SaveDailySpend("acct-1", obs, SourceAPI); err != nil {
		t.Fatalf("SaveDailySpend: %v", err)
	}

	ts, err = c.LastUpdated("acct-1")
	if err != nil {
		t.Fatalf("LastUpdated: %v", err)
	}
	if ts.IsZero() {
		t.Error("LastUpdated should be set after a save")
	}
}

func TestPruneBefore(t *testing.T) {
	c := openTestCache(t)

	obs := []model.DailyObservation{
		{Date: day(t, "2025-07-15"), Cost: 5},
		{Date: day(t, "2025-08-31"), Cost: 7},
		{Date: day(t, "2025-09-01"), Cost: 9},
	}
	if err := c.SaveDailySpend("acct-1", obs, SourceAPI); err != nil {
		t.Fatalf("SaveDailySpend: %v", err)
	}
	if err := c.SaveMonthTotal("acct-1", 2025, time.July, 5); err != nil {
		t.Fatalf("SaveMonthTotal: %v", err)
	}
	if err := c.SaveMonthTotal("acct-1", 2025, time.September, 9); err != nil {
		t.Fatalf("SaveMonthTotal: %v", err)
	}

	removed, err := c.PruneBefore(2025, time.September)
	if err != nil {
		t.Fatalf("PruneBefore: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	kept, err := c.DailySpend("acct-1", 2025, time.September)
	if err != nil {
		t.Fatalf("DailySpend: %v", err)
	}
	if len(kept) != 1 || kept[0].Cost != 9 {
		t.Errorf("September rows = %+v, want the single $9 day", kept)
	}

	if _, found, err := c.MonthTotal("acct-1", 2025, time.July); err != nil || found {
		t.Errorf("July total found=%v err=%v, want pruned", found, err)
	}
	if total, found, err := c.MonthTotal("acct-1", 2025, time.September); err != nil || !found || total != 9 {
		t.Errorf("September total = %v found=%v err=%v, want 9", total, found, err)
	}
}
