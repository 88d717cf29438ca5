package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/store"
)

func benchFixture(nAccounts, nDays int) (*fakeProvider, []model.Account) {
	p := &fakeProvider{
		daily: make(map[string][]model.DailyObservation, nAccounts),
		mtd:   make(map[string]float64, nAccounts),
	}
	accounts := make([]model.Account, nAccounts)
	for i := 0; i < nAccounts; i++ {
		id := fmt.Sprintf("acct-%03d", i)
		costs := make([]float64, nDays)
		var total float64
		for d := range costs {
			costs[d] = float64(50 + (i+d)%100)
			total += costs[d]
		}
		p.daily[id] = obsDays(2025, time.September, costs...)
		p.mtd[id] = total
		accounts[i] = model.Account{ID: id, Name: id, MonthlyBudget: 5000}
	}
	return p, accounts
}

func BenchmarkRunnerRun(b *testing.B) {
	p, accounts := benchFixture(200, 30)
	ref := time.Date(2025, 9, 30, 12, 0, 0, 0, time.UTC)
	r := &Runner{
		Provider: p,
		Window:   7,
		Location: time.UTC,
		Now:      func() time.Time { return ref },
		Log:      quietLogger(),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		report := r.Run(context.Background(), accounts, 2025, time.September, nil)
		if report.Failed != 0 {
			b.Fatal("unexpected failures")
		}
	}
}

func BenchmarkBuildRollup(b *testing.B) {
	p, accounts := benchFixture(200, 30)
	ref := time.Date(2025, 9, 30, 12, 0, 0, 0, time.UTC)
	r := &Runner{
		Provider: p,
		Window:   7,
		Location: time.UTC,
		Now:      func() time.Time { return ref },
		Log:      quietLogger(),
	}
	report := r.Run(context.Background(), accounts, 2025, time.September, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = BuildRollup(report)
	}
}

func BenchmarkImportDir(b *testing.B) {
	dir := b.TempDir()
	for f := 0; f < 20; f++ {
		var buf []byte
		buf = append(buf, "Date,Account ID,Cost\n"...)
		for d := 1; d <= 30; d++ {
			buf = append(buf, fmt.Sprintf("2025-09-%02d,acct-%02d,%d.00\n", d, f, 40+d)...)
		}
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("export-%02d.csv", f)), buf, 0o600); err != nil {
			b.Fatal(err)
		}
	}

	cache, err := store.Open(filepath.Join(b.TempDir(), "cache.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result, err := ImportDir(dir, cache, nil)
		if err != nil {
			b.Fatal(err)
		}
		_ = result
	}
}
