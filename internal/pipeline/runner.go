// Package pipeline orchestrates spend retrieval, caching, and batch pacing
// evaluation across accounts.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/adpace/adpace/internal/config"
	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/pacing"
)

// ProgressFunc is called during a batch run to report progress.
// current is the number of accounts processed so far, total is the count.
type ProgressFunc func(current, total int)

// Runner evaluates pacing for a set of accounts against a spend provider.
// A zero Window falls back to the configured default; a nil Location means
// UTC when the timezone mode is fixed.
type Runner struct {
	Provider SpendProvider
	Window   int
	TZMode   string
	Location *time.Location
	Now      func() time.Time
	Log      logrus.FieldLogger
}

// Run evaluates every account for the given month. Accounts are processed
// by a bounded worker pool; one account's failure becomes an error entry in
// the report rather than aborting the batch. Result order matches input
// order regardless of scheduling.
func (r *Runner) Run(ctx context.Context, accounts []model.Account, year int, month time.Month, progressFn ProgressFunc) model.BatchReport {
	report := model.BatchReport{
		RunID:   uuid.NewString(),
		Year:    year,
		Month:   month,
		Started: r.now(),
		Results: make([]model.AccountResult, len(accounts)),
	}

	if len(accounts) == 0 {
		report.Finished = r.now()
		return report
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(accounts) {
		numWorkers = len(accounts)
	}

	work := make(chan int, len(accounts))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range accounts {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				acct := accounts[idx]
				summary, err := r.safeEvaluate(ctx, acct, year, month)
				report.Results[idx] = model.AccountResult{
					Account: acct,
					Summary: summary,
					Err:     err,
				}
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(accounts))
				}
			}
		}()
	}

	wg.Wait()

	for _, res := range report.Results {
		if res.Err != nil {
			report.Failed++
			r.log().WithError(res.Err).WithField("account", res.Account.ID).
				Warn("pacing evaluation failed")
		} else {
			report.Succeeded++
		}
	}

	report.Finished = r.now()
	return report
}

// safeEvaluate converts a panic during one account's evaluation into that
// account's error so the rest of the batch keeps running.
func (r *Runner) safeEvaluate(ctx context.Context, acct model.Account, year int, month time.Month) (summary *model.AccountPacingSummary, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			summary = nil
			err = fmt.Errorf("evaluating %s: panic: %v", acct.ID, rec)
		}
	}()
	return r.evaluate(ctx, acct, year, month)
}

// evaluate runs the engine for a single account.
func (r *Runner) evaluate(ctx context.Context, acct model.Account, year int, month time.Month) (*model.AccountPacingSummary, error) {
	loc := r.Location
	if r.TZMode == config.TimezoneModeAccount && acct.Timezone != "" {
		l, err := time.LoadLocation(acct.Timezone)
		if err != nil {
			return nil, fmt.Errorf("loading timezone %q: %w", acct.Timezone, err)
		}
		loc = l
	}
	if loc == nil {
		loc = time.UTC
	}

	mc := pacing.ResolveMonthAt(year, month, r.now(), loc)

	obs, err := r.Provider.DailySpend(ctx, acct.ID, year, month)
	if err != nil {
		return nil, fmt.Errorf("daily spend for %s: %w", acct.ID, err)
	}
	spendMTD, err := r.Provider.MonthToDateSpend(ctx, acct.ID, year, month)
	if err != nil {
		return nil, fmt.Errorf("month-to-date spend for %s: %w", acct.ID, err)
	}

	if acct.Currency == "" {
		if cur, err := r.Provider.CurrencyCode(ctx, acct.ID); err == nil {
			acct.Currency = cur
		}
	}

	window := r.Window
	if window < 1 {
		window = config.DefaultWMAWindowDays
	}

	summary := pacing.Run(acct, mc, obs, spendMTD, window)
	return &summary, nil
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) log() logrus.FieldLogger {
	if r.Log != nil {
		return r.Log
	}
	return logrus.StandardLogger()
}
