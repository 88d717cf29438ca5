package pipeline

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/store"
)

// RefreshResult summarizes one fetch run into the cache.
type RefreshResult struct {
	RunID    string
	Accounts int
	Fetched  int
	Failed   int
	Errors   map[string]error
}

// Refresh pulls one month of spend data for every account from the provider
// into the cache. Account failures are collected per account, never fatal
// for the run as a whole.
func Refresh(ctx context.Context, provider SpendProvider, cache *store.Cache, accounts []model.Account, year int, month time.Month, progressFn ProgressFunc) (*RefreshResult, error) {
	result := &RefreshResult{
		RunID:    uuid.NewString(),
		Accounts: len(accounts),
		Errors:   make(map[string]error),
	}
	started := time.Now()

	if len(accounts) == 0 {
		return result, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(accounts) {
		numWorkers = len(accounts)
	}

	work := make(chan int, len(accounts))
	errs := make([]error, len(accounts))
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
				errs[idx] = fetchAccount(ctx, provider, cache, accounts[idx], year, month)
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(accounts))
				}
			}
		}()
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			result.Failed++
			result.Errors[accounts[i].ID] = err
			logrus.WithError(err).WithField("account", accounts[i].ID).Warn("fetch failed")
		} else {
			result.Fetched++
		}
	}

	audit := store.RunRecord{
		RunID:     result.RunID,
		Kind:      "fetch",
		Started:   started,
		Finished:  time.Now(),
		OKCount:   result.Fetched,
		FailCount: result.Failed,
	}
	if err := cache.SaveRun(audit); err != nil {
		logrus.WithError(err).Warn("recording fetch run failed")
	}

	return result, nil
}

// fetchAccount pulls and stores one account's month. The daily series and
// the reported total are both saved; currency and timezone ride along on the
// account row.
func fetchAccount(ctx context.Context, provider SpendProvider, cache *store.Cache, acct model.Account, year int, month time.Month) error {
	obs, err := provider.DailySpend(ctx, acct.ID, year, month)
	if err != nil {
		return err
	}
	total, err := provider.MonthToDateSpend(ctx, acct.ID, year, month)
	if err != nil {
		return err
	}

	// Identity metadata is best effort; spend data is still worth saving
	// when these lookups fail.
	currency, err := provider.CurrencyCode(ctx, acct.ID)
	if err != nil {
		currency = acct.Currency
	}
	timezone, err := provider.Timezone(ctx, acct.ID)
	if err != nil {
		timezone = acct.Timezone
	}

	if err := cache.SaveAccount(model.Account{
		ID:       acct.ID,
		Name:     acct.Name,
		Currency: currency,
		Timezone: timezone,
	}); err != nil {
		return err
	}
	if err := cache.SaveDailySpend(acct.ID, obs, store.SourceAPI); err != nil {
		return err
	}
	return cache.SaveMonthTotal(acct.ID, year, month, total)
}
