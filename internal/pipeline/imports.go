package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/source"
	"github.com/adpace/adpace/internal/store"
)

// ImportResult summarizes one import run over a directory of CSV exports.
type ImportResult struct {
	RunID      string
	TotalFiles int
	Imported   int
	Skipped    int
	FileErrors int
	BadRows    int
	Clamped    int
	Records    int
	Accounts   int
}

// ImportDir discovers CSV exports under dir, diffs them against the cache by
// mtime and size, parses only changed files, and upserts their records. Files
// are applied in path order so a later export restates an earlier one.
func ImportDir(dir string, cache *store.Cache, progressFn ProgressFunc) (*ImportResult, error) {
	files, err := source.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	result := &ImportResult{
		RunID:      uuid.NewString(),
		TotalFiles: len(files),
	}
	started := time.Now()

	if len(files) == 0 {
		return result, nil
	}

	tracked, err := cache.TrackedImports()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	var toParse []source.DiscoveredFile
	for _, f := range files {
		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == f.ModTime.UnixNano() && cached.SizeBytes == f.Size {
			result.Skipped++
			continue
		}
		toParse = append(toParse, f)
	}

	if len(toParse) == 0 {
		return result, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(toParse) {
		numWorkers = len(toParse)
	}

	work := make(chan int, len(toParse))
	parsed := make([]source.ParseResult, len(toParse))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range toParse {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				parsed[idx] = source.ParseFile(toParse[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n)+result.Skipped, result.TotalFiles)
				}
			}
		}()
	}

	wg.Wait()

	known, err := knownAccounts(cache)
	if err != nil {
		return nil, err
	}

	// Apply in path order so restatements are deterministic.
	var allRecords []source.SpendRecord
	for i, pr := range parsed {
		if pr.Err != nil {
			result.FileErrors++
			logrus.WithError(pr.Err).WithField("file", pr.File.Path).Warn("import failed")
			continue
		}
		result.BadRows += pr.BadRows
		result.Clamped += pr.Clamped
		result.Records += len(pr.Records)
		allRecords = append(allRecords, pr.Records...)

		if err := applyRecords(cache, pr.Records, known); err != nil {
			return nil, fmt.Errorf("applying %s: %w", pr.File.Path, err)
		}
		if err := cache.SaveImport(pr.File.Path, toParse[i].ModTime.UnixNano(), toParse[i].Size); err != nil {
			return nil, fmt.Errorf("tracking %s: %w", pr.File.Path, err)
		}
		result.Imported++
	}

	result.Accounts = source.CountAccounts(allRecords)

	audit := store.RunRecord{
		RunID:     result.RunID,
		Kind:      "import",
		Started:   started,
		Finished:  time.Now(),
		OKCount:   result.Imported,
		FailCount: result.FileErrors,
	}
	if err := cache.SaveRun(audit); err != nil {
		logrus.WithError(err).Warn("recording import run failed")
	}

	return result, nil
}

// applyRecords groups one file's rows per account and day, summing rows that
// split a day (e.g. per-campaign exports), then upserts them.
func applyRecords(cache *store.Cache, records []source.SpendRecord, known map[string]bool) error {
	type dayKey struct {
		account string
		day     time.Time
	}
	sums := make(map[dayKey]float64)
	identity := make(map[string]source.SpendRecord)

	for _, r := range records {
		sums[dayKey{r.AccountID, r.Date}] += r.Cost
		if _, ok := identity[r.AccountID]; !ok {
			identity[r.AccountID] = r
		}
	}

	byAccount := make(map[string][]model.DailyObservation)
	for k, cost := range sums {
		byAccount[k.account] = append(byAccount[k.account], model.DailyObservation{
			Date: k.day,
			Cost: cost,
		})
	}

	accountIDs := make([]string, 0, len(byAccount))
	for id := range byAccount {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	for _, id := range accountIDs {
		obs := byAccount[id]
		sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })

		// Exports only fill identity gaps; API-sourced rows win.
		if !known[id] {
			rec := identity[id]
			name := rec.AccountName
			if name == "" {
				name = id
			}
			if err := cache.SaveAccount(model.Account{
				ID:       id,
				Name:     name,
				Currency: rec.Currency,
			}); err != nil {
				return err
			}
			known[id] = true
		}

		if err := cache.SaveDailySpend(id, obs, store.SourceImport); err != nil {
			return err
		}
	}
	return nil
}

func knownAccounts(cache *store.Cache) (map[string]bool, error) {
	accounts, err := cache.Accounts()
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		known[a.ID] = true
	}
	return known, nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "adpace")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "adpace")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "spend.db")
}
