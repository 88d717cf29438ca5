// Package store provides a SQLite-backed cache for account spend data.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adpace/adpace/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

const dayLayout = "2006-01-02"

// Spend sources recorded per daily row.
const (
	SourceAPI    = "api"
	SourceImport = "import"
)

// Cache provides SQLite-backed caching of fetched and imported spend data.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// SaveAccount stores account identity fields. Budgets and include flags
// live in the config file, not the cache.
func (c *Cache) SaveAccount(a model.Account) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := c.db.Exec(`INSERT OR REPLACE INTO accounts
		(account_id, name, currency, timezone, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Currency, a.Timezone, now,
	)
	return err
}

// Accounts returns all cached accounts ordered by ID.
func (c *Cache) Accounts() ([]model.Account, error) {
	rows, err := c.db.Query(`SELECT account_id, name, currency, timezone
		FROM accounts ORDER BY account_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		var currency, timezone sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &currency, &timezone); err != nil {
			return nil, err
		}
		a.Currency = currency.String
		a.Timezone = timezone.String
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// SaveDailySpend upserts one month of daily observations for an account.
// Each (account, day) row is replaced wholesale, so re-fetching a month
// picks up restated costs.
func (c *Cache) SaveDailySpend(accountID string, obs []model.DailyObservation, source string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, o := range obs {
		_, err = tx.Exec(`INSERT OR REPLACE INTO daily_spend
			(account_id, day, cost, source, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			accountID, o.Date.UTC().Format(dayLayout), o.Cost, source, now,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DailySpend returns the cached observations for an account and month,
// ordered by day.
func (c *Cache) DailySpend(accountID string, year int, month time.Month) ([]model.DailyObservation, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	rows, err := c.db.Query(`SELECT day, cost FROM daily_spend
		WHERE account_id = ? AND day >= ? AND day < ?
		ORDER BY day`,
		accountID, first.Format(dayLayout), next.Format(dayLayout),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var obs []model.DailyObservation
	for rows.Next() {
		var dayStr string
		var cost float64
		if err := rows.Scan(&dayStr, &cost); err != nil {
			return nil, err
		}
		day, err := time.Parse(dayLayout, dayStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt day %q: %w", dayStr, err)
		}
		obs = append(obs, model.DailyObservation{Date: day, Cost: cost})
	}
	return obs, rows.Err()
}

// SaveMonthTotal stores the provider-reported month-to-date total, which is
// authoritative over the sum of daily rows.
func (c *Cache) SaveMonthTotal(accountID string, year int, month time.Month, spendMTD float64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := c.db.Exec(`INSERT OR REPLACE INTO month_totals
		(account_id, month, spend_mtd, as_of)
		VALUES (?, ?, ?, ?)`,
		accountID, monthKey(year, month), spendMTD, now,
	)
	return err
}

// MonthTotal returns the stored month-to-date total. found is false when no
// total was ever stored for that month.
func (c *Cache) MonthTotal(accountID string, year int, month time.Month) (total float64, found bool, err error) {
	err = c.db.QueryRow(`SELECT spend_mtd FROM month_totals
		WHERE account_id = ? AND month = ?`,
		accountID, monthKey(year, month),
	).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return total, true, nil
}

// SummedSpend returns the sum of cached daily costs for a month. Used as a
// fallback when no provider-reported total exists (e.g. import-only data).
func (c *Cache) SummedSpend(accountID string, year int, month time.Month) (float64, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	var total float64
	err := c.db.QueryRow(`SELECT COALESCE(SUM(cost), 0) FROM daily_spend
		WHERE account_id = ? AND day >= ? AND day < ?`,
		accountID, first.Format(dayLayout), next.Format(dayLayout),
	).Scan(&total)
	return total, err
}

// LastUpdated returns the most recent update time across an account's daily
// rows, or the zero time when nothing is cached.
func (c *Cache) LastUpdated(accountID string) (time.Time, error) {
	var ts sql.NullString
	err := c.db.QueryRow(`SELECT MAX(updated_at) FROM daily_spend
		WHERE account_id = ?`, accountID).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	if !ts.Valid || ts.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, ts.String)
}

// FileInfo holds the tracked mtime and size for an imported file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// TrackedImports returns a map of file_path -> FileInfo for all imported files.
func (c *Cache) TrackedImports() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes FROM import_files")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveImport records an imported file's identity for change detection.
func (c *Cache) SaveImport(path string, mtimeNs, sizeBytes int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := c.db.Exec(`INSERT OR REPLACE INTO import_files
		(file_path, mtime_ns, size_bytes, imported_at)
		VALUES (?, ?, ?, ?)`, path, mtimeNs, sizeBytes, now)
	return err
}

// DeleteImport removes an import tracking entry.
func (c *Cache) DeleteImport(path string) error {
	_, err := c.db.Exec("DELETE FROM import_files WHERE file_path = ?", path)
	return err
}

// RunRecord is one audit row for a fetch, import, or daemon refresh run.
type RunRecord struct {
	RunID     string
	Kind      string
	Started   time.Time
	Finished  time.Time
	OKCount   int
	FailCount int
}

// SaveRun appends a run to the audit trail.
func (c *Cache) SaveRun(r RunRecord) error {
	_, err := c.db.Exec(`INSERT OR REPLACE INTO runs
		(run_id, kind, started_at, finished_at, ok_count, fail_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Kind,
		r.Started.UTC().Format(time.RFC3339),
		r.Finished.UTC().Format(time.RFC3339),
		r.OKCount, r.FailCount,
	)
	return err
}

// RecentRuns returns the most recent runs, newest first.
func (c *Cache) RecentRuns(limit int) ([]RunRecord, error) {
	rows, err := c.db.Query(`SELECT run_id, kind, started_at, finished_at, ok_count, fail_count
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var started, finished string
		if err := rows.Scan(&r.RunID, &r.Kind, &started, &finished, &r.OKCount, &r.FailCount); err != nil {
			return nil, err
		}
		r.Started, _ = time.Parse(time.RFC3339, started)
		r.Finished, _ = time.Parse(time.RFC3339, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// AccountCount returns the number of cached accounts.
func (c *Cache) AccountCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count)
	return count, err
}

// PruneBefore deletes daily rows and month totals for months older than the
// given one. Returns the number of daily rows removed.
func (c *Cache) PruneBefore(year int, month time.Month) (int64, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	res, err := c.db.Exec(`DELETE FROM daily_spend WHERE day < ?`,
		first.Format(dayLayout))
	if err != nil {
		return 0, err
	}
	removed, _ := res.RowsAffected()

	_, err = c.db.Exec(`DELETE FROM month_totals WHERE month < ?`,
		monthKey(year, month))
	return removed, err
}

func monthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}
