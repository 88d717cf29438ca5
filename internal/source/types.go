package source

import "time"

// DiscoveredFile represents a CSV spend export found during directory scanning.
type DiscoveredFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// SpendRecord is one parsed export row: one account, one day.
type SpendRecord struct {
	AccountID   string
	AccountName string
	Currency    string
	Date        time.Time
	Cost        float64
}

// ParseResult holds the output of parsing a single export file. Malformed
// rows are counted, not fatal; Err is set only when the whole file is
// unusable (unreadable, or no recognizable header).
type ParseResult struct {
	File    DiscoveredFile
	Records []SpendRecord
	BadRows int
	Clamped int
	Err     error
}
