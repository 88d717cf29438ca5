// Package source discovers and parses daily spend CSV exports.
package source

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrNoHeader means the file's first row matched no known export layout.
var ErrNoHeader = errors.New("no recognizable header row")

// Accepted date layouts, tried in order. Ad platforms export either ISO
// dates or US-style slashed dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// columnSynonyms maps normalized header cells to canonical column roles.
// Platforms disagree on naming, so each role accepts several spellings.
var columnSynonyms = map[string]string{
	"date":          "date",
	"day":           "date",
	"account":       "account",
	"account id":    "account",
	"customer id":   "account",
	"account name":  "name",
	"customer name": "name",
	"name":          "name",
	"currency":      "currency",
	"currency code": "currency",
	"cost":          "cost",
	"spend":         "cost",
	"amount":        "cost",
	"total cost":    "cost",
}

// columnLayout holds the column index of each role, -1 when absent.
type columnLayout struct {
	date     int
	account  int
	name     int
	currency int
	cost     int
}

// ParseFile reads one CSV export and produces per-account daily spend records.
// Malformed rows increment BadRows and are skipped; negative costs are
// clamped to zero and counted in Clamped. Only an unreadable file or a
// missing header fails the whole file.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{File: df, Err: err}
	}
	defer func() { _ = f.Close() }()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return ParseResult{File: df, Err: ErrNoHeader}
		}
		return ParseResult{File: df, Err: err}
	}
	layout, ok := detectLayout(header)
	if !ok {
		return ParseResult{File: df, Err: ErrNoHeader}
	}

	res := ParseResult{File: df}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv.Reader recovers on the next Read after a parse error.
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.BadRows++
				continue
			}
			res.Err = err
			return res
		}

		rec, clamped, ok := parseRow(layout, row)
		if !ok {
			if !isRepeatedHeader(layout, row) {
				res.BadRows++
			}
			continue
		}
		if clamped {
			res.Clamped++
		}
		res.Records = append(res.Records, rec)
	}

	return res
}

// detectLayout maps header cells to column roles. A usable export needs at
// least date, account, and cost columns; name and currency are optional.
func detectLayout(header []string) (columnLayout, bool) {
	layout := columnLayout{date: -1, account: -1, name: -1, currency: -1, cost: -1}
	for i, cell := range header {
		switch columnSynonyms[normalizeHeader(cell)] {
		case "date":
			layout.date = i
		case "account":
			layout.account = i
		case "name":
			layout.name = i
		case "currency":
			layout.currency = i
		case "cost":
			layout.cost = i
		}
	}
	if layout.date < 0 || layout.account < 0 || layout.cost < 0 {
		return layout, false
	}
	return layout, true
}

// normalizeHeader lowercases a header cell and folds underscores to spaces
// so "Account_ID" and "account id" match the same synonym. The first cell
// of a file may carry a UTF-8 BOM.
func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.ToLower(strings.TrimSpace(s))
}

func parseRow(layout columnLayout, row []string) (rec SpendRecord, clamped, ok bool) {
	need := layout.date
	if layout.account > need {
		need = layout.account
	}
	if layout.cost > need {
		need = layout.cost
	}
	if len(row) <= need {
		return rec, false, false
	}

	day, err := parseDay(row[layout.date])
	if err != nil {
		return rec, false, false
	}
	accountID := strings.TrimSpace(row[layout.account])
	if accountID == "" {
		return rec, false, false
	}
	cost, clamped, err := parseMoney(row[layout.cost])
	if err != nil {
		return rec, false, false
	}

	rec = SpendRecord{
		AccountID: accountID,
		Date:      day,
		Cost:      cost,
	}
	if layout.name >= 0 && layout.name < len(row) {
		rec.AccountName = strings.TrimSpace(row[layout.name])
	}
	if layout.currency >= 0 && layout.currency < len(row) {
		rec.Currency = strings.ToUpper(strings.TrimSpace(row[layout.currency]))
	}
	return rec, clamped, true
}

// isRepeatedHeader reports whether a rejected row is a header row from a
// concatenated export. Those are skipped without counting as malformed.
func isRepeatedHeader(layout columnLayout, row []string) bool {
	if layout.date >= len(row) {
		return false
	}
	return columnSynonyms[normalizeHeader(row[layout.date])] == "date"
}

// parseDay parses a date cell and normalizes it to midnight UTC.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseMoney parses a cost cell. Exports format money inconsistently:
// thousands commas, currency symbols, and accounting-style parentheses for
// negative adjustments all occur. A blank cell means no spend. Negative
// amounts (refunds) are clamped to zero and reported via clamped.
func parseMoney(s string) (cost float64, clamped bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimLeft(s, "$€£ ")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, errors.New("cost out of range")
	}
	if neg {
		v = -v
	}
	if v < 0 {
		return 0, true, nil
	}
	return v, false, nil
}
