package source

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDir walks dir recursively and discovers all CSV spend export files.
// A single CSV file path yields just that file. A missing path is not an
// error; it just means nothing to import. Unreadable entries are skipped
// rather than aborting the scan.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		if !strings.EqualFold(filepath.Ext(dir), ".csv") {
			return nil, nil
		}
		return []DiscoveredFile{{
			Path:    dir,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}}, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished mid-scan
		}
		files = append(files, DiscoveredFile{
			Path:    path,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// CountAccounts returns the number of distinct account IDs in a set of records.
func CountAccounts(records []SpendRecord) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.AccountID] = struct{}{}
	}
	return len(seen)
}
