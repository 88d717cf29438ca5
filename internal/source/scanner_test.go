package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "2025-09")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.csv", "b.CSV", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(sub, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2 (csv only)", len(files))
	}
	if filepath.Base(files[0].Path) != "a.csv" || filepath.Base(files[1].Path) != "b.CSV" {
		t.Errorf("files = %q, %q, want a.csv, b.CSV (sorted)", files[0].Path, files[1].Path)
	}
	if files[0].Size != 1 {
		t.Errorf("Size = %d, want 1", files[0].Size)
	}
	if files[0].ModTime.IsZero() {
		t.Error("ModTime should be set")
	}
}

func TestScanDir_Missing(t *testing.T) {
	files, err := ScanDir(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("missing dir should not error, got %v", err)
	}
	if files != nil {
		t.Errorf("files = %v, want nil", files)
	}
}

func TestScanDir_SingleFile(t *testing.T) {
	dir := t.TempDir()
	csv := filepath.Join(dir, "export.csv")
	if err := os.WriteFile(csv, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	files, err := ScanDir(csv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 || files[0].Path != csv {
		t.Fatalf("files = %v, want just %s", files, csv)
	}

	files, err = ScanDir(txt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if files != nil {
		t.Errorf("non-csv file should scan to nil, got %v", files)
	}
}

func TestCountAccounts(t *testing.T) {
	day := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	records := []SpendRecord{
		{AccountID: "a", Date: day},
		{AccountID: "b", Date: day},
		{AccountID: "a", Date: day.AddDate(0, 0, 1)},
	}
	if got := CountAccounts(records); got != 2 {
		t.Errorf("CountAccounts = %d, want 2", got)
	}
}
