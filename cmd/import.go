package cmd

import (
	"fmt"
	"os"

	"github.com/adpace/adpace/internal/cli"
	"github.com/adpace/adpace/internal/pipeline"
	"github.com/adpace/adpace/internal/store"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file|dir>...",
	Short: "Import CSV spend exports into the cache",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	cache, err := store.Open(pipeline.CachePath())
	if err != nil {
		return fmt.Errorf("opening spend cache: %w", err)
	}
	defer cache.Close()

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Parsing [%d/%d]", current, total)
	}

	var total pipeline.ImportResult
	for _, path := range args {
		result, err := pipeline.ImportDir(path, cache, progressFn)
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
		total.TotalFiles += result.TotalFiles
		total.Imported += result.Imported
		total.Skipped += result.Skipped
		total.FileErrors += result.FileErrors
		total.BadRows += result.BadRows
		total.Clamped += result.Clamped
		total.Records += result.Records
		total.Accounts += result.Accounts
	}
	if !flagQuiet {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}

	if total.TotalFiles == 0 {
		fmt.Println("\n  No CSV exports found.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("IMPORT"))
	fmt.Println()

	rows := [][]string{
		{"Files found", formatNumber(int64(total.TotalFiles))},
		{"Imported", formatNumber(int64(total.Imported))},
		{"Unchanged", formatNumber(int64(total.Skipped))},
		{"Records", formatNumber(int64(total.Records))},
		{"Accounts", formatNumber(int64(total.Accounts))},
	}
	if total.BadRows > 0 {
		rows = append(rows, []string{"Bad rows", formatNumber(int64(total.BadRows))})
	}
	if total.Clamped > 0 {
		rows = append(rows, []string{"Clamped costs", formatNumber(int64(total.Clamped))})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if total.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d files could not be parsed\n", total.FileErrors)
	}

	return nil
}
