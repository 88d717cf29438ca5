package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/adpace/adpace/internal/cli"
	"github.com/adpace/adpace/internal/config"
	"github.com/adpace/adpace/internal/pipeline"
	"github.com/adpace/adpace/internal/store"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Refresh the spend cache from the reporting API",
	RunE:  runFetch,
}

var fetchPrune bool

func init() {
	fetchCmd.Flags().BoolVar(&fetchPrune, "prune", false, "Drop cached months older than the one fetched")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	live := liveClient(cfg)
	if live == nil {
		fmt.Println()
		fmt.Println("  Reporting API not configured.")
		fmt.Println()
		fmt.Println("  To fetch spend data, set the API endpoint and key:")
		fmt.Println()
		fmt.Println("    1. Run `adpace setup`, or")
		fmt.Printf("    2. Edit %s:\n", config.ConfigPath())
		fmt.Println()
		fmt.Println("       [api]")
		fmt.Println("       base_url = \"https://ads.example.com/api/v2\"")
		fmt.Println("       api_key = \"...\"")
		fmt.Println()
		fmt.Println("  The ADPACE_API_KEY environment variable overrides the stored key.")
		fmt.Println()
		return nil
	}

	accounts := cfg.IncludedAccounts()
	if len(accounts) == 0 {
		printNoAccountsHint()
		return nil
	}

	year, month, err := resolveMonth(time.Now())
	if err != nil {
		return err
	}

	cache, err := store.Open(pipeline.CachePath())
	if err != nil {
		return fmt.Errorf("opening spend cache: %w", err)
	}
	defer cache.Close()

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Fetching [%d/%d]", current, total)
	}

	started := time.Now()
	result, err := pipeline.Refresh(context.Background(), live, cache, accounts, year, month, progressFn)
	if err != nil {
		return err
	}
	if !flagQuiet {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FETCH  %04d-%02d", year, int(month))))
	fmt.Println()

	rows := [][]string{
		{"Run", result.RunID},
		{"Accounts", formatNumber(int64(result.Accounts))},
		{"Fetched", formatNumber(int64(result.Fetched))},
		{"Failed", formatNumber(int64(result.Failed))},
		{"Took", fmt.Sprintf("%.1fs", time.Since(started).Seconds())},
	}

	if fetchPrune {
		removed, err := cache.PruneBefore(year, month)
		if err != nil {
			return fmt.Errorf("pruning old months: %w", err)
		}
		rows = append(rows, []string{"Pruned", fmt.Sprintf("%s old daily rows", formatNumber(removed))})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if len(result.Errors) > 0 {
		ids := make([]string, 0, len(result.Errors))
		for id := range result.Errors {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fmt.Println()
		for _, id := range ids {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", id, result.Errors[id])
		}
	}

	return nil
}
