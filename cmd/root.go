// Package cmd implements the adpace CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/adpace/adpace/internal/adsapi"
	"github.com/adpace/adpace/internal/cli"
	"github.com/adpace/adpace/internal/config"
	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/pipeline"
	"github.com/adpace/adpace/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagMonth   string
	flagTZ      string
	flagNoCache bool
	flagQuiet   bool
	flagJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "adpace",
	Short: "Monthly ad budget pacing",
	Long:  "Track ad spend against monthly budgets: pace, forecasts, and daily recommendations.",
	RunE:  runOverview,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: XDG config dir)")
	rootCmd.PersistentFlags().StringVarP(&flagMonth, "month", "M", "", "Month to evaluate, YYYY-MM (default: current)")
	rootCmd.PersistentFlags().StringVar(&flagTZ, "tz", "", "Fixed IANA zone override for \"today\"")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the spend cache, fetch live from the API")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Emit JSON instead of tables")

	cobra.OnInitialize(func() {
		if flagConfig != "" {
			config.SetPath(flagConfig)
		}
	})
}

// resolveMonth parses --month, defaulting to the calendar month of now.
func resolveMonth(now time.Time) (int, time.Month, error) {
	if flagMonth == "" {
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse("2006-01", flagMonth)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --month %q, want YYYY-MM", flagMonth)
	}
	return t.Year(), t.Month(), nil
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagTZ != "" {
		cfg.Pacing.TimezoneMode = config.TimezoneModeFixed
		cfg.Pacing.Timezone = flagTZ
	}
	return cfg, nil
}

// liveClient builds the reporting API client, nil when base URL or key is
// missing.
func liveClient(cfg config.Config) *adsapi.Client {
	key := config.GetAPIKey(cfg)
	if key == "" {
		return nil
	}
	return adsapi.NewClient(cfg.API.BaseURL, key,
		adsapi.WithTimeout(time.Duration(cfg.API.TimeoutSeconds)*time.Second),
		adsapi.WithRateLimit(cfg.API.RequestsPerSecond))
}

// loadReport is the shared evaluation path used by the table commands.
// Cached spend is refreshed from the API first when credentials are
// configured; --no-cache forces a live-only fetch.
func loadReport() (model.BatchReport, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return model.BatchReport{}, cfg, err
	}

	year, month, err := resolveMonth(time.Now())
	if err != nil {
		return model.BatchReport{}, cfg, err
	}

	accounts := cfg.IncludedAccounts()
	if len(accounts) == 0 {
		return model.BatchReport{}, cfg, errNoAccounts
	}

	loc, err := cfg.Location()
	if err != nil {
		return model.BatchReport{}, cfg, err
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Fetching [%d/%d]", current, total)
	}

	ctx := context.Background()
	live := liveClient(cfg)

	var provider pipeline.SpendProvider
	if flagNoCache {
		if live == nil {
			return model.BatchReport{}, cfg, errors.New("--no-cache requires api.base_url and an API key; run `adpace setup`")
		}
		provider = live
	} else {
		cache, err := store.Open(pipeline.CachePath())
		if err == nil {
			defer cache.Close()
			if live != nil {
				// Best-effort: stale cache data still renders
				if _, err := pipeline.Refresh(ctx, live, cache, accounts, year, month, progressFn); err != nil && !flagQuiet {
					fmt.Fprintf(os.Stderr, "\r  Refresh failed, using cached spend: %v\n", err)
				}
			}
			if cp, cpErr := pipeline.NewCacheProvider(cache); cpErr == nil {
				provider = cp
			}
		}
		if provider == nil {
			if live == nil {
				return model.BatchReport{}, cfg, errors.New("no spend cache and no API configured; run `adpace setup` or `adpace import`")
			}
			provider = live
		}
	}

	runner := pipeline.Runner{
		Provider: provider,
		Window:   cfg.Pacing.WMAWindowDays,
		TZMode:   cfg.Pacing.TimezoneMode,
		Location: loc,
	}
	report := runner.Run(ctx, accounts, year, month, progressFn)

	if !flagQuiet {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}
	return report, cfg, nil
}

var errNoAccounts = errors.New("no accounts configured")

// printNoAccountsHint explains how to get started instead of failing with a
// bare error.
func printNoAccountsHint() {
	fmt.Println()
	fmt.Println("  No accounts configured.")
	fmt.Println()
	fmt.Println("  Add accounts to the config file:")
	fmt.Printf("    %s\n", config.ConfigPath())
	fmt.Println()
	fmt.Println("    [accounts.acct-1001]")
	fmt.Println("    name = \"Acme Search\"")
	fmt.Println("    monthly_budget = 5000.0")
	fmt.Println()
	fmt.Println("  or run `adpace setup` to configure the reporting API.")
	fmt.Println()
}

// monthTitle formats the month under evaluation for table headers.
func monthTitle(report model.BatchReport) string {
	return time.Date(report.Year, report.Month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

// findSummary locates one account in the report by ID, preferring exact
// matches and falling back to a unique name or prefix match.
func findSummary(report model.BatchReport, id string) (*model.AccountPacingSummary, error) {
	summaries := report.Summaries()
	for _, s := range summaries {
		if s.AccountID == id {
			return s, nil
		}
	}

	var match *model.AccountPacingSummary
	for _, s := range summaries {
		if containsFold(s.AccountName, id) || containsFold(s.AccountID, id) {
			if match != nil {
				return nil, fmt.Errorf("account %q is ambiguous; use the full ID", id)
			}
			match = s
		}
	}
	if match == nil {
		for _, r := range report.Failures() {
			if r.Account.ID == id {
				return nil, fmt.Errorf("account %s failed to evaluate: %w", id, r.Err)
			}
		}
		return nil, fmt.Errorf("account %q not found; run `adpace accounts` to list them", id)
	}
	return match, nil
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func formatNumber(n int64) string {
	return cli.FormatNumber(n)
}
