package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/adpace/adpace/internal/cli"
	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/pipeline"
	"github.com/adpace/adpace/internal/store"

	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List configured and cached accounts",
	RunE:  runAccounts,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
}

// accountRow merges what the config says about an account with what the
// cache has seen of it.
type accountRow struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	Timezone   string    `json:"timezone,omitempty"`
	Budget     float64   `json:"monthly_budget"`
	Included   bool      `json:"included"`
	Configured bool      `json:"configured"`
	LastData   time.Time `json:"last_data,omitempty"`
}

func runAccounts(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	byID := make(map[string]*accountRow)
	for id, ac := range cfg.Accounts {
		row := &accountRow{ID: id, Name: ac.Name, Timezone: ac.Timezone, Configured: true, Included: true}
		if ac.Include != nil && !*ac.Include {
			row.Included = false
		}
		if ac.MonthlyBudget != nil {
			row.Budget = *ac.MonthlyBudget
		} else if cfg.Pacing.DefaultMonthlyBudget != nil {
			row.Budget = *cfg.Pacing.DefaultMonthlyBudget
		}
		if row.Budget <= 0 {
			row.Included = false
		}
		byID[id] = row
	}

	// Fold in cached metadata; the cache may know accounts the config
	// does not track yet.
	var cached []model.Account
	if cache, err := store.Open(pipeline.CachePath()); err == nil {
		defer cache.Close()
		cached, _ = cache.Accounts()
		for _, a := range cached {
			row, ok := byID[a.ID]
			if !ok {
				row = &accountRow{ID: a.ID}
				byID[a.ID] = row
			}
			if row.Name == "" {
				row.Name = a.Name
			}
			if row.Currency == "" {
				row.Currency = a.Currency
			}
			if row.Timezone == "" {
				row.Timezone = a.Timezone
			}
			if ts, err := cache.LastUpdated(a.ID); err == nil {
				row.LastData = ts
			}
		}
	}

	// Discover remote accounts when the API is configured. Best-effort:
	// an unreachable API still lists config and cache entries.
	if live := liveClient(cfg); live != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		infos, err := live.ListAccounts(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  Account discovery failed: %v\n", err)
		}
		for _, info := range infos {
			row, ok := byID[info.ID]
			if !ok {
				row = &accountRow{ID: info.ID}
				byID[info.ID] = row
			}
			if row.Name == "" {
				row.Name = info.Name
			}
			if row.Currency == "" {
				row.Currency = info.Currency
			}
			if row.Timezone == "" {
				row.Timezone = info.Timezone
			}
		}
	}

	if len(byID) == 0 {
		printNoAccountsHint()
		return nil
	}

	rows := make([]*accountRow, 0, len(byID))
	for _, row := range byID {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("ACCOUNTS  %d configured, %d cached", len(cfg.Accounts), len(cached))))
	fmt.Println()

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		budget := "-"
		if row.Budget > 0 {
			budget = cli.FormatMoney(row.Budget, row.Currency)
		}
		include := "yes"
		switch {
		case !row.Configured:
			include = "not configured"
		case !row.Included:
			include = "no"
		}
		lastData := "never"
		if !row.LastData.IsZero() {
			lastData = cli.FormatDuration(int64(time.Since(row.LastData).Seconds())) + " ago"
		}
		tableRows = append(tableRows, []string{
			row.ID,
			truncate(row.Name, 20),
			row.Currency,
			row.Timezone,
			budget,
			include,
			lastData,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Name", "Currency", "Timezone", "Budget", "Included", "Last Data"},
		Rows:    tableRows,
	}))

	return nil
}
