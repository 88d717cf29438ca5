package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/adpace/adpace/internal/cli"
	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/pipeline"

	"github.com/spf13/cobra"
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Fleet pacing overview (default command)",
	RunE:  runOverview,
}

func init() {
	rootCmd.AddCommand(overviewCmd)
}

func runOverview(_ *cobra.Command, _ []string) error {
	report, _, err := loadReport()
	if errors.Is(err, errNoAccounts) {
		printNoAccountsHint()
		return nil
	}
	if err != nil {
		return err
	}

	summaries := report.Summaries()
	pipeline.SortByAttention(summaries)

	if flagJSON {
		return writeReportJSON(report, summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("\n  No accounts evaluated.")
		printFailures(report)
		return nil
	}

	rollup := pipeline.BuildRollup(report)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PACING OVERVIEW  %s  day %d/%d",
		monthTitle(report), summaries[0].DaysElapsed, summaries[0].DaysInMonth)))
	fmt.Println()

	currency := fleetCurrency(summaries)
	pctTarget := 0.0
	if rollup.TotalBudget > 0 {
		pctTarget = rollup.TotalTargetToDate / rollup.TotalBudget
	}

	fmt.Printf("  %s  %s\n\n",
		cli.RenderBudgetBar(rollup.PctBudgetSpent(), pctTarget, 44),
		cli.TrendText(rollup.TrendLabel()))

	fleet := cli.Table{
		Headers: []string{"Fleet", "Value"},
		Rows: [][]string{
			{"Budget", cli.FormatMoney(rollup.TotalBudget, currency)},
			{"Spend MTD", fmt.Sprintf("%s  (%s of budget)",
				cli.FormatMoney(rollup.TotalSpendMTD, currency),
				cli.FormatPercent(rollup.PctBudgetSpent()))},
			{"Target to date", cli.FormatMoney(rollup.TotalTargetToDate, currency)},
			{"Projected EOM", fmt.Sprintf("%s  (%s vs target)",
				cli.FormatMoney(rollup.TotalProjected, currency),
				cli.FormatSignedPercent(rollup.PaceDeltaPct()))},
			{"Rec. daily", cli.FormatMoney(rollup.TotalRecommendedDaily, currency)},
			{"---"},
			{"Accounts", fmt.Sprintf("%s  (%d on target, %d over, %d under)",
				formatNumber(int64(len(summaries))), rollup.OnTarget, rollup.Over, rollup.Under)},
		},
	}
	fmt.Print(cli.RenderTable(fleet))
	fmt.Println()

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			truncate(accountLabel(s), 20),
			cli.FormatMoney(s.MonthlyBudget, s.Currency),
			cli.FormatMoney(s.SpendMTD, s.Currency),
			cli.FormatMoney(s.TargetSpendToDate, s.Currency),
			cli.FormatMoney(s.ProjectedEOMSpend, s.Currency),
			cli.FormatMoney(s.RecommendedDailySpend, s.Currency),
			cli.PaceText(s.PaceDeltaPct),
			cli.TrendText(s.TrendLabel),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Account", "Budget", "MTD", "Target", "Proj EOM", "Rec/day", "Pace", "Trend"},
		Rows:    rows,
	}))

	printFailures(report)
	return nil
}

// accountLabel prefers the display name over the raw ID.
func accountLabel(s *model.AccountPacingSummary) string {
	if s.AccountName != "" {
		return s.AccountName
	}
	return s.AccountID
}

// fleetCurrency returns the shared currency code, or "" when accounts mix
// currencies.
func fleetCurrency(summaries []*model.AccountPacingSummary) string {
	currency := ""
	for _, s := range summaries {
		if s.Currency == "" {
			continue
		}
		if currency == "" {
			currency = s.Currency
		} else if currency != s.Currency {
			return ""
		}
	}
	return currency
}

func printFailures(report model.BatchReport) {
	for _, r := range report.Failures() {
		fmt.Fprintf(os.Stderr, "\n  %s could not be evaluated: %v\n", r.Account.ID, r.Err)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return s[:maxLen]
	}
	return s[:maxLen-1] + "…"
}

// writeReportJSON emits the full report for scripts: every summary plus a
// failures list, one object on stdout.
func writeReportJSON(report model.BatchReport, summaries []*model.AccountPacingSummary) error {
	type failureJSON struct {
		AccountID string `json:"account_id"`
		Error     string `json:"error"`
	}
	out := struct {
		RunID    string                        `json:"run_id"`
		Month    string                        `json:"month"`
		Accounts []*model.AccountPacingSummary `json:"accounts"`
		Failures []failureJSON                 `json:"failures,omitempty"`
	}{
		RunID:    report.RunID,
		Month:    fmt.Sprintf("%04d-%02d", report.Year, int(report.Month)),
		Accounts: summaries,
	}
	for _, r := range report.Failures() {
		out.Failures = append(out.Failures, failureJSON{AccountID: r.Account.ID, Error: r.Err.Error()})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
