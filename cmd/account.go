package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/adpace/adpace/internal/cli"

	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account <id>",
	Short: "Per-day pacing table for one account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccount,
}

var accountFull bool

func init() {
	accountCmd.Flags().BoolVar(&accountFull, "full", false, "Include future days, not just elapsed ones")
	rootCmd.AddCommand(accountCmd)
}

func runAccount(_ *cobra.Command, args []string) error {
	report, _, err := loadReport()
	if err != nil {
		return err
	}

	s, err := findSummary(report, args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  %s  day %d/%d",
		accountLabel(s), monthTitle(report), s.DaysElapsed, s.DaysInMonth)))
	fmt.Println()

	pctTarget := 0.0
	if s.MonthlyBudget > 0 {
		pctTarget = s.TargetSpendToDate / s.MonthlyBudget
	}
	fmt.Printf("  %s  %s\n\n",
		cli.RenderBudgetBar(s.PctBudgetSpent, pctTarget, 44),
		cli.TrendText(s.TrendLabel))

	summary := cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Budget", cli.FormatMoney(s.MonthlyBudget, s.Currency)},
			{"Spend MTD", fmt.Sprintf("%s  (%s of budget)",
				cli.FormatMoney(s.SpendMTD, s.Currency), cli.FormatPercent(s.PctBudgetSpent))},
			{"Target to date", cli.FormatMoney(s.TargetSpendToDate, s.Currency)},
			{"Pace vs target", cli.FormatSignedMoney(s.PaceVsTarget, s.Currency)},
			{"Remaining", cli.FormatMoney(s.AvailableRemaining, s.Currency)},
			{"---"},
			{"WMA daily", cli.FormatMoney(s.WMADaily, s.Currency)},
			{"Projected EOM", fmt.Sprintf("%s  (%s vs target)",
				cli.FormatMoney(s.ProjectedEOMSpend, s.Currency), cli.FormatSignedPercent(s.PaceDeltaPct))},
			{"Rec. daily", cli.FormatMoney(s.RecommendedDailySpend, s.Currency)},
			{"Days left", formatNumber(int64(s.RemainingDays()))},
		},
	}
	fmt.Print(cli.RenderTable(summary))
	fmt.Println()

	rows := make([][]string, 0, len(s.PerDay))
	for _, d := range s.PerDay {
		if d.Day > s.DaysElapsed {
			if !accountFull {
				break
			}
			if d.Day == s.DaysElapsed+1 {
				rows = append(rows, []string{"---"})
			}
			rows = append(rows, []string{
				d.Date.Format("Jan 02"),
				"-",
				"-",
				cli.FormatMoney(d.CumTarget, s.Currency),
				"-",
				"-",
				cli.FormatMoney(d.RecDaily, s.Currency),
			})
			continue
		}
		rows = append(rows, []string{
			d.Date.Format("Jan 02"),
			cli.FormatMoney(d.Cost, s.Currency),
			cli.FormatMoney(d.CumSpend, s.Currency),
			cli.FormatMoney(d.CumTarget, s.Currency),
			cli.FormatSignedMoney(d.CumGap, s.Currency),
			cli.FormatPercent(d.RunningPacePct),
			cli.FormatMoney(d.RecDaily, s.Currency),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Day", "Cost", "Cum Spend", "Cum Target", "Cum Gap", "Pace", "Rec/day"},
		Rows:    rows,
	}))

	return nil
}
