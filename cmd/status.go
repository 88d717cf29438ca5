package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adpace/adpace/internal/cli"
	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/pipeline"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compact pace status, one line per account",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
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

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PACE STATUS  %s  day %d/%d",
		monthTitle(report), summaries[0].DaysElapsed, summaries[0].DaysInMonth)))
	fmt.Println()

	nameW := 0
	for _, s := range summaries {
		if n := len(truncate(accountLabel(s), 20)); n > nameW {
			nameW = n
		}
	}

	for _, s := range summaries {
		fmt.Printf("  %-*s %s %4.0f%%  %s %s\n",
			nameW, truncate(accountLabel(s), 20),
			renderPaceBar(s, 20),
			s.PctBudgetSpent*100,
			cli.PaceText(s.PaceDeltaPct),
			cli.TrendText(s.TrendLabel))
	}
	fmt.Println()

	rollup := pipeline.BuildRollup(report)
	fmt.Printf("  Fleet: %s spent of %s, projected %s, %s\n",
		cli.FormatMoney(rollup.TotalSpendMTD, fleetCurrency(summaries)),
		cli.FormatMoney(rollup.TotalBudget, fleetCurrency(summaries)),
		cli.FormatMoney(rollup.TotalProjected, fleetCurrency(summaries)),
		cli.TrendText(rollup.TrendLabel()))

	printFailures(report)
	return nil
}

// renderPaceBar draws a mini budget bar colored by how far off target the
// account is pacing.
func renderPaceBar(s *model.AccountPacingSummary, width int) string {
	pct := s.PctBudgetSpent
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	n := int(pct*float64(width) + 0.5)
	if n > width {
		n = width
	}

	// Tiered by distance from target pace
	tone := cli.ColorGreen
	switch delta := s.PaceDeltaPct; {
	case delta >= 0.20 || delta <= -0.20:
		tone = cli.ColorRed
	case delta > 0.05 || delta < -0.05:
		tone = cli.ColorOrange
	}

	bar := lipgloss.NewStyle().Foreground(tone).Render(strings.Repeat("█", n))
	rest := lipgloss.NewStyle().Foreground(cli.ColorTextDim).Render(strings.Repeat("░", width-n))
	return bar + rest
}
