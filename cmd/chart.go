package cmd

import (
	"fmt"
	"os"

	"github.com/adpace/adpace/internal/chart"

	"github.com/spf13/cobra"
)

var chartCmd = &cobra.Command{
	Use:   "chart <id>",
	Short: "Write a PNG pacing chart for one account",
	Args:  cobra.ExactArgs(1),
	RunE:  runChart,
}

var chartOut string

func init() {
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "", "Output file (default: adpace-<id>-<month>.png)")
	rootCmd.AddCommand(chartCmd)
}

func runChart(_ *cobra.Command, args []string) error {
	report, _, err := loadReport()
	if err != nil {
		return err
	}

	s, err := findSummary(report, args[0])
	if err != nil {
		return err
	}

	png, err := chart.NewGenerator().Render(s)
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}

	out := chartOut
	if out == "" {
		out = fmt.Sprintf("adpace-%s-%04d%02d.png", s.AccountID, s.Year, int(s.Month))
	}
	if err := os.WriteFile(out, png, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	fmt.Printf("  Wrote %s (%d KB)\n", out, len(png)/1024)
	return nil
}
