package cmd

import (
	"fmt"
	"time"

	"github.com/adpace/adpace/internal/tui"

	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	year, month, err := resolveMonth(time.Now())
	if err != nil {
		return err
	}

	if err := tui.Run(tui.Options{Year: year, Month: month, NoCache: flagNoCache}); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
