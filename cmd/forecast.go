package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/adpace/adpace/internal/cli"

	"github.com/spf13/cobra"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast <id>",
	Short: "Month-end forecast for one account",
	Args:  cobra.ExactArgs(1),
	RunE:  runForecast,
}

func init() {
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(_ *cobra.Command, args []string) error {
	report, cfg, err := loadReport()
	if err != nil {
		return err
	}

	s, err := findSummary(report, args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		out := struct {
			AccountID         string  `json:"account_id"`
			Month             string  `json:"month"`
			WMADaily          float64 `json:"wma_daily"`
			WindowDays        int     `json:"window_days"`
			RemainingDays     int     `json:"remaining_days"`
			ProjectedEOMSpend float64 `json:"projected_eom_spend"`
			RecommendedDaily  float64 `json:"recommended_daily_spend"`
			PaceDeltaPct      float64 `json:"pace_delta_pct"`
			Forecast          []struct {
				Day               int     `json:"day"`
				CumForecast       float64 `json:"cum_forecast"`
				ProjectedEOMAtDay float64 `json:"projected_eom_at_day"`
			} `json:"forecast"`
		}{
			AccountID:         s.AccountID,
			Month:             fmt.Sprintf("%04d-%02d", s.Year, int(s.Month)),
			WMADaily:          s.WMADaily,
			WindowDays:        cfg.Pacing.WMAWindowDays,
			RemainingDays:     s.RemainingDays(),
			ProjectedEOMSpend: s.ProjectedEOMSpend,
			RecommendedDaily:  s.RecommendedDailySpend,
			PaceDeltaPct:      s.PaceDeltaPct,
		}
		for _, d := range s.PerDay {
			out.Forecast = append(out.Forecast, struct {
				Day               int     `json:"day"`
				CumForecast       float64 `json:"cum_forecast"`
				ProjectedEOMAtDay float64 `json:"projected_eom_at_day"`
			}{d.Day, d.CumForecastWMA, d.ProjectedEOMAtDay})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FORECAST  %s  %s", accountLabel(s), monthTitle(report))))
	fmt.Println()

	projection := cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"WMA daily", fmt.Sprintf("%s  (last %dd, newest weighted)",
				cli.FormatMoney(s.WMADaily, s.Currency), cfg.Pacing.WMAWindowDays)},
			{"Days left", formatNumber(int64(s.RemainingDays()))},
			{"Projected EOM", cli.FormatMoney(s.ProjectedEOMSpend, s.Currency)},
			{"vs budget", fmt.Sprintf("%s  (%s)",
				cli.FormatSignedMoney(s.ProjectedEOMSpend-s.MonthlyBudget, s.Currency),
				cli.FormatSignedPercent(s.PaceDeltaPct))},
			{"Rec. daily", cli.FormatMoney(s.RecommendedDailySpend, s.Currency)},
			{"Trend", cli.TrendText(s.TrendLabel)},
		},
	}
	fmt.Print(cli.RenderTable(projection))
	fmt.Println()

	cum := make([]float64, 0, len(s.PerDay))
	for _, d := range s.PerDay {
		cum = append(cum, d.CumForecastWMA)
	}
	fmt.Printf("  Cumulative forecast  %s\n\n", cli.RenderSparkline(cum))

	rows := make([][]string, 0, len(s.PerDay)+1)
	for _, d := range s.PerDay {
		if d.Day == s.DaysElapsed+1 {
			rows = append(rows, []string{"---"})
		}
		rows = append(rows, []string{
			d.Date.Format("Jan 02"),
			cli.FormatMoney(d.CumForecastWMA, s.Currency),
			cli.FormatMoney(d.ProjectedEOMAtDay, s.Currency),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Day", "Cum Forecast", "Proj EOM @ Day"},
		Rows:    rows,
	}))

	return nil
}
