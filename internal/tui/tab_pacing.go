package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/adpace/adpace/internal/cli"
	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/tui/components"
	"github.com/adpace/adpace/internal/tui/theme"
)

func (a App) viewPacing(cw int) string {
	t := theme.Active

	s := a.selectedSummary()
	if s == nil {
		return a.renderEmptyState(cw)
	}

	var b strings.Builder

	// Selector line: which account is under the cursor
	visible := a.visibleSummaries()
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	posStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	b.WriteString(selStyle.Render(" ▾ " + displayLabel(s)))
	b.WriteString(posStyle.Render(fmt.Sprintf("  %d/%d · j/k to switch", a.acctState.cursor+1, len(visible))))
	b.WriteString("\n")

	// Row 1: Stat cards for the selected account
	cards := []components.Stat{
		{Label: "Budget", Value: cli.FormatMoney(s.MonthlyBudget, s.Currency),
			Delta: fmt.Sprintf("day %d of %d", s.DaysElapsed, s.DaysInMonth)},
		{Label: "Spend MTD", Value: cli.FormatMoney(s.SpendMTD, s.Currency),
			Delta: cli.FormatPercent(s.PctBudgetSpent) + " of budget"},
		{Label: "Projected EOM", Value: cli.FormatMoney(s.ProjectedEOMSpend, s.Currency),
			Delta: cli.FormatSignedPercent(s.PaceDeltaPct) + " vs target"},
		{Label: "Rec. Daily", Value: cli.FormatMoney(s.RecommendedDailySpend, s.Currency),
			Delta: "wma " + cli.FormatMoney(s.WMADaily, s.Currency) + "/day"},
	}
	b.WriteString(components.StatRow(cards, cw))
	b.WriteString("\n")

	// Row 2: Daily spend chart
	if len(s.PerDay) > 0 {
		vals := make([]float64, len(s.PerDay))
		for i, row := range s.PerDay {
			vals[i] = row.Cost
		}
		b.WriteString(components.TitledCard(
			"Daily Spend",
			components.BarChart(vals, chartDayLabels(len(vals)), t.Blue, components.InnerWidth(cw), 10),
			cw,
		))
		b.WriteString("\n")
	}

	// Row 3: Cumulative curves + projection detail
	halves := components.SplitWidths(cw, 2)
	if a.isCompactLayout() {
		b.WriteString(components.TitledCard("Cumulative", a.renderCumulative(s, components.InnerWidth(cw)), cw))
		b.WriteString("\n")
		b.WriteString(components.TitledCard("Projection", a.renderProjection(s, components.InnerWidth(cw)), cw))
	} else {
		cumCard := components.TitledCard("Cumulative", a.renderCumulative(s, components.InnerWidth(halves[0])), halves[0])
		projCard := components.TitledCard("Projection", a.renderProjection(s, components.InnerWidth(halves[1])), halves[1])
		b.WriteString(components.JoinCards([]string{cumCard, projCard}))
	}

	return b.String()
}

// renderCumulative draws actual, target, and forecast month curves as
// labeled sparklines over the full day series.
func (a App) renderCumulative(s *model.AccountPacingSummary, innerW int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	actual := make([]float64, 0, len(s.PerDay))
	target := make([]float64, 0, len(s.PerDay))
	forecast := make([]float64, 0, len(s.PerDay))
	for _, row := range s.PerDay {
		if row.Day <= s.DaysElapsed {
			actual = append(actual, row.CumSpend)
		}
		target = append(target, row.CumTarget)
		forecast = append(forecast, row.CumForecastWMA)
	}

	rows := []struct {
		label string
		vals  []float64
		color lipgloss.Color
		last  float64
	}{
		{"Actual", actual, t.Accent, s.SpendMTD},
		{"Target", target, t.TextMuted, s.MonthlyBudget},
		{"Forecast", forecast, t.Yellow, s.ProjectedEOMSpend},
	}

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-9s", row.label)))
		b.WriteString(components.Sparkline(row.vals, row.color))
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s%s\n",
			labelStyle.Render(strings.Repeat(" ", 9)),
			valStyle.Render("→ "+cli.FormatMoney(row.last, s.Currency)))
	}

	return b.String()
}

// renderProjection shows the numbers behind the end-of-month forecast.
func (a App) renderProjection(s *model.AccountPacingSummary, innerW int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	gaugeW := innerW - 16
	if gaugeW < 10 {
		gaugeW = 10
	}

	var b strings.Builder
	b.WriteString(components.BudgetGauge("Spent", s.PctBudgetSpent, 9, gaugeW))
	b.WriteString("\n\n")

	rows := []struct{ label, value string }{
		{"Target to date", cli.FormatMoney(s.TargetSpendToDate, s.Currency)},
		{"Pace vs target", cli.FormatSignedMoney(s.PaceVsTarget, s.Currency)},
		{"Remaining", cli.FormatMoney(s.AvailableRemaining, s.Currency)},
		{"Days left", fmt.Sprintf("%d", s.RemainingDays())},
		{"WMA daily", cli.FormatMoney(s.WMADaily, s.Currency)},
		{"Rec. daily", cli.FormatMoney(s.RecommendedDailySpend, s.Currency)},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n",
			labelStyle.Render(fmt.Sprintf("%-15s", row.label)),
			valStyle.Render(row.value))
	}

	b.WriteString("\n")
	trendStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(components.ColorForPace(s.PaceDeltaPct))).
		Background(t.Surface).
		Bold(true)
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-15s", "Trend")))
	b.WriteString(" ")
	b.WriteString(trendStyle.Render(s.TrendLabel))

	return b.String()
}
