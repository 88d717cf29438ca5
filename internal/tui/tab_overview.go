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

func (a App) viewOverview(cw int) string {
	t := theme.Active

	if len(a.summaries) == 0 {
		return a.renderEmptyState(cw)
	}

	r := a.rollup
	var b strings.Builder

	// Row 1: Stat cards
	spendDelta := cli.FormatPercent(r.PctBudgetSpent()) + " of budget"
	projDelta := cli.FormatSignedPercent(r.PaceDeltaPct()) + " vs target"
	acctDelta := fmt.Sprintf("%d over · %d under", r.Over, r.Under)
	if r.Failed > 0 {
		acctDelta = fmt.Sprintf("%d over · %d failed", r.Over, r.Failed)
	}

	currency := a.fleetCurrency()
	cards := []components.Stat{
		{Label: "Budget", Value: cli.FormatMoney(r.TotalBudget, currency), Delta: a.monthTitle()},
		{Label: "Spend MTD", Value: cli.FormatMoney(r.TotalSpendMTD, currency), Delta: spendDelta},
		{Label: "Projected EOM", Value: cli.FormatMoney(r.TotalProjected, currency), Delta: projDelta},
		{Label: "Accounts", Value: cli.FormatNumber(int64(r.Accounts)), Delta: acctDelta},
	}
	b.WriteString(components.StatRow(cards, cw))
	b.WriteString("\n")

	// Row 2: Combined daily spend chart
	dailyVals := a.fleetDailySpend()
	if len(dailyVals) > 0 {
		chartInnerW := components.InnerWidth(cw)
		b.WriteString(components.TitledCard(
			fmt.Sprintf("Daily Spend (%s)", a.monthTitle()),
			components.BarChart(dailyVals, chartDayLabels(len(dailyVals)), t.Blue, chartInnerW, 10),
			cw,
		))
		b.WriteString("\n")
	}

	// Row 3: Needs Attention + Fleet Pace
	halves := components.SplitWidths(cw, 2)

	attnBody := a.renderAttentionList(components.InnerWidth(halves[0]))
	paceBody := a.renderFleetPace(components.InnerWidth(halves[1]))

	if a.isCompactLayout() {
		b.WriteString(components.TitledCard("Needs Attention", a.renderAttentionList(components.InnerWidth(cw)), cw))
		b.WriteString("\n")
		b.WriteString(components.TitledCard("Fleet Pace", a.renderFleetPace(components.InnerWidth(cw)), cw))
	} else {
		attnCard := components.TitledCard("Needs Attention", attnBody, halves[0])
		paceCard := components.TitledCard("Fleet Pace", paceBody, halves[1])
		b.WriteString(components.JoinCards([]string{attnCard, paceCard}))
	}
	b.WriteString("\n")

	// Row 4: Account table
	b.WriteString(components.TitledCard("Accounts", a.renderAccountTable(components.InnerWidth(cw)), cw))

	return b.String()
}

// renderEmptyState explains why there is nothing to show and what to do next.
func (a App) renderEmptyState(cw int) string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	bodyStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	reason := "No accounts configured."
	if a.loadErr != nil {
		reason = a.loadErr.Error()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("No pacing data"))
	b.WriteString("\n\n")
	b.WriteString(bodyStyle.Render(reason))
	b.WriteString("\n\n")
	b.WriteString(bodyStyle.Render("Add accounts in the config file or run `adpace setup`,"))
	b.WriteString("\n")
	b.WriteString(bodyStyle.Render("then press r to reload."))

	return components.TitledCard("Getting Started", b.String(), cw)
}

// fleetCurrency returns the shared currency code, blank when accounts mix
// currencies (summed money would be misleading with a symbol attached).
func (a App) fleetCurrency() string {
	currency := ""
	for _, s := range a.summaries {
		if currency == "" {
			currency = s.Currency
			continue
		}
		if s.Currency != currency && s.Currency != "" {
			return ""
		}
	}
	return currency
}

// fleetDailySpend sums every account's daily cost into one series.
func (a App) fleetDailySpend() []float64 {
	n := 0
	for _, s := range a.summaries {
		if len(s.PerDay) > n {
			n = len(s.PerDay)
		}
	}
	if n == 0 {
		return nil
	}
	vals := make([]float64, n)
	for _, s := range a.summaries {
		for _, row := range s.PerDay {
			if row.Day >= 1 && row.Day <= n {
				vals[row.Day-1] += row.Cost
			}
		}
	}
	return vals
}

// renderAttentionList shows the accounts furthest off pace, worst first.
func (a App) renderAttentionList(innerW int) string {
	t := theme.Active

	limit := 5
	if len(a.summaries) < limit {
		limit = len(a.summaries)
	}

	nameW := innerW / 3
	if nameW < 10 {
		nameW = 10
	}
	barW := innerW - nameW - 1
	if barW < 10 {
		barW = 10
	}

	var b strings.Builder
	for _, s := range a.summaries[:limit] {
		name := clip(displayLabel(s), nameW)
		bar := components.CompactPaceBar(fmt.Sprintf("%-*s", nameW, name), s.PctBudgetSpent, barW+nameW)
		b.WriteString(bar)
		b.WriteString("\n")
		deltaStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(components.ColorForPace(s.PaceDeltaPct))).
			Background(t.Surface)
		dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
		fmt.Fprintf(&b, "%s %s\n",
			dimStyle.Render(strings.Repeat(" ", nameW)),
			deltaStyle.Render(s.TrendLabel))
	}
	return b.String()
}

// renderFleetPace summarizes fleet totals against the shared target.
func (a App) renderFleetPace(innerW int) string {
	t := theme.Active
	r := a.rollup
	currency := a.fleetCurrency()

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	gaugeW := innerW - 16
	if gaugeW < 10 {
		gaugeW = 10
	}

	var b strings.Builder
	b.WriteString(components.BudgetGauge("Spent", r.PctBudgetSpent(), 9, gaugeW))
	b.WriteString("\n\n")

	rows := []struct{ label, value string }{
		{"Target to date", cli.FormatMoney(r.TotalTargetToDate, currency)},
		{"Spend MTD", cli.FormatMoney(r.TotalSpendMTD, currency)},
		{"Projected EOM", cli.FormatMoney(r.TotalProjected, currency)},
		{"Rec. daily", cli.FormatMoney(r.TotalRecommendedDaily, currency)},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n",
			labelStyle.Render(fmt.Sprintf("%-15s", row.label)),
			valueStyle.Render(row.value))
	}

	b.WriteString("\n")
	trendStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(components.ColorForPace(r.PaceDeltaPct()))).
		Background(t.Surface).
		Bold(true)
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-15s", "Fleet trend")))
	b.WriteString(" ")
	b.WriteString(trendStyle.Render(r.TrendLabel()))

	return b.String()
}

// renderAccountTable lists every account with its pace numbers.
func (a App) renderAccountTable(innerW int) string {
	t := theme.Active

	headerStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	numStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	nameW := innerW / 4
	if nameW < 12 {
		nameW = 12
	}
	colW := (innerW - nameW - 14) / 4
	if colW < 8 {
		colW = 8
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", headerStyle.Render(fmt.Sprintf("%-*s %*s %*s %*s %*s  %s",
		nameW, "Account", colW, "Budget", colW, "MTD", colW, "Projected", colW, "Pace", "Trend")))

	for _, s := range a.summaries {
		trendStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(components.ColorForPace(s.PaceDeltaPct))).
			Background(t.Surface)
		fmt.Fprintf(&b, "%s %s %s %s %s  %s\n",
			nameStyle.Render(fmt.Sprintf("%-*s", nameW, clip(displayLabel(s), nameW))),
			numStyle.Render(fmt.Sprintf("%*s", colW, cli.FormatMoney(s.MonthlyBudget, s.Currency))),
			numStyle.Render(fmt.Sprintf("%*s", colW, cli.FormatMoney(s.SpendMTD, s.Currency))),
			numStyle.Render(fmt.Sprintf("%*s", colW, cli.FormatMoney(s.ProjectedEOMSpend, s.Currency))),
			trendStyle.Render(fmt.Sprintf("%*s", colW, cli.FormatSignedPercent(s.PaceDeltaPct))),
			trendStyle.Render(s.TrendLabel))
	}

	for _, res := range a.report.Failures() {
		fmt.Fprintf(&b, "%s %s\n",
			nameStyle.Render(fmt.Sprintf("%-*s", nameW, clip(accountLabel(res.Account), nameW))),
			errStyle.Render(clip("error: "+res.Err.Error(), innerW-nameW-1)))
	}

	return b.String()
}

func displayLabel(s *model.AccountPacingSummary) string {
	if s.AccountName != "" {
		return s.AccountName
	}
	return s.AccountID
}

func accountLabel(acct model.Account) string {
	if acct.Name != "" {
		return acct.Name
	}
	return acct.ID
}
