package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/adpace/adpace/internal/cli"
	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/tui/components"
	"github.com/adpace/adpace/internal/tui/theme"
)

// Accounts view modes. Split is iota (0) so it's the default zero value.
const (
	acctViewSplit  = iota // List + full detail side by side (default)
	acctViewDetail        // Full-screen detail
)

// acctState holds the accounts tab state. The cursor is shared with the
// pacing tab so both views track the same selected account.
type acctState struct {
	cursor     int
	mode       int
	offset     int // scroll offset for the list
	paneScroll int // scroll offset for the detail pane

	filtering   bool
	filterInput textinput.Model
	filterQuery string
}

func newFilterInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "account name or id"
	ti.CharLimit = 64
	ti.Width = 24
	return ti
}

func (a App) viewAccounts(filtered []*model.AccountPacingSummary, cw, h int) string {
	t := theme.Active
	as := a.acctState

	if len(filtered) == 0 && !as.filtering {
		if as.filterQuery != "" {
			body := lipgloss.NewStyle().Foreground(t.TextMuted).Render(
				fmt.Sprintf("No accounts match %q. Esc clears the filter.", as.filterQuery))
			return components.TitledCard("Accounts", body, cw)
		}
		return a.renderEmptyState(cw)
	}

	switch as.mode {
	case acctViewDetail:
		return a.renderAccountDetail(filtered, cw, h)
	default:
		return a.renderAccountsSplit(filtered, cw, h)
	}
}

func (a App) renderAccountsSplit(summaries []*model.AccountPacingSummary, cw, h int) string {
	t := theme.Active
	as := a.acctState

	leftW := cw / 3
	if leftW < 30 {
		leftW = 30
	}
	rightW := cw - leftW

	// Left pane: condensed account list
	leftInner := components.InnerWidth(leftW)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	var leftBody strings.Builder

	if as.filtering {
		leftBody.WriteString(mutedStyle.Render("/ "))
		leftBody.WriteString(as.filterInput.View())
		leftBody.WriteString("\n")
	} else if as.filterQuery != "" {
		leftBody.WriteString(mutedStyle.Render(fmt.Sprintf("filter: %s (esc clears)", as.filterQuery)))
		leftBody.WriteString("\n")
	}

	visible := h - 6 // card border (2) + header row (2) + footer hint (2)
	if visible < 5 {
		visible = 5
	}

	offset := as.offset
	if as.cursor < offset {
		offset = as.cursor
	}
	if as.cursor >= offset+visible {
		offset = as.cursor - visible + 1
	}

	end := offset + visible
	if end > len(summaries) {
		end = len(summaries)
	}

	nameW := leftInner - 9
	if nameW < 10 {
		nameW = 10
	}

	for i := offset; i < end; i++ {
		s := summaries[i]
		dot := lipgloss.NewStyle().
			Foreground(lipgloss.Color(components.ColorForPace(s.PaceDeltaPct))).
			Render("●")
		line := fmt.Sprintf("%-*s %6s", nameW, clip(displayLabel(s), nameW),
			cli.FormatSignedPercent(s.PaceDeltaPct))

		if i == as.cursor {
			leftBody.WriteString(dot + " " + selectedStyle.Render(line))
		} else {
			leftBody.WriteString(dot + " " + rowStyle.Render(line))
		}
		leftBody.WriteString("\n")
	}

	title := fmt.Sprintf("Accounts (%d)", len(summaries))
	leftCard := components.TitledCard(title, leftBody.String(), leftW)

	// Right pane: full account detail
	var rightCard string
	if len(summaries) > 0 {
		cursor := as.cursor
		if cursor >= len(summaries) {
			cursor = len(summaries) - 1
		}
		sel := summaries[cursor]
		rightBody := a.renderAccountBody(sel, rightW, headerStyle, mutedStyle)
		rightCard = components.TitledCard(displayLabel(sel), rightBody, rightW)
	} else {
		rightCard = components.TitledCard("Account", mutedStyle.Render("No match"), rightW)
	}

	return components.JoinCards([]string{leftCard, rightCard})
}

func (a App) renderAccountDetail(summaries []*model.AccountPacingSummary, cw, h int) string {
	t := theme.Active
	as := a.acctState

	if len(summaries) == 0 {
		return a.renderEmptyState(cw)
	}
	cursor := as.cursor
	if cursor >= len(summaries) {
		cursor = len(summaries) - 1
	}
	sel := summaries[cursor]

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	body := a.renderAccountBody(sel, cw, headerStyle, mutedStyle)

	return components.TitledCard(displayLabel(sel), body, cw)
}

// renderAccountBody generates the full detail content for an account.
// Used by both the split right pane and the full-screen detail view.
func (a App) renderAccountBody(sel *model.AccountPacingSummary, w int, headerStyle, mutedStyle lipgloss.Style) string {
	t := theme.Active
	innerW := components.InnerWidth(w)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)

	var body strings.Builder
	body.WriteString(mutedStyle.Render(fmt.Sprintf("%s · %s · day %d of %d",
		sel.AccountID, sel.Currency, sel.DaysElapsed, sel.DaysInMonth)))
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", innerW)))
	body.WriteString("\n\n")

	gaugeW := innerW - 16
	if gaugeW < 10 {
		gaugeW = 10
	}
	body.WriteString(components.BudgetGauge("Spent", sel.PctBudgetSpent, 9, gaugeW))
	body.WriteString("\n\n")

	trendStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(components.ColorForPace(sel.PaceDeltaPct))).
		Bold(true)

	numbers := []struct{ label, value string }{
		{"Budget:", cli.FormatMoney(sel.MonthlyBudget, sel.Currency)},
		{"Spend MTD:", cli.FormatMoney(sel.SpendMTD, sel.Currency)},
		{"Target to date:", cli.FormatMoney(sel.TargetSpendToDate, sel.Currency)},
		{"Pace vs target:", cli.FormatSignedMoney(sel.PaceVsTarget, sel.Currency)},
		{"Remaining:", cli.FormatMoney(sel.AvailableRemaining, sel.Currency)},
		{"Projected EOM:", cli.FormatMoney(sel.ProjectedEOMSpend, sel.Currency)},
		{"Rec. daily:", cli.FormatMoney(sel.RecommendedDailySpend, sel.Currency)},
	}
	for _, n := range numbers {
		body.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render(fmt.Sprintf("%-16s", n.label)),
			valueStyle.Render(n.value)))
	}
	body.WriteString(fmt.Sprintf("%s %s %s\n\n",
		labelStyle.Render(fmt.Sprintf("%-16s", "Trend:")),
		trendStyle.Render(sel.TrendLabel),
		mutedStyle.Render(fmt.Sprintf("(%s vs target)", cli.FormatSignedPercent(sel.PaceDeltaPct)))))

	// Recent days table
	if sel.DaysElapsed > 0 && len(sel.PerDay) > 0 {
		body.WriteString(headerStyle.Render("RECENT DAYS"))
		body.WriteString("\n")
		body.WriteString(headerStyle.Render(fmt.Sprintf("%-7s %10s %12s %12s %10s %7s",
			"Day", "Cost", "Cum Spend", "Cum Target", "Gap", "Pace")))
		body.WriteString("\n")
		body.WriteString(mutedStyle.Render(strings.Repeat("─", 62)))
		body.WriteString("\n")

		first := sel.DaysElapsed - 7
		if first < 0 {
			first = 0
		}
		for _, row := range sel.PerDay[first:sel.DaysElapsed] {
			body.WriteString(valueStyle.Render(fmt.Sprintf("%-7s %10s %12s %12s %10s %6.0f%%",
				row.Date.Format("Jan 02"),
				cli.FormatMoney(row.Cost, sel.Currency),
				cli.FormatMoney(row.CumSpend, sel.Currency),
				cli.FormatMoney(row.CumTarget, sel.Currency),
				cli.FormatSignedMoney(row.CumGap, sel.Currency),
				row.RunningPacePct*100)))
			body.WriteString("\n")
		}
	}

	body.WriteString("\n")
	body.WriteString(mutedStyle.Render("[Enter] expand  [j/k] navigate  [/] search  [q] quit"))

	out := body.String()

	// Apply detail scroll by dropping leading lines
	if a.acctState.paneScroll > 0 {
		lines := strings.Split(out, "\n")
		skip := a.acctState.paneScroll
		if skip >= len(lines) {
			skip = len(lines) - 1
		}
		out = strings.Join(lines[skip:], "\n")
	}

	return out
}
