package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/adpace/adpace/internal/tui/theme"
)

// surface styles the given foreground over the panel surface color.
func surface(fg lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(fg).Background(theme.Active.Surface)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ProgressBar renders a horizontal bar with a trailing percentage.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = clamp01(pct)
	filled := int(pct*float64(width) + 0.5)
	if filled > width {
		filled = width
	}

	tone := t.Cyan
	switch {
	case pct >= 0.8:
		tone = t.AccentBright
	case pct >= 0.5:
		tone = t.Accent
	}

	return surface(tone).Render(strings.Repeat("█", filled)) +
		surface(t.TextDim).Render(strings.Repeat("░", width-filled)) +
		surface(tone).Render(" ") +
		surface(tone).Bold(true).Render(fmt.Sprintf("%.0f%%", pct*100))
}

// ColorForBudgetPct returns green/yellow/orange/red by budget consumption.
func ColorForBudgetPct(pct float64) string {
	t := theme.Active
	switch {
	case pct >= 1.0:
		return string(t.Red)
	case pct >= 0.9:
		return string(t.Orange)
	case pct >= 0.75:
		return string(t.Yellow)
	}
	return string(t.Green)
}

// ColorForPace returns the trend color for a pace delta: red when
// overpacing past the band, orange when underpacing, green inside it.
func ColorForPace(delta float64) string {
	t := theme.Active
	switch {
	case delta > 0.05:
		return string(t.Red)
	case delta < -0.05:
		return string(t.Orange)
	}
	return string(t.Green)
}

// gaugeBar builds a bubbles progress bar colored by budget consumption.
func gaugeBar(pct float64, width int) progress.Model {
	bar := progress.New(
		progress.WithSolidFill(ColorForBudgetPct(pct)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(theme.Active.TextDim)
	return bar
}

// BudgetGauge renders a labeled budget consumption bar with percentage,
// colored by how much of the budget is gone.
func BudgetGauge(label string, pct float64, labelW, barWidth int) string {
	tone := lipgloss.Color(ColorForBudgetPct(pct))
	return surface(theme.Active.TextMuted).Render(fmt.Sprintf("%-*s", labelW, label)) +
		surface(tone).Render(" ") +
		gaugeBar(pct, barWidth).ViewAs(clamp01(pct)) +
		surface(tone).Render(" ") +
		surface(tone).Bold(true).Render(fmt.Sprintf("%3.0f%%", pct*100))
}

// CompactPaceBar renders a tiny status-bar-sized spend indicator.
func CompactPaceBar(label string, pct float64, width int) string {
	// Label, two separator spaces, and the percent cell flank the bar.
	barW := width - (lipgloss.Width(label) + 6)
	if barW < 4 {
		barW = 4
	}
	tone := lipgloss.Color(ColorForBudgetPct(pct))
	return surface(theme.Active.TextMuted).Render(label) +
		surface(tone).Render(" ") +
		gaugeBar(pct, barW).ViewAs(clamp01(pct)) +
		surface(tone).Render(" ") +
		surface(tone).Bold(true).Render(fmt.Sprintf("%2.0f%%", pct*100))
}
