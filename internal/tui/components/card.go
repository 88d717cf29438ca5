// Package components provides reusable TUI widgets for the adpace dashboard.
package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/adpace/adpace/internal/tui/theme"
)

// Stat is one label/value/delta triple rendered as a small card.
type Stat struct {
	Label string
	Value string
	Delta string
}

// SplitWidths splits totalWidth into n column widths that sum to exactly
// totalWidth, spreading any remainder across the row.
func SplitWidths(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	widths := make([]int, n)
	prev := 0
	for i := 1; i <= n; i++ {
		edge := totalWidth * i / n
		widths[i-1] = edge - prev
		prev = edge
	}
	return widths
}

// cardShell is the bordered frame shared by every card variant. outerWidth
// includes the border columns.
func cardShell(outerWidth int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Active.Border).
		Width(clampContentWidth(outerWidth - 2)).
		Padding(0, 1)
}

func clampContentWidth(w int) int {
	if w < 10 {
		return 10
	}
	return w
}

// StatCard renders one metric as a bordered card. The delta line is
// omitted when empty.
func StatCard(label, value, delta string, outerWidth int) string {
	t := theme.Active

	lines := []string{
		lipgloss.NewStyle().Foreground(t.TextMuted).Render(label),
		lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true).Render(value),
	}
	if delta != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.TextDim).Render(delta))
	}

	return cardShell(outerWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// StatRow renders metrics side by side, filling totalWidth exactly.
func StatRow(cards []Stat, totalWidth int) string {
	if len(cards) == 0 {
		return ""
	}

	widths := SplitWidths(totalWidth, len(cards))
	rendered := make([]string, len(cards))
	for i, c := range cards {
		rendered[i] = StatCard(c.Label, c.Value, c.Delta, widths[i])
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// TitledCard renders a bordered card holding arbitrary body text, with an
// optional bold title line.
func TitledCard(title, body string, outerWidth int) string {
	content := body
	if title != "" {
		titleStyle := lipgloss.NewStyle().Foreground(theme.Active.TextMuted).Bold(true)
		content = titleStyle.Render(title) + "\n" + body
	}
	return cardShell(outerWidth).Render(content)
}

// JoinCards joins pre-rendered cards horizontally, top-aligned.
func JoinCards(cards []string) string {
	if len(cards) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// InnerWidth returns the usable text width inside a card of the given
// outer width, accounting for border and padding.
func InnerWidth(outerWidth int) int {
	return clampContentWidth(outerWidth - 4)
}
