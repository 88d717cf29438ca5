package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/adpace/adpace/internal/tui/theme"
)

// StatusBar renders the bottom help-and-context line. The left side
// holds keys and refresh state, the right side the month and data age.
func StatusBar(width int, monthLabel, dataAge string, refreshing, autoRefresh bool) string {
	left := " [?]help  [q]uit"
	switch {
	case refreshing:
		left += "  ⟳ refreshing"
	case autoRefresh:
		left += "  ⟳ auto"
	}

	segs := make([]string, 0, 2)
	if monthLabel != "" {
		segs = append(segs, monthLabel)
	}
	if dataAge != "" {
		segs = append(segs, "data "+dataAge)
	}
	right := strings.Join(segs, " · ") + " "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	return lipgloss.NewStyle().
		Foreground(theme.Active.TextMuted).
		Width(width).
		Render(left + strings.Repeat(" ", gap) + right)
}
