package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/adpace/adpace/internal/tui/theme"
)

// Tab is one entry in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // index of the shortcut letter in Name, -1 when absent
}

// Tabs defines the dashboard views in display order.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o', KeyPos: 0},
	{Name: "Pacing", Key: 'p', KeyPos: 0},
	{Name: "Accounts", Key: 'a', KeyPos: 0},
	{Name: "Settings", Key: 'x', KeyPos: -1},
}

// renderTab draws one tab cell with a single space of padding each side.
// Inactive tabs show their shortcut key in brackets.
func renderTab(tab Tab, active bool) string {
	t := theme.Active
	if active {
		return lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Render(" " + tab.Name + " ")
	}

	body := lipgloss.NewStyle().Foreground(t.TextMuted)
	bracket := lipgloss.NewStyle().Foreground(t.TextDim)
	key := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	hot := func(k string) string {
		return bracket.Render("[") + key.Render(k) + bracket.Render("]")
	}

	if tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name) {
		return body.Render(" "+tab.Name[:tab.KeyPos]) +
			hot(string(tab.Name[tab.KeyPos])) +
			body.Render(tab.Name[tab.KeyPos+1:]+" ")
	}
	// Shortcut letter absent from the name, shown after it instead.
	return body.Render(" "+tab.Name) + hot(string(tab.Key)) + body.Render(" ")
}

// TabWidth returns the rendered cell width of a tab. Click hitboxes are
// derived from it, so it has to agree with renderTab.
func TabWidth(tab Tab, active bool) int {
	return lipgloss.Width(renderTab(tab, active))
}

// TabBar renders the tab bar with the given active index.
func TabBar(activeIdx int, width int) string {
	cells := make([]string, len(Tabs))
	for i, tab := range Tabs {
		cells[i] = renderTab(tab, i == activeIdx)
	}
	return strings.Join(cells, " ")
}

// TabForKey returns the tab index for a key press, or -1.
func TabForKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
