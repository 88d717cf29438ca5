package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/adpace/adpace/internal/model"
)

// Palette for plain command output, matching the TUI's default Flexoki look.
// The exported colors are shared with commands that style their own lines.
var (
	ColorTextDim = lipgloss.Color("#575653")
	ColorGreen   = lipgloss.Color("#879A39")
	ColorOrange  = lipgloss.Color("#DA702C")
	ColorRed     = lipgloss.Color("#D14D41")

	colorText   = lipgloss.Color("#FFFCF0")
	colorMuted  = lipgloss.Color("#6F6E69")
	colorAccent = lipgloss.Color("#3AA99F")
	colorBorder = lipgloss.Color("#282726")
)

var (
	titleText = lipgloss.NewStyle().Bold(true).Foreground(colorText).Align(lipgloss.Center)
	heading   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	cellText  = lipgloss.NewStyle().Foreground(colorText)
	mutedText = lipgloss.NewStyle().Foreground(colorMuted)
	frame     = lipgloss.NewStyle().Foreground(ColorTextDim)
	paceGood  = lipgloss.NewStyle().Foreground(ColorGreen)
	paceOver  = lipgloss.NewStyle().Foreground(ColorRed)
	paceSlow  = lipgloss.NewStyle().Foreground(ColorOrange)
)

// TrendText colors a pacing trend label: green on target, red over,
// orange under.
func TrendText(label string) string {
	switch {
	case label == model.TrendOnTarget:
		return paceGood.Render(label)
	case strings.HasPrefix(label, "Over"):
		return paceOver.Render(label)
	case strings.HasPrefix(label, "Under"):
		return paceSlow.Render(label)
	}
	return mutedText.Render(label)
}

// PaceText colors a signed pace delta the same way TrendText buckets it.
func PaceText(delta float64) string {
	s := FormatSignedPercent(delta)
	switch {
	case delta > 0.05:
		return paceOver.Render(s)
	case delta < -0.05:
		return paceSlow.Render(s)
	}
	return paceGood.Render(s)
}

// Table is a bordered text table. A row of exactly {"---"} renders as a
// horizontal rule.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle draws a centered title in a rounded box.
func RenderTitle(title string) string {
	w := lipgloss.Width(title) + 4
	if w < 55 {
		w = 55
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(w).
		Align(lipgloss.Center).
		Padding(0, 1)
	return box.Render(titleText.Render(title))
}

// RenderTable renders the table with unicode borders. The first column is
// left-aligned, the rest right-aligned for numeric data.
func RenderTable(t Table) string {
	cols := len(t.Headers)
	for _, row := range t.Rows {
		if !isRule(row) && len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return ""
	}
	widths := measure(t, cols)

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + heading.Render(t.Title) + "\n")
	}
	b.WriteString(rule("╭", "┬", "╮", widths))
	if len(t.Headers) > 0 {
		writeCells(&b, t.Headers, widths, heading, true)
		b.WriteString(rule("├", "┼", "┤", widths))
	}
	for _, row := range t.Rows {
		if isRule(row) {
			b.WriteString(rule("├", "┼", "┤", widths))
			continue
		}
		writeCells(&b, row, widths, cellText, false)
	}
	b.WriteString(rule("╰", "┴", "╯", widths))
	return b.String()
}

// measure sizes each column to its widest header or cell.
func measure(t Table, cols int) []int {
	widths := make([]int, cols)
	for i, h := range t.Headers {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		if isRule(row) {
			continue
		}
		for i, cell := range row {
			if i < cols && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

// rule draws a horizontal border line with the given end and junction runes.
func rule(left, mid, right string, widths []int) string {
	spans := make([]string, len(widths))
	for i, w := range widths {
		spans[i] = strings.Repeat("─", w+2)
	}
	return frame.Render(left+strings.Join(spans, mid)+right) + "\n"
}

// writeCells writes one row. Headers left-align every cell; data rows
// left-align only the first column.
func writeCells(b *strings.Builder, cells []string, widths []int, style lipgloss.Style, header bool) {
	b.WriteString(frame.Render("│"))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if header || i == 0 {
			b.WriteString(style.Render(fmt.Sprintf(" %-*s ", w, cell)))
		} else {
			b.WriteString(style.Render(fmt.Sprintf(" %*s ", w, cell)))
		}
		if i < len(widths)-1 {
			b.WriteString(frame.Render("│"))
		}
	}
	b.WriteString(frame.Render("│"))
	b.WriteByte('\n')
}

func isRule(row []string) bool {
	return len(row) == 1 && row[0] == "---"
}

// RenderSparkline draws values as one row of eighth blocks scaled to the
// series peak.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}
	if peak <= 0 {
		peak = 1
	}
	ramp := []rune("▁▂▃▄▅▆▇█")
	out := make([]rune, len(values))
	for i, v := range values {
		lvl := int(v / peak * float64(len(ramp)-1))
		if lvl < 0 {
			lvl = 0
		}
		if lvl > len(ramp)-1 {
			lvl = len(ramp) - 1
		}
		out[i] = ramp[lvl]
	}
	return string(out)
}

// RenderBudgetBar renders a budget consumption bar with a pace marker.
// The marker shows where spend should be today; the fill shows where it is.
func RenderBudgetBar(pctSpent, pctTarget float64, width int) string {
	if width <= 0 {
		return ""
	}

	clamp := func(f float64) float64 {
		if f < 0 {
			return 0
		}
		if f > 1 {
			return 1
		}
		return f
	}

	filled := int(clamp(pctSpent) * float64(width))
	marker := int(clamp(pctTarget) * float64(width))
	if marker >= width {
		marker = width - 1
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == marker:
			b.WriteString(cellText.Render("┃"))
		case i < filled:
			b.WriteString(paceGood.Render("█"))
		default:
			b.WriteString(frame.Render("░"))
		}
	}
	return b.String()
}
