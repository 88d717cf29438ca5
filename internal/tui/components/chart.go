package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/adpace/adpace/internal/tui/theme"
)

// Eighth blocks from lowest to full, shared by both chart renderers.
var barRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders values as a single row of eighth blocks scaled to the
// series peak. Zero values still draw the lowest block.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := maxOf(values)
	if peak <= 0 {
		peak = 1
	}
	cells := make([]rune, len(values))
	for i, v := range values {
		lvl := int(math.Round(v / peak * float64(len(barRunes)-1)))
		if lvl < 0 {
			lvl = 0
		}
		if lvl > len(barRunes)-1 {
			lvl = len(barRunes) - 1
		}
		cells[i] = barRunes[lvl]
	}
	return lipgloss.NewStyle().
		Foreground(color).
		Background(theme.Active.Surface).
		Render(string(cells))
}

// BarChart draws a columnar chart with a scaled y axis and sparse labels
// along the x axis. Boxes too small for an axis fall back to a sparkline.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}

	ceiling, ticks := axisScale(maxOf(values), height)

	gutter := len(axisLabel(ceiling)) + 1
	if gutter < 4 {
		gutter = 4
	}
	plotW := width - gutter - 1
	if plotW < 5 {
		plotW = 5
	}

	values, labels = fitSeries(values, labels, plotW)
	n := len(values)
	barW, gap := barGeometry(n, plotW)
	span := n*barW + (n-1)*gap

	rowsPerTick := height / ticks
	if rowsPerTick < 2 {
		rowsPerTick = 2
	}
	plotH := rowsPerTick * ticks

	// Bar heights in eighths of a row, so each cell is an integer lookup.
	eighths := make([]int, n)
	for i, v := range values {
		e := int(math.Ceil(v / ceiling * float64(plotH*8)))
		if e < 0 {
			e = 0
		}
		if e > plotH*8 {
			e = plotH * 8
		}
		eighths[i] = e
	}

	t := theme.Active
	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := plotH; row >= 1; row-- {
		// Brighter shade near the top of the plot.
		shade := t.Accent
		switch {
		case row*5 > plotH*4:
			shade = t.AccentBright
		case row*2 > plotH:
			shade = color
		}
		bar := lipgloss.NewStyle().Foreground(shade).Background(t.Surface)

		tick := ""
		if row%rowsPerTick == 0 {
			tick = axisLabel(ceiling * float64(row) / float64(plotH))
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s", gutter, tick)))
		b.WriteString(axis.Render("│"))

		floor := (row - 1) * 8
		for i, e := range eighths {
			if i > 0 && gap > 0 {
				b.WriteString(blank.Render(strings.Repeat(" ", gap)))
			}
			switch {
			case e >= floor+8:
				b.WriteString(bar.Render(strings.Repeat("█", barW)))
			case e > floor:
				b.WriteString(bar.Render(strings.Repeat(string(barRunes[e-floor-1]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteByte('\n')
	}

	b.WriteString(axis.Render(fmt.Sprintf("%*s", gutter, "0")))
	b.WriteString(axis.Render("└" + strings.Repeat("─", span)))

	if row := xAxisLabels(labels, n, barW, gap, span); row != "" {
		b.WriteByte('\n')
		b.WriteString(blank.Render(strings.Repeat(" ", gutter+1)))
		b.WriteString(axis.Render(row))
	}
	return b.String()
}

func maxOf(values []float64) float64 {
	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}
	return peak
}

// axisScale picks how many ticks fit the height and returns the chart
// ceiling, a round multiple of the tick step at or above the series peak.
func axisScale(peak float64, height int) (ceiling float64, ticks int) {
	if peak <= 0 {
		peak = 1
	}
	ticks = height / 3
	if ticks < 1 {
		ticks = 1
	}
	if ticks > 4 {
		ticks = 4
	}
	step := niceStep(peak / float64(ticks))
	return step * float64(ticks), ticks
}

// niceStep rounds v up to the nearest 1, 2, or 5 times a power of ten.
func niceStep(v float64) float64 {
	if v <= 0 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(v)))
	switch {
	case v <= mag:
		return mag
	case v <= 2*mag:
		return 2 * mag
	case v <= 5*mag:
		return 5 * mag
	}
	return 10 * mag
}

// fitSeries averages neighbouring points when the series has more values
// than the plot can give a column each.
func fitSeries(values []float64, labels []string, plotW int) ([]float64, []string) {
	cols := plotW / 2
	if cols < 2 {
		cols = 2
	}
	n := len(values)
	if n <= cols {
		return values, labels
	}
	out := make([]float64, cols)
	var outLabels []string
	if len(labels) == n {
		outLabels = make([]string, cols)
	}
	for i := range out {
		lo := i * n / cols
		hi := (i + 1) * n / cols
		sum := 0.0
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
		if outLabels != nil {
			outLabels[i] = labels[lo]
		}
	}
	return out, outLabels
}

// barGeometry sizes bars so the series spans most of the plot width.
func barGeometry(n, plotW int) (barW, gap int) {
	if n <= 1 {
		w := plotW
		if w > 8 {
			w = 8
		}
		return w, 0
	}
	gap = 1
	barW = (plotW - (n - 1)) / n
	if barW < 1 {
		barW = 1
	}
	if barW > 6 {
		barW = 6
	}
	return barW, gap
}

// xAxisLabels lays labels under their bars, skipping as many as needed to
// keep at least two blank cells between neighbours.
func xAxisLabels(labels []string, n, barW, gap, span int) string {
	if len(labels) != n || n == 0 {
		return ""
	}
	row := make([]byte, span)
	for i := range row {
		row[i] = ' '
	}
	stride := barW + gap
	widest := 0
	for _, l := range labels {
		if len(l) > widest {
			widest = len(l)
		}
	}
	every := 1
	if stride > 0 {
		every = (widest + 1 + stride) / stride
	}
	if every < 1 {
		every = 1
	}
	for i := 0; i < n; i += every {
		pos := i * stride
		for j := 0; j < len(labels[i]) && pos+j < span; j++ {
			row[pos+j] = labels[i][j]
		}
	}
	return strings.TrimRight(string(row), " ")
}

// axisLabel abbreviates a tick value to at most a few characters.
func axisLabel(v float64) string {
	switch {
	case v >= 1e9:
		return trimZero(v/1e9) + "B"
	case v >= 1e6:
		return trimZero(v/1e6) + "M"
	case v >= 1e3:
		return trimZero(v/1e3) + "k"
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func trimZero(v float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.1f", v), ".0")
}
