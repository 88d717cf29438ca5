// Package chart renders pacing charts as PNG images.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/adpace/adpace/internal/model"
)

// Style defines the visual layout of a pacing chart.
type Style struct {
	Width      int
	Height     int
	Padding    int
	BarStrip   int // height of the daily-cost bar strip
	Background bool

	ActualRGB   [3]float64
	TargetRGB   [3]float64
	ForecastRGB [3]float64
	BudgetRGB   [3]float64
	BarRGB      [3]float64
}

// Generator renders account pacing summaries to PNG.
type Generator struct {
	style Style
}

// NewGenerator creates a generator with the default dark style.
func NewGenerator() *Generator {
	return &Generator{
		style: Style{
			Width:      800,
			Height:     440,
			Padding:    16,
			BarStrip:   70,
			Background: true,

			ActualRGB:   [3]float64{0.3, 0.85, 0.75},  // teal
			TargetRGB:   [3]float64{0.6, 0.6, 0.65},   // gray
			ForecastRGB: [3]float64{0.95, 0.75, 0.25}, // amber
			BudgetRGB:   [3]float64{0.9, 0.35, 0.35},  // red
			BarRGB:      [3]float64{0.35, 0.5, 0.85},  // blue
		},
	}
}

// Render draws one account's month: cumulative actual, target, and forecast
// curves over a daily-cost bar strip, with the budget as a horizontal line.
func (g *Generator) Render(s *model.AccountPacingSummary) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("account", s.AccountID).
			Debug("pacing chart rendered")
	}()

	rows := s.PerDay
	if len(rows) == 0 {
		return nil, errors.New("no daily series to render")
	}

	st := g.style
	dc := gg.NewContext(st.Width, st.Height)
	dc.SetFillRule(gg.FillRuleWinding)

	if st.Background {
		for y := 0; y < st.Height; y++ {
			t := float64(y) / float64(st.Height)
			dc.SetRGB(0.04+t*0.02, 0.05+t*0.03, 0.08+t*0.05)
			dc.DrawLine(0, float64(y), float64(st.Width), float64(y))
			dc.Stroke()
		}
	}

	face, err := loadFont(gomono.TTF, 12)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	titleFace, err := loadFont(gobold.TTF, 15)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	// Layout: title, cumulative plot, bar strip, x labels.
	left := float64(st.Padding + 52)
	right := float64(st.Width - st.Padding)
	plotTop := float64(st.Padding + 36)
	barTop := float64(st.Height - st.Padding - 20 - st.BarStrip)
	plotBottom := barTop - 12
	barBottom := float64(st.Height - st.Padding - 20)

	// Vertical scale covers everything drawn: budget, forecasts, actuals.
	maxY := s.MonthlyBudget
	maxDaily := 0.0
	for _, r := range rows {
		if r.CumForecastWMA > maxY {
			maxY = r.CumForecastWMA
		}
		if r.CumSpend > maxY {
			maxY = r.CumSpend
		}
		if r.CumTarget > maxY {
			maxY = r.CumTarget
		}
		if r.Cost > maxDaily {
			maxDaily = r.Cost
		}
	}
	if maxY <= 0 {
		maxY = 1
	}
	maxY *= 1.05

	days := len(rows)
	xFor := func(day int) float64 {
		if days == 1 {
			return left
		}
		return left + (right-left)*float64(day-1)/float64(days-1)
	}
	yFor := func(v float64) float64 {
		return plotBottom - (plotBottom-plotTop)*(v/maxY)
	}

	// Title
	dc.SetFontFace(titleFace)
	dc.SetRGB(0.95, 0.95, 0.97)
	title := fmt.Sprintf("%s  %s %d", displayName(s), s.Month, s.Year)
	drawSharpText(dc, title, float64(st.Padding), float64(st.Padding+14))
	dc.SetFontFace(face)

	// Horizontal grid with money labels.
	for i := 0; i <= 4; i++ {
		v := maxY * float64(i) / 4
		y := yFor(v)
		dc.SetRGBA(0.5, 0.5, 0.6, 0.18)
		dc.SetLineWidth(1)
		dc.DrawLine(left, y, right, y)
		dc.Stroke()
		dc.SetRGB(0.7, 0.7, 0.75)
		drawSharpText(dc, shortMoney(v), float64(st.Padding), y+4)
	}

	// Budget line.
	if s.MonthlyBudget > 0 {
		y := yFor(s.MonthlyBudget)
		dc.SetRGB(st.BudgetRGB[0], st.BudgetRGB[1], st.BudgetRGB[2])
		dc.SetLineWidth(1)
		dc.SetDash(2, 4)
		dc.DrawLine(left, y, right, y)
		dc.Stroke()
		dc.SetDash()
	}

	// Cumulative target: straight line to the month-end target.
	dc.SetRGB(st.TargetRGB[0], st.TargetRGB[1], st.TargetRGB[2])
	dc.SetLineWidth(1.5)
	dc.MoveTo(xFor(1), yFor(rows[0].CumTarget))
	for _, r := range rows[1:] {
		dc.LineTo(xFor(r.Day), yFor(r.CumTarget))
	}
	dc.Stroke()

	// Actual cumulative spend up to the elapsed day.
	elapsed := s.DaysElapsed
	if elapsed > days {
		elapsed = days
	}
	dc.SetRGB(st.ActualRGB[0], st.ActualRGB[1], st.ActualRGB[2])
	dc.SetLineWidth(2.5)
	dc.MoveTo(xFor(1), yFor(rows[0].CumSpend))
	for _, r := range rows[1:elapsed] {
		dc.LineTo(xFor(r.Day), yFor(r.CumSpend))
	}
	dc.Stroke()

	// Forecast extension from the elapsed day to month end, dashed.
	if elapsed >= 1 && elapsed < days {
		dc.SetRGB(st.ForecastRGB[0], st.ForecastRGB[1], st.ForecastRGB[2])
		dc.SetLineWidth(2)
		dc.SetDash(6, 4)
		dc.MoveTo(xFor(elapsed), yFor(rows[elapsed-1].CumForecastWMA))
		for _, r := range rows[elapsed:] {
			dc.LineTo(xFor(r.Day), yFor(r.CumForecastWMA))
		}
		dc.Stroke()
		dc.SetDash()
	}

	// Daily cost bars.
	if maxDaily > 0 {
		barW := (right - left) / float64(days) * 0.7
		for _, r := range rows {
			if r.Cost <= 0 {
				continue
			}
			h := (barBottom - barTop) * (r.Cost / maxDaily)
			dc.SetRGBA(st.BarRGB[0], st.BarRGB[1], st.BarRGB[2], 0.85)
			dc.DrawRectangle(xFor(r.Day)-barW/2, barBottom-h, barW, h)
			dc.Fill()
		}
	}

	// X axis labels every few days plus the last day.
	dc.SetRGB(0.7, 0.7, 0.75)
	step := 5
	if days <= 10 {
		step = 1
	}
	for d := 1; d <= days; d += step {
		label := fmt.Sprintf("%d", d)
		w, _ := dc.MeasureString(label)
		drawSharpText(dc, label, xFor(d)-w/2, barBottom+16)
	}
	if (days-1)%step != 0 {
		label := fmt.Sprintf("%d", days)
		w, _ := dc.MeasureString(label)
		drawSharpText(dc, label, xFor(days)-w/2, barBottom+16)
	}

	// Elapsed-day marker.
	dc.SetRGBA(0.9, 0.9, 0.95, 0.35)
	dc.SetLineWidth(1)
	dc.DrawLine(xFor(elapsed), plotTop, xFor(elapsed), barBottom)
	dc.Stroke()

	g.drawLegend(dc, right)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) drawLegend(dc *gg.Context, right float64) {
	st := g.style
	entries := []struct {
		label string
		rgb   [3]float64
	}{
		{"actual", st.ActualRGB},
		{"target", st.TargetRGB},
		{"forecast", st.ForecastRGB},
		{"budget", st.BudgetRGB},
	}

	x := right
	y := float64(st.Padding + 14)
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		w, _ := dc.MeasureString(e.label)
		x -= w
		dc.SetRGB(0.85, 0.85, 0.9)
		drawSharpText(dc, e.label, x, y)
		x -= 14
		dc.SetRGB(e.rgb[0], e.rgb[1], e.rgb[2])
		dc.DrawRectangle(x, y-8, 9, 9)
		dc.Fill()
		x -= 18
	}
}

func displayName(s *model.AccountPacingSummary) string {
	if s.AccountName != "" {
		return s.AccountName
	}
	return s.AccountID
}

// shortMoney formats an amount compactly for axis labels.
func shortMoney(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case v >= 10_000:
		return fmt.Sprintf("%.0fK", v/1_000)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// drawSharpText draws text with a subtle shadow pass for sharpness.
func drawSharpText(dc *gg.Context, text string, x, y float64) {
	dc.Push()
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawString(text, x+0.5, y+0.5)
	dc.Pop()
	dc.DrawString(text, x, y)
}

// loadFont loads a font face from embedded TTF data.
func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:       size,
		DPI:        72,
		Hinting:    font.HintingFull,
		SubPixelsX: 4,
		SubPixelsY: 4,
	}), nil
}
