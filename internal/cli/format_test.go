package cli

import (
	"strings"
	"testing"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		v        float64
		currency string
		want     string
	}{
		{0, "USD", "$0.00"},
		{9.999, "USD", "$10.00"},
		{42.128, "USD", "$42.1"},
		{512.4, "USD", "$512"},
		{1234.5, "USD", "$1,235"},
		{1234567.89, "USD", "$1,234,568"},
		{-56.7, "USD", "-$56.7"},
		{99.5, "EUR", "€99.5"},
		{250, "GBP", "£250"},
		{42.128, "SEK", "42.13 SEK"},
		{1500, "SEK", "1,500 SEK"},
		{77.7, "", "77.7"},
	}

	for _, tt := range tests {
		if got := FormatMoney(tt.v, tt.currency); got != tt.want {
			t.Errorf("FormatMoney(%v, %q) = %q, want %q", tt.v, tt.currency, got, tt.want)
		}
	}
}

func TestFormatSignedPercent(t *testing.T) {
	tests := []struct {
		f    float64
		want string
	}{
		{0.125, "+12.5%"},
		{-0.03, "-3.0%"},
		{0, "+0.0%"},
	}

	for _, tt := range tests {
		if got := FormatSignedPercent(tt.f); got != tt.want {
			t.Errorf("FormatSignedPercent(%v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.n); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "0s"},
		{45, "45s"},
		{125, "2m"},
		{3725, "1h 2m"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.secs); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestTrendTextKeepsLabel(t *testing.T) {
	for _, label := range []string{"On Target", "Over 12%", "Under 5%"} {
		if got := TrendText(label); !strings.Contains(got, label) {
			t.Errorf("TrendText(%q) = %q, does not contain label", label, got)
		}
	}
}

func TestRenderBudgetBar(t *testing.T) {
	bar := RenderBudgetBar(0.5, 0.75, 20)
	if bar == "" {
		t.Fatal("RenderBudgetBar returned empty string")
	}
	if !strings.Contains(bar, "┃") {
		t.Errorf("budget bar %q missing pace marker", bar)
	}

	if got := RenderBudgetBar(0.5, 0.5, 0); got != "" {
		t.Errorf("RenderBudgetBar with zero width = %q, want empty", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline(nil); got != "" {
		t.Errorf("RenderSparkline(nil) = %q, want empty", got)
	}

	got := RenderSparkline([]float64{0, 1, 2, 4})
	if len([]rune(got)) != 4 {
		t.Errorf("sparkline length = %d, want 4", len([]rune(got)))
	}
}
