package chart

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/pacing"
)

func septemberSummary(t *testing.T, budget float64) model.AccountPacingSummary {
	t.Helper()

	ref := time.Date(2025, time.September, 15, 12, 0, 0, 0, time.UTC)
	mc := pacing.ResolveMonthAt(2025, time.September, ref, time.UTC)

	var obs []model.DailyObservation
	var mtd float64
	for d := 1; d <= mc.DaysElapsed; d++ {
		cost := 80.0 + float64(d%5)*10
		obs = append(obs, model.DailyObservation{
			Date: time.Date(2025, time.September, d, 0, 0, 0, 0, time.UTC),
			Cost: cost,
		})
		mtd += cost
	}

	acct := model.Account{ID: "acct-1", Name: "Acme Search", Currency: "USD", MonthlyBudget: budget}
	return pacing.Run(acct, mc, obs, mtd, 7)
}

func TestRenderPNG(t *testing.T) {
	s := septemberSummary(t, 3000)

	data, err := NewGenerator().Render(&s)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Render returned empty image")
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding rendered PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 800 || bounds.Dy() != 440 {
		t.Errorf("image size = %dx%d, want 800x440", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderZeroBudget(t *testing.T) {
	s := septemberSummary(t, 0)

	data, err := NewGenerator().Render(&s)
	if err != nil {
		t.Fatalf("Render with zero budget: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("decoding rendered PNG: %v", err)
	}
}

func TestRenderEmptySeries(t *testing.T) {
	s := model.AccountPacingSummary{AccountID: "acct-1"}
	if _, err := NewGenerator().Render(&s); err == nil {
		t.Fatal("expected error for empty series, got nil")
	}
}
