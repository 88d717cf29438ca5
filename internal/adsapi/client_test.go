package adsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "test-key")
	if c == nil {
		t.Fatal("NewClient returned nil for valid inputs")
	}
	return c
}

func TestNewClientRejectsEmptyInputs(t *testing.T) {
	if NewClient("", "key") != nil {
		t.Error("NewClient with empty URL should return nil")
	}
	if NewClient("https://example.com", "") != nil {
		t.Error("NewClient with empty key should return nil")
	}
	if NewClient("  ", "  ") != nil {
		t.Error("NewClient with blank inputs should return nil")
	}
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})

	if _, err := c.ListAccounts(context.Background()); err != nil {
		t.Fatalf("ListAccounts error: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want Bearer test-key", gotAuth)
	}
}

func TestClientSentinelErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusNotFound, ErrNotFound},
	}

	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		})
		_, err := c.ListAccounts(context.Background())
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestClientRetriesAfterRateLimitHint(t *testing.T) {
	hits := 0
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits++
		if hits == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	if _, err := c.ListAccounts(context.Background()); err != nil {
		t.Fatalf("ListAccounts error after retry: %v", err)
	}
	if hits != 2 {
		t.Errorf("API hits = %d, want 2 (one retry)", hits)
	}
}

func TestClientDoesNotRetryLongRateLimit(t *testing.T) {
	hits := 0
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	if _, err := c.ListAccounts(context.Background()); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if hits != 1 {
		t.Errorf("API hits = %d, want 1 (hint too long to wait for)", hits)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"2", 2 * time.Second},
		{" 5 ", 5 * time.Second},
		{"0", 0},
		{"-1", 0},
		{"", 0},
		{"Wed, 21 Oct 2026 07:28:00 GMT", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDailySpendParsesPolymorphicCosts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("month") != "2025-09" {
			t.Errorf("month query = %q, want 2025-09", r.URL.Query().Get("month"))
		}
		_, _ = w.Write([]byte(`{
			"account_id": "a-1",
			"month": "2025-09",
			"days": [
				{"date": "2025-09-03", "cost": 120.5},
				{"date": "2025-09-01", "cost": "1,234.56"},
				{"date": "2025-09-02", "cost": null},
				{"date": "2025-09-04", "cost": ""},
				{"date": "2025-09-05", "cost": -10}
			]
		}`))
	})

	obs, err := c.DailySpend(context.Background(), "a-1", 2025, time.September)
	if err != nil {
		t.Fatalf("DailySpend error: %v", err)
	}
	if len(obs) != 5 {
		t.Fatalf("len(obs) = %d, want 5", len(obs))
	}
	// Response order is preserved; the engine handles sorting.
	if obs[0].Cost != 120.5 {
		t.Errorf("obs[0].Cost = %v, want 120.5", obs[0].Cost)
	}
	if obs[1].Cost != 1234.56 {
		t.Errorf("obs[1].Cost = %v, want 1234.56 (comma stripped)", obs[1].Cost)
	}
	if obs[2].Cost != 0 || obs[3].Cost != 0 {
		t.Errorf("null/blank costs = %v, %v, want 0, 0", obs[2].Cost, obs[3].Cost)
	}
	if obs[4].Cost != 0 {
		t.Errorf("negative cost = %v, want clamped to 0", obs[4].Cost)
	}
	if got := obs[0].Date; got.Year() != 2025 || got.Month() != time.September || got.Day() != 3 {
		t.Errorf("obs[0].Date = %v, want 2025-09-03", got)
	}
}

func TestDailySpendPropagatesMalformedDate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"days": [{"date": "09/03/2025", "cost": 1}]}`))
	})

	if _, err := c.DailySpend(context.Background(), "a-1", 2025, time.September); err == nil {
		t.Fatal("want error for malformed date, got nil")
	}
}

func TestDailySpendPropagatesGarbageCost(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"days": [{"date": "2025-09-03", "cost": "twelve"}]}`))
	})

	if _, err := c.DailySpend(context.Background(), "a-1", 2025, time.September); err == nil {
		t.Fatal("want error for garbage cost, got nil")
	}
}

func TestMonthToDateSpend(t *testing.T) {
	var gotMonth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMonth = r.URL.Query().Get("month")
		_, _ = w.Write([]byte(`{"account_id": "a-1", "cost": "2,001.75", "as_of": "2025-09-10T08:00:00Z"}`))
	})

	got, err := c.MonthToDateSpend(context.Background(), "a-1", 2025, time.September)
	if err != nil {
		t.Fatalf("MonthToDateSpend error: %v", err)
	}
	if got != 2001.75 {
		t.Errorf("MonthToDateSpend = %v, want 2001.75", got)
	}
	if gotMonth != "2025-09" {
		t.Errorf("month query = %q, want 2025-09", gotMonth)
	}
}

func TestAccountMemoized(t *testing.T) {
	hits := 0
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"id": "a-1", "name": "Acme", "currency": "EUR", "timezone": "Europe/Berlin"}`))
	})

	ctx := context.Background()
	cur, err := c.CurrencyCode(ctx, "a-1")
	if err != nil {
		t.Fatalf("CurrencyCode error: %v", err)
	}
	tz, err := c.Timezone(ctx, "a-1")
	if err != nil {
		t.Fatalf("Timezone error: %v", err)
	}

	if cur != "EUR" || tz != "Europe/Berlin" {
		t.Errorf("currency/timezone = %q/%q, want EUR/Europe/Berlin", cur, tz)
	}
	if hits != 1 {
		t.Errorf("API hits = %d, want 1 (second lookup memoized)", hits)
	}
}

func TestParseCost(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{`12.5`, 12.5, false},
		{`0`, 0, false},
		{`"99"`, 99, false},
		{`"1,000,000.25"`, 1000000.25, false},
		{`null`, 0, false},
		{`""`, 0, false},
		{``, 0, false},
		{`-4`, 0, false},
		{`"-4"`, 0, false},
		{`"abc"`, 0, true},
		{`{"v": 1}`, 0, true},
	}

	for _, tt := range tests {
		got, err := parseCost([]byte(tt.raw))
		if (err != nil) != tt.wantErr {
			t.Errorf("parseCost(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseCost(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
