// Package adsapi provides a client for the advertising spend reporting API.
package adsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/adpace/adpace/internal/model"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
)

var (
	// ErrUnauthorized indicates the API key is missing, expired or invalid.
	ErrUnauthorized = errors.New("adsapi: unauthorized (check ADPACE_API_KEY)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("adsapi: rate limited")
	// ErrNotFound indicates the account does not exist on the API side.
	ErrNotFound = errors.New("adsapi: account not found")
)

// Client fetches spend data from the reporting API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	timeout time.Duration
	limiter *rate.Limiter

	mu    sync.RWMutex
	infos map[string]AccountInfo
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient creates a client for the given endpoint. Returns nil if the base
// URL or key is empty; callers treat that as "API not configured".
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	apiKey = strings.TrimSpace(apiKey)
	if baseURL == "" || apiKey == "" {
		return nil
	}

	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{},
		timeout: defaultTimeout,
		infos:   make(map[string]AccountInfo),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListAccounts returns all accounts visible to this API key.
func (c *Client) ListAccounts(ctx context.Context) ([]AccountInfo, error) {
	body, err := c.get(ctx, "/accounts")
	if err != nil {
		return nil, err
	}

	var infos []AccountInfo
	if err := json.Unmarshal(body, &infos); err != nil {
		return nil, fmt.Errorf("adsapi: parsing accounts: %w", err)
	}
	return infos, nil
}

// Account returns metadata for one account. Results are memoized for the
// client's lifetime since currency and timezone never change mid-run.
func (c *Client) Account(ctx context.Context, accountID string) (AccountInfo, error) {
	c.mu.RLock()
	info, ok := c.infos[accountID]
	c.mu.RUnlock()
	if ok {
		return info, nil
	}

	body, err := c.get(ctx, "/accounts/"+url.PathEscape(accountID))
	if err != nil {
		return AccountInfo{}, err
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return AccountInfo{}, fmt.Errorf("adsapi: parsing account %s: %w", accountID, err)
	}

	c.mu.Lock()
	c.infos[accountID] = info
	c.mu.Unlock()
	return info, nil
}

// DailySpend returns per-day observations for the given month. Days may come
// back unsorted; the engine sorts and merges. Costs arrive already normalized
// to non-negative values with absent or blank entries defaulted to zero.
func (c *Client) DailySpend(ctx context.Context, accountID string, year int, month time.Month) ([]model.DailyObservation, error) {
	path := fmt.Sprintf("/accounts/%s/spend/daily?month=%04d-%02d", url.PathEscape(accountID), year, int(month))
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var raw DailySpendResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("adsapi: parsing daily spend for %s: %w", accountID, err)
	}

	obs := make([]model.DailyObservation, 0, len(raw.Days))
	for _, d := range raw.Days {
		date, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			return nil, fmt.Errorf("adsapi: account %s: bad date %q: %w", accountID, d.Date, err)
		}
		cost, err := parseCost(d.Cost)
		if err != nil {
			return nil, fmt.Errorf("adsapi: account %s day %s: %w", accountID, d.Date, err)
		}
		obs = append(obs, model.DailyObservation{Date: date.UTC(), Cost: cost})
	}
	return obs, nil
}

// MonthToDateSpend returns the authoritative spend total for the given
// month: month-to-date for the current month, the full-month total for past
// months. It can differ slightly from the summed daily report when the
// API's daily attribution lags.
func (c *Client) MonthToDateSpend(ctx context.Context, accountID string, year int, month time.Month) (float64, error) {
	path := fmt.Sprintf("/accounts/%s/spend/total?month=%04d-%02d", url.PathEscape(accountID), year, int(month))
	body, err := c.get(ctx, path)
	if err != nil {
		return 0, err
	}

	var raw MTDResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("adsapi: parsing mtd for %s: %w", accountID, err)
	}
	cost, err := parseCost(raw.Cost)
	if err != nil {
		return 0, fmt.Errorf("adsapi: account %s mtd: %w", accountID, err)
	}
	return cost, nil
}

// CurrencyCode returns the account's ISO currency code, passed through opaquely.
func (c *Client) CurrencyCode(ctx context.Context, accountID string) (string, error) {
	info, err := c.Account(ctx, accountID)
	if err != nil {
		return "", err
	}
	return info.Currency, nil
}

// Timezone returns the account's IANA timezone identifier.
func (c *Client) Timezone(ctx context.Context, accountID string) (string, error) {
	info, err := c.Account(ctx, accountID)
	if err != nil {
		return "", err
	}
	return info.Timezone, nil
}

// maxRetryAfter bounds how long a 429 Retry-After hint is honored before
// giving up and surfacing ErrRateLimited.
const maxRetryAfter = 5 * time.Second

// get performs an authenticated GET request and returns the response body.
// On HTTP 429 with a short Retry-After hint it waits and retries once.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	body, retryAfter, err := c.doGet(ctx, path)
	if errors.Is(err, ErrRateLimited) && retryAfter > 0 && retryAfter <= maxRetryAfter {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryAfter):
		}
		body, _, err = c.doGet(ctx, path)
	}
	return body, err
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, time.Duration, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("adsapi: rate limiter: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("adsapi: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "github.com/adpace/adpace/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("adsapi: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, 0, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), ErrRateLimited
	case http.StatusNotFound:
		return nil, 0, ErrNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, 0, fmt.Errorf("adsapi: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, 0, fmt.Errorf("adsapi: reading response: %w", err)
	}
	return body, 0, nil
}

// parseRetryAfter reads a Retry-After header given in whole seconds.
// HTTP-date values and garbage yield zero, meaning "do not retry".
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// parseCost reads the polymorphic cost field. Absent, null, and blank
// values default to zero; negative values clamp to zero. A value that is
// present but unparseable is an error for the caller to decide on.
func parseCost(raw json.RawMessage) (float64, error) {
	trimmed := strings.TrimSpace(string(raw))
	if len(trimmed) == 0 || trimmed == "null" || trimmed == `""` {
		return 0, nil
	}

	// Try number first (covers both int and float JSON)
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return clampCost(f), nil
	}

	// Formatted string, e.g. "1,234.56"
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if s == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable cost %q", s)
		}
		return clampCost(v), nil
	}

	return 0, fmt.Errorf("unparseable cost %s", trimmed)
}

func clampCost(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
