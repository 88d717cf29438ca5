package adsapi

import "encoding/json"

// AccountInfo is the account metadata record from the reporting API.
type AccountInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
}

// DailySpendResponse is the raw daily spend report for one month.
type DailySpendResponse struct {
	AccountID string     `json:"account_id"`
	Month     string     `json:"month"`
	Days      []SpendDay `json:"days"`
}

// SpendDay is one reported day. Cost can arrive as a number, a formatted
// string, or null, so it stays raw JSON until parseCost runs.
type SpendDay struct {
	Date string          `json:"date"`
	Cost json.RawMessage `json:"cost"`
}

// MTDResponse is the raw month-to-date total payload.
type MTDResponse struct {
	AccountID string          `json:"account_id"`
	Cost      json.RawMessage `json:"cost"`
	AsOf      string          `json:"as_of"`
}
