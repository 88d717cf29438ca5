package model

import "time"

// Account is the merged view of a configured account and provider metadata.
type Account struct {
	ID            string
	Name          string
	Currency      string
	Timezone      string
	MonthlyBudget float64
	Include       bool
}

// AccountResult is the outcome of one account's pacing run. Exactly one of
// Summary and Err is set.
type AccountResult struct {
	Account Account
	Summary *AccountPacingSummary
	Err     error
}

// BatchReport collects per-account results for one run. A failing account is
// counted here rather than aborting the batch.
type BatchReport struct {
	RunID     string
	Year      int
	Month     time.Month
	Started   time.Time
	Finished  time.Time
	Results   []AccountResult
	Succeeded int
	Failed    int
}

// Summaries returns the successful summaries in result order.
func (r *BatchReport) Summaries() []*AccountPacingSummary {
	out := make([]*AccountPacingSummary, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Err == nil && res.Summary != nil {
			out = append(out, res.Summary)
		}
	}
	return out
}

// Failures returns the results that carry an error, in result order.
func (r *BatchReport) Failures() []AccountResult {
	var out []AccountResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}
