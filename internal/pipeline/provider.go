package pipeline

import (
	"context"
	"time"

	"github.com/adpace/adpace/internal/adsapi"
	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/store"
)

// SpendProvider supplies per-account spend data for one month. The live API
// client implements it; CacheProvider serves previously fetched or imported
// data so the engine runs identically offline.
type SpendProvider interface {
	DailySpend(ctx context.Context, accountID string, year int, month time.Month) ([]model.DailyObservation, error)
	MonthToDateSpend(ctx context.Context, accountID string, year int, month time.Month) (float64, error)
	CurrencyCode(ctx context.Context, accountID string) (string, error)
	Timezone(ctx context.Context, accountID string) (string, error)
}

var (
	_ SpendProvider = (*adsapi.Client)(nil)
	_ SpendProvider = (*CacheProvider)(nil)
)

// CacheProvider serves spend data from the local cache.
type CacheProvider struct {
	cache    *store.Cache
	accounts map[string]model.Account
}

// NewCacheProvider wraps an open cache. Account identity rows are loaded
// once up front.
func NewCacheProvider(cache *store.Cache) (*CacheProvider, error) {
	accounts, err := cache.Accounts()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &CacheProvider{cache: cache, accounts: byID}, nil
}

func (p *CacheProvider) DailySpend(ctx context.Context, accountID string, year int, month time.Month) ([]model.DailyObservation, error) {
	return p.cache.DailySpend(accountID, year, month)
}

// MonthToDateSpend prefers the provider-reported total captured at fetch
// time. Import-only data has no such total, so it falls back to summing the
// cached daily rows.
func (p *CacheProvider) MonthToDateSpend(ctx context.Context, accountID string, year int, month time.Month) (float64, error) {
	total, found, err := p.cache.MonthTotal(accountID, year, month)
	if err != nil {
		return 0, err
	}
	if found {
		return total, nil
	}
	return p.cache.SummedSpend(accountID, year, month)
}

// CurrencyCode returns the cached currency, or "" for an unknown account.
func (p *CacheProvider) CurrencyCode(ctx context.Context, accountID string) (string, error) {
	return p.accounts[accountID].Currency, nil
}

// Timezone returns the cached timezone, or "" for an unknown account.
func (p *CacheProvider) Timezone(ctx context.Context, accountID string) (string, error) {
	return p.accounts[accountID].Timezone, nil
}
