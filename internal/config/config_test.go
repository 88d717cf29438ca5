package config

import (
	"os"
	"path/filepath"
	"testing"
)

func withTempConfig(t *testing.T, contents string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if contents != "" {
		if err := os.MkdirAll(filepath.Join(dir, "adpace"), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "adpace", "config.toml"), []byte(contents), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}
}

func TestLoadReturnsDefaultsWhenMissing(t *testing.T) {
	withTempConfig(t, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Pacing.WMAWindowDays != DefaultWMAWindowDays {
		t.Errorf("WMAWindowDays = %d, want %d", cfg.Pacing.WMAWindowDays, DefaultWMAWindowDays)
	}
	if cfg.Pacing.TimezoneMode != TimezoneModeFixed {
		t.Errorf("TimezoneMode = %q, want %q", cfg.Pacing.TimezoneMode, TimezoneModeFixed)
	}
	if cfg.Appearance.Theme != "flexoki-dark" {
		t.Errorf("Theme = %q, want flexoki-dark", cfg.Appearance.Theme)
	}
}

func TestLoadNormalizesBadValues(t *testing.T) {
	withTempConfig(t, `
[pacing]
wma_window_days = 0
timezone_mode = "nonsense"

[api]
timeout_seconds = -5
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Pacing.WMAWindowDays != DefaultWMAWindowDays {
		t.Errorf("WMAWindowDays = %d, want %d after normalize", cfg.Pacing.WMAWindowDays, DefaultWMAWindowDays)
	}
	if cfg.Pacing.TimezoneMode != TimezoneModeFixed {
		t.Errorf("TimezoneMode = %q, want %q after normalize", cfg.Pacing.TimezoneMode, TimezoneModeFixed)
	}
	if cfg.API.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30 after normalize", cfg.API.TimeoutSeconds)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	withTempConfig(t, "")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://ads.example.com/api/v1"
	cfg.Pacing.WMAWindowDays = 14
	budget := 2500.0
	include := false
	cfg.Accounts = map[string]AccountConfig{
		"acct-1": {Name: "Acme DE", MonthlyBudget: &budget},
		"acct-2": {Include: &include},
	}

	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.API.BaseURL != cfg.API.BaseURL {
		t.Errorf("BaseURL = %q, want %q", loaded.API.BaseURL, cfg.API.BaseURL)
	}
	if loaded.Pacing.WMAWindowDays != 14 {
		t.Errorf("WMAWindowDays = %d, want 14", loaded.Pacing.WMAWindowDays)
	}
	if got := loaded.Accounts["acct-1"]; got.MonthlyBudget == nil || *got.MonthlyBudget != 2500 {
		t.Errorf("acct-1 budget = %v, want 2500", got.MonthlyBudget)
	}
}

func TestGetAPIKeyPrefersEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.APIKey = "from-config"

	t.Setenv("ADPACE_API_KEY", "from-env")
	if got := GetAPIKey(cfg); got != "from-env" {
		t.Errorf("GetAPIKey = %q, want from-env", got)
	}

	t.Setenv("ADPACE_API_KEY", "")
	if got := GetAPIKey(cfg); got != "from-config" {
		t.Errorf("GetAPIKey = %q, want from-config", got)
	}
}

func TestIncludedAccounts(t *testing.T) {
	b1, b2, zero := 1000.0, 2000.0, 0.0
	no := false

	cfg := DefaultConfig()
	cfg.Accounts = map[string]AccountConfig{
		"c": {Name: "Charlie", MonthlyBudget: &b2},
		"a": {MonthlyBudget: &b1},
		"b": {MonthlyBudget: &b2, Include: &no}, // excluded by flag
		"d": {MonthlyBudget: &zero},             // excluded: no positive budget
		"e": {},                                 // excluded: no budget at all
	}

	got := cfg.IncludedAccounts()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("ids = %s,%s, want a,c (sorted)", got[0].ID, got[1].ID)
	}
	if got[0].Name != "a" {
		t.Errorf("unnamed account Name = %q, want id fallback", got[0].Name)
	}
	if got[1].Name != "Charlie" {
		t.Errorf("named account Name = %q, want Charlie", got[1].Name)
	}
}

func TestIncludedAccountsDefaultBudget(t *testing.T) {
	def := 500.0
	cfg := DefaultConfig()
	cfg.Pacing.DefaultMonthlyBudget = &def
	cfg.Accounts = map[string]AccountConfig{"a": {}}

	got := cfg.IncludedAccounts()
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].MonthlyBudget != 500 {
		t.Errorf("budget = %v, want default 500", got[0].MonthlyBudget)
	}
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pacing.Timezone = ""
	loc, err := cfg.Location()
	if err != nil || loc == nil {
		t.Fatalf("empty timezone: loc=%v err=%v, want UTC", loc, err)
	}

	cfg.Pacing.Timezone = "not/a/zone"
	if _, err := cfg.Location(); err == nil {
		t.Fatal("bogus timezone: want error")
	}
}
