// Package config loads and saves adpace configuration from the XDG config dir.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/adpace/adpace/internal/model"
)

// Timezone modes. Fixed-zone evaluates every account in one configured zone;
// use-account-zone asks the provider for each account's own zone.
const (
	TimezoneModeFixed   = "fixed-zone"
	TimezoneModeAccount = "use-account-zone"
)

// DefaultWMAWindowDays is the forecast window when none is configured.
const DefaultWMAWindowDays = 7

// Config holds all adpace configuration.
type Config struct {
	API        APIConfig                `toml:"api"`
	Pacing     PacingConfig             `toml:"pacing"`
	Appearance AppearanceConfig         `toml:"appearance"`
	Daemon     DaemonConfig             `toml:"daemon"`
	Accounts   map[string]AccountConfig `toml:"accounts,omitempty"`
}

// APIConfig holds reporting API settings.
type APIConfig struct {
	BaseURL           string  `toml:"base_url,omitempty"`
	APIKey            string  `toml:"api_key,omitempty"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// PacingConfig holds the knobs the pacing engine reads.
type PacingConfig struct {
	WMAWindowDays        int      `toml:"wma_window_days"`
	TimezoneMode         string   `toml:"timezone_mode"`
	Timezone             string   `toml:"timezone"`
	DefaultMonthlyBudget *float64 `toml:"default_monthly_budget,omitempty"`
}

// AppearanceConfig selects the dashboard palette.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Listen         string `toml:"listen"`
	RefreshMinutes int    `toml:"refresh_minutes"`
}

// AccountConfig holds per-account overrides. Optional fields stay pointers so
// an absent value is distinguishable from an explicit zero.
type AccountConfig struct {
	Name          string   `toml:"name,omitempty"`
	MonthlyBudget *float64 `toml:"monthly_budget,omitempty"`
	Include       *bool    `toml:"include,omitempty"`
	Timezone      string   `toml:"timezone,omitempty"`
}

// DefaultConfig is the configuration in effect before any file exists.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			TimeoutSeconds:    30,
			RequestsPerSecond: 4,
		},
		Pacing: PacingConfig{
			WMAWindowDays: DefaultWMAWindowDays,
			TimezoneMode:  TimezoneModeFixed,
			Timezone:      "UTC",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Daemon: DaemonConfig{
			Listen:         "127.0.0.1:7319",
			RefreshMinutes: 30,
		},
	}
}

// pathOverride takes precedence over the XDG lookup when set. The --config
// flag sets it before any Load or Save.
var pathOverride string

// SetPath overrides the config file location for this process.
func SetPath(p string) {
	pathOverride = p
}

// ConfigDir resolves the directory the config file lives in, honoring
// XDG_CONFIG_HOME when set.
func ConfigDir() string {
	if pathOverride != "" {
		return filepath.Dir(pathOverride)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "adpace")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "adpace")
}

// ConfigPath is the absolute location of config.toml.
func ConfigPath() string {
	if pathOverride != "" {
		return pathOverride
	}
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads config.toml, falling back to defaults when the file is absent.
// Out-of-range values are normalized rather than rejected.
func Load() (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

// Save writes cfg to config.toml, creating the directory as needed. The
// file stays 0600 since it can hold an API key.
func Save(cfg Config) error {
	if err := os.MkdirAll(ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	out, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open config for write: %w", err)
	}
	defer out.Close()

	return toml.NewEncoder(out).Encode(cfg)
}

// Exists reports whether a config file has been written.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// GetAPIKey returns the API key from env var or config, in that order.
func GetAPIKey(cfg Config) string {
	if key := os.Getenv("ADPACE_API_KEY"); key != "" {
		return key
	}
	return cfg.API.APIKey
}

func (c *Config) normalize() {
	if c.Pacing.WMAWindowDays < 1 {
		c.Pacing.WMAWindowDays = DefaultWMAWindowDays
	}
	if c.Pacing.TimezoneMode != TimezoneModeAccount {
		c.Pacing.TimezoneMode = TimezoneModeFixed
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = 30
	}
	if c.API.RequestsPerSecond <= 0 {
		c.API.RequestsPerSecond = 4
	}
	if c.Daemon.RefreshMinutes < 1 {
		c.Daemon.RefreshMinutes = 30
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = "127.0.0.1:7319"
	}
}

// Location resolves the configured fixed timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Pacing.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Pacing.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Pacing.Timezone, err)
	}
	return loc, nil
}

// IncludedAccounts returns the configured accounts that pass the include
// filter and carry a positive budget, sorted by id. Accounts with a budget
// of zero or less never reach the engine.
func (c Config) IncludedAccounts() []model.Account {
	out := make([]model.Account, 0, len(c.Accounts))
	for id, ac := range c.Accounts {
		if ac.Include != nil && !*ac.Include {
			continue
		}
		budget := 0.0
		if ac.MonthlyBudget != nil {
			budget = *ac.MonthlyBudget
		} else if c.Pacing.DefaultMonthlyBudget != nil {
			budget = *c.Pacing.DefaultMonthlyBudget
		}
		if budget <= 0 {
			continue
		}
		name := ac.Name
		if name == "" {
			name = id
		}
		out = append(out, model.Account{
			ID:            id,
			Name:          name,
			Timezone:      ac.Timezone,
			MonthlyBudget: budget,
			Include:       true,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
