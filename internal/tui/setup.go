package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/adpace/adpace/internal/config"
	"github.com/adpace/adpace/internal/tui/theme"
)

// setupValues holds the first-run form answers until they are saved.
type setupValues struct {
	baseURL string
	apiKey  string
	window  string
	tzMode  string
	budget  string
	theme   string
}

func setupValuesFromConfig(cfg config.Config) setupValues {
	v := setupValues{
		baseURL: cfg.API.BaseURL,
		window:  strconv.Itoa(cfg.Pacing.WMAWindowDays),
		tzMode:  cfg.Pacing.TimezoneMode,
		theme:   cfg.Appearance.Theme,
	}
	if cfg.Pacing.DefaultMonthlyBudget != nil {
		v.budget = strconv.FormatFloat(*cfg.Pacing.DefaultMonthlyBudget, 'f', -1, 64)
	}
	return v
}

// newSetupForm builds the first-run wizard. accountCount is the number of
// accounts the initial load found, shown so the user knows where they stand.
func newSetupForm(accountCount int, vals *setupValues) *huh.Form {
	found := "No accounts found yet; add them under [accounts] in the config file\nor let the API discovery fill them in."
	if accountCount > 0 {
		found = fmt.Sprintf("Found %d account(s) to track.", accountCount)
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, p := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(p.Name, p.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("◈ adpace setup").
				Description("Monthly ad budget pacing for your ad accounts.\n\n"+found),

			huh.NewInput().
				Title("Ads API base URL").
				Description("Leave blank to work from imported spend files only.").
				Placeholder("https://ads.example.com/api/v2").
				Value(&vals.baseURL),

			huh.NewInput().
				Title("API key").
				Description("Stored in the config file; ADPACE_API_KEY overrides it.").
				EchoMode(huh.EchoModePassword).
				Value(&vals.apiKey),
		),

		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Forecast window").
				Description("Recent days weighted into the spend forecast.").
				Options(
					huh.NewOption("3 days (reactive)", "3"),
					huh.NewOption("7 days (default)", "7"),
					huh.NewOption("14 days (smooth)", "14"),
				).
				Value(&vals.window),

			huh.NewSelect[string]().
				Title("Timezone handling").
				Options(
					huh.NewOption("One fixed timezone for all accounts", config.TimezoneModeFixed),
					huh.NewOption("Each account's own timezone", config.TimezoneModeAccount),
				).
				Value(&vals.tzMode),

			huh.NewInput().
				Title("Default monthly budget").
				Description("Used for accounts without their own budget. Blank to skip.").
				Placeholder("5000").
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						return nil
					}
					v, err := strconv.ParseFloat(s, 64)
					if err != nil || v < 0 {
						return fmt.Errorf("enter a non-negative number")
					}
					return nil
				}).
				Value(&vals.budget),

			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.theme),
		),
	)
}

// applyWizardConfig maps the form answers onto the config file. Blank answers
// keep their existing values.
func (a *App) applyWizardConfig() error {
	cfg := configOrDefault()

	if v := strings.TrimSpace(a.setupVals.baseURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(a.setupVals.apiKey); v != "" {
		cfg.API.APIKey = v
	}
	if n, err := strconv.Atoi(strings.TrimSpace(a.setupVals.window)); err == nil && n > 0 {
		cfg.Pacing.WMAWindowDays = n
	}
	if a.setupVals.tzMode != "" {
		cfg.Pacing.TimezoneMode = a.setupVals.tzMode
	}
	if v := strings.TrimSpace(a.setupVals.budget); v != "" {
		if b, err := strconv.ParseFloat(v, 64); err == nil && b >= 0 {
			cfg.Pacing.DefaultMonthlyBudget = &b
		}
	}
	if a.setupVals.theme != "" {
		cfg.Appearance.Theme = a.setupVals.theme
		theme.SetActive(cfg.Appearance.Theme)
	}

	return config.Save(cfg)
}
