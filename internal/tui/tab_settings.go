package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/adpace/adpace/internal/cli"
	"github.com/adpace/adpace/internal/config"
	"github.com/adpace/adpace/internal/pipeline"
	"github.com/adpace/adpace/internal/tui/components"
	"github.com/adpace/adpace/internal/tui/theme"
)

const (
	prefAPIKey = iota
	prefBaseURL
	prefTheme
	prefWindow
	prefTZMode
	prefTimezone
	prefBudget
	prefRefreshMin
	prefCount // keep last
)

// prefsState is the cursor and edit state of the settings form.
type prefsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // show the saved flash
	saveErr error // last failed write, nil when clean
}

type prefRow struct {
	label string
	value string
}

// prefRows builds the form's display rows from the current config.
func (a App) prefRows(cfg config.Config) []prefRow {
	baseURL := cfg.API.BaseURL
	if baseURL == "" {
		baseURL = "(not set)"
	}
	budget := "(not set)"
	if cfg.Pacing.DefaultMonthlyBudget != nil {
		budget = fmt.Sprintf("%.0f", *cfg.Pacing.DefaultMonthlyBudget)
	}
	return []prefRow{
		{"API Key", maskKey(config.GetAPIKey(cfg))},
		{"Base URL", baseURL},
		{"Theme", cfg.Appearance.Theme},
		{"WMA Window", fmt.Sprintf("%d days", cfg.Pacing.WMAWindowDays)},
		{"Timezone Mode", cfg.Pacing.TimezoneMode},
		{"Timezone", cfg.Pacing.Timezone},
		{"Default Budget", budget},
		{"Refresh Interval", fmt.Sprintf("%dm", cfg.Daemon.RefreshMinutes)},
	}
}

// maskKey shows enough of a credential to recognize it without exposing it.
func maskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) > 14:
		return key[:6] + "..." + key[len(key)-4:]
	}
	return "****"
}

func prefInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) openPrefsEditor() (tea.Model, tea.Cmd) {
	cfg := configOrDefault()
	a.prefs.editing = true
	a.prefs.saved = false

	ti := prefInput()

	switch a.prefs.cursor {
	case prefAPIKey:
		ti.Placeholder = "API key for the ads platform"
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
		if existing := config.GetAPIKey(cfg); existing != "" {
			ti.SetValue(existing)
		}
	case prefBaseURL:
		ti.Placeholder = "https://ads.example.com/api/v2"
		ti.SetValue(cfg.API.BaseURL)
	case prefTheme:
		ti.Placeholder = "flexoki-dark, catppuccin-mocha, nord, terminal"
		ti.SetValue(cfg.Appearance.Theme)
	case prefWindow:
		ti.Placeholder = "7"
		ti.SetValue(strconv.Itoa(cfg.Pacing.WMAWindowDays))
	case prefTZMode:
		ti.Placeholder = config.TimezoneModeFixed + " or " + config.TimezoneModeAccount
		ti.SetValue(cfg.Pacing.TimezoneMode)
	case prefTimezone:
		ti.Placeholder = "UTC, Europe/Stockholm, America/New_York ..."
		ti.SetValue(cfg.Pacing.Timezone)
	case prefBudget:
		ti.Placeholder = "5000 (leave empty to clear)"
		if cfg.Pacing.DefaultMonthlyBudget != nil {
			ti.SetValue(fmt.Sprintf("%.0f", *cfg.Pacing.DefaultMonthlyBudget))
		}
	case prefRefreshMin:
		ti.Placeholder = "30 (minutes)"
		ti.SetValue(strconv.Itoa(cfg.Daemon.RefreshMinutes))
	}

	ti.Focus()
	a.prefs.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) handlePrefsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		needsReload := a.savePrefs()
		a.prefs.editing = false
		a.prefs.saved = a.prefs.saveErr == nil
		if needsReload && a.prefs.saveErr == nil && !a.refreshing {
			a.refreshing = true
			return a, refetchCmd(a.year, a.month, a.noCache)
		}
		return a, nil
	case "esc":
		a.prefs.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.prefs.input, cmd = a.prefs.input.Update(msg)
	return a, cmd
}

// savePrefs writes the edited field back to the config file. It reports
// whether the change affects pacing evaluation and needs a data reload.
func (a *App) savePrefs() bool {
	cfg := configOrDefault()
	val := strings.TrimSpace(a.prefs.input.Value())
	needsReload := false

	switch a.prefs.cursor {
	case prefAPIKey:
		cfg.API.APIKey = val
		needsReload = true
	case prefBaseURL:
		cfg.API.BaseURL = val
		needsReload = true
	case prefTheme:
		if theme.ByName(val).Name == val {
			cfg.Appearance.Theme = val
			theme.SetActive(val)
		}
	case prefWindow:
		if d, err := strconv.Atoi(val); err == nil && d > 0 {
			cfg.Pacing.WMAWindowDays = d
			needsReload = true
		}
	case prefTZMode:
		if val == config.TimezoneModeFixed || val == config.TimezoneModeAccount {
			cfg.Pacing.TimezoneMode = val
			needsReload = true
		}
	case prefTimezone:
		if _, err := time.LoadLocation(val); err == nil && val != "" {
			cfg.Pacing.Timezone = val
			needsReload = true
		}
	case prefBudget:
		if val == "" {
			cfg.Pacing.DefaultMonthlyBudget = nil
			needsReload = true
		} else if b, err := strconv.ParseFloat(val, 64); err == nil && b >= 0 {
			cfg.Pacing.DefaultMonthlyBudget = &b
			needsReload = true
		}
	case prefRefreshMin:
		if m, err := strconv.Atoi(val); err == nil && m >= 1 {
			cfg.Daemon.RefreshMinutes = m
			a.refreshInterval = time.Duration(m) * time.Minute
		}
	}

	a.cfg = cfg
	a.prefs.saveErr = config.Save(cfg)
	return needsReload
}

// prefLine draws one form row in its edit, selected, or idle state.
func (a App) prefLine(f prefRow, idx, cw int) string {
	t := theme.Active

	if a.prefs.editing && idx == a.prefs.cursor {
		marker := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright).Render("▸ ")
		name := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).
			Render(fmt.Sprintf("%-18s ", f.label))
		return marker + name + a.prefs.input.View()
	}

	if idx == a.prefs.cursor {
		marker := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright).Render("▸ ")
		name := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true).
			Render(fmt.Sprintf("%-18s ", f.label+":"))
		val := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true).
			Render(f.value)
		row := marker + name + val
		// Extend the highlight across the full card interior.
		if pad := components.InnerWidth(cw) - lipgloss.Width(row); pad > 0 {
			row += lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad))
		}
		return row
	}

	name := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
		Render(fmt.Sprintf("%-18s ", f.label+":"))
	val := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Render(f.value)
	return lipgloss.NewStyle().Background(t.Surface).Render("  ") + name + val
}

func (a App) viewSettings(cw int) string {
	t := theme.Active
	cfg := configOrDefault()

	var form strings.Builder
	for i, f := range a.prefRows(cfg) {
		form.WriteString(a.prefLine(f, i, cw))
		form.WriteByte('\n')
	}

	switch {
	case a.prefs.saveErr != nil:
		warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		form.WriteString("\n" + warn.Render(fmt.Sprintf("Save failed: %s", a.prefs.saveErr)))
	case a.prefs.saved:
		ok := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
		form.WriteString("\n" + ok.Render("Saved!"))
	}

	hint := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	form.WriteString("\n" + hint.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	plain := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	kv := func(k, v string) string {
		return hint.Render(fmt.Sprintf("%-18s", k)) + plain.Render(v)
	}
	info := strings.Join([]string{
		kv("Config file:", config.ConfigPath()),
		kv("Spend cache:", pipeline.CachePath()),
		kv("Accounts tracked:", cli.FormatNumber(int64(len(a.summaries)))),
		kv("Month under view:", a.monthTitle()),
		kv("Last load:", fmt.Sprintf("%.1fs", a.loadTime.Seconds())),
	}, "\n")

	return components.TitledCard("Settings", form.String(), cw) + "\n" +
		components.TitledCard("General", info, cw)
}
