// Package tui provides the interactive Bubble Tea dashboard for adpace.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adpace/adpace/internal/adsapi"
	"github.com/adpace/adpace/internal/cli"
	"github.com/adpace/adpace/internal/config"
	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/pipeline"
	"github.com/adpace/adpace/internal/store"
	"github.com/adpace/adpace/internal/tui/components"
	"github.com/adpace/adpace/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// LoadResultMsg is sent when the initial data load finishes.
type LoadResultMsg struct {
	Report   model.BatchReport
	LoadTime time.Duration
	Err      error
}

// ProgressMsg reports account fetch progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshResultMsg carries the result of a background refetch.
type RefreshResultMsg struct {
	Report   model.BatchReport
	LoadTime time.Duration
	Err      error
}

// App is the top-level Bubble Tea model for the dashboard.
type App struct {
	// Data
	report   model.BatchReport
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// Pre-computed from the current report
	cfg       config.Config
	summaries []*model.AccountPacingSummary
	rollup    pipeline.Rollup

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Month under view
	year    int
	month   time.Month
	noCache bool

	// Per-tab state
	acctState acctState
	prefs     prefsState

	// First-run wizard, present only until it completes or aborts
	wizard    *huh.Form
	setupVals setupValues
	firstRun  bool

	// Loading state, fed by the loader goroutine via loaderCh
	spinner     spinner.Model
	progress    int
	progressMax int
	loaderCh    chan tea.Msg // progress + completion messages from loader goroutine
}

// Tab indexes, in the order components.Tabs lists them.
const (
	tabOverview = iota
	tabPacing
	tabAccounts
	tabSettings
)

// Layout breakpoints, in terminal columns.
const (
	minCols      = 80  // below this the dashboard refuses to render
	compactUnder = 120 // below this the accounts tab collapses to one pane
	maxCols      = 180 // content column cap on very wide terminals
)

// chromeRows approximates the header and status bar rows that never
// scroll, for sizing half-page jumps.
const chromeRows = 10

// Options selects the month under view and the data path into it.
type Options struct {
	Year    int
	Month   time.Month
	NoCache bool
}

// Run starts the dashboard and blocks until the user quits.
func Run(opts Options) error {
	// Force TrueColor so background styling produces ANSI codes even when
	// lipgloss would otherwise detect an Ascii profile.
	lipgloss.SetColorProfile(termenv.TrueColor)

	p := tea.NewProgram(NewApp(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// configOrDefault falls back to defaults when the config file is
// missing or unreadable.
func configOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// NewApp builds the initial model for the given month options.
func NewApp(opts Options) App {
	firstRun := !config.Exists()

	cfg := configOrDefault()
	theme.SetActive(cfg.Appearance.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	year, month := opts.Year, opts.Month
	if year == 0 || month == 0 {
		now := time.Now()
		year, month = now.Year(), now.Month()
	}

	refreshInterval := time.Duration(cfg.Daemon.RefreshMinutes) * time.Minute
	if refreshInterval < time.Minute {
		refreshInterval = 30 * time.Minute
	}

	return App{
		cfg:             cfg,
		year:            year,
		month:           month,
		noCache:         opts.NoCache,
		firstRun:        firstRun,
		autoRefresh:     true,
		refreshInterval: refreshInterval,
		spinner:         sp,
		loaderCh:        make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		startLoader(a.year, a.month, a.noCache, a.loaderCh),
		a.spinner.Tick,
		tickCmd(),
	)
}

func (a *App) recalc() {
	summaries := a.report.Summaries()
	pipeline.SortByAttention(summaries)
	a.summaries = summaries
	a.rollup = pipeline.BuildRollup(a.report)

	// Clamp the account cursor to the new filtered list bounds
	visible := a.visibleSummaries()
	if a.acctState.cursor >= len(visible) {
		a.acctState.cursor = len(visible) - 1
	}
	if a.acctState.cursor < 0 {
		a.acctState.cursor = 0
	}
	a.acctState.paneScroll = 0
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Keep the wizard sized to the terminal.
		if a.wizard != nil {
			a.wizard = a.wizard.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		// ctrl+c quits from any state.
		if key == "ctrl+c" {
			return a, tea.Quit
		}

		if !a.loaded {
			return a, nil
		}

		// The first-run wizard owns the keyboard until it finishes.
		if a.firstRun && a.wizard != nil {
			return a.updateWizard(msg)
		}

		// So does an open settings editor or the account filter box.
		if a.activeTab == tabSettings && a.prefs.editing {
			return a.handlePrefsKey(msg)
		}
		if a.activeTab == tabAccounts && a.acctState.filtering {
			return a.handleFilterKey(msg)
		}

		// Help overlay: ? toggles, any other key dismisses.
		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		// Pacing tab: j/k cycles the selected account
		if a.activeTab == tabPacing {
			visible := a.visibleSummaries()
			switch key {
			case "j", "down":
				if a.acctState.cursor < len(visible)-1 {
					a.acctState.cursor++
				}
				return a, nil
			case "k", "up":
				if a.acctState.cursor > 0 {
					a.acctState.cursor--
				}
				return a, nil
			case "g":
				a.acctState.cursor = 0
				return a, nil
			case "G":
				a.acctState.cursor = len(visible) - 1
				if a.acctState.cursor < 0 {
					a.acctState.cursor = 0
				}
				return a, nil
			}
		}

		// Accounts tab has its own keybindings
		if a.activeTab == tabAccounts {
			compactAccounts := a.isCompactLayout()
			visible := a.visibleSummaries()

			switch key {
			case "/":
				// Open the filter box
				a.acctState.filtering = true
				a.acctState.filterInput = newFilterInput()
				a.acctState.filterInput.Focus()
				return a, a.acctState.filterInput.Cursor.BlinkCmd()
			case "q":
				if !compactAccounts && a.acctState.mode == acctViewDetail {
					a.acctState.mode = acctViewSplit
					return a, nil
				}
				return a, tea.Quit
			case "enter", "f":
				if compactAccounts {
					return a, nil
				}
				if a.acctState.mode == acctViewSplit {
					a.acctState.mode = acctViewDetail
				}
				return a, nil
			case "esc":
				// First esc drops the filter, the next leaves detail view.
				if a.acctState.filterQuery != "" {
					a.acctState.filterQuery = ""
					a.acctState.cursor = 0
					a.acctState.offset = 0
					return a, nil
				}
				if compactAccounts {
					return a, nil
				}
				if a.acctState.mode == acctViewDetail {
					a.acctState.mode = acctViewSplit
				}
				return a, nil
			case "j", "down":
				if a.acctState.cursor < len(visible)-1 {
					a.acctState.cursor++
					a.acctState.paneScroll = 0
				}
				return a, nil
			case "k", "up":
				if a.acctState.cursor > 0 {
					a.acctState.cursor--
					a.acctState.paneScroll = 0
				}
				return a, nil
			case "g":
				a.acctState.cursor = 0
				a.acctState.offset = 0
				a.acctState.paneScroll = 0
				return a, nil
			case "G":
				a.acctState.cursor = len(visible) - 1
				if a.acctState.cursor < 0 {
					a.acctState.cursor = 0
				}
				a.acctState.paneScroll = 0
				return a, nil
			case "J":
				a.acctState.paneScroll++
				return a, nil
			case "K":
				if a.acctState.paneScroll > 0 {
					a.acctState.paneScroll--
				}
				return a, nil
			case "ctrl+d":
				a.acctState.paneScroll += a.halfPage()
				return a, nil
			case "ctrl+u":
				a.acctState.paneScroll -= a.halfPage()
				if a.acctState.paneScroll < 0 {
					a.acctState.paneScroll = 0
				}
				return a, nil
			}
		}

		// Settings cursor movement while no field is being edited.
		if a.activeTab == tabSettings {
			switch key {
			case "j", "down":
				if a.prefs.cursor < prefCount-1 {
					a.prefs.cursor++
				}
				return a, nil
			case "k", "up":
				if a.prefs.cursor > 0 {
					a.prefs.cursor--
				}
				return a, nil
			case "enter":
				return a.openPrefsEditor()
			}
		}

		// q quits everywhere except the accounts tab, handled above.
		if key == "q" {
			return a, tea.Quit
		}

		// r forces a refetch, R toggles the automatic one.
		if key == "r" && !a.refreshing {
			a.refreshing = true
			return a, refetchCmd(a.year, a.month, a.noCache)
		}
		if key == "R" {
			a.autoRefresh = !a.autoRefresh
			return a, nil
		}

		switch key {
		case "o", "p", "a", "x":
			if idx := components.TabForKey(rune(key[0])); idx >= 0 {
				a.activeTab = idx
			}
		case "left":
			a = a.cycleTab(-1)
		case "right":
			a = a.cycleTab(1)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || (a.firstRun && a.wizard != nil) {
			return a, nil
		}

		switch msg.Button {
		case tea.MouseButtonWheelUp:
			// Wheel moves the account cursor on the pacing and accounts tabs.
			if (a.activeTab == tabPacing || a.activeTab == tabAccounts) && !a.acctState.filtering {
				if a.acctState.cursor > 0 {
					a.acctState.cursor--
					a.acctState.paneScroll = 0
				}
			}
			return a, nil

		case tea.MouseButtonWheelDown:
			if (a.activeTab == tabPacing || a.activeTab == tabAccounts) && !a.acctState.filtering {
				visible := a.visibleSummaries()
				if a.acctState.cursor < len(visible)-1 {
					a.acctState.cursor++
					a.acctState.paneScroll = 0
				}
			}
			return a, nil

		case tea.MouseButtonLeft:
			// The tab bar occupies the top two rows.
			if msg.Y <= 1 {
				if tab := a.tabAtX(msg.X); tab >= 0 && tab < len(components.Tabs) {
					a.activeTab = tab
				}
			}
			return a, nil
		}
		return a, nil

	case LoadResultMsg:
		a.loaded = true
		a.loadErr = msg.Err
		a.loadTime = msg.LoadTime
		a.lastRefresh = time.Now()
		if msg.Err == nil {
			a.report = msg.Report
			a.cfg = configOrDefault()
			a.recalc()
		}

		// Bring up the wizard after the initial load so it can report
		// how many accounts it found
		if a.firstRun {
			a.setupVals = setupValuesFromConfig(a.cfg)
			a.wizard = newSetupForm(len(a.report.Results), &a.setupVals)
			if a.width > 0 {
				a.wizard = a.wizard.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.wizard.Init()
		}

		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, awaitLoader(a.loaderCh)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}

		// Kick off the periodic refetch once the interval has passed.
		if a.loaded && a.autoRefresh && !a.refreshing {
			if time.Since(a.lastRefresh) >= a.refreshInterval {
				a.refreshing = true
				cmds = append(cmds, refetchCmd(a.year, a.month, a.noCache))
			}
		}

		return a, tea.Batch(cmds...)

	case RefreshResultMsg:
		a.refreshing = false
		a.lastRefresh = time.Now()
		if msg.Err == nil {
			a.report = msg.Report
			a.loadErr = nil
			a.loadTime = msg.LoadTime
			a.cfg = configOrDefault()
			a.recalc()
		} else if len(a.report.Results) == 0 {
			a.loadErr = msg.Err
		}
		return a, nil
	}

	// Everything else goes to the wizard so its cursor keeps blinking.
	if a.firstRun && a.wizard != nil {
		return a.updateWizard(msg)
	}

	return a, nil
}

func (a App) updateWizard(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.wizard.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.wizard = f
	}

	if a.wizard.State == huh.StateCompleted {
		_ = a.applyWizardConfig()
		a.cfg = configOrDefault()
		a.firstRun = false
		a.wizard = nil
		// Reload with the new credentials and account list
		a.refreshing = true
		return a, refetchCmd(a.year, a.month, a.noCache)
	}

	if a.wizard.State == huh.StateAborted {
		a.firstRun = false
		a.wizard = nil
		return a, nil
	}

	return a, cmd
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxCols {
		cw = maxCols
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactUnder
}

// cycleTab moves the active tab by step, wrapping at both ends.
func (a App) cycleTab(step int) App {
	n := len(components.Tabs)
	a.activeTab = (a.activeTab + step + n) % n
	return a
}

// halfPage is the ctrl+d / ctrl+u scroll step: half the rows left after
// the chrome, at least one line.
func (a App) halfPage() int {
	if hp := (a.height - chromeRows) / 2; hp > 1 {
		return hp
	}
	return 1
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minCols {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	// The wizard owns the whole screen until it finishes.
	if a.firstRun && a.wizard != nil {
		return a.wizard.View()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  adpace needs at least %d columns.\n  Current width: %d\n",
		a.width,
		minCols,
		a.width,
	)

	return fitHeight(msg, h)
}

// overlay centers a bordered card over a blank full-screen background.
func (a App) overlay(body string, padV, padH int) string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(padV, padH).
		Render(body)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoading() string {
	t := theme.Active
	logo := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	plain := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	spin := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Render(a.spinner.View())

	var b strings.Builder
	b.WriteString(logo.Render("◈ adpace"))
	b.WriteString(muted.Render(" · Ad Budget Pacing"))
	b.WriteString("\n\n")

	if a.progressMax == 0 {
		b.WriteString(spin)
		b.WriteString(muted.Render(" Loading accounts..."))
		return a.overlay(b.String(), 2, 4)
	}

	barW := 40
	if barW > a.width-30 {
		barW = a.width - 30
	}
	if barW < 20 {
		barW = 20
	}
	b.WriteString(spin)
	b.WriteString(muted.Render(" Fetching spend\n\n"))
	b.WriteString(components.ProgressBar(float64(a.progress)/float64(a.progressMax), barW))
	b.WriteString("\n")
	b.WriteString(plain.Render(cli.FormatNumber(int64(a.progress))))
	b.WriteString(muted.Render(" / "))
	b.WriteString(plain.Render(cli.FormatNumber(int64(a.progressMax))))
	b.WriteString(muted.Render(" accounts"))
	return a.overlay(b.String(), 2, 4)
}

func (a App) viewHelp() string {
	t := theme.Active
	title := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	keycap := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	desc := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	// Blank rows break the list into tab / account / data groups.
	rows := []struct{ keys, what string }{
		{"o p a x", "Jump to tab"},
		{"← →", "Cycle tabs"},
		{"", ""},
		{"j k", "Select account"},
		{"Enter", "Expand account detail"},
		{"/", "Filter accounts"},
		{"Esc", "Back / Clear filter"},
		{"J K", "Scroll the detail pane"},
		{"^d ^u", "Scroll half a page"},
		{"", ""},
		{"r", "Refetch spend data"},
		{"R", "Auto-refresh on or off"},
		{"?", "Show or hide this help"},
		{"q", "Quit"},
	}

	var b strings.Builder
	b.WriteString(title.Render("◈ Key Bindings"))
	b.WriteString("\n\n")
	for _, row := range rows {
		if row.keys == "" {
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "  %s  %s\n",
			keycap.Render(fmt.Sprintf("%-10s", row.keys)),
			desc.Render(row.what))
	}
	b.WriteString("\n")
	b.WriteString(dim.Render("Any other key returns to the dashboard"))

	return a.overlay(b.String(), 1, 3)
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar plus the context pill (window, tz, cache mode)
	sep := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pill := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	parts := []string{fmt.Sprintf("wma %dd", a.cfg.Pacing.WMAWindowDays)}
	if a.cfg.Pacing.TimezoneMode == config.TimezoneModeAccount {
		parts = append(parts, "account tz")
	} else {
		parts = append(parts, a.cfg.Pacing.Timezone)
	}
	if a.noCache {
		parts = append(parts, "live")
	}
	pillStr := sep.Render(" ")
	for i, p := range parts {
		if i > 0 {
			pillStr += sep.Render(" │ ")
		}
		pillStr += pill.Render(p)
	}
	pillStr += sep.Render(" ")

	pillRow := lipgloss.NewStyle().Background(t.Surface).Width(w)
	header := components.TabBar(a.activeTab, w) + "\n" + pillRow.Render(pillStr)

	// 2. Status bar, needed now so its height can be subtracted
	dataAge := cli.FormatDuration(int64(time.Since(a.lastRefresh).Seconds()))
	statusBar := components.StatusBar(w, a.monthTitle(), dataAge, a.refreshing, a.autoRefresh)

	// 3. Height left for the active tab
	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < 5 {
		contentH = 5
	}

	// 4. Active tab body (accounts needs the height for its list window)
	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.viewOverview(cw)
	case tabPacing:
		content = a.viewPacing(cw)
	case tabAccounts:
		content = a.viewAccounts(a.visibleSummaries(), cw, contentH)
	case tabSettings:
		content = a.viewSettings(cw)
	}

	// 5. Clamp to exactly contentH lines
	content = fitHeight(content, contentH)

	// 6. Paint every line out to full width so gaps between cards keep
	//    the canvas color
	content = paintBackground(content, cw, t.Background)

	// 7. Center the content column when the terminal is wider than it
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	// 8. Stack and fill any remaining rows
	screen := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, screen,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Layout and data helpers ────────────────────────────────────

func (a App) monthTitle() string {
	return time.Date(a.year, a.month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

// selectedSummary returns the account under the cursor, nil when the list
// is empty.
func (a App) selectedSummary() *model.AccountPacingSummary {
	visible := a.visibleSummaries()
	if len(visible) == 0 {
		return nil
	}
	i := a.acctState.cursor
	if i >= len(visible) {
		i = len(visible) - 1
	}
	if i < 0 {
		i = 0
	}
	return visible[i]
}

type tickMsg struct{}

// tickCmd re-arms the once-a-second pulse behind the auto-refresh check.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// fetchReport runs the full data pipeline for one month: refresh the cache
// from the API when credentials are configured, then evaluate pacing for
// every included account.
func fetchReport(cfg config.Config, year int, month time.Month, noCache bool, progressFn pipeline.ProgressFunc) (model.BatchReport, error) {
	accounts := cfg.IncludedAccounts()
	if len(accounts) == 0 {
		return model.BatchReport{}, errors.New("no accounts configured; run adpace setup")
	}

	loc, err := cfg.Location()
	if err != nil {
		return model.BatchReport{}, err
	}

	ctx := context.Background()

	var live *adsapi.Client
	if key := config.GetAPIKey(cfg); key != "" {
		live = adsapi.NewClient(cfg.API.BaseURL, key,
			adsapi.WithTimeout(time.Duration(cfg.API.TimeoutSeconds)*time.Second),
			adsapi.WithRateLimit(cfg.API.RequestsPerSecond))
	}

	var provider pipeline.SpendProvider
	if noCache {
		if live == nil {
			return model.BatchReport{}, errors.New("live fetch requires api.base_url and an API key")
		}
		provider = live
	} else {
		cache, err := store.Open(pipeline.CachePath())
		if err == nil {
			defer cache.Close()
			if live != nil {
				// Best-effort: stale cache data still renders
				_, _ = pipeline.Refresh(ctx, live, cache, accounts, year, month, progressFn)
			}
			if cp, cpErr := pipeline.NewCacheProvider(cache); cpErr == nil {
				provider = cp
			}
		}
		if provider == nil {
			if live == nil {
				return model.BatchReport{}, errors.New("no cached spend data and no API configured")
			}
			provider = live
		}
	}

	runner := &pipeline.Runner{
		Provider: provider,
		Window:   cfg.Pacing.WMAWindowDays,
		TZMode:   cfg.Pacing.TimezoneMode,
		Location: loc,
	}
	return runner.Run(ctx, accounts, year, month, progressFn), nil
}

// startLoader starts the data pipeline in a background goroutine, streaming
// ProgressMsg updates and a final LoadResultMsg through ch.
func startLoader(year int, month time.Month, noCache bool, ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Drop updates rather than stall fetch workers on a full channel;
			// the next update catches the UI up.
			progressFn := func(current, total int) {
				select {
				case ch <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			report, err := fetchReport(configOrDefault(), year, month, noCache, progressFn)
			ch <- LoadResultMsg{Report: report, LoadTime: time.Since(start), Err: err}
		}()

		// Hand the first loader message to Update; it re-arms with awaitLoader.
		return <-ch
	}
}

// awaitLoader yields the next message from the loader goroutine.
func awaitLoader(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// refetchCmd refetches spend data in the background (no progress UI).
func refetchCmd(year int, month time.Month, noCache bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		report, err := fetchReport(configOrDefault(), year, month, noCache, nil)
		return RefreshResultMsg{Report: report, LoadTime: time.Since(start), Err: err}
	}
}

// chartDayLabels labels every bar with its day of month; the chart thins
// overlapping labels on its own.
func chartDayLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}
	return labels
}

func clip(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// fitHeight trims or pads s to exactly h lines.
func fitHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > h {
		return strings.Join(lines[:h], "\n")
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// paintBackground extends every line of s to width w with the given
// background color, so rows shorter than the content column don't show
// the terminal's own background through.
func paintBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// ─── Mouse ──────────────────────────────────────────────────────

// tabAtX maps a click column to a tab index, or -1. Hitboxes mirror the
// width rules of TabBar, including the one-column separators.
func (a App) tabAtX(x int) int {
	left := 0
	for i, tab := range components.Tabs {
		right := left + components.TabWidth(tab, i == a.activeTab)
		if x >= left && x < right {
			return i
		}
		left = right + 1
	}
	return -1
}

// ─── Account filter ─────────────────────────────────────────────

// handleFilterKey handles keys while the filter box is open. Enter
// applies the query, esc abandons it.
func (a App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.acctState.filterQuery = strings.TrimSpace(a.acctState.filterInput.Value())
		a.acctState.filtering = false
		a.acctState.cursor = 0
		a.acctState.offset = 0
		a.acctState.paneScroll = 0
		return a, nil

	case "esc":
		a.acctState.filtering = false
		return a, nil
	}

	var cmd tea.Cmd
	a.acctState.filterInput, cmd = a.acctState.filterInput.Update(msg)
	return a, cmd
}

// visibleSummaries returns account summaries filtered by the current
// filter query.
func (a App) visibleSummaries() []*model.AccountPacingSummary {
	if a.acctState.filterQuery == "" {
		return a.summaries
	}
	return pipeline.FilterSummaries(a.summaries, a.acctState.filterQuery)
}
