package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/adpace/adpace/internal/config"
	"github.com/adpace/adpace/internal/daemon"
	"github.com/adpace/adpace/internal/pipeline"
	"github.com/adpace/adpace/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run a background refresh daemon with HTTP/SSE endpoints",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the daemon is up and what it last refreshed",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Shut the daemon down",
	RunE:  runDaemonStop,
}

func init() {
	defaultPID := filepath.Join(pipeline.CacheDir(), "adpaced.pid")
	defaultLog := filepath.Join(pipeline.CacheDir(), "adpaced.log")

	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default: config daemon.listen)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Refresh interval (default: config daemon.refresh_minutes)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", defaultPID, "Where to record the daemon pid")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", defaultLog, "Where detached mode writes its log")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Events kept in memory for the SSE stream")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Fork into the background and return")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: marks the detached copy")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("--detach and --child are mutually exclusive")
	}
	if flagDaemonDetach {
		return spawnDetached()
	}
	return serveForeground()
}

// spawnDetached relaunches the current binary as a background child,
// swapping --detach for the hidden --child marker so the copy serves
// in the foreground of its own process.
func spawnDetached() error {
	pf := pidfile(flagDaemonPIDFile)
	if err := pf.ensureVacant(); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate adpace binary: %w", err)
	}

	args := make([]string, 0, len(os.Args))
	for _, a := range os.Args[1:] {
		if a != "--detach" && !strings.HasPrefix(a, "--detach=") {
			args = append(args, a)
		}
	}
	args = append(args, "--child")

	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("prepare log directory: %w", err)
	}
	//nolint:gosec // the log path comes from the local --log-file flag
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", flagDaemonLogFile, err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // relaunches our own binary
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()

	if err := child.Start(); err != nil {
		return fmt.Errorf("spawn daemon child: %w", err)
	}

	fmt.Printf("  Daemon started (pid %d)\n", child.Process.Pid)
	fmt.Printf("  API: http://%s/api/status\n", listenAddr())
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	fmt.Printf("  PID file: %s\n", pf)
	return nil
}

// listenAddr resolves the HTTP address from the flag, then the config
// file, then the built-in default.
func listenAddr() string {
	if flagDaemonAddr != "" {
		return flagDaemonAddr
	}
	cfg, err := loadConfig()
	if err != nil || cfg.Daemon.Listen == "" {
		return "127.0.0.1:7319"
	}
	return cfg.Daemon.Listen
}

func serveForeground() error {
	pf := pidfile(flagDaemonPIDFile)
	if err := pf.ensureVacant(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	accounts := cfg.IncludedAccounts()
	if len(accounts) == 0 {
		printNoAccountsHint()
		return nil
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	addr := flagDaemonAddr
	if addr == "" {
		addr = cfg.Daemon.Listen
	}
	interval := flagDaemonInterval
	if interval == 0 {
		interval = time.Duration(cfg.Daemon.RefreshMinutes) * time.Minute
	}

	cache, err := store.Open(pipeline.CachePath())
	if err != nil {
		return fmt.Errorf("open spend cache: %w", err)
	}
	defer cache.Close()

	// A nil provider serves cached spend without ever touching the API.
	var provider pipeline.SpendProvider
	if live := liveClient(cfg); live != nil {
		provider = live
	}

	pid := os.Getpid()
	if err := pf.write(pid); err != nil {
		return err
	}
	defer pf.clear()

	_ = pf.saveRuntime(daemonRuntime{
		PID:        pid,
		Addr:       addr,
		StartedAt:  time.Now(),
		ConfigFile: config.ConfigPath(),
	})

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	svc := daemon.New(daemon.Config{
		Addr:         addr,
		Interval:     interval,
		EventsBuffer: flagDaemonEventsBuffer,
		Window:       cfg.Pacing.WMAWindowDays,
		TZMode:       cfg.Pacing.TimezoneMode,
		Location:     loc,
	}, provider, cache, accounts, log)

	fmt.Printf("  adpace daemon serving http://%s\n", addr)
	fmt.Printf("  Tracking %d accounts, refreshing every %s\n", len(accounts), interval)
	fmt.Printf("  Stop via: adpace daemon stop --pid-file %s\n", pf)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	pf := pidfile(flagDaemonPIDFile)
	pid, err := pf.read()
	if err != nil {
		fmt.Println("  Daemon: not running (no pid file)")
		return nil
	}
	if !pidAlive(pid) {
		fmt.Printf("  Daemon: pid %d is gone, pid file is stale\n", pid)
		return nil
	}

	addr := listenAddr()
	if rt, err := pf.loadRuntime(); err == nil && rt.Addr != "" {
		addr = rt.Addr
	}

	fmt.Printf("  PID: %d\n", pid)
	fmt.Printf("  API: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/status") //nolint:noctx // one-shot local probe
	if err != nil {
		fmt.Printf("  Status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  Status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  Status: undecodable reply (%v)\n", err)
		return nil
	}

	if st.LastRefreshAt.IsZero() {
		fmt.Println("  Last refresh: none yet")
	} else {
		fmt.Printf("  Last refresh: %s\n", st.LastRefreshAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Refreshes: %d\n", st.RefreshCount)
	fmt.Printf("  Month: %s\n", st.Summary.Month)
	fmt.Printf("  Accounts: %d tracked, %d failed\n", st.Summary.Accounts, st.Summary.Failed)
	fmt.Printf("  Spend MTD: $%.2f of $%.2f budget\n", st.Summary.TotalSpendMTD, st.Summary.TotalBudget)
	fmt.Printf("  Projected EOM: $%.2f (%s)\n", st.Summary.TotalProjected, st.Summary.Trend)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pf := pidfile(flagDaemonPIDFile)
	pid, err := pf.read()
	if err != nil {
		return errors.New("no daemon found (missing pid file)")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("look up pid %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send SIGTERM to pid %d: %w", pid, err)
	}

	const stopWait = 10 * time.Second
	start := time.Now()
	for pidAlive(pid) {
		if time.Since(start) > stopWait {
			return fmt.Errorf("pid %d still running after %s", pid, stopWait)
		}
		time.Sleep(200 * time.Millisecond)
	}

	pf.clear()
	fmt.Printf("  Daemon stopped (pid %d)\n", pid)
	return nil
}

// daemonRuntime is persisted next to the pid file so status can find
// the API address the daemon actually bound.
type daemonRuntime struct {
	PID        int       `json:"pid"`
	Addr       string    `json:"addr"`
	StartedAt  time.Time `json:"started_at"`
	ConfigFile string    `json:"config_file"`
}

// pidfile tracks daemon process identity on disk. A JSON sidecar at
// <path>.json carries the daemonRuntime record.
type pidfile string

func (p pidfile) sidecar() string { return string(p) + ".json" }

func (p pidfile) read() (int, error) {
	//nolint:gosec // the pid path comes from the local --pid-file flag
	raw, err := os.ReadFile(string(p))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s is malformed", p)
	}
	return pid, nil
}

func (p pidfile) write(pid int) error {
	if err := os.MkdirAll(filepath.Dir(string(p)), 0o750); err != nil {
		return fmt.Errorf("prepare pid directory: %w", err)
	}
	return os.WriteFile(string(p), []byte(strconv.Itoa(pid)+"\n"), 0o600)
}

func (p pidfile) clear() {
	_ = os.Remove(string(p))
	_ = os.Remove(p.sidecar())
}

// ensureVacant fails when a live daemon owns the pid file and sweeps
// up leftovers when the recorded process is gone.
func (p pidfile) ensureVacant() error {
	pid, err := p.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if pidAlive(pid) {
		return fmt.Errorf("a daemon is already running with pid %d", pid)
	}
	p.clear()
	return nil
}

func (p pidfile) saveRuntime(rt daemonRuntime) error {
	raw, err := json.MarshalIndent(rt, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.sidecar(), append(raw, '\n'), 0o600)
}

func (p pidfile) loadRuntime() (daemonRuntime, error) {
	var rt daemonRuntime
	//nolint:gosec // the sidecar path derives from the local --pid-file flag
	raw, err := os.ReadFile(p.sidecar())
	if err != nil {
		return rt, err
	}
	err = json.Unmarshal(raw, &rt)
	return rt, err
}

// pidAlive reports whether pid names a live process. Signal 0 probes
// without delivering anything; EPERM still means the process exists.
func pidAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	sigErr := proc.Signal(syscall.Signal(0))
	return sigErr == nil || errors.Is(sigErr, syscall.EPERM)
}
