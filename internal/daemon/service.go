// Package daemon provides the long-running background pacing monitor service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/adpace/adpace/internal/metrics"
	"github.com/adpace/adpace/internal/model"
	"github.com/adpace/adpace/internal/pipeline"
	"github.com/adpace/adpace/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	Interval     time.Duration
	EventsBuffer int
	Window       int
	TZMode       string
	Location     *time.Location
}

// AccountPace is the per-account slice of a fleet snapshot.
type AccountPace struct {
	AccountID        string  `json:"account_id"`
	Name             string  `json:"name,omitempty"`
	Currency         string  `json:"currency,omitempty"`
	Budget           float64 `json:"budget"`
	SpendMTD         float64 `json:"spend_mtd"`
	TargetToDate     float64 `json:"target_to_date"`
	PctBudgetSpent   float64 `json:"pct_budget_spent"`
	ProjectedEOM     float64 `json:"projected_eom"`
	RecommendedDaily float64 `json:"recommended_daily"`
	PaceDeltaPct     float64 `json:"pace_delta_pct"`
	Trend            string  `json:"trend,omitempty"`
	Error            string  `json:"error,omitempty"`
}

// Snapshot is the fleet pacing state for status/event payloads.
type Snapshot struct {
	Generated      time.Time     `json:"generated"`
	Month          string        `json:"month"`
	Accounts       int           `json:"accounts"`
	Failed         int           `json:"failed"`
	TotalBudget    float64       `json:"total_budget"`
	TotalSpendMTD  float64       `json:"total_spend_mtd"`
	TotalProjected float64       `json:"total_projected_eom"`
	PctBudgetSpent float64       `json:"pct_budget_spent"`
	PaceDeltaPct   float64       `json:"pace_delta_pct"`
	Trend          string        `json:"trend"`
	OnTarget       int           `json:"on_target"`
	Over           int           `json:"over"`
	Under          int           `json:"under"`
	Pace           []AccountPace `json:"pace"`
}

// Event is emitted when a refresh changes fleet state.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Account   string    `json:"account,omitempty"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Error     string    `json:"error,omitempty"`
	Snapshot  *Snapshot `json:"snapshot,omitempty"`
}

// Event types.
const (
	EventSnapshot     = "snapshot"
	EventTrendChange  = "trend_change"
	EventRefreshError = "refresh_error"
)

// sseHeartbeatInterval is how often idle SSE connections get a comment line.
const sseHeartbeatInterval = 25 * time.Second

// Status is served at /api/status.
type Status struct {
	StartedAt          time.Time `json:"started_at"`
	LastRefreshAt      time.Time `json:"last_refresh_at"`
	RefreshIntervalSec int       `json:"refresh_interval_sec"`
	RefreshCount       int64     `json:"refresh_count"`
	Month              string    `json:"month"`
	Accounts           int       `json:"accounts"`
	LastError          string    `json:"last_error,omitempty"`
	EventCount         int       `json:"event_count"`
	SubscriberCount    int       `json:"subscriber_count"`
	Summary            Snapshot  `json:"summary"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg      Config
	provider pipeline.SpendProvider
	cache    *store.Cache
	accounts []model.Account
	log      logrus.FieldLogger
	now      func() time.Time

	mu            sync.RWMutex
	startedAt     time.Time
	lastRefreshAt time.Time
	refreshCount  int64
	lastError     string
	hasSnapshot   bool
	snapshot      Snapshot
	report        model.BatchReport
	nextEventID   int64
	events        []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service refreshing the given accounts. The provider is
// the live reporting API; it may be nil to serve from the cache only.
func New(cfg Config, provider pipeline.SpendProvider, cache *store.Cache, accounts []model.Account, log logrus.FieldLogger) *Service {
	if cfg.Interval < time.Minute {
		cfg.Interval = 30 * time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:7319"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Service{
		cfg:       cfg,
		provider:  provider,
		cache:     cache,
		accounts:  accounts,
		log:       log,
		now:       time.Now,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and the refresh loop until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.withMetrics("/healthz", s.handleHealth))
	mux.HandleFunc("/api/status", s.withMetrics("/api/status", s.handleStatus))
	mux.HandleFunc("/api/snapshot", s.withMetrics("/api/snapshot", s.handleSnapshot))
	mux.HandleFunc("/api/accounts/", s.withMetrics("/api/accounts/{id}", s.handleAccount))
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.WithFields(logrus.Fields{
		"addr":     s.cfg.Addr,
		"interval": s.cfg.Interval.String(),
		"accounts": len(s.accounts),
	}).Info("daemon started")

	// Seed the initial snapshot so status is useful immediately.
	s.refreshOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.refreshOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("serve status api: %w", err)
		}
	}
}

// refreshOnce fetches fresh spend, recomputes all summaries, and publishes
// any events the new snapshot implies. Failures never stop the daemon.
func (s *Service) refreshOnce(ctx context.Context) {
	start := s.now()
	year := start.In(s.cfg.Location).Year()
	month := start.In(s.cfg.Location).Month()

	refreshErrs := map[string]error{}
	if s.provider != nil && s.cache != nil {
		res, err := pipeline.Refresh(ctx, s.provider, s.cache, s.accounts, year, month, nil)
		if err != nil {
			s.log.WithError(err).Warn("refresh failed")
		} else {
			refreshErrs = res.Errors
		}
	}

	evalProvider := s.provider
	if s.cache != nil {
		cp, err := pipeline.NewCacheProvider(s.cache)
		if err != nil {
			s.log.WithError(err).Warn("cache unavailable, evaluating live")
		} else {
			evalProvider = cp
		}
	}
	if evalProvider == nil {
		s.recordRefreshError(errors.New("no spend provider configured"), start)
		return
	}

	runner := pipeline.Runner{
		Provider: evalProvider,
		Window:   s.cfg.Window,
		TZMode:   s.cfg.TZMode,
		Location: s.cfg.Location,
		Now:      s.now,
		Log:      s.log,
	}
	report := runner.Run(ctx, s.accounts, year, month, nil)
	snap := buildSnapshot(report, refreshErrs, start)

	for acct := range refreshErrs {
		metrics.RecordAccountFailure(acct)
	}
	for _, sum := range report.Summaries() {
		metrics.UpdateAccountPacing(sum.AccountID, sum.PaceDeltaPct, sum.PctBudgetSpent, sum.SpendMTD, sum.ProjectedEOMSpend)
	}
	metrics.UpdateTrendCounts(snap.OnTarget, snap.Over, snap.Under)
	metrics.AccountsEvaluated.Set(float64(snap.Accounts))
	metrics.RecordRefresh("ok", time.Since(start))

	var pending []Event

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.report = report
	s.lastRefreshAt = start
	s.refreshCount++
	s.lastError = refreshSummaryError(refreshErrs)

	if !prevExists {
		s.nextEventID++
		pending = append(pending, Event{
			ID:        s.nextEventID,
			Type:      EventSnapshot,
			Timestamp: start,
			Snapshot:  &snap,
		})
	} else {
		for _, ev := range diffSnapshots(prev, snap) {
			s.nextEventID++
			ev.ID = s.nextEventID
			ev.Timestamp = start
			pending = append(pending, ev)
		}
	}
	s.mu.Unlock()

	for _, ev := range pending {
		s.publishEvent(ev)
	}
}

func (s *Service) recordRefreshError(err error, at time.Time) {
	metrics.RecordRefresh("error", time.Since(at))
	s.mu.Lock()
	s.lastError = err.Error()
	s.lastRefreshAt = at
	s.refreshCount++
	s.mu.Unlock()
	s.log.WithError(err).Warn("refresh produced no snapshot")
}

func refreshSummaryError(errs map[string]error) string {
	if len(errs) == 0 {
		return ""
	}
	return fmt.Sprintf("%d account(s) failed to refresh", len(errs))
}

func buildSnapshot(report model.BatchReport, refreshErrs map[string]error, at time.Time) Snapshot {
	rollup := pipeline.BuildRollup(report)

	snap := Snapshot{
		Generated:      at,
		Month:          fmt.Sprintf("%04d-%02d", report.Year, int(report.Month)),
		Accounts:       len(report.Results),
		Failed:         report.Failed,
		TotalBudget:    rollup.TotalBudget,
		TotalSpendMTD:  rollup.TotalSpendMTD,
		TotalProjected: rollup.TotalProjected,
		PctBudgetSpent: rollup.PctBudgetSpent(),
		PaceDeltaPct:   rollup.PaceDeltaPct(),
		Trend:          rollup.TrendLabel(),
		OnTarget:       rollup.OnTarget,
		Over:           rollup.Over,
		Under:          rollup.Under,
	}

	for _, res := range report.Results {
		pace := AccountPace{
			AccountID: res.Account.ID,
			Name:      res.Account.Name,
			Currency:  res.Account.Currency,
			Budget:    res.Account.MonthlyBudget,
		}
		switch {
		case res.Err != nil:
			pace.Error = res.Err.Error()
		case res.Summary != nil:
			pace.SpendMTD = res.Summary.SpendMTD
			pace.TargetToDate = res.Summary.TargetSpendToDate
			pace.PctBudgetSpent = res.Summary.PctBudgetSpent
			pace.ProjectedEOM = res.Summary.ProjectedEOMSpend
			pace.RecommendedDaily = res.Summary.RecommendedDailySpend
			pace.PaceDeltaPct = res.Summary.PaceDeltaPct
			pace.Trend = res.Summary.TrendLabel
		}
		if pace.Error == "" {
			if err, ok := refreshErrs[res.Account.ID]; ok {
				pace.Error = err.Error()
			}
		}
		snap.Pace = append(snap.Pace, pace)
	}

	return snap
}

// diffSnapshots turns per-account changes between consecutive snapshots into
// events: trend transitions and newly failing refreshes.
func diffSnapshots(prev, curr Snapshot) []Event {
	prevPace := make(map[string]AccountPace, len(prev.Pace))
	for _, p := range prev.Pace {
		prevPace[p.AccountID] = p
	}

	var events []Event
	for _, p := range curr.Pace {
		old, seen := prevPace[p.AccountID]

		if p.Error != "" {
			if !seen || old.Error == "" {
				events = append(events, Event{
					Type:    EventRefreshError,
					Account: p.AccountID,
					Error:   p.Error,
				})
			}
			continue
		}

		if seen && old.Trend != "" && old.Trend != p.Trend {
			events = append(events, Event{
				Type:    EventTrendChange,
				Account: p.AccountID,
				From:    old.Trend,
				To:      p.Trend,
			})
		}
	}
	return events
}

func (s *Service) publishEvent(ev Event) {
	metrics.RecordEvent(ev.Type)

	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:          s.startedAt,
		LastRefreshAt:      s.lastRefreshAt,
		RefreshIntervalSec: int(s.cfg.Interval.Seconds()),
		RefreshCount:       s.refreshCount,
		Month:              s.snapshot.Month,
		Accounts:           len(s.accounts),
		LastError:          s.lastError,
		EventCount:         len(s.events),
		SubscriberCount:    len(s.subs),
		Summary:            s.snapshot,
	}
}

// withMetrics wraps a handler with request counting and timing.
func (s *Service) withMetrics(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(rec.status), time.Since(start))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	snap := s.snapshot
	ok := s.hasSnapshot
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

// handleAccount serves the full per-day series for one account.
func (s *Service) handleAccount(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/accounts/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "account id required", http.StatusNotFound)
		return
	}

	s.mu.RLock()
	report := s.report
	ok := s.hasSnapshot
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}

	for _, res := range report.Results {
		if res.Account.ID != id {
			continue
		}
		if res.Err != nil {
			http.Error(w, res.Err.Error(), http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(accountDetail(res.Summary))
		return
	}
	http.Error(w, "unknown account", http.StatusNotFound)
}

// DayPoint is one row of an account's daily series payload.
type DayPoint struct {
	Day          int     `json:"day"`
	Date         string  `json:"date"`
	Cost         float64 `json:"cost"`
	CumSpend     float64 `json:"cum_spend"`
	CumTarget    float64 `json:"cum_target"`
	Gap          float64 `json:"gap"`
	CumGap       float64 `json:"cum_gap"`
	PacePct      float64 `json:"pace_pct"`
	RecDaily     float64 `json:"rec_daily"`
	CumForecast  float64 `json:"cum_forecast"`
	ProjectedEOM float64 `json:"projected_eom_at_day"`
}

// AccountDetail is the /api/accounts/{id} payload.
type AccountDetail struct {
	AccountPace
	Month       string     `json:"month"`
	DaysInMonth int        `json:"days_in_month"`
	DaysElapsed int        `json:"days_elapsed"`
	Days        []DayPoint `json:"days"`
}

func accountDetail(sum *model.AccountPacingSummary) AccountDetail {
	detail := AccountDetail{
		AccountPace: AccountPace{
			AccountID:        sum.AccountID,
			Name:             sum.AccountName,
			Currency:         sum.Currency,
			Budget:           sum.MonthlyBudget,
			SpendMTD:         sum.SpendMTD,
			TargetToDate:     sum.TargetSpendToDate,
			PctBudgetSpent:   sum.PctBudgetSpent,
			ProjectedEOM:     sum.ProjectedEOMSpend,
			RecommendedDaily: sum.RecommendedDailySpend,
			PaceDeltaPct:     sum.PaceDeltaPct,
			Trend:            sum.TrendLabel,
		},
		Month:       fmt.Sprintf("%04d-%02d", sum.Year, int(sum.Month)),
		DaysInMonth: sum.DaysInMonth,
		DaysElapsed: sum.DaysElapsed,
	}

	for _, row := range sum.PerDay {
		detail.Days = append(detail.Days, DayPoint{
			Day:          row.Day,
			Date:         row.Date.Format("2006-01-02"),
			Cost:         row.Cost,
			CumSpend:     row.CumSpend,
			CumTarget:    row.CumTarget,
			Gap:          row.Gap,
			CumGap:       row.CumGap,
			PacePct:      row.RunningPacePct,
			RecDaily:     row.RecDaily,
			CumForecast:  row.CumForecastWMA,
			ProjectedEOM: row.ProjectedEOMAtDay,
		})
	}
	return detail
}

// handleEvents streams pacing events over SSE. A Last-Event-ID header replays
// buffered events the client missed.
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	lastSeen, _ := strconv.ParseInt(r.Header.Get("Last-Event-ID"), 10, 64)

	s.mu.RLock()
	var replay []Event
	if lastSeen > 0 {
		for _, ev := range s.events {
			if ev.ID > lastSeen {
				replay = append(replay, ev)
			}
		}
	}
	snap := s.snapshot
	hasSnap := s.hasSnapshot
	s.mu.RUnlock()

	if hasSnap && lastSeen == 0 {
		writeSSE(w, Event{Type: EventSnapshot, Timestamp: snap.Generated, Snapshot: &snap})
		flusher.Flush()
	}
	for _, ev := range replay {
		writeSSE(w, ev)
	}
	if len(replay) > 0 {
		flusher.Flush()
	}

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			// SSE comment line; keeps idle connections from being reaped
			// by proxies and lets the server notice dead clients.
			_, _ = fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	metrics.SSESubscribers.Inc()
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[id]; ok {
		delete(s.subs, id)
		metrics.SSESubscribers.Dec()
	}
}
