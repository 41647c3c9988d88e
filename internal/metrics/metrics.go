// Package metrics exposes Prometheus metrics and a health endpoint for
// the tracker service.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the tracker.
type Metrics struct {
	CyclesTotal        prometheus.Counter
	CyclesSkipped      prometheus.Counter
	FetchDuration      prometheus.Histogram
	ObservationsTotal  prometheus.Counter
	AlertsFired        *prometheus.CounterVec // labels: kind
	BroadcastDrops     prometheus.Counter
	SinkDropsTotal     *prometheus.CounterVec // labels: sink
	Subscribers        prometheus.Gauge
	WSClients          prometheus.Gauge
	CycleLag           prometheus.Gauge // seconds since last successful cycle
	SQLiteCommitErrors prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coinwatch_cycles_total",
			Help: "Total successful poll cycles",
		}),
		CyclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coinwatch_cycles_skipped_total",
			Help: "Poll cycles skipped due to an empty fetch result",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coinwatch_fetch_duration_seconds",
			Help:    "Upstream fetch latency",
			Buckets: prometheus.DefBuckets,
		}),
		ObservationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coinwatch_observations_total",
			Help: "Total per-asset observations recorded",
		}),
		AlertsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinwatch_alerts_fired_total",
			Help: "Alert events emitted",
		}, []string{"kind"}),
		BroadcastDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coinwatch_broadcast_drops_total",
			Help: "Updates dropped for slow subscribers",
		}),
		SinkDropsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinwatch_sink_drops_total",
			Help: "Log rows dropped for slow persistence sinks",
		}, []string{"sink"}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coinwatch_subscribers",
			Help: "Current broadcast hub subscribers",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coinwatch_ws_clients",
			Help: "Connected WebSocket clients",
		}),
		CycleLag: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coinwatch_cycle_lag_seconds",
			Help: "Seconds since the last successful cycle",
		}),
		SQLiteCommitErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coinwatch_sqlite_commit_errors_total",
			Help: "Failed SQLite batch commits",
		}),
	}

	prometheus.MustRegister(
		m.CyclesTotal, m.CyclesSkipped, m.FetchDuration, m.ObservationsTotal,
		m.AlertsFired, m.BroadcastDrops, m.SinkDropsTotal, m.Subscribers,
		m.WSClients, m.CycleLag, m.SQLiteCommitErrors,
	)
	return m
}

// HealthStatus tracks liveness facts reported by the subsystems.
type HealthStatus struct {
	mu sync.RWMutex

	StartedAt     time.Time
	LastCycleTime time.Time
	LastCycleOK   bool
	RedisEnabled  bool
	SQLiteOK      bool
	TrackedAssets int
}

// NewHealthStatus creates a HealthStatus with the start time set.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now().UTC()}
}

// SetCycle records the outcome of the most recent poll cycle.
func (h *HealthStatus) SetCycle(ok bool) {
	h.mu.Lock()
	h.LastCycleTime = time.Now().UTC()
	h.LastCycleOK = ok
	h.mu.Unlock()
}

// SetSQLiteOK records SQLite availability.
func (h *HealthStatus) SetSQLiteOK(ok bool) {
	h.mu.Lock()
	h.SQLiteOK = ok
	h.mu.Unlock()
}

// SetRedisEnabled records whether the Redis cache is wired.
func (h *HealthStatus) SetRedisEnabled(on bool) {
	h.mu.Lock()
	h.RedisEnabled = on
	h.mu.Unlock()
}

// SetTrackedAssets records the configured asset count.
func (h *HealthStatus) SetTrackedAssets(n int) {
	h.mu.Lock()
	h.TrackedAssets = n
	h.mu.Unlock()
}

// LastCycle returns the time of the most recent cycle attempt, zero
// before the first one.
func (h *HealthStatus) LastCycle() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.LastCycleTime
}

// ServeHTTP renders the health document. Degraded (no successful cycle in
// a while) returns 503 so orchestrators can restart the process.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "ok"
	httpCode := http.StatusOK
	cycleAge := ""
	if !h.LastCycleTime.IsZero() {
		age := time.Since(h.LastCycleTime)
		cycleAge = age.Round(time.Millisecond).String()
		if age > 5*time.Minute {
			overallStatus = "degraded"
			httpCode = http.StatusServiceUnavailable
		}
	}

	status := struct {
		Status        string `json:"status"`
		Uptime        string `json:"uptime"`
		LastCycleTime string `json:"last_cycle_time"`
		LastCycleOK   bool   `json:"last_cycle_ok"`
		CycleAge      string `json:"cycle_age"`
		RedisEnabled  bool   `json:"redis_enabled"`
		SQLiteOK      bool   `json:"sqlite_ok"`
		TrackedAssets int    `json:"tracked_assets"`
	}{
		Status:        overallStatus,
		Uptime:        time.Since(h.StartedAt).Round(time.Second).String(),
		LastCycleTime: h.LastCycleTime.Format(time.RFC3339),
		LastCycleOK:   h.LastCycleOK,
		CycleAge:      cycleAge,
		RedisEnabled:  h.RedisEnabled,
		SQLiteOK:      h.SQLiteOK,
		TrackedAssets: h.TrackedAssets,
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
