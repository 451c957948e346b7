// Package metrics exposes Prometheus counters for backtest activity.
//
//   - grid_backtests_total{mode}          runs by mode (single|regrid)
//   - grid_sessions_total                 sessions simulated
//   - grid_cycles_total{side}             completed round trips (long|short)
//   - grid_breakouts_total                sessions stopped by the guard
//   - grid_backtest_duration_seconds{mode} wall time per run
package metrics

import (
	"net/http"
	"strings"
	"time"

	"grid-backtest/internal/backtest"
	"grid-backtest/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry *prometheus.Registry

	backtests *prometheus.CounterVec
	sessions  prometheus.Counter
	cycles    *prometheus.CounterVec
	breakouts prometheus.Counter
	duration  *prometheus.HistogramVec
}

// New builds a registry with the backtest collectors plus the standard
// process and Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		backtests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grid_backtests_total",
				Help: "Backtests run, by mode",
			},
			[]string{"mode"},
		),
		sessions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "grid_sessions_total",
				Help: "Grid sessions simulated",
			},
		),
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grid_cycles_total",
				Help: "Completed open/close cycles, by level side",
			},
			[]string{"side"},
		),
		breakouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "grid_breakouts_total",
				Help: "Sessions stopped by the breakout guard",
			},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "grid_backtest_duration_seconds",
				Help:    "Wall time of a backtest run",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"mode"},
		),
	}
	m.Registry.MustRegister(
		m.backtests,
		m.sessions,
		m.cycles,
		m.breakouts,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSession records a single-session run.
func (m *Metrics) ObserveSession(r *backtest.Result, took time.Duration) {
	if m == nil || r == nil {
		return
	}
	m.observe("single", 1, boolToInt(r.StoppedByBreakout), r.CyclesLong, r.CyclesShort, took)
}

// ObserveSequence records an auto-regrid run.
func (m *Metrics) ObserveSequence(a *backtest.Aggregate, took time.Duration) {
	if m == nil || a == nil {
		return
	}
	m.observe("regrid", a.Sessions, a.Breakouts, a.CyclesLong, a.CyclesShort, took)
}

func (m *Metrics) observe(mode string, sessions, breakouts, long, short int, took time.Duration) {
	m.backtests.WithLabelValues(mode).Inc()
	m.sessions.Add(float64(sessions))
	m.breakouts.Add(float64(breakouts))
	m.cycles.WithLabelValues(sideLabel(model.SideLong)).Add(float64(long))
	m.cycles.WithLabelValues(sideLabel(model.SideShort)).Add(float64(short))
	m.duration.WithLabelValues(mode).Observe(took.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func sideLabel(s model.Side) string {
	return strings.ToLower(string(s))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
