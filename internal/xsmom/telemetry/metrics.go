// Package telemetry exposes Prometheus metrics for backtest runs,
// sweeps, and factor studies.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry holds every Prometheus metric this module exposes.
type Registry struct {
	RunDuration   *prometheus.HistogramVec
	RunsTotal     *prometheus.CounterVec
	RunErrors     *prometheus.CounterVec
	SweepDuration *prometheus.HistogramVec
	SweepSize     *prometheus.GaugeVec
	ActiveSharpe  *prometheus.GaugeVec
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
}

// NewRegistry builds and registers the metric set with the default
// Prometheus registry.
func NewRegistry() *Registry {
	r := &Registry{
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xsmom_run_duration_seconds",
				Help:    "Duration of a single backtest run in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"market", "score_method"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xsmom_runs_total",
				Help: "Total number of backtest runs executed",
			},
			[]string{"market", "result"},
		),
		RunErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xsmom_run_errors_total",
				Help: "Total number of backtest run errors",
			},
			[]string{"market", "stage"},
		),
		SweepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xsmom_sweep_duration_seconds",
				Help:    "Duration of a full parameter sweep in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 180, 600, 1800},
			},
			[]string{"market"},
		),
		SweepSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "xsmom_sweep_combinations",
				Help: "Number of parameter combinations in the most recent sweep",
			},
			[]string{"market"},
		),
		ActiveSharpe: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "xsmom_best_sharpe_ratio",
				Help: "Best Sharpe ratio observed in the most recent sweep",
			},
			[]string{"market"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xsmom_cache_hits_total",
				Help: "Total slice-cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xsmom_cache_misses_total",
				Help: "Total slice-cache misses",
			},
			[]string{"cache_type"},
		),
	}

	prometheus.MustRegister(
		r.RunDuration, r.RunsTotal, r.RunErrors,
		r.SweepDuration, r.SweepSize, r.ActiveSharpe,
		r.CacheHits, r.CacheMisses,
	)

	return r
}

// RunTimer times one backtest run and records its outcome on Stop.
type RunTimer struct {
	registry    *Registry
	market      string
	scoreMethod string
	start       time.Time
}

// StartRunTimer begins timing a backtest run.
func (r *Registry) StartRunTimer(market, scoreMethod string) *RunTimer {
	return &RunTimer{registry: r, market: market, scoreMethod: scoreMethod, start: time.Now()}
}

// Stop records the elapsed duration and increments the run counter.
func (t *RunTimer) Stop(result string) {
	duration := time.Since(t.start)
	t.registry.RunDuration.WithLabelValues(t.market, t.scoreMethod).Observe(duration.Seconds())
	t.registry.RunsTotal.WithLabelValues(t.market, result).Inc()

	log.Debug().Str("market", t.market).Str("result", result).Dur("elapsed", duration).Msg("telemetry: run recorded")
}

// RecordRunError increments the run-error counter for a failed stage.
func (r *Registry) RecordRunError(market, stage string) {
	r.RunErrors.WithLabelValues(market, stage).Inc()
}

// RecordSweep records a completed sweep's duration, size, and best Sharpe.
func (r *Registry) RecordSweep(market string, duration time.Duration, combinations int, bestSharpe float64) {
	r.SweepDuration.WithLabelValues(market).Observe(duration.Seconds())
	r.SweepSize.WithLabelValues(market).Set(float64(combinations))
	r.ActiveSharpe.WithLabelValues(market).Set(bestSharpe)
}

// RecordCacheHit increments the cache-hit counter for a cache type.
func (r *Registry) RecordCacheHit(cacheType string) { r.CacheHits.WithLabelValues(cacheType).Inc() }

// RecordCacheMiss increments the cache-miss counter for a cache type.
func (r *Registry) RecordCacheMiss(cacheType string) { r.CacheMisses.WithLabelValues(cacheType).Inc() }

// Handler returns the HTTP handler serving the /metrics endpoint.
func (r *Registry) Handler() http.Handler { return promhttp.Handler() }
