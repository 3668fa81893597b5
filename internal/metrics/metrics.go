// Package metrics provides Prometheus instrumentation for the engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScanPassesTotal counts discovery passes by result.
	ScanPassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solguard_scan_passes_total",
		Help: "Total discovery passes",
	}, []string{"result"})

	// ScorePassesTotal counts scoring passes.
	ScorePassesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solguard_score_passes_total",
		Help: "Total scoring passes",
	})

	// TokensMonitored tracks the current working set size.
	TokensMonitored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "solguard_tokens_monitored",
		Help: "Number of tokens in the working set",
	})

	// PositionsScoredTotal counts borrower positions scored.
	PositionsScoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solguard_positions_scored_total",
		Help: "Total borrower positions scored",
	})

	// ProfileCacheLookups counts wallet profile cache hits and misses.
	ProfileCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solguard_profile_cache_lookups_total",
		Help: "Wallet profile cache lookups",
	}, []string{"result"})

	// LiquidationAttemptsTotal counts liquidation attempts by result.
	LiquidationAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solguard_liquidation_attempts_total",
		Help: "Liquidation attempts",
	}, []string{"result"})

	// LiquidationProfitLamports accumulates estimated realized profit.
	LiquidationProfitLamports = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solguard_liquidation_profit_lamports_total",
		Help: "Cumulative estimated liquidation profit in lamports",
	})

	// ScorePassDuration observes scoring pass wall time.
	ScorePassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "solguard_score_pass_duration_seconds",
		Help:    "Scoring pass duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// HTTPRequestsTotal counts operator API requests.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solguard_http_requests_total",
		Help: "Total operator API requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks operator API request duration.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solguard_http_request_duration_seconds",
		Help:    "Operator API request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request metrics for the operator API.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
