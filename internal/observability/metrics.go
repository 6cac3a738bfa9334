package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// Tomorrow.io API call rate by endpoint. Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// Upstream API latency per request. Watch for: p95 > 2s (upstream degradation), p99 near the 10s timeout.
	WeatherAPIDuration *prometheus.HistogramVec

	// Retry rounds for weather fetches. Watch for: high retries = unstable upstream.
	WeatherAPIRetriesTotal prometheus.Counter

	// Fetches refused by the hourly quota. Watch for: quota sized too small for the scene mix.
	QuotaDeniedTotal prometheus.Counter

	// Freshness-cache hits by data kind (current, forecast).
	CacheHitsTotal *prometheus.CounterVec

	// Stale values served after a failed or refused fetch, by data kind.
	StaleServesTotal *prometheus.CounterVec

	// Expected response fields substituted with the sentinel value, by field.
	FieldFallbacksTotal *prometheus.CounterVec

	// Scene redraws by scene name. Steady-state should be low; spikes mean
	// data churn or clock boundary storms.
	RedrawsTotal *prometheus.CounterVec

	// Scene tick latency. Fetch-bearing ticks can reach timeout + backoff.
	TickDuration *prometheus.HistogramVec

	// HTTP requests to the debug surface (/health, /metrics).
	HTTPRequestsTotal *prometheus.CounterVec

	quotaGaugeOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of tomorrow.io API calls",
		},
		[]string{"endpoint", "status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "tomorrow.io API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "status"},
	)
	WeatherAPIRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherApiRetriesTotal",
			Help: "Total number of retry rounds for weather fetches",
		},
	)
	QuotaDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quotaDeniedTotal",
			Help: "Total number of fetches refused by the hourly call quota",
		},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of freshness-cache hits by data kind",
		},
		[]string{"kind"},
	)
	StaleServesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staleServesTotal",
			Help: "Stale cached values served after a failed or refused fetch",
		},
		[]string{"kind"},
	)
	FieldFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldFallbacksTotal",
			Help: "Response fields missing upstream and substituted with the sentinel",
		},
		[]string{"field"},
	)
	RedrawsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redrawsTotal",
			Help: "Scene redraws by scene name",
		},
		[]string{"scene"},
	)
	TickDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sceneTickDurationSeconds",
			Help:    "Scene tick latency in seconds",
			Buckets: []float64{.001, .01, .1, 1, 2.5, 5, 10, 15},
		},
		[]string{"scene"},
	)
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests to the debug endpoints",
		},
		[]string{"method", "route", "statusCode"},
	)

	registry.MustRegister(
		WeatherAPICallsTotal, WeatherAPIDuration, WeatherAPIRetriesTotal,
		QuotaDeniedTotal,
		CacheHitsTotal, StaleServesTotal, FieldFallbacksTotal,
		RedrawsTotal, TickDuration,
		HTTPRequestsTotal,
	)
}

// RegisterQuotaGauge registers a gauge exposing the rate limiter's current
// window occupancy. Call from main after the limiter is constructed.
func RegisterQuotaGauge(callsInWindow func() float64) {
	quotaGaugeOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "quotaCallsInWindow",
					Help: "API calls consumed in the current rolling hour",
				},
				callsInWindow,
			),
		)
	})
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
