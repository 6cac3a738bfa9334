package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/clock"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/status"
)

// GatewayInfo is the slice of the gateway the health endpoint reads.
type GatewayInfo interface {
	CurrentFetchedAt() (time.Time, bool)
	ForecastFetchedAt() (time.Time, bool)
}

// QuotaInfo reports rate-limiter window occupancy.
type QuotaInfo interface {
	CallsInWindow() int
}

// HealthConfig tunes the degraded signal.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
	StartTime        time.Time
}

// Handler serves the debug HTTP surface. The display keeps running whatever
// this reports; health exists for the operator, not for traffic routing.
type Handler struct {
	tracker      *status.Tracker
	gateway      GatewayInfo
	quota        QuotaInfo
	cfg          HealthConfig
	clk          clock.Clock
	logger       *zap.Logger
	shuttingDown atomic.Bool
}

// NewHandler creates a Handler. quota may be nil when the gateway runs
// disabled.
func NewHandler(tracker *status.Tracker, gateway GatewayInfo, quota QuotaInfo, cfg HealthConfig, clk clock.Clock, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		tracker: tracker,
		gateway: gateway,
		quota:   quota,
		cfg:     cfg,
		clk:     clk,
		logger:  logger,
	}
}

// SetShuttingDown flips the drain flag. Health reports shutting-down while true.
func (h *Handler) SetShuttingDown(v bool) {
	h.shuttingDown.Store(v)
}

type healthResponse struct {
	Status             string  `json:"status"`
	UptimeSeconds      float64 `json:"uptimeSeconds"`
	FetchErrors        int     `json:"fetchErrors"`
	FetchTotal         int     `json:"fetchTotal"`
	QuotaDenials       int     `json:"quotaDenials"`
	QuotaCallsInWindow int     `json:"quotaCallsInWindow"`
	CurrentAgeSeconds  float64 `json:"currentAgeSeconds,omitempty"`
	ForecastAgeSeconds float64 `json:"forecastAgeSeconds,omitempty"`
}

// GetHealth reports ok, degraded (upstream error rate over the window at or
// above the threshold), or shutting-down.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	now := h.clk.Now()
	errs, total := h.tracker.ErrorRate(h.cfg.DegradedWindow)

	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: now.Sub(h.cfg.StartTime).Seconds(),
		FetchErrors:   errs,
		FetchTotal:    total,
		QuotaDenials:  h.tracker.DenialCount(h.cfg.DegradedWindow),
	}
	if h.quota != nil {
		resp.QuotaCallsInWindow = h.quota.CallsInWindow()
	}
	if fetched, ok := h.gateway.CurrentFetchedAt(); ok {
		resp.CurrentAgeSeconds = now.Sub(fetched).Seconds()
	}
	if fetched, ok := h.gateway.ForecastFetchedAt(); ok {
		resp.ForecastAgeSeconds = now.Sub(fetched).Seconds()
	}

	code := http.StatusOK
	if total > 0 && errs*100 >= total*h.cfg.DegradedErrorPct {
		resp.Status = "degraded"
	}
	if h.shuttingDown.Load() {
		resp.Status = "shutting-down"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("encode health response", zap.Error(err))
	}
}
