package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/cache"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/clock"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/models"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/observability"
)

var (
	// ErrQuotaExhausted signals the hourly call budget is spent; callers
	// should use whatever cached data the gateway returned alongside it.
	ErrQuotaExhausted = errors.New("hourly call quota exhausted")

	// ErrDisabled signals the network path was permanently disabled by a
	// startup configuration error. Behaves like a quota that never resets.
	ErrDisabled = errors.New("weather gateway disabled")
)

// WeatherAPI is the upstream surface the gateway orchestrates.
type WeatherAPI interface {
	Realtime(ctx context.Context) (models.CurrentConditions, error)
	Timelines(ctx context.Context) (models.Forecast, error)
}

// Limiter reserves upstream call slots. Permit may block for spacing but
// cannot fail, only refuse.
type Limiter interface {
	Permit() bool
}

// Outcomes receives fetch resolutions for health reporting.
type Outcomes interface {
	RecordSuccess()
	RecordError()
	RecordDenied()
}

type nopOutcomes struct{}

func (nopOutcomes) RecordSuccess() {}
func (nopOutcomes) RecordError()   {}
func (nopOutcomes) RecordDenied()  {}

// Config holds the gateway's freshness and retry policy.
type Config struct {
	CurrentTTL   time.Duration // default 5m
	ForecastTTL  time.Duration // default 1h
	MaxRetries   int           // fetch rounds per miss, default 3
	Backoff      time.Duration // fixed sleep between failed rounds, default 2s
	FetchTimeout time.Duration // per-request bound, default 10s
}

func (c *Config) applyDefaults() {
	if c.CurrentTTL <= 0 {
		c.CurrentTTL = 5 * time.Minute
	}
	if c.ForecastTTL <= 0 {
		c.ForecastTTL = time.Hour
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 2 * time.Second
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
}

// Gateway mediates all access to the weather API. It owns one freshness
// cache per data kind and shares one rate limiter across both, so the hourly
// quota is charged once per network call no matter which scene asked.
// Every failure path terminates in "return best-available cached value".
type Gateway struct {
	api      WeatherAPI
	limiter  Limiter
	clk      clock.Clock
	logger   *zap.Logger
	outcomes Outcomes
	cfg      Config
	disabled bool

	currentMu  sync.Mutex
	forecastMu sync.Mutex
	current    *cache.Freshness[models.CurrentConditions]
	forecast   *cache.Freshness[models.Forecast]
}

// New creates a Gateway with a live network path.
func New(api WeatherAPI, limiter Limiter, clk clock.Clock, outcomes Outcomes, cfg Config, logger *zap.Logger) *Gateway {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if outcomes == nil {
		outcomes = nopOutcomes{}
	}
	return &Gateway{
		api:      api,
		limiter:  limiter,
		clk:      clk,
		logger:   logger,
		outcomes: outcomes,
		cfg:      cfg,
		current:  cache.New[models.CurrentConditions](),
		forecast: cache.New[models.Forecast](),
	}
}

// NewDisabled creates a Gateway whose network path is permanently off.
// Used when startup configuration is invalid (missing API key or location):
// the error is reported once by the caller and every fetch degrades to the
// stale fallback without touching the limiter or the network.
func NewDisabled(clk clock.Clock, outcomes Outcomes, logger *zap.Logger) *Gateway {
	g := New(nil, nil, clk, outcomes, Config{}, logger)
	g.disabled = true
	return g
}

// CurrentConditions returns the best-available current conditions at now.
// The bool reports whether a value is held at all; the error, when non-nil,
// is the reason the value may be stale (quota, transport, disabled).
func (g *Gateway) CurrentConditions(ctx context.Context, now time.Time) (models.CurrentConditions, bool, error) {
	return fetch(g, ctx, now, &g.currentMu, g.current, g.cfg.CurrentTTL, "current", func(ctx context.Context) (models.CurrentConditions, error) {
		return g.api.Realtime(ctx)
	})
}

// Forecast returns the best-available multi-day forecast at now, with the
// same value/held/reason contract as CurrentConditions.
func (g *Gateway) Forecast(ctx context.Context, now time.Time) (models.Forecast, bool, error) {
	return fetch(g, ctx, now, &g.forecastMu, g.forecast, g.cfg.ForecastTTL, "forecast", func(ctx context.Context) (models.Forecast, error) {
		return g.api.Timelines(ctx)
	})
}

// Prime runs one fetch pass per data kind so the first rendered frame has
// data when the upstream cooperates. Failures degrade exactly like any tick.
func (g *Gateway) Prime(ctx context.Context) {
	now := g.clk.Now()
	if _, ok, err := g.CurrentConditions(ctx, now); err != nil || !ok {
		g.logger.Warn("priming current conditions incomplete", zap.Bool("held", ok), zap.Error(err))
	}
	if _, ok, err := g.Forecast(ctx, g.clk.Now()); err != nil || !ok {
		g.logger.Warn("priming forecast incomplete", zap.Bool("held", ok), zap.Error(err))
	}
}

// CurrentFetchedAt reports the fetch time of the held current conditions.
func (g *Gateway) CurrentFetchedAt() (time.Time, bool) { return g.current.FetchedAt() }

// ForecastFetchedAt reports the fetch time of the held forecast.
func (g *Gateway) ForecastFetchedAt() (time.Time, bool) { return g.forecast.FetchedAt() }

// fetch implements the shared acquisition algorithm, parameterized by data
// kind: fresh-cache short circuit, quota-gated retry rounds with fixed
// backoff, and the stale-on-failure fallback. The per-kind mutex keeps at
// most one fetch outstanding per kind so overlapping ticks cannot
// double-charge the quota.
func fetch[T any](g *Gateway, ctx context.Context, now time.Time, mu *sync.Mutex, c *cache.Freshness[T], ttl time.Duration, kind string, call func(context.Context) (T, error)) (T, bool, error) {
	if c.IsFresh(now, ttl) {
		observability.CacheHitsTotal.WithLabelValues(kind).Inc()
		v, _ := c.Get()
		return v, true, nil
	}

	mu.Lock()
	defer mu.Unlock()

	// A concurrent caller may have refreshed the slot while we waited.
	if c.IsFresh(g.clk.Now(), ttl) {
		observability.CacheHitsTotal.WithLabelValues(kind).Inc()
		v, _ := c.Get()
		return v, true, nil
	}

	reason := attempt(g, ctx, c, kind, call)
	if reason == nil {
		v, _ := c.Get()
		return v, true, nil
	}

	v, held := c.Get()
	if held {
		observability.StaleServesTotal.WithLabelValues(kind).Inc()
		g.logger.Warn("serving stale data", zap.String("kind", kind), zap.Error(reason))
	} else {
		g.logger.Warn("no data available", zap.String("kind", kind), zap.Error(reason))
	}
	return v, held, reason
}

// attempt runs the retry rounds. It returns nil after a successful fetch has
// been stored, or the reason the last round failed. Quota refusal abandons
// all remaining rounds without sleeping: the window will not free up within
// any reasonable backoff, and retries would starve the other data kind.
func attempt[T any](g *Gateway, ctx context.Context, c *cache.Freshness[T], kind string, call func(context.Context) (T, error)) error {
	if g.disabled {
		g.outcomes.RecordError()
		return ErrDisabled
	}

	fetchID := uuid.NewString()
	var lastErr error
	for round := 0; round < g.cfg.MaxRetries; round++ {
		if round > 0 {
			observability.WeatherAPIRetriesTotal.Inc()
			g.clk.Sleep(g.cfg.Backoff)
		}

		if !g.limiter.Permit() {
			g.outcomes.RecordDenied()
			g.logger.Warn("fetch refused by quota",
				zap.String("kind", kind),
				zap.String("fetchId", fetchID))
			return ErrQuotaExhausted
		}

		callCtx, cancel := context.WithTimeout(ctx, g.cfg.FetchTimeout)
		v, err := call(callCtx)
		cancel()
		if err == nil {
			c.Set(v, g.clk.Now())
			g.outcomes.RecordSuccess()
			g.logger.Info("weather data refreshed",
				zap.String("kind", kind),
				zap.String("fetchId", fetchID),
				zap.Int("round", round+1))
			return nil
		}

		lastErr = err
		g.logger.Warn("weather fetch round failed",
			zap.String("kind", kind),
			zap.String("fetchId", fetchID),
			zap.Int("round", round+1),
			zap.Error(err))
	}

	g.outcomes.RecordError()
	return lastErr
}
