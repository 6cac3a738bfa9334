package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/clock"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/observability"
)

// Window is the quota accounting period mandated by the tomorrow.io plan.
const Window = time.Hour

// Limiter enforces the upstream API budget: a rolling hourly call quota and a
// minimum delay between consecutive calls. The window resets lazily on the
// first Permit observed after the boundary has elapsed; there is no
// background timer. One Limiter is shared by every data kind so the quota is
// charged once per network call, regardless of which scene triggered it.
type Limiter struct {
	mu          sync.Mutex
	clk         clock.Clock
	logger      *zap.Logger
	quota       int
	spacing     *rate.Limiter // nil when minimum spacing is disabled
	windowStart time.Time
	calls       int
}

// New creates a Limiter with the given hourly quota and minimum spacing
// between granted calls. quota <= 0 falls back to 25; minSpacing <= 0
// disables spacing.
func New(clk clock.Clock, quota int, minSpacing time.Duration, logger *zap.Logger) *Limiter {
	if quota <= 0 {
		quota = 25
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var spacing *rate.Limiter
	if minSpacing > 0 {
		spacing = rate.NewLimiter(rate.Every(minSpacing), 1)
	}
	return &Limiter{
		clk:     clk,
		logger:  logger,
		quota:   quota,
		spacing: spacing,
	}
}

// Permit reserves one upstream call slot. It returns false without consuming
// a slot when the quota for the current rolling hour is exhausted. When it
// returns true it may have blocked the caller to honor the minimum spacing
// since the previous granted call. Permit cannot fail, only refuse.
func (l *Limiter) Permit() bool {
	l.mu.Lock()

	now := l.clk.Now()
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= Window {
		l.windowStart = now
		l.calls = 0
	}

	if l.calls >= l.quota {
		resetsIn := Window - now.Sub(l.windowStart)
		l.mu.Unlock()
		observability.QuotaDeniedTotal.Inc()
		l.logger.Warn("hourly call quota reached",
			zap.Int("quota", l.quota),
			zap.Duration("resetsIn", resetsIn))
		return false
	}

	l.calls++
	var delay time.Duration
	if l.spacing != nil {
		// ReserveN against the injected clock keeps spacing testable with
		// simulated time; Sleep on the fake clock advances instead of blocking.
		delay = l.spacing.ReserveN(now, 1).DelayFrom(now)
	}
	l.mu.Unlock()

	// The spacing wait happens outside the lock: CallsInWindow must stay
	// readable while a granted call waits out its delay.
	if delay > 0 {
		l.clk.Sleep(delay)
	}
	return true
}

// CallsInWindow returns the number of granted calls in the current rolling
// hour. It does not mutate the window; a fully elapsed window reads as 0.
func (l *Limiter) CallsInWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.windowStart.IsZero() || l.clk.Now().Sub(l.windowStart) >= Window {
		return 0
	}
	return l.calls
}
