package status

import (
	"sync"
	"time"

	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/clock"
)

// Tracker maintains sliding windows of fetch outcome timestamps. The gateway
// records every fetch resolution; the health endpoint reads the error rate to
// report a degraded upstream. One instance per process, owned by main.
// Every record prunes entries older than the retention window, so memory
// stays bounded even when nothing ever reads the tracker.
type Tracker struct {
	mu           sync.Mutex
	clk          clock.Clock
	retention    time.Duration
	successTimes []time.Time
	errorTimes   []time.Time
	deniedTimes  []time.Time
}

// NewTracker creates a Tracker using the given clock. retention bounds how
// long outcomes are held and must cover the largest window queried;
// retention <= 0 falls back to one hour.
func NewTracker(clk clock.Clock, retention time.Duration) *Tracker {
	if retention <= 0 {
		retention = time.Hour
	}
	return &Tracker{clk: clk, retention: retention}
}

// RecordSuccess records a fetch that returned fresh data.
func (t *Tracker) RecordSuccess() {
	t.recordOutcome(&t.successTimes)
}

// RecordError records a fetch that exhausted retries or was disabled.
func (t *Tracker) RecordError() {
	t.recordOutcome(&t.errorTimes)
}

// RecordDenied records a fetch refused by the hourly quota.
func (t *Tracker) RecordDenied() {
	t.recordOutcome(&t.deniedTimes)
}

// ErrorRate returns (errorCount, totalCount) within the window.
// totalCount = successes + errors; quota denials are excluded since they are
// budget policy, not upstream health.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clk.Now()
	t.pruneLocked(now, window)
	return len(t.errorTimes), len(t.errorTimes) + len(t.successTimes)
}

// DenialCount returns the number of quota denials within the window.
func (t *Tracker) DenialCount(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clk.Now()
	t.pruneLocked(now, window)
	return len(t.deniedTimes)
}

func (t *Tracker) recordOutcome(times *[]time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clk.Now()
	t.pruneLocked(now, t.retention)
	*times = append(*times, now)
}

func (t *Tracker) pruneLocked(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	t.successTimes = pruneBefore(t.successTimes, cutoff)
	t.errorTimes = pruneBefore(t.errorTimes, cutoff)
	t.deniedTimes = pruneBefore(t.deniedTimes, cutoff)
}

func pruneBefore(times []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(times) && times[idx].Before(cutoff) {
		idx++
	}
	return times[idx:]
}
