package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/clock"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/status"
)

type fakeGatewayInfo struct {
	currentAt  time.Time
	currentOK  bool
	forecastAt time.Time
	forecastOK bool
}

func (f *fakeGatewayInfo) CurrentFetchedAt() (time.Time, bool)  { return f.currentAt, f.currentOK }
func (f *fakeGatewayInfo) ForecastFetchedAt() (time.Time, bool) { return f.forecastAt, f.forecastOK }

type fakeQuotaInfo struct {
	calls int
}

func (f *fakeQuotaInfo) CallsInWindow() int { return f.calls }

func testStart() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestHandler(clk clock.Clock, tracker *status.Tracker, gw GatewayInfo, quota QuotaInfo) *Handler {
	cfg := HealthConfig{
		DegradedWindow:   30 * time.Minute,
		DegradedErrorPct: 50,
		StartTime:        testStart(),
	}
	return NewHandler(tracker, gw, quota, cfg, clk, nil)
}

func getHealth(t *testing.T, h *Handler) (int, healthResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.GetHealth(rec, req)

	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	return rec.Code, resp
}

// TestGetHealth_OK verifies the happy path payload.
func TestGetHealth_OK(t *testing.T) {
	clk := clock.NewFake(testStart().Add(90 * time.Second))
	tracker := status.NewTracker(clk, 30*time.Minute)
	tracker.RecordSuccess()

	gw := &fakeGatewayInfo{
		currentAt: clk.Now().Add(-45 * time.Second),
		currentOK: true,
	}
	h := newTestHandler(clk, tracker, gw, &fakeQuotaInfo{calls: 7})

	code, resp := getHealth(t, h)
	if code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", code)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if resp.UptimeSeconds != 90 {
		t.Errorf("uptimeSeconds = %v, want 90", resp.UptimeSeconds)
	}
	if resp.FetchErrors != 0 || resp.FetchTotal != 1 {
		t.Errorf("fetch counts = %d/%d, want 0/1", resp.FetchErrors, resp.FetchTotal)
	}
	if resp.QuotaCallsInWindow != 7 {
		t.Errorf("quotaCallsInWindow = %d, want 7", resp.QuotaCallsInWindow)
	}
	if resp.CurrentAgeSeconds != 45 {
		t.Errorf("currentAgeSeconds = %v, want 45", resp.CurrentAgeSeconds)
	}
	if resp.ForecastAgeSeconds != 0 {
		t.Errorf("forecastAgeSeconds = %v, want omitted/zero", resp.ForecastAgeSeconds)
	}
}

// TestGetHealth_Degraded verifies the error-rate threshold flips the status
// but keeps serving 200: degraded is advisory, the display keeps running.
func TestGetHealth_Degraded(t *testing.T) {
	clk := clock.NewFake(testStart())
	tracker := status.NewTracker(clk, 30*time.Minute)
	tracker.RecordError()
	tracker.RecordSuccess()

	h := newTestHandler(clk, tracker, &fakeGatewayInfo{}, nil)

	code, resp := getHealth(t, h)
	if code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", code)
	}
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want degraded (1/2 errors at 50%% threshold)", resp.Status)
	}
}

// TestGetHealth_BelowThresholdStaysOK verifies a sub-threshold error rate
// reports ok.
func TestGetHealth_BelowThresholdStaysOK(t *testing.T) {
	clk := clock.NewFake(testStart())
	tracker := status.NewTracker(clk, 30*time.Minute)
	tracker.RecordError()
	tracker.RecordSuccess()
	tracker.RecordSuccess()

	h := newTestHandler(clk, tracker, &fakeGatewayInfo{}, nil)

	if _, resp := getHealth(t, h); resp.Status != "ok" {
		t.Errorf("status = %q, want ok (1/3 errors below 50%% threshold)", resp.Status)
	}
}

// TestGetHealth_ShuttingDown verifies the drain flag wins over everything
// and returns 503.
func TestGetHealth_ShuttingDown(t *testing.T) {
	clk := clock.NewFake(testStart())
	tracker := status.NewTracker(clk, 30*time.Minute)

	h := newTestHandler(clk, tracker, &fakeGatewayInfo{}, nil)
	h.SetShuttingDown(true)

	code, resp := getHealth(t, h)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("status code = %d, want 503", code)
	}
	if resp.Status != "shutting-down" {
		t.Errorf("status = %q, want shutting-down", resp.Status)
	}
}

// TestGetHealth_NilQuota verifies a disabled gateway (no limiter) does not
// panic the endpoint.
func TestGetHealth_NilQuota(t *testing.T) {
	clk := clock.NewFake(testStart())
	h := newTestHandler(clk, status.NewTracker(clk, 30*time.Minute), &fakeGatewayInfo{}, nil)

	code, resp := getHealth(t, h)
	if code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", code)
	}
	if resp.QuotaCallsInWindow != 0 {
		t.Errorf("quotaCallsInWindow = %d, want 0", resp.QuotaCallsInWindow)
	}
}

// TestRouter_HealthRoute verifies the route wiring end to end through the
// mux router and metrics middleware.
func TestRouter_HealthRoute(t *testing.T) {
	clk := clock.NewFake(testStart())
	h := newTestHandler(clk, status.NewTracker(clk, 30*time.Minute), &fakeGatewayInfo{}, nil)
	router := NewRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /health = %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d, want 200", rec.Code)
	}
}
