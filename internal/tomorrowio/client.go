package tomorrowio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/clock"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/models"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/observability"
)

var (
	ErrInvalidConfig     = errors.New("invalid client configuration")
	ErrTransport         = errors.New("transport failure")
	ErrMalformedResponse = errors.New("malformed response")
)

// forecastFields is the field list the timelines endpoint is asked for.
// moonPhase is requested for parity with the display's request shape even
// though the forecast model does not surface it yet.
var forecastFields = []string{
	"temperatureMin",
	"temperatureMax",
	"weatherCodeFullDay",
	"sunriseTime",
	"sunsetTime",
	"moonPhase",
}

// Config holds the tomorrow.io client parameters.
type Config struct {
	APIKey       string
	BaseURL      string
	Location     string
	Units        string
	ForecastDays int
	Timeout      time.Duration
	Clock        clock.Clock
	Logger       *zap.Logger
}

// Client talks to the tomorrow.io v4 API: GET weather/realtime for current
// conditions and POST timelines for the multi-day forecast. Calls run through
// a circuit breaker; an open breaker reads as a transport failure so the
// caller's stale-fallback path applies unchanged.
type Client struct {
	apiKey       string
	baseURL      string
	location     string
	units        string
	forecastDays int
	timeout      time.Duration
	clk          clock.Clock
	logger       *zap.Logger
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker
}

// New validates the configuration and creates a Client. A missing API key or
// location is a configuration error; the caller reports it once and runs the
// gateway in disabled mode rather than retrying a guaranteed-invalid request.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidConfig)
	}
	if cfg.Location == "" {
		return nil, fmt.Errorf("%w: location is required", ErrInvalidConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.tomorrow.io/v4"
	}
	if cfg.Units != "metric" && cfg.Units != "imperial" {
		cfg.Units = "metric"
	}
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "tomorrowio",
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		location:     cfg.Location,
		units:        cfg.Units,
		forecastDays: cfg.ForecastDays,
		timeout:      cfg.Timeout,
		clk:          cfg.Clock,
		logger:       cfg.Logger,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		breaker:      breaker,
	}, nil
}

type realtimeResponse struct {
	Data *struct {
		Values *struct {
			Temperature *float64 `json:"temperature"`
			Humidity    *float64 `json:"humidity"`
		} `json:"values"`
	} `json:"data"`
}

// Realtime fetches current conditions. A missing temperature or humidity
// field inside an otherwise well-formed response is substituted with 0 and
// logged; only a missing envelope fails the fetch.
func (c *Client) Realtime(ctx context.Context) (models.CurrentConditions, error) {
	endpoint := c.baseURL + "/weather/realtime"
	params := url.Values{}
	params.Set("location", c.location)
	params.Set("units", c.units)
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return models.CurrentConditions{}, fmt.Errorf("build realtime request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, "realtime")
	if err != nil {
		return models.CurrentConditions{}, err
	}

	var resp realtimeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.CurrentConditions{}, fmt.Errorf("%w: parse realtime: %v", ErrMalformedResponse, err)
	}
	if resp.Data == nil || resp.Data.Values == nil {
		return models.CurrentConditions{}, fmt.Errorf("%w: realtime values missing", ErrMalformedResponse)
	}

	var cond models.CurrentConditions
	cond.Temperature = c.floatOrSentinel(resp.Data.Values.Temperature, "temperature")
	cond.Humidity = c.floatOrSentinel(resp.Data.Values.Humidity, "humidity")
	return cond, nil
}

type timelinesRequest struct {
	Location  string   `json:"location"`
	Units     string   `json:"units"`
	Fields    []string `json:"fields"`
	Timesteps []string `json:"timesteps"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
}

type timelineInterval struct {
	StartTime string `json:"startTime"`
	Values    struct {
		TemperatureMin     *float64    `json:"temperatureMin"`
		TemperatureMax     *float64    `json:"temperatureMax"`
		WeatherCodeFullDay json.Number `json:"weatherCodeFullDay"`
		SunriseTime        string      `json:"sunriseTime"`
		SunsetTime         string      `json:"sunsetTime"`
	} `json:"values"`
}

type timelinesResponse struct {
	Data *struct {
		Timelines []struct {
			Intervals []timelineInterval `json:"intervals"`
		} `json:"timelines"`
	} `json:"data"`
}

// Timelines fetches the daily forecast for the configured horizon. The window
// starts six hours from now so the tail of the current day is skipped, which
// matches what the display expects to show. A missing field on a single day
// gets the sentinel; it never fails the fetch or the other days.
func (c *Client) Timelines(ctx context.Context) (models.Forecast, error) {
	start := c.clk.Now().UTC().Add(6 * time.Hour)
	end := start.AddDate(0, 0, c.forecastDays)

	payload, err := json.Marshal(timelinesRequest{
		Location:  c.location,
		Units:     c.units,
		Fields:    forecastFields,
		Timesteps: []string{"1d"},
		StartTime: start.Format(time.RFC3339),
		EndTime:   end.Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("encode timelines request: %w", err)
	}

	endpoint := c.baseURL + "/timelines"
	params := url.Values{}
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+params.Encode(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build timelines request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, "timelines")
	if err != nil {
		return nil, err
	}

	var resp timelinesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse timelines: %v", ErrMalformedResponse, err)
	}
	if resp.Data == nil || len(resp.Data.Timelines) == 0 {
		return nil, fmt.Errorf("%w: timelines missing", ErrMalformedResponse)
	}
	intervals := resp.Data.Timelines[0].Intervals
	if len(intervals) == 0 {
		return nil, fmt.Errorf("%w: forecast intervals missing", ErrMalformedResponse)
	}

	forecast := make(models.Forecast, 0, len(intervals))
	for _, interval := range intervals {
		forecast = append(forecast, c.mapInterval(interval))
	}
	return forecast, nil
}

func (c *Client) mapInterval(interval timelineInterval) models.ForecastDay {
	day := models.ForecastDay{
		MinTemp: c.floatOrSentinel(interval.Values.TemperatureMin, "temperatureMin"),
		MaxTemp: c.floatOrSentinel(interval.Values.TemperatureMax, "temperatureMax"),
	}
	day.Date = c.timeOrSentinel(interval.StartTime, "startTime")
	day.Sunrise = c.timeOrSentinel(interval.Values.SunriseTime, "sunriseTime")
	day.Sunset = c.timeOrSentinel(interval.Values.SunsetTime, "sunsetTime")

	code := interval.Values.WeatherCodeFullDay.String()
	if code == "" {
		c.recordFieldFallback("weatherCodeFullDay")
	}
	day.WeatherCode = code
	return day
}

// do executes a single request through the circuit breaker and returns the
// response body. Any non-2xx status, network error, or open breaker maps to
// ErrTransport so the gateway's retry and stale-fallback policy applies.
func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, resp.Body)
			return nil, fmt.Errorf("%w: HTTP %d", ErrTransport, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
		}
		return body, nil
	})
	duration := time.Since(start).Seconds()

	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
		observability.WeatherAPIDuration.WithLabelValues(endpoint, "error").Observe(duration)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit breaker open", ErrTransport)
		}
		return nil, err
	}

	observability.WeatherAPICallsTotal.WithLabelValues(endpoint, "success").Inc()
	observability.WeatherAPIDuration.WithLabelValues(endpoint, "success").Observe(duration)
	return result.([]byte), nil
}

func (c *Client) floatOrSentinel(v *float64, field string) float64 {
	if v == nil {
		c.recordFieldFallback(field)
		return 0
	}
	return *v
}

func (c *Client) timeOrSentinel(s, field string) time.Time {
	if s == "" {
		c.recordFieldFallback(field)
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		c.recordFieldFallback(field)
		return time.Time{}
	}
	return t
}

func (c *Client) recordFieldFallback(field string) {
	observability.FieldFallbacksTotal.WithLabelValues(field).Inc()
	c.logger.Warn("response field missing, using sentinel", zap.String("field", field))
}
