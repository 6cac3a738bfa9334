package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/clock"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/config"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/driver"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/gateway"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/httpapi"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/observability"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/ratelimit"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/redraw"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/render"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/scenes"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/status"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/tomorrowio"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	clk := clock.System()
	tracker := status.NewTracker(clk, cfg.DegradedWindow)

	// An unusable API key or location is reported once and the gateway runs
	// disabled for the process lifetime; the display falls back to
	// placeholder frames instead of hammering a guaranteed-invalid request.
	var gw *gateway.Gateway
	var quota httpapi.QuotaInfo
	weatherClient, err := tomorrowio.New(tomorrowio.Config{
		APIKey:       cfg.APIKey,
		Location:     cfg.Location,
		Units:        cfg.Units,
		ForecastDays: cfg.ForecastDays,
		Timeout:      cfg.FetchTimeout,
		Clock:        clk,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("weather gateway disabled", zap.Error(err))
		gw = gateway.NewDisabled(clk, tracker, logger)
	} else {
		limiter := ratelimit.New(clk, cfg.HourlyQuota, cfg.MinCallSpacing, logger)
		observability.RegisterQuotaGauge(func() float64 {
			return float64(limiter.CallsInWindow())
		})
		quota = limiter
		gw = gateway.New(weatherClient, limiter, clk, tracker, gateway.Config{
			CurrentTTL:   cfg.CurrentTTL,
			ForecastTTL:  cfg.ForecastTTL,
			MaxRetries:   cfg.MaxRetries,
			Backoff:      cfg.RetryBackoff,
			FetchTimeout: cfg.FetchTimeout,
		}, logger)
	}

	nightStart, err := redraw.ParseTimeOfDay(cfg.NightStart)
	if err != nil {
		logger.Fatal("night start", zap.Error(err))
	}
	nightEnd, err := redraw.ParseTimeOfDay(cfg.NightEnd)
	if err != nil {
		logger.Fatal("night end", zap.Error(err))
	}

	// The matrix driver is external; the log renderer stands in for it.
	renderer := render.NewLogRenderer(logger)
	var flights scenes.FlightSource = scenes.NoFlights{}

	sceneList := []driver.Scene{
		scenes.NewFlightLogoScene(flights, redraw.New(nightStart, nightEnd), renderer, logger),
		scenes.NewTemperatureScene(gw, redraw.New(nightStart, nightEnd), renderer, logger),
		scenes.NewDaysForecastScene(gw, redraw.New(nightStart, nightEnd), renderer, logger),
	}

	primeCtx, primeCancel := context.WithTimeout(context.Background(), time.Minute)
	gw.Prime(primeCtx)
	primeCancel()

	d := driver.New(clk, logger, sceneList...)
	if err := d.Start(); err != nil {
		logger.Fatal("scene driver", zap.Error(err))
	}

	handler := httpapi.NewHandler(tracker, gw, quota, httpapi.HealthConfig{
		DegradedWindow:   cfg.DegradedWindow,
		DegradedErrorPct: cfg.DegradedErrorPct,
		StartTime:        clk.Now(),
	}, clk, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpapi.NewRouter(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("debug server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("debug server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	handler.SetShuttingDown(true)
	d.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("debug server shutdown", zap.Error(err))
	}
}
