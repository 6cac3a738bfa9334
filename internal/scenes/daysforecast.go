package scenes

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/models"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/observability"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/redraw"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/render"
)

// DaysForecastScene shows the multi-day forecast with the current temperature
// in the corner. Both data kinds ride the same gateway, so their freshness
// windows differ but the quota is shared.
type DaysForecastScene struct {
	source   WeatherSource
	coord    *redraw.Coordinator
	renderer render.Renderer
	logger   *zap.Logger

	lastForecast models.Forecast
	lastCurrent  *models.CurrentConditions
}

// NewDaysForecastScene creates the scene with its own redraw coordinator.
func NewDaysForecastScene(source WeatherSource, coord *redraw.Coordinator, renderer render.Renderer, logger *zap.Logger) *DaysForecastScene {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DaysForecastScene{
		source:   source,
		coord:    coord,
		renderer: renderer,
		logger:   logger,
	}
}

func (s *DaysForecastScene) Name() string { return "daysforecast" }

func (s *DaysForecastScene) Tick(ctx context.Context, now time.Time) {
	forecast, heldF, errF := s.source.Forecast(ctx, now)
	if errF != nil {
		s.logger.Debug("forecast degraded", zap.Bool("held", heldF), zap.Error(errF))
	}
	cond, heldC, errC := s.source.CurrentConditions(ctx, now)
	if errC != nil {
		s.logger.Debug("current conditions degraded", zap.Bool("held", heldC), zap.Error(errC))
	}

	dataChanged := (heldF && !forecast.Equal(s.lastForecast)) ||
		(heldC && (s.lastCurrent == nil || *s.lastCurrent != cond))
	if !s.coord.ShouldRedraw(now, dataChanged) {
		return
	}
	observability.RedrawsTotal.WithLabelValues(s.Name()).Inc()

	var condPtr *models.CurrentConditions
	if heldC {
		snapshot := cond
		condPtr = &snapshot
		s.lastCurrent = &snapshot
	}
	if !heldF {
		s.renderer.Forecast(nil, condPtr, now)
		return
	}
	s.renderer.Forecast(forecast, condPtr, now)
	s.lastForecast = forecast
}
