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

// TemperatureScene shows the current temperature and humidity. It redraws on
// hour rollover, night boundaries, and when the reading itself changes;
// otherwise the prior frame stands.
type TemperatureScene struct {
	source   WeatherSource
	coord    *redraw.Coordinator
	renderer render.Renderer
	logger   *zap.Logger

	last *models.CurrentConditions
}

// NewTemperatureScene creates the scene with its own redraw coordinator.
func NewTemperatureScene(source WeatherSource, coord *redraw.Coordinator, renderer render.Renderer, logger *zap.Logger) *TemperatureScene {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemperatureScene{
		source:   source,
		coord:    coord,
		renderer: renderer,
		logger:   logger,
	}
}

func (s *TemperatureScene) Name() string { return "temperature" }

func (s *TemperatureScene) Tick(ctx context.Context, now time.Time) {
	cond, held, err := s.source.CurrentConditions(ctx, now)
	if err != nil {
		s.logger.Debug("temperature degraded", zap.Bool("held", held), zap.Error(err))
	}

	dataChanged := held && (s.last == nil || *s.last != cond)
	if !s.coord.ShouldRedraw(now, dataChanged) {
		return
	}
	observability.RedrawsTotal.WithLabelValues(s.Name()).Inc()

	if !held {
		s.renderer.Temperature(nil, now)
		return
	}
	s.renderer.Temperature(&cond, now)
	snapshot := cond
	s.last = &snapshot
}
