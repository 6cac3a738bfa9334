package scenes

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/observability"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/redraw"
	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/render"
)

// DefaultLogo is the logo name used when the tracked flight has no usable
// owner ICAO.
const DefaultLogo = "default"

// FlightLogoScene shows the airline logo of the currently tracked flight.
// It redraws when the flight identity changes; with nothing overhead it
// shows the default logo.
type FlightLogoScene struct {
	source   FlightSource
	coord    *redraw.Coordinator
	renderer render.Renderer
	logger   *zap.Logger

	lastLogo string
}

// NewFlightLogoScene creates the scene with its own redraw coordinator.
func NewFlightLogoScene(source FlightSource, coord *redraw.Coordinator, renderer render.Renderer, logger *zap.Logger) *FlightLogoScene {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlightLogoScene{
		source:   source,
		coord:    coord,
		renderer: renderer,
		logger:   logger,
	}
}

func (s *FlightLogoScene) Name() string { return "flightlogo" }

func (s *FlightLogoScene) Tick(ctx context.Context, now time.Time) {
	logo := DefaultLogo
	if flight, ok := s.source.Current(); ok {
		if icao := flight.OwnerICAO; icao != "" && icao != "N/A" {
			logo = icao
		}
	}

	dataChanged := logo != s.lastLogo && s.lastLogo != ""
	if !s.coord.ShouldRedraw(now, dataChanged) {
		return
	}
	observability.RedrawsTotal.WithLabelValues(s.Name()).Inc()

	s.renderer.FlightLogo(logo)
	s.lastLogo = logo
}
