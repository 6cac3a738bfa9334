package scenes

import (
	"context"
	"time"

	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/models"
)

// Scene is one display state in the rotation. Tick is invoked once per
// driver cadence and must run to completion; scenes decide internally
// whether the tick requires a redraw.
type Scene interface {
	Name() string
	Tick(ctx context.Context, now time.Time)
}

// WeatherSource is the slice of the gateway the weather scenes consume.
type WeatherSource interface {
	CurrentConditions(ctx context.Context, now time.Time) (models.CurrentConditions, bool, error)
	Forecast(ctx context.Context, now time.Time) (models.Forecast, bool, error)
}

// Flight is the minimal flight identity the logo scene needs.
type Flight struct {
	OwnerICAO string
}

// FlightSource supplies the currently tracked flight. The real tracker is an
// external collaborator; this repo only consumes it.
type FlightSource interface {
	Current() (Flight, bool)
}

// NoFlights is a FlightSource with nothing overhead.
type NoFlights struct{}

func (NoFlights) Current() (Flight, bool) { return Flight{}, false }
