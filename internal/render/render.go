package render

import (
	"time"

	"go.uber.org/zap"

	"github.com/yashmulgaonkar/plane-tracker-rgb-pi/internal/models"
)

// Renderer is the narrow output surface the scenes draw through. The pixel
// and font primitives live behind this boundary; a nil data pointer means
// "no data held, draw the placeholder state".
type Renderer interface {
	Temperature(cond *models.CurrentConditions, now time.Time)
	Forecast(forecast models.Forecast, cond *models.CurrentConditions, now time.Time)
	FlightLogo(logoName string)
}

// LogRenderer is the reference Renderer: it logs what a matrix driver would
// draw. Useful on machines without the panel attached and in soak tests.
type LogRenderer struct {
	logger *zap.Logger
}

// NewLogRenderer creates a LogRenderer.
func NewLogRenderer(logger *zap.Logger) *LogRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogRenderer{logger: logger}
}

func (r *LogRenderer) Temperature(cond *models.CurrentConditions, now time.Time) {
	if cond == nil {
		r.logger.Info("draw temperature placeholder")
		return
	}
	r.logger.Info("draw temperature",
		zap.Float64("temperature", cond.Temperature),
		zap.Float64("humidity", cond.Humidity))
}

func (r *LogRenderer) Forecast(forecast models.Forecast, cond *models.CurrentConditions, now time.Time) {
	fields := []zap.Field{zap.Int("days", len(forecast))}
	for _, day := range forecast {
		fields = append(fields, zap.String(day.Date.Format("Mon"),
			day.WeatherCode))
	}
	if cond != nil {
		fields = append(fields, zap.Float64("currentTemperature", cond.Temperature))
	}
	r.logger.Info("draw forecast", fields...)
}

func (r *LogRenderer) FlightLogo(logoName string) {
	r.logger.Info("draw flight logo", zap.String("logo", logoName))
}
