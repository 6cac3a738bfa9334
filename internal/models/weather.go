package models

import "time"

// CurrentConditions is the realtime weather snapshot shown alongside scenes.
// Values are in the configured units (temperature defaults to Celsius).
type CurrentConditions struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// ForecastDay is a single day of the multi-day forecast.
type ForecastDay struct {
	Date        time.Time `json:"date"`
	MinTemp     float64   `json:"minTemp"`
	MaxTemp     float64   `json:"maxTemp"`
	WeatherCode string    `json:"weatherCode"`
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`
}

// Forecast is a chronological sequence of forecast days. Length matches the
// configured horizon, or fewer if upstream returned fewer intervals.
type Forecast []ForecastDay

// Equal reports whether two forecasts carry identical data. Scenes use this
// to detect upstream data changes between ticks.
func (f Forecast) Equal(other Forecast) bool {
	if len(f) != len(other) {
		return false
	}
	for i := range f {
		if !f[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether two forecast days carry identical data.
func (d ForecastDay) Equal(other ForecastDay) bool {
	return d.Date.Equal(other.Date) &&
		d.MinTemp == other.MinTemp &&
		d.MaxTemp == other.MaxTemp &&
		d.WeatherCode == other.WeatherCode &&
		d.Sunrise.Equal(other.Sunrise) &&
		d.Sunset.Equal(other.Sunset)
}
