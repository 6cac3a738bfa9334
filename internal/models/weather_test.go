package models

import (
	"testing"
	"time"
)

func day(date string, min, max float64, code string) ForecastDay {
	d, _ := time.Parse(time.RFC3339, date)
	return ForecastDay{Date: d, MinTemp: min, MaxTemp: max, WeatherCode: code}
}

// TestForecast_Equal verifies identity comparison used for redraw decisions.
func TestForecast_Equal(t *testing.T) {
	base := Forecast{
		day("2024-06-02T12:00:00Z", 10, 20, "1000"),
		day("2024-06-03T12:00:00Z", 11, 21, "1100"),
	}

	tests := []struct {
		name  string
		other Forecast
		want  bool
	}{
		{"identical", Forecast{
			day("2024-06-02T12:00:00Z", 10, 20, "1000"),
			day("2024-06-03T12:00:00Z", 11, 21, "1100"),
		}, true},
		{"nil", nil, false},
		{"shorter", base[:1], false},
		{"different temp", Forecast{
			day("2024-06-02T12:00:00Z", 10, 25, "1000"),
			day("2024-06-03T12:00:00Z", 11, 21, "1100"),
		}, false},
		{"different code", Forecast{
			day("2024-06-02T12:00:00Z", 10, 20, "4000"),
			day("2024-06-03T12:00:00Z", 11, 21, "1100"),
		}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := base.Equal(tc.other); got != tc.want {
				t.Errorf("Equal() = %v, want %v", got, tc.want)
			}
		})
	}
}

// TestForecastDay_Equal_TimezoneInsensitive verifies equal instants in
// different zones compare equal.
func TestForecastDay_Equal_TimezoneInsensitive(t *testing.T) {
	utc, _ := time.Parse(time.RFC3339, "2024-06-02T12:00:00Z")
	offset, _ := time.Parse(time.RFC3339, "2024-06-02T14:00:00+02:00")

	a := ForecastDay{Date: utc}
	b := ForecastDay{Date: offset}
	if !a.Equal(b) {
		t.Error("Equal() = false for same instant in different zones, want true")
	}
}

// TestForecast_Equal_EmptyVsNil treats an empty and a nil forecast as equal:
// neither holds a day to draw.
func TestForecast_Equal_EmptyVsNil(t *testing.T) {
	if !(Forecast{}).Equal(nil) {
		t.Error("empty forecast should equal nil forecast")
	}
}
