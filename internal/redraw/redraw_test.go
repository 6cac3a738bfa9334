package redraw

import (
	"testing"
	"time"
)

func mustTimeOfDay(t *testing.T, s string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q) error = %v", s, err)
	}
	return tod
}

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	return New(mustTimeOfDay(t, "22:00"), mustTimeOfDay(t, "06:00"))
}

func at(hour, min, sec int) time.Time {
	return time.Date(2024, 6, 1, hour, min, sec, 0, time.Local)
}

// TestParseTimeOfDay covers valid and invalid HH:MM inputs.
func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "22:00", want: TimeOfDay{22, 0}},
		{in: "06:30", want: TimeOfDay{6, 30}},
		{in: "00:00", want: TimeOfDay{0, 0}},
		{in: "24:00", wantErr: true},
		{in: "9pm", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseTimeOfDay(%q) error = nil, want error", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeOfDay(%q) error = %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseTimeOfDay(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

// TestCoordinator_FirstTickAlwaysRedraws verifies the initial forced state:
// there is no prior frame, so the first call reports true regardless of inputs.
func TestCoordinator_FirstTickAlwaysRedraws(t *testing.T) {
	c := newTestCoordinator(t)
	if !c.ShouldRedraw(at(14, 30, 45), false) {
		t.Error("first ShouldRedraw() = false, want true")
	}
}

// TestCoordinator_SteadyStateReusesFrame verifies that with the same hour,
// no boundary, and unchanged data, subsequent ticks report false.
func TestCoordinator_SteadyStateReusesFrame(t *testing.T) {
	c := newTestCoordinator(t)
	c.ShouldRedraw(at(14, 30, 0), false)

	for sec := 1; sec <= 10; sec++ {
		if c.ShouldRedraw(at(14, 30, sec), false) {
			t.Fatalf("ShouldRedraw() at second %d = true, want false", sec)
		}
	}
}

// TestCoordinator_HourRollover verifies the hour-component trigger and that
// it fires only once.
func TestCoordinator_HourRollover(t *testing.T) {
	c := newTestCoordinator(t)
	c.ShouldRedraw(at(14, 59, 59), false)

	if !c.ShouldRedraw(at(15, 0, 1), false) {
		t.Fatal("ShouldRedraw() after hour rollover = false, want true")
	}
	if c.ShouldRedraw(at(15, 0, 2), false) {
		t.Error("ShouldRedraw() repeated within same hour = true, want false")
	}
}

// TestCoordinator_NightBoundaries verifies redraws fire exactly at the
// night-start and night-end instants, at second granularity.
func TestCoordinator_NightBoundaries(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"night start exact", at(22, 0, 0), true},
		{"night end exact", at(6, 0, 0), true},
		{"one second after start", at(22, 0, 1), false},
		{"one minute before start", at(21, 59, 0), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestCoordinator(t)
			// Burn the startup redraw the previous day in the same hour
			// component, so only the boundary trigger can fire at the probe.
			burn := time.Date(2024, 5, 31, tc.now.Hour(), 30, 0, 0, time.Local)
			c.ShouldRedraw(burn, false)

			if got := c.ShouldRedraw(tc.now, false); got != tc.want {
				t.Errorf("ShouldRedraw(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

// TestCoordinator_DataChange verifies the upstream-data trigger.
func TestCoordinator_DataChange(t *testing.T) {
	c := newTestCoordinator(t)
	c.ShouldRedraw(at(10, 0, 0), false)

	if !c.ShouldRedraw(at(10, 0, 1), true) {
		t.Fatal("ShouldRedraw(dataChanged=true) = false, want true")
	}
	if c.ShouldRedraw(at(10, 0, 2), false) {
		t.Error("ShouldRedraw() after consumed data change = true, want false")
	}
}

// TestCoordinator_Force verifies an external invalidation arms exactly one
// redraw.
func TestCoordinator_Force(t *testing.T) {
	c := newTestCoordinator(t)
	c.ShouldRedraw(at(10, 0, 0), false)

	c.Force()
	if !c.ShouldRedraw(at(10, 0, 1), false) {
		t.Fatal("ShouldRedraw() after Force() = false, want true")
	}
	if c.ShouldRedraw(at(10, 0, 2), false) {
		t.Error("ShouldRedraw() = true after forced redraw consumed, want false")
	}
}
