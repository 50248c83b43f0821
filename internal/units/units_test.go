package units

import (
	"math"
	"testing"
)

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name     string
		speedMPS float64
		units    string
		expected float64
	}{
		{"10 m/s to mph", 10.0, MPH, 22.3694},
		{"10 m/s to kph", 10.0, KPH, 36.0},
		{"10 m/s to mps", 10.0, MPS, 10.0},
		{"unknown unit passes through", 10.0, "furlongs", 10.0},
		{"zero speed", 0.0, MPH, 0.0},
		{"highway speed 31.29 m/s to mph", 31.29, MPH, 70.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertSpeed(tt.speedMPS, tt.units)
			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("ConvertSpeed(%f, %s) = %f, want %f", tt.speedMPS, tt.units, result, tt.expected)
			}
		})
	}
}

func TestDistanceConversions(t *testing.T) {
	if got := MilesToMeters(1); got != 1609.344 {
		t.Errorf("MilesToMeters(1) = %v, want 1609.344", got)
	}
	if got := MetersToMiles(1609.344); got != 1 {
		t.Errorf("MetersToMiles(1609.344) = %v, want 1", got)
	}

	// Round trip.
	for _, miles := range []float64{0, 0.1, 2.5, 100} {
		if got := MetersToMiles(MilesToMeters(miles)); math.Abs(got-miles) > 1e-12 {
			t.Errorf("round trip of %v miles drifted to %v", miles, got)
		}
	}
}

func TestIsValid(t *testing.T) {
	for _, unit := range []string{MPS, MPH, KPH} {
		if !IsValid(unit) {
			t.Errorf("IsValid(%q) = false, want true", unit)
		}
	}
	for _, unit := range []string{"", "MPH", "kmph", "knots"} {
		if IsValid(unit) {
			t.Errorf("IsValid(%q) = true, want false", unit)
		}
	}
}
