// Package units holds the speed and distance conversions shared by the trip
// filter and reporting code. Trip files report distance in miles; everything
// internal works in meters and meters per second.
package units

// Unit names accepted wherever a speed unit is configurable.
const (
	MPS = "mps"
	MPH = "mph"
	KPH = "kph"
)

// MetersPerMile is the exact statute mile.
const MetersPerMile = 1609.344

// MilesToMeters converts odometer miles to meters.
func MilesToMeters(miles float64) float64 { return miles * MetersPerMile }

// MetersToMiles converts meters to miles.
func MetersToMiles(meters float64) float64 { return meters / MetersPerMile }

// IsValid reports whether unit names a supported speed unit.
func IsValid(unit string) bool {
	return unit == MPS || unit == MPH || unit == KPH
}

// ConvertSpeed converts a speed in meters per second to the target unit.
// Unknown units pass the value through unchanged.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 3600 / MetersPerMile
	case KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}
