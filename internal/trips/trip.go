// Package trips defines the taxi trip record, its CSV codec, and the
// row-level filters applied before clustering.
package trips

import (
	"time"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the Earth's mean radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

// Trip is a single taxi trip as exported in the yellow-cab trip files.
// Coordinates are WGS84 degrees; TripDistance is the meter-reported
// distance in miles.
type Trip struct {
	Medallion      string    `json:"medallion,omitempty"`
	PickupTime     time.Time `json:"pickup_time"`
	DropoffTime    time.Time `json:"dropoff_time"`
	PassengerCount int       `json:"passenger_count"`
	TripDistance   float64   `json:"trip_distance"`
	PickupLng      float64   `json:"pickup_longitude"`
	PickupLat      float64   `json:"pickup_latitude"`
	DropoffLng     float64   `json:"dropoff_longitude"`
	DropoffLat     float64   `json:"dropoff_latitude"`
	FareAmount     float64   `json:"fare_amount"`
	TipAmount      float64   `json:"tip_amount"`
	TotalAmount    float64   `json:"total_amount"`
}

// Duration returns the trip duration derived from the pickup and dropoff
// timestamps. It is zero when either timestamp is missing.
func (t *Trip) Duration() time.Duration {
	if t.PickupTime.IsZero() || t.DropoffTime.IsZero() {
		return 0
	}
	return t.DropoffTime.Sub(t.PickupTime)
}

// CrowDistanceMeters returns the great-circle distance between the pickup
// and dropoff points. Useful as a sanity bound against the meter-reported
// trip distance.
func (t *Trip) CrowDistanceMeters() float64 {
	p1 := s2.LatLngFromDegrees(t.PickupLat, t.PickupLng)
	p2 := s2.LatLngFromDegrees(t.DropoffLat, t.DropoffLng)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// HasPickupLocation reports whether the pickup coordinates are present.
// The export writes 0,0 for rows where the GPS fix was missing.
func (t *Trip) HasPickupLocation() bool {
	return t.PickupLng != 0 || t.PickupLat != 0
}
