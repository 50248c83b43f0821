package trips

import (
	"fmt"
	"time"

	"github.com/banshee-data/triphubs/internal/units"
)

// Reject is the reason a trip failed the filter. Reasons are checked in a
// fixed order and the first failure wins, so the per-reason counters
// partition the rejected rows.
type Reject string

const (
	RejectNone         Reject = ""
	RejectNoLocation   Reject = "no_location"
	RejectOutOfBounds  Reject = "out_of_bounds"
	RejectPassengers   Reject = "passenger_count"
	RejectTripDistance Reject = "trip_distance"
	RejectFare         Reject = "fare"
	RejectDuration     Reject = "duration"
	RejectSpeed        Reject = "speed"
)

// BoundingBox is a closed lng/lat rectangle.
type BoundingBox struct {
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
}

// Contains reports whether the point is inside the box.
func (b BoundingBox) Contains(lng, lat float64) bool {
	return lng >= b.MinLng && lng <= b.MaxLng && lat >= b.MinLat && lat <= b.MaxLat
}

// NYCBounds covers the five boroughs with a margin for airport trips.
var NYCBounds = BoundingBox{MinLng: -74.30, MaxLng: -73.60, MinLat: 40.45, MaxLat: 41.00}

// Filter holds the row-level predicates applied before clustering.
// The zero value rejects everything useful; use DefaultFilter.
type Filter struct {
	Bounds        BoundingBox
	MinPassengers int
	MaxPassengers int
	MaxDistance   float64 // miles, exclusive lower bound of 0 is implied
	MaxFare       float64
	MaxDuration   time.Duration

	// MaxAvgSpeedMPH rejects trips whose average speed is implausible,
	// which catches odometer and GPS glitches. Zero disables the check.
	MaxAvgSpeedMPH float64

	// RequireDropoff also applies the bounding box to the dropoff point.
	RequireDropoff bool

	accepted int
	rejects  map[Reject]int
}

// DefaultFilter returns the predicate set used by the hub analysis:
// in-city pickups, 1-9 passengers, distance in (0, 100] miles, fare in
// [0, 500], duration in (0, 6h].
func DefaultFilter() *Filter {
	return &Filter{
		Bounds:         NYCBounds,
		MinPassengers:  1,
		MaxPassengers:  9,
		MaxDistance:    100,
		MaxFare:        500,
		MaxDuration:    6 * time.Hour,
		MaxAvgSpeedMPH: 100,
	}
}

// Check evaluates the predicates against t and returns the first failing
// reason, or RejectNone. Counters are updated either way.
func (f *Filter) Check(t *Trip) Reject {
	reason := f.check(t)
	if reason == RejectNone {
		f.accepted++
		return reason
	}
	if f.rejects == nil {
		f.rejects = make(map[Reject]int)
	}
	f.rejects[reason]++
	return reason
}

// Keep is a convenience wrapper around Check.
func (f *Filter) Keep(t *Trip) bool { return f.Check(t) == RejectNone }

func (f *Filter) check(t *Trip) Reject {
	if !t.HasPickupLocation() {
		return RejectNoLocation
	}
	if !f.Bounds.Contains(t.PickupLng, t.PickupLat) {
		return RejectOutOfBounds
	}
	if f.RequireDropoff && !f.Bounds.Contains(t.DropoffLng, t.DropoffLat) {
		return RejectOutOfBounds
	}
	if t.PassengerCount < f.MinPassengers || t.PassengerCount > f.MaxPassengers {
		return RejectPassengers
	}
	if t.TripDistance <= 0 || t.TripDistance > f.MaxDistance {
		return RejectTripDistance
	}
	if t.FareAmount < 0 || t.FareAmount > f.MaxFare || t.TotalAmount < 0 {
		return RejectFare
	}
	d := t.Duration()
	if d <= 0 || d > f.MaxDuration {
		return RejectDuration
	}
	if f.MaxAvgSpeedMPH > 0 {
		speedMPS := units.MilesToMeters(t.TripDistance) / d.Seconds()
		if units.ConvertSpeed(speedMPS, units.MPH) > f.MaxAvgSpeedMPH {
			return RejectSpeed
		}
	}
	return RejectNone
}

// Accepted returns the number of trips that passed the filter.
func (f *Filter) Accepted() int { return f.accepted }

// Rejected returns the total number of rejected trips.
func (f *Filter) Rejected() int {
	n := 0
	for _, c := range f.rejects {
		n += c
	}
	return n
}

// RejectCounts returns a copy of the per-reason rejection counters.
func (f *Filter) RejectCounts() map[Reject]int {
	out := make(map[Reject]int, len(f.rejects))
	for k, v := range f.rejects {
		out[k] = v
	}
	return out
}

// Summary formats the counters for logging.
func (f *Filter) Summary() string {
	return fmt.Sprintf("accepted=%d rejected=%d (location=%d bounds=%d passengers=%d distance=%d fare=%d duration=%d speed=%d)",
		f.accepted, f.Rejected(),
		f.rejects[RejectNoLocation], f.rejects[RejectOutOfBounds],
		f.rejects[RejectPassengers], f.rejects[RejectTripDistance],
		f.rejects[RejectFare], f.rejects[RejectDuration], f.rejects[RejectSpeed])
}
