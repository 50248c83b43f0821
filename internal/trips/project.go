package trips

import "math"

// Equirectangular projects lng/lat degrees onto a local metric plane.
// Clustering on raw degrees skews distances because a degree of longitude
// shrinks with latitude; projecting about a reference latitude keeps
// Euclidean distance meaningful at city scale.
type Equirectangular struct {
	RefLat float64 // degrees
	cosRef float64
}

// NewEquirectangular returns a projection centred on refLat degrees.
func NewEquirectangular(refLat float64) *Equirectangular {
	return &Equirectangular{
		RefLat: refLat,
		cosRef: math.Cos(refLat * math.Pi / 180),
	}
}

// Project converts lng/lat degrees to x/y meters.
func (p *Equirectangular) Project(lng, lat float64) (x, y float64) {
	x = lng * p.cosRef * math.Pi / 180 * EarthRadiusMeters
	y = lat * math.Pi / 180 * EarthRadiusMeters
	return x, y
}

// Unproject converts x/y meters back to lng/lat degrees.
func (p *Equirectangular) Unproject(x, y float64) (lng, lat float64) {
	lng = x / (p.cosRef * math.Pi / 180 * EarthRadiusMeters)
	lat = y / (math.Pi / 180 * EarthRadiusMeters)
	return lng, lat
}

// MeanPickupLat returns the mean pickup latitude of the trips, used as the
// projection reference. Returns 0 for an empty slice.
func MeanPickupLat(ts []Trip) float64 {
	if len(ts) == 0 {
		return 0
	}
	sum := 0.0
	for i := range ts {
		sum += ts[i].PickupLat
	}
	return sum / float64(len(ts))
}
