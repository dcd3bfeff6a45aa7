// Package geo holds the small amount of spherical geometry the search layer
// needs: great-circle distance between two coordinates and a rectangular
// lat/lon envelope around a circle that the store can use as a coarse
// pre-filter.
//
// Latitudes close to the poles are not widened and longitudes are not wrapped
// at ±180°. A box that crosses the antimeridian will therefore miss points on
// the far side.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// boxSlack absorbs float rounding so points exactly on the circle stay inside.
const boxSlack = 1e-9

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Box is an axis-aligned lat/lon envelope in degrees.
type Box struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLon"`
	MaxLon float64 `json:"maxLon"`
}

// Valid reports whether p lies within the legal latitude/longitude ranges.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// DistanceKm returns the great-circle distance between a and b in kilometres.
// The result is symmetric in its arguments and zero for identical points.
func DistanceKm(a, b Point) float64 {
	if a == b {
		return 0
	}
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h marginally past 1 for antipodal points
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// BoundingBoxFor returns an envelope that contains every point within
// radiusKm of center. The box is a superset of the circle: callers that need
// the exact circle must re-check with DistanceKm.
func BoundingBoxFor(center Point, radiusKm float64) Box {
	if radiusKm < 0 {
		radiusKm = 0
	}
	angular := radiusKm / EarthRadiusKm
	latDelta := degrees(angular)

	// Widest longitude offset of the circle, reached at the tangent latitude.
	// When the circle reaches a pole every longitude qualifies.
	lonDelta := 180.0
	if s := math.Sin(angular) / math.Cos(radians(center.Lat)); s < 1 {
		lonDelta = degrees(math.Asin(s))
	}

	return Box{
		MinLat: center.Lat - latDelta - boxSlack,
		MaxLat: center.Lat + latDelta + boxSlack,
		MinLon: center.Lon - lonDelta - boxSlack,
		MaxLon: center.Lon + lonDelta + boxSlack,
	}
}

// Contains reports whether p lies inside b (edges inclusive).
func (b Box) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}
