// Package geo holds the small amount of spherical math the attendance
// features need: great-circle distance, bearing and geofence tests.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by every distance here.
const EarthRadiusKm = 6371.0

// Point is a WGS-84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// HaversineKm returns the great-circle distance between a and b in kilometers.
func HaversineKm(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// BearingDeg returns the initial bearing from a to b, normalized to [0,360).
func BearingDeg(a, b Point) float64 {
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	dLng := toRad(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	return math.Mod(toDeg(math.Atan2(y, x))+360, 360)
}

// WithinRadius reports whether p lies within radiusM meters of center.
func WithinRadius(center, p Point, radiusM float64) bool {
	return HaversineKm(center, p)*1000 <= radiusM
}

// InPolygon runs a ray-casting test of p against the ring poly.
// The ring may be open or closed; fewer than 3 vertices never contain p.
func InPolygon(p Point, poly []Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := poly[i], poly[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) &&
			p.Lng < (vj.Lng-vi.Lng)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat)+vi.Lng {
			inside = !inside
		}
	}
	return inside
}

// DistanceToPolygonM returns the smallest vertex/edge distance from p to the
// ring in meters, using an equirectangular projection around p. It is only
// meant for tolerance checks of a few hundred meters.
func DistanceToPolygonM(p Point, poly []Point) float64 {
	if len(poly) == 0 {
		return math.Inf(1)
	}
	cosLat := math.Cos(toRad(p.Lat))
	project := func(q Point) (float64, float64) {
		x := toRad(q.Lng-p.Lng) * cosLat * EarthRadiusKm * 1000
		y := toRad(q.Lat-p.Lat) * EarthRadiusKm * 1000
		return x, y
	}

	best := math.Inf(1)
	for i := range poly {
		ax, ay := project(poly[i])
		bx, by := project(poly[(i+1)%len(poly)])
		if d := segmentOriginDistance(ax, ay, bx, by); d < best {
			best = d
		}
	}
	return best
}

func segmentOriginDistance(ax, ay, bx, by float64) float64 {
	dx, dy := bx-ax, by-ay
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(ax, ay)
	}
	t := -(ax*dx + ay*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(ax+t*dx, ay+t*dy)
}
