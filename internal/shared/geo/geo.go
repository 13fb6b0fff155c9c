package geo

import "math"

// EarthRadiusM is the mean Earth radius used for all great-circle math.
const EarthRadiusM = 6371000.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineM returns the great-circle distance between two points in meters.
func HaversineM(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// HaversineKm returns the great-circle distance in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	return HaversineM(Point{Lat: lat1, Lng: lng1}, Point{Lat: lat2, Lng: lng2}) / 1000
}

// BearingDeg returns the initial bearing from a to b in degrees [0,360).
func BearingDeg(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// PointToSegmentM returns the minimum distance in meters from p to the leg
// a-b. Legs are road-scale, so the leg is projected onto a locally flat
// plane around a; coincident endpoints degrade to plain point distance.
func PointToSegmentM(p, a, b Point) float64 {
	latRad := a.Lat * math.Pi / 180
	mPerDegLat := math.Pi * EarthRadiusM / 180
	mPerDegLng := mPerDegLat * math.Cos(latRad)

	ax, ay := 0.0, 0.0
	bx := (b.Lng - a.Lng) * mPerDegLng
	by := (b.Lat - a.Lat) * mPerDegLat
	px := (p.Lng - a.Lng) * mPerDegLng
	py := (p.Lat - a.Lat) * mPerDegLat

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return HaversineM(p, a)
	}

	t := (px*dx + py*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	cx, cy := ax+t*dx, ay+t*dy
	return math.Hypot(px-cx, py-cy)
}

// PointToPolylineM returns the minimum distance in meters from p to the
// polyline, taken over its consecutive legs. A single-point polyline is
// treated as that point.
func PointToPolylineM(p Point, line []Point) float64 {
	if len(line) == 0 {
		return math.Inf(1)
	}
	if len(line) == 1 {
		return HaversineM(p, line[0])
	}
	best := math.Inf(1)
	for i := 0; i < len(line)-1; i++ {
		if d := PointToSegmentM(p, line[i], line[i+1]); d < best {
			best = d
		}
	}
	return best
}

// PolylineLengthM sums the haversine distances of consecutive points.
func PolylineLengthM(line []Point) float64 {
	var total float64
	for i := 0; i < len(line)-1; i++ {
		total += HaversineM(line[i], line[i+1])
	}
	return total
}
