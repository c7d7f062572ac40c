package geo

import "math"

const earthRadiusM = 6371000.0

type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// BBox is an axis-aligned latitude/longitude box.
type BBox struct {
	Min Coordinate `json:"min" yaml:"min"`
	Max Coordinate `json:"max" yaml:"max"`
}

func (b BBox) Valid() bool {
	return b.Min.Lat <= b.Max.Lat && b.Min.Lon <= b.Max.Lon &&
		b.Min.Lat >= -90 && b.Max.Lat <= 90 &&
		b.Min.Lon >= -180 && b.Max.Lon <= 180
}

func (b BBox) Contains(c Coordinate) bool {
	return c.Lat >= b.Min.Lat && c.Lat <= b.Max.Lat && c.Lon >= b.Min.Lon && c.Lon <= b.Max.Lon
}

// Lerp interpolates linearly between a and b; t is not clamped.
func Lerp(a, b Coordinate, t float64) Coordinate {
	return Coordinate{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lon: a.Lon + (b.Lon-a.Lon)*t,
	}
}

// Distance returns the haversine distance in meters.
func Distance(a, b Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusM * c
}

// Bearing returns the initial compass bearing from a to b in [0, 360).
func Bearing(a, b Coordinate) float64 {
	y := math.Sin(toRad(b.Lon-a.Lon)) * math.Cos(toRad(b.Lat))
	x := math.Cos(toRad(a.Lat))*math.Sin(toRad(b.Lat)) - math.Sin(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Cos(toRad(b.Lon-a.Lon))
	brng := math.Atan2(y, x) * 180.0 / math.Pi
	if brng < 0 {
		brng += 360
	}
	return brng
}

func toRad(d float64) float64 { return d * math.Pi / 180 }
