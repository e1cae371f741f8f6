package domain

import "math"

// Coordinate is a latitude/longitude pair used by the tracking map.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// cityBases anchors the simulated map per delivery city. Unknown cities fall
// back to Alwar, the demo's home market.
var cityBases = map[string]Coordinate{
	"Alwar":    {Lat: 27.55299, Lng: 76.63457},
	"Jaipur":   {Lat: 26.91243, Lng: 75.78727},
	"Delhi":    {Lat: 28.6139, Lng: 77.209},
	"Gurugram": {Lat: 28.4595, Lng: 77.0266},
	"Noida":    {Lat: 28.5355, Lng: 77.391},
	"Mumbai":   {Lat: 19.076, Lng: 72.8777},
}

// CityBase returns the map anchor for a city.
func CityBase(city string) Coordinate {
	if base, ok := cityBases[city]; ok {
		return base
	}
	return cityBases["Alwar"]
}

// Fixed offsets from the city anchor for the three tracked points.
func RestaurantPoint(base Coordinate) Coordinate {
	return Coordinate{Lat: base.Lat + 0.018, Lng: base.Lng - 0.02}
}

func CustomerPoint(base Coordinate) Coordinate {
	return Coordinate{Lat: base.Lat - 0.01, Lng: base.Lng + 0.014}
}

func PartnerStart(base Coordinate) Coordinate {
	return Coordinate{Lat: base.Lat + 0.03, Lng: base.Lng - 0.026}
}

// StepToward moves current a fixed fraction of the remaining distance to
// target, producing an easing approach rather than a linear one.
func StepToward(current, target Coordinate, factor float64) Coordinate {
	return Coordinate{
		Lat: current.Lat + (target.Lat-current.Lat)*factor,
		Lng: current.Lng + (target.Lng-current.Lng)*factor,
	}
}

// DistanceKm returns the great-circle distance between two coordinates using
// the Haversine formula.
func DistanceKm(a, b Coordinate) float64 {
	const earthRadiusKm = 6371

	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
