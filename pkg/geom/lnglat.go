package geom

import "math"

// LngLat represents a geographic coordinate. Longitude is in [-180, 180],
// latitude in [-90, 90]; both must be finite.
type LngLat struct {
	Lng float64
	Lat float64
}

// NewLngLat creates a coordinate from a (lon, lat) pair
func NewLngLat(lng, lat float64) LngLat {
	return LngLat{Lng: lng, Lat: lat}
}

// LngLatFromArray creates a coordinate from a [lon, lat] ordered pair
func LngLatFromArray(pair [2]float64) LngLat {
	return LngLat{Lng: pair[0], Lat: pair[1]}
}

// Array returns the coordinate as a [lon, lat] ordered pair
func (ll LngLat) Array() [2]float64 {
	return [2]float64{ll.Lng, ll.Lat}
}

// Valid reports whether both components are finite and within range
func (ll LngLat) Valid() bool {
	if math.IsNaN(ll.Lng) || math.IsInf(ll.Lng, 0) {
		return false
	}
	if math.IsNaN(ll.Lat) || math.IsInf(ll.Lat, 0) {
		return false
	}
	return ll.Lng >= -180 && ll.Lng <= 180 && ll.Lat >= -90 && ll.Lat <= 90
}

// OrDefault returns the coordinate unchanged when valid, (0,0) otherwise
func (ll LngLat) OrDefault() LngLat {
	if !ll.Valid() {
		return LngLat{}
	}
	return ll
}

// Equal compares two coordinates by raw value, not semantic distance
func (ll LngLat) Equal(other LngLat) bool {
	return ll.Lng == other.Lng && ll.Lat == other.Lat
}

// Wrap normalizes the longitude into [-180, 180] and clamps the latitude
// into [-90, 90]
func (ll LngLat) Wrap() LngLat {
	lng := math.Mod(ll.Lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	lng -= 180

	lat := ll.Lat
	if lat > 90 {
		lat = 90
	} else if lat < -90 {
		lat = -90
	}

	return LngLat{Lng: lng, Lat: lat}
}
