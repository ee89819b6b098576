package geom

import (
	"math"
	"testing"
)

func TestCalcOffset(t *testing.T) {
	// Surface bounding rect top-left (10,20) with page scroll (5,5)
	// must yield (15,25).
	offset := CalcOffset(Rect{X: 10, Y: 20, Width: 640, Height: 480}, Point{X: 5, Y: 5})
	if offset.X != 15 || offset.Y != 25 {
		t.Errorf("CalcOffset = (%v,%v), want (15,25)", offset.X, offset.Y)
	}
}

func TestRect_NegativeExtents(t *testing.T) {
	r := Rect{X: 100, Y: 100, Width: -40, Height: -20}

	if got := r.Left(); got != 60 {
		t.Errorf("Left() = %v, want 60", got)
	}
	if got := r.Right(); got != 100 {
		t.Errorf("Right() = %v, want 100", got)
	}
	if got := r.Top(); got != 80 {
		t.Errorf("Top() = %v, want 80", got)
	}
	if got := r.Bottom(); got != 100 {
		t.Errorf("Bottom() = %v, want 100", got)
	}
}

func TestRect_Contains(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 100, Height: 50}

	if !r.Contains(Point{X: 50, Y: 30}) {
		t.Error("interior point should be contained")
	}
	if r.Contains(Point{X: 110, Y: 30}) {
		t.Error("right edge is exclusive")
	}
	if r.Contains(Point{X: 5, Y: 30}) {
		t.Error("point left of rect should not be contained")
	}
}

func TestLngLat_Valid(t *testing.T) {
	tests := []struct {
		name string
		ll   LngLat
		want bool
	}{
		{"origin", LngLat{}, true},
		{"extreme corners", LngLat{Lng: -180, Lat: 90}, true},
		{"longitude out of range", LngLat{Lng: 181, Lat: 0}, false},
		{"latitude out of range", LngLat{Lng: 0, Lat: -91}, false},
		{"NaN longitude", LngLat{Lng: math.NaN(), Lat: 0}, false},
		{"infinite latitude", LngLat{Lng: 0, Lat: math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ll.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLngLat_OrDefault(t *testing.T) {
	if got := (LngLat{Lng: 999, Lat: 0}).OrDefault(); !got.Equal(LngLat{}) {
		t.Errorf("invalid coordinate should default to origin, got %v", got)
	}
	valid := LngLat{Lng: 13.4, Lat: 52.5}
	if got := valid.OrDefault(); !got.Equal(valid) {
		t.Errorf("valid coordinate should pass through, got %v", got)
	}
}

func TestLngLat_Wrap(t *testing.T) {
	wrapped := LngLat{Lng: 190, Lat: 95}.Wrap()
	if wrapped.Lng != -170 {
		t.Errorf("Wrap longitude = %v, want -170", wrapped.Lng)
	}
	if wrapped.Lat != 90 {
		t.Errorf("Wrap latitude = %v, want 90", wrapped.Lat)
	}
}

func TestLngLat_ArrayRoundTrip(t *testing.T) {
	ll := LngLatFromArray([2]float64{-73.97, 40.78})
	if ll.Lng != -73.97 || ll.Lat != 40.78 {
		t.Errorf("LngLatFromArray order wrong: %v", ll)
	}
	if got := ll.Array(); got != [2]float64{-73.97, 40.78} {
		t.Errorf("Array() = %v", got)
	}
}
