package geo

import (
	"math"
	"testing"
)

var (
	nyc = Point{Lat: 40.7128, Lng: -74.0060}
	la  = Point{Lat: 34.0522, Lng: -118.2437}
)

func TestDistanceSamePointIsZero(t *testing.T) {
	for _, p := range []Point{nyc, la, {Lat: 0, Lng: 0}, {Lat: -89.9, Lng: 179.9}} {
		if d := Distance(p, p); d != 0 {
			t.Fatalf("expected 0 for %+v, got %f", p, d)
		}
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	pairs := [][2]Point{
		{nyc, la},
		{{Lat: 51.5074, Lng: -0.1278}, {Lat: 48.8566, Lng: 2.3522}},
		{{Lat: -33.8688, Lng: 151.2093}, {Lat: 35.6762, Lng: 139.6503}},
	}
	for _, p := range pairs {
		ab, ba := Distance(p[0], p[1]), Distance(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Fatalf("asymmetric distance: %f vs %f", ab, ba)
		}
	}
}

func TestDistanceNewYorkToLosAngeles(t *testing.T) {
	d := Distance(nyc, la)
	if math.Abs(d-2451)/2451 > 0.01 {
		t.Fatalf("expected about 2451 miles, got %f", d)
	}
}

func TestDistanceNaNPropagates(t *testing.T) {
	if d := Distance(Point{Lat: math.NaN(), Lng: 0}, nyc); !math.IsNaN(d) {
		t.Fatalf("expected NaN, got %f", d)
	}
}

func TestPointValid(t *testing.T) {
	tests := []struct {
		p    Point
		want bool
	}{
		{nyc, true},
		{Point{Lat: 90, Lng: 180}, true},
		{Point{Lat: 91, Lng: 0}, false},
		{Point{Lat: 0, Lng: -181}, false},
		{Point{Lat: math.NaN(), Lng: 0}, false},
	}
	for _, tc := range tests {
		if got := tc.p.Valid(); got != tc.want {
			t.Fatalf("Valid(%+v): expected %v, got %v", tc.p, tc.want, got)
		}
	}
}
