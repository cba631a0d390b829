package geo

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
		tol  float64
	}{
		{"same point", Point{4.05, 9.70}, Point{4.05, 9.70}, 0, 1e-9},
		{"one degree of latitude", Point{0, 0}, Point{1, 0}, 111.195, 0.01},
		{"douala hop", Point{4.05, 9.70}, Point{4.50, 9.90}, 54.75, 0.5},
		{"antipodes", Point{0, 0}, Point{0, 180}, math.Pi * EarthRadiusKm, 1e-6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("HaversineKm = %f, want %f ± %f", got, tt.want, tt.tol)
			}
			if back := HaversineKm(tt.b, tt.a); math.Abs(back-got) > 1e-9 {
				t.Errorf("distance not symmetric: %f vs %f", got, back)
			}
		})
	}
}

func TestBearingDeg(t *testing.T) {
	tests := []struct {
		name string
		b    Point
		want float64
	}{
		{"north", Point{1, 0}, 0},
		{"east", Point{0, 1}, 90},
		{"south", Point{-1, 0}, 180},
		{"west", Point{0, -1}, 270},
	}
	for _, tt := range tests {
		if got := BearingDeg(Point{0, 0}, tt.b); math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("%s: BearingDeg = %f, want %f", tt.name, got, tt.want)
		}
	}
}

func TestWithinRadius(t *testing.T) {
	center := Point{4.05, 9.70}
	if !WithinRadius(center, Point{4.0505, 9.70}, 100) {
		t.Error("point ~55m away should be inside a 100m radius")
	}
	if WithinRadius(center, Point{4.06, 9.70}, 100) {
		t.Error("point ~1.1km away should be outside a 100m radius")
	}
}

func TestInPolygon(t *testing.T) {
	square := []Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
	if !InPolygon(Point{0.5, 0.5}, square) {
		t.Error("center should be inside")
	}
	if InPolygon(Point{1.5, 0.5}, square) {
		t.Error("point beyond the right edge should be outside")
	}
	if InPolygon(Point{0.5, 0.5}, square[:2]) {
		t.Error("degenerate ring must not contain anything")
	}
}

func TestDistanceToPolygonM(t *testing.T) {
	square := []Point{{0, 0}, {0, 0.01}, {0.01, 0.01}, {0.01, 0}}
	// ~0.001 degrees of latitude below the bottom edge
	d := DistanceToPolygonM(Point{-0.001, 0.005}, square)
	if math.Abs(d-111.2) > 1 {
		t.Errorf("DistanceToPolygonM = %f, want ~111.2", d)
	}
	if !math.IsInf(DistanceToPolygonM(Point{0, 0}, nil), 1) {
		t.Error("empty ring should be infinitely far")
	}
}
