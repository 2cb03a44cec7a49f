package location

import (
	"math"
	"testing"
)

func TestDistanceKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lng1      float64
		lat2      float64
		lng2      float64
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			lat1:      25.033, lng1: 121.565,
			lat2:      25.033, lng2: 121.565,
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name:      "lower Manhattan to Williamsburg",
			lat1:      40.7128, lng1: -74.0060,
			lat2:      40.7306, lng2: -73.9352,
			wantKm:    6.2863,
			tolerance: 0.001,
		},
		{
			name:      "New York to Los Angeles (~3944km)",
			lat1:      40.7128, lng1: -74.0060,
			lat2:      34.0522, lng2: -118.2437,
			wantKm:    3944,
			tolerance: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("DistanceKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestDistanceKm_Symmetry(t *testing.T) {
	d1 := DistanceKm(25.0, 121.0, 26.0, 122.0)
	d2 := DistanceKm(26.0, 122.0, 25.0, 121.0)
	if math.Abs(d1-d2) > 0.0001 {
		t.Errorf("haversine is not symmetric: %f vs %f", d1, d2)
	}
}

func TestEtaMinutes(t *testing.T) {
	tests := []struct {
		name       string
		distanceKm float64
		want       int
	}{
		{"zero distance", 0, 0},
		{"half a kilometre rounds up", 0.5, 1},
		{"manhattan crosstown", 6.286267, 13},
		{"exact multiple", 15, 30},
		{"just over a minute boundary", 15.01, 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EtaMinutes(tt.distanceKm); got != tt.want {
				t.Errorf("EtaMinutes(%f) = %d, want %d", tt.distanceKm, got, tt.want)
			}
		})
	}
}
