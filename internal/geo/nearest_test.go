package geo

import (
	"testing"

	"github.com/buildsafe/siteward/internal/model"
)

func site(id, name string, lat, lng, radius float64) *model.JobSite {
	return &model.JobSite{
		ID:           id,
		Name:         name,
		Latitude:     lat,
		Longitude:    lng,
		RadiusMeters: radius,
		Active:       true,
	}
}

func TestNearestSite_ExactCenter(t *testing.T) {
	sites := []*model.JobSite{
		site("s1", "Kwinana Substation", -32.2397, 115.7702, 100),
	}

	got, dist, ok := NearestSite(-32.2397, 115.7702, sites)
	if !ok {
		t.Fatal("expected a match at the site center")
	}
	if got.ID != "s1" {
		t.Errorf("site = %s, want s1", got.ID)
	}
	if dist != 0 {
		t.Errorf("distance = %f, want 0", dist)
	}
}

func TestNearestSite_OutOfRange(t *testing.T) {
	sites := []*model.JobSite{
		site("s1", "Kwinana Substation", -32.2397, 115.7702, 100),
		site("s2", "Osborne Park Depot", -31.9016, 115.8106, 250),
	}

	// Sydney is thousands of kilometers from both Perth sites.
	_, _, ok := NearestSite(-33.8688, 151.2093, sites)
	if ok {
		t.Error("expected no match for a point far outside every radius")
	}
}

func TestNearestSite_JustInsideAndJustOutsideRadius(t *testing.T) {
	// The site has a 100m radius; 0.0009 degrees of latitude is ~100.1m.
	sites := []*model.JobSite{
		site("s1", "Tight Fence", -32.0, 115.8, 100),
	}

	if _, _, ok := NearestSite(-32.0008, 115.8, sites); !ok {
		t.Error("point ~89m away should be inside a 100m radius")
	}
	if _, _, ok := NearestSite(-32.0010, 115.8, sites); ok {
		t.Error("point ~111m away should be outside a 100m radius")
	}
}

func TestNearestSite_ClosestOfOverlappingSites(t *testing.T) {
	// Both geofences contain the point; the nearer center must win
	// regardless of slice order.
	sites := []*model.JobSite{
		site("far", "Far Site", -32.010, 115.8, 5000),
		site("near", "Near Site", -32.001, 115.8, 5000),
	}

	got, _, ok := NearestSite(-32.0, 115.8, sites)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.ID != "near" {
		t.Errorf("site = %s, want near", got.ID)
	}
}

func TestNearestSite_RespectsPerSiteRadius(t *testing.T) {
	// The nearer site has too small a radius; the farther site with a
	// generous radius is the only candidate.
	sites := []*model.JobSite{
		site("small", "Small Fence", -32.001, 115.8, 10),
		site("large", "Large Fence", -32.010, 115.8, 5000),
	}

	got, _, ok := NearestSite(-32.0, 115.8, sites)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.ID != "large" {
		t.Errorf("site = %s, want large", got.ID)
	}
}

func TestNearestSite_TieBreaksToFirstInInputOrder(t *testing.T) {
	// Two sites at the identical center produce exactly equal distances;
	// the first-encountered site must win.
	sites := []*model.JobSite{
		site("a", "Site A", -32.0, 115.8, 500),
		site("b", "Site B", -32.0, 115.8, 500),
	}

	got, _, ok := NearestSite(-32.0005, 115.8, sites)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.ID != "a" {
		t.Errorf("site = %s, want a (first in input order)", got.ID)
	}
}

func TestNearestSite_EmptySlice(t *testing.T) {
	_, _, ok := NearestSite(-32.0, 115.8, nil)
	if ok {
		t.Error("expected no match for an empty site set")
	}
}

// Returned site is always within its own radius, and no non-candidate is
// ever returned: checked across a grid of points around two sites.
func TestNearestSite_ReturnedSiteAlwaysWithinRadius(t *testing.T) {
	sites := []*model.JobSite{
		site("s1", "Site One", -32.0, 115.8, 150),
		site("s2", "Site Two", -32.002, 115.803, 300),
	}

	for dlat := -0.005; dlat <= 0.005; dlat += 0.001 {
		for dlng := -0.005; dlng <= 0.005; dlng += 0.001 {
			lat := -32.0 + dlat
			lng := 115.8 + dlng
			got, dist, ok := NearestSite(lat, lng, sites)
			if !ok {
				continue
			}
			if dist > got.RadiusMeters {
				t.Fatalf("returned site %s at distance %.1fm exceeds its radius %.1fm",
					got.ID, dist, got.RadiusMeters)
			}
			for _, s := range sites {
				d := Distance(lat, lng, s.Latitude, s.Longitude)
				if d <= s.RadiusMeters && d < dist {
					t.Fatalf("site %s at %.1fm is closer than returned site %s at %.1fm",
						s.ID, d, got.ID, dist)
				}
			}
		}
	}
}
