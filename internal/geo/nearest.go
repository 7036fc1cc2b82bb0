package geo

import "github.com/buildsafe/siteward/internal/model"

// NearestSite selects the job site whose geofence contains the given
// coordinate. A site is a candidate only if the haversine distance from the
// point to the site's center is within that site's own radius; among the
// candidates the smallest distance wins. Ties on exact distance resolve to
// the first-encountered site in input order, so the result is deterministic
// for a given input slice.
//
// The third return value is false when no site is in range. That is a normal
// outcome, not an error: the caller decides how to interpret it.
func NearestSite(lat, lng float64, sites []*model.JobSite) (*model.JobSite, float64, bool) {
	var (
		best     *model.JobSite
		bestDist float64
	)

	for _, site := range sites {
		d := Distance(lat, lng, site.Latitude, site.Longitude)
		if d > site.RadiusMeters {
			continue
		}
		if best == nil || d < bestDist {
			best = site
			bestDist = d
		}
	}

	if best == nil {
		return nil, 0, false
	}
	return best, bestDist, true
}
