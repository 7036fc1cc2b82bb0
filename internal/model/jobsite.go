// Package model defines the domain model.
package model

import "time"

// JobSite is a physical location eligible for check-in.
// Only active sites participate in nearest-site matching.
type JobSite struct {
	ID           string
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
