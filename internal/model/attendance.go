// Package model defines the domain model.
package model

import (
	"errors"
	"time"
)

// ErrDuplicateAttendance is returned by the attendance repository when an
// insert collides with the one-check-in-per-worker-per-site-per-UTC-day
// uniqueness constraint.
var ErrDuplicateAttendance = errors.New("attendance already recorded for this worker, site and day")

// SiteAttendance records that one worker checked in to one site at one
// instant, with the coordinates supplied at check-in. Rows are created
// exactly once per successful check-in and never mutated or deleted.
type SiteAttendance struct {
	ID          string
	WorkerID    string
	JobSiteID   string
	CheckedInAt time.Time
	Latitude    float64
	Longitude   float64
}
