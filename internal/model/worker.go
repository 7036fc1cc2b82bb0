// Package model defines the domain model.
package model

import (
	"errors"
	"time"
)

// ErrDuplicateWorker is returned by the worker repository when an insert
// collides with the case-insensitive unique email constraint.
var ErrDuplicateWorker = errors.New("worker with this email already exists")

// Worker is a person who completed the site induction.
// Workers are created once at induction submission and are read-only
// for the check-in flow.
type Worker struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// FullName returns the worker's display name.
func (w *Worker) FullName() string {
	return w.FirstName + " " + w.LastName
}

// Contractor is a subcontracting company engaged on one or more job sites.
type Contractor struct {
	ID           string
	Name         string
	ContactName  string
	ContactEmail string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
