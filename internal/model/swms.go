// Package model defines the domain model.
package model

import "time"

// SWMSDocument is a Safe Work Method Statement submitted by a contractor
// for a specific job site. The binary content lives in blob storage; this
// row holds the metadata and the storage key.
type SWMSDocument struct {
	ID           string
	ContractorID string
	JobSiteID    string
	Title        string
	Description  string
	StorageKey   string
	FileName     string
	ContentType  string
	SizeBytes    int64
	SubmittedAt  time.Time
}
